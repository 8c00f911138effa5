package review

import (
	"artzip/internal/api"
	"artzip/internal/domain"
	"artzip/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPhotos       = 9
)

// ListQuery selects a page of the review collection. Page is zero-indexed.
type ListQuery struct {
	ExhibitionID int64
	Page         int
	Size         int
	Sort         string
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

const timestampLayout = "2006-01-02T15:04:05"

func toAPIReview(rv domain.Review, stats *repository.ReviewStats) api.Review {
	out := api.Review{
		ReviewID:  rv.ID,
		Date:      rv.Date,
		Title:     rv.Title,
		Content:   rv.Content,
		CreatedAt: rv.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt: rv.UpdatedAt.UTC().Format(timestampLayout),
		IsEdited:  rv.IsEdited,
		IsPublic:  rv.IsPublic,
		Photos:    make([]api.Photo, 0, len(rv.Photos)),
	}
	if rv.User != nil {
		out.User = api.UserSummary{
			UserID:       rv.User.ID,
			ProfileImage: rv.User.ProfileImage,
			Nickname:     rv.User.Nickname,
		}
	}
	if rv.Exhibition != nil {
		out.Exhibition = api.ExhibitionSummary{
			ExhibitionID: rv.Exhibition.ID,
			Name:         rv.Exhibition.Name,
			StartDate:    rv.Exhibition.StartDate,
			Thumbnail:    rv.Exhibition.Thumbnail,
		}
	}
	for _, p := range rv.Photos {
		out.Photos = append(out.Photos, api.Photo{PhotoID: p.ID, Path: p.Path})
	}
	if stats != nil {
		out.LikeCount = stats.LikeCount
		out.IsLiked = stats.IsLiked
	}
	return out
}
