package exhibition

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"artzip/internal/api"
	"artzip/internal/domain"
	"artzip/internal/repository"
)

const (
	DefaultPageSize = 8
	MaxPageSize     = 100
)

type ExhibitionRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Exhibition, error)
	Search(ctx context.Context, query string, limit, offset int) ([]domain.Exhibition, int64, error)
	LikedBy(ctx context.Context, userID int64, limit, offset int) ([]domain.Exhibition, int64, error)
	Stats(ctx context.Context, ids []int64, viewerID int64) (map[int64]*repository.ExhibitionStats, error)
}

type LikeToggler interface {
	ToggleExhibitionLike(ctx context.Context, userID, exhibitionID int64) (bool, int64, error)
}

// ActivityInvalidator drops cached profile counters of the given users.
type ActivityInvalidator interface {
	InvalidateInfo(ctx context.Context, userIDs ...int64)
}

type Service struct {
	exhibitions ExhibitionRepository
	likes       LikeToggler
	activity    ActivityInvalidator
	log         *zap.Logger
}

func NewService(exhibitions ExhibitionRepository, likes LikeToggler, log *zap.Logger) *Service {
	return &Service{exhibitions: exhibitions, likes: likes, log: log}
}

func (s *Service) SetActivityInvalidator(a ActivityInvalidator) {
	s.activity = a
}

// Search lists exhibitions whose name contains query. An empty query lists all.
func (s *Service) Search(ctx context.Context, viewerID int64, query string, page, size int) (api.Page[api.Exhibition], error) {
	page, size = normalizePage(page, size)
	rows, total, err := s.exhibitions.Search(ctx, query, size, page*size)
	if err != nil {
		return api.Page[api.Exhibition]{}, err
	}
	return s.toPage(ctx, viewerID, rows, page, size, total)
}

// LikedBy lists the exhibitions userID liked.
func (s *Service) LikedBy(ctx context.Context, viewerID, userID int64, page, size int) (api.Page[api.Exhibition], error) {
	if userID <= 0 {
		return api.Page[api.Exhibition]{}, ErrInvalidRequest
	}
	page, size = normalizePage(page, size)
	rows, total, err := s.exhibitions.LikedBy(ctx, userID, size, page*size)
	if err != nil {
		return api.Page[api.Exhibition]{}, err
	}
	return s.toPage(ctx, viewerID, rows, page, size, total)
}

func (s *Service) Get(ctx context.Context, viewerID, id int64) (*api.Exhibition, error) {
	if id <= 0 {
		return nil, ErrInvalidRequest
	}
	e, err := s.exhibitions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrExhibitionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	stats, err := s.exhibitions.Stats(ctx, []int64{id}, viewerID)
	if err != nil {
		return nil, err
	}
	out := toAPIExhibition(*e, stats[id])
	return &out, nil
}

func (s *Service) ToggleLike(ctx context.Context, userID, id int64) (*api.ExhibitionLikeState, error) {
	if userID <= 0 || id <= 0 {
		return nil, ErrInvalidRequest
	}
	if _, err := s.exhibitions.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrExhibitionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	liked, count, err := s.likes.ToggleExhibitionLike(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("toggle exhibition like: %w", err)
	}
	s.log.Debug("exhibition like toggled", zap.Int64("exhibition_id", id), zap.Int64("user_id", userID), zap.Bool("liked", liked))
	if s.activity != nil {
		s.activity.InvalidateInfo(ctx, userID)
	}
	return &api.ExhibitionLikeState{ExhibitionID: id, LikeCount: count, IsLiked: liked}, nil
}

func (s *Service) toPage(ctx context.Context, viewerID int64, rows []domain.Exhibition, page, size int, total int64) (api.Page[api.Exhibition], error) {
	ids := make([]int64, len(rows))
	for i, e := range rows {
		ids[i] = e.ID
	}
	stats, err := s.exhibitions.Stats(ctx, ids, viewerID)
	if err != nil {
		return api.Page[api.Exhibition]{}, err
	}
	content := make([]api.Exhibition, 0, len(rows))
	for _, e := range rows {
		content = append(content, toAPIExhibition(e, stats[e.ID]))
	}
	return api.NewPage(content, page, size, total), nil
}

func toAPIExhibition(e domain.Exhibition, stats *repository.ExhibitionStats) api.Exhibition {
	out := api.Exhibition{
		ExhibitionID: e.ID,
		Name:         e.Name,
		Thumbnail:    e.Thumbnail,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
	}
	if stats != nil {
		out.LikeCount = stats.LikeCount
		out.ReviewCount = stats.ReviewCount
		out.IsLiked = stats.IsLiked
	}
	return out
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
