package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"artzip/internal/domain"
)

var ErrExhibitionNotFound = errors.New("exhibition not found")

type ExhibitionRepository struct {
	db *gorm.DB
}

func NewExhibitionRepository(db *gorm.DB) *ExhibitionRepository {
	return &ExhibitionRepository{db: db}
}

func (r *ExhibitionRepository) Create(ctx context.Context, e *domain.Exhibition) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ExhibitionRepository) GetByID(ctx context.Context, id int64) (*domain.Exhibition, error) {
	var e domain.Exhibition
	err := r.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExhibitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Search matches exhibitions by name, newest first.
func (r *ExhibitionRepository) Search(ctx context.Context, query string, limit, offset int) ([]domain.Exhibition, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Exhibition{})
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.Exhibition
	if err := q.Order("start_date DESC, id DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// LikedBy returns the exhibitions a user liked, most recent like first.
func (r *ExhibitionRepository) LikedBy(ctx context.Context, userID int64, limit, offset int) ([]domain.Exhibition, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Exhibition{}).
		Joins("JOIN exhibition_likes ON exhibition_likes.exhibition_id = exhibitions.id").
		Where("exhibition_likes.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.Exhibition
	if err := q.Order("exhibition_likes.created_at DESC, exhibition_likes.id DESC").
		Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ExhibitionStats carries counters for one exhibition.
type ExhibitionStats struct {
	LikeCount   int64
	ReviewCount int64
	IsLiked     bool
}

// Stats computes counters for a set of exhibitions. ReviewCount only counts
// public reviews.
func (r *ExhibitionRepository) Stats(ctx context.Context, ids []int64, viewerID int64) (map[int64]*ExhibitionStats, error) {
	out := make(map[int64]*ExhibitionStats, len(ids))
	for _, id := range ids {
		out[id] = &ExhibitionStats{}
	}
	if len(ids) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)

	var likes []idCount
	if err := db.Model(&domain.ExhibitionLike{}).
		Select("exhibition_id AS id, COUNT(*) AS n").
		Where("exhibition_id IN ?", ids).
		Group("exhibition_id").
		Scan(&likes).Error; err != nil {
		return nil, err
	}
	for _, l := range likes {
		out[l.ID].LikeCount = l.N
	}

	var reviews []idCount
	if err := db.Model(&domain.Review{}).
		Select("exhibition_id AS id, COUNT(*) AS n").
		Where("exhibition_id IN ? AND is_public = ?", ids, true).
		Group("exhibition_id").
		Scan(&reviews).Error; err != nil {
		return nil, err
	}
	for _, rc := range reviews {
		out[rc.ID].ReviewCount = rc.N
	}

	if viewerID > 0 {
		var liked []int64
		if err := db.Model(&domain.ExhibitionLike{}).
			Where("user_id = ? AND exhibition_id IN ?", viewerID, ids).
			Pluck("exhibition_id", &liked).Error; err != nil {
			return nil, err
		}
		for _, id := range liked {
			out[id].IsLiked = true
		}
	}
	return out, nil
}

type idCount struct {
	ID int64
	N  int64
}
