package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"artzip/internal/domain"
)

var ErrReviewNotFound = errors.New("review not found")

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ReviewFilter selects a page of reviews. Zero-valued fields do not filter.
// ViewerID controls visibility of private reviews.
type ReviewFilter struct {
	ExhibitionID int64
	AuthorID     int64
	LikedBy      int64
	ViewerID     int64
	SortByLikes  bool
	Limit        int
	Offset       int
}

// ReviewStats carries per-review counters.
type ReviewStats struct {
	LikeCount int64
	IsLiked   bool
}

func visibleTo(q *gorm.DB, viewerID int64) *gorm.DB {
	if viewerID > 0 {
		return q.Where("(reviews.is_public = ? OR reviews.user_id = ?)", true, viewerID)
	}
	return q.Where("reviews.is_public = ?", true)
}

func preloadReview(q *gorm.DB) *gorm.DB {
	return q.Preload("User").Preload("Exhibition").Preload("Photos", func(db *gorm.DB) *gorm.DB {
		return db.Order("review_photos.id ASC")
	})
}

// Create inserts the review together with its photos.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	var rv domain.Review
	err := preloadReview(r.db.WithContext(ctx)).First(&rv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepository) List(ctx context.Context, f ReviewFilter) ([]domain.Review, int64, error) {
	q := visibleTo(r.db.WithContext(ctx).Model(&domain.Review{}), f.ViewerID)
	if f.ExhibitionID > 0 {
		q = q.Where("reviews.exhibition_id = ?", f.ExhibitionID)
	}
	if f.AuthorID > 0 {
		q = q.Where("reviews.user_id = ?", f.AuthorID)
	}
	if f.LikedBy > 0 {
		q = q.Joins("JOIN review_likes ON review_likes.review_id = reviews.id").
			Where("review_likes.user_id = ?", f.LikedBy)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch {
	case f.SortByLikes:
		q = q.Order("(SELECT COUNT(*) FROM review_likes rl WHERE rl.review_id = reviews.id) DESC")
	case f.LikedBy > 0:
		q = q.Order("review_likes.created_at DESC")
	}
	q = q.Order("reviews.created_at DESC").Order("reviews.id DESC")

	var rows []domain.Review
	if err := preloadReview(q).Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update saves the editable fields, appends newPhotos and removes the
// photos listed in deletePhotoIDs, all in one transaction. Photo ids that
// do not belong to the review are ignored. Returns the removed photos so
// the caller can release their blobs.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review, newPhotos []domain.Photo, deletePhotoIDs []int64) ([]domain.Photo, error) {
	var removed []domain.Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Review{}).
			Where("id = ?", rv.ID).
			Select("exhibition_id", "date", "title", "content", "is_public", "is_edited", "updated_at").
			Updates(rv)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrReviewNotFound
		}

		if len(deletePhotoIDs) > 0 {
			if err := tx.Where("review_id = ? AND id IN ?", rv.ID, deletePhotoIDs).Find(&removed).Error; err != nil {
				return err
			}
			if len(removed) > 0 {
				if err := tx.Where("review_id = ? AND id IN ?", rv.ID, deletePhotoIDs).Delete(&domain.Photo{}).Error; err != nil {
					return err
				}
			}
		}

		for i := range newPhotos {
			newPhotos[i].ReviewID = rv.ID
		}
		if len(newPhotos) > 0 {
			if err := tx.Create(&newPhotos).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Delete removes a review with its photos and likes, returning the photos.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) ([]domain.Photo, error) {
	var photos []domain.Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Find(&photos).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", id).Delete(&domain.Photo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", id).Delete(&domain.ReviewLike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Review{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrReviewNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *ReviewRepository) Stats(ctx context.Context, ids []int64, viewerID int64) (map[int64]*ReviewStats, error) {
	out := make(map[int64]*ReviewStats, len(ids))
	for _, id := range ids {
		out[id] = &ReviewStats{}
	}
	if len(ids) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)

	var likes []idCount
	if err := db.Model(&domain.ReviewLike{}).
		Select("review_id AS id, COUNT(*) AS n").
		Where("review_id IN ?", ids).
		Group("review_id").
		Scan(&likes).Error; err != nil {
		return nil, err
	}
	for _, l := range likes {
		out[l.ID].LikeCount = l.N
	}

	if viewerID > 0 {
		var liked []int64
		if err := db.Model(&domain.ReviewLike{}).
			Where("user_id = ? AND review_id IN ?", viewerID, ids).
			Pluck("review_id", &liked).Error; err != nil {
			return nil, err
		}
		for _, id := range liked {
			out[id].IsLiked = true
		}
	}
	return out, nil
}
