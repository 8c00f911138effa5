package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"artzip/internal/domain"
)

// LikeRepository toggles review and exhibition likes.
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// ToggleReviewLike removes the user's like if present and adds it
// otherwise. Returns the new state and the review's like count.
func (r *LikeRepository) ToggleReviewLike(ctx context.Context, userID, reviewID int64) (bool, int64, error) {
	var liked bool
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND review_id = ?", userID, reviewID).Delete(&domain.ReviewLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent toggle may have inserted first; the like exists either way.
			if err := insertIgnoringDuplicate(tx, &domain.ReviewLike{UserID: userID, ReviewID: reviewID}); err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&domain.ReviewLike{}).Where("review_id = ?", reviewID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *LikeRepository) ToggleExhibitionLike(ctx context.Context, userID, exhibitionID int64) (bool, int64, error) {
	var liked bool
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND exhibition_id = ?", userID, exhibitionID).Delete(&domain.ExhibitionLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := insertIgnoringDuplicate(tx, &domain.ExhibitionLike{UserID: userID, ExhibitionID: exhibitionID}); err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&domain.ExhibitionLike{}).Where("exhibition_id = ?", exhibitionID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// ReviewLikers returns the ids of users who like reviewID.
func (r *LikeRepository) ReviewLikers(ctx context.Context, reviewID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&domain.ReviewLike{}).
		Where("review_id = ?", reviewID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// insertIgnoringDuplicate inserts row unless it collides with a unique
// index. The statement itself never fails on the conflict, so a PostgreSQL
// transaction stays usable for the count that follows.
func insertIgnoringDuplicate(tx *gorm.DB, row any) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}
