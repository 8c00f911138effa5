package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"artzip/internal/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ActivityCounts returns the profile counters of a user. Private reviews
// are counted only when the viewer is the user.
type ActivityCounts struct {
	Reviews         int64
	LikedReviews    int64
	LikedExhibition int64
}

func (r *UserRepository) ActivityCounts(ctx context.Context, userID, viewerID int64) (*ActivityCounts, error) {
	var out ActivityCounts
	db := r.db.WithContext(ctx)

	if err := visibleTo(db.Model(&domain.Review{}), viewerID).
		Where("reviews.user_id = ?", userID).
		Count(&out.Reviews).Error; err != nil {
		return nil, err
	}

	if err := visibleTo(db.Model(&domain.Review{}), viewerID).
		Joins("JOIN review_likes ON review_likes.review_id = reviews.id").
		Where("review_likes.user_id = ?", userID).
		Count(&out.LikedReviews).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&domain.ExhibitionLike{}).
		Where("user_id = ?", userID).
		Count(&out.LikedExhibition).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
