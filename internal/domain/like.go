package domain

import "time"

// ReviewLike records that a user liked a review. One row per (user, review).
type ReviewLike struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_review_like_user_review"`
	ReviewID  int64     `gorm:"not null;index;uniqueIndex:idx_review_like_user_review"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ReviewLike) TableName() string { return "review_likes" }

// ExhibitionLike records that a user liked an exhibition.
type ExhibitionLike struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       int64     `gorm:"not null;uniqueIndex:idx_exhibition_like_user_exhibition"`
	ExhibitionID int64     `gorm:"not null;index;uniqueIndex:idx_exhibition_like_user_exhibition"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (ExhibitionLike) TableName() string { return "exhibition_likes" }
