package domain

import "time"

// Review is a user's write-up of one exhibition visit.
// Private reviews (IsPublic=false) are only visible to their author.
type Review struct {
	ID           int64  `gorm:"primaryKey"`
	UserID       int64  `gorm:"not null;index"`
	ExhibitionID int64  `gorm:"not null;index"`
	Date         string `gorm:"size:10;not null"`
	Title        string `gorm:"not null"`
	Content      string `gorm:"type:text"`
	IsPublic     bool   `gorm:"not null"`
	IsEdited     bool   `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	User       *User       `gorm:"foreignKey:UserID"`
	Exhibition *Exhibition `gorm:"foreignKey:ExhibitionID"`
	Photos     []Photo     `gorm:"foreignKey:ReviewID"`
}

func (Review) TableName() string { return "reviews" }

// Photo is an already-uploaded review image. ObjectKey addresses the
// blob in the photo store; Path is its public URL.
type Photo struct {
	ID            int64  `gorm:"primaryKey"`
	ReviewID      int64  `gorm:"not null;index"`
	ObjectKey     string `gorm:"not null"`
	Path          string `gorm:"not null"`
	ThumbnailPath string
	CreatedAt     time.Time
}

func (Photo) TableName() string { return "review_photos" }
