package domain

import "time"

// DateLayout is the calendar-day format used for exhibition periods and
// review visit dates on the wire.
const DateLayout = "2006-01-02"

type Exhibition struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"not null;index"`
	Thumbnail string
	StartDate string    `gorm:"size:10"`
	EndDate   string    `gorm:"size:10"`
	CreatedAt time.Time
}

func (Exhibition) TableName() string { return "exhibitions" }
