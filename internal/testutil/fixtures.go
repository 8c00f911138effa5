package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"artzip/internal/domain"
)

func CreateUser(t *testing.T, db *gorm.DB, email, nickname string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, PasswordHash: "x", Nickname: nickname}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateExhibition(t *testing.T, db *gorm.DB, name, start string) *domain.Exhibition {
	t.Helper()
	e := &domain.Exhibition{Name: name, StartDate: start, EndDate: start, Thumbnail: "https://example.com/" + name + ".jpg"}
	require.NoError(t, db.Create(e).Error)
	return e
}

func CreateReview(t *testing.T, db *gorm.DB, userID, exhibitionID int64, title string, public bool, photos ...string) *domain.Review {
	t.Helper()
	rv := &domain.Review{
		UserID:       userID,
		ExhibitionID: exhibitionID,
		Date:         "2022-01-01",
		Title:        title,
		Content:      title + " content",
		IsPublic:     public,
	}
	for _, p := range photos {
		rv.Photos = append(rv.Photos, domain.Photo{ObjectKey: p, Path: "/static/" + p})
	}
	require.NoError(t, db.Create(rv).Error)
	return rv
}
