package client_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"artzip/internal/api"
	"artzip/internal/client"
	"artzip/internal/domain"
	jwtsvc "artzip/internal/pkg/jwt"
	"artzip/internal/server"
	"artzip/internal/storage"
	"artzip/internal/testutil"
)

type env struct {
	srv   *httptest.Server
	emily *domain.User
	exh   *domain.Exhibition
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	emily := &domain.User{Email: "emily@artzip.io", PasswordHash: string(hash), Nickname: "Emily"}
	require.NoError(t, db.Create(emily).Error)

	uploads := t.TempDir()
	router := server.NewRouter(server.Deps{
		DB:            db,
		JWT:           jwtsvc.New("test-secret", time.Hour),
		Photos:        storage.NewStore(storage.NewLocalBlob(uploads, "/static/uploads")),
		UserInfoTTL:   time.Minute,
		UploadDir:     uploads,
		StaticURLBase: "/static/uploads",
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &env{
		srv:   srv,
		emily: emily,
		exh:   testutil.CreateExhibition(t, db, "Vermeer", "2021-10-01"),
	}
}

func (e *env) client(t *testing.T) *client.Client {
	t.Helper()
	c := client.New(e.srv.URL + "/api/v1")
	_, err := c.Login(context.Background(), "emily@artzip.io", "password123")
	require.NoError(t, err)
	return c
}

func pngFile(t *testing.T, name string) client.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return client.File{Name: name, Reader: &buf}
}

func TestClient_ReviewLifecycle(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	ctx := context.Background()

	payload := api.ReviewPayload{
		ExhibitionID: e.exh.ID,
		Date:         "2022-01-01",
		Title:        "Pearl",
		Content:      "Quiet light.",
		IsPublic:     true,
	}
	id, err := c.CreateReview(ctx, payload, []client.File{pngFile(t, "a.png"), pngFile(t, "b.png")})
	require.NoError(t, err)

	rv, err := c.GetReview(ctx, id)
	require.NoError(t, err)
	require.Len(t, rv.Photos, 2)
	assert.Equal(t, e.emily.ID, rv.User.UserID)

	resp, err := http.Get(e.srv.URL + rv.Photos[0].Path)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload.Title = "Pearl, again"
	payload.DeletedPhotos = []int64{rv.Photos[0].PhotoID}
	require.NoError(t, c.UpdateReview(ctx, id, payload, nil))

	rv, err = c.GetReview(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Pearl, again", rv.Title)
	assert.True(t, rv.IsEdited)
	assert.Len(t, rv.Photos, 1)

	state, err := c.ToggleReviewLike(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.IsLiked)

	info, err := c.GetUserInfo(ctx, e.emily.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.ReviewCount)
	assert.Equal(t, int64(1), info.ReviewLikeCount)

	mine, err := c.GetUserReviews(ctx, e.emily.ID, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.TotalElements)

	liked, err := c.GetLikedReviews(ctx, e.emily.ID, 0, 4)
	require.NoError(t, err)
	assert.Len(t, liked.Content, 1)

	feed, err := c.ListReviews(ctx, client.ReviewQuery{ExhibitionID: e.exh.ID, Size: 10})
	require.NoError(t, err)
	assert.Len(t, feed.Content, 1)

	require.NoError(t, c.DeleteReview(ctx, id))
	_, err = c.GetReview(ctx, id)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestClient_Exhibitions(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	ctx := context.Background()

	page, err := c.SearchExhibitions(ctx, "verm", 0, 8)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)

	state, err := c.ToggleExhibitionLike(ctx, e.exh.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.LikeCount)

	liked, err := c.GetLikedExhibitions(ctx, e.emily.ID, 0, 8)
	require.NoError(t, err)
	require.Len(t, liked.Content, 1)
	assert.Equal(t, "Vermeer", liked.Content[0].Name)
}

func TestClient_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	anon := client.New(e.srv.URL + "/api/v1")
	_, err := anon.CreateReview(ctx, api.ReviewPayload{}, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "AUTH_HEADER_MISSING", apiErr.Code)

	_, err = anon.Login(ctx, "emily@artzip.io", "wrong-password")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)

	c := e.client(t)
	_, err = c.CreateReview(ctx, api.ReviewPayload{ExhibitionID: e.exh.ID, Date: "2022-01-01"}, nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}
