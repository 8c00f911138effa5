package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"artzip/internal/api"
	"artzip/internal/cache"
	"artzip/internal/domain"
	"artzip/internal/middleware"
	"artzip/internal/modules/exhibition"
	"artzip/internal/modules/review"
	"artzip/internal/repository"
	"artzip/internal/storage"
	"artzip/internal/testutil"
)

type stack struct {
	users   *Service
	reviews *review.Service
	exhs    *exhibition.Service
	cache   *cache.Memory
	emily   *domain.User
	noah    *domain.User
	exh     *domain.Exhibition
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.OpenDB(t)
	log := zap.NewNop()
	likes := repository.NewLikeRepository(db)
	exhRepo := repository.NewExhibitionRepository(db)
	photos := storage.NewStore(storage.NewLocalBlob(t.TempDir(), "/static"))

	reviews := review.NewService(repository.NewReviewRepository(db), exhRepo, likes, photos, log)
	exhs := exhibition.NewService(exhRepo, likes, log)
	mem := cache.NewMemory()
	users := NewService(repository.NewUserRepository(db), reviews, exhs, mem, time.Minute, log)
	reviews.SetActivityInvalidator(users)
	exhs.SetActivityInvalidator(users)

	return &stack{
		users:   users,
		reviews: reviews,
		exhs:    exhs,
		cache:   mem,
		emily:   testutil.CreateUser(t, db, "emily@artzip.io", "Emily"),
		noah:    testutil.CreateUser(t, db, "noah@artzip.io", "Noah"),
		exh:     testutil.CreateExhibition(t, db, "Klimt", "2021-11-01"),
	}
}

func (s *stack) write(t *testing.T, author int64, public bool) int64 {
	t.Helper()
	id, err := s.reviews.Create(context.Background(), author, api.ReviewPayload{
		ExhibitionID: s.exh.ID,
		Date:         "2022-01-01",
		Title:        "Gold",
		Content:      "Shiny.",
		IsPublic:     public,
	}, nil)
	require.NoError(t, err)
	return id
}

func TestService_InfoSelfAndPublic(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.write(t, s.emily.ID, true)
	s.write(t, s.emily.ID, false)

	self, err := s.users.Info(ctx, s.emily.ID, s.emily.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), self.ReviewCount)
	assert.Equal(t, "emily@artzip.io", self.Email)

	public, err := s.users.Info(ctx, s.noah.ID, s.emily.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), public.ReviewCount)
	assert.Empty(t, public.Email)

	_, err = s.users.Info(ctx, 0, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_InfoCachedUntilInvalidated(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := s.write(t, s.emily.ID, true)

	before, err := s.users.Info(ctx, s.noah.ID, s.noah.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), before.ReviewLikeCount)

	_, err = s.cache.Get(ctx, infoKey(s.noah.ID, true))
	require.NoError(t, err)

	_, err = s.reviews.ToggleLike(ctx, s.noah.ID, id)
	require.NoError(t, err)
	_, err = s.cache.Get(ctx, infoKey(s.noah.ID, true))
	assert.ErrorIs(t, err, cache.ErrMiss)

	after, err := s.users.Info(ctx, s.noah.ID, s.noah.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.ReviewLikeCount)

	_, err = s.exhs.ToggleLike(ctx, s.noah.ID, s.exh.ID)
	require.NoError(t, err)
	after, err = s.users.Info(ctx, s.noah.ID, s.noah.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.ExhibitionLikeCount)
}

func TestService_ReviewDeleteRefreshesLikerInfo(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := s.write(t, s.emily.ID, true)

	_, err := s.reviews.ToggleLike(ctx, s.noah.ID, id)
	require.NoError(t, err)
	liked, err := s.users.Info(ctx, s.noah.ID, s.noah.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), liked.ReviewLikeCount)

	require.NoError(t, s.reviews.Delete(ctx, s.emily.ID, id))

	after, err := s.users.Info(ctx, s.noah.ID, s.noah.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.ReviewLikeCount, "liker's cached count dropped with the review")
}

func TestService_ActivityLists(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.write(t, s.emily.ID, true)
	}

	page, err := s.users.Reviews(ctx, 0, s.emily.ID, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, page.NumberOfElements)
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)

	liked, err := s.users.LikedExhibitions(ctx, 0, s.noah.ID, 0, 8)
	require.NoError(t, err)
	assert.Empty(t, liked.Content)

	_, err = s.users.LikedReviews(ctx, 0, 999, 0, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandler_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newStack(t)
	s.write(t, s.emily.ID, true)

	r := gin.New()
	v1 := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, s.emily.ID)
		c.Next()
	})
	NewHandler(s.users).RegisterRoutes(v1)
	base := "/api/v1/users/" + strconv.FormatInt(s.emily.ID, 10)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base+"/info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info api.Envelope[api.UserInfo]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "Emily", info.Data.Nickname)
	assert.Equal(t, int64(1), info.Data.ReviewCount)

	for _, path := range []string{"/reviews?page=0&size=4", "/reviews/likes", "/exhibitions/likes?size=8"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base+path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/abc/info", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base+"/reviews?page=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
