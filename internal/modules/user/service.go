package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"artzip/internal/api"
	"artzip/internal/cache"
	"artzip/internal/domain"
	"artzip/internal/repository"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ActivityCounts(ctx context.Context, userID, viewerID int64) (*repository.ActivityCounts, error)
}

// ReviewLister is implemented by review.Service.
type ReviewLister interface {
	ListByAuthor(ctx context.Context, viewerID, authorID int64, page, size int) (api.Page[api.Review], error)
	ListLikedBy(ctx context.Context, viewerID, userID int64, page, size int) (api.Page[api.Review], error)
}

// ExhibitionLister is implemented by exhibition.Service.
type ExhibitionLister interface {
	LikedBy(ctx context.Context, viewerID, userID int64, page, size int) (api.Page[api.Exhibition], error)
}

type Service struct {
	users       UserRepository
	reviews     ReviewLister
	exhibitions ExhibitionLister
	cache       cache.Cache
	ttl         time.Duration
	log         *zap.Logger
}

func NewService(users UserRepository, reviews ReviewLister, exhibitions ExhibitionLister, c cache.Cache, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{users: users, reviews: reviews, exhibitions: exhibitions, cache: c, ttl: ttl, log: log}
}

func infoKey(userID int64, self bool) string {
	if self {
		return fmt.Sprintf("user:info:%d:self", userID)
	}
	return fmt.Sprintf("user:info:%d:public", userID)
}

// Info returns the profile header of userID. The owner sees private review
// counts and the email address; everyone else shares one public view.
func (s *Service) Info(ctx context.Context, viewerID, userID int64) (*api.UserInfo, error) {
	if userID <= 0 {
		return nil, ErrInvalidRequest
	}
	self := viewerID == userID
	key := infoKey(userID, self)

	var cached api.UserInfo
	err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("user info cache read failed", zap.String("key", key), zap.Error(err))
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	countViewer := int64(0)
	if self {
		countViewer = userID
	}
	counts, err := s.users.ActivityCounts(ctx, userID, countViewer)
	if err != nil {
		return nil, fmt.Errorf("activity counts: %w", err)
	}

	info := &api.UserInfo{
		UserID:              u.ID,
		ProfileImage:        u.ProfileImage,
		Nickname:            u.Nickname,
		ReviewCount:         counts.Reviews,
		ReviewLikeCount:     counts.LikedReviews,
		ExhibitionLikeCount: counts.LikedExhibition,
	}
	if self {
		info.Email = u.Email
	}

	if err := cache.SetJSON(ctx, s.cache, key, info, s.ttl); err != nil {
		s.log.Warn("user info cache write failed", zap.String("key", key), zap.Error(err))
	}
	return info, nil
}

// InvalidateInfo drops both cached views of every given user.
func (s *Service) InvalidateInfo(ctx context.Context, userIDs ...int64) {
	keys := make([]string, 0, 2*len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, infoKey(id, true), infoKey(id, false))
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("user info cache invalidation failed", zap.Int64s("user_ids", userIDs), zap.Error(err))
	}
}

func (s *Service) Reviews(ctx context.Context, viewerID, userID int64, page, size int) (api.Page[api.Review], error) {
	if err := s.exists(ctx, userID); err != nil {
		return api.Page[api.Review]{}, err
	}
	return s.reviews.ListByAuthor(ctx, viewerID, userID, page, size)
}

func (s *Service) LikedReviews(ctx context.Context, viewerID, userID int64, page, size int) (api.Page[api.Review], error) {
	if err := s.exists(ctx, userID); err != nil {
		return api.Page[api.Review]{}, err
	}
	return s.reviews.ListLikedBy(ctx, viewerID, userID, page, size)
}

func (s *Service) LikedExhibitions(ctx context.Context, viewerID, userID int64, page, size int) (api.Page[api.Exhibition], error) {
	if err := s.exists(ctx, userID); err != nil {
		return api.Page[api.Exhibition]{}, err
	}
	return s.exhibitions.LikedBy(ctx, viewerID, userID, page, size)
}

func (s *Service) exists(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidRequest
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
