package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"go.uber.org/zap"

	"artzip/internal/api"
	"artzip/internal/domain"
	"artzip/internal/pkg/validator"
	"artzip/internal/repository"
	"artzip/internal/storage"
)

type ReviewRepository interface {
	Create(ctx context.Context, rv *domain.Review) error
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	List(ctx context.Context, f repository.ReviewFilter) ([]domain.Review, int64, error)
	Update(ctx context.Context, rv *domain.Review, newPhotos []domain.Photo, deletePhotoIDs []int64) ([]domain.Photo, error)
	Delete(ctx context.Context, id int64) ([]domain.Photo, error)
	Stats(ctx context.Context, ids []int64, viewerID int64) (map[int64]*repository.ReviewStats, error)
}

type ExhibitionGate interface {
	GetByID(ctx context.Context, id int64) (*domain.Exhibition, error)
}

type LikeToggler interface {
	ToggleReviewLike(ctx context.Context, userID, reviewID int64) (bool, int64, error)
	ReviewLikers(ctx context.Context, reviewID int64) ([]int64, error)
}

type PhotoStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (*storage.Stored, error)
	Delete(ctx context.Context, key string) error
}

// ActivityInvalidator drops cached profile counters of the given users.
type ActivityInvalidator interface {
	InvalidateInfo(ctx context.Context, userIDs ...int64)
}

type Service struct {
	reviews     ReviewRepository
	exhibitions ExhibitionGate
	likes       LikeToggler
	photos      PhotoStore
	activity    ActivityInvalidator
	log         *zap.Logger
}

func NewService(reviews ReviewRepository, exhibitions ExhibitionGate, likes LikeToggler, photos PhotoStore, log *zap.Logger) *Service {
	return &Service{reviews: reviews, exhibitions: exhibitions, likes: likes, photos: photos, log: log}
}

// SetActivityInvalidator wires the profile cache after both services exist.
func (s *Service) SetActivityInvalidator(a ActivityInvalidator) {
	s.activity = a
}

func (s *Service) Create(ctx context.Context, userID int64, req api.ReviewPayload, files []*multipart.FileHeader) (int64, error) {
	if userID <= 0 {
		return 0, ErrInvalidRequest
	}
	if err := s.validate(ctx, req); err != nil {
		return 0, err
	}
	if len(files) > MaxPhotos {
		return 0, ErrTooManyPhotos
	}

	photos, err := s.savePhotos(ctx, files)
	if err != nil {
		return 0, err
	}

	rv := &domain.Review{
		UserID:       userID,
		ExhibitionID: req.ExhibitionID,
		Date:         req.Date,
		Title:        req.Title,
		Content:      req.Content,
		IsPublic:     req.IsPublic,
		Photos:       photos,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		s.releasePhotos(ctx, photos)
		return 0, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("review created", zap.Int64("review_id", rv.ID), zap.Int64("user_id", userID), zap.Int("photos", len(photos)))
	s.invalidate(ctx, userID)
	return rv.ID, nil
}

// Update replaces the editable fields of an owned review, adds the uploaded
// files and drops req.DeletedPhotos.
func (s *Service) Update(ctx context.Context, userID, reviewID int64, req api.ReviewPayload, files []*multipart.FileHeader) error {
	if userID <= 0 || reviewID <= 0 {
		return ErrInvalidRequest
	}

	rv, err := s.owned(ctx, userID, reviewID)
	if err != nil {
		return err
	}
	if err := s.validate(ctx, req); err != nil {
		return err
	}

	remaining := 0
	deleted := make(map[int64]bool, len(req.DeletedPhotos))
	for _, id := range req.DeletedPhotos {
		deleted[id] = true
	}
	for _, p := range rv.Photos {
		if !deleted[p.ID] {
			remaining++
		}
	}
	if remaining+len(files) > MaxPhotos {
		return ErrTooManyPhotos
	}

	photos, err := s.savePhotos(ctx, files)
	if err != nil {
		return err
	}

	rv.ExhibitionID = req.ExhibitionID
	rv.Date = req.Date
	rv.Title = req.Title
	rv.Content = req.Content
	rv.IsPublic = req.IsPublic
	rv.IsEdited = true

	removed, err := s.reviews.Update(ctx, rv, photos, req.DeletedPhotos)
	if err != nil {
		s.releasePhotos(ctx, photos)
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update review: %w", err)
	}
	s.releasePhotos(ctx, removed)

	s.log.Info("review updated",
		zap.Int64("review_id", reviewID),
		zap.Int("added_photos", len(photos)),
		zap.Int("removed_photos", len(removed)),
	)
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) Get(ctx context.Context, viewerID, reviewID int64) (*api.Review, error) {
	if reviewID <= 0 {
		return nil, ErrInvalidRequest
	}
	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !rv.IsPublic && rv.UserID != viewerID {
		return nil, ErrNotFound
	}

	stats, err := s.reviews.Stats(ctx, []int64{rv.ID}, viewerID)
	if err != nil {
		return nil, err
	}
	out := toAPIReview(*rv, stats[rv.ID])
	return &out, nil
}

func (s *Service) List(ctx context.Context, viewerID int64, q ListQuery) (api.Page[api.Review], error) {
	switch q.Sort {
	case "", api.SortCreatedAtDesc, api.SortLikeCountDesc:
	default:
		return api.Page[api.Review]{}, ErrInvalidRequest
	}
	return s.page(ctx, repository.ReviewFilter{
		ExhibitionID: q.ExhibitionID,
		ViewerID:     viewerID,
		SortByLikes:  q.Sort == api.SortLikeCountDesc,
	}, q.Page, q.Size)
}

// ListByAuthor returns the reviews a user wrote.
func (s *Service) ListByAuthor(ctx context.Context, viewerID, authorID int64, page, size int) (api.Page[api.Review], error) {
	if authorID <= 0 {
		return api.Page[api.Review]{}, ErrInvalidRequest
	}
	return s.page(ctx, repository.ReviewFilter{AuthorID: authorID, ViewerID: viewerID}, page, size)
}

// ListLikedBy returns the reviews a user liked.
func (s *Service) ListLikedBy(ctx context.Context, viewerID, userID int64, page, size int) (api.Page[api.Review], error) {
	if userID <= 0 {
		return api.Page[api.Review]{}, ErrInvalidRequest
	}
	return s.page(ctx, repository.ReviewFilter{LikedBy: userID, ViewerID: viewerID}, page, size)
}

func (s *Service) Delete(ctx context.Context, userID, reviewID int64) error {
	if userID <= 0 || reviewID <= 0 {
		return ErrInvalidRequest
	}
	if _, err := s.owned(ctx, userID, reviewID); err != nil {
		return err
	}

	// The likes go with the review, so the likers' counts change too.
	likers, err := s.likes.ReviewLikers(ctx, reviewID)
	if err != nil {
		s.log.Warn("failed to list review likers", zap.Int64("review_id", reviewID), zap.Error(err))
	}

	photos, err := s.reviews.Delete(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}
	s.releasePhotos(ctx, photos)

	s.log.Info("review deleted", zap.Int64("review_id", reviewID), zap.Int64("user_id", userID), zap.Int("likers", len(likers)))
	s.invalidate(ctx, append([]int64{userID}, likers...)...)
	return nil
}

func (s *Service) ToggleLike(ctx context.Context, userID, reviewID int64) (*api.ReviewLikeState, error) {
	if userID <= 0 || reviewID <= 0 {
		return nil, ErrInvalidRequest
	}
	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !rv.IsPublic && rv.UserID != userID {
		return nil, ErrNotFound
	}

	liked, count, err := s.likes.ToggleReviewLike(ctx, userID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("toggle review like: %w", err)
	}
	s.invalidate(ctx, userID)
	return &api.ReviewLikeState{ReviewID: reviewID, LikeCount: count, IsLiked: liked}, nil
}

func (s *Service) page(ctx context.Context, f repository.ReviewFilter, page, size int) (api.Page[api.Review], error) {
	page, size = normalizePage(page, size)
	f.Limit = size
	f.Offset = page * size

	rows, total, err := s.reviews.List(ctx, f)
	if err != nil {
		return api.Page[api.Review]{}, err
	}

	ids := make([]int64, len(rows))
	for i, rv := range rows {
		ids[i] = rv.ID
	}
	stats, err := s.reviews.Stats(ctx, ids, f.ViewerID)
	if err != nil {
		return api.Page[api.Review]{}, err
	}

	content := make([]api.Review, 0, len(rows))
	for _, rv := range rows {
		content = append(content, toAPIReview(rv, stats[rv.ID]))
	}
	return api.NewPage(content, page, size, total), nil
}

func (s *Service) owned(ctx context.Context, userID, reviewID int64) (*domain.Review, error) {
	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rv.UserID != userID {
		return nil, ErrForbidden
	}
	return rv, nil
}

func (s *Service) validate(ctx context.Context, req api.ReviewPayload) error {
	if fields := validator.Validate(req); fields != nil {
		return &ValidationError{Fields: fields}
	}
	if _, err := s.exhibitions.GetByID(ctx, req.ExhibitionID); err != nil {
		if errors.Is(err, repository.ErrExhibitionNotFound) {
			return ErrExhibitionNotFound
		}
		return err
	}
	return nil
}

// savePhotos stores every upload or none of them.
func (s *Service) savePhotos(ctx context.Context, files []*multipart.FileHeader) ([]domain.Photo, error) {
	photos := make([]domain.Photo, 0, len(files))
	for _, fh := range files {
		stored, err := s.saveOne(ctx, fh)
		if err != nil {
			s.releasePhotos(ctx, photos)
			return nil, err
		}
		photos = append(photos, domain.Photo{
			ObjectKey:     stored.Key,
			Path:          stored.URL,
			ThumbnailPath: stored.ThumbnailURL,
		})
	}
	return photos, nil
}

func (s *Service) saveOne(ctx context.Context, fh *multipart.FileHeader) (*storage.Stored, error) {
	if fh.Size > storage.MaxFileSize {
		return nil, storage.ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return s.photos.Save(ctx, fh.Filename, f)
}

func (s *Service) releasePhotos(ctx context.Context, photos []domain.Photo) {
	for _, p := range photos {
		if err := s.photos.Delete(ctx, p.ObjectKey); err != nil {
			s.log.Warn("failed to delete photo blob", zap.String("key", p.ObjectKey), zap.Error(err))
		}
	}
}

func (s *Service) invalidate(ctx context.Context, userIDs ...int64) {
	if s.activity != nil {
		s.activity.InvalidateInfo(ctx, userIDs...)
	}
}
