// Package community keeps the infinite-scroll review feed of the
// community page.
package community

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"artzip/internal/api"
	"artzip/internal/client"
)

// DefaultPageSize matches the server's default for the review collection.
const DefaultPageSize = 20

// API is implemented by *client.Client.
type API interface {
	ListReviews(ctx context.Context, q client.ReviewQuery) (api.Page[api.Review], error)
}

type Feed struct {
	api  API
	size int
	sort string
	log  *zap.Logger

	mu           sync.Mutex
	exhibitionID int64
	items        []api.Review
	currentPage  int
	totalPages   int
	loaded       bool
	fetching     bool
}

type Option func(*Feed)

func WithPageSize(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.size = n
		}
	}
}

// WithSort selects the feed order, e.g. api.SortLikeCountDesc.
func WithSort(sort string) Option {
	return func(f *Feed) { f.sort = sort }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Feed) { f.log = l }
}

func NewFeed(a API, opts ...Option) *Feed {
	f := &Feed{api: a, size: DefaultPageSize, log: zap.NewNop()}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Load replaces the feed with the first page, optionally filtered by
// exhibition (0 means all).
func (f *Feed) Load(ctx context.Context, exhibitionID int64) error {
	page, err := f.api.ListReviews(ctx, f.query(exhibitionID, 0))
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.exhibitionID = exhibitionID
	f.items = append([]api.Review{}, page.Content...)
	f.currentPage = page.PageNumber
	f.totalPages = page.TotalPages
	f.loaded = true
	return nil
}

// LoadMore appends the next page. It returns false without fetching when
// the last page is already shown or another LoadMore is running.
func (f *Feed) LoadMore(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if !f.loaded || f.fetching || f.currentPage+1 >= f.totalPages {
		f.mu.Unlock()
		return false, nil
	}
	f.fetching = true
	next := f.currentPage + 1
	q := f.query(f.exhibitionID, next)
	f.mu.Unlock()

	page, err := f.api.ListReviews(ctx, q)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetching = false
	if err != nil {
		f.log.Warn("feed page fetch failed", zap.Int("page", next), zap.Error(err))
		return false, fmt.Errorf("load feed page %d: %w", next, err)
	}
	if q.ExhibitionID != f.exhibitionID || f.currentPage+1 != next {
		return false, nil
	}
	f.items = append(f.items, page.Content...)
	f.currentPage = next
	f.totalPages = page.TotalPages
	return true, nil
}

// Reload fetches the first page again with the current filter, used after
// a review was deleted from the feed.
func (f *Feed) Reload(ctx context.Context) error {
	f.mu.Lock()
	id := f.exhibitionID
	f.mu.Unlock()
	return f.Load(ctx, id)
}

func (f *Feed) Items() []api.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Review{}, f.items...)
}

// HasMore reports whether LoadMore would fetch.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded && f.currentPage+1 < f.totalPages
}

func (f *Feed) query(exhibitionID int64, page int) client.ReviewQuery {
	return client.ReviewQuery{ExhibitionID: exhibitionID, Page: page, Size: f.size, Sort: f.sort}
}
