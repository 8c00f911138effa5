// Package profile drives a user's profile page: the header info and three
// independently paginated activity tabs.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"artzip/internal/api"
)

type Tab string

const (
	TabMyReview        Tab = "MY_REVIEW"
	TabLikedReview     Tab = "LIKED_REVIEW"
	TabLikedExhibition Tab = "LIKED_EXHIBITION"
)

const (
	ReviewPageSize     = 4
	ExhibitionPageSize = 8
)

var (
	ErrUnknownTab = errors.New("profile: unknown tab")
	ErrNotStarted = errors.New("profile: user info not loaded")
	ErrBadPage    = errors.New("profile: page must be >= 1")
)

// Activity is one paginated view. CurrentPage is 1-indexed.
type Activity[T any] struct {
	Payload     []T
	CurrentPage int
	PageSize    int
	TotalSize   int64
	IsLoaded    bool
}

// API is the subset of the ArtZip client the pager needs. Pages are
// zero-indexed on the wire.
type API interface {
	GetUserInfo(ctx context.Context, userID int64) (*api.UserInfo, error)
	GetUserReviews(ctx context.Context, userID int64, page, size int) (api.Page[api.Review], error)
	GetLikedReviews(ctx context.Context, userID int64, page, size int) (api.Page[api.Review], error)
	GetLikedExhibitions(ctx context.Context, userID int64, page, size int) (api.Page[api.Exhibition], error)
}

type fetchFunc[T any] func(ctx context.Context, userID int64, page, size int) (api.Page[T], error)

type view[T any] struct {
	name  Tab
	act   Activity[T]
	seq   uint64
	fetch fetchFunc[T]
}

func newView[T any](name Tab, size int, fetch fetchFunc[T]) *view[T] {
	return &view[T]{
		name:  name,
		act:   Activity[T]{Payload: []T{}, CurrentPage: 1, PageSize: size},
		fetch: fetch,
	}
}

// Pager holds profile state. Its lock is never held across network calls;
// a response that arrives after a newer request for the same view is
// dropped.
type Pager struct {
	api    API
	userID int64
	log    *zap.Logger

	mu               sync.Mutex
	info             *api.UserInfo
	current          Tab
	myReviews        *view[api.Review]
	likedReviews     *view[api.Review]
	likedExhibitions *view[api.Exhibition]
}

func NewPager(a API, userID int64, log *zap.Logger) *Pager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pager{
		api:              a,
		userID:           userID,
		log:              log,
		myReviews:        newView(TabMyReview, ReviewPageSize, a.GetUserReviews),
		likedReviews:     newView(TabLikedReview, ReviewPageSize, a.GetLikedReviews),
		likedExhibitions: newView(TabLikedExhibition, ExhibitionPageSize, a.GetLikedExhibitions),
	}
}

// Start loads the user info and then opens the default tab.
func (p *Pager) Start(ctx context.Context) error {
	info, err := p.api.GetUserInfo(ctx, p.userID)
	if err != nil {
		return fmt.Errorf("load user info: %w", err)
	}
	p.mu.Lock()
	p.info = info
	p.mu.Unlock()
	return p.SelectTab(ctx, TabMyReview)
}

// SelectTab activates a tab. Its recorded page is fetched unless the view
// already holds it; selecting the active tab does nothing. Refresh forces
// a fetch.
func (p *Pager) SelectTab(ctx context.Context, tab Tab) error {
	if !tab.valid() {
		p.log.Error("invalid profile tab", zap.String("tab", string(tab)))
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}

	p.mu.Lock()
	if p.info == nil {
		p.mu.Unlock()
		return ErrNotStarted
	}
	if p.current == tab {
		p.mu.Unlock()
		return nil
	}
	p.current = tab
	loaded := p.loadedLocked(tab)
	p.mu.Unlock()

	if loaded {
		return nil
	}
	return p.load(ctx, tab, 0)
}

// loadedLocked reports whether tab's view holds its recorded page.
func (p *Pager) loadedLocked(tab Tab) bool {
	switch tab {
	case TabMyReview:
		return p.myReviews.act.IsLoaded
	case TabLikedReview:
		return p.likedReviews.act.IsLoaded
	case TabLikedExhibition:
		return p.likedExhibitions.act.IsLoaded
	}
	return false
}

// ChangePage fetches a 1-indexed page of tab.
func (p *Pager) ChangePage(ctx context.Context, tab Tab, page int) error {
	if !tab.valid() {
		p.log.Error("invalid profile tab", zap.String("tab", string(tab)))
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	if page < 1 {
		return ErrBadPage
	}
	return p.load(ctx, tab, page)
}

// Refresh re-fetches the active tab at its recorded page.
func (p *Pager) Refresh(ctx context.Context) error {
	p.mu.Lock()
	tab := p.current
	p.mu.Unlock()
	if tab == "" {
		return ErrNotStarted
	}
	return p.load(ctx, tab, 0)
}

// LoadAll fetches the recorded page of every tab concurrently without
// changing the active tab.
func (p *Pager) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, tab := range []Tab{TabMyReview, TabLikedReview, TabLikedExhibition} {
		g.Go(func() error { return p.load(ctx, tab, 0) })
	}
	return g.Wait()
}

// load fetches page of tab; page 0 means the view's recorded page.
func (p *Pager) load(ctx context.Context, tab Tab, page int) error {
	p.mu.Lock()
	started := p.info != nil
	p.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	switch tab {
	case TabMyReview:
		return loadView(ctx, p, p.myReviews, page)
	case TabLikedReview:
		return loadView(ctx, p, p.likedReviews, page)
	case TabLikedExhibition:
		return loadView(ctx, p, p.likedExhibitions, page)
	}
	return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
}

func loadView[T any](ctx context.Context, p *Pager, v *view[T], page int) error {
	p.mu.Lock()
	if page == 0 {
		page = v.act.CurrentPage
	}
	v.seq++
	seq := v.seq
	wasLoaded := v.act.IsLoaded
	v.act.IsLoaded = false
	size := v.act.PageSize
	p.mu.Unlock()

	res, err := v.fetch(ctx, p.userID, page-1, size)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != v.seq {
		p.log.Debug("dropping stale page", zap.String("tab", string(v.name)), zap.Int("page", page))
		return nil
	}
	if err != nil {
		v.act.IsLoaded = wasLoaded
		p.log.Error("profile page fetch failed", zap.String("tab", string(v.name)), zap.Int("page", page), zap.Error(err))
		return fmt.Errorf("load %s page %d: %w", v.name, page, err)
	}

	v.act.Payload = res.Content
	if v.act.Payload == nil {
		v.act.Payload = []T{}
	}
	v.act.CurrentPage = page
	v.act.TotalSize = res.TotalElements
	v.act.IsLoaded = true
	return nil
}

func (p *Pager) Info() *api.UserInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.info == nil {
		return nil
	}
	info := *p.info
	return &info
}

// Current is the active tab, empty before Start.
func (p *Pager) Current() Tab {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Pager) MyReviews() Activity[api.Review] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return snapshot(p.myReviews.act)
}

func (p *Pager) LikedReviews() Activity[api.Review] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return snapshot(p.likedReviews.act)
}

func (p *Pager) LikedExhibitions() Activity[api.Exhibition] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return snapshot(p.likedExhibitions.act)
}

func snapshot[T any](a Activity[T]) Activity[T] {
	a.Payload = append([]T{}, a.Payload...)
	return a
}

func (t Tab) valid() bool {
	switch t {
	case TabMyReview, TabLikedReview, TabLikedExhibition:
		return true
	}
	return false
}

// ParseTab accepts the wire names of the tabs.
func ParseTab(s string) (Tab, error) {
	t := Tab(s)
	if !t.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
	return t, nil
}
