package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"artzip/internal/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	Kind string
	Page int
	Size int
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []call
	// gates holds a channel per "kind/page" that the fetch waits on.
	gates map[string]chan struct{}
	fail  map[string]error
	total int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{gates: map[string]chan struct{}{}, fail: map[string]error{}, total: 10}
}

func (f *fakeAPI) record(ctx context.Context, kind string, page, size int) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{kind, page, size})
	gate := f.gates[fmt.Sprintf("%s/%d", kind, page)]
	err := f.fail[kind]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeAPI) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call{}, f.calls...)
}

func (f *fakeAPI) GetUserInfo(_ context.Context, userID int64) (*api.UserInfo, error) {
	if err := f.fail["info"]; err != nil {
		return nil, err
	}
	return &api.UserInfo{UserID: userID, Nickname: "Emily", ReviewCount: 10}, nil
}

func reviews(kind string, page, size int) []api.Review {
	out := make([]api.Review, size)
	for i := range out {
		out[i] = api.Review{ReviewID: int64(page*size + i + 1), Title: kind}
	}
	return out
}

func (f *fakeAPI) GetUserReviews(ctx context.Context, _ int64, page, size int) (api.Page[api.Review], error) {
	if err := f.record(ctx, "mine", page, size); err != nil {
		return api.Page[api.Review]{}, err
	}
	return api.NewPage(reviews("mine", page, size), page, size, f.total), nil
}

func (f *fakeAPI) GetLikedReviews(ctx context.Context, _ int64, page, size int) (api.Page[api.Review], error) {
	if err := f.record(ctx, "liked", page, size); err != nil {
		return api.Page[api.Review]{}, err
	}
	return api.NewPage(reviews("liked", page, size), page, size, f.total), nil
}

func (f *fakeAPI) GetLikedExhibitions(ctx context.Context, _ int64, page, size int) (api.Page[api.Exhibition], error) {
	if err := f.record(ctx, "exhibitions", page, size); err != nil {
		return api.Page[api.Exhibition]{}, err
	}
	content := []api.Exhibition{{ExhibitionID: int64(page + 1)}}
	return api.NewPage(content, page, size, 1), nil
}

func TestPager_StartOpensMyReviews(t *testing.T) {
	fa := newFakeAPI()
	p := NewPager(fa, 7, nil)

	assert.ErrorIs(t, p.SelectTab(context.Background(), TabLikedReview), ErrNotStarted)
	require.NoError(t, p.Start(context.Background()))

	assert.Equal(t, TabMyReview, p.Current())
	assert.Equal(t, "Emily", p.Info().Nickname)
	if diff := cmp.Diff([]call{{"mine", 0, ReviewPageSize}}, fa.Calls()); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}

	mine := p.MyReviews()
	assert.True(t, mine.IsLoaded)
	assert.Equal(t, 1, mine.CurrentPage)
	assert.Equal(t, int64(10), mine.TotalSize)
	assert.Len(t, mine.Payload, ReviewPageSize)

	assert.False(t, p.LikedReviews().IsLoaded)
	assert.False(t, p.LikedExhibitions().IsLoaded)
}

func TestPager_ChangePageSendsZeroIndexedPage(t *testing.T) {
	fa := newFakeAPI()
	p := NewPager(fa, 7, nil)
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))

	require.NoError(t, p.ChangePage(ctx, TabMyReview, 3))
	mine := p.MyReviews()
	assert.Equal(t, 3, mine.CurrentPage)
	assert.Equal(t, int64(9), mine.Payload[0].ReviewID)
	assert.Equal(t, call{"mine", 2, ReviewPageSize}, fa.Calls()[1])

	require.NoError(t, p.ChangePage(ctx, TabLikedExhibition, 2))
	assert.Equal(t, call{"exhibitions", 1, ExhibitionPageSize}, fa.Calls()[2])
	other := p.LikedExhibitions()
	assert.Equal(t, 2, other.CurrentPage)
	assert.Equal(t, ExhibitionPageSize, other.PageSize)
	assert.Equal(t, TabMyReview, p.Current(), "paging another view keeps the active tab")

	assert.ErrorIs(t, p.ChangePage(ctx, TabMyReview, 0), ErrBadPage)
}

func TestPager_TabsKeepTheirPage(t *testing.T) {
	fa := newFakeAPI()
	p := NewPager(fa, 7, nil)
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	require.NoError(t, p.ChangePage(ctx, TabMyReview, 2))

	require.NoError(t, p.SelectTab(ctx, TabLikedReview))
	require.NoError(t, p.SelectTab(ctx, TabLikedReview))
	require.NoError(t, p.SelectTab(ctx, TabMyReview))

	want := []call{
		{"mine", 0, 4},
		{"mine", 1, 4},
		{"liked", 0, 4},
	}
	if diff := cmp.Diff(want, fa.Calls()); diff != "" {
		t.Errorf("returning to a loaded tab must not fetch (-want +got):\n%s", diff)
	}
	assert.Equal(t, TabMyReview, p.Current())
	assert.Equal(t, 2, p.MyReviews().CurrentPage)
	assert.True(t, p.MyReviews().IsLoaded)

	require.NoError(t, p.Refresh(ctx))
	require.Len(t, fa.Calls(), 4)
	assert.Equal(t, call{"mine", 1, 4}, fa.Calls()[3])
}

func TestPager_UnknownTabIsLoggedAndIgnored(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	fa := newFakeAPI()
	p := NewPager(fa, 7, zap.New(core))
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))

	err := p.SelectTab(ctx, Tab("COMMENTS"))
	assert.ErrorIs(t, err, ErrUnknownTab)
	assert.Equal(t, TabMyReview, p.Current())
	assert.Len(t, fa.Calls(), 1)
	assert.Equal(t, 1, logs.FilterMessage("invalid profile tab").Len())

	_, err = ParseTab("nope")
	assert.ErrorIs(t, err, ErrUnknownTab)
	tab, err := ParseTab("LIKED_EXHIBITION")
	require.NoError(t, err)
	assert.Equal(t, TabLikedExhibition, tab)
}

func TestPager_NotLoadedWhileFetching(t *testing.T) {
	fa := newFakeAPI()
	p := NewPager(fa, 7, nil)
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))

	gate := make(chan struct{})
	fa.mu.Lock()
	fa.gates["mine/1"] = gate
	fa.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.ChangePage(ctx, TabMyReview, 2) }()

	require.Eventually(t, func() bool { return len(fa.Calls()) == 2 }, time.Second, time.Millisecond)
	assert.False(t, p.MyReviews().IsLoaded)
	assert.Equal(t, 1, p.MyReviews().CurrentPage)

	close(gate)
	require.NoError(t, <-done)
	assert.True(t, p.MyReviews().IsLoaded)
	assert.Equal(t, 2, p.MyReviews().CurrentPage)
}

func TestPager_StaleResponseDropped(t *testing.T) {
	fa := newFakeAPI()
	p := NewPager(fa, 7, nil)
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))

	slow := make(chan struct{})
	fa.mu.Lock()
	fa.gates["mine/1"] = slow
	fa.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.ChangePage(ctx, TabMyReview, 2) }()
	require.Eventually(t, func() bool { return len(fa.Calls()) == 2 }, time.Second, time.Millisecond)

	require.NoError(t, p.ChangePage(ctx, TabMyReview, 3))
	close(slow)
	require.NoError(t, <-done)

	mine := p.MyReviews()
	assert.Equal(t, 3, mine.CurrentPage)
	assert.Equal(t, int64(9), mine.Payload[0].ReviewID)
	assert.True(t, mine.IsLoaded)
}

func TestPager_FetchFailureKeepsState(t *testing.T) {
	fa := newFakeAPI()
	p := NewPager(fa, 7, nil)
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	before := p.MyReviews()

	boom := errors.New("boom")
	fa.mu.Lock()
	fa.fail["mine"] = boom
	fa.mu.Unlock()

	err := p.ChangePage(ctx, TabMyReview, 2)
	require.ErrorIs(t, err, boom)
	if diff := cmp.Diff(before, p.MyReviews()); diff != "" {
		t.Errorf("state changed on failure (-before +after):\n%s", diff)
	}
}

func TestPager_StartFailure(t *testing.T) {
	fa := newFakeAPI()
	fa.fail["info"] = errors.New("offline")
	p := NewPager(fa, 7, nil)

	assert.Error(t, p.Start(context.Background()))
	assert.Nil(t, p.Info())
	assert.Empty(t, p.Current())
	assert.Empty(t, fa.Calls())
	assert.ErrorIs(t, p.Refresh(context.Background()), ErrNotStarted)
}

func TestPager_LoadAll(t *testing.T) {
	fa := newFakeAPI()
	p := NewPager(fa, 7, nil)
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))

	require.NoError(t, p.LoadAll(ctx))
	assert.True(t, p.MyReviews().IsLoaded)
	assert.True(t, p.LikedReviews().IsLoaded)
	assert.True(t, p.LikedExhibitions().IsLoaded)
	assert.Len(t, fa.Calls(), 4)
	assert.Equal(t, TabMyReview, p.Current())
}

func TestPager_ReturningToUnloadedTabFetches(t *testing.T) {
	fa := newFakeAPI()
	p := NewPager(fa, 7, nil)
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))

	fa.mu.Lock()
	fa.fail["liked"] = errors.New("offline")
	fa.mu.Unlock()
	require.Error(t, p.SelectTab(ctx, TabLikedReview))
	assert.False(t, p.LikedReviews().IsLoaded)

	fa.mu.Lock()
	delete(fa.fail, "liked")
	fa.mu.Unlock()
	require.NoError(t, p.SelectTab(ctx, TabMyReview))
	require.NoError(t, p.SelectTab(ctx, TabLikedReview))

	want := []call{{"mine", 0, 4}, {"liked", 0, 4}, {"liked", 0, 4}}
	if diff := cmp.Diff(want, fa.Calls()); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
	assert.True(t, p.LikedReviews().IsLoaded)
}
