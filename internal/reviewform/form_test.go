package reviewform

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"artzip/internal/api"
	"artzip/internal/client"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2022, 6, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeAPI struct {
	mu       sync.Mutex
	creates  []api.ReviewPayload
	updates  []api.ReviewPayload
	updateID int64
	files    int
	uploads  [][]byte
	err      error
	block    chan struct{}
	calls    atomic.Int32
}

func (f *fakeAPI) CreateReview(_ context.Context, p api.ReviewPayload, files []client.File) (int64, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, p)
	f.record(files)
	return 77, f.err
}

func (f *fakeAPI) UpdateReview(_ context.Context, id int64, p api.ReviewPayload, files []client.File) error {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	f.updateID = id
	f.record(files)
	return f.err
}

// record drains the file readers the way the HTTP encoder does.
func (f *fakeAPI) record(files []client.File) {
	f.files = len(files)
	f.uploads = nil
	for _, file := range files {
		data, _ := io.ReadAll(file.Reader)
		f.uploads = append(f.uploads, data)
	}
}

type recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	paths     []string
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recorder) Replace(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, p)
}

func boolPtr(b bool) *bool { return &b }

func updatePrev() *PrevData {
	return &PrevData{
		ReviewID:       10,
		ExhibitionID:   3,
		ExhibitionName: "Monet",
		Date:           "2022-01-01",
		Title:          "Lilies",
		Content:        "Blue.",
		IsPublic:       boolPtr(false),
		Photos:         []api.Photo{{PhotoID: 35, Path: "/a.jpg"}, {PhotoID: 36, Path: "/b.jpg"}},
	}
}

func fillCreate(f *Form) {
	f.SetExhibition(api.ExhibitionSummary{ExhibitionID: 3, Name: "Monet"})
	f.SetDate("2022-06-01")
	f.SetTitle("Lilies")
	f.SetContent("Blue.")
}

func TestForm_CreateSubmit(t *testing.T) {
	c := newClock()
	fa := &fakeAPI{}
	rec := &recorder{}
	mutated := false
	f := New(Config{
		Mode: ModeCreate, API: fa, Notifier: rec, Navigator: rec, Now: c.Now,
		OnMutation: func(SubmitData, []api.Photo) { mutated = true },
	})
	fillCreate(f)
	require.NoError(t, f.AttachFile("a.jpg", bytes.NewReader([]byte("x"))))

	require.NoError(t, f.Submit(context.Background()))

	require.Len(t, fa.creates, 1)
	want := api.ReviewPayload{ExhibitionID: 3, Date: "2022-06-01", Title: "Lilies", Content: "Blue.", IsPublic: true}
	if diff := cmp.Diff(want, fa.creates[0]); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, fa.files)
	assert.False(t, mutated, "mutation callback is update-only")
	assert.Equal(t, []string{CommunityPath}, rec.paths)
	assert.Len(t, rec.successes, 1)
	assert.False(t, f.Loading())
}

func TestForm_PhotoDeletionStagedUntilSubmit(t *testing.T) {
	fa := &fakeAPI{}
	rec := &recorder{}
	var gotData SubmitData
	var gotPhotos []api.Photo
	f := New(Config{
		Mode: ModeUpdate, Prev: updatePrev(), API: fa, Notifier: rec, Navigator: rec, Now: newClock().Now,
		OnMutation: func(d SubmitData, p []api.Photo) { gotData, gotPhotos = d, p },
	})

	require.NoError(t, f.SelectPhoto(35))
	assert.Equal(t, int64(35), f.PendingPhoto())
	require.NoError(t, f.ConfirmPhotoDelete())

	assert.Equal(t, []int64{35}, f.Data().DeletedPhotos)
	assert.Equal(t, []api.Photo{{PhotoID: 36, Path: "/b.jpg"}}, f.Photos())
	assert.Zero(t, f.PendingPhoto())
	assert.Empty(t, fa.updates, "nothing sent before submit")

	require.NoError(t, f.Submit(context.Background()))
	require.Len(t, fa.updates, 1)
	assert.Equal(t, int64(10), fa.updateID)
	assert.Equal(t, []int64{35}, fa.updates[0].DeletedPhotos)
	assert.False(t, fa.updates[0].IsPublic)
	assert.Equal(t, []int64{35}, gotData.DeletedPhotos)
	assert.Equal(t, []api.Photo{{PhotoID: 36, Path: "/b.jpg"}}, gotPhotos)
	assert.Equal(t, []string{CommunityPath}, rec.paths)
}

func TestForm_PhotoSelection(t *testing.T) {
	f := New(Config{Mode: ModeUpdate, Prev: updatePrev(), API: &fakeAPI{}})

	assert.ErrorIs(t, f.SelectPhoto(99), ErrUnknownPhoto)
	assert.ErrorIs(t, f.ConfirmPhotoDelete(), ErrNoPendingPhoto)

	require.NoError(t, f.SelectPhoto(36))
	f.CancelPhotoDelete()
	assert.ErrorIs(t, f.ConfirmPhotoDelete(), ErrNoPendingPhoto)
	assert.Len(t, f.Photos(), 2)
	assert.Empty(t, f.Data().DeletedPhotos)

	create := New(Config{Mode: ModeCreate, API: &fakeAPI{}})
	assert.ErrorIs(t, create.SelectPhoto(35), ErrNotUpdateMode)
	assert.Nil(t, create.Data().DeletedPhotos)
}

func TestForm_RapidSubmitsMakeOneCall(t *testing.T) {
	c := newClock()
	fa := &fakeAPI{}
	f := New(Config{Mode: ModeCreate, API: fa, Now: c.Now})
	fillCreate(f)

	var wg sync.WaitGroup
	var accepted atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.Submit(context.Background())
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, ErrDebounced), errors.Is(err, ErrInFlight):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
		c.Advance(10 * time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fa.calls.Load())
	assert.Equal(t, int32(1), accepted.Load())

	c.Advance(DefaultDebounce + time.Millisecond)
	require.NoError(t, f.Submit(context.Background()))
	assert.Equal(t, int32(2), fa.calls.Load())
}

func TestForm_InFlightGuard(t *testing.T) {
	c := newClock()
	fa := &fakeAPI{block: make(chan struct{})}
	f := New(Config{Mode: ModeCreate, API: fa, Now: c.Now})
	fillCreate(f)

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background()) }()
	require.Eventually(t, func() bool { return fa.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, f.Loading())

	c.Advance(time.Second)
	assert.ErrorIs(t, f.Submit(context.Background()), ErrInFlight)

	close(fa.block)
	require.NoError(t, <-done)
	assert.False(t, f.Loading())
	assert.Equal(t, int32(1), fa.calls.Load())
}

func TestForm_FailureNotifiesAndReleasesFlag(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	fa := &fakeAPI{err: &client.APIError{Status: http.StatusBadRequest, Code: "EXHIBITION_NOT_FOUND", Message: "Exhibition not found"}}
	rec := &recorder{}
	f := New(Config{Mode: ModeCreate, API: fa, Notifier: rec, Navigator: rec, Log: zap.New(core), Now: newClock().Now})
	fillCreate(f)

	err := f.Submit(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"Exhibition not found"}, rec.errors)
	assert.Empty(t, rec.paths)
	assert.False(t, f.Loading())
	assert.Equal(t, 1, logs.FilterMessage("review submission failed").Len())
}

func TestForm_RetryAfterFailureResendsPhotoBytes(t *testing.T) {
	c := newClock()
	photo := bytes.Repeat([]byte{0xAB}, 1000)
	fa := &fakeAPI{err: errors.New("network down")}
	f := New(Config{Mode: ModeCreate, API: fa, Now: c.Now})
	fillCreate(f)
	require.NoError(t, f.AttachFile("a.jpg", bytes.NewReader(photo)))

	require.Error(t, f.Submit(context.Background()))
	require.Len(t, fa.uploads, 1)
	assert.Equal(t, photo, fa.uploads[0])

	fa.mu.Lock()
	fa.err = nil
	fa.mu.Unlock()
	c.Advance(DefaultDebounce + time.Millisecond)

	require.NoError(t, f.Submit(context.Background()))
	assert.Equal(t, int32(2), fa.calls.Load())
	require.Len(t, fa.uploads, 1)
	assert.Equal(t, photo, fa.uploads[0], "retry carries the same file bytes")
}

func TestForm_InvalidRecordSkipsNetwork(t *testing.T) {
	fa := &fakeAPI{}
	f := New(Config{Mode: ModeCreate, API: fa, Now: newClock().Now})
	f.SetTitle("this title runs well past the thirty rune limit")

	assert.Empty(t, f.DateMessage())
	err := f.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, MessageRequired, verr.Fields["date"])
	assert.Equal(t, MessageRequired, verr.Fields["exhibitionId"])
	assert.Equal(t, MessageRequired, verr.Fields["content"])
	assert.Equal(t, "at most 30 characters", verr.Fields["title"])
	assert.Equal(t, MessageRequired, f.DateMessage())
	assert.True(t, f.Submitted())
	assert.Zero(t, fa.calls.Load())
	assert.False(t, f.Loading())
}

func TestForm_FutureDateRejected(t *testing.T) {
	fa := &fakeAPI{}
	f := New(Config{Mode: ModeCreate, API: fa, Now: newClock().Now})
	fillCreate(f)
	f.SetField("date", "2022-06-16")

	err := f.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MessageExceededToday, verr.Fields["date"])
}

func TestForm_FutureDateThroughControlClearsDate(t *testing.T) {
	fa := &fakeAPI{}
	f := New(Config{Mode: ModeCreate, API: fa, Now: newClock().Now})
	fillCreate(f)
	f.SetDate("2030-01-01")

	assert.Empty(t, f.Data().Date)
	err := f.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MessageExceededToday, verr.Fields["date"])
	assert.Zero(t, fa.calls.Load())
}

func TestForm_UnknownModePanics(t *testing.T) {
	f := New(Config{Mode: Mode("draft"), API: &fakeAPI{}})
	assert.Panics(t, func() { _ = f.Submit(context.Background()) })
}

func TestForm_HydrationAndLimits(t *testing.T) {
	f := New(Config{Mode: ModeUpdate, Prev: updatePrev(), API: &fakeAPI{}})
	want := SubmitData{ExhibitionID: 3, Date: "2022-01-01", Title: "Lilies", Content: "Blue.", IsPublic: false, DeletedPhotos: []int64{}}
	if diff := cmp.Diff(want, f.Data()); diff != "" {
		t.Errorf("hydrated data mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, f.DateMessage())
	assert.Equal(t, "Monet", f.Exhibition().Name)

	assert.Equal(t, MaxPhotos-2, f.RemainingSlots())
	for i := 0; i < MaxPhotos-2; i++ {
		require.NoError(t, f.AttachFile("p.jpg", bytes.NewReader(nil)))
	}
	assert.ErrorIs(t, f.AttachFile("p.jpg", bytes.NewReader(nil)), ErrTooManyPhotos)

	noVis := updatePrev()
	noVis.IsPublic = nil
	assert.True(t, New(Config{Mode: ModeUpdate, Prev: noVis}).Data().IsPublic)
}

func TestForm_SetFieldIgnoresUnknown(t *testing.T) {
	f := New(Config{Mode: ModeCreate})
	f.SetField("exhibitionId", 5)
	f.SetField("isPublic", false)
	f.SetField("rating", 5)
	f.SetField("title", 42)

	d := f.Data()
	assert.Equal(t, int64(5), d.ExhibitionID)
	assert.False(t, d.IsPublic)
	assert.Empty(t, d.Title)
}

func TestForm_AbandonLogsDraft(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := New(Config{Mode: ModeCreate, Log: zap.New(core)})
	f.Abandon()
	assert.Zero(t, logs.Len())

	f.SetExhibition(api.ExhibitionSummary{ExhibitionID: 3})
	f.Abandon()
	assert.Equal(t, 1, logs.FilterMessage("review draft discarded").Len())

	edit := New(Config{Mode: ModeUpdate, Prev: updatePrev(), Log: zap.New(core)})
	edit.Abandon()
	assert.Equal(t, 1, logs.Len())
}

func TestFromReview(t *testing.T) {
	p := FromReview(&api.Review{
		ReviewID:   4,
		Exhibition: api.ExhibitionSummary{ExhibitionID: 2, Name: "Rothko"},
		Date:       "2022-02-02",
		IsPublic:   false,
		Photos:     []api.Photo{{PhotoID: 1}},
	})
	assert.Equal(t, int64(4), p.ReviewID)
	assert.Equal(t, int64(2), p.ExhibitionID)
	require.NotNil(t, p.IsPublic)
	assert.False(t, *p.IsPublic)
	assert.Len(t, p.Photos, 1)
}
