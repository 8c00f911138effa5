// Package reviewform drives the review create/edit workflow: field state,
// date validation, staged photo deletion and guarded submission.
package reviewform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"artzip/internal/api"
	"artzip/internal/client"
	"artzip/internal/pkg/validator"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

const (
	DefaultDebounce  = 300 * time.Millisecond
	MaxPhotos        = 9
	MaxTitleLength   = 30
	MaxContentLength = 1000

	// CommunityPath is where a successful submission navigates to.
	CommunityPath = "/community"
)

var (
	ErrInFlight        = errors.New("reviewform: submission in flight")
	ErrDebounced       = errors.New("reviewform: submission debounced")
	ErrInvalid         = errors.New("reviewform: invalid submission")
	ErrUnknownPhoto    = errors.New("reviewform: photo not displayed")
	ErrNoPendingPhoto  = errors.New("reviewform: no photo selected")
	ErrTooManyPhotos   = errors.New("reviewform: photo limit reached")
	ErrNotUpdateMode   = errors.New("reviewform: photo deletion needs update mode")
	errUnsupportedMode = errors.New("reviewform: unsupported mode")
)

// ValidationError carries one message per failing field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid review: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// SubmitData is the record being authored. DeletedPhotos is non-nil only
// in update mode.
type SubmitData struct {
	ExhibitionID  int64
	Date          string
	Title         string
	Content       string
	IsPublic      bool
	DeletedPhotos []int64
}

func (d SubmitData) payload() api.ReviewPayload {
	return api.ReviewPayload{
		ExhibitionID:  d.ExhibitionID,
		Date:          d.Date,
		Title:         d.Title,
		Content:       d.Content,
		IsPublic:      d.IsPublic,
		DeletedPhotos: d.DeletedPhotos,
	}
}

func (d SubmitData) clone() SubmitData {
	if d.DeletedPhotos != nil {
		d.DeletedPhotos = append([]int64{}, d.DeletedPhotos...)
	}
	return d
}

// PrevData hydrates an edit form from a saved review.
type PrevData struct {
	ReviewID            int64
	ExhibitionID        int64
	ExhibitionName      string
	ExhibitionThumbnail string
	Date                string
	Title               string
	Content             string
	IsPublic            *bool
	Photos              []api.Photo
}

// FromReview converts a fetched review into edit-form prior data.
func FromReview(rv *api.Review) *PrevData {
	public := rv.IsPublic
	return &PrevData{
		ReviewID:            rv.ReviewID,
		ExhibitionID:        rv.Exhibition.ExhibitionID,
		ExhibitionName:      rv.Exhibition.Name,
		ExhibitionThumbnail: rv.Exhibition.Thumbnail,
		Date:                rv.Date,
		Title:               rv.Title,
		Content:             rv.Content,
		IsPublic:            &public,
		Photos:              append([]api.Photo{}, rv.Photos...),
	}
}

// ReviewAPI is the network side of a submission. *client.Client implements it.
type ReviewAPI interface {
	CreateReview(ctx context.Context, p api.ReviewPayload, files []client.File) (int64, error)
	UpdateReview(ctx context.Context, id int64, p api.ReviewPayload, files []client.File) error
}

// Notifier shows transient user-visible messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Navigator replaces the current location.
type Navigator interface {
	Replace(path string)
}

// MutationFunc is told about a successful update with the submitted record
// and the photos still displayed.
type MutationFunc func(data SubmitData, photos []api.Photo)

type Config struct {
	Mode       Mode
	Prev       *PrevData
	API        ReviewAPI
	Notifier   Notifier
	Navigator  Navigator
	OnMutation MutationFunc
	Log        *zap.Logger
	// Now defaults to time.Now. It drives date validation and the debounce window.
	Now      func() time.Time
	Debounce time.Duration
}

type Form struct {
	mode     Mode
	reviewID int64
	api      ReviewAPI
	notifier Notifier
	nav      Navigator
	onMut    MutationFunc
	log      *zap.Logger
	now      func() time.Time
	limiter  *rate.Limiter
	inFlight atomic.Bool

	mu           sync.Mutex
	data         SubmitData
	date         *DateInput
	exhibition   api.ExhibitionSummary
	photos       []api.Photo
	files        []attachment
	pendingPhoto int64
	submitted    bool
}

func New(cfg Config) *Form {
	f := &Form{
		mode:     cfg.Mode,
		api:      cfg.API,
		notifier: cfg.Notifier,
		nav:      cfg.Navigator,
		onMut:    cfg.OnMutation,
		log:      cfg.Log,
		now:      cfg.Now,
	}
	if f.log == nil {
		f.log = zap.NewNop()
	}
	if f.now == nil {
		f.now = time.Now
	}
	window := cfg.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	f.limiter = rate.NewLimiter(rate.Every(window), 1)

	f.data = SubmitData{IsPublic: true}
	f.date = NewDateInput(f.now, f.setFieldLocked)
	if cfg.Prev != nil {
		f.hydrate(cfg.Prev)
	}
	return f
}

func (f *Form) hydrate(p *PrevData) {
	f.reviewID = p.ReviewID
	f.data = SubmitData{
		ExhibitionID: p.ExhibitionID,
		Date:         p.Date,
		Title:        p.Title,
		Content:      p.Content,
		IsPublic:     p.IsPublic == nil || *p.IsPublic,
	}
	f.exhibition = api.ExhibitionSummary{
		ExhibitionID: p.ExhibitionID,
		Name:         p.ExhibitionName,
		Thumbnail:    p.ExhibitionThumbnail,
	}
	if f.mode == ModeUpdate {
		f.data.DeletedPhotos = []int64{}
		f.photos = append([]api.Photo{}, p.Photos...)
	}
	f.date.Reset(p.Date)
}

// SetField is the generic field-change callback used by field editors.
// Unknown keys and mistyped values are ignored.
func (f *Form) SetField(key string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setFieldLocked(key, value)
}

func (f *Form) setFieldLocked(key string, value any) {
	switch key {
	case "exhibitionId":
		switch v := value.(type) {
		case int64:
			f.data.ExhibitionID = v
		case int:
			f.data.ExhibitionID = int64(v)
		}
	case "date":
		if v, ok := value.(string); ok {
			f.data.Date = v
		}
	case "title":
		if v, ok := value.(string); ok {
			f.data.Title = v
		}
	case "content":
		if v, ok := value.(string); ok {
			f.data.Content = v
		}
	case "isPublic":
		if v, ok := value.(bool); ok {
			f.data.IsPublic = v
		}
	default:
		f.log.Debug("ignoring unknown review field", zap.String("key", key))
	}
}

// SetExhibition records the exhibition picked in the search bar.
func (f *Form) SetExhibition(e api.ExhibitionSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exhibition = e
	f.data.ExhibitionID = e.ExhibitionID
}

// SetDate routes user input through the date control.
func (f *Form) SetDate(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.date.Change(value)
	if f.date.Err() != DateErrorNone {
		f.data.Date = ""
	}
}

func (f *Form) SetTitle(v string)   { f.SetField("title", v) }
func (f *Form) SetContent(v string) { f.SetField("content", v) }
func (f *Form) SetPublic(v bool)    { f.SetField("isPublic", v) }

// attachment is a queued photo held in memory so a failed submission can
// be retried with the same bytes.
type attachment struct {
	name string
	data []byte
}

// AttachFile reads r and queues it as a new photo for upload.
func (f *Form) AttachFile(name string, r io.Reader) error {
	f.mu.Lock()
	full := len(f.files) >= MaxPhotos-len(f.photos)
	f.mu.Unlock()
	if full {
		return ErrTooManyPhotos
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.files) >= MaxPhotos-len(f.photos) {
		return ErrTooManyPhotos
	}
	f.files = append(f.files, attachment{name: name, data: data})
	return nil
}

// RemainingSlots is how many more files may be attached.
func (f *Form) RemainingSlots() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return MaxPhotos - len(f.photos) - len(f.files)
}

// SelectPhoto opens delete confirmation for a displayed previous photo.
func (f *Form) SelectPhoto(photoID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode != ModeUpdate {
		return ErrNotUpdateMode
	}
	for _, p := range f.photos {
		if p.PhotoID == photoID {
			f.pendingPhoto = photoID
			return nil
		}
	}
	return ErrUnknownPhoto
}

// PendingPhoto is the photo awaiting confirmation, 0 when none.
func (f *Form) PendingPhoto() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingPhoto
}

// ConfirmPhotoDelete stages the selected photo for deletion and hides it.
func (f *Form) ConfirmPhotoDelete() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.pendingPhoto
	if id == 0 {
		return ErrNoPendingPhoto
	}
	f.pendingPhoto = 0

	kept := f.photos[:0:0]
	for _, p := range f.photos {
		if p.PhotoID != id {
			kept = append(kept, p)
		}
	}
	f.photos = kept
	f.data.DeletedPhotos = append(f.data.DeletedPhotos, id)
	return nil
}

func (f *Form) CancelPhotoDelete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingPhoto = 0
}

// Data returns a copy of the record.
func (f *Form) Data() SubmitData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.clone()
}

// Photos returns the previous photos still displayed.
func (f *Form) Photos() []api.Photo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Photo{}, f.photos...)
}

func (f *Form) Exhibition() api.ExhibitionSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exhibition
}

// DateMessage is the date error to render, empty while suppressed.
func (f *Form) DateMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.date.VisibleMessage()
}

func (f *Form) Submitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

func (f *Form) Loading() bool {
	return f.inFlight.Load()
}

// Submit validates and sends the record. Calls while a submission is in
// flight fail with ErrInFlight; at most one call per debounce window gets
// past ErrDebounced. Network failures are notified and returned.
func (f *Form) Submit(ctx context.Context) error {
	if f.mode != ModeCreate && f.mode != ModeUpdate {
		panic(fmt.Errorf("%w: %q", errUnsupportedMode, f.mode))
	}
	if f.inFlight.Load() {
		return ErrInFlight
	}
	if !f.limiter.AllowN(f.now(), 1) {
		return ErrDebounced
	}
	if !f.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer f.inFlight.Store(false)

	f.mu.Lock()
	f.submitted = true
	f.date.MarkSubmitted()
	if verr := f.validateLocked(); verr != nil {
		f.mu.Unlock()
		return verr
	}
	data := f.data.clone()
	files := make([]client.File, len(f.files))
	for i, a := range f.files {
		files[i] = client.File{Name: a.name, Reader: bytes.NewReader(a.data)}
	}
	photos := append([]api.Photo{}, f.photos...)
	reviewID := f.reviewID
	f.mu.Unlock()

	var err error
	switch f.mode {
	case ModeCreate:
		var id int64
		id, err = f.api.CreateReview(ctx, data.payload(), files)
		if err == nil {
			f.log.Info("review created", zap.Int64("review_id", id))
			f.notify(true, "Your review has been posted.")
		}
	case ModeUpdate:
		err = f.api.UpdateReview(ctx, reviewID, data.payload(), files)
		if err == nil {
			f.log.Info("review updated", zap.Int64("review_id", reviewID), zap.Int("deleted_photos", len(data.DeletedPhotos)))
			f.notify(true, "Your review has been updated.")
			if f.onMut != nil {
				f.onMut(data, photos)
			}
		}
	}
	if err != nil {
		f.log.Error("review submission failed", zap.String("mode", string(f.mode)), zap.Error(err))
		f.notify(false, errorMessage(err))
		return err
	}

	if f.nav != nil {
		f.nav.Replace(CommunityPath)
	}
	return nil
}

// Abandon is called when the form is discarded without submitting.
func (f *Form) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == ModeCreate && f.data.ExhibitionID != 0 {
		f.log.Info("review draft discarded",
			zap.Int64("exhibition_id", f.data.ExhibitionID),
			zap.String("date", f.data.Date),
			zap.String("title", f.data.Title),
		)
	}
}

func (f *Form) validateLocked() *ValidationError {
	fields := map[string]string{}
	for k, tag := range validator.Validate(f.data.payload()) {
		if k == "date" {
			continue
		}
		fields[k] = tagMessage(tag)
	}
	if utf8.RuneCountInString(f.data.Title) > MaxTitleLength {
		fields["title"] = fmt.Sprintf("at most %d characters", MaxTitleLength)
	}
	if utf8.RuneCountInString(f.data.Content) > MaxContentLength {
		fields["content"] = fmt.Sprintf("at most %d characters", MaxContentLength)
	}

	if f.data.Date == "" {
		fields["date"] = MessageRequired
		if e := f.date.Err(); e != DateErrorNone {
			fields["date"] = e.Message()
		}
	} else if e := f.date.check(f.data.Date); e != DateErrorNone {
		fields["date"] = e.Message()
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func tagMessage(tag string) string {
	switch tag {
	case "required", "gt":
		return MessageRequired
	case "notfuture":
		return MessageExceededToday
	case "max":
		return "too long"
	default:
		return "invalid value"
	}
}

func (f *Form) notify(ok bool, msg string) {
	if f.notifier == nil {
		return
	}
	if ok {
		f.notifier.Success(msg)
	} else {
		f.notifier.Error(msg)
	}
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
