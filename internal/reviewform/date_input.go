package reviewform

import (
	"time"

	"artzip/internal/domain"
	"artzip/internal/pkg/validator"
)

// DateError is the validation state of a DateInput.
type DateError int

const (
	DateErrorNone DateError = iota
	DateErrorRequired
	DateErrorFuture
)

const (
	MessageRequired      = "required value"
	MessageExceededToday = "exceeded current date"
)

func (e DateError) Message() string {
	switch e {
	case DateErrorRequired:
		return MessageRequired
	case DateErrorFuture:
		return MessageExceededToday
	default:
		return ""
	}
}

// FieldChangeFunc receives a validated field value keyed by its JSON name.
type FieldChangeFunc func(key string, value any)

// DateInput validates the visit date of a review. Today is valid, later
// days are not. It is not safe for concurrent use; Form serializes access.
type DateInput struct {
	value           string
	err             DateError
	interacted      bool
	submitAttempted bool
	now             func() time.Time
	onChange        FieldChangeFunc
}

// NewDateInput starts empty with a hidden required error. now may be nil.
func NewDateInput(now func() time.Time, onChange FieldChangeFunc) *DateInput {
	if now == nil {
		now = time.Now
	}
	return &DateInput{err: DateErrorRequired, now: now, onChange: onChange}
}

// Change handles a user edit. An empty or unparseable value counts as
// missing. Only valid values reach the change callback; invalid ones clear
// the selection.
func (d *DateInput) Change(value string) {
	d.interacted = true

	d.err = d.check(value)
	if d.err != DateErrorNone {
		d.value = ""
		return
	}
	d.value = value
	if d.onChange != nil {
		d.onChange("date", value)
	}
}

// Reset re-initializes the control from a previously saved date.
func (d *DateInput) Reset(prevDate string) {
	if prevDate == "" {
		d.value = ""
		d.err = DateErrorRequired
		return
	}
	d.value = prevDate
	d.err = DateErrorNone
}

// MarkSubmitted makes the current error visible without user interaction.
func (d *DateInput) MarkSubmitted() {
	d.submitAttempted = true
}

func (d *DateInput) Value() string { return d.value }

func (d *DateInput) Err() DateError { return d.err }

// ErrorVisible reports whether the error message should be displayed.
func (d *DateInput) ErrorVisible() bool {
	return (d.interacted || d.submitAttempted) && d.err != DateErrorNone
}

// VisibleMessage is the message to display, empty while suppressed.
func (d *DateInput) VisibleMessage() string {
	if !d.ErrorVisible() {
		return ""
	}
	return d.err.Message()
}

func (d *DateInput) check(value string) DateError {
	if value == "" {
		return DateErrorRequired
	}
	now := d.now()
	if _, err := time.ParseInLocation(domain.DateLayout, value, now.Location()); err != nil {
		return DateErrorRequired
	}
	if validator.IsFutureDate(value, now) {
		return DateErrorFuture
	}
	return DateErrorNone
}
