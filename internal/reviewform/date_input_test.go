package reviewform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedNow(s string) func() time.Time {
	t, _ := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	return func() time.Time { return t }
}

func TestDateInput_States(t *testing.T) {
	var emitted []string
	d := NewDateInput(fixedNow("2022-06-15 23:59"), func(key string, v any) {
		assert.Equal(t, "date", key)
		emitted = append(emitted, v.(string))
	})

	assert.Equal(t, DateErrorRequired, d.Err())
	assert.False(t, d.ErrorVisible(), "suppressed before interaction")
	assert.Empty(t, d.VisibleMessage())

	d.Change("2022-06-16")
	assert.Equal(t, DateErrorFuture, d.Err())
	assert.Equal(t, MessageExceededToday, d.VisibleMessage())
	assert.Empty(t, d.Value())

	d.Change("2022-06-15")
	assert.Equal(t, DateErrorNone, d.Err())
	assert.Equal(t, "2022-06-15", d.Value())
	assert.False(t, d.ErrorVisible())

	d.Change("")
	assert.Equal(t, MessageRequired, d.VisibleMessage())
	assert.Empty(t, d.Value())

	d.Change("15/06/2022")
	assert.Equal(t, DateErrorRequired, d.Err())

	assert.Equal(t, []string{"2022-06-15"}, emitted)
}

func TestDateInput_SubmitRevealsError(t *testing.T) {
	d := NewDateInput(fixedNow("2022-06-15 10:00"), nil)
	assert.False(t, d.ErrorVisible())
	d.MarkSubmitted()
	assert.Equal(t, MessageRequired, d.VisibleMessage())
}

func TestDateInput_Reset(t *testing.T) {
	d := NewDateInput(fixedNow("2022-06-15 10:00"), nil)

	d.Reset("2022-01-01")
	assert.Equal(t, "2022-01-01", d.Value())
	assert.Equal(t, DateErrorNone, d.Err())

	d.Reset("")
	assert.Empty(t, d.Value())
	assert.Equal(t, DateErrorRequired, d.Err())
}

func TestDateInput_CalendarDayInClockLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	// 2022-06-15 20:00 UTC is already 2022-06-16 in Seoul.
	now := func() time.Time { return time.Date(2022, 6, 15, 20, 0, 0, 0, time.UTC).In(seoul) }
	d := NewDateInput(now, nil)

	d.Change("2022-06-16")
	assert.Equal(t, DateErrorNone, d.Err())
	d.Change("2022-06-17")
	assert.Equal(t, DateErrorFuture, d.Err())
}
