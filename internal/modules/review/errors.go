package review

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrExhibitionNotFound = errors.New("exhibition_not_found")
	ErrTooManyPhotos      = errors.New("too_many_photos")
)

// ValidationError lists the failed field rules of a review payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Fields[k])
	}
	return "invalid review: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }
