package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document matches a uid.
	ErrNotFound = errors.New("content: document not found")
	// ErrExhausted is returned when asked to follow an empty cursor.
	ErrExhausted = errors.New("content: no more pages")
	// ErrInvalidCursor is returned for cursors this client did not produce.
	ErrInvalidCursor = errors.New("content: invalid cursor")
	// ErrUpstream marks network failures and non-2xx responses.
	ErrUpstream = errors.New("content: upstream request failed")
	// ErrMalformed marks responses that could not be decoded.
	ErrMalformed = errors.New("content: malformed response")
)

// FetchError describes a failed request to the content service.
type FetchError struct {
	Op     string
	URL    string
	Status int
	Kind   error // ErrUpstream or ErrMalformed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("content: %s %s: status %d", e.Op, e.URL, e.Status)
	}
	return fmt.Sprintf("content: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
