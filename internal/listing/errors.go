package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrOutOfOrderPage is matched by errors.Is for every *OutOfOrderPageError
	ErrOutOfOrderPage = errors.New("out of order page")

	// ErrStaleResult marks a fetch result whose request was superseded.
	// It is only ever logged.
	ErrStaleResult = errors.New("stale result")
)

// ValidationError carries per-field messages for a rejected filter.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid filter: " + strings.Join(parts, "; ")
}

// Field returns the message for one field, or ""
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// TransportError wraps a failed page fetch. Pages loaded before the failure are kept.
type TransportError struct {
	Identity Identity
	Page     int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to fetch page %d of %s: %v", e.Page, e.Identity.Resource, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// OutOfOrderPageError is returned by Cache.AppendPage when the page does not extend the cursor.
type OutOfOrderPageError struct {
	Identity Identity
	Want     int
	Got      int
}

func (e *OutOfOrderPageError) Error() string {
	return fmt.Sprintf("out of order page for %s: want index %d, got %d", e.Identity, e.Want, e.Got)
}

func (e *OutOfOrderPageError) Is(target error) bool {
	return target == ErrOutOfOrderPage
}
