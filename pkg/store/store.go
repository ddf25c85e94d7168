// Package store provides the abstract document store the memory lifecycle
// and approval ledger persist through: named collections of JSON
// documents with filtered find/update/delete. Implementations must make
// Insert durable before returning; the archive-then-delete sweep depends
// on it.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInvalidFilter marks a filter referencing an unusable field name.
var ErrInvalidFilter = errors.New("invalid filter")

// TimeFormat is the canonical document timestamp encoding: fixed-width
// RFC 3339 UTC with nanosecond precision, so lexicographic comparison
// matches chronological order in every backend.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// FormatTime encodes t in the canonical document encoding.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime decodes a canonical document timestamp. Variable-precision
// RFC 3339 is accepted for documents written by other producers.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(TimeFormat, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

// Filter selects documents by top-level string field comparison. Eq
// matches exact values; Lt matches documents whose field sorts strictly
// below the given value (used for expiry cutoffs on canonical
// timestamps). The core only ever filters on string identifiers and
// timestamps, which keeps every backend's comparison semantics
// identical. A nil or empty filter matches every document.
type Filter struct {
	Eq map[string]string
	Lt map[string]string
}

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate rejects filters with field names that cannot be document keys.
func (f Filter) Validate() error {
	for field := range f.Eq {
		if !fieldNamePattern.MatchString(field) {
			return fmt.Errorf("%w: bad field name %q", ErrInvalidFilter, field)
		}
	}
	for field := range f.Lt {
		if !fieldNamePattern.MatchString(field) {
			return fmt.Errorf("%w: bad field name %q", ErrInvalidFilter, field)
		}
	}
	return nil
}

// DocumentStore is the persistence collaborator. All errors propagate to
// the caller as-is; nothing here retries silently.
type DocumentStore interface {
	// Insert adds one document to a collection.
	Insert(ctx context.Context, collection string, doc map[string]any) error
	// Find returns all documents matching filter.
	Find(ctx context.Context, collection string, filter Filter) ([]map[string]any, error)
	// Update applies changes to every matching document and returns the
	// number of documents changed.
	Update(ctx context.Context, collection string, filter Filter, changes map[string]any) (int64, error)
	// Delete removes every matching document and returns the number
	// removed. Deleting an already-deleted document is a zero-count
	// no-op, never an error.
	Delete(ctx context.Context, collection string, filter Filter) (int64, error)
}
