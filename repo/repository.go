package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/htol/bookshelf/book"
)

// ErrNotFound is returned when a record is not found in the repository
var ErrNotFound = errors.New("record not found")

// Repository defines the record store operations. Implementations keep
// records in insertion order and make every call, including batch calls,
// atomic with respect to the others.
type Repository interface {
	// Close releases the underlying resources
	Close() error

	// Health check
	Ping() error

	// Insert appends a new record and returns its generated identifier
	Insert(ctx context.Context, f book.Fields) (string, error)
	// Find returns ErrNotFound when no record has the identifier
	Find(ctx context.Context, id string) (book.Book, error)
	// Update replaces the fields of an existing record in place.
	// It reports false when the identifier is unknown.
	Update(ctx context.Context, b book.Book) (bool, error)
	// Remove deletes a record, reporting whether one was removed
	Remove(ctx context.Context, id string) (bool, error)

	// RemoveMany deletes every found identifier and returns the removed count
	RemoveMany(ctx context.Context, ids []string) (int, error)
	// SetRead sets the read flag on every found identifier and returns
	// the number of records found, changed or not
	SetRead(ctx context.Context, ids []string, read bool) (int, error)

	// Snapshot returns a copy of all records in insertion order
	Snapshot(ctx context.Context) ([]book.Book, error)
	Len(ctx context.Context) (int, error)
}

// IDFunc generates record identifiers
type IDFunc func() string

// NewID returns a random identifier: a version 4 UUID in 32 hex characters
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Option configures a repository
type Option func(*options)

type options struct {
	newID IDFunc
}

// WithIDFunc replaces the identifier generator
func WithIDFunc(f IDFunc) Option {
	return func(o *options) {
		if f != nil {
			o.newID = f
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{newID: NewID}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// idSet de-duplicates identifiers of a batch call
func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
