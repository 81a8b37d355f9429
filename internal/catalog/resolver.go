package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for item resolution.
var (
	// ErrInvalidID indicates a syntactically invalid item id.
	ErrInvalidID = errors.New("catalog: invalid item id")

	// ErrNotFound indicates no item exists with the given id.
	ErrNotFound = errors.New("catalog: item not found")
)

// maxIDLength bounds item ids; anything longer is rejected before the
// store is consulted.
const maxIDLength = 128

// idPattern matches the opaque ids the upload path generates: URL-safe,
// no separators that could be abused in a path.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Resolver maps item ids to their descriptors. Pure lookup, no side effects.
type Resolver struct {
	store Store
}

// NewResolver returns a Resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the descriptor for the given item id. Returns
// ErrInvalidID for a syntactically invalid id and ErrNotFound when no
// item with the id exists.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Item, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	item, err := r.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog: lookup %q: %w", id, err)
	}
	return item, nil
}

// ValidateID checks item id syntax without touching the store.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: too long", ErrInvalidID)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
