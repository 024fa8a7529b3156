package settings

import (
	"context"
	"errors"
)

// Common errors.
var (
	ErrNotFound    = errors.New("settings key not found")
	ErrStoreClosed = errors.New("settings store is closed")
)

// Keys used by the application.
const (
	KeyOpenCollections   = "open-collections"
	KeyLastOpenDirectory = "last-directory-open-collection"
	KeyLastNewDirectory  = "last-directory-new-collection"
)

// Store defines the interface for persistent application settings.
// The registry treats this as its durability boundary: a mutation counts as
// committed only once the corresponding Set call has returned.
type Store interface {
	// Get retrieves a value by key. Returns ErrNotFound for unknown keys.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value under a key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// GetStrings retrieves an ordered list of strings stored under a key.
	// An unknown key yields an empty list, not an error.
	GetStrings(ctx context.Context, key string) ([]string, error)

	// SetStrings stores an ordered list of strings under a key. Order is
	// preserved across persistence round-trips.
	SetStrings(ctx context.Context, key string, values []string) error

	// Close closes the store.
	Close() error
}
