package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/settings"
)

// Common errors.
var (
	// ErrAlreadyOpened is returned when opening a collection path that is
	// already present in the persisted set.
	ErrAlreadyOpened = errors.New("collection is already opened")

	// ErrStaleReference is returned when an operation targets a collection
	// path that is no longer open.
	ErrStaleReference = errors.New("collection is no longer open")
)

// Codec reads and writes collection files. Implementations live outside the
// registry; the registry never parses the on-disk format itself.
type Codec interface {
	OpenCollection(path string) (*core.Collection, error)
	SaveCollection(path string, c *core.Collection) error
}

// RootSink receives the rebuilt root sequence after a resynchronization.
// The collection tree sidebar implements this.
type RootSink interface {
	SetRoots(cols []*core.Collection)
}

// Registry is the authoritative, persisted set of open-collection paths. It
// enforces uniqueness, preserves insertion order, and keeps the tree
// projection's root sequence in lock-step with the persisted set.
type Registry struct {
	store settings.Store
	codec Codec
	sink  RootSink
	paths []string
	// cols mirrors paths index-for-index; an entry is nil until the path's
	// collection has been materialized.
	cols []*core.Collection
}

// New creates a registry backed by the given settings store and codec.
func New(store settings.Store, codec Codec, sink RootSink) *Registry {
	return &Registry{
		store: store,
		codec: codec,
		sink:  sink,
		paths: make([]string, 0),
		cols:  make([]*core.Collection, 0),
	}
}

// SetSink replaces the root sink. Useful when the sink is constructed after
// the registry.
func (r *Registry) SetSink(sink RootSink) {
	r.sink = sink
}

// Paths returns the open-collection paths in insertion order.
func (r *Registry) Paths() []string {
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// IsOpen reports whether path is present in the open set.
func (r *Registry) IsOpen(path string) bool {
	path = filepath.Clean(path)
	for _, p := range r.paths {
		if p == path {
			return true
		}
	}
	return false
}

// Open adds path to the persisted set. It fails with ErrAlreadyOpened if the
// path is already present, leaving both the set and the tree roots untouched.
// The caller is responsible for materializing the collection and appending it
// to the tree after a successful Open.
func (r *Registry) Open(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("collection path cannot be empty")
	}
	path = filepath.Clean(path)

	if r.IsOpen(path) {
		return ErrAlreadyOpened
	}

	r.paths = append(r.paths, path)
	r.cols = append(r.cols, nil)
	if err := r.store.SetStrings(ctx, settings.KeyOpenCollections, r.paths); err != nil {
		// The in-memory set keeps the change so a retry can re-save.
		return fmt.Errorf("failed to persist open collections: %w", err)
	}

	// Remembered for the next open prompt; losing it is harmless.
	_ = r.store.Set(ctx, settings.KeyLastOpenDirectory, filepath.Dir(path))

	return nil
}

// Create writes an empty collection file through the codec and opens it. The
// target directory is remembered separately from the open prompt's.
func (r *Registry) Create(ctx context.Context, path string, c *core.Collection) error {
	if path == "" {
		return fmt.Errorf("collection path cannot be empty")
	}
	path = filepath.Clean(path)

	if r.IsOpen(path) {
		return ErrAlreadyOpened
	}
	if err := r.codec.SaveCollection(path, c); err != nil {
		return fmt.Errorf("failed to write collection: %w", err)
	}
	if err := r.Open(ctx, path); err != nil {
		return err
	}
	r.bind(path, c)

	_ = r.store.Set(ctx, settings.KeyLastNewDirectory, filepath.Dir(path))
	return nil
}

// LastOpenDirectory returns the directory of the most recently opened
// collection file, or "" when none has been recorded.
func (r *Registry) LastOpenDirectory(ctx context.Context) string {
	dir, err := r.store.Get(ctx, settings.KeyLastOpenDirectory)
	if err != nil {
		return ""
	}
	return dir
}

// LoadCollection materializes the collection stored at path through the
// codec. It does not touch the persisted set; if path is open, the loaded
// instance becomes the one PathFor resolves.
func (r *Registry) LoadCollection(path string) (*core.Collection, error) {
	path = filepath.Clean(path)
	c, err := r.codec.OpenCollection(path)
	if err != nil {
		return nil, err
	}
	r.bind(path, c)
	return c, nil
}

// bind associates an open path with its materialized collection instance.
func (r *Registry) bind(path string, c *core.Collection) {
	for i, p := range r.paths {
		if p == path {
			r.cols[i] = c
			return
		}
	}
}

// PathFor returns the open path whose materialized collection is c. A
// collection that has been closed, or was never loaded through the registry,
// resolves to false.
func (r *Registry) PathFor(c *core.Collection) (string, bool) {
	if c == nil {
		return "", false
	}
	for i, col := range r.cols {
		if col == c {
			return r.paths[i], true
		}
	}
	return "", false
}

// LastNewDirectory returns the directory of the most recently created
// collection file, or "" when none has been recorded.
func (r *Registry) LastNewDirectory(ctx context.Context) string {
	dir, err := r.store.Get(ctx, settings.KeyLastNewDirectory)
	if err != nil {
		return ""
	}
	return dir
}

// Close removes every entry equal to path from the persisted set and
// resynchronizes the tree roots. Closing an absent path is not an error.
func (r *Registry) Close(ctx context.Context, path string) error {
	path = filepath.Clean(path)

	kept := r.paths[:0]
	keptCols := r.cols[:0]
	for i, p := range r.paths {
		if p != path {
			kept = append(kept, p)
			keptCols = append(keptCols, r.cols[i])
		}
	}
	r.paths = kept
	r.cols = keptCols

	if err := r.store.SetStrings(ctx, settings.KeyOpenCollections, r.paths); err != nil {
		return fmt.Errorf("failed to persist open collections: %w", err)
	}

	return r.Resync(ctx)
}

// Resync reloads the persisted set and rebuilds the tree projection's root
// sequence to match it exactly, in the same order. Collections are rebuilt
// from disk on every resync; paths whose files can no longer be read are
// dropped from the persisted set and reported.
func (r *Registry) Resync(ctx context.Context) error {
	stored, err := r.store.GetStrings(ctx, settings.KeyOpenCollections)
	if err != nil {
		return fmt.Errorf("failed to load open collections: %w", err)
	}

	var (
		roots    []*core.Collection
		paths    []string
		loadErrs []error
	)
	seen := make(map[string]bool, len(stored))
	for _, p := range stored {
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true

		c, err := r.codec.OpenCollection(p)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		paths = append(paths, p)
		roots = append(roots, c)
	}

	r.paths = paths
	r.cols = roots
	if len(loadErrs) > 0 {
		// Unreadable entries are dropped so the persisted set stays equal
		// to the displayed roots.
		if err := r.store.SetStrings(ctx, settings.KeyOpenCollections, r.paths); err != nil {
			loadErrs = append(loadErrs, err)
		}
	}

	if r.sink != nil {
		r.sink.SetRoots(roots)
	}

	return errors.Join(loadErrs...)
}

// Save writes the collection back to its file. It fails with
// ErrStaleReference when path has been closed in the meantime, so editing
// surfaces holding a removed collection degrade gracefully.
func (r *Registry) Save(ctx context.Context, path string, c *core.Collection) error {
	path = filepath.Clean(path)
	if !r.IsOpen(path) {
		return ErrStaleReference
	}
	return r.codec.SaveCollection(path, c)
}
