package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/settings"
	settingsdb "github.com/valisehq/valise/internal/settings/sqlite"
	"github.com/valisehq/valise/internal/storage/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fsCodec adapts the filesystem package to the registry's Codec interface.
type fsCodec struct{}

func (fsCodec) OpenCollection(path string) (*core.Collection, error) {
	return filesystem.OpenCollection(path)
}

func (fsCodec) SaveCollection(path string, c *core.Collection) error {
	return filesystem.SaveCollection(path, c)
}

// recordingSink captures the root sequences handed to it.
type recordingSink struct {
	roots []*core.Collection
	calls int
}

func (s *recordingSink) SetRoots(cols []*core.Collection) {
	s.roots = cols
	s.calls++
}

func newTestRegistry(t *testing.T) (*Registry, *recordingSink, string) {
	t.Helper()

	store, err := settingsdb.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sink := &recordingSink{}
	return New(store, fsCodec{}, sink), sink, t.TempDir()
}

func writeCollection(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	c := core.NewCollection(name)
	c.AddEndpoint(core.NewEndpoint(name+" request", "GET", "https://example.com/"+name))
	require.NoError(t, filesystem.SaveCollection(path, c))
	return path
}

func TestRegistry_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("appends paths in order", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		b := writeCollection(t, dir, "b")

		require.NoError(t, reg.Open(ctx, a))
		require.NoError(t, reg.Open(ctx, b))
		assert.Equal(t, []string{a, b}, reg.Paths())
	})

	t.Run("duplicate path fails and leaves the set unchanged", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")

		require.NoError(t, reg.Open(ctx, a))
		err := reg.Open(ctx, a)
		assert.ErrorIs(t, err, ErrAlreadyOpened)
		assert.Len(t, reg.Paths(), 1)
	})

	t.Run("unnormalized duplicate is still a duplicate", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")

		require.NoError(t, reg.Open(ctx, a))
		err := reg.Open(ctx, dir+"/./a.yaml")
		assert.ErrorIs(t, err, ErrAlreadyOpened)
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		reg, _, _ := newTestRegistry(t)
		assert.Error(t, reg.Open(ctx, ""))
		assert.Empty(t, reg.Paths())
	})

	t.Run("remembers the last open directory", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")

		assert.Empty(t, reg.LastOpenDirectory(ctx))
		require.NoError(t, reg.Open(ctx, a))
		assert.Equal(t, dir, reg.LastOpenDirectory(ctx))
	})
}

func TestRegistry_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the file and opens it", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		path := filepath.Join(dir, "fresh.yaml")
		c := core.NewCollection("fresh")

		require.NoError(t, reg.Create(ctx, path, c))
		assert.Equal(t, []string{path}, reg.Paths())

		loaded, err := filesystem.OpenCollection(path)
		require.NoError(t, err)
		assert.Equal(t, "fresh", loaded.Name())
	})

	t.Run("already-open path fails without overwriting", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		require.NoError(t, reg.Open(ctx, a))

		err := reg.Create(ctx, a, core.NewCollection("clobber"))
		assert.ErrorIs(t, err, ErrAlreadyOpened)

		loaded, err := filesystem.OpenCollection(a)
		require.NoError(t, err)
		assert.Equal(t, "a", loaded.Name())
	})

	t.Run("remembers the last new directory", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		path := filepath.Join(dir, "fresh.yaml")

		assert.Empty(t, reg.LastNewDirectory(ctx))
		require.NoError(t, reg.Create(ctx, path, core.NewCollection("fresh")))
		assert.Equal(t, dir, reg.LastNewDirectory(ctx))
	})
}

func TestRegistry_PathFor(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves loaded collections to their open path", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		b := writeCollection(t, dir, "b")
		require.NoError(t, reg.Open(ctx, a))
		require.NoError(t, reg.Open(ctx, b))

		ca, err := reg.LoadCollection(a)
		require.NoError(t, err)
		cb, err := reg.LoadCollection(b)
		require.NoError(t, err)

		got, ok := reg.PathFor(cb)
		require.True(t, ok)
		assert.Equal(t, b, got)

		got, ok = reg.PathFor(ca)
		require.True(t, ok)
		assert.Equal(t, a, got)
	})

	t.Run("closed collections no longer resolve", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		require.NoError(t, reg.Open(ctx, a))
		c, err := reg.LoadCollection(a)
		require.NoError(t, err)

		require.NoError(t, reg.Close(ctx, a))
		_, ok := reg.PathFor(c)
		assert.False(t, ok)
	})

	t.Run("nil and unknown collections do not resolve", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		require.NoError(t, reg.Open(ctx, a))

		_, ok := reg.PathFor(nil)
		assert.False(t, ok)
		_, ok = reg.PathFor(core.NewCollection("stranger"))
		assert.False(t, ok)
	})

	t.Run("a path retained after a persistence failure resolves nothing", func(t *testing.T) {
		dir := t.TempDir()
		a := writeCollection(t, dir, "a")

		reg := New(&failingStore{}, fsCodec{}, &recordingSink{})
		require.Error(t, reg.Open(ctx, a))
		require.Equal(t, []string{a}, reg.Paths())

		// No collection was materialized for the retained path.
		_, ok := reg.PathFor(core.NewCollection("a"))
		assert.False(t, ok)
	})
}

func TestRegistry_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the path and preserves order", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		b := writeCollection(t, dir, "b")

		require.NoError(t, reg.Open(ctx, a))
		require.NoError(t, reg.Open(ctx, b))
		require.NoError(t, reg.Close(ctx, a))

		assert.Equal(t, []string{b}, reg.Paths())
	})

	t.Run("closing an absent path is idempotent", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")

		require.NoError(t, reg.Open(ctx, a))
		require.NoError(t, reg.Close(ctx, filepath.Join(dir, "missing.yaml")))
		assert.Equal(t, []string{a}, reg.Paths())
	})

	t.Run("resynchronizes the tree roots", func(t *testing.T) {
		reg, sink, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		b := writeCollection(t, dir, "b")

		require.NoError(t, reg.Open(ctx, a))
		require.NoError(t, reg.Open(ctx, b))
		require.NoError(t, reg.Close(ctx, a))

		require.Len(t, sink.roots, 1)
		assert.Equal(t, "b", sink.roots[0].Name())
	})
}

func TestRegistry_Resync(t *testing.T) {
	ctx := context.Background()

	t.Run("rebuilds roots matching the persisted set in order", func(t *testing.T) {
		reg, sink, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		b := writeCollection(t, dir, "b")
		c := writeCollection(t, dir, "c")

		require.NoError(t, reg.Open(ctx, b))
		require.NoError(t, reg.Open(ctx, a))
		require.NoError(t, reg.Open(ctx, c))

		require.NoError(t, reg.Resync(ctx))
		assert.Equal(t, []string{b, a, c}, reg.Paths())

		require.Len(t, sink.roots, 3)
		assert.Equal(t, "b", sink.roots[0].Name())
		assert.Equal(t, "a", sink.roots[1].Name())
		assert.Equal(t, "c", sink.roots[2].Name())
	})

	t.Run("survives restarts through the settings store", func(t *testing.T) {
		store, err := settingsdb.NewInMemory()
		require.NoError(t, err)
		defer store.Close()

		dir := t.TempDir()
		a := writeCollection(t, dir, "a")
		b := writeCollection(t, dir, "b")

		first := New(store, fsCodec{}, &recordingSink{})
		require.NoError(t, first.Open(ctx, a))
		require.NoError(t, first.Open(ctx, b))

		// A second registry over the same store sees the same set.
		sink := &recordingSink{}
		second := New(store, fsCodec{}, sink)
		require.NoError(t, second.Resync(ctx))
		assert.Equal(t, []string{a, b}, second.Paths())
		assert.Len(t, sink.roots, 2)
	})

	t.Run("drops unreadable paths and reports them", func(t *testing.T) {
		reg, sink, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		gone := filepath.Join(dir, "gone.yaml")

		require.NoError(t, reg.Open(ctx, a))
		require.NoError(t, reg.Open(ctx, gone))

		err := reg.Resync(ctx)
		assert.Error(t, err)
		assert.Equal(t, []string{a}, reg.Paths())
		require.Len(t, sink.roots, 1)
	})

	t.Run("deduplicates a tampered persisted set", func(t *testing.T) {
		store, err := settingsdb.NewInMemory()
		require.NoError(t, err)
		defer store.Close()

		dir := t.TempDir()
		a := writeCollection(t, dir, "a")
		require.NoError(t, store.SetStrings(ctx, settings.KeyOpenCollections, []string{a, a}))

		sink := &recordingSink{}
		reg := New(store, fsCodec{}, sink)
		require.NoError(t, reg.Resync(ctx))
		assert.Equal(t, []string{a}, reg.Paths())
		assert.Len(t, sink.roots, 1)
	})
}

func TestRegistry_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("writes through for open paths", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		require.NoError(t, reg.Open(ctx, a))

		c, err := filesystem.OpenCollection(a)
		require.NoError(t, err)
		c.SetName("Renamed")
		require.NoError(t, reg.Save(ctx, a, c))

		loaded, err := filesystem.OpenCollection(a)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Name())
	})

	t.Run("stale reference after close", func(t *testing.T) {
		reg, _, dir := newTestRegistry(t)
		a := writeCollection(t, dir, "a")
		require.NoError(t, reg.Open(ctx, a))

		c, err := filesystem.OpenCollection(a)
		require.NoError(t, err)

		require.NoError(t, reg.Close(ctx, a))
		err = reg.Save(ctx, a, c)
		assert.ErrorIs(t, err, ErrStaleReference)
	})
}

// failingStore rejects writes, for exercising persistence failures.
type failingStore struct {
	values map[string][]string
}

func (f *failingStore) Get(ctx context.Context, key string) (string, error) {
	return "", settings.ErrNotFound
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	return errors.New("disk full")
}

func (f *failingStore) GetStrings(ctx context.Context, key string) ([]string, error) {
	return f.values[key], nil
}

func (f *failingStore) SetStrings(ctx context.Context, key string, values []string) error {
	return errors.New("disk full")
}

func (f *failingStore) Close() error { return nil }

func TestRegistry_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := writeCollection(t, dir, "a")

	reg := New(&failingStore{}, fsCodec{}, &recordingSink{})

	err := reg.Open(ctx, a)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyOpened)

	// The in-memory set keeps the change so a retry can re-save.
	assert.Equal(t, []string{a}, reg.Paths())
}
