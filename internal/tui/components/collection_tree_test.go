package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ registry.RootSink = (*CollectionTree)(nil)

func newTestTree(cols ...*core.Collection) *CollectionTree {
	tree := NewCollectionTree()
	tree.SetSize(40, 20)
	tree.Focus()
	tree.SetRoots(cols)
	return tree
}

func pressRunes(t *testing.T, tree *CollectionTree, keys ...string) tea.Msg {
	t.Helper()
	var last tea.Msg
	for _, k := range keys {
		_, cmd := tree.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		if cmd != nil {
			last = cmd()
		}
	}
	return last
}

func pressEnter(tree *CollectionTree) tea.Msg {
	_, cmd := tree.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestCollectionTree_Navigation(t *testing.T) {
	tree := newTestTree(
		forestCollection("a"),
		forestCollection("b"),
		forestCollection("c"),
	)

	assert.Equal(t, 0, tree.Cursor())
	pressRunes(t, tree, "j", "j")
	assert.Equal(t, 2, tree.Cursor())

	// Cursor clamps at the edges.
	pressRunes(t, tree, "j")
	assert.Equal(t, 2, tree.Cursor())
	pressRunes(t, tree, "k", "k", "k", "k")
	assert.Equal(t, 0, tree.Cursor())

	pressRunes(t, tree, "G")
	assert.Equal(t, 2, tree.Cursor())
	pressRunes(t, tree, "g", "g")
	assert.Equal(t, 0, tree.Cursor())
}

func TestCollectionTree_ExpandCollapse(t *testing.T) {
	c := forestCollection("api", "x", "y")
	tree := newTestTree(c)

	msg := pressRunes(t, tree, "l")
	require.IsType(t, ExpandToggledMsg{}, msg)
	assert.True(t, msg.(ExpandToggledMsg).Expanded)
	assert.Equal(t, 3, tree.RowCount())

	// Expanding again is a no-op.
	assert.Nil(t, pressRunes(t, tree, "l"))

	msg = pressRunes(t, tree, "h")
	require.IsType(t, ExpandToggledMsg{}, msg)
	assert.False(t, msg.(ExpandToggledMsg).Expanded)
	assert.Equal(t, 1, tree.RowCount())
}

func TestCollectionTree_ExpandEmptyCollection(t *testing.T) {
	tree := newTestTree(forestCollection("empty"))

	// Not expandable: no children, no toggle message.
	assert.Nil(t, pressRunes(t, tree, "l"))
	assert.Equal(t, 1, tree.RowCount())
}

func TestCollectionTree_ActivateCollection(t *testing.T) {
	c := forestCollection("api", "x")
	tree := newTestTree(c)

	msg := pressEnter(tree)
	require.IsType(t, OpenCollectionMsg{}, msg)
	assert.Same(t, c, msg.(OpenCollectionMsg).Collection)

	// Activation does not change expand state.
	assert.Equal(t, 1, tree.RowCount())
}

func TestCollectionTree_ActivateEndpoint(t *testing.T) {
	c := forestCollection("api", "x", "y")
	tree := newTestTree(c)

	pressRunes(t, tree, "l", "j", "j")
	msg := pressEnter(tree)

	require.IsType(t, OpenEndpointMsg{}, msg)
	open := msg.(OpenEndpointMsg)
	assert.Equal(t, "y", open.Endpoint.Name())
	assert.Same(t, c, open.Collection)
}

func TestCollectionTree_ActivateEmptyTree(t *testing.T) {
	tree := newTestTree()
	assert.Nil(t, pressEnter(tree))
}

func TestCollectionTree_IgnoresKeysWhenBlurred(t *testing.T) {
	tree := newTestTree(forestCollection("a"), forestCollection("b"))
	tree.Blur()

	pressRunes(t, tree, "j")
	assert.Equal(t, 0, tree.Cursor())
	assert.Nil(t, pressEnter(tree))
}

func TestCollectionTree_SetRootsClampsCursor(t *testing.T) {
	tree := newTestTree(
		forestCollection("a"),
		forestCollection("b"),
		forestCollection("c"),
	)
	pressRunes(t, tree, "G")
	require.Equal(t, 2, tree.Cursor())

	tree.SetRoots([]*core.Collection{forestCollection("only")})
	assert.Equal(t, 0, tree.Cursor())
	assert.Equal(t, 1, tree.RowCount())
}

func TestCollectionTree_Search(t *testing.T) {
	users := forestCollection("users", "list users", "create user")
	billing := forestCollection("billing", "charge")
	tree := newTestTree(users, billing)
	tree.Forest().Expand(users)
	tree.Forest().Expand(billing)
	require.Equal(t, 5, tree.RowCount())

	pressRunes(t, tree, "/")
	require.True(t, tree.IsSearching())
	pressRunes(t, tree, "u", "s", "e", "r")

	// Matches the collection row and both endpoint rows.
	assert.Equal(t, 3, tree.RowCount())

	tree.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, tree.IsSearching())
	assert.Equal(t, 3, tree.RowCount())

	// Esc clears the committed filter.
	tree.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 5, tree.RowCount())
}

func TestCollectionTree_SelectedCollection(t *testing.T) {
	a := forestCollection("a", "x")
	b := forestCollection("b")
	tree := newTestTree(a, b)

	assert.Same(t, a, tree.SelectedCollection())

	// Leaf rows resolve to their owning collection.
	pressRunes(t, tree, "l", "j")
	assert.Same(t, a, tree.SelectedCollection())

	pressRunes(t, tree, "G")
	assert.Same(t, b, tree.SelectedCollection())

	// The selection follows the filtered rows during a search.
	pressRunes(t, tree, "/")
	pressRunes(t, tree, "b")
	assert.Same(t, b, tree.SelectedCollection())

	empty := newTestTree()
	assert.Nil(t, empty.SelectedCollection())
}

func TestCollectionTree_SearchByMethod(t *testing.T) {
	c := forestCollection("api")
	c.AddEndpoint(core.NewEndpoint("fetch", "GET", "https://example.com/a"))
	post := core.NewEndpoint("submit", "POST", "https://example.com/b")
	c.AddEndpoint(post)

	tree := newTestTree(c)
	tree.Forest().Expand(c)

	pressRunes(t, tree, "/")
	pressRunes(t, tree, "p", "o", "s", "t")

	require.Equal(t, 1, tree.RowCount())
	filtered := tree.displayRows()
	assert.Same(t, post, filtered[0].Node.Endpoint)
}
