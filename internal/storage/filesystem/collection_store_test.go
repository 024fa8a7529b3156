package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/valisehq/valise/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpenCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")

	c := core.NewCollection("PokéAPI")
	c.AddVariable(&core.KeyValueItem{Name: "base_url", Value: "https://pokeapi.co", Active: true})
	c.AddVariable(&core.KeyValueItem{Name: "token", Value: "12341234", Active: true, Secret: true})

	ep := core.NewEndpoint("Get Pokemon", "GET", "https://pokeapi.co/api/v2/pokemon/ditto")
	ep.AddHeader(core.KeyValueItem{Name: "Accept", Value: "application/json", Active: true})
	c.AddEndpoint(ep)

	post := core.NewEndpoint("Create", "POST", "https://pokeapi.co/api/v2/things")
	post.SetBody(`{"name":"ditto"}`, "json")
	c.AddEndpoint(post)

	require.NoError(t, SaveCollection(path, c))

	loaded, err := OpenCollection(path)
	require.NoError(t, err)

	assert.Equal(t, c.ID(), loaded.ID())
	assert.Equal(t, "PokéAPI", loaded.Name())

	// Variables come back in order with flags intact.
	require.Equal(t, 2, loaded.VariableCount())
	v, ok := loaded.VariableAt(0)
	require.True(t, ok)
	assert.Equal(t, "base_url", v.Name)
	v, ok = loaded.VariableAt(1)
	require.True(t, ok)
	assert.True(t, v.Secret)

	// Endpoints come back in order with headers and body.
	require.Equal(t, 2, loaded.EndpointCount())
	e, ok := loaded.EndpointAt(0)
	require.True(t, ok)
	assert.Equal(t, ep.ID(), e.ID())
	assert.Equal(t, "GET", e.Method())
	require.Equal(t, 1, e.HeaderCount())

	e, ok = loaded.EndpointAt(1)
	require.True(t, ok)
	assert.Equal(t, "json", e.BodyType())
	assert.Equal(t, `{"name":"ditto"}`, e.BodyContent())
}

func TestOpenCollection_MissingFile(t *testing.T) {
	_, err := OpenCollection(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestOpenCollection_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::: not yaml {{{"), 0644))

	_, err := OpenCollection(path)
	assert.Error(t, err)
}

func TestSaveCollection_EmptyCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")

	c := core.NewCollection("Empty")
	require.NoError(t, SaveCollection(path, c))

	loaded, err := OpenCollection(path)
	require.NoError(t, err)
	assert.Equal(t, "Empty", loaded.Name())
	assert.Zero(t, loaded.VariableCount())
	assert.Zero(t, loaded.EndpointCount())
}
