package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valisehq/valise/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollectionPane() (*CollectionPane, *core.Collection) {
	c := core.NewCollection("api")
	p := NewCollectionPane()
	p.SetSize(60, 20)
	p.Focus()
	p.SetCollection(c)
	return p, c
}

func collKey(p *CollectionPane, msg tea.KeyMsg) tea.Msg {
	_, cmd := p.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func collRunes(p *CollectionPane, keys ...string) tea.Msg {
	var last tea.Msg
	for _, k := range keys {
		if m := collKey(p, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}); m != nil {
			last = m
		}
	}
	return last
}

func collType(p *CollectionPane, text string) {
	for _, r := range text {
		if r == ' ' {
			collKey(p, tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		collKey(p, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestCollectionPane_Rename(t *testing.T) {
	p, c := newTestCollectionPane()

	collRunes(p, "e")
	require.True(t, p.Editing())
	for range "api" {
		collKey(p, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	collType(p, "PokéAPI")
	collKey(p, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "PokéAPI", c.Name())
}

func TestCollectionPane_RenameToBlankKeepsName(t *testing.T) {
	p, c := newTestCollectionPane()

	collRunes(p, "e")
	for range "api" {
		collKey(p, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	collKey(p, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "api", c.Name())
}

func TestCollectionPane_AddVariable(t *testing.T) {
	p, c := newTestCollectionPane()

	collRunes(p, "a")
	require.True(t, p.Editing())
	collType(p, "base_url=https://pokeapi.co")
	collKey(p, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, 1, c.VariableCount())
	v, _ := c.VariableAt(0)
	assert.Equal(t, "base_url", v.Name)
	assert.Equal(t, "https://pokeapi.co", v.Value)
	assert.True(t, v.Active)
}

func TestCollectionPane_ToggleFlags(t *testing.T) {
	p, c := newTestCollectionPane()
	c.AddVariable(&core.KeyValueItem{Name: "token", Value: "s3cret", Active: true})

	collRunes(p, "j") // onto the variable row
	collKey(p, tea.KeyMsg{Type: tea.KeySpace})
	v, _ := c.VariableAt(0)
	assert.False(t, v.Active)

	collRunes(p, "s")
	assert.True(t, v.Secret)
}

func TestCollectionPane_DeleteVariable(t *testing.T) {
	p, c := newTestCollectionPane()
	c.AddVariable(&core.KeyValueItem{Name: "a", Active: true})
	c.AddVariable(&core.KeyValueItem{Name: "b", Active: true})

	collRunes(p, "j", "d")
	require.Equal(t, 1, c.VariableCount())
	v, _ := c.VariableAt(0)
	assert.Equal(t, "b", v.Name)

	// 'd' on the name row is a no-op
	collRunes(p, "k", "d")
	assert.Equal(t, 1, c.VariableCount())
}

func TestCollectionPane_SaveOnCtrlS(t *testing.T) {
	p, c := newTestCollectionPane()

	msg := collKey(p, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.IsType(t, SaveRequestedMsg{}, msg)
	assert.Same(t, c, msg.(SaveRequestedMsg).Collection)
}

func TestCollectionPane_SecretRendersMasked(t *testing.T) {
	p, c := newTestCollectionPane()
	c.AddVariable(&core.KeyValueItem{Name: "token", Value: "hunter2", Active: true, Secret: true})

	view := p.View()
	assert.NotContains(t, view, "hunter2")
}

func TestCollectionPane_NoCollectionIgnoresKeys(t *testing.T) {
	p := NewCollectionPane()
	p.SetSize(60, 20)
	p.Focus()

	assert.Nil(t, collRunes(p, "e"))
	assert.Nil(t, collKey(p, tea.KeyMsg{Type: tea.KeyCtrlS}))
}
