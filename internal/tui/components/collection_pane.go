package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/tui"
)

// CollectionPane displays and edits a collection's name and variables.
type CollectionPane struct {
	title      string
	focused    bool
	width      int
	height     int
	collection *core.Collection
	cursor     int // 0 = name row, then one row per variable
	editing    bool
	editBuffer string
}

// NewCollectionPane creates a new collection pane.
func NewCollectionPane() *CollectionPane {
	return &CollectionPane{
		title: "Collection",
	}
}

// SetCollection sets the collection to display.
func (p *CollectionPane) SetCollection(c *core.Collection) {
	p.collection = c
	p.cursor = 0
	p.editing = false
}

// Collection returns the displayed collection.
func (p *CollectionPane) Collection() *core.Collection {
	return p.collection
}

// Editing reports whether an inline edit is in progress.
func (p *CollectionPane) Editing() bool {
	return p.editing
}

// Init initializes the component.
func (p *CollectionPane) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (p *CollectionPane) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tui.FocusMsg:
		p.focused = true
		return p, nil

	case tui.BlurMsg:
		p.focused = false
		return p, nil

	case tea.KeyMsg:
		if !p.focused || p.collection == nil {
			return p, nil
		}
		if p.editing {
			return p.handleEditKey(msg)
		}
		return p.handleKeyMsg(msg)
	}

	return p, nil
}

func (p *CollectionPane) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlS:
		c := p.collection
		return p, func() tea.Msg {
			return SaveRequestedMsg{Collection: c}
		}

	case tea.KeySpace:
		p.toggleVariable()

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "j":
			p.cursor = MoveCursor(p.cursor, 1, p.rowCount())
		case "k":
			p.cursor = MoveCursor(p.cursor, -1, p.rowCount())
		case "e", "i":
			p.startEdit()
		case "a":
			p.collection.AddVariable(&core.KeyValueItem{Active: true})
			p.cursor = p.collection.VariableCount()
			p.startEdit()
		case "d":
			if p.cursor > 0 {
				p.collection.RemoveVariable(p.cursor - 1)
				if p.cursor > p.rowCount()-1 {
					p.cursor = p.rowCount() - 1
				}
			}
		case "s":
			p.toggleSecret()
		}
	}

	return p, nil
}

func (p *CollectionPane) handleEditKey(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		p.editing = false
		p.editBuffer = ""

	case tea.KeyEnter:
		p.commitEdit()

	case tea.KeyBackspace:
		if len(p.editBuffer) > 0 {
			p.editBuffer = p.editBuffer[:len(p.editBuffer)-1]
		}

	case tea.KeySpace:
		p.editBuffer += " "

	case tea.KeyRunes:
		p.editBuffer += string(msg.Runes)
	}

	return p, nil
}

func (p *CollectionPane) startEdit() {
	if p.cursor == 0 {
		p.editBuffer = p.collection.Name()
		p.editing = true
		return
	}
	if v, ok := p.collection.VariableAt(p.cursor - 1); ok {
		if v.Name == "" && v.Value == "" {
			p.editBuffer = ""
		} else {
			p.editBuffer = v.Name + "=" + v.Value
		}
		p.editing = true
	}
}

func (p *CollectionPane) commitEdit() {
	defer func() {
		p.editing = false
		p.editBuffer = ""
	}()

	if p.cursor == 0 {
		if name := strings.TrimSpace(p.editBuffer); name != "" {
			p.collection.SetName(name)
		}
		return
	}

	v, ok := p.collection.VariableAt(p.cursor - 1)
	if !ok {
		return
	}
	name, value, _ := strings.Cut(p.editBuffer, "=")
	v.Name = strings.TrimSpace(name)
	v.Value = strings.TrimSpace(value)
}

func (p *CollectionPane) toggleVariable() {
	if v, ok := p.collection.VariableAt(p.cursor - 1); ok {
		v.Active = !v.Active
	}
}

func (p *CollectionPane) toggleSecret() {
	if v, ok := p.collection.VariableAt(p.cursor - 1); ok {
		v.Secret = !v.Secret
	}
}

func (p *CollectionPane) rowCount() int {
	if p.collection == nil {
		return 0
	}
	return 1 + p.collection.VariableCount()
}

// View renders the component.
func (p *CollectionPane) View() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}

	innerWidth := p.width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	title := tui.RenderTitle(p.Title(), innerWidth, p.focused)

	if p.collection == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(innerWidth).
			Height(p.height-3).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color("240"))
		return p.wrapWithBorder(title + "\n" + emptyStyle.Render("No collection selected"))
	}

	var lines []string
	lines = append(lines, p.renderNameRow())
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Variables"))

	if p.collection.VariableCount() == 0 {
		lines = append(lines, "  none. Press 'a' to add one.")
	}
	for i, v := range p.collection.Variables() {
		lines = append(lines, p.renderVariableRow(i, v))
	}

	contentHeight := p.height - 4
	if contentHeight < 1 {
		contentHeight = 1
	}
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}
	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}

	return p.wrapWithBorder(title + "\n" + strings.Join(lines, "\n"))
}

func (p *CollectionPane) renderNameRow() string {
	name := p.collection.Name()
	if p.editing && p.cursor == 0 {
		name = p.editBuffer + "█"
	}
	prefix := "  "
	if p.cursor == 0 && p.focused {
		prefix = "> "
	}
	return fmt.Sprintf("%sName: %s", prefix, name)
}

func (p *CollectionPane) renderVariableRow(index int, v *core.KeyValueItem) string {
	prefix := "  "
	if p.cursor == index+1 && p.focused {
		prefix = "> "
	}
	mark := "[x]"
	if !v.Active {
		mark = "[ ]"
	}
	value := v.Value
	if v.Secret {
		value = strings.Repeat("•", 6)
	}
	if p.editing && p.cursor == index+1 {
		return fmt.Sprintf("%s%s %s█", prefix, mark, p.editBuffer)
	}
	return fmt.Sprintf("%s%s %s = %s", prefix, mark, v.Name, value)
}

func (p *CollectionPane) wrapWithBorder(content string) string {
	borderStyle := lipgloss.NewStyle().
		Width(p.width).
		Height(p.height).
		BorderStyle(lipgloss.RoundedBorder())

	if p.focused {
		borderStyle = borderStyle.BorderForeground(lipgloss.Color("62"))
	} else {
		borderStyle = borderStyle.BorderForeground(lipgloss.Color("240"))
	}

	return borderStyle.Render(content)
}

// Title returns the component title.
func (p *CollectionPane) Title() string {
	if p.collection != nil {
		return fmt.Sprintf("Collection: %s", p.collection.Name())
	}
	return p.title
}

// Focused returns true if focused.
func (p *CollectionPane) Focused() bool {
	return p.focused
}

// Focus sets the component as focused.
func (p *CollectionPane) Focus() {
	p.focused = true
}

// Blur removes focus.
func (p *CollectionPane) Blur() {
	p.focused = false
}

// SetSize sets dimensions.
func (p *CollectionPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Width returns the width.
func (p *CollectionPane) Width() int {
	return p.width
}

// Height returns the height.
func (p *CollectionPane) Height() int {
	return p.height
}
