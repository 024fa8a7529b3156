package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/export"
	"github.com/valisehq/valise/internal/tui"
)

// EndpointTab represents the active tab in the endpoint pane.
type EndpointTab int

const (
	EndpointTabRequest EndpointTab = iota
	EndpointTabHeaders
	EndpointTabBody
)

var endpointTabNames = []string{"Request", "Headers", "Body"}

// Fields editable on the Request tab, by cursor position.
const (
	fieldMethod = 0
	fieldURL    = 1
)

// EndpointPane displays and edits one endpoint definition.
type EndpointPane struct {
	title      string
	focused    bool
	width      int
	height     int
	endpoint   *core.Endpoint
	collection *core.Collection
	activeTab  EndpointTab
	cursor     int
	editing    bool
	editBuffer string
}

// NewEndpointPane creates a new endpoint pane.
func NewEndpointPane() *EndpointPane {
	return &EndpointPane{
		title:     "Endpoint",
		activeTab: EndpointTabRequest,
	}
}

// SetEndpoint sets the endpoint to display, together with the collection it
// belongs to.
func (p *EndpointPane) SetEndpoint(ep *core.Endpoint, c *core.Collection) {
	p.endpoint = ep
	p.collection = c
	p.activeTab = EndpointTabRequest
	p.cursor = 0
	p.editing = false
}

// Endpoint returns the displayed endpoint.
func (p *EndpointPane) Endpoint() *core.Endpoint {
	return p.endpoint
}

// Editing reports whether an inline edit is in progress.
func (p *EndpointPane) Editing() bool {
	return p.editing
}

// ActiveTab returns the currently active tab.
func (p *EndpointPane) ActiveTab() EndpointTab {
	return p.activeTab
}

// Init initializes the component.
func (p *EndpointPane) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (p *EndpointPane) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
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
		if !p.focused || p.endpoint == nil {
			return p, nil
		}
		if p.editing {
			return p.handleEditKey(msg)
		}
		return p.handleKeyMsg(msg)
	}

	return p, nil
}

func (p *EndpointPane) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab:
		p.activeTab = EndpointTab((int(p.activeTab) + 1) % len(endpointTabNames))
		p.cursor = 0
	case tea.KeyShiftTab:
		p.activeTab = EndpointTab((int(p.activeTab) - 1 + len(endpointTabNames)) % len(endpointTabNames))
		p.cursor = 0

	case tea.KeyCtrlS:
		if p.collection != nil {
			c := p.collection
			return p, func() tea.Msg {
				return SaveRequestedMsg{Collection: c}
			}
		}

	case tea.KeyEnter:
		if p.activeTab == EndpointTabRequest {
			ep, c := p.endpoint, p.collection
			return p, func() tea.Msg {
				return SendRequestMsg{Endpoint: ep, Collection: c}
			}
		}

	case tea.KeySpace:
		p.toggleHeader()

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "j":
			p.moveCursor(1)
		case "k":
			p.moveCursor(-1)
		case "e", "i":
			p.startEdit()
		case "a":
			if p.activeTab == EndpointTabHeaders {
				p.endpoint.AddHeader(core.KeyValueItem{Active: true})
				p.cursor = p.endpoint.HeaderCount() - 1
				p.startEdit()
			}
		case "d":
			if p.activeTab == EndpointTabHeaders {
				if _, ok := p.endpoint.RemoveHeader(p.cursor); ok && p.cursor >= p.endpoint.HeaderCount() {
					p.cursor = p.endpoint.HeaderCount() - 1
					if p.cursor < 0 {
						p.cursor = 0
					}
				}
			}
		case "c":
			ep := p.endpoint
			return p, func() tea.Msg {
				return CopyMsg{Content: export.Curl(ep)}
			}
		}
	}

	return p, nil
}

func (p *EndpointPane) handleEditKey(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Abandon the edit, nothing is committed
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

func (p *EndpointPane) startEdit() {
	switch p.activeTab {
	case EndpointTabRequest:
		switch p.cursor {
		case fieldMethod:
			p.editBuffer = p.endpoint.Method()
		case fieldURL:
			p.editBuffer = p.endpoint.URL()
		}
		p.editing = true
	case EndpointTabHeaders:
		if h, ok := p.endpoint.HeaderAt(p.cursor); ok {
			if h.Name == "" && h.Value == "" {
				p.editBuffer = ""
			} else {
				p.editBuffer = h.Name + ": " + h.Value
			}
			p.editing = true
		}
	case EndpointTabBody:
		p.editBuffer = p.endpoint.BodyContent()
		p.editing = true
	}
}

func (p *EndpointPane) commitEdit() {
	defer func() {
		p.editing = false
		p.editBuffer = ""
	}()

	switch p.activeTab {
	case EndpointTabRequest:
		switch p.cursor {
		case fieldMethod:
			p.endpoint.SetMethod(strings.TrimSpace(p.editBuffer))
		case fieldURL:
			p.endpoint.SetURL(strings.TrimSpace(p.editBuffer))
		}
	case EndpointTabHeaders:
		h, ok := p.endpoint.HeaderAt(p.cursor)
		if !ok {
			return
		}
		name, value, _ := strings.Cut(p.editBuffer, ":")
		h.Name = strings.TrimSpace(name)
		h.Value = strings.TrimSpace(value)
		p.endpoint.SetHeaderAt(p.cursor, h)
	case EndpointTabBody:
		p.endpoint.SetBody(p.editBuffer, p.endpoint.BodyType())
	}
}

func (p *EndpointPane) toggleHeader() {
	if p.activeTab != EndpointTabHeaders {
		return
	}
	h, ok := p.endpoint.HeaderAt(p.cursor)
	if !ok {
		return
	}
	h.Active = !h.Active
	p.endpoint.SetHeaderAt(p.cursor, h)
}

func (p *EndpointPane) moveCursor(delta int) {
	p.cursor = MoveCursor(p.cursor, delta, p.cursorLimit())
}

func (p *EndpointPane) cursorLimit() int {
	switch p.activeTab {
	case EndpointTabRequest:
		return 2 // method, url
	case EndpointTabHeaders:
		return p.endpoint.HeaderCount()
	default:
		return 1
	}
}

// View renders the component.
func (p *EndpointPane) View() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}

	innerWidth := p.width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	title := tui.RenderTitle(p.Title(), innerWidth, p.focused)

	if p.endpoint == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(innerWidth).
			Height(p.height-3).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color("240"))
		return p.wrapWithBorder(title + "\n" + emptyStyle.Render("No endpoint selected"))
	}

	tabBar := p.renderTabBar()
	contentHeight := p.height - 5
	if contentHeight < 1 {
		contentHeight = 1
	}

	var lines []string
	switch p.activeTab {
	case EndpointTabRequest:
		lines = p.renderRequestTab()
	case EndpointTabHeaders:
		lines = p.renderHeadersTab()
	case EndpointTabBody:
		lines = p.renderBodyTab()
	}

	for len(lines) < contentHeight {
		lines = append(lines, "")
	}
	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}

	content := title + "\n" + tabBar + "\n" + strings.Join(lines, "\n")
	return p.wrapWithBorder(content)
}

func (p *EndpointPane) renderTabBar() string {
	var tabs []string
	for i, name := range endpointTabNames {
		style := lipgloss.NewStyle().Padding(0, 1)
		if EndpointTab(i) == p.activeTab {
			if p.focused {
				style = style.
					Background(lipgloss.Color("62")).
					Foreground(lipgloss.Color("229")).
					Bold(true)
			} else {
				style = style.
					Background(lipgloss.Color("240")).
					Bold(true)
			}
		}
		tabs = append(tabs, style.Render(name))
	}
	return strings.Join(tabs, " ")
}

func (p *EndpointPane) renderRequestTab() []string {
	fields := []struct {
		label string
		value string
	}{
		{"Method", p.endpoint.Method()},
		{"URL", p.endpoint.URL()},
	}

	var lines []string
	for i, f := range fields {
		value := f.value
		if p.editing && p.cursor == i {
			value = p.editBuffer + "█"
		}
		prefix := "  "
		if p.cursor == i && p.focused {
			prefix = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%s: %s", prefix, f.label, value))
	}
	lines = append(lines, "", "Enter sends the request")
	return lines
}

func (p *EndpointPane) renderHeadersTab() []string {
	if p.endpoint.HeaderCount() == 0 {
		return []string{"No headers. Press 'a' to add one."}
	}

	var lines []string
	for i, h := range p.endpoint.Headers() {
		prefix := "  "
		if i == p.cursor && p.focused {
			prefix = "> "
		}
		mark := "[x]"
		if !h.Active {
			mark = "[ ]"
		}
		line := fmt.Sprintf("%s%s %s: %s", prefix, mark, h.Name, h.Value)
		if p.editing && i == p.cursor {
			line = fmt.Sprintf("%s%s %s█", prefix, mark, p.editBuffer)
		}
		lines = append(lines, line)
	}
	return lines
}

func (p *EndpointPane) renderBodyTab() []string {
	body := p.endpoint.BodyContent()
	if p.editing {
		body = p.editBuffer + "█"
	}
	if body == "" {
		return []string{"No body. Press 'e' to edit."}
	}
	lines := strings.Split(body, "\n")
	if bt := p.endpoint.BodyType(); bt != "" {
		lines = append([]string{fmt.Sprintf("type: %s", bt), ""}, lines...)
	}
	return lines
}

func (p *EndpointPane) wrapWithBorder(content string) string {
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
func (p *EndpointPane) Title() string {
	if p.endpoint != nil {
		return fmt.Sprintf("%s %s", p.endpoint.Method(), p.endpoint.Name())
	}
	return p.title
}

// Focused returns true if focused.
func (p *EndpointPane) Focused() bool {
	return p.focused
}

// Focus sets the component as focused.
func (p *EndpointPane) Focus() {
	p.focused = true
}

// Blur removes focus.
func (p *EndpointPane) Blur() {
	p.focused = false
}

// SetSize sets dimensions.
func (p *EndpointPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Width returns the width.
func (p *EndpointPane) Width() int {
	return p.width
}

// Height returns the height.
func (p *EndpointPane) Height() int {
	return p.height
}
