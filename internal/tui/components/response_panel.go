package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/tui"
)

// ResponseTab represents the active tab in the response panel.
type ResponseTab int

const (
	ResponseTabBody ResponseTab = iota
	ResponseTabHeaders
)

var responseTabNames = []string{"Body", "Headers"}

// ResponsePanel displays the result of the last executed request.
type ResponsePanel struct {
	title        string
	focused      bool
	width        int
	height       int
	response     *core.Response
	activeTab    ResponseTab
	scrollOffset int
	loading      bool
	err          error
	gPressed     bool // For gg sequence
	prettyPrint  bool
}

// NewResponsePanel creates a new response panel.
func NewResponsePanel() *ResponsePanel {
	return &ResponsePanel{
		title:       "Response",
		activeTab:   ResponseTabBody,
		prettyPrint: true,
	}
}

// SetResponse sets the response to display and clears loading/error state.
func (p *ResponsePanel) SetResponse(resp *core.Response) {
	p.response = resp
	p.loading = false
	p.err = nil
	p.scrollOffset = 0
}

// Response returns the displayed response.
func (p *ResponsePanel) Response() *core.Response {
	return p.response
}

// SetLoading puts the panel in the loading state.
func (p *ResponsePanel) SetLoading(loading bool) {
	p.loading = loading
	if loading {
		p.err = nil
	}
}

// SetError puts the panel in the error state.
func (p *ResponsePanel) SetError(err error) {
	p.err = err
	p.loading = false
}

// Init initializes the component.
func (p *ResponsePanel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (p *ResponsePanel) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
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
		if !p.focused {
			return p, nil
		}
		return p.handleKeyMsg(msg)
	}

	return p, nil
}

func (p *ResponsePanel) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	pageSize := p.height - 6
	if pageSize < 1 {
		pageSize = 5
	}

	switch msg.Type {
	case tea.KeyPgUp, tea.KeyCtrlU:
		p.scrollOffset -= pageSize
		if p.scrollOffset < 0 {
			p.scrollOffset = 0
		}
		p.gPressed = false
		return p, nil

	case tea.KeyPgDown, tea.KeyCtrlD:
		p.scrollOffset += pageSize
		if max := p.maxScrollOffset(); p.scrollOffset > max {
			p.scrollOffset = max
		}
		p.gPressed = false
		return p, nil

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "[":
			p.prevTab()
			return p, nil
		case "]":
			p.nextTab()
			return p, nil
		case "j":
			if p.scrollOffset < p.maxScrollOffset() {
				p.scrollOffset++
			}
		case "k":
			if p.scrollOffset > 0 {
				p.scrollOffset--
			}
		case "y":
			if p.response == nil {
				return p, func() tea.Msg {
					return FeedbackMsg{Message: "No response to copy", IsError: true}
				}
			}
			content := string(p.response.Body())
			return p, func() tea.Msg {
				return CopyMsg{Content: content}
			}
		case "p":
			p.prettyPrint = !p.prettyPrint
			p.scrollOffset = 0
		case "G":
			p.scrollOffset = p.maxScrollOffset()
			p.gPressed = false
		case "g":
			if p.gPressed {
				p.scrollOffset = 0
				p.gPressed = false
			} else {
				p.gPressed = true
			}
			return p, nil
		default:
			p.gPressed = false
		}
	}

	return p, nil
}

func (p *ResponsePanel) nextTab() {
	p.activeTab = ResponseTab((int(p.activeTab) + 1) % len(responseTabNames))
	p.scrollOffset = 0
}

func (p *ResponsePanel) prevTab() {
	p.activeTab = ResponseTab((int(p.activeTab) - 1 + len(responseTabNames)) % len(responseTabNames))
	p.scrollOffset = 0
}

func (p *ResponsePanel) maxScrollOffset() int {
	lines := p.contentLines()
	visible := p.height - 6
	if visible < 1 {
		visible = 1
	}
	if len(lines) > visible {
		return len(lines) - visible
	}
	return 0
}

func (p *ResponsePanel) contentLines() []string {
	if p.response == nil {
		return nil
	}
	switch p.activeTab {
	case ResponseTabHeaders:
		var lines []string
		for _, h := range p.response.Headers() {
			lines = append(lines, fmt.Sprintf("%s: %s", h.Name, h.Value))
		}
		return lines
	default:
		return strings.Split(p.bodyText(), "\n")
	}
}

// bodyText returns the body, pretty-printed when it is JSON and the toggle is
// on.
func (p *ResponsePanel) bodyText() string {
	body := p.response.Body()
	if !p.prettyPrint || !isJSONContent(p.response.ContentType(), body) {
		return string(body)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

func isJSONContent(contentType string, body []byte) bool {
	if strings.Contains(contentType, "json") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// View renders the component.
func (p *ResponsePanel) View() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}

	innerWidth := p.width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	title := tui.RenderTitle(p.title, innerWidth, p.focused)

	if p.loading {
		return p.wrapWithBorder(title + "\n" + p.centered("Sending...", innerWidth, "214"))
	}
	if p.err != nil {
		return p.wrapWithBorder(title + "\n" + p.centered("Error: "+p.err.Error(), innerWidth, "196"))
	}
	if p.response == nil {
		return p.wrapWithBorder(title + "\n" + p.centered("No response yet", innerWidth, "240"))
	}

	statusLine := p.renderStatusLine()
	tabBar := p.renderTabBar()

	contentHeight := p.height - 6
	if contentHeight < 1 {
		contentHeight = 1
	}

	all := p.contentLines()
	var lines []string
	for i := p.scrollOffset; i < len(all) && len(lines) < contentHeight; i++ {
		lines = append(lines, tui.Truncate(all[i], innerWidth))
	}
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}

	content := title + "\n" + statusLine + "\n" + tabBar + "\n" + strings.Join(lines, "\n")
	return p.wrapWithBorder(content)
}

func (p *ResponsePanel) renderStatusLine() string {
	status := p.response.Status()

	var color string
	switch {
	case status.IsSuccess():
		color = "34"
	case status.IsError():
		color = "160"
	default:
		color = "214"
	}

	statusStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("255"))

	timing := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Render(fmt.Sprintf("  %s  %dB", p.response.Duration().Round(time.Millisecond), len(p.response.Body())))

	return statusStyle.Render(fmt.Sprintf("%d %s", status.Code(), status.Text())) + timing
}

func (p *ResponsePanel) renderTabBar() string {
	var tabs []string
	for i, name := range responseTabNames {
		style := lipgloss.NewStyle().Padding(0, 1)
		if ResponseTab(i) == p.activeTab {
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

func (p *ResponsePanel) centered(text string, width int, color string) string {
	h := p.height - 3
	if h < 1 {
		h = 1
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(h).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(lipgloss.Color(color)).
		Render(text)
}

func (p *ResponsePanel) wrapWithBorder(content string) string {
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
func (p *ResponsePanel) Title() string {
	return p.title
}

// Focused returns true if focused.
func (p *ResponsePanel) Focused() bool {
	return p.focused
}

// Focus sets the component as focused.
func (p *ResponsePanel) Focus() {
	p.focused = true
}

// Blur removes focus.
func (p *ResponsePanel) Blur() {
	p.focused = false
}

// SetSize sets dimensions.
func (p *ResponsePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Width returns the width.
func (p *ResponsePanel) Width() int {
	return p.width
}

// Height returns the height.
func (p *ResponsePanel) Height() int {
	return p.height
}

// ActiveTab returns the currently active tab.
func (p *ResponsePanel) ActiveTab() ResponseTab {
	return p.activeTab
}

// ScrollOffset returns the current scroll position.
func (p *ResponsePanel) ScrollOffset() int {
	return p.scrollOffset
}
