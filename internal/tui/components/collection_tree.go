package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/tui"
)

// OpenCollectionMsg is sent when a collection row is activated.
type OpenCollectionMsg struct {
	Collection *core.Collection
}

// OpenEndpointMsg is sent when an endpoint row is activated.
type OpenEndpointMsg struct {
	Endpoint   *core.Endpoint
	Collection *core.Collection
}

// OpenVariableMsg is sent when a variable row is activated.
type OpenVariableMsg struct {
	Variable   *core.KeyValueItem
	Collection *core.Collection
}

// ExpandToggledMsg is sent after a root's expand state changes.
type ExpandToggledMsg struct {
	Collection *core.Collection
	Expanded   bool
}

// CollectionTree displays the open collections as an expandable tree.
// It implements registry.RootSink so the registry can resynchronize the
// displayed roots after open/close.
type CollectionTree struct {
	title        string
	focused      bool
	width        int
	height       int
	cursor       int
	offset       int // For scrolling
	forest       *Forest
	filteredRows []Row // Rows after search filter, nil when search is empty
	search       string
	searching    bool // True when in search mode
	gPressed     bool // For gg sequence
}

// NewCollectionTree creates a new collection tree component.
func NewCollectionTree() *CollectionTree {
	return &CollectionTree{
		title:  "Collections",
		forest: NewForest(),
	}
}

// SetRoots replaces the displayed roots. Implements registry.RootSink.
func (c *CollectionTree) SetRoots(cols []*core.Collection) {
	c.forest.SetRoots(cols)
	c.filteredRows = nil
	c.search = ""
	rows := c.forest.Rows()
	if c.cursor >= len(rows) {
		c.cursor = len(rows) - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
	c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
}

// AppendRoot adds a collection as a trailing collapsed root.
func (c *CollectionTree) AppendRoot(col *core.Collection) {
	c.forest.AppendRoot(col)
}

// Roots returns the displayed root sequence in order.
func (c *CollectionTree) Roots() []*core.Collection {
	return c.forest.Roots()
}

// Forest returns the underlying projection.
func (c *CollectionTree) Forest() *Forest {
	return c.forest
}

// IsSearching returns true while the search prompt is active.
func (c *CollectionTree) IsSearching() bool {
	return c.searching
}

// Init initializes the component.
func (c *CollectionTree) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (c *CollectionTree) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
		return c, nil

	case tui.FocusMsg:
		c.focused = true
		return c, nil

	case tui.BlurMsg:
		c.focused = false
		return c, nil

	case tea.KeyMsg:
		if !c.focused {
			return c, nil
		}
		return c.handleKeyMsg(msg)
	}

	return c, nil
}

func (c *CollectionTree) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if c.searching {
		return c.handleSearchInput(msg)
	}

	switch msg.Type {
	case tea.KeyEsc:
		if c.search != "" {
			c.search = ""
			c.filteredRows = nil
			c.cursor = 0
			c.offset = 0
		}
		c.gPressed = false
		return c, nil

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "/":
			c.searching = true
			c.search = ""
			c.gPressed = false
			return c, nil
		case "j":
			c.moveCursor(1)
		case "k":
			c.moveCursor(-1)
		case "l":
			return c, c.expandCurrent()
		case "h":
			return c, c.collapseCurrent()
		case "G":
			rows := c.displayRows()
			if len(rows) > 0 {
				c.cursor = len(rows) - 1
				c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
			}
			c.gPressed = false
		case "g":
			if c.gPressed {
				c.cursor = 0
				c.offset = 0
				c.gPressed = false
			} else {
				c.gPressed = true
			}
			return c, nil
		default:
			c.gPressed = false
		}

	case tea.KeySpace:
		c.gPressed = false
		return c, c.toggleCurrent()

	case tea.KeyEnter:
		c.gPressed = false
		return c.handleEnter()
	}

	c.gPressed = false
	return c, nil
}

func (c *CollectionTree) handleSearchInput(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Exit search mode but keep filter
		c.searching = false
		return c, nil

	case tea.KeyEnter:
		c.searching = false
		return c, nil

	case tea.KeyBackspace:
		if len(c.search) > 0 {
			c.search = c.search[:len(c.search)-1]
			c.applyFilter()
		}
		return c, nil

	case tea.KeyCtrlU:
		c.search = ""
		c.applyFilter()
		return c, nil

	case tea.KeySpace:
		c.search += " "
		c.applyFilter()
		return c, nil

	case tea.KeyRunes:
		c.search += string(msg.Runes)
		c.applyFilter()
		return c, nil
	}

	return c, nil
}

// handleEnter activates the row under the cursor, dispatching on the node
// variant. A row whose backing node has gone away activates as a no-op.
func (c *CollectionTree) handleEnter() (tui.Component, tea.Cmd) {
	rows := c.displayRows()
	if c.cursor < 0 || c.cursor >= len(rows) {
		return c, nil
	}

	row := rows[c.cursor]
	if !row.Node.Bound() {
		return c, nil
	}

	switch row.Node.Kind {
	case NodeCollection:
		col := row.Node.Collection
		return c, func() tea.Msg {
			return OpenCollectionMsg{Collection: col}
		}
	case NodeEndpoint:
		ep := row.Node.Endpoint
		owner := c.ownerOf(row.Node)
		return c, func() tea.Msg {
			return OpenEndpointMsg{Endpoint: ep, Collection: owner}
		}
	case NodeVariable:
		v := row.Node.Variable
		owner := c.ownerOf(row.Node)
		return c, func() tea.Msg {
			return OpenVariableMsg{Variable: v, Collection: owner}
		}
	}

	return c, nil
}

// ownerOf finds the root collection that owns a leaf node.
func (c *CollectionTree) ownerOf(n Node) *core.Collection {
	for _, col := range c.forest.Roots() {
		switch n.Kind {
		case NodeEndpoint:
			for _, e := range col.Endpoints() {
				if e == n.Endpoint {
					return col
				}
			}
		case NodeVariable:
			for _, v := range col.Variables() {
				if v == n.Variable {
					return col
				}
			}
		}
	}
	return nil
}

// SelectedCollection returns the collection owning the row under the cursor,
// or nil when nothing is selected.
func (c *CollectionTree) SelectedCollection() *core.Collection {
	row, ok := c.currentRow()
	if !ok {
		return nil
	}
	if row.Node.Kind == NodeCollection {
		return row.Node.Collection
	}
	return c.ownerOf(row.Node)
}

func (c *CollectionTree) moveCursor(delta int) {
	rows := c.displayRows()
	c.cursor = MoveCursor(c.cursor, delta, len(rows))
	c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
}

func (c *CollectionTree) expandCurrent() tea.Cmd {
	row, ok := c.currentRow()
	if !ok || row.Node.Kind != NodeCollection || !row.Expandable || row.Expanded {
		return nil
	}
	col := row.Node.Collection
	c.forest.Expand(col)
	c.refilter()
	return func() tea.Msg {
		return ExpandToggledMsg{Collection: col, Expanded: true}
	}
}

func (c *CollectionTree) collapseCurrent() tea.Cmd {
	row, ok := c.currentRow()
	if !ok || row.Node.Kind != NodeCollection || !row.Expanded {
		return nil
	}
	col := row.Node.Collection
	c.forest.Collapse(col)
	c.refilter()
	return func() tea.Msg {
		return ExpandToggledMsg{Collection: col, Expanded: false}
	}
}

func (c *CollectionTree) toggleCurrent() tea.Cmd {
	row, ok := c.currentRow()
	if !ok || row.Node.Kind != NodeCollection {
		return nil
	}
	if row.Expanded {
		return c.collapseCurrent()
	}
	return c.expandCurrent()
}

func (c *CollectionTree) currentRow() (Row, bool) {
	rows := c.displayRows()
	if c.cursor < 0 || c.cursor >= len(rows) {
		return Row{}, false
	}
	return rows[c.cursor], true
}

// displayRows returns the rows to display (filtered or all).
func (c *CollectionTree) displayRows() []Row {
	if c.search == "" {
		return c.forest.Rows()
	}
	return c.filteredRows
}

func (c *CollectionTree) applyFilter() {
	if c.search == "" {
		c.filteredRows = nil
		return
	}
	c.filteredRows = FilterRowsBySearch(c.forest.Rows(), c.search)
	c.cursor = 0
	c.offset = 0
}

// refilter reapplies the active search after an expand state change.
func (c *CollectionTree) refilter() {
	if c.search != "" {
		c.filteredRows = FilterRowsBySearch(c.forest.Rows(), c.search)
	}
}

// contentHeight returns the height available for rows.
func (c *CollectionTree) contentHeight() int {
	// borders (2) + title (1) + search bar (1)
	h := c.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the component.
func (c *CollectionTree) View() string {
	if c.width == 0 || c.height == 0 {
		return ""
	}

	innerWidth := c.width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	var parts []string
	parts = append(parts, tui.RenderTitle(c.title, innerWidth, c.focused))
	parts = append(parts, c.renderSearchBar(innerWidth))

	rows := c.displayRows()
	contentHeight := c.contentHeight()
	var lines []string
	for i := c.offset; i < len(rows) && len(lines) < contentHeight; i++ {
		lines = append(lines, c.renderRow(rows[i], i == c.cursor, innerWidth))
	}
	emptyLine := strings.Repeat(" ", innerWidth)
	for len(lines) < contentHeight {
		lines = append(lines, emptyLine)
	}
	parts = append(parts, lines...)

	borderStyle := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder())
	if c.focused {
		borderStyle = borderStyle.BorderForeground(lipgloss.Color("62"))
	} else {
		borderStyle = borderStyle.BorderForeground(lipgloss.Color("244"))
	}

	return borderStyle.Render(strings.Join(parts, "\n"))
}

func (c *CollectionTree) renderSearchBar(width int) string {
	style := lipgloss.NewStyle().Width(width).Foreground(lipgloss.Color("243"))
	if c.searching {
		style = style.Foreground(lipgloss.Color("229"))
		return style.Render("/" + c.search + "█")
	}
	if c.search != "" {
		return style.Render("/" + c.search)
	}
	return style.Render(" ")
}

func (c *CollectionTree) renderRow(row Row, selected bool, width int) string {
	indent := strings.Repeat("  ", row.Depth)

	var line string
	switch row.Node.Kind {
	case NodeCollection:
		glyph := "  "
		if row.Expandable {
			if row.Expanded {
				glyph = "▾ "
			} else {
				glyph = "▸ "
			}
		}
		line = indent + glyph + row.Node.Label()
	case NodeEndpoint:
		badge := methodBadge(row.Node.Endpoint.Method())
		line = indent + badge + " " + row.Node.Label()
	case NodeVariable:
		line = indent + "· " + row.Node.Label()
	}

	line = tui.Truncate(line, width)
	if lipgloss.Width(line) < width {
		line += strings.Repeat(" ", width-lipgloss.Width(line))
	}

	style := lipgloss.NewStyle()
	if selected {
		if c.focused {
			style = style.
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("229"))
		} else {
			style = style.
				Background(lipgloss.Color("238")).
				Foreground(lipgloss.Color("252"))
		}
	}

	return style.Render(line)
}

// methodBadge renders an HTTP method with its conventional color.
func methodBadge(method string) string {
	var color string
	switch method {
	case "GET":
		color = "34" // Green
	case "POST":
		color = "214" // Orange
	case "PUT":
		color = "33" // Blue
	case "PATCH":
		color = "135" // Purple
	case "DELETE":
		color = "160" // Red
	default:
		color = "245"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(method)
}

// Title returns the component title.
func (c *CollectionTree) Title() string {
	return c.title
}

// Focused returns true if focused.
func (c *CollectionTree) Focused() bool {
	return c.focused
}

// Focus sets the component as focused.
func (c *CollectionTree) Focus() {
	c.focused = true
}

// Blur removes focus.
func (c *CollectionTree) Blur() {
	c.focused = false
}

// SetSize sets dimensions.
func (c *CollectionTree) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the width.
func (c *CollectionTree) Width() int {
	return c.width
}

// Height returns the height.
func (c *CollectionTree) Height() int {
	return c.height
}

// Cursor returns the current cursor position.
func (c *CollectionTree) Cursor() int {
	return c.cursor
}

// RowCount returns the number of visible rows.
func (c *CollectionTree) RowCount() int {
	return len(c.displayRows())
}
