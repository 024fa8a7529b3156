package views

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/interpolate"
	httpclient "github.com/valisehq/valise/internal/protocol/http"
	"github.com/valisehq/valise/internal/registry"
	"github.com/valisehq/valise/internal/tui"
	"github.com/valisehq/valise/internal/tui/components"
)

// Pane represents which pane is focused.
type Pane int

const (
	PaneSidebar Pane = iota
	PaneEditor
	PaneResponse
)

// editorKind selects which editing surface the middle pane shows.
type editorKind int

const (
	editorNone editorKind = iota
	editorCollection
	editorEndpoint
)

// promptKind selects what the status-bar prompt is asking for.
type promptKind int

const (
	promptOpen promptKind = iota
	promptNew
)

// MainView is the main three-pane view: the collection tree sidebar, one
// editing surface, and the response panel.
type MainView struct {
	width       int
	height      int
	focusedPane Pane

	tree           *components.CollectionTree
	collectionPane *components.CollectionPane
	endpointPane   *components.EndpointPane
	response       *components.ResponsePanel
	activeEditor   editorKind

	reg    *registry.Registry
	client *httpclient.Client

	showHelp     bool
	prompting    bool
	promptKind   promptKind
	promptBuffer string
	promptHint   string
	notification string
	notifyUntil  time.Time
}

// clearNotificationMsg is sent to clear the notification.
type clearNotificationMsg struct{}

// NewMainView creates a new main view wired to the given registry.
func NewMainView(reg *registry.Registry) *MainView {
	view := &MainView{
		tree:           components.NewCollectionTree(),
		collectionPane: components.NewCollectionPane(),
		endpointPane:   components.NewEndpointPane(),
		response:       components.NewResponsePanel(),
		focusedPane:    PaneSidebar,
		reg:            reg,
		client:         httpclient.NewClient(),
	}
	view.tree.Focus()
	return view
}

// Tree returns the sidebar component. The registry uses it as the root sink.
func (v *MainView) Tree() *components.CollectionTree {
	return v.tree
}

// CollectionPane returns the collection editing surface.
func (v *MainView) CollectionPane() *components.CollectionPane {
	return v.collectionPane
}

// EndpointPane returns the endpoint editing surface.
func (v *MainView) EndpointPane() *components.EndpointPane {
	return v.endpointPane
}

// ResponsePanel returns the response panel component.
func (v *MainView) ResponsePanel() *components.ResponsePanel {
	return v.response
}

// FocusedPane returns the currently focused pane.
func (v *MainView) FocusedPane() Pane {
	return v.focusedPane
}

// Prompting reports whether the open-collection path prompt is active.
func (v *MainView) Prompting() bool {
	return v.prompting
}

// Notification returns the current notification message.
func (v *MainView) Notification() string {
	return v.notification
}

// Init initializes the view.
func (v *MainView) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	if v.showHelp {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if keyMsg.Type == tea.KeyEsc || string(keyMsg.Runes) == "?" {
				v.showHelp = false
				return v, nil
			}
		}
		return v, nil
	}

	if v.prompting {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return v.handlePromptKey(keyMsg)
		}
		return v, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.updatePaneSizes()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case components.OpenCollectionMsg:
		v.collectionPane.SetCollection(msg.Collection)
		v.activeEditor = editorCollection
		v.focusPane(PaneEditor)
		return v, nil

	case components.OpenEndpointMsg:
		v.endpointPane.SetEndpoint(msg.Endpoint, msg.Collection)
		v.activeEditor = editorEndpoint
		v.focusPane(PaneEditor)
		return v, nil

	case components.OpenVariableMsg:
		// Variables are edited on the collection surface
		v.collectionPane.SetCollection(msg.Collection)
		v.activeEditor = editorCollection
		v.focusPane(PaneEditor)
		return v, nil

	case components.SendRequestMsg:
		v.response.SetLoading(true)
		v.focusPane(PaneResponse)
		return v, sendRequest(v.client, msg.Endpoint, msg.Collection)

	case components.ResponseReceivedMsg:
		v.response.SetResponse(msg.Response)
		return v, nil

	case components.RequestErrorMsg:
		v.response.SetError(msg.Err)
		return v, nil

	case components.SaveRequestedMsg:
		return v, v.saveCollection(msg.Collection)

	case components.CopyMsg:
		return v.handleCopy(msg.Content)

	case components.FeedbackMsg:
		return v, v.notify(msg.Message, msg.IsError)

	case clearNotificationMsg:
		if !time.Now().Before(v.notifyUntil) {
			v.notification = ""
		}
		return v, nil
	}

	return v.forwardToFocusedPane(msg)
}

func (v *MainView) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return v, tea.Quit
	}

	// While a pane is capturing text, forward everything
	if v.editing() {
		return v.forwardToFocusedPane(msg)
	}

	switch msg.Type {
	case tea.KeyTab:
		if v.focusedPane == PaneEditor {
			// The editor uses Tab for its own tab bar
			return v.forwardToFocusedPane(msg)
		}
		v.cycleFocus()
		return v, nil

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return v, tea.Quit
		case "?":
			v.showHelp = true
			return v, nil
		case "1":
			v.focusPane(PaneSidebar)
			return v, nil
		case "2":
			v.focusPane(PaneEditor)
			return v, nil
		case "3":
			v.focusPane(PaneResponse)
			return v, nil
		case "o":
			if v.focusedPane == PaneSidebar {
				v.prompting = true
				v.promptKind = promptOpen
				v.promptBuffer = ""
				v.promptHint = v.reg.LastOpenDirectory(context.Background())
				return v, nil
			}
		case "n":
			if v.focusedPane == PaneSidebar {
				v.prompting = true
				v.promptKind = promptNew
				v.promptBuffer = ""
				v.promptHint = v.reg.LastNewDirectory(context.Background())
				return v, nil
			}
		case "x":
			if v.focusedPane == PaneSidebar {
				return v, v.closeSelected()
			}
		}
	}

	return v.forwardToFocusedPane(msg)
}

// handlePromptKey drives the open-collection path prompt. Esc abandons the
// prompt without touching the registry.
func (v *MainView) handlePromptKey(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.prompting = false
		v.promptBuffer = ""
		return v, nil

	case tea.KeyEnter:
		path := strings.TrimSpace(v.promptBuffer)
		kind := v.promptKind
		v.prompting = false
		v.promptBuffer = ""
		if path == "" {
			return v, nil
		}
		if kind == promptNew {
			return v, v.createCollection(path)
		}
		return v, v.openCollection(path)

	case tea.KeyBackspace:
		if len(v.promptBuffer) > 0 {
			v.promptBuffer = v.promptBuffer[:len(v.promptBuffer)-1]
		}
		return v, nil

	case tea.KeySpace:
		v.promptBuffer += " "
		return v, nil

	case tea.KeyRunes:
		v.promptBuffer += string(msg.Runes)
		return v, nil
	}

	return v, nil
}

// openCollection adds the path to the registry and appends the loaded
// collection as a tree root.
func (v *MainView) openCollection(path string) tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := v.reg.Open(ctx, path); err != nil {
		if errors.Is(err, registry.ErrAlreadyOpened) {
			return v.notify("Collection is already open", true)
		}
		return v.notify("Open failed: "+err.Error(), true)
	}

	c, err := v.reg.LoadCollection(path)
	if err != nil {
		// Undo the registration so the set stays equal to the roots
		v.reg.Close(ctx, path)
		return v.notify("Open failed: "+err.Error(), true)
	}

	v.tree.AppendRoot(c)
	return v.notify("Opened "+c.Name(), false)
}

// createCollection writes a fresh empty collection file, named after its file
// base, and opens it like any other collection.
func (v *MainView) createCollection(path string) tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c := core.NewCollection(name)

	if err := v.reg.Create(ctx, path, c); err != nil {
		if errors.Is(err, registry.ErrAlreadyOpened) {
			return v.notify("Collection is already open", true)
		}
		return v.notify("Create failed: "+err.Error(), true)
	}

	v.tree.AppendRoot(c)
	return v.notify("Created "+c.Name(), false)
}

// closeSelected closes the collection under the sidebar cursor.
func (v *MainView) closeSelected() tea.Cmd {
	col := v.tree.SelectedCollection()
	if col == nil {
		return nil
	}

	path, ok := v.reg.PathFor(col)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := v.reg.Close(ctx, path); err != nil {
		return v.notify("Close failed: "+err.Error(), true)
	}
	v.detachEditors(col)
	return v.notify("Closed "+col.Name(), false)
}

// detachEditors clears editing surfaces that point into a closed collection.
func (v *MainView) detachEditors(col *core.Collection) {
	if v.collectionPane.Collection() == col {
		v.collectionPane.SetCollection(nil)
	}
	if ep := v.endpointPane.Endpoint(); ep != nil {
		for _, e := range col.Endpoints() {
			if e == ep {
				v.endpointPane.SetEndpoint(nil, nil)
				break
			}
		}
	}
}

// saveCollection persists a collection through the registry. A collection
// that has been closed in the meantime degrades to a notification.
func (v *MainView) saveCollection(col *core.Collection) tea.Cmd {
	path, ok := v.reg.PathFor(col)
	if !ok {
		return v.notify("Collection is no longer open", true)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := v.reg.Save(ctx, path, col)
	switch {
	case errors.Is(err, registry.ErrStaleReference):
		return v.notify("Collection is no longer open", true)
	case err != nil:
		return v.notify("Save failed: "+err.Error(), true)
	}
	return v.notify("Saved "+col.Name(), false)
}

func (v *MainView) handleCopy(content string) (tui.Component, tea.Cmd) {
	if err := clipboard.WriteAll(content); err != nil {
		return v, v.notify("Copy failed", true)
	}
	size := len(content)
	if size > 1024 {
		return v, v.notify(fmt.Sprintf("Copied %.1fKB", float64(size)/1024), false)
	}
	return v, v.notify(fmt.Sprintf("Copied %dB", size), false)
}

func (v *MainView) notify(message string, isError bool) tea.Cmd {
	if isError {
		v.notification = "✗ " + message
	} else {
		v.notification = "✓ " + message
	}
	v.notifyUntil = time.Now().Add(2 * time.Second)
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return clearNotificationMsg{}
	})
}

// editing reports whether any pane is capturing free text input.
func (v *MainView) editing() bool {
	return v.tree.IsSearching() ||
		v.collectionPane.Editing() ||
		v.endpointPane.Editing()
}

func (v *MainView) forwardToFocusedPane(msg tea.Msg) (tui.Component, tea.Cmd) {
	var cmd tea.Cmd

	switch v.focusedPane {
	case PaneSidebar:
		updated, c := v.tree.Update(msg)
		v.tree = updated.(*components.CollectionTree)
		cmd = c
	case PaneEditor:
		switch v.activeEditor {
		case editorEndpoint:
			updated, c := v.endpointPane.Update(msg)
			v.endpointPane = updated.(*components.EndpointPane)
			cmd = c
		default:
			updated, c := v.collectionPane.Update(msg)
			v.collectionPane = updated.(*components.CollectionPane)
			cmd = c
		}
	case PaneResponse:
		updated, c := v.response.Update(msg)
		v.response = updated.(*components.ResponsePanel)
		cmd = c
	}

	return v, cmd
}

func (v *MainView) cycleFocus() {
	v.focusPane(Pane((int(v.focusedPane) + 1) % 3))
}

func (v *MainView) focusPane(pane Pane) {
	v.tree.Blur()
	v.collectionPane.Blur()
	v.endpointPane.Blur()
	v.response.Blur()

	v.focusedPane = pane
	switch pane {
	case PaneSidebar:
		v.tree.Focus()
	case PaneEditor:
		switch v.activeEditor {
		case editorEndpoint:
			v.endpointPane.Focus()
		default:
			v.collectionPane.Focus()
		}
	case PaneResponse:
		v.response.Focus()
	}
}

func (v *MainView) updatePaneSizes() {
	if v.width == 0 || v.height == 0 {
		return
	}

	sidebarWidth := v.width * 25 / 100
	if sidebarWidth < 25 {
		sidebarWidth = 25
	}
	if sidebarWidth > 60 {
		sidebarWidth = 60
	}
	rightWidth := v.width - sidebarWidth

	// One line for the status bar
	totalHeight := v.height - 1
	if totalHeight < 2 {
		totalHeight = 2
	}

	editorHeight := totalHeight * 45 / 100
	if editorHeight < 8 {
		editorHeight = 8
	}
	responseHeight := totalHeight - editorHeight

	v.tree.SetSize(sidebarWidth, totalHeight)
	v.collectionPane.SetSize(rightWidth, editorHeight)
	v.endpointPane.SetSize(rightWidth, editorHeight)
	v.response.SetSize(rightWidth, responseHeight)
}

// View renders the view.
func (v *MainView) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}

	if v.showHelp {
		return v.renderHelp()
	}

	sidebar := v.tree.View()

	var editor string
	switch v.activeEditor {
	case editorEndpoint:
		editor = v.endpointPane.View()
	default:
		editor = v.collectionPane.View()
	}

	rightStack := lipgloss.JoinVertical(lipgloss.Left, editor, v.response.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, rightStack)

	return lipgloss.JoinVertical(lipgloss.Left, panes, v.renderStatusBar())
}

func (v *MainView) renderStatusBar() string {
	if v.prompting {
		promptStyle := lipgloss.NewStyle().
			Width(v.width).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("229"))
		label := "Open collection: "
		if v.promptKind == promptNew {
			label = "New collection: "
		}
		line := label + v.promptBuffer + "█"
		if v.promptBuffer == "" && v.promptHint != "" {
			line += "  (last: " + v.promptHint + ")"
		}
		return promptStyle.Render(line)
	}

	var items []string

	paneStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 1)
	paneName := "Collections"
	switch v.focusedPane {
	case PaneEditor:
		paneName = "Editor"
	case PaneResponse:
		paneName = "Response"
	}
	items = append(items, paneStyle.Render(paneName))

	countStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Padding(0, 1)
	items = append(items, countStyle.Render(fmt.Sprintf("%d open", len(v.reg.Paths()))))

	if v.notification != "" {
		notifyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true).
			Padding(0, 1)
		if strings.HasPrefix(v.notification, "✗") {
			notifyStyle = notifyStyle.Foreground(lipgloss.Color("160"))
		}
		items = append(items, notifyStyle.Render(v.notification))
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Padding(0, 1)
	helpHint := helpStyle.Render("o open  n new  x close  ? help  q quit")

	leftContent := strings.Join(items, " ")
	spacerWidth := v.width - lipgloss.Width(leftContent) - lipgloss.Width(helpHint)
	if spacerWidth < 0 {
		spacerWidth = 0
	}

	barStyle := lipgloss.NewStyle().
		Width(v.width).
		Background(lipgloss.Color("236"))

	return barStyle.Render(leftContent + strings.Repeat(" ", spacerWidth) + helpHint)
}

func (v *MainView) renderHelp() string {
	helpContent := []string{
		"╭─────────────────── Valise Help ────────────────────╮",
		"│                                                     │",
		"│  Navigation                                         │",
		"│    Tab                Cycle between panes           │",
		"│    1 / 2 / 3          Jump to pane                  │",
		"│    j / k              Move down/up                  │",
		"│    h / l              Collapse/Expand               │",
		"│    gg / G             Go to top/bottom              │",
		"│                                                     │",
		"│  Collections Pane                                   │",
		"│    o                  Open a collection file        │",
		"│    n                  New collection file           │",
		"│    x                  Close selected collection     │",
		"│    Enter              Open row in editor            │",
		"│    /                  Start search                  │",
		"│                                                     │",
		"│  Editor Pane                                        │",
		"│    e                  Edit field                    │",
		"│    a / d              Add / delete item             │",
		"│    Space              Toggle active flag            │",
		"│    Ctrl+S             Save collection               │",
		"│    Enter              Send request                  │",
		"│                                                     │",
		"│  Response Pane                                      │",
		"│    y                  Copy response body            │",
		"│    p                  Toggle pretty print           │",
		"│                                                     │",
		"│           Press ? or Esc to close                   │",
		"╰─────────────────────────────────────────────────────╯",
	}

	helpStyle := lipgloss.NewStyle().
		Width(v.width).
		Height(v.height).
		Align(lipgloss.Center, lipgloss.Center)

	return helpStyle.Render(strings.Join(helpContent, "\n"))
}

// Title returns the view title.
func (v *MainView) Title() string {
	return "Valise"
}

// Focused returns true if focused.
func (v *MainView) Focused() bool {
	return true
}

// Focus sets focus.
func (v *MainView) Focus() {}

// Blur removes focus.
func (v *MainView) Blur() {}

// SetSize sets dimensions.
func (v *MainView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.updatePaneSizes()
}

// Width returns the width.
func (v *MainView) Width() int {
	return v.width
}

// Height returns the height.
func (v *MainView) Height() int {
	return v.height
}

// sendRequest creates a tea.Cmd that executes an endpoint asynchronously,
// scoped to its collection's variables.
func sendRequest(client *httpclient.Client, ep *core.Endpoint, col *core.Collection) tea.Cmd {
	return func() tea.Msg {
		if ep == nil {
			return components.RequestErrorMsg{Err: fmt.Errorf("no endpoint selected")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := client.Send(ctx, ep, interpolate.FromCollection(col))
		if err != nil {
			return components.RequestErrorMsg{Err: err}
		}
		return components.ResponseReceivedMsg{Response: resp}
	}
}
