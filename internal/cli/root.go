package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/valisehq/valise/internal/core"
	"github.com/valisehq/valise/internal/registry"
	settingsdb "github.com/valisehq/valise/internal/settings/sqlite"
	"github.com/valisehq/valise/internal/storage/filesystem"
	"github.com/valisehq/valise/internal/tui/views"
)

// fsCodec adapts the filesystem package to the registry's Codec interface.
type fsCodec struct{}

func (fsCodec) OpenCollection(path string) (*core.Collection, error) {
	return filesystem.OpenCollection(path)
}

func (fsCodec) SaveCollection(path string, c *core.Collection) error {
	return filesystem.SaveCollection(path, c)
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:     "valise",
		Short:   "Valise - a TUI API client organized around collection files",
		Long:    "Valise is a TUI API client. Collections of endpoints live in YAML files; the set of open collections survives restarts.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(dataDir)
		},
	}

	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for application state (default: user config dir)")

	cmd.AddCommand(NewSendCommand())

	return cmd
}

// tuiModel wraps the MainView for bubbletea.
type tuiModel struct {
	view *views.MainView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}

// resolveDataDir returns the directory holding the settings database,
// creating it if needed.
func resolveDataDir(dataDir string) (string, error) {
	if dataDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate config dir: %w", err)
		}
		dataDir = filepath.Join(configDir, "valise")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}
	return dataDir, nil
}

// runTUI wires the settings store, registry and view together and starts the
// TUI application.
func runTUI(dataDir string) error {
	dir, err := resolveDataDir(dataDir)
	if err != nil {
		return err
	}

	store, err := settingsdb.New(filepath.Join(dir, "settings.db"))
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	defer store.Close()

	reg := registry.New(store, fsCodec{}, nil)
	view := views.NewMainView(reg)
	reg.SetSink(view.Tree())

	// Restore the open collections from the previous session. Unreadable
	// paths are dropped; that is not fatal on startup.
	if err := reg.Resync(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	p := tea.NewProgram(tuiModel{view: view}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
