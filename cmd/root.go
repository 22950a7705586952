package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"metaviz/internal/config"
	"metaviz/internal/editor"
	"metaviz/internal/logging"
	"metaviz/internal/tui"
	"metaviz/internal/ui"
)

var version = "0.3.0"

var configPath string

// NewRootCmd builds the metaviz command tree. Without a subcommand it opens the
// terminal editor, optionally on the board file given as argument.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "metaviz [file]",
		Short: "metaviz - a diagram board editor",
		Long: ui.Brand.Sprint("metaviz") + " - draw boards of nodes and links in the terminal\n" +
			ui.Subtle.Sprint("Boards are saved as a replayable history of edits"),
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runEditor(file)
		},
	}
	root.SetVersionTemplate("metaviz {{ .Version }}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(
		exportCmd(),
		infoCmd(),
		configCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		ui.Bad.Fprintf(root.ErrOrStderr(), "metaviz: %v\n", err)
		return err
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// editorOptions maps the configuration onto the editor.
func editorOptions(cfg *config.Config, log *zap.Logger) editor.Options {
	return editor.Options{
		Logger:    log,
		Pointer:   cfg.Settings(),
		ZoomMin:   cfg.Zoom.Min,
		ZoomMax:   cfg.Zoom.Max,
		ZoomStep:  cfg.Zoom.Step,
		GridWidth: cfg.Grid.Width,
	}
}

func runEditor(file string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.Quiet(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	keys, err := cfg.Keymap()
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}

	opts := editorOptions(cfg, log)
	opts.Clipboard = editor.SystemClipboard{}
	m := tui.New(tui.Options{Editor: opts, Config: cfg, Keymap: keys, Logger: log})
	if file != "" {
		if err := m.Editor().Open(cfg.SavePath(file)); err != nil {
			return err
		}
	}
	log.Info("editor started", zap.String("file", file))

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// openBoard loads the board at path into a headless editor.
func openBoard(path string) (*editor.Editor, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.Quiet(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	e := editor.New(editorOptions(cfg, log))
	if err := e.Open(path); err != nil {
		return nil, nil, err
	}
	return e, cfg, nil
}
