package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"polyglot/internal/collab"
	"polyglot/internal/config"
	"polyglot/internal/logger"
	"polyglot/internal/tui"
)

type flags struct {
	server    string
	key       string
	mode      string
	languages string
	device    string
	logFile   string
	embedded  bool
}

var opts flags

var rootCmd = &cobra.Command{
	Use:   "polyglot",
	Short: "Type in one language, read along in the others",
	Long: `Polyglot shows one column per language. Whatever is typed into the
selected column is translated into every other column, and every device
joined to the same sync key sees the same text.`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.server, "server", "", "server URL (POLYGLOT_SERVER_URL)")
	pf.StringVar(&opts.key, "key", "", "sync key shared by collaborating devices (POLYGLOT_SYNC_KEY)")
	pf.StringVar(&opts.mode, "sync", "", "sync mode: events, poll or off (POLYGLOT_SYNC_MODE)")
	pf.StringVar(&opts.languages, "languages", "", "comma-separated columns; defaults to the server's")
	pf.StringVar(&opts.device, "device", "", "device id; random when empty")
	pf.StringVar(&opts.logFile, "log-file", "", "write logs to this file (POLYGLOT_LOG_FILE)")
	pf.BoolVar(&opts.embedded, "embedded", false, "run translation and sync in-process instead of against a server")

	rootCmd.AddCommand(sendCmd, watchCmd)
}

// Execute runs the root command.
func Execute() error {
	rootCmd.Version = config.AppVersion
	return rootCmd.Execute()
}

// loadConfig merges flags over the environment.
func loadConfig(cmd *cobra.Command) config.ClientConfig {
	cfg := config.LoadClient()
	if opts.server != "" {
		cfg.ServerURL = opts.server
	}
	if opts.key != "" {
		cfg.SyncKey = opts.key
	}
	if opts.mode != "" {
		cfg.SyncMode = opts.mode
	}
	if opts.logFile != "" {
		cfg.LogFile = opts.logFile
	}
	if cmd.Flags().Changed("languages") {
		cfg.Languages = config.ParseLanguages(opts.languages)
		cfg.LanguagesSet = true
	}
	return cfg
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	closeLog, err := initLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	d, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	hooks := tui.NewHooks(d.languages)
	sessionOpts := d.options(cfg)
	hooks.Apply(&sessionOpts)

	session, err := collab.New(sessionOpts)
	if err != nil {
		return err
	}
	defer session.Close()

	if d.transport == nil {
		logger.Info("sync off", "module", "client", "action", "subscribe", "resource", "sync", "result", "skipped")
	} else if err := session.Start(ctx); err != nil {
		logger.Warn("starting without sync", "module", "client", "action", "subscribe", "resource", "sync", "result", "failed", "error", err)
	}

	mode := cfg.SyncMode
	if opts.embedded {
		mode = "embedded"
	}
	p := tea.NewProgram(tui.New(session, hooks, tui.Info{Key: cfg.SyncKey, Mode: mode}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}

// initLogger sends logs to the configured file, or to fallback when there is
// none. A nil fallback discards them: the terminal UI owns the screen.
func initLogger(cfg config.ClientConfig, fallback *os.File) (func(), error) {
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogFile == "" {
		if fallback == nil {
			logger.Discard()
		} else {
			logger.InitWriter(level, fallback)
		}
		return func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.InitWriter(level, f)
	return func() { _ = f.Close() }, nil
}
