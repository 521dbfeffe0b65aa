package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"polyglot/internal/config"
	"polyglot/internal/model"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print every snapshot written to the sync key",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	closeLog, err := initLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SyncMode == config.SyncModeOff {
		cfg.SyncMode = config.SyncModeEvents
	}
	d, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	out := cmd.OutOrStdout()
	updates := make(chan model.Snapshot, 16)
	if err := d.transport.Subscribe(ctx, cfg.SyncKey, func(s model.Snapshot) {
		select {
		case updates <- s:
		case <-ctx.Done():
		}
	}); err != nil {
		return err
	}
	fmt.Fprintf(out, "watching %q\n", cfg.SyncKey)

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-updates:
			printSnapshot(out, d.languages, s)
		}
	}
}

func printSnapshot(out io.Writer, languages []string, s model.Snapshot) {
	fmt.Fprintf(out, "--- %d", s.Timestamp)
	if s.ActiveLanguage != "" {
		fmt.Fprintf(out, " typing in %s", config.LanguageName(s.ActiveLanguage))
	}
	fmt.Fprintln(out)

	printed := make(map[string]bool, len(s.Translations))
	for _, lang := range languages {
		if text, ok := s.Translations[lang]; ok {
			fmt.Fprintf(out, "%s: %s\n", config.LanguageName(lang), text)
			printed[lang] = true
		}
	}
	var rest []string
	for lang := range s.Translations {
		if !printed[lang] {
			rest = append(rest, lang)
		}
	}
	sort.Strings(rest)
	for _, lang := range rest {
		fmt.Fprintf(out, "%s: %s\n", config.LanguageName(lang), s.Translations[lang])
	}
}
