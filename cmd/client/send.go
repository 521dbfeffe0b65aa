package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"polyglot/internal/collab"
	"polyglot/internal/config"
)

var sendFrom string

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Translate text once, share it with the session and print every column",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendFrom, "from", "english", "language the text is written in")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	closeLog, err := initLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout*2)
	defer cancel()

	d, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	var failure *collab.Notice
	sessionOpts := d.options(cfg)
	sessionOpts.IdleTimeout = -1
	sessionOpts.OnNotice = func(n collab.Notice) {
		if n.Kind != collab.NoticeConfiguration && failure == nil {
			failure = &n
		}
	}
	session, err := collab.New(sessionOpts)
	if err != nil {
		return err
	}
	defer session.Close()
	if d.transport != nil {
		if err := session.Start(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "warning:", err)
		}
	}

	session.Submit(sendFrom, strings.Join(args, " "))
	if err := session.Flush(ctx); err != nil {
		return fmt.Errorf("waiting for translation: %w", err)
	}

	// Notices are delivered on the session goroutine; Columns orders this
	// read after them.
	columns := session.Columns()
	if failure != nil {
		return fmt.Errorf("%s", failure.String())
	}
	out := cmd.OutOrStdout()
	for _, c := range columns {
		fmt.Fprintf(out, "%s: %s\n", config.LanguageName(c.Language), c.Text)
	}
	return nil
}
