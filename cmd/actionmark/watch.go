package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/actionmark/scanner"
	"github.com/c360studio/actionmark/tracker"
)

func watchCmd(flags *rootFlags) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the scan whenever watched files change",
		Long: `Watch runs an initial scan, then monitors the tree and re-runs the full
pipeline after each burst of file changes. Runs never overlap; each one
processes markers strictly in order. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, logger, err := setup(flags)
			if err != nil {
				return err
			}
			// Exit codes are a per-run signal; a long-running watch
			// reports problems through the log instead.
			opts.Strict = false

			app := NewApp(cfg, opts, tracker.NewGHClient(cfg.Scan.Root), logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runOnce := func(ctx context.Context) {
				if _, err := app.Run(ctx); err != nil {
					logger.Error("Run failed", "error", err.Error())
				}
			}
			runOnce(ctx)

			w, err := scanner.NewWatcher(scanner.Options{
				Root:              cfg.Scan.Root,
				Extensions:        cfg.Scan.Extensions,
				ExcludeSubstrings: cfg.Scan.Exclude,
				ExcludeGlobs:      cfg.Scan.ExcludeGlobs,
			}, debounce, logger)
			if err != nil {
				return err
			}

			if err := w.Run(ctx, runOnce); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before a rescan")

	return cmd
}
