// Package main provides the actionmark binary entry point.
// Actionmark manages inline TODO action markers: it discovers them,
// validates them against a canonical grammar, rewrites non-compliant
// markers in place, synchronizes high-priority markers with GitHub
// issues, and reports on the result.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/actionmark/annotation"
	"github.com/c360studio/actionmark/config"
	"github.com/c360studio/actionmark/tracker"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "actionmark"
)

// exitError carries a process exit code through cobra's error path.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(1)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintf(os.Stderr, "%s\n", ee.message)
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	directory  string
	logLevel   string
	fix        bool
	sync       bool
	strict     bool
	reportPath string
	priorities []string
	categories []string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Inline TODO action marker manager",
		Long: `Actionmark scans a source tree for TODO action markers, validates them
against the canonical format

    TODO [P<0-3>] (<CATEGORY>) (#<issue>): <description>

and reports compliance. With --fix, non-compliant markers are classified
heuristically and rewritten in place. With --github-issue-check, markers at
or above the priority threshold are synchronized with GitHub issues via the
gh CLI, and the created issue number is written back into the marker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVarP(&flags.directory, "directory", "d", "", "Directory to scan (default: git root or cwd)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.fix, "fix", false, "Rewrite non-compliant markers in place")
	pf.BoolVar(&flags.sync, "github-issue-check", false, "Synchronize eligible markers with GitHub issues")
	pf.BoolVar(&flags.strict, "strict", false, "Exit non-zero on residual non-compliance")
	pf.StringVar(&flags.reportPath, "report", "", "Write the Markdown report to this path")
	pf.StringSliceVar(&flags.priorities, "priority", nil, "Restrict report output to these priorities (repeatable)")
	pf.StringSliceVar(&flags.categories, "category", nil, "Restrict report output to these categories (repeatable)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	cmd.AddCommand(watchCmd(flags))
	cmd.AddCommand(docsCmd())

	return cmd
}

// setup configures logging, loads configuration, and resolves the run
// options shared by the scan and watch commands.
func setup(flags *rootFlags) (*config.Config, Options, *slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(flags.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(flags.configPath, logger)
	if err != nil {
		return nil, Options{}, nil, fmt.Errorf("load config: %w", err)
	}

	if flags.directory != "" {
		abs, err := filepath.Abs(flags.directory)
		if err != nil {
			return nil, Options{}, nil, fmt.Errorf("resolve directory: %w", err)
		}
		cfg.Scan.Root = abs
	}
	info, err := os.Stat(cfg.Scan.Root)
	if err != nil {
		return nil, Options{}, nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, Options{}, nil, fmt.Errorf("not a directory: %s", cfg.Scan.Root)
	}

	opts := Options{
		Fix:        flags.fix,
		Sync:       flags.sync,
		Strict:     flags.strict,
		ReportPath: flags.reportPath,
	}
	if opts.ReportPath == "" {
		opts.ReportPath = cfg.Report.Path
	}
	for _, s := range flags.priorities {
		p, err := annotation.ParsePriority(s)
		if err != nil {
			return nil, Options{}, nil, fmt.Errorf("--priority: %w", err)
		}
		opts.Priorities = append(opts.Priorities, p)
	}
	for _, s := range flags.categories {
		c, err := annotation.ParseCategory(s)
		if err != nil {
			return nil, Options{}, nil, fmt.Errorf("--category: %w", err)
		}
		opts.Categories = append(opts.Categories, c)
	}

	return cfg, opts, logger, nil
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		fileCfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg := config.DefaultConfig()
		cfg.Merge(fileCfg)
		if cfg.Scan.Root == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			cfg.Scan.Root = cwd
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.NewLoader(logger).Load()
}

func runScan(ctx context.Context, flags *rootFlags) error {
	cfg, opts, logger, err := setup(flags)
	if err != nil {
		return err
	}

	app := NewApp(cfg, opts, tracker.NewGHClient(cfg.Scan.Root), logger)
	code, err := app.Run(ctx)
	if err != nil {
		return err
	}
	return exitFor(code)
}

func exitFor(code int) error {
	switch code {
	case exitNonCompliant:
		return &exitError{code: code, message: "strict: non-compliant markers remain"}
	case exitMissingRefs:
		return &exitError{code: code, message: "strict: high-priority markers lack issue references"}
	default:
		return nil
	}
}
