package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360studio/actionmark/annotation"
	"github.com/c360studio/actionmark/classify"
	"github.com/c360studio/actionmark/config"
	"github.com/c360studio/actionmark/issuesync"
	"github.com/c360studio/actionmark/report"
	"github.com/c360studio/actionmark/rewrite"
	"github.com/c360studio/actionmark/scanner"
	"github.com/c360studio/actionmark/tracker"
)

// Process exit codes. Non-compliance takes precedence over missing
// references when both apply.
const (
	exitOK           = 0
	exitNonCompliant = 1
	exitMissingRefs  = 2
)

// Options control a single run.
type Options struct {
	Fix        bool
	Sync       bool
	Strict     bool
	ReportPath string
	Priorities []annotation.Priority
	Categories []annotation.Category
}

// App wires the pipeline stages together: scan, parse, classify, rewrite,
// synchronize, report.
type App struct {
	cfg    *config.Config
	opts   Options
	client tracker.Client
	logger *slog.Logger
	out    io.Writer
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, opts Options, client tracker.Client, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:    cfg,
		opts:   opts,
		client: client,
		logger: logger,
		out:    os.Stdout,
	}
}

// Run executes one full pass over the tree and returns the process exit
// code for it.
func (a *App) Run(ctx context.Context) (int, error) {
	sc := scanner.New(scanner.Options{
		Root:              a.cfg.Scan.Root,
		Extensions:        a.cfg.Scan.Extensions,
		ExcludeSubstrings: a.cfg.Scan.Exclude,
		ExcludeGlobs:      a.cfg.Scan.ExcludeGlobs,
	}, a.logger)

	matches, err := sc.Scan()
	if err != nil {
		return exitOK, fmt.Errorf("scan %s: %w", a.cfg.Scan.Root, err)
	}
	a.logger.Info("Scan complete", "root", a.cfg.Scan.Root, "markers", len(matches))

	var syncer *issuesync.Synchronizer
	if a.opts.Sync {
		syncer = issuesync.New(a.client, a.cfg.SyncThreshold(), a.cfg.Sync.LabelNamespace, a.logger)
		syncer.Probe(ctx)
	}

	rep := report.New(a.cfg.Scan.Root)

	// Markers are processed strictly in scanner order; issue creation for
	// one marker completes before the next begins.
	for _, m := range matches {
		ann := annotation.Parse(m.Location(), m.Text)

		if a.opts.Fix && !ann.Compliant {
			fixed, err := a.fix(ann)
			if err != nil {
				a.logger.Warn("Cannot rewrite marker",
					"location", ann.Location.String(),
					"error", err.Error())
			} else {
				ann = fixed
			}
		}

		if syncer != nil && syncer.Enabled() && a.selected(ann) && syncer.Eligible(ann) {
			synced, err := syncer.Sync(ctx, ann)
			if err != nil {
				rep.AddSyncFailure(ann.Location, err)
				a.logger.Warn("Issue synchronization failed",
					"location", ann.Location.String(),
					"error", err.Error())
			} else if synced.Reference != ann.Reference {
				if err := a.persist(synced); err != nil {
					// The issue exists but the line on disk does not
					// carry it; report the marker as it is on disk.
					rep.AddSyncFailure(ann.Location, fmt.Errorf("write reference back: %w", err))
					a.logger.Warn("Cannot write issue reference back",
						"location", ann.Location.String(),
						"error", err.Error())
				} else {
					ann = synced
				}
			}
		}

		rep.Add(ann)
	}

	if a.opts.ReportPath != "" {
		if err := rep.WriteFile(a.opts.ReportPath); err != nil {
			return exitOK, fmt.Errorf("write report: %w", err)
		}
		a.logger.Info("Report written", "path", a.opts.ReportPath)
	}

	a.printSummary(rep)

	return a.exitCode(rep), nil
}

// fix classifies a non-compliant marker and rewrites its line in canonical
// form. An existing issue reference on the line is preserved.
func (a *App) fix(ann annotation.Annotation) (annotation.Annotation, error) {
	style, err := rewrite.StyleForPath(ann.Location.File)
	if err != nil {
		return ann, err
	}

	fixed := ann
	fixed.Style = style
	fixed.Priority, fixed.Category = classify.Classify(ann.Description)
	fixed.Description = annotation.StripReference(ann.Description)

	// --priority/--category restrict which markers get rewritten; the
	// classified values decide, since a non-compliant marker has none of
	// its own yet.
	if !a.selected(fixed) {
		a.logger.Debug("Marker outside selection, left unchanged",
			"location", ann.Location.String(),
			"priority", string(fixed.Priority),
			"category", string(fixed.Category))
		return ann, nil
	}

	line, err := rewrite.Render(fixed)
	if err != nil {
		return ann, err
	}
	if err := a.replaceLine(fixed.Location, line); err != nil {
		return ann, err
	}

	fixed.RawText = line
	fixed.Compliant = true
	a.logger.Debug("Rewrote marker",
		"location", fixed.Location.String(),
		"priority", string(fixed.Priority),
		"category", string(fixed.Category))
	return fixed, nil
}

// persist writes a marker that gained an issue reference back to its file.
func (a *App) persist(ann annotation.Annotation) error {
	line, err := rewrite.Render(ann)
	if err != nil {
		return err
	}
	return a.replaceLine(ann.Location, line)
}

// selected reports whether a marker falls inside the --priority/--category
// restriction. An empty set leaves that axis unrestricted.
func (a *App) selected(ann annotation.Annotation) bool {
	if len(a.opts.Priorities) > 0 {
		found := false
		for _, p := range a.opts.Priorities {
			if ann.Priority == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(a.opts.Categories) > 0 {
		for _, c := range a.opts.Categories {
			if ann.Category == c {
				return true
			}
		}
		return false
	}
	return true
}

func (a *App) replaceLine(loc annotation.Location, line string) error {
	return rewrite.ReplaceLine(filepath.Join(a.cfg.Scan.Root, loc.File), loc.Line, line)
}

func (a *App) printSummary(rep *report.Report) {
	view := rep.Filter(a.opts.Priorities, a.opts.Categories)

	fmt.Fprintf(a.out, "%d markers scanned, %d compliant, %d non-compliant\n",
		rep.Total(), rep.CompliantCount(), rep.NonCompliantCount())
	for _, ann := range view {
		status := "ok"
		if !ann.Compliant {
			status = "NONCOMPLIANT"
		}
		fmt.Fprintf(a.out, "  %-13s %s  %s\n", status, ann.Location.String(), ann.Description)
	}
	if n := len(rep.SyncFailures()); n > 0 {
		fmt.Fprintf(a.out, "%d issue synchronization failure(s)\n", n)
	}
}

func (a *App) exitCode(rep *report.Report) int {
	if !a.opts.Strict {
		return exitOK
	}
	if rep.NonCompliantCount() > 0 {
		return exitNonCompliant
	}
	if a.opts.Sync && len(rep.MissingReferences(a.cfg.SyncThreshold())) > 0 {
		return exitMissingRefs
	}
	return exitOK
}
