// Package report aggregates scanned annotations into a compliance report
// and renders it as structured Markdown.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/actionmark/annotation"
)

// Violation is one non-compliant annotation recorded for the report.
type Violation struct {
	Location annotation.Location
	RawText  string
}

// SyncFailure records a per-annotation synchronization error.
type SyncFailure struct {
	Location annotation.Location
	Reason   string
}

// Report accumulates every annotation seen during one run. It is created
// fresh per invocation and never mutated after rendering begins; filters
// produce views without altering accumulated data.
type Report struct {
	// RunID uniquely identifies the run that produced this report.
	RunID string

	// Root is the scanned directory.
	Root string

	// GeneratedAt is when the report was created.
	GeneratedAt time.Time

	annotations  []annotation.Annotation
	violations   []Violation
	syncFailures []SyncFailure
}

// New creates an empty report for the given scan root.
func New(root string) *Report {
	return &Report{
		RunID:       uuid.New().String(),
		Root:        root,
		GeneratedAt: time.Now(),
	}
}

// Add records an annotation. Every annotation is kept, compliant or not.
func (r *Report) Add(a annotation.Annotation) {
	r.annotations = append(r.annotations, a)
	if !a.Compliant {
		r.violations = append(r.violations, Violation{Location: a.Location, RawText: a.RawText})
	}
}

// AddSyncFailure records a synchronization failure for one annotation.
func (r *Report) AddSyncFailure(loc annotation.Location, err error) {
	r.syncFailures = append(r.syncFailures, SyncFailure{Location: loc, Reason: err.Error()})
}

// Annotations returns all recorded annotations in scan order.
func (r *Report) Annotations() []annotation.Annotation {
	return r.annotations
}

// Violations returns the recorded grammar violations in scan order.
func (r *Report) Violations() []Violation {
	return r.violations
}

// SyncFailures returns the recorded synchronization failures.
func (r *Report) SyncFailures() []SyncFailure {
	return r.syncFailures
}

// Total returns the number of annotations seen.
func (r *Report) Total() int {
	return len(r.annotations)
}

// CompliantCount returns how many annotations match the canonical grammar.
func (r *Report) CompliantCount() int {
	n := 0
	for _, a := range r.annotations {
		if a.Compliant {
			n++
		}
	}
	return n
}

// NonCompliantCount returns how many annotations violate the grammar.
func (r *Report) NonCompliantCount() int {
	return r.Total() - r.CompliantCount()
}

// ByPriority returns the per-priority histogram.
func (r *Report) ByPriority() map[annotation.Priority]int {
	hist := make(map[annotation.Priority]int)
	for _, a := range r.annotations {
		hist[a.Priority]++
	}
	return hist
}

// ByCategory returns the per-category histogram.
func (r *Report) ByCategory() map[annotation.Category]int {
	hist := make(map[annotation.Category]int)
	for _, a := range r.annotations {
		hist[a.Category]++
	}
	return hist
}

// MissingReferences returns annotations at or above the given priority that
// carry no external reference. Used for the strict-mode sync exit code.
func (r *Report) MissingReferences(threshold annotation.Priority) []annotation.Annotation {
	var missing []annotation.Annotation
	for _, a := range r.annotations {
		if a.Priority.Specified() && a.Priority.Rank() <= threshold.Rank() && !a.HasReference() {
			missing = append(missing, a)
		}
	}
	return missing
}

// Filter returns the annotations whose priority and category fall in the
// given sets. Nil or empty sets mean no restriction on that axis. Filters
// apply at report-generation time, so one scan supports multiple views.
func (r *Report) Filter(priorities []annotation.Priority, categories []annotation.Category) []annotation.Annotation {
	var out []annotation.Annotation
	for _, a := range r.annotations {
		if matchesPriority(a, priorities) && matchesCategory(a, categories) {
			out = append(out, a)
		}
	}
	return out
}

func matchesPriority(a annotation.Annotation, priorities []annotation.Priority) bool {
	if len(priorities) == 0 {
		return true
	}
	for _, p := range priorities {
		if a.Priority == p {
			return true
		}
	}
	return false
}

func matchesCategory(a annotation.Annotation, categories []annotation.Category) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if a.Category == c {
			return true
		}
	}
	return false
}

// WriteFile renders the report as Markdown and writes it to path, creating
// parent directories as needed.
func (r *Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(r.Markdown()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
