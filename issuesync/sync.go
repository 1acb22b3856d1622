// Package issuesync creates tracker issues for high-priority annotations
// that carry no external reference, strictly sequentially in scanner order
// so duplicate-detection queries observe the effects of prior creations
// within the same run.
//
// Duplicate suppression is keyed on the exact "file:line" provenance string.
// If an annotation shifts to a different line between runs, a duplicate
// issue can be created; this is an accepted best-effort limitation.
package issuesync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/c360studio/actionmark/annotation"
	"github.com/c360studio/actionmark/tracker"
)

// maxTitleLen is the longest issue title the synchronizer produces,
// including the ellipsis marker when the description is truncated.
const maxTitleLen = 80

// DefaultLabelNamespace prefixes every label the synchronizer applies, so
// they never collide with unrelated repository labels.
const DefaultLabelNamespace = "actionmark"

// Synchronizer pushes eligible annotations to the issue tracker.
type Synchronizer struct {
	client    tracker.Client
	threshold annotation.Priority
	namespace string
	logger    *slog.Logger

	enabled bool
}

// New creates a synchronizer. Annotations are eligible when their priority
// ranks at or above threshold and they carry no reference yet.
func New(client tracker.Client, threshold annotation.Priority, namespace string, logger *slog.Logger) *Synchronizer {
	if namespace == "" {
		namespace = DefaultLabelNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		client:    client,
		threshold: threshold,
		namespace: namespace,
		logger:    logger,
	}
}

// Probe checks tracker availability once at startup. When the tracker is
// unreachable or unauthenticated the whole feature degrades to disabled with
// a single warning; format checking and rewriting continue normally.
func (s *Synchronizer) Probe(ctx context.Context) bool {
	s.enabled = s.client.IsAvailable(ctx)
	if !s.enabled {
		s.logger.Warn("Issue tracker unavailable, synchronization disabled for this run")
	}
	return s.enabled
}

// Enabled reports whether synchronization is active for this run.
func (s *Synchronizer) Enabled() bool {
	return s.enabled
}

// Eligible reports whether an annotation qualifies for synchronization:
// specified priority at or above the threshold, and no existing reference.
func (s *Synchronizer) Eligible(a annotation.Annotation) bool {
	if !a.Priority.Specified() {
		return false
	}
	return a.Priority.Rank() <= s.threshold.Rank() && !a.HasReference()
}

// Sync synchronizes one annotation. When an open issue already references
// the same provenance it is reused; otherwise a new issue is created. The
// returned annotation carries the issue number for the rewriter to persist.
// Sync never creates an issue for an annotation that already has one.
func (s *Synchronizer) Sync(ctx context.Context, a annotation.Annotation) (annotation.Annotation, error) {
	if !s.enabled {
		return a, tracker.ErrUnavailable
	}
	if !s.Eligible(a) {
		return a, nil
	}

	provenance := a.Location.String()

	existing, err := s.client.FindByProvenance(ctx, provenance)
	if err != nil {
		return a, fmt.Errorf("duplicate check for %s: %w", provenance, err)
	}
	if existing != nil {
		s.logger.Debug("Reusing existing issue", "provenance", provenance, "issue", existing.Number)
		a.Reference = existing.Number
		return a, nil
	}

	created, err := s.client.Create(ctx, tracker.NewIssue{
		Title:  issueTitle(a.Description),
		Body:   issueBody(a, provenance),
		Labels: s.labels(a),
	})
	if err != nil {
		return a, fmt.Errorf("create issue for %s: %w", provenance, err)
	}

	s.logger.Info("Created issue for annotation",
		"provenance", provenance,
		"issue", created.Number,
		"priority", string(a.Priority))

	a.Reference = created.Number
	return a, nil
}

// issueTitle derives the title from the description, truncated with an
// ellipsis marker when it exceeds the limit.
func issueTitle(description string) string {
	title := strings.TrimSpace(description)
	if title == "" {
		title = "Untitled annotation"
	}
	if len(title) <= maxTitleLen {
		return title
	}
	cut := maxTitleLen - 3
	for cut > 0 && !utf8.RuneStart(title[cut]) {
		cut--
	}
	return title[:cut] + "..."
}

// issueBody includes the provenance string verbatim; duplicate detection on
// later runs searches for it.
func issueBody(a annotation.Annotation, provenance string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Location**: `%s`\n", provenance))
	sb.WriteString(fmt.Sprintf("**Priority**: %s\n", a.Priority))
	if a.Category.Specified() {
		sb.WriteString(fmt.Sprintf("**Category**: %s\n", a.Category))
	}
	sb.WriteString("\nOriginal annotation:\n\n")
	sb.WriteString("```\n")
	sb.WriteString(a.RawText)
	sb.WriteString("\n```\n")
	return sb.String()
}

// labels derives the deterministic label set: the priority, plus the
// category when specified, both under the configured namespace.
func (s *Synchronizer) labels(a annotation.Annotation) []string {
	labels := []string{s.namespace + ":" + string(a.Priority)}
	if a.Category.Specified() {
		labels = append(labels, s.namespace+":"+string(a.Category))
	}
	return labels
}
