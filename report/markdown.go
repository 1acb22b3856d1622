package report

import (
	"fmt"
	"strings"

	"github.com/c360studio/actionmark/annotation"
)

// Markdown renders the full report: a summary table followed by one
// subsection per priority tier. Output is deterministic for a given
// accumulation order.
func (r *Report) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Annotation Compliance Report\n\n")
	sb.WriteString(fmt.Sprintf("**Run**: `%s`\n", r.RunID))
	sb.WriteString(fmt.Sprintf("**Root**: `%s`\n", r.Root))
	sb.WriteString(fmt.Sprintf("**Generated**: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04")))

	r.writeSummary(&sb)
	r.writePriorityTiers(&sb)
	r.writeViolations(&sb)
	r.writeSyncFailures(&sb)

	return sb.String()
}

func (r *Report) writeSummary(sb *strings.Builder) {
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Count |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total annotations | %d |\n", r.Total()))
	sb.WriteString(fmt.Sprintf("| Compliant | %d |\n", r.CompliantCount()))
	sb.WriteString(fmt.Sprintf("| Non-compliant | %d |\n", r.NonCompliantCount()))

	byPriority := r.ByPriority()
	for _, p := range annotation.Priorities {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", p, byPriority[p]))
	}
	sb.WriteString(fmt.Sprintf("| Unspecified priority | %d |\n", byPriority[annotation.PriorityUnspecified]))

	byCategory := r.ByCategory()
	for _, c := range annotation.Categories {
		if byCategory[c] > 0 {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", c, byCategory[c]))
		}
	}
	sb.WriteString(fmt.Sprintf("| Sync failures | %d |\n", len(r.syncFailures)))
	sb.WriteString("\n")
}

func (r *Report) writePriorityTiers(sb *strings.Builder) {
	tiers := append([]annotation.Priority{}, annotation.Priorities...)
	tiers = append(tiers, annotation.PriorityUnspecified)

	for _, tier := range tiers {
		entries := r.Filter([]annotation.Priority{tier}, nil)
		if len(entries) == 0 {
			continue
		}

		if tier == annotation.PriorityUnspecified {
			sb.WriteString("## Unspecified priority\n\n")
		} else {
			sb.WriteString(fmt.Sprintf("## %s\n\n", tier))
		}

		for _, a := range entries {
			marker := "compliant"
			if !a.Compliant {
				marker = "non-compliant"
			}
			desc := a.Description
			if desc == "" {
				desc = "(no description)"
			}
			ref := ""
			if a.HasReference() {
				ref = fmt.Sprintf(" (#%d)", a.Reference)
			}
			sb.WriteString(fmt.Sprintf("- `%s` — %s%s _(%s)_\n", a.Location, desc, ref, marker))
		}
		sb.WriteString("\n")
	}
}

func (r *Report) writeViolations(sb *strings.Builder) {
	if len(r.violations) == 0 {
		return
	}

	sb.WriteString("## Violations\n\n")
	for _, v := range r.violations {
		sb.WriteString(fmt.Sprintf("- `%s`: `%s`\n", v.Location, strings.TrimSpace(v.RawText)))
	}
	sb.WriteString("\n")
}

func (r *Report) writeSyncFailures(sb *strings.Builder) {
	if len(r.syncFailures) == 0 {
		return
	}

	sb.WriteString("## Synchronization failures\n\n")
	for _, f := range r.syncFailures {
		sb.WriteString(fmt.Sprintf("- `%s`: %s\n", f.Location, f.Reason))
	}
	sb.WriteString("\n")
}
