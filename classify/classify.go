// Package classify infers priority and category for non-compliant
// annotations from their free text, using ordered keyword rule tables.
// Classification is deterministic and total: the same description always
// yields the same result, and unmatched text falls back to defaults.
package classify

import (
	"strings"

	"github.com/c360studio/actionmark/annotation"
)

// priorityRule maps a keyword set to a priority tier. Rules are evaluated
// in table order; the first rule with a matching keyword wins.
type priorityRule struct {
	Keywords []string
	Priority annotation.Priority
}

// categoryRule maps a keyword set to a category. Evaluated independently of
// the priority table, again first match wins.
type categoryRule struct {
	Keywords []string
	Category annotation.Category
}

// DefaultPriority is assigned when no priority rule matches.
const DefaultPriority = annotation.PriorityP3

// DefaultCategory is assigned when no category rule matches.
const DefaultCategory = annotation.CategoryTask

// priorityRules is the ordered priority inference table. Keeping the rules
// as data makes the heuristic auditable and testable in isolation.
var priorityRules = []priorityRule{
	{
		Keywords: []string{"urgent", "critical", "asap", "immediately", "security", "vulnerab", "crash", "data loss", "corrupt"},
		Priority: annotation.PriorityP0,
	},
	{
		Keywords: []string{"important", "bug", "fix", "issue", "error", "broken", "fail", "wrong", "incorrect"},
		Priority: annotation.PriorityP1,
	},
	{
		Keywords: []string{"refactor", "improve", "clean", "simplify", "later", "eventually", "someday", "nice to have"},
		Priority: annotation.PriorityP2,
	},
}

// categoryRules is the ordered category inference table.
var categoryRules = []categoryRule{
	{
		Keywords: []string{"bug", "fix", "error", "broken", "crash", "defect", "regression"},
		Category: annotation.CategoryBug,
	},
	{
		Keywords: []string{"feature", "implement", "add support", "support for", "enhancement"},
		Category: annotation.CategoryFeat,
	},
	{
		Keywords: []string{"refactor", "clean", "simplify", "restructur", "rework", "extract"},
		Category: annotation.CategoryRefactor,
	},
	{
		Keywords: []string{"performance", "slow", "optimiz", "speed up", "latency", "memory usage"},
		Category: annotation.CategoryPerf,
	},
	{
		Keywords: []string{"document", "docs", "readme", "javadoc", "comment"},
		Category: annotation.CategoryDoc,
	},
	{
		Keywords: []string{"test", "coverage", "assertion"},
		Category: annotation.CategoryTest,
	},
	{
		Keywords: []string{"build", "deploy", "pipeline", "docker", "infrastructure", "ci/cd"},
		Category: annotation.CategoryInfra,
	},
	{
		Keywords: []string{"security", "auth", "vulnerab", "encrypt", "sanitize", "injection"},
		Category: annotation.CategorySecurity,
	},
}

// Classify infers a priority and category pair from an annotation's free
// text. Matching is a case-insensitive substring test against each rule's
// keywords, in table order.
func Classify(description string) (annotation.Priority, annotation.Category) {
	return ClassifyPriority(description), ClassifyCategory(description)
}

// ClassifyPriority applies the priority rule table.
func ClassifyPriority(description string) annotation.Priority {
	text := strings.ToLower(description)
	for _, rule := range priorityRules {
		if matchesAny(text, rule.Keywords) {
			return rule.Priority
		}
	}
	return DefaultPriority
}

// ClassifyCategory applies the category rule table.
func ClassifyCategory(description string) annotation.Category {
	text := strings.ToLower(description)
	for _, rule := range categoryRules {
		if matchesAny(text, rule.Keywords) {
			return rule.Category
		}
	}
	return DefaultCategory
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
