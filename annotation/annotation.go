// Package annotation defines the action-marker data model and the canonical
// grammar used to parse and validate inline TODO annotations.
package annotation

import "fmt"

// Marker is the fixed keyword that identifies a line as an action marker.
const Marker = "TODO"

// Priority represents the urgency tier of an annotation.
type Priority string

const (
	// PriorityP0 indicates the most urgent work (crashes, security, data loss).
	PriorityP0 Priority = "P0"

	// PriorityP1 indicates important work (bugs, broken behavior).
	PriorityP1 Priority = "P1"

	// PriorityP2 indicates improvement work that can wait (refactors, cleanup).
	PriorityP2 Priority = "P2"

	// PriorityP3 indicates backlog work with no particular urgency.
	PriorityP3 Priority = "P3"

	// PriorityUnspecified indicates the annotation carries no priority group.
	PriorityUnspecified Priority = ""
)

// Priorities lists all specified priorities in urgency order.
var Priorities = []Priority{PriorityP0, PriorityP1, PriorityP2, PriorityP3}

// Rank returns the numeric rank of the priority (0 is most urgent).
// Unspecified ranks below every specified priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityP0:
		return 0
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	default:
		return 4
	}
}

// Specified reports whether the priority carries a concrete tier.
func (p Priority) Specified() bool {
	return p != PriorityUnspecified
}

// ParsePriority converts a string such as "P1" into a Priority.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return PriorityUnspecified, fmt.Errorf("unknown priority %q", s)
}

// Category represents the kind of work an annotation describes.
type Category string

const (
	// CategoryBug indicates defect-fixing work.
	CategoryBug Category = "BUG"

	// CategoryFeat indicates new functionality.
	CategoryFeat Category = "FEAT"

	// CategoryRefactor indicates restructuring without behavior change.
	CategoryRefactor Category = "REFACTOR"

	// CategoryPerf indicates performance work.
	CategoryPerf Category = "PERF"

	// CategoryDoc indicates documentation work.
	CategoryDoc Category = "DOC"

	// CategoryTest indicates test coverage work.
	CategoryTest Category = "TEST"

	// CategoryInfra indicates build, CI, or deployment work.
	CategoryInfra Category = "INFRA"

	// CategorySecurity indicates security hardening work.
	CategorySecurity Category = "SECURITY"

	// CategoryTask indicates general work that fits no other category.
	CategoryTask Category = "TASK"

	// CategoryUnspecified indicates the annotation carries no category group.
	CategoryUnspecified Category = ""
)

// Categories lists all specified categories.
var Categories = []Category{
	CategoryBug,
	CategoryFeat,
	CategoryRefactor,
	CategoryPerf,
	CategoryDoc,
	CategoryTest,
	CategoryInfra,
	CategorySecurity,
	CategoryTask,
}

// Specified reports whether the category carries a concrete value.
func (c Category) Specified() bool {
	return c != CategoryUnspecified
}

// ParseCategory converts a string such as "BUG" into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return CategoryUnspecified, fmt.Errorf("unknown category %q", s)
}

// CommentStyle identifies the comment syntax an annotation line uses.
type CommentStyle string

const (
	// StyleSlash is the C-family line comment ("//").
	StyleSlash CommentStyle = "slash"

	// StyleHash is the shell-family line comment ("#").
	StyleHash CommentStyle = "hash"

	// StyleHTML is the markdown/HTML/XML comment pair ("<!--" / "-->").
	StyleHTML CommentStyle = "html"

	// StyleNone means no recognized comment prefix was found on the line.
	StyleNone CommentStyle = ""
)

// Location identifies where an annotation was found. It is only valid for
// the lifetime of a single scan pass and is never persisted.
type Location struct {
	File string
	Line int
}

// String returns the provenance form "path:line" embedded in created issues.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Annotation is the unit of work: one marker line, fully reconstructable
// from RawText. Compliant annotations re-render byte-identically.
type Annotation struct {
	// Location is the file and 1-based line number of the marker line.
	Location Location

	// RawText is the original line content, byte for byte.
	RawText string

	// Indent is the leading whitespace of the line.
	Indent string

	// Style is the comment syntax detected on the line.
	Style CommentStyle

	// Priority is the urgency tier, Unspecified when absent or malformed.
	Priority Priority

	// Category is the work kind, Unspecified when absent.
	Category Category

	// Description is the free text after the marker and bracketed metadata.
	Description string

	// Reference is the linked tracker issue number, 0 when absent.
	Reference int

	// Compliant is true iff RawText matches the canonical grammar exactly.
	Compliant bool
}

// HasReference reports whether the annotation carries an issue reference.
func (a Annotation) HasReference() bool {
	return a.Reference > 0
}
