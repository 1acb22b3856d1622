package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/actionmark/annotation"
)

func sample(file string, line int, p annotation.Priority, c annotation.Category, compliant bool) annotation.Annotation {
	return annotation.Annotation{
		Location:    annotation.Location{File: file, Line: line},
		RawText:     "// TODO sample",
		Priority:    p,
		Category:    c,
		Description: "sample",
		Compliant:   compliant,
	}
}

func TestReport_Counts(t *testing.T) {
	r := New("/repo")
	r.Add(sample("a.go", 1, annotation.PriorityP0, annotation.CategoryBug, true))
	r.Add(sample("a.go", 9, annotation.PriorityP1, annotation.CategoryBug, true))
	r.Add(sample("b.go", 2, annotation.PriorityUnspecified, annotation.CategoryUnspecified, false))

	assert.Equal(t, 3, r.Total())
	assert.Equal(t, 2, r.CompliantCount())
	assert.Equal(t, 1, r.NonCompliantCount())
	assert.Equal(t, 1, r.ByPriority()[annotation.PriorityP0])
	assert.Equal(t, 1, r.ByPriority()[annotation.PriorityUnspecified])
	assert.Equal(t, 2, r.ByCategory()[annotation.CategoryBug])
	assert.Len(t, r.Violations(), 1)
}

// Filter correctness: for any priority set S, the filtered count equals the
// number of annotations whose priority is in S.
func TestReport_FilterCorrectness(t *testing.T) {
	r := New("/repo")
	r.Add(sample("a.go", 1, annotation.PriorityP0, annotation.CategoryBug, true))
	r.Add(sample("a.go", 2, annotation.PriorityP1, annotation.CategoryFeat, true))
	r.Add(sample("a.go", 3, annotation.PriorityP1, annotation.CategoryBug, true))
	r.Add(sample("a.go", 4, annotation.PriorityP3, annotation.CategoryTask, true))

	assert.Len(t, r.Filter([]annotation.Priority{annotation.PriorityP1}, nil), 2)
	assert.Len(t, r.Filter([]annotation.Priority{annotation.PriorityP0, annotation.PriorityP1}, nil), 3)
	assert.Len(t, r.Filter(nil, []annotation.Category{annotation.CategoryBug}), 2)
	assert.Len(t, r.Filter([]annotation.Priority{annotation.PriorityP1}, []annotation.Category{annotation.CategoryBug}), 1)
	assert.Len(t, r.Filter(nil, nil), 4)

	// Filtering must not alter accumulated counts.
	assert.Equal(t, 4, r.Total())
}

func TestReport_MissingReferences(t *testing.T) {
	r := New("/repo")
	withRef := sample("a.go", 1, annotation.PriorityP0, annotation.CategoryBug, true)
	withRef.Reference = 5
	r.Add(withRef)
	r.Add(sample("a.go", 2, annotation.PriorityP0, annotation.CategoryBug, true))
	r.Add(sample("a.go", 3, annotation.PriorityP2, annotation.CategoryTask, true))
	r.Add(sample("a.go", 4, annotation.PriorityUnspecified, annotation.CategoryUnspecified, false))

	missing := r.MissingReferences(annotation.PriorityP1)
	require.Len(t, missing, 1)
	assert.Equal(t, 2, missing[0].Location.Line)
}

func TestReport_Markdown(t *testing.T) {
	r := New("/repo")
	r.Add(sample("a.go", 1, annotation.PriorityP0, annotation.CategorySecurity, true))
	r.Add(sample("b.go", 2, annotation.PriorityUnspecified, annotation.CategoryUnspecified, false))
	r.AddSyncFailure(annotation.Location{File: "a.go", Line: 1}, errors.New("rate limited"))

	md := r.Markdown()

	assert.Contains(t, md, "# Annotation Compliance Report")
	assert.Contains(t, md, "| Total annotations | 2 |")
	assert.Contains(t, md, "| Compliant | 1 |")
	assert.Contains(t, md, "## P0")
	assert.Contains(t, md, "## Unspecified priority")
	assert.Contains(t, md, "## Violations")
	assert.Contains(t, md, "## Synchronization failures")
	assert.Contains(t, md, "rate limited")
}

func TestReport_MarkdownDeterministic(t *testing.T) {
	r := New("/repo")
	r.Add(sample("a.go", 1, annotation.PriorityP1, annotation.CategoryBug, true))
	r.Add(sample("b.go", 2, annotation.PriorityP2, annotation.CategoryTask, false))

	assert.Equal(t, r.Markdown(), r.Markdown())
}

func TestReport_WriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "report.md")

	r := New("/repo")
	r.Add(sample("a.go", 1, annotation.PriorityP1, annotation.CategoryBug, true))
	require.NoError(t, r.WriteFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Annotation Compliance Report")
}

func TestReport_EmptyRun(t *testing.T) {
	r := New("/repo")

	assert.Equal(t, 0, r.Total())
	md := r.Markdown()
	assert.Contains(t, md, "| Total annotations | 0 |")
	assert.NotContains(t, md, "## Violations")
}
