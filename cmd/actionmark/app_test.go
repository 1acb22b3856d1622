package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/actionmark/annotation"
	"github.com/c360studio/actionmark/config"
	"github.com/c360studio/actionmark/tracker"
)

func newTestApp(t *testing.T, root string, opts Options, client tracker.Client) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scan.Root = root
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := NewApp(cfg, opts, client, logger)
	app.out = io.Discard
	return app
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(string(content), "\n")
}

func TestApp_FixRewritesNonCompliantMarker(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n\n// TODO fix the null check\nfunc main() {}\n")

	app := newTestApp(t, dir, Options{Fix: true}, tracker.NewMemoryClient())
	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	lines := readLines(t, path)
	assert.Equal(t, "// TODO [P1] (BUG): fix the null check", lines[2])
	assert.Len(t, lines, 5) // 4 lines plus trailing newline split
}

func TestApp_FixLeavesCompliantMarkerUntouched(t *testing.T) {
	dir := t.TempDir()
	content := "package main\n\n// TODO [P2] (REFACTOR): simplify loop\n"
	path := writeFile(t, dir, "main.go", content)

	app := newTestApp(t, dir, Options{Fix: true, Strict: true}, tracker.NewMemoryClient())
	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(after))
}

func TestApp_FixIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lib.py", "# TODO urgent: fix crash on empty input\nx = 1\n")

	app := newTestApp(t, dir, Options{Fix: true}, tracker.NewMemoryClient())

	_, err := app.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = app.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestApp_SyncCreatesIssueAndWritesReference(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "auth.go", "// TODO [P0]: patch security hole\n")

	client := tracker.NewMemoryClient()
	app := newTestApp(t, dir, Options{Sync: true}, client)
	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	lines := readLines(t, path)
	assert.Equal(t, "// TODO [P0] (#1): patch security hole", lines[0])

	issues := client.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "patch security hole", issues[0].Title)
	assert.Contains(t, issues[0].Body, "auth.go:1")
}

func TestApp_SyncSkipsMarkerWithReference(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "auth.go", "// TODO [P0]: patch security hole\n")

	memory := tracker.NewMemoryClient()
	app := newTestApp(t, dir, Options{Sync: true}, memory)
	_, err := app.Run(context.Background())
	require.NoError(t, err)

	// Second run: the reference is on the line now, so the tracker must
	// not be consulted for it at all.
	recording := tracker.NewRecordingClient(memory, nil)
	app2 := newTestApp(t, dir, Options{Sync: true}, recording)
	_, err = app2.Run(context.Background())
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "// TODO [P0] (#1): patch security hole\n", string(before))
	for _, call := range recording.Calls() {
		assert.NotEqual(t, "find_by_provenance", call.Op)
		assert.NotEqual(t, "create", call.Op)
	}
	assert.Len(t, memory.Issues(), 1)
}

func TestApp_FixTouchesOnlyTargetLine(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	for i := 1; i <= 50; i++ {
		if i == 30 {
			sb.WriteString("\t// TODO refactor this mess\n")
			continue
		}
		sb.WriteString("var _ = 0 // filler\n")
	}
	path := writeFile(t, dir, "big.go", sb.String())
	before := readLines(t, path)

	app := newTestApp(t, dir, Options{Fix: true}, tracker.NewMemoryClient())
	_, err := app.Run(context.Background())
	require.NoError(t, err)

	after := readLines(t, path)
	require.Len(t, after, len(before))
	for i := range after {
		if i == 29 {
			assert.Equal(t, "\t// TODO [P2] (REFACTOR): refactor this mess", after[i])
			continue
		}
		assert.Equal(t, before[i], after[i], "line %d", i+1)
	}
}

func TestApp_EmptyTreeStrictExitsZero(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "TODO this extension is not scanned\n")

	app := newTestApp(t, dir, Options{Strict: true}, tracker.NewMemoryClient())
	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
}

func TestApp_StrictNonCompliance(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "// TODO no brackets here\n")

	app := newTestApp(t, dir, Options{Strict: true}, tracker.NewMemoryClient())
	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exitNonCompliant, code)
}

func TestApp_StrictMissingReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "// TODO [P0]: needs an issue\n")

	client := tracker.NewMemoryClient()
	client.Available = false

	app := newTestApp(t, dir, Options{Strict: true, Sync: true}, client)
	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exitMissingRefs, code)
}

func TestApp_NonComplianceTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "// TODO broken marker\n// TODO [P0]: needs an issue\n")

	client := tracker.NewMemoryClient()
	client.Available = false

	app := newTestApp(t, dir, Options{Strict: true, Sync: true}, client)
	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exitNonCompliant, code)
}

func TestApp_SyncFailureRecordedNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "// TODO [P0]: first\n// TODO [P1]: second\n")

	client := tracker.NewMemoryClient()
	client.FailCreate = assert.AnError

	app := newTestApp(t, dir, Options{Sync: true}, client)
	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	// Lines are untouched when creation fails.
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(after), "(#")
}

func TestApp_ReportWritten(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "// TODO [P1] (BUG): flaky retry\n")
	reportPath := filepath.Join(dir, "out", "report.md")

	app := newTestApp(t, dir, Options{ReportPath: reportPath}, tracker.NewMemoryClient())
	_, err := app.Run(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "flaky retry")
	assert.Contains(t, string(content), "main.go:1")
}

func TestApp_FixRespectsPrioritySelection(t *testing.T) {
	dir := t.TempDir()
	content := "// TODO fix the null check\n// TODO crash on startup, urgent\n"
	path := writeFile(t, dir, "main.go", content)

	opts := Options{Fix: true, Priorities: []annotation.Priority{annotation.PriorityP0}}
	app := newTestApp(t, dir, opts, tracker.NewMemoryClient())
	_, err := app.Run(context.Background())
	require.NoError(t, err)

	lines := readLines(t, path)
	// "fix the null check" classifies as P1 and must stay untouched.
	assert.Equal(t, "// TODO fix the null check", lines[0])
	// The P0-classified marker on the next line is rewritten.
	assert.Equal(t, "// TODO [P0] (BUG): crash on startup, urgent", lines[1])
}

func TestApp_FixRespectsCategorySelection(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "// TODO refactor this mess\n")

	opts := Options{Fix: true, Categories: []annotation.Category{annotation.CategoryBug}}
	app := newTestApp(t, dir, opts, tracker.NewMemoryClient())
	_, err := app.Run(context.Background())
	require.NoError(t, err)

	lines := readLines(t, path)
	assert.Equal(t, "// TODO refactor this mess", lines[0])
}

func TestApp_SyncRespectsPrioritySelection(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "// TODO [P0]: patch security hole\n// TODO [P1]: flaky retry\n")

	client := tracker.NewMemoryClient()
	opts := Options{Sync: true, Priorities: []annotation.Priority{annotation.PriorityP1}}
	app := newTestApp(t, dir, opts, client)
	_, err := app.Run(context.Background())
	require.NoError(t, err)

	issues := client.Issues()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Body, "main.go:2")

	lines := readLines(t, path)
	assert.Equal(t, "// TODO [P0]: patch security hole", lines[0])
	assert.Equal(t, "// TODO [P1] (#1): flaky retry", lines[1])
}

func TestApp_SyncPersistFailureRecorded(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "auth.go", "// TODO [P0]: patch security hole\n")
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	reportPath := filepath.Join(t.TempDir(), "report.md")
	client := tracker.NewMemoryClient()
	app := newTestApp(t, dir, Options{Sync: true, ReportPath: reportPath}, client)
	_, err := app.Run(context.Background())
	require.NoError(t, err)

	// The issue exists, but the reference never reached the file: the
	// report must show the on-disk state and record the failure.
	require.Len(t, client.Issues(), 1)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(after), "(#")

	content, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Synchronization failures")
	assert.Contains(t, string(content), "auth.go:1")
	assert.NotContains(t, string(content), "(#1)")
}
