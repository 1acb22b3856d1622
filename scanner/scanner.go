// Package scanner walks a file tree and yields every line containing the
// action-marker keyword, in deterministic order.
package scanner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/actionmark/annotation"
)

// binarySniffLen is how many leading bytes are inspected for NUL when
// deciding whether a file is binary.
const binarySniffLen = 8000

// maxLineLen bounds the scanner's token size so pathological files with very
// long lines do not abort the walk.
const maxLineLen = 1024 * 1024

// Options configures a scan pass.
type Options struct {
	// Root is the directory to walk.
	Root string

	// Extensions restricts the walk to files with these extensions
	// (with leading dot). Empty means every file is considered.
	Extensions []string

	// ExcludeSubstrings skips any path containing one of these substrings.
	ExcludeSubstrings []string

	// ExcludeGlobs skips paths matching these doublestar patterns,
	// evaluated against the path relative to Root.
	ExcludeGlobs []string
}

// Match is one marker line found during a scan: the file (relative to the
// scan root), its 1-based line number, and the raw line text.
type Match struct {
	File string
	Line int
	Text string
}

// Location returns the match position as an annotation location.
func (m Match) Location() annotation.Location {
	return annotation.Location{File: m.File, Line: m.Line}
}

// Scanner walks file trees for marker lines.
type Scanner struct {
	opts   Options
	logger *slog.Logger
}

// New creates a scanner with the given options.
func New(opts Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{opts: opts, logger: logger}
}

// Scan walks the root and returns every marker line. Files come back sorted
// lexicographically by path with lines in ascending order, so repeated scans
// of an unchanged tree produce identical output. Unreadable files are logged
// and skipped; they never fail the scan.
func (s *Scanner) Scan() ([]Match, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", root)
	}

	var matches []Match
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if path != root && s.excluded(rel+string(filepath.Separator)) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.excluded(rel) || !s.wantExtension(path) {
			return nil
		}

		fileMatches, scanErr := s.scanFile(path, rel)
		if scanErr != nil {
			s.logger.Warn("Skipping unreadable file", "path", path, "error", scanErr)
			return nil
		}
		matches = append(matches, fileMatches...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].Line < matches[j].Line
	})
	return matches, nil
}

// scanFile reads one file line by line and collects marker lines. Binary
// files contribute nothing.
func (s *Scanner) scanFile(path, rel string) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, binarySniffLen)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if bytes.IndexByte(head[:n], 0) >= 0 {
		return nil, nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	var matches []Match
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineLen)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if annotation.ContainsMarker(line) {
			matches = append(matches, Match{File: rel, Line: lineNum, Text: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// excluded applies substring and glob exclusion rules to a root-relative path.
func (s *Scanner) excluded(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, sub := range s.opts.ExcludeSubstrings {
		if sub != "" && strings.Contains(slashed, sub) {
			return true
		}
	}
	for _, pattern := range s.opts.ExcludeGlobs {
		if pattern == "" {
			continue
		}
		if ok, err := doublestar.Match(pattern, strings.TrimSuffix(slashed, "/")); err == nil && ok {
			return true
		}
	}
	return false
}

// wantExtension reports whether the file passes the extension filter.
func (s *Scanner) wantExtension(path string) bool {
	if len(s.opts.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range s.opts.Extensions {
		if strings.EqualFold(want, ext) {
			return true
		}
	}
	return false
}
