// Package rewrite renders annotations into canonical line text and replaces
// single lines in source files without disturbing any other byte.
package rewrite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/actionmark/annotation"
)

// stylesByExtension maps file extensions to comment styles. Selecting the
// wrong prefix for a file type is a defect, so unknown extensions are an
// error rather than a silent fallback.
var stylesByExtension = map[string]annotation.CommentStyle{
	".go":     annotation.StyleSlash,
	".c":      annotation.StyleSlash,
	".h":      annotation.StyleSlash,
	".cc":     annotation.StyleSlash,
	".cpp":    annotation.StyleSlash,
	".hpp":    annotation.StyleSlash,
	".java":   annotation.StyleSlash,
	".js":     annotation.StyleSlash,
	".jsx":    annotation.StyleSlash,
	".ts":     annotation.StyleSlash,
	".tsx":    annotation.StyleSlash,
	".cs":     annotation.StyleSlash,
	".kt":     annotation.StyleSlash,
	".swift":  annotation.StyleSlash,
	".scala":  annotation.StyleSlash,
	".rs":     annotation.StyleSlash,
	".dart":   annotation.StyleSlash,
	".groovy": annotation.StyleSlash,

	".sh":   annotation.StyleHash,
	".bash": annotation.StyleHash,
	".zsh":  annotation.StyleHash,
	".py":   annotation.StyleHash,
	".rb":   annotation.StyleHash,
	".pl":   annotation.StyleHash,
	".yaml": annotation.StyleHash,
	".yml":  annotation.StyleHash,
	".toml": annotation.StyleHash,
	".tf":   annotation.StyleHash,
	".mk":   annotation.StyleHash,

	".md":       annotation.StyleHTML,
	".markdown": annotation.StyleHTML,
	".html":     annotation.StyleHTML,
	".htm":      annotation.StyleHTML,
	".xml":      annotation.StyleHTML,
}

// StyleForPath returns the comment style for a file based on its extension.
func StyleForPath(path string) (annotation.CommentStyle, error) {
	ext := strings.ToLower(filepath.Ext(path))
	style, ok := stylesByExtension[ext]
	if !ok {
		return annotation.StyleNone, fmt.Errorf("no comment style known for extension %q", ext)
	}
	return style, nil
}

// Render constructs the canonical line text for an annotation using its
// recorded indentation and comment style. The category group is omitted when
// the category is unspecified, and the reference group when no issue is
// linked. Rendering a compliant annotation reproduces its RawText exactly.
func Render(a annotation.Annotation) (string, error) {
	if !a.Priority.Specified() {
		return "", fmt.Errorf("cannot render annotation without a priority: %s", a.Location)
	}

	var core strings.Builder
	core.WriteString(annotation.Marker)
	core.WriteString(" [")
	core.WriteString(string(a.Priority))
	core.WriteString("]")
	if a.Category.Specified() {
		core.WriteString(" (")
		core.WriteString(string(a.Category))
		core.WriteString(")")
	}
	if a.HasReference() {
		core.WriteString(fmt.Sprintf(" (#%d)", a.Reference))
	}
	core.WriteString(": ")
	core.WriteString(a.Description)

	switch a.Style {
	case annotation.StyleSlash:
		return a.Indent + "// " + core.String(), nil
	case annotation.StyleHash:
		return a.Indent + "# " + core.String(), nil
	case annotation.StyleHTML:
		return a.Indent + "<!-- " + core.String() + " -->", nil
	default:
		return "", fmt.Errorf("annotation has no comment style: %s", a.Location)
	}
}

// ReplaceLine replaces exactly one line (1-based) in a file, leaving every
// other line byte-identical. The write is atomic: the new content goes to a
// temporary file in the same directory which is then renamed into place, so
// a crash mid-write never leaves a corrupted source file.
func ReplaceLine(path string, lineNum int, newText string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	start, end, err := lineBounds(content, lineNum)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	// Keep a carriage return that belonged to the original line ending.
	replacement := []byte(newText)
	if end > start && content[end-1] == '\r' {
		replacement = append(replacement, '\r')
	}

	updated := make([]byte, 0, len(content)+len(replacement))
	updated = append(updated, content[:start]...)
	updated = append(updated, replacement...)
	updated = append(updated, content[end:]...)

	return writeAtomic(path, updated)
}

// lineBounds returns the byte range [start, end) of the given 1-based line,
// excluding its trailing newline.
func lineBounds(content []byte, lineNum int) (int, int, error) {
	if lineNum < 1 {
		return 0, 0, fmt.Errorf("invalid line number %d", lineNum)
	}

	start := 0
	for line := 1; line < lineNum; line++ {
		idx := bytes.IndexByte(content[start:], '\n')
		if idx < 0 {
			return 0, 0, fmt.Errorf("line %d beyond end of file", lineNum)
		}
		start += idx + 1
	}

	end := len(content)
	if idx := bytes.IndexByte(content[start:], '\n'); idx >= 0 {
		end = start + idx
	}
	return start, end, nil
}

// writeAtomic writes content to a temporary file in the target directory and
// renames it into place, preserving the original file mode.
func writeAtomic(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".actionmark-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move into place: %w", err)
	}
	return nil
}
