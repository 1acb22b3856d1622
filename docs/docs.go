// Package docs provides documentation maintenance helpers: filename case
// conversion, markdown header case conversion, and cross-reference link
// rewriting after file renames.
package docs

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var (
	headerRe    = regexp.MustCompile(`^(#{1,6}) +(.*)$`)
	linkRe      = regexp.MustCompile(`\]\(([^)#]+)(#[^)]*)?\)`)
	wordSplitRe = regexp.MustCompile(`[ _]+`)
)

// KebabFilename converts a documentation filename to kebab-case, preserving
// the extension. "UserGuide.md" becomes "user-guide.md".
func KebabFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	var sb strings.Builder
	prevLower := false
	for _, r := range base {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
			prevLower = false
		case r == ' ' || r == '_':
			sb.WriteByte('-')
			prevLower = false
		default:
			sb.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}

	out := sb.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-")

	return out + strings.ToLower(ext)
}

// SentenceCaseHeaders rewrites markdown ATX headers to sentence case: the
// first word keeps its capitalization, subsequent words are lowercased
// unless they look like proper identifiers (all-caps or mixed-case terms
// such as "API" or "GitHub").
func SentenceCaseHeaders(markdown string) string {
	lines := strings.Split(markdown, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = m[1] + " " + sentenceCase(m[2])
	}
	return strings.Join(lines, "\n")
}

func sentenceCase(title string) string {
	words := wordSplitRe.Split(title, -1)
	for i, w := range words {
		if i == 0 || w == "" {
			continue
		}
		if isIdentifierWord(w) {
			continue
		}
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, " ")
}

// isIdentifierWord reports whether a word carries capitalization beyond a
// plain title-case first letter, e.g. "API", "GitHub", "P0".
func isIdentifierWord(w string) bool {
	runes := []rune(w)
	for i, r := range runes {
		if i == 0 {
			continue
		}
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// RewriteLinks updates relative markdown link targets according to a rename
// map of old path to new path. Anchors and absolute URLs are preserved.
func RewriteLinks(markdown string, renames map[string]string) string {
	if len(renames) == 0 {
		return markdown
	}
	return linkRe.ReplaceAllStringFunc(markdown, func(match string) string {
		m := linkRe.FindStringSubmatch(match)
		target, anchor := m[1], m[2]
		if strings.Contains(target, "://") {
			return match
		}
		if newTarget, ok := renames[target]; ok {
			return fmt.Sprintf("](%s%s)", newTarget, anchor)
		}
		return match
	})
}
