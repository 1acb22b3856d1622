package annotation

import (
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled grammar patterns. The canonical grammar, after the comment
// prefix has been stripped, is:
//
//	TODO [P<0-3>] (<CATEGORY>)? (#<digits>)? : <description>
//
// rendered with single spaces and the colon attached to the last group.
var (
	grammarRe = regexp.MustCompile(`^TODO \[P([0-9])\](?: \(([A-Z]+)\))?(?: \(#([0-9]+)\))?: (.*)$`)
	markerRe  = regexp.MustCompile(`(^|[^A-Za-z0-9_])TODO($|[^A-Za-z0-9_])`)
	refRe     = regexp.MustCompile(`\(#([0-9]+)\)`)
)

// ContainsMarker reports whether the line contains the marker keyword as a
// word-boundary-delimited token. Larger words such as "TODOLIST" do not match.
func ContainsMarker(line string) bool {
	return markerRe.MatchString(line)
}

// Parse converts a raw marker line into an Annotation. Parse is total: it
// never fails. Lines matching the canonical grammar come back with every
// field populated and Compliant set; anything else is marked non-compliant
// with the best-effort description and any issue reference found on the line.
func Parse(loc Location, raw string) Annotation {
	a := Annotation{
		Location: loc,
		RawText:  raw,
	}

	trimmed := strings.TrimLeft(raw, " \t")
	a.Indent = raw[:len(raw)-len(trimmed)]

	body, style, canonical := stripPrefix(trimmed)
	a.Style = style

	if canonical {
		if compliant, ok := matchGrammar(body); ok {
			a.Priority = compliant.priority
			a.Category = compliant.category
			a.Description = compliant.description
			a.Reference = compliant.reference
			a.Compliant = true
			return a
		}
	}

	a.Priority = PriorityUnspecified
	a.Category = CategoryUnspecified
	a.Description = fallbackDescription(body)
	a.Reference = extractReference(raw)
	return a
}

// stripPrefix removes a recognized comment prefix (and, for HTML comments,
// the closing marker) from a whitespace-trimmed line. The canonical flag is
// true only when the prefix uses the exact spacing the renderer produces;
// near-canonical spacing (e.g. "//TODO") is parsed leniently but can never
// be compliant, or the round-trip law would not hold.
func stripPrefix(line string) (body string, style CommentStyle, canonical bool) {
	switch {
	case strings.HasPrefix(line, "<!--"):
		body = strings.TrimPrefix(line, "<!--")
		canonical = strings.HasPrefix(body, " ") && strings.HasSuffix(body, " -->")
		if canonical {
			body = strings.TrimSuffix(strings.TrimPrefix(body, " "), " -->")
		} else {
			body = strings.TrimSuffix(strings.TrimSpace(body), "-->")
			body = strings.TrimRight(body, " ")
		}
		return body, StyleHTML, canonical
	case strings.HasPrefix(line, "//"):
		body = strings.TrimPrefix(line, "//")
		canonical = strings.HasPrefix(body, " ")
		return strings.TrimPrefix(body, " "), StyleSlash, canonical
	case strings.HasPrefix(line, "#"):
		body = strings.TrimPrefix(line, "#")
		canonical = strings.HasPrefix(body, " ")
		return strings.TrimPrefix(body, " "), StyleHash, canonical
	default:
		return line, StyleNone, false
	}
}

type grammarMatch struct {
	priority    Priority
	category    Category
	description string
	reference   int
}

// matchGrammar applies the canonical grammar to the comment body. A priority
// digit outside 0-3 or an unknown category word makes the line non-compliant
// rather than being clamped or ignored.
func matchGrammar(body string) (grammarMatch, bool) {
	m := grammarRe.FindStringSubmatch(body)
	if m == nil {
		return grammarMatch{}, false
	}

	priority, err := ParsePriority("P" + m[1])
	if err != nil {
		return grammarMatch{}, false
	}

	category := CategoryUnspecified
	if m[2] != "" {
		category, err = ParseCategory(m[2])
		if err != nil {
			return grammarMatch{}, false
		}
	}

	reference := 0
	if m[3] != "" {
		reference = atoi(m[3])
		if reference == 0 {
			return grammarMatch{}, false
		}
	}

	return grammarMatch{
		priority:    priority,
		category:    category,
		description: m[4],
		reference:   reference,
	}, true
}

// fallbackDescription extracts the longest plausible free-text span from a
// non-compliant line: everything after the marker keyword, stripped of
// comment syntax and leading separators.
func fallbackDescription(body string) string {
	idx := markerRe.FindStringIndex(body)
	if idx == nil {
		return strings.TrimSpace(strings.TrimSuffix(body, "-->"))
	}

	// The match may include one boundary character before the keyword.
	rest := body[idx[0]:]
	rest = rest[strings.Index(rest, Marker)+len(Marker):]
	rest = strings.TrimLeft(rest, " \t:-")
	rest = strings.TrimSuffix(rest, "-->")
	return strings.TrimSpace(rest)
}

// extractReference finds a "(#123)" pattern anywhere in the line. References
// must survive malformed lines so the synchronizer never re-creates an issue
// that already exists.
func extractReference(line string) int {
	m := refRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return atoi(m[1])
}

// StripReference removes an embedded "(#123)" token from a salvaged
// description so a renderer can place the reference in its own slot
// without duplicating it.
func StripReference(s string) string {
	s = refRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// atoi converts a digit run to an int, treating unparseable or overflowing
// values as no reference at all.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
