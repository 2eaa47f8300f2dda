// Package suppress applies inline `# noqa` directives to diagnostics.
// It reads the raw token stream (comments included) rather than the
// tree, so directives survive on lines the parser had trouble with.
package suppress

import (
	"strings"

	"github.com/reap-dev/reap/pkg/source"
	"github.com/reap-dev/reap/pkg/token"
)

// Matcher answers whether a diagnostic on a given line is suppressed.
type Matcher struct {
	all   map[int]bool            // lines with a bare `# noqa`
	codes map[int]map[string]bool // lines with `# noqa: CODE[,CODE]`
}

type directive struct {
	all   bool
	codes []string
}

// New scans the raw token stream of one file for noqa directives. A
// directive on any physical line of a logical line suppresses for the
// whole logical line, so a noqa inside a multi-line call covers the
// line the diagnostic is anchored to. Malformed directives are ignored
// silently.
func New(buf *source.Buffer, toks []token.Token) *Matcher {
	m := &Matcher{
		all:   make(map[int]bool),
		codes: make(map[int]map[string]bool),
	}

	logicalStart := 0 // first code line of the current logical line, 0 when none yet
	lastLine := 0
	var pending []directive

	flush := func(from, to int) {
		for _, d := range pending {
			m.cover(from, to, d)
		}
		pending = pending[:0]
	}

	for _, t := range toks {
		switch t.Kind {
		case token.NEWLINE:
			if logicalStart != 0 {
				flush(logicalStart, t.Pos.Line)
			}
			logicalStart = 0
		case token.INDENT, token.DEDENT:
			// layout, no line of their own
		case token.ENDMARKER:
			if logicalStart != 0 {
				flush(logicalStart, lastLine)
			}
		case token.COMMENT:
			d, ok := parseDirective(string(buf.Slice(t.Span)))
			if !ok {
				continue
			}
			if logicalStart == 0 {
				// standalone comment line: covers itself only
				m.cover(t.Pos.Line, t.Pos.Line, d)
				continue
			}
			pending = append(pending, d)
			lastLine = t.Pos.Line
		default:
			if logicalStart == 0 {
				logicalStart = t.Pos.Line
			}
			lastLine = t.Pos.Line
		}
	}
	return m
}

func (m *Matcher) cover(from, to int, d directive) {
	for line := from; line <= to; line++ {
		if d.all {
			m.all[line] = true
			continue
		}
		if m.codes[line] == nil {
			m.codes[line] = make(map[string]bool)
		}
		for _, c := range d.codes {
			m.codes[line][c] = true
		}
	}
}

// Suppressed reports whether a diagnostic with the given rule code on
// the given line is covered by a directive.
func (m *Matcher) Suppressed(line int, rule string) bool {
	if m.all[line] {
		return true
	}
	return m.codes[line][rule]
}

// parseDirective parses a comment's text. ok is false when the comment
// is not a noqa directive at all; a recognized directive with an empty
// or malformed code list is a no-op.
func parseDirective(comment string) (directive, bool) {
	s := strings.TrimSpace(strings.TrimPrefix(comment, "#"))
	low := strings.ToLower(s)
	if !strings.HasPrefix(low, "noqa") {
		return directive{}, false
	}
	rest := strings.TrimSpace(s[len("noqa"):])
	if rest == "" {
		return directive{all: true}, true
	}
	if !strings.HasPrefix(rest, ":") {
		// trailing prose after "noqa" is not a directive
		return directive{}, false
	}
	var codes []string
	for _, c := range strings.Split(rest[1:], ",") {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			codes = append(codes, c)
		}
	}
	return directive{codes: codes}, true
}
