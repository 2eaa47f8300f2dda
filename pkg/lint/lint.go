// Package lint defines the diagnostic model shared by the per-file and
// project-wide rule checkers, plus the sink that deduplicates and
// orders findings before emission.
package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reap-dev/reap/pkg/token"
)

// Severity indicates how serious a finding is. Lower values are more
// severe, so threshold comparisons read naturally.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a severity name to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	case "hint":
		return SeverityHint, true
	}
	return SeverityWarning, false
}

// Diagnostic is one lint finding.
type Diagnostic struct {
	File     string
	Line     int // 1-based
	Col      int // 1-based, measured in characters
	RuleID   string
	Severity Severity
	Message  string
	Span     token.Span
}

// String renders the diagnostic in the canonical single-line form.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s %s", d.File, d.Line, d.Col, d.RuleID, d.Message)
}

// Dedupe coalesces diagnostics sharing the same (file, line, col,
// rule), keeping the first occurrence.
func Dedupe(diags []Diagnostic) []Diagnostic {
	type key struct {
		file string
		line int
		col  int
		rule string
	}
	seen := make(map[key]bool, len(diags))
	out := diags[:0]
	for _, d := range diags {
		k := key{d.File, d.Line, d.Col, d.RuleID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}

// Sort orders diagnostics lexicographically by (file, line, col, rule).
func Sort(diags []Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.RuleID < b.RuleID
	})
}

// RuleInfo provides metadata about a rule for documentation/tooling.
type RuleInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Group           string   `json:"group"`
	Description     string   `json:"description"`
	DefaultSeverity Severity `json:"default_severity"`
	Type            string   `json:"type"` // "file" or "project"
}
