// Package file defines the per-file rule interface and registry: rules
// that decide everything they need from one file's tree and name
// tables, with no project-wide context.
package file

import (
	"fmt"
	"sort"
	"sync"

	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/reap-dev/reap/pkg/token"
)

// Context is everything a per-file rule may consult: the source buffer,
// the tree, the name tables, and rule-specific options from
// configuration. All of it is immutable during checking, so rules for
// one file may run concurrently.
type Context struct {
	Path    string
	Buf     *source.Buffer
	Tree    *ast.Tree
	Tables  *binder.Tables
	Options map[string]any
}

// Diagnostic builds a finding anchored at span, converting the span's
// start offset to (line, col).
func (c *Context) Diagnostic(id string, sev lint.Severity, span token.Span, format string, args ...any) lint.Diagnostic {
	pos := c.Buf.Position(span.Start)
	return lint.Diagnostic{
		File:     c.Path,
		Line:     pos.Line,
		Col:      pos.Column,
		RuleID:   id,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// CheckFunc analyzes one file and returns diagnostics. Checkers are
// pure functions of the context; they hold no state between files.
type CheckFunc func(ctx *Context) []lint.Diagnostic

// Rule is a data-driven per-file rule definition.
type Rule struct {
	ID          string
	Name        string
	Group       string
	Description string
	Severity    lint.Severity
	Check       CheckFunc
}

// Info returns the rule's metadata for documentation/tooling.
func (r Rule) Info() lint.RuleInfo {
	return lint.RuleInfo{
		ID:              r.ID,
		Name:            r.Name,
		Group:           r.Group,
		Description:     r.Description,
		DefaultSeverity: r.Severity,
		Type:            "file",
	}
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Rule)
)

// Register adds a rule to the per-file registry. Called from rule
// packages' init functions.
func Register(r Rule) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[r.ID] = r
}

// Get returns the rule with the given ID.
func Get(id string) (Rule, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[id]
	return r, ok
}

// All returns every registered per-file rule, ordered by ID.
func All() []Rule {
	registryMu.RLock()
	defer registryMu.RUnlock()
	rules := make([]Rule, 0, len(registry))
	for _, r := range registry {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}
