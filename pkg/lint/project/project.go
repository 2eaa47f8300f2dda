// Package project defines the cross-file rule interface: rules decided
// against the union of every file's definitions and name references,
// catching dead code a single-file view cannot see.
//
// Matching is purely nominal. Two definitions sharing a name in
// different files are indistinguishable from each other's usages, so a
// usage of a name anywhere marks all same-named definitions alive, a
// deliberate bias toward false negatives: some dead definitions are
// missed, but no live definition is ever flagged.
package project

import (
	"fmt"
	"sort"
	"sync"

	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/token"
)

// DefKind distinguishes what a cross-file definition is.
type DefKind uint8

const (
	DefFunction DefKind = iota
	DefClass
)

// Def is one top-level or class-level function/class definition
// exported by a file's analysis for the merge pass.
type Def struct {
	File string
	Name string
	Kind DefKind

	// Span covers the whole definition; Pos is its precomputed start.
	Span token.Span
	Pos  token.Position

	// BodySpan covers only the suite, so a function's recursive
	// self-references can be told apart from real callers.
	BodySpan token.Span

	// Decorators holds the trailing identifier of each decorator
	// applied to the definition.
	Decorators []string

	// Exported is set when the name appears in the defining file's
	// module-level __all__.
	Exported bool
}

// Use is one name reference contributed by a file.
type Use struct {
	File string
	Name string
	Span token.Span
}

// Context is the merged project view the cross-file rules consume. It
// is built once by concatenating per-file contributions after all
// file tasks complete, and discarded after the merge pass.
type Context struct {
	defs map[string][]Def
	uses map[string][]Use

	// Options carries rule-specific configuration keyed by rule ID.
	Options map[string]map[string]any
}

// NewContext builds a Context from per-file contributions.
func NewContext(defs []Def, uses []Use) *Context {
	c := &Context{
		defs:    make(map[string][]Def),
		uses:    make(map[string][]Use),
		Options: make(map[string]map[string]any),
	}
	for _, d := range defs {
		c.defs[d.Name] = append(c.defs[d.Name], d)
	}
	for _, u := range uses {
		c.uses[u.Name] = append(c.uses[u.Name], u)
	}
	return c
}

// Defs returns every definition, grouped by name.
func (c *Context) Defs() map[string][]Def { return c.defs }

// UsesOf returns every reference to name across the project.
func (c *Context) UsesOf(name string) []Use { return c.uses[name] }

// Diagnostic builds a finding anchored at a definition.
func (c *Context) Diagnostic(id string, sev lint.Severity, d Def, format string, args ...any) lint.Diagnostic {
	return lint.Diagnostic{
		File:     d.File,
		Line:     d.Pos.Line,
		Col:      d.Pos.Column,
		RuleID:   id,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Span:     d.Span,
	}
}

// CheckFunc analyzes the merged project view and returns diagnostics.
type CheckFunc func(ctx *Context) []lint.Diagnostic

// Rule is a data-driven cross-file rule definition.
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
		Type:            "project",
	}
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Rule)
)

// Register adds a rule to the cross-file registry.
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

// All returns every registered cross-file rule, ordered by ID.
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

// Alive reports whether any reference to d.Name keeps d alive. For
// functions, references inside the definition's own body do not count:
// a function called only recursively is still dead.
func (c *Context) Alive(d Def) bool {
	for _, u := range c.uses[d.Name] {
		if d.Kind == DefFunction && u.File == d.File && d.BodySpan.Contains(u.Span.Start) {
			continue
		}
		return true
	}
	return false
}

// ExemptByDecorators reports whether d's decorators exempt it given the
// configured allow-list. With no list configured, any decorator exempts
// (the safe default for framework entry points: route registrations,
// CLI commands, serialization hooks).
func ExemptByDecorators(d Def, allowed []string) bool {
	if len(d.Decorators) == 0 {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, dec := range d.Decorators {
		for _, a := range allowed {
			if dec == a {
				return true
			}
		}
	}
	return false
}
