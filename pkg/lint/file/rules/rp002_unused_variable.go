package rules

import (
	"strings"

	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
)

func init() {
	file.Register(UnusedVariable)
}

// UnusedVariable flags local variables assigned inside a function and
// never read afterwards.
var UnusedVariable = file.Rule{
	ID:          "RP002",
	Name:        "variables.unused_local",
	Group:       "variables",
	Description: "Local variable is assigned but never used.",
	Severity:    lint.SeverityWarning,
	Check:       checkUnusedVariable,
}

func checkUnusedVariable(ctx *file.Context) []lint.Diagnostic {
	t := ctx.Tables

	var diags []lint.Diagnostic
	for _, d := range t.Defs {
		if d.Kind != binder.DefAssign {
			continue
		}
		sc := t.Scopes[d.Scope]
		if sc.Kind != binder.ScopeFunction && sc.Kind != binder.ScopeLambda {
			continue
		}
		if strings.HasPrefix(d.Name, "_") {
			continue
		}
		if sc.Reflective {
			continue
		}
		if t.UsedAfter(d) {
			continue
		}
		// Unpacking is all-or-nothing: a tuple target with one used
		// component keeps its siblings.
		if d.Group != 0 && groupHasLiveSibling(t, d) {
			continue
		}
		diags = append(diags, ctx.Diagnostic("RP002", lint.SeverityWarning, d.Span,
			"local variable `%s` is assigned but never used", d.Name))
	}
	return diags
}

func groupHasLiveSibling(t *binder.Tables, d binder.Def) bool {
	for _, sib := range t.Defs {
		if sib.Group != d.Group || sib.Stmt != d.Stmt {
			continue
		}
		if sib.Span == d.Span {
			continue
		}
		if t.UsedAfter(sib) {
			return true
		}
	}
	return false
}
