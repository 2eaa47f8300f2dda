// Package rules implements the per-file dead-code checkers. Each rule
// is registered with pkg/lint/file's flat registry from an init
// function; importing this package for side effects makes the full
// rule set available.
package rules

import (
	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
)

func init() {
	file.Register(UnusedImport)
}

// UnusedImport flags imported names whose local binding is never read.
var UnusedImport = file.Rule{
	ID:          "RP001",
	Name:        "imports.unused",
	Group:       "imports",
	Description: "Imported name is never used.",
	Severity:    lint.SeverityWarning,
	Check:       checkUnusedImport,
}

func checkUnusedImport(ctx *file.Context) []lint.Diagnostic {
	t := ctx.Tables

	var diags []lint.Diagnostic
	for _, d := range t.Defs {
		if d.Kind != binder.DefImport {
			continue
		}
		if d.Future || d.ReExport {
			continue
		}
		if t.Exported(d.Name) {
			continue
		}
		if t.InsideTypeCheckingGuard(d.Stmt) {
			continue
		}
		if t.IsUsed(d.Scope, d.Name) {
			continue
		}
		diags = append(diags, ctx.Diagnostic("RP001", lint.SeverityWarning, d.Span,
			"`%s` imported but unused", importDisplayName(ctx, d)))
	}
	return diags
}

// importDisplayName renders the alias as written: "os.path", or
// "name as local" when an explicit binding was given.
func importDisplayName(ctx *file.Context, d binder.Def) string {
	alias := ctx.Tree.Node(d.Node)
	if alias == nil {
		return d.Name
	}
	if alias.Str != "" {
		return alias.Name + " as " + alias.Str
	}
	return alias.Name
}
