package rules

import (
	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
)

func init() {
	file.Register(ImportShadowed)
}

// ImportShadowed flags imports whose binding is reassigned by a simple
// assignment in the same scope before any read. Statement order comes
// from the binder's Def.Order and Use.Order; RP006 does not consult
// that ordering.
var ImportShadowed = file.Rule{
	ID:          "RP007",
	Name:        "imports.redefined_before_use",
	Group:       "imports",
	Description: "Import is redefined by an assignment before being used.",
	Severity:    lint.SeverityWarning,
	Check:       checkImportShadowed,
}

func checkImportShadowed(ctx *file.Context) []lint.Diagnostic {
	t := ctx.Tables

	var diags []lint.Diagnostic
	for _, imp := range t.Defs {
		if imp.Kind != binder.DefImport {
			continue
		}

		// earliest simple reassignment of the same binding
		reassign := -1
		for _, d := range t.DefsOf(imp.Scope, imp.Name) {
			if d.Kind != binder.DefAssign || d.Order <= imp.Order {
				continue
			}
			if reassign < 0 || d.Order < reassign {
				reassign = d.Order
			}
		}
		if reassign < 0 {
			continue
		}

		read := false
		for _, u := range t.UsesResolvedTo(imp.Scope, imp.Name) {
			if u.Order > imp.Order && u.Order < reassign {
				read = true
				break
			}
		}
		if read {
			continue
		}

		diags = append(diags, ctx.Diagnostic("RP007", lint.SeverityWarning, imp.Span,
			"`%s` imported but redefined before use", imp.Name))
	}
	return diags
}
