package rules

import (
	"strings"

	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
)

func init() {
	file.Register(UnusedLoopVariable)
}

// UnusedLoopVariable flags for-loops none of whose header names are
// read in the loop body. Tuple targets are reported only when every
// component is unused.
var UnusedLoopVariable = file.Rule{
	ID:          "RP009",
	Name:        "variables.unused_loop",
	Group:       "variables",
	Description: "Loop variable is never used in the loop body.",
	Severity:    lint.SeverityWarning,
	Check:       checkUnusedLoopVariable,
}

func checkUnusedLoopVariable(ctx *file.Context) []lint.Diagnostic {
	t := ctx.Tables
	tree := ctx.Tree

	var diags []lint.Diagnostic
	for id := range tree.Nodes {
		n := &tree.Nodes[id]
		if n.Kind != ast.KindFor || len(n.Body) == 0 {
			continue
		}
		forID := ast.NodeID(id)
		bodyStart := tree.Node(n.Body[0]).Span.Start

		var unused []string
		allUnused := true
		found := false
		for _, d := range t.Defs {
			if d.Stmt != forID || d.Kind != binder.DefLoopTarget {
				continue
			}
			found = true
			if readWithin(t, d, bodyStart, n.Span.End) {
				allUnused = false
				break
			}
			if !strings.HasPrefix(d.Name, "_") {
				unused = append(unused, d.Name)
			}
		}
		if !found || !allUnused || len(unused) == 0 {
			continue
		}
		diags = append(diags, ctx.Diagnostic("RP009", lint.SeverityWarning, tree.Node(n.Target).Span,
			"loop variable `%s` is not used", strings.Join(unused, "`, `")))
	}
	return diags
}

// readWithin reports whether def has a resolved read starting inside
// the byte range [after, upto]: from the first body statement to the
// end of the for statement, else clause included.
func readWithin(t *binder.Tables, d binder.Def, after, upto int) bool {
	for _, u := range t.UsesResolvedTo(d.Scope, d.Name) {
		if u.Span.Start >= after && u.Span.Start <= upto {
			return true
		}
	}
	return false
}
