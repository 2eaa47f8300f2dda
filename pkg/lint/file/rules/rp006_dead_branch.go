package rules

import (
	"strconv"
	"strings"

	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
)

func init() {
	file.Register(DeadBranch)
}

// DeadBranch flags branches that can never execute: if/elif and while
// conditions that are statically falsy literals, the else branch of a
// statically truthy if, and TYPE_CHECKING guards (dead at runtime,
// while their imports stay exempt from RP001). Truthy constant
// conditions themselves are left alone; they may be intentional
// assertion-style guards.
var DeadBranch = file.Rule{
	ID:          "RP006",
	Name:        "reachability.dead_branch",
	Group:       "reachability",
	Description: "Branch can never execute due to a constant condition.",
	Severity:    lint.SeverityWarning,
	Check:       checkDeadBranch,
}

func checkDeadBranch(ctx *file.Context) []lint.Diagnostic {
	tree := ctx.Tree

	var diags []lint.Diagnostic
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		cond := tree.Node(n.Value)
		if cond == nil {
			continue
		}
		switch n.Kind {
		case ast.KindIf:
			switch {
			case binder.IsTypeCheckingRef(tree, n.Value):
				diags = append(diags, ctx.Diagnostic("RP006", lint.SeverityWarning, n.Span,
					"`if TYPE_CHECKING:` block is never executed at runtime"))
			case falsyLiteral(cond):
				diags = append(diags, ctx.Diagnostic("RP006", lint.SeverityWarning, n.Span,
					"branch condition is always false"))
			case truthyLiteral(cond) && len(n.Orelse) > 0:
				diags = append(diags, ctx.Diagnostic("RP006", lint.SeverityWarning, n.Span,
					"`else` branch of a constant-true `if` is never executed"))
			}
		case ast.KindWhile:
			if falsyLiteral(cond) {
				diags = append(diags, ctx.Diagnostic("RP006", lint.SeverityWarning, n.Span,
					"loop body is never executed"))
			}
		}
	}
	return diags
}

// falsyLiteral reports whether expr is a syntactic literal that
// statically evaluates to a falsy value.
func falsyLiteral(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindLiteral:
		switch ast.LitKind(n.Flags) {
		case ast.LitNone:
			return true
		case ast.LitBool:
			return n.Str == "False"
		case ast.LitNumber:
			return zeroNumber(n.Str)
		case ast.LitString:
			return emptyStringLiteral(n.Str)
		}
	case ast.KindList, ast.KindDict, ast.KindSet, ast.KindTuple:
		return len(n.Children) == 0
	}
	return false
}

// truthyLiteral reports whether expr is a syntactic literal known to be
// truthy (the complement of falsyLiteral over the literal forms).
func truthyLiteral(n *ast.Node) bool {
	switch n.Kind {
	case ast.KindLiteral:
		switch ast.LitKind(n.Flags) {
		case ast.LitBool, ast.LitNumber, ast.LitString:
			return !falsyLiteral(n)
		}
	case ast.KindList, ast.KindDict, ast.KindSet, ast.KindTuple:
		return len(n.Children) > 0
	}
	return false
}

func zeroNumber(text string) bool {
	s := strings.ReplaceAll(text, "_", "")
	s = strings.TrimRight(s, "jJ")
	if s == "" {
		return true
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v == 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v == 0
	}
	return false
}

func emptyStringLiteral(text string) bool {
	s := text
	i := 0
	for i < len(s) && s[i] != '\'' && s[i] != '"' {
		i++
	}
	s = s[i:]
	switch s {
	case `""`, `''`, `""""""`, `''''''`:
		return true
	}
	return false
}
