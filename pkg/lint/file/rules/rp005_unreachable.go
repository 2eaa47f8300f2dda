package rules

import (
	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
)

func init() {
	file.Register(Unreachable)
}

// Unreachable flags statements that follow an unconditional terminator
// (return, raise, break, continue) in the same block. Arms of if/match/
// try are analyzed in isolation; the statement after a compound is
// unreachable only when the compound is exhaustive and every arm
// terminates.
var Unreachable = file.Rule{
	ID:          "RP005",
	Name:        "reachability.unreachable",
	Group:       "reachability",
	Description: "Statement can never be executed.",
	Severity:    lint.SeverityWarning,
	Check:       checkUnreachable,
}

func checkUnreachable(ctx *file.Context) []lint.Diagnostic {
	tree := ctx.Tree

	var diags []lint.Diagnostic
	var block func(ids []ast.NodeID)
	var enter func(id ast.NodeID)

	block = func(ids []ast.NodeID) {
		terminated := false
		for _, id := range ids {
			n := tree.Node(id)
			if terminated {
				diags = append(diags, ctx.Diagnostic("RP005", lint.SeverityWarning, n.Span,
					"code is unreachable"))
				continue
			}
			enter(id)
			if terminates(tree, id) {
				terminated = true
			}
		}
	}

	// enter recurses into a statement's sub-blocks, each of which is an
	// independent region for reachability.
	enter = func(id ast.NodeID) {
		n := tree.Node(id)
		switch n.Kind {
		case ast.KindFunctionDef, ast.KindClassDef, ast.KindWith:
			block(n.Body)
		case ast.KindIf, ast.KindWhile, ast.KindFor:
			block(n.Body)
			block(n.Orelse)
		case ast.KindTry:
			block(n.Body)
			for _, hid := range n.Extra {
				block(tree.Node(hid).Body)
			}
			block(n.Orelse)
			if n.Finally != ast.NoNode {
				block(tree.Node(n.Finally).Body)
			}
		case ast.KindMatch:
			for _, cid := range n.Extra {
				block(tree.Node(cid).Body)
			}
		}
	}

	block(tree.Node(tree.Root).Body)
	return diags
}

// terminates reports whether the statement unconditionally ends control
// flow in its block.
func terminates(tree *ast.Tree, id ast.NodeID) bool {
	n := tree.Node(id)
	switch n.Kind {
	case ast.KindReturn, ast.KindRaise, ast.KindBreak, ast.KindContinue:
		return true

	case ast.KindIf:
		// exhaustive only with an else clause (elif chains nest)
		if len(n.Orelse) == 0 {
			return false
		}
		return blockTerminates(tree, n.Body) && blockTerminates(tree, n.Orelse)

	case ast.KindMatch:
		wildcard := false
		for _, cid := range n.Extra {
			c := tree.Node(cid)
			if !blockTerminates(tree, c.Body) {
				return false
			}
			if c.Value == ast.NoNode && len(c.Extra) > 0 && irrefutable(tree, c.Extra[0]) {
				wildcard = true
			}
		}
		return wildcard

	case ast.KindTry:
		if n.Finally != ast.NoNode && blockTerminates(tree, tree.Node(n.Finally).Body) {
			return true
		}
		if !blockTerminates(tree, n.Body) {
			return false
		}
		for _, hid := range n.Extra {
			if !blockTerminates(tree, tree.Node(hid).Body) {
				return false
			}
		}
		return len(n.Orelse) == 0 || blockTerminates(tree, n.Orelse)

	case ast.KindWith:
		return blockTerminates(tree, n.Body)
	}
	// loops are conservatively non-terminating: the body may not run
	return false
}

func blockTerminates(tree *ast.Tree, ids []ast.NodeID) bool {
	for _, id := range ids {
		if terminates(tree, id) {
			return true
		}
	}
	return false
}

// irrefutable reports whether a pattern matches any subject: the
// wildcard, a bare capture, or an as-pattern over either.
func irrefutable(tree *ast.Tree, id ast.NodeID) bool {
	n := tree.Node(id)
	switch n.Kind {
	case ast.KindPatternWildcard, ast.KindPatternCapture:
		return true
	case ast.KindPatternAs:
		return n.Value == ast.NoNode || irrefutable(tree, n.Value)
	case ast.KindPatternOr:
		for _, c := range n.Children {
			if irrefutable(tree, c) {
				return true
			}
		}
	}
	return false
}
