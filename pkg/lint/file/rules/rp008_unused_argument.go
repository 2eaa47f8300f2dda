package rules

import (
	"strings"

	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
)

func init() {
	file.Register(UnusedArgument)
}

// UnusedArgument flags function parameters that are never read in the
// function body.
var UnusedArgument = file.Rule{
	ID:          "RP008",
	Name:        "arguments.unused",
	Group:       "arguments",
	Description: "Function parameter is never used.",
	Severity:    lint.SeverityWarning,
	Check:       checkUnusedArgument,
}

func checkUnusedArgument(ctx *file.Context) []lint.Diagnostic {
	t := ctx.Tables

	var diags []lint.Diagnostic
	for _, d := range t.Defs {
		if d.Kind != binder.DefParam {
			continue
		}
		fn := ctx.Tree.Node(d.FnNode)
		if fn.Kind != ast.KindFunctionDef {
			continue // lambda parameters are not reported
		}
		if strings.HasPrefix(d.Name, "_") {
			continue
		}
		p := ctx.Tree.Node(d.Node)
		if p.ParamK == ast.ParamVararg || p.ParamK == ast.ParamKwarg {
			continue
		}
		if d.ParamIndex == 0 && (d.Name == "self" || d.Name == "cls") && insideClass(t, d) {
			continue
		}
		if stubBody(ctx.Tree, fn) {
			continue
		}
		if hasAbstractDecorator(ctx.Tree, fn) {
			continue
		}
		if t.IsUsed(d.Scope, d.Name) {
			continue
		}
		diags = append(diags, ctx.Diagnostic("RP008", lint.SeverityWarning, p.Span,
			"argument `%s` is not used", d.Name))
	}
	return diags
}

func insideClass(t *binder.Tables, d binder.Def) bool {
	fs := t.ScopeOfNode(d.FnNode)
	if fs == binder.NoScope {
		return false
	}
	parent := t.Scopes[fs].Parent
	return parent != binder.NoScope && t.Scopes[parent].Kind == binder.ScopeClass
}

// stubBody reports whether a function body is only a stub: pass, an
// ellipsis, or a bare raise NotImplementedError, optionally preceded by
// a docstring.
func stubBody(tree *ast.Tree, fn *ast.Node) bool {
	body := fn.Body
	if len(body) > 0 && isDocstring(tree, body[0]) {
		body = body[1:]
	}
	if len(body) == 0 {
		return true
	}
	if len(body) != 1 {
		return false
	}
	n := tree.Node(body[0])
	switch n.Kind {
	case ast.KindPass:
		return true
	case ast.KindExprStmt:
		v := tree.Node(n.Value)
		return v != nil && v.Kind == ast.KindLiteral && ast.LitKind(v.Flags) == ast.LitEllipsis
	case ast.KindRaise:
		return raisesNotImplemented(tree, n.Value)
	}
	return false
}

func isDocstring(tree *ast.Tree, id ast.NodeID) bool {
	n := tree.Node(id)
	if n.Kind != ast.KindExprStmt {
		return false
	}
	v := tree.Node(n.Value)
	return v != nil && v.Kind == ast.KindLiteral && ast.LitKind(v.Flags) == ast.LitString
}

func raisesNotImplemented(tree *ast.Tree, id ast.NodeID) bool {
	n := tree.Node(id)
	if n == nil {
		return false
	}
	if n.Kind == ast.KindCall {
		n = tree.Node(n.Target)
	}
	return n != nil && n.Kind == ast.KindName && n.Name == "NotImplementedError"
}

func hasAbstractDecorator(tree *ast.Tree, fn *ast.Node) bool {
	for _, did := range fn.Decorators {
		name := decoratorName(tree, tree.Node(did).Value)
		if strings.HasSuffix(name, "abstractmethod") {
			return true
		}
	}
	return false
}

// decoratorName extracts the trailing identifier of a decorator
// expression: name, attribute tail, or the callee of a decorator
// factory call.
func decoratorName(tree *ast.Tree, id ast.NodeID) string {
	n := tree.Node(id)
	if n == nil {
		return ""
	}
	switch n.Kind {
	case ast.KindName:
		return n.Name
	case ast.KindAttribute:
		return n.Name
	case ast.KindCall:
		return decoratorName(tree, n.Target)
	}
	return ""
}
