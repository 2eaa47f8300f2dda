package project

import (
	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/reap-dev/reap/pkg/token"
)

// Collect extracts one file's contributions to the project tables:
// its top-level and class-level function/class definitions, and every
// name reference it makes. Each file task fills its own slices; the
// merge pass concatenates them single-threaded once all tasks finish,
// so no locking is needed anywhere.
func Collect(path string, buf *source.Buffer, tables *binder.Tables) ([]Def, []Use) {
	tree := tables.Tree

	var defs []Def
	for _, d := range tables.Defs {
		var kind DefKind
		switch d.Kind {
		case binder.DefFunction:
			kind = DefFunction
		case binder.DefClass:
			kind = DefClass
		default:
			continue
		}
		// only module-level and class-level definitions participate;
		// names local to a function are not project-visible
		sk := tables.Scopes[d.Scope].Kind
		if sk != binder.ScopeModule && sk != binder.ScopeClass {
			continue
		}
		node := tree.Node(d.Node)
		defs = append(defs, Def{
			File:       path,
			Name:       d.Name,
			Kind:       kind,
			Span:       node.Span,
			Pos:        buf.Position(node.Span.Start),
			BodySpan:   bodySpan(tree, node),
			Decorators: decoratorNames(tree, node),
			Exported:   tables.Exported(d.Name),
		})
	}

	uses := make([]Use, 0, len(tables.Uses))
	for _, u := range tables.Uses {
		uses = append(uses, Use{File: path, Name: u.Name, Span: u.Span})
	}
	return defs, uses
}

// bodySpan covers a definition's suite only, excluding decorators,
// parameters, and defaults.
func bodySpan(tree *ast.Tree, node *ast.Node) token.Span {
	if len(node.Body) == 0 {
		return token.Span{Start: node.Span.End, End: node.Span.End}
	}
	first := tree.Node(node.Body[0]).Span
	last := tree.Node(node.Body[len(node.Body)-1]).Span
	return token.Span{Start: first.Start, End: last.End}
}

func decoratorNames(tree *ast.Tree, node *ast.Node) []string {
	if len(node.Decorators) == 0 {
		return nil
	}
	names := make([]string, 0, len(node.Decorators))
	for _, did := range node.Decorators {
		names = append(names, trailingName(tree, tree.Node(did).Value))
	}
	return names
}

func trailingName(tree *ast.Tree, id ast.NodeID) string {
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
		return trailingName(tree, n.Target)
	}
	return ""
}
