package binder

import (
	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/token"
)

// refPass is the second walk: it enumerates every name read. Scopes
// were already opened by the binding pass; this pass re-enters them via
// the scope-of-node table.
type refPass struct {
	t *Tables
}

// noClamp marks reads whose order is simply their source offset.
const noClamp = -1

func (r *refPass) module() {
	root := r.t.Tree.Node(r.t.Tree.Root)
	r.stmts(root.Body, 0)
	r.collectAllUses()
}

// collectAllUses treats each string member of an authoritative
// module-level __all__ as a usage of that name.
func (r *refPass) collectAllUses() {
	if !r.t.ExportsOK {
		return
	}
	root := r.t.Tree.Node(r.t.Tree.Root)
	for _, id := range root.Body {
		n := r.t.Tree.Node(id)
		if n.Kind != ast.KindAssign || len(n.Children) != 1 {
			continue
		}
		target := r.t.Tree.Node(n.Children[0])
		if target.Kind != ast.KindName || target.Name != "__all__" {
			continue
		}
		v := r.t.Tree.Node(n.Value)
		if v == nil || (v.Kind != ast.KindList && v.Kind != ast.KindTuple) {
			continue
		}
		for _, c := range v.Children {
			lit := r.t.Tree.Node(c)
			if s, ok := stringLiteralValue(lit); ok {
				r.use(s, lit.Span, 0, noClamp)
			}
		}
	}
}

func (r *refPass) use(name string, span token.Span, sc ScopeID, clamp int) {
	order := span.Start
	if clamp >= 0 {
		order = clamp
	}
	r.t.Uses = append(r.t.Uses, Use{Name: name, Scope: sc, Span: span, Order: order})
}

func (r *refPass) stmts(ids []ast.NodeID, sc ScopeID) {
	for _, id := range ids {
		r.stmt(id, sc)
	}
}

func (r *refPass) stmt(id ast.NodeID, sc ScopeID) {
	n := r.t.Tree.Node(id)
	switch n.Kind {
	case ast.KindImport, ast.KindImportFrom, ast.KindGlobal, ast.KindNonlocal,
		ast.KindPass, ast.KindBreak, ast.KindContinue:
		// no reads

	case ast.KindAssign:
		// Reads in the right-hand side carry the statement's own order,
		// so "x = x + 1" never counts as a read subsequent to the very
		// binding it introduces.
		r.expr(n.Value, sc, n.Span.Start)
		for _, target := range n.Children {
			r.target(target, sc, n.Span.Start)
		}

	case ast.KindAugAssign:
		r.expr(n.Value, sc, n.Span.Start)
		t := r.t.Tree.Node(n.Target)
		if t.Kind == ast.KindName {
			// augmented assignment reads its target
			r.use(t.Name, t.Span, sc, n.Span.Start)
		} else {
			r.expr(n.Target, sc, noClamp)
		}

	case ast.KindAnnAssign:
		if len(n.Extra) > 0 {
			r.expr(n.Extra[0], sc, noClamp)
		}
		r.expr(n.Value, sc, n.Span.Start)
		t := r.t.Tree.Node(n.Target)
		if t.Kind == ast.KindName {
			if n.Value != ast.NoNode {
				// annotated assignment with a value reads its target
				r.use(t.Name, t.Span, sc, n.Span.Start)
			}
		} else {
			r.expr(n.Target, sc, noClamp)
		}

	case ast.KindFunctionDef:
		for _, d := range n.Decorators {
			r.expr(r.t.Tree.Node(d).Value, sc, noClamp)
		}
		for _, pid := range n.Params {
			p := r.t.Tree.Node(pid)
			r.expr(p.Value, sc, noClamp)
			if len(p.Extra) > 0 {
				r.expr(p.Extra[0], sc, noClamp)
			}
		}
		r.expr(n.Value, sc, noClamp) // return annotation
		fs := r.t.ScopeOfNode(id)
		r.stmts(n.Body, fs)

	case ast.KindClassDef:
		for _, d := range n.Decorators {
			r.expr(r.t.Tree.Node(d).Value, sc, noClamp)
		}
		for _, base := range n.Children {
			r.expr(base, sc, noClamp)
		}
		cs := r.t.ScopeOfNode(id)
		r.stmts(n.Body, cs)

	case ast.KindIf, ast.KindWhile:
		r.expr(n.Value, sc, noClamp)
		r.stmts(n.Body, sc)
		r.stmts(n.Orelse, sc)

	case ast.KindFor:
		r.expr(n.Value, sc, noClamp)
		r.target(n.Target, sc, noClamp)
		r.stmts(n.Body, sc)
		r.stmts(n.Orelse, sc)

	case ast.KindWith:
		for _, itemID := range n.Children {
			item := r.t.Tree.Node(itemID)
			r.expr(item.Value, sc, noClamp)
			if item.Target != ast.NoNode {
				r.target(item.Target, sc, noClamp)
			}
		}
		r.stmts(n.Body, sc)

	case ast.KindTry:
		r.stmts(n.Body, sc)
		for _, hid := range n.Extra {
			h := r.t.Tree.Node(hid)
			r.expr(h.Value, sc, noClamp)
			r.stmts(h.Body, sc)
		}
		r.stmts(n.Orelse, sc)
		if n.Finally != ast.NoNode {
			r.stmts(r.t.Tree.Node(n.Finally).Body, sc)
		}

	case ast.KindMatch:
		r.expr(n.Value, sc, noClamp)
		for _, cid := range n.Extra {
			c := r.t.Tree.Node(cid)
			if len(c.Extra) > 0 {
				r.pattern(c.Extra[0], sc)
			}
			r.expr(c.Value, sc, noClamp)
			r.stmts(c.Body, sc)
		}

	case ast.KindDelete:
		for _, c := range n.Children {
			r.expr(c, sc, noClamp)
		}

	default:
		r.expr(n.Value, sc, noClamp)
		r.expr(n.Target, sc, noClamp)
	}
}

// target walks an assignment-target subtree in store context: plain
// names bind rather than read, but attribute/subscript bases and index
// expressions are reads.
func (r *refPass) target(id ast.NodeID, sc ScopeID, clamp int) {
	if id == ast.NoNode {
		return
	}
	n := r.t.Tree.Node(id)
	switch n.Kind {
	case ast.KindName:
		// store, not a read
	case ast.KindTuple, ast.KindList:
		for _, c := range n.Children {
			r.target(c, sc, clamp)
		}
	case ast.KindStarred:
		r.target(n.Value, sc, clamp)
	case ast.KindAttribute:
		r.expr(n.Target, sc, clamp)
	case ast.KindSubscript:
		r.expr(n.Target, sc, clamp)
		r.expr(n.Value, sc, clamp)
	default:
		r.expr(id, sc, clamp)
	}
}

func (r *refPass) expr(id ast.NodeID, sc ScopeID, clamp int) {
	if id == ast.NoNode {
		return
	}
	n := r.t.Tree.Node(id)
	switch n.Kind {
	case ast.KindName:
		r.use(n.Name, n.Span, sc, clamp)

	case ast.KindAttribute:
		// only the base of a.b counts as a usage
		r.expr(n.Target, sc, clamp)

	case ast.KindNamed:
		r.expr(n.Value, sc, clamp)

	case ast.KindLambda:
		for _, pid := range n.Params {
			r.expr(r.t.Tree.Node(pid).Value, sc, noClamp)
		}
		ls := r.t.ScopeOfNode(id)
		r.expr(n.Value, ls, noClamp)

	case ast.KindComprehension:
		cs := r.t.ScopeOfNode(id)
		for i, cid := range n.Extra {
			c := r.t.Tree.Node(cid)
			iterScope := cs
			if i == 0 {
				iterScope = sc
			}
			r.expr(c.Value, iterScope, noClamp)
			r.target(c.Target, cs, noClamp)
			for _, cond := range c.Extra {
				r.expr(cond, cs, noClamp)
			}
		}
		r.expr(n.Value, cs, noClamp)

	case ast.KindFString:
		r.scrapeFString(n.Span, sc)

	case ast.KindLiteral:
		// nothing

	default:
		r.expr(n.Target, sc, clamp)
		r.expr(n.Value, sc, clamp)
		for _, c := range n.Children {
			r.expr(c, sc, clamp)
		}
		for _, c := range n.Extra {
			r.expr(c, sc, clamp)
		}
	}
}

// pattern walks a match pattern for reads: value patterns and class
// patterns reference existing names; captures bind and are not reads.
func (r *refPass) pattern(id ast.NodeID, sc ScopeID) {
	if id == ast.NoNode {
		return
	}
	n := r.t.Tree.Node(id)
	switch n.Kind {
	case ast.KindPatternValue:
		r.expr(n.Value, sc, noClamp)
	case ast.KindPatternLiteral:
		r.expr(n.Value, sc, noClamp)
	case ast.KindPatternClass:
		r.expr(n.Target, sc, noClamp)
		for _, c := range n.Children {
			r.pattern(c, sc)
		}
		for _, kv := range n.Extra {
			r.pattern(r.t.Tree.Node(kv).Value, sc)
		}
	case ast.KindPatternAs:
		r.pattern(n.Value, sc)
	case ast.KindPatternSequence, ast.KindPatternOr:
		for _, c := range n.Children {
			r.pattern(c, sc)
		}
	case ast.KindPatternMapping:
		for _, kv := range n.Extra {
			entry := r.t.Tree.Node(kv)
			r.expr(entry.Target, sc, noClamp)
			r.pattern(entry.Value, sc)
		}
	}
}

// scrapeFString scans an f-string literal's raw text for
// identifier-like substrings and records each as a potential usage.
// The internal structure is never parsed, so this deliberately
// over-reports "used" and never under-reports.
func (r *refPass) scrapeFString(span token.Span, sc ScopeID) {
	text := r.t.Buf.Slice(span)

	// Skip the prefix letters before the opening quote so the `f` in
	// f"..." doesn't register as a usage of a name f.
	start := 0
	for start < len(text) && text[start] != '\'' && text[start] != '"' {
		start++
	}

	seen := make(map[string]bool)
	i := start
	for i < len(text) {
		if !identStart(text[i]) {
			i++
			continue
		}
		j := i
		for j < len(text) && identCont(text[j]) {
			j++
		}
		word := string(text[i:j])
		if !seen[word] {
			seen[word] = true
			r.use(word, token.Span{Start: span.Start + i, End: span.Start + j}, sc, noClamp)
		}
		i = j
	}
}

func identStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func identCont(ch byte) bool {
	return identStart(ch) || (ch >= '0' && ch <= '9')
}
