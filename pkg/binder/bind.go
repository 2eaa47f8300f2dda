package binder

import (
	"strings"

	"github.com/reap-dev/reap/pkg/ast"
)

// bindPass is the first walk: it enumerates every binding, opens the
// scope tree, records global/nonlocal declarations, extracts the
// module's __all__ export set, and flags reflective scopes.
type bindPass struct {
	t        *Tables
	groupSeq int
	allDirty bool // __all__ was touched by a dynamic form
}

func (b *bindPass) module() {
	root := b.t.Tree.Node(b.t.Tree.Root)
	b.stmts(root.Body, 0)
}

func (b *bindPass) stmts(ids []ast.NodeID, sc ScopeID) {
	for _, id := range ids {
		b.stmt(id, sc)
	}
}

func (b *bindPass) stmt(id ast.NodeID, sc ScopeID) {
	n := b.t.Tree.Node(id)
	switch n.Kind {
	case ast.KindImport:
		for _, aliasID := range n.Children {
			alias := b.t.Tree.Node(aliasID)
			local := alias.Str
			if local == "" {
				local = firstSegment(alias.Name)
			}
			b.def(Def{Name: local, Kind: DefImport, Span: alias.Span, Node: aliasID, Stmt: id}, sc)
		}

	case ast.KindImportFrom:
		future := n.Name == "__future__"
		for _, aliasID := range n.Children {
			alias := b.t.Tree.Node(aliasID)
			local := alias.Str
			if local == "" {
				local = alias.Name
			}
			b.def(Def{
				Name:     local,
				Kind:     DefImport,
				Span:     alias.Span,
				Node:     aliasID,
				Stmt:     id,
				Future:   future,
				ReExport: alias.Str != "" && alias.Str == alias.Name,
			}, sc)
		}

	case ast.KindAssign:
		if sc == 0 {
			b.maybeCollectAll(n)
		}
		b.expr(n.Value, sc)
		for _, target := range n.Children {
			b.target(target, sc, DefAssign, id, 0)
		}

	case ast.KindAugAssign:
		if sc == 0 && b.targetIsAll(n.Target) {
			b.poisonAll()
		}
		b.expr(n.Value, sc)
		t := b.t.Tree.Node(n.Target)
		if t.Kind == ast.KindName {
			b.def(Def{Name: t.Name, Kind: DefAugAssign, Span: t.Span, Node: n.Target, Stmt: id}, sc)
		} else {
			b.expr(n.Target, sc)
		}

	case ast.KindAnnAssign:
		if len(n.Extra) > 0 {
			b.expr(n.Extra[0], sc)
		}
		b.expr(n.Value, sc)
		t := b.t.Tree.Node(n.Target)
		if t.Kind == ast.KindName {
			b.def(Def{Name: t.Name, Kind: DefAnnAssign, Span: t.Span, Node: n.Target, Stmt: id}, sc)
		} else {
			b.expr(n.Target, sc)
		}

	case ast.KindFunctionDef:
		b.def(Def{Name: n.Name, Kind: DefFunction, Span: n.Span, Node: id, Stmt: id}, sc)
		for _, d := range n.Decorators {
			b.expr(b.t.Tree.Node(d).Value, sc)
		}
		for _, pid := range n.Params {
			p := b.t.Tree.Node(pid)
			b.expr(p.Value, sc) // default
			if len(p.Extra) > 0 {
				b.expr(p.Extra[0], sc) // annotation
			}
		}
		b.expr(n.Value, sc) // return annotation
		fs := b.t.addScope(ScopeFunction, sc, id)
		b.scanDecls(n.Body, fs)
		for i, pid := range n.Params {
			p := b.t.Tree.Node(pid)
			b.def(Def{Name: p.Name, Kind: DefParam, Span: p.Span, Node: pid, Stmt: id, ParamIndex: i, FnNode: id}, fs)
		}
		b.stmts(n.Body, fs)

	case ast.KindClassDef:
		b.def(Def{Name: n.Name, Kind: DefClass, Span: n.Span, Node: id, Stmt: id}, sc)
		for _, d := range n.Decorators {
			b.expr(b.t.Tree.Node(d).Value, sc)
		}
		for _, base := range n.Children {
			b.expr(base, sc)
		}
		cs := b.t.addScope(ScopeClass, sc, id)
		b.scanDecls(n.Body, cs)
		b.stmts(n.Body, cs)

	case ast.KindIf, ast.KindWhile:
		b.expr(n.Value, sc)
		b.stmts(n.Body, sc)
		b.stmts(n.Orelse, sc)

	case ast.KindFor:
		b.expr(n.Value, sc)
		b.target(n.Target, sc, DefLoopTarget, id, 0)
		b.stmts(n.Body, sc)
		b.stmts(n.Orelse, sc)

	case ast.KindWith:
		for _, itemID := range n.Children {
			item := b.t.Tree.Node(itemID)
			b.expr(item.Value, sc)
			if item.Target != ast.NoNode {
				b.target(item.Target, sc, DefWithTarget, id, 0)
			}
		}
		b.stmts(n.Body, sc)

	case ast.KindTry:
		b.stmts(n.Body, sc)
		for _, hid := range n.Extra {
			h := b.t.Tree.Node(hid)
			b.expr(h.Value, sc)
			if h.Name != "" {
				b.def(Def{Name: h.Name, Kind: DefExceptTarget, Span: h.Span, Node: hid, Stmt: id}, sc)
			}
			b.stmts(h.Body, sc)
		}
		b.stmts(n.Orelse, sc)
		if n.Finally != ast.NoNode {
			b.stmts(b.t.Tree.Node(n.Finally).Body, sc)
		}

	case ast.KindMatch:
		b.expr(n.Value, sc)
		for _, cid := range n.Extra {
			c := b.t.Tree.Node(cid)
			if len(c.Extra) > 0 {
				b.pattern(c.Extra[0], sc, cid)
			}
			b.expr(c.Value, sc)
			b.stmts(c.Body, sc)
		}

	case ast.KindReturn, ast.KindExprStmt:
		b.expr(n.Value, sc)
		b.expr(n.Target, sc)

	case ast.KindRaise:
		b.expr(n.Value, sc)
		b.expr(n.Target, sc)

	case ast.KindDelete:
		for _, c := range n.Children {
			b.expr(c, sc)
		}

	case ast.KindGlobal:
		for _, name := range n.Names {
			b.t.Scopes[sc].Globals[name] = true
		}

	case ast.KindNonlocal:
		for _, name := range n.Names {
			b.t.Scopes[sc].Nonlocals[name] = true
		}
	}
}

// scanDecls pre-collects global/nonlocal declarations for a freshly
// opened scope before its bindings are recorded: the declarations
// rebind a name for the entire enclosing function, even when they
// appear after the first assignment textually.
func (b *bindPass) scanDecls(body []ast.NodeID, sc ScopeID) {
	var walk func(ids []ast.NodeID)
	walk = func(ids []ast.NodeID) {
		for _, id := range ids {
			n := b.t.Tree.Node(id)
			switch n.Kind {
			case ast.KindGlobal:
				for _, name := range n.Names {
					b.t.Scopes[sc].Globals[name] = true
				}
			case ast.KindNonlocal:
				for _, name := range n.Names {
					b.t.Scopes[sc].Nonlocals[name] = true
				}
			case ast.KindFunctionDef, ast.KindClassDef:
				// new scope, declarations inside belong to it
			case ast.KindIf, ast.KindWhile, ast.KindFor, ast.KindWith:
				walk(n.Body)
				walk(n.Orelse)
			case ast.KindTry:
				walk(n.Body)
				for _, hid := range n.Extra {
					walk(b.t.Tree.Node(hid).Body)
				}
				walk(n.Orelse)
				if n.Finally != ast.NoNode {
					walk(b.t.Tree.Node(n.Finally).Body)
				}
			case ast.KindMatch:
				for _, cid := range n.Extra {
					walk(b.t.Tree.Node(cid).Body)
				}
			}
		}
	}
	walk(body)
}

// def records a binding, honoring global/nonlocal redirection.
func (b *bindPass) def(d Def, sc ScopeID) {
	d.Scope = b.redirect(sc, d.Name)
	d.Order = d.Span.Start
	b.t.Defs = append(b.t.Defs, d)
}

func (b *bindPass) redirect(sc ScopeID, name string) ScopeID {
	s := &b.t.Scopes[sc]
	if s.Globals[name] {
		return 0
	}
	if s.Nonlocals[name] {
		if fn := b.t.enclosingFunction(s.Parent); fn != NoScope {
			return fn
		}
	}
	return sc
}

// target records bindings for an assignment-target subtree. Components
// of one tuple/list unpacking share a group id so the unused-variable
// checker can treat the unpacking as all-or-nothing.
func (b *bindPass) target(id ast.NodeID, sc ScopeID, kind DefKind, stmt ast.NodeID, group int) {
	if id == ast.NoNode {
		return
	}
	n := b.t.Tree.Node(id)
	switch n.Kind {
	case ast.KindName:
		b.def(Def{Name: n.Name, Kind: kind, Span: n.Span, Node: id, Stmt: stmt, Group: group}, sc)
	case ast.KindTuple, ast.KindList:
		if group == 0 && len(n.Children) > 1 {
			b.groupSeq++
			group = b.groupSeq
		}
		for _, c := range n.Children {
			b.target(c, sc, kind, stmt, group)
		}
	case ast.KindStarred:
		b.target(n.Value, sc, kind, stmt, group)
	case ast.KindAttribute:
		b.expr(n.Target, sc)
	case ast.KindSubscript:
		b.expr(n.Target, sc)
		b.expr(n.Value, sc)
	default:
		b.expr(id, sc)
	}
}

// expr walks an expression subtree looking for constructs that bind
// names or open scopes: walrus assignments, lambdas, comprehensions,
// and calls to the reflective name-capture builtins.
func (b *bindPass) expr(id ast.NodeID, sc ScopeID) {
	if id == ast.NoNode {
		return
	}
	n := b.t.Tree.Node(id)
	switch n.Kind {
	case ast.KindNamed:
		t := b.t.Tree.Node(n.Target)
		if t.Kind == ast.KindName {
			hoisted := b.t.hoistTarget(sc)
			b.def(Def{Name: t.Name, Kind: DefWalrus, Span: t.Span, Node: n.Target, Stmt: id}, hoisted)
		}
		b.expr(n.Value, sc)

	case ast.KindLambda:
		for _, pid := range n.Params {
			b.expr(b.t.Tree.Node(pid).Value, sc) // defaults evaluate outside
		}
		ls := b.t.addScope(ScopeLambda, sc, id)
		for i, pid := range n.Params {
			p := b.t.Tree.Node(pid)
			b.def(Def{Name: p.Name, Kind: DefParam, Span: p.Span, Node: pid, Stmt: id, ParamIndex: i, FnNode: id}, ls)
		}
		b.expr(n.Value, ls)

	case ast.KindComprehension:
		cs := b.t.addScope(ScopeComprehension, sc, id)
		for i, cid := range n.Extra {
			c := b.t.Tree.Node(cid)
			iterScope := cs
			if i == 0 {
				iterScope = sc // outermost iterable evaluates in the enclosing scope
			}
			b.expr(c.Value, iterScope)
			b.target(c.Target, cs, DefCompTarget, id, 0)
			for _, cond := range c.Extra {
				b.expr(cond, cs)
			}
		}
		b.expr(n.Value, cs)

	case ast.KindCall:
		callee := b.t.Tree.Node(n.Target)
		if callee != nil && callee.Kind == ast.KindName && (callee.Name == "locals" || callee.Name == "vars") {
			b.t.markReflective(sc)
		}
		b.expr(n.Target, sc)
		for _, c := range n.Children {
			b.expr(c, sc)
		}
		for _, c := range n.Extra {
			b.expr(c, sc)
		}

	case ast.KindFString, ast.KindLiteral, ast.KindName:
		// no bindings inside

	default:
		b.expr(n.Target, sc)
		b.expr(n.Value, sc)
		for _, c := range n.Children {
			b.expr(c, sc)
		}
		for _, c := range n.Extra {
			b.expr(c, sc)
		}
	}
}

// pattern records capture bindings inside a match arm's pattern.
func (b *bindPass) pattern(id ast.NodeID, sc ScopeID, stmt ast.NodeID) {
	if id == ast.NoNode {
		return
	}
	n := b.t.Tree.Node(id)
	switch n.Kind {
	case ast.KindPatternCapture:
		b.def(Def{Name: n.Name, Kind: DefCapture, Span: n.Span, Node: id, Stmt: stmt}, sc)
	case ast.KindPatternAs:
		b.pattern(n.Value, sc, stmt)
		if n.Name != "" {
			b.def(Def{Name: n.Name, Kind: DefCapture, Span: n.Span, Node: id, Stmt: stmt}, sc)
		}
	case ast.KindPatternSequence, ast.KindPatternOr:
		for _, c := range n.Children {
			b.pattern(c, sc, stmt)
		}
	case ast.KindPatternMapping:
		for _, kv := range n.Extra {
			b.pattern(b.t.Tree.Node(kv).Value, sc, stmt)
		}
	case ast.KindPatternClass:
		for _, c := range n.Children {
			b.pattern(c, sc, stmt)
		}
		for _, kv := range n.Extra {
			b.pattern(b.t.Tree.Node(kv).Value, sc, stmt)
		}
	}
}

// maybeCollectAll extracts the export set from a module-level
// `__all__ = [...]` whose value is a list/tuple of string literals.
// Assigning any other value to __all__ at module level, or augmenting
// it there (see stmt), makes the export set non-authoritative for the
// whole file; method calls such as __all__.extend(...) are not seen.
func (b *bindPass) maybeCollectAll(n *ast.Node) {
	if len(n.Children) != 1 || !b.targetIsAll(n.Children[0]) {
		return
	}
	v := b.t.Tree.Node(n.Value)
	if v == nil || (v.Kind != ast.KindList && v.Kind != ast.KindTuple) {
		b.poisonAll()
		return
	}
	names := make(map[string]bool, len(v.Children))
	for _, c := range v.Children {
		lit := b.t.Tree.Node(c)
		s, ok := stringLiteralValue(lit)
		if !ok {
			b.poisonAll()
			return
		}
		names[s] = true
	}
	if b.allDirty {
		return
	}
	b.t.Exports = names
	b.t.ExportsOK = true
}

func (b *bindPass) targetIsAll(id ast.NodeID) bool {
	n := b.t.Tree.Node(id)
	return n != nil && n.Kind == ast.KindName && n.Name == "__all__"
}

func (b *bindPass) poisonAll() {
	b.allDirty = true
	b.t.Exports = nil
	b.t.ExportsOK = false
}

// stringLiteralValue unquotes a single simple string literal node. It
// handles prefix letters and single/triple quoting but not escape
// sequences or implicit concatenation; anything fancier is treated as
// non-literal.
func stringLiteralValue(n *ast.Node) (string, bool) {
	if n == nil || n.Kind != ast.KindLiteral {
		return "", false
	}
	s := n.Str
	i := 0
	for i < len(s) && s[i] != '\'' && s[i] != '"' {
		i++
	}
	if i == len(s) || i > 2 {
		return "", false
	}
	s = s[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			inner := s[len(q) : len(s)-len(q)]
			if strings.ContainsAny(inner, `"'\`) {
				return "", false
			}
			return inner, true
		}
	}
	return "", false
}

func firstSegment(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}
