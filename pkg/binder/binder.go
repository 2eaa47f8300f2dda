// Package binder walks a file's syntax tree to build its name tables:
// every binding introduced (imports, assignments, functions, classes,
// parameters, loop and comprehension targets, walrus, with/except
// targets), every name read, and the scope tree relating them. The
// tables are the shared input of the per-file rule checkers and of the
// project-wide unused-definition merge.
//
// The walk runs in two passes. The binding pass enumerates definitions
// and builds the scope tree; the reference pass enumerates reads. They
// are separate because a statement like "x = x + 1" both reads and
// writes x and the relative ordering of the two events decides whether
// the read satisfies an earlier binding or this one.
package binder

import (
	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/reap-dev/reap/pkg/token"
)

// ScopeID addresses a Scope within Tables.Scopes. The module scope is
// always id 0.
type ScopeID int32

// NoScope is the absence of a scope reference.
const NoScope ScopeID = -1

// ScopeKind identifies what construct opened a scope.
type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeLambda
	ScopeClass
	ScopeComprehension
)

// Scope is one region of uniform name resolution.
type Scope struct {
	Kind   ScopeKind
	Parent ScopeID
	Node   ast.NodeID // the node that opened this scope

	// Reflective is set when a call to locals() or vars() appears
	// anywhere within the scope's subtree. Such scopes exempt every
	// binding they hold from unused-variable reporting, since the call
	// may observe any of them.
	Reflective bool

	Globals   map[string]bool // names declared `global` in this scope
	Nonlocals map[string]bool // names declared `nonlocal` in this scope
}

// DefKind is the syntactic kind of a binding.
type DefKind uint8

const (
	DefImport DefKind = iota
	DefFunction
	DefClass
	DefAssign
	DefAugAssign
	DefAnnAssign
	DefParam
	DefLoopTarget
	DefCompTarget
	DefWalrus
	DefWithTarget
	DefExceptTarget
	DefCapture // match-arm capture/as pattern
)

// Def is one bound name.
type Def struct {
	Name  string
	Kind  DefKind
	Scope ScopeID
	Span  token.Span
	Node  ast.NodeID // binding node: alias for imports, name node for targets, parameter node
	Stmt  ast.NodeID // enclosing statement (import stmt, assign, def, for, ...)

	// Order is the binding's position in source evaluation order,
	// comparable with Use.Order within one file.
	Order int

	// Group is nonzero when the def came from tuple/list unpacking; all
	// components of one unpacking share a group id.
	Group int

	// Future marks an import from the forward-compatibility module.
	Future bool
	// ReExport marks a "from m import x as x" style re-export.
	ReExport bool

	// ParamIndex and FnNode are populated for DefParam: the parameter's
	// position in the def's parameter list and the owning function node.
	ParamIndex int
	FnNode     ast.NodeID
}

// Use is one read reference to a name.
type Use struct {
	Name  string
	Scope ScopeID
	Span  token.Span

	// Order is the read's position in source evaluation order. Reads
	// inside an assignment's right-hand side carry the assignment
	// statement's own order, so they never count as "subsequent" to the
	// bindings that same statement introduces.
	Order int
}

// bindingKey identifies one (scope, name) binding site.
type bindingKey struct {
	Scope ScopeID
	Name  string
}

// Tables is the per-file output of Bind: definitions, usages, the scope
// tree, and the module's export set.
type Tables struct {
	Tree *ast.Tree
	Buf  *source.Buffer

	Scopes []Scope
	Defs   []Def
	Uses   []Use

	// Exports holds the names listed in a module-level __all__ when it
	// is syntactically a list/tuple of string literals. ExportsOK is
	// false when no authoritative __all__ exists (absent, or written
	// via += / computed forms, which make the export set non-authoritative).
	Exports   map[string]bool
	ExportsOK bool

	scopeOf  map[ast.NodeID]ScopeID // scope opened by a node
	defsBy   map[bindingKey][]int   // indices into Defs
	resolved map[bindingKey][]int   // indices into Uses, keyed by the binding they satisfy
}

// Bind builds the name tables for one parsed file.
func Bind(buf *source.Buffer, tree *ast.Tree) *Tables {
	t := &Tables{
		Tree:    tree,
		Buf:     buf,
		scopeOf: make(map[ast.NodeID]ScopeID),
	}
	t.addScope(ScopeModule, NoScope, tree.Root)

	if tree.Root != ast.NoNode && len(tree.Nodes) > 0 {
		b := &bindPass{t: t}
		b.module()
		r := &refPass{t: t}
		r.module()
	}

	t.resolve()
	return t
}

func (t *Tables) addScope(kind ScopeKind, parent ScopeID, node ast.NodeID) ScopeID {
	id := ScopeID(len(t.Scopes))
	t.Scopes = append(t.Scopes, Scope{
		Kind:      kind,
		Parent:    parent,
		Node:      node,
		Globals:   make(map[string]bool),
		Nonlocals: make(map[string]bool),
	})
	t.scopeOf[node] = id
	return id
}

// ScopeOfNode returns the scope opened by node, or NoScope if node does
// not open one.
func (t *Tables) ScopeOfNode(node ast.NodeID) ScopeID {
	if id, ok := t.scopeOf[node]; ok {
		return id
	}
	return NoScope
}

// DefsOf returns the definitions of name in exactly the given scope.
func (t *Tables) DefsOf(scope ScopeID, name string) []Def {
	idxs := t.defsBy[bindingKey{scope, name}]
	defs := make([]Def, 0, len(idxs))
	for _, i := range idxs {
		defs = append(defs, t.Defs[i])
	}
	return defs
}

// UsesResolvedTo returns the reads that resolved to the binding of name
// in the given scope.
func (t *Tables) UsesResolvedTo(scope ScopeID, name string) []Use {
	idxs := t.resolved[bindingKey{scope, name}]
	uses := make([]Use, 0, len(idxs))
	for _, i := range idxs {
		uses = append(uses, t.Uses[i])
	}
	return uses
}

// IsUsed reports whether the binding of name in scope has any read.
func (t *Tables) IsUsed(scope ScopeID, name string) bool {
	return len(t.resolved[bindingKey{scope, name}]) > 0
}

// UsedAfter reports whether def has a read that could observe it: a
// read in the same scope later in evaluation order, or any read from a
// nested scope (closures may run at any time).
func (t *Tables) UsedAfter(def Def) bool {
	for _, i := range t.resolved[bindingKey{def.Scope, def.Name}] {
		u := t.Uses[i]
		if u.Scope != def.Scope || u.Order > def.Order {
			return true
		}
	}
	return false
}

// Exported reports whether name is listed in the module's authoritative
// __all__.
func (t *Tables) Exported(name string) bool {
	return t.ExportsOK && t.Exports[name]
}

// InsideTypeCheckingGuard reports whether node sits under an `if` whose
// condition references the type-checking sentinel identifier.
func (t *Tables) InsideTypeCheckingGuard(node ast.NodeID) bool {
	for cur := node; cur != ast.NoNode; cur = t.Tree.Parent[cur] {
		n := t.Tree.Node(cur)
		if n.Kind == ast.KindIf && IsTypeCheckingRef(t.Tree, n.Value) {
			return true
		}
	}
	return false
}

// IsTypeCheckingRef reports whether expr is a bare or attribute
// reference to TYPE_CHECKING.
func IsTypeCheckingRef(tree *ast.Tree, expr ast.NodeID) bool {
	n := tree.Node(expr)
	if n == nil {
		return false
	}
	switch n.Kind {
	case ast.KindName:
		return n.Name == "TYPE_CHECKING"
	case ast.KindAttribute:
		return n.Name == "TYPE_CHECKING"
	}
	return false
}

// resolve matches every Use against the innermost visible binding of
// its identifier, honoring global/nonlocal declarations and the rule
// that class bodies are invisible to nested function bodies.
func (t *Tables) resolve() {
	t.defsBy = make(map[bindingKey][]int)
	for i, d := range t.Defs {
		k := bindingKey{d.Scope, d.Name}
		t.defsBy[k] = append(t.defsBy[k], i)
	}

	t.resolved = make(map[bindingKey][]int)
	for i, u := range t.Uses {
		target := t.lookup(u.Scope, u.Name)
		if target == NoScope {
			continue
		}
		k := bindingKey{target, u.Name}
		t.resolved[k] = append(t.resolved[k], i)
	}
}

// lookup finds the scope whose binding of name a read in scope sc
// resolves to, or NoScope when the name resolves to nothing in this
// file (a builtin, or genuinely undefined).
func (t *Tables) lookup(sc ScopeID, name string) ScopeID {
	first := true
	for cur := sc; cur != NoScope; {
		s := &t.Scopes[cur]
		if s.Globals[name] {
			return 0
		}
		if s.Nonlocals[name] {
			cur = t.enclosingFunction(s.Parent)
			first = false
			continue
		}
		// Class bodies are scopes for names used directly within them,
		// but invisible to any nested scope.
		if !first && s.Kind == ScopeClass {
			cur = s.Parent
			continue
		}
		if _, ok := t.defsBy[bindingKey{cur, name}]; ok {
			return cur
		}
		cur = s.Parent
		first = false
	}
	return NoScope
}

// enclosingFunction returns the nearest function or lambda scope at or
// above sc, or NoScope.
func (t *Tables) enclosingFunction(sc ScopeID) ScopeID {
	for cur := sc; cur != NoScope; cur = t.Scopes[cur].Parent {
		k := t.Scopes[cur].Kind
		if k == ScopeFunction || k == ScopeLambda {
			return cur
		}
	}
	return NoScope
}

// hoistTarget returns the scope a walrus binding lands in: the nearest
// enclosing scope that is not a comprehension.
func (t *Tables) hoistTarget(sc ScopeID) ScopeID {
	for cur := sc; cur != NoScope; cur = t.Scopes[cur].Parent {
		if t.Scopes[cur].Kind != ScopeComprehension {
			return cur
		}
	}
	return 0
}

// markReflective flags sc and every scope above it, up to the module:
// a locals()/vars() call at any depth within a function makes
// that function's bindings observable.
func (t *Tables) markReflective(sc ScopeID) {
	for cur := sc; cur != NoScope; cur = t.Scopes[cur].Parent {
		t.Scopes[cur].Reflective = true
	}
}
