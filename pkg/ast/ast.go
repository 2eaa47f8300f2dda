// Package ast defines the syntax tree produced by pkg/parser.
//
// Per the "tree representation" design note, nodes live in a flat arena
// (Tree.Nodes) addressed by integer NodeID rather than via pointers, so
// parent/scope back-links are separate side-tables instead of
// ownership cycles. This keeps a file's tree cheap to build in one
// forward pass and cheap to discard in bulk once that file's
// diagnostics have been produced.
package ast

import "github.com/reap-dev/reap/pkg/token"

// NodeID addresses a Node within a Tree. NoNode (-1) never refers to a
// real node.
type NodeID int32

// NoNode is the absence of a node reference.
const NoNode NodeID = -1

// Kind identifies which statement/expression/pattern/support variant a
// Node represents. Field usage per Kind is documented beside each group
// below.
type Kind uint8

const (
	KindInvalid Kind = iota

	// --- Module ---
	KindModule // Body: top-level statements

	// --- Statements ---
	KindImport       // Children: Alias nodes
	KindImportFrom   // Name: module text; Flags: relative-dot count; Children: Alias nodes (or single '*' marker via Flags)
	KindAssign       // Children: target(s); Value: RHS
	KindAugAssign    // Target: lhs name/attr/subscript; Str: op text; Value: RHS
	KindAnnAssign    // Target: lhs; Type: annotation expr (Extra[0]); Value: RHS (NoNode if absent)
	KindFunctionDef  // Name; Params: Parameter nodes; Body; Decorators; Value: return annotation (NoNode if absent); Flags: async bit
	KindClassDef     // Name; Children: base-class exprs; Body; Decorators
	KindIf           // Value: condition; Body: then-block; Orelse: else/elif-chain block (may hold a single nested KindIf for elif)
	KindFor          // Target; Value: iterable; Body; Orelse; Flags: async bit
	KindWhile        // Value: condition; Body; Orelse
	KindWith         // Children: WithItem nodes; Body; Flags: async bit
	KindTry          // Body; Extra: ExceptHandler nodes; Orelse: else-block; Finally: KindPass node whose Body is the finally-block (NoNode if absent)
	KindMatch        // Value: subject; Extra: MatchCase nodes
	KindReturn       // Value: return expr (NoNode if bare)
	KindRaise        // Value: exception expr; Target: cause expr ("raise X from Y")
	KindBreak        //
	KindContinue     //
	KindPass         //
	KindGlobal       // Names: declared names
	KindNonlocal     // Names: declared names
	KindDelete       // Children: deleted targets
	KindExprStmt     // Value: the bare expression

	// --- Expressions ---
	KindName         // Name: identifier text
	KindLiteral      // Str/Number/Bool/None/Ellipsis literal; Str: source text (empty for None and ...); Flags: LitKind subtype
	KindBinOp        // Target: lhs; Value: rhs; Str: operator text
	KindUnaryOp      // Value: operand; Str: operator text
	KindBoolOp       // Children: operands (left-assoc chain); Str: "and"/"or"
	KindCompare      // Target: first operand; Children: subsequent operands; Names: per-pair operator text
	KindCall         // Target: callee; Children: positional args; Extra: keyword-arg nodes (KindKeyword)
	KindKeyword      // Name: kw name; Value: expr (a **kwargs argument is KindDoubleStarred instead)
	KindAttribute    // Target: base expr; Name: attribute name
	KindSubscript    // Target: base expr; Value: index/slice expr
	KindSlice        // Target: lower (NoNode if absent); Value: upper; Extra[0]: step
	KindTuple        // Children: elements
	KindList         // Children: elements
	KindDict         // Children: KindKeyword-shaped key/value pairs (Name unused, Target=key, Value=value)
	KindSet          // Children: elements
	KindComprehension // Value: element expr (or Target/Value pair for dict comp); Extra: CompFor nodes; Flags: kind (list/set/dict/gen)
	KindCompFor      // Target: loop target; Value: iterable; Extra: if-condition exprs; Flags: async bit
	KindIfExp        // Value: condition; Target: then-expr; Orelse2 via Extra[0]: else-expr
	KindLambda       // Params; Value: body expr
	KindNamed        // Target: bound name (KindName); Value: expr ("walrus", x := e)
	KindStarred      // Value: starred expr
	KindDoubleStarred // Value: dict-unpack expr (**d inside a dict/call)
	KindYield        // Value: yielded expr (NoNode if bare); Flags: "yield from" bit
	KindAwait        // Value: awaited expr
	KindFString      // Span covers the whole literal; internals are opaque

	// --- Patterns (match arms) ---
	KindPatternLiteral  // Value: literal expr
	KindPatternCapture  // Name: bound name ("_" => wildcard, represented as KindPatternWildcard instead)
	KindPatternWildcard //
	KindPatternValue    // Value: dotted-name expr compared by value
	KindPatternSequence // Children: sub-patterns
	KindPatternMapping  // Extra: KindKeyword-shaped key/pattern pairs
	KindPatternClass    // Target: class-name expr; Children: positional sub-patterns; Extra: keyword sub-patterns
	KindPatternOr       // Children: alternative patterns
	KindPatternAs       // Value: sub-pattern; Name: bound name

	// --- Support ---
	KindParameter  // Name; Value: default (NoNode if absent); Extra[0]: annotation; ParamK: ParamKind
	KindAlias      // Name: imported/original name; Str: local binding name ("" if none)
	KindDecorator  // Value: decorator expr
	KindWithItem   // Value: context-manager expr; Target: "as" binding (NoNode if absent)
	KindExceptHandler // Value: exception-type expr (NoNode for bare except); Name: "as" binding; Body
	KindMatchCase  // Extra[0]: pattern; Value: guard condition (NoNode if absent); Body
)

// CompKind distinguishes the four comprehension display forms, all of
// which share KindComprehension's shape.
type CompKind uint32

const (
	CompList CompKind = iota
	CompSet
	CompDict
	CompGen
)

// LitKind distinguishes the subtypes of a KindLiteral node, stored in
// its Flags field.
type LitKind uint32

const (
	LitString LitKind = iota
	LitNumber
	LitBool
	LitNone
	LitEllipsis
)

// ParamKind distinguishes the binding discipline of a Parameter node.
type ParamKind uint8

const (
	ParamPositional ParamKind = iota
	ParamPosOnly
	ParamKWOnly
	ParamVararg // *args
	ParamKwarg  // **kwargs
)

// Node is one entry in a Tree's arena. Not every field is meaningful for
// every Kind; see the comments beside each Kind constant above for which
// fields that Kind actually populates.
type Node struct {
	Kind Kind
	Span token.Span

	Name   string
	Str    string
	Names  []string
	Flags  uint32
	ParamK ParamKind

	Target NodeID
	Value  NodeID
	Finally NodeID

	Body   []NodeID
	Orelse []NodeID
	Extra  []NodeID
	Params []NodeID
	Decorators []NodeID
	Children []NodeID
}

// Tree is one file's parsed syntax tree: a flat node arena plus the
// parent side-table the binder and checkers consult. Scopes are not
// recorded here; pkg/binder maps scope-opening nodes to its scopes.
type Tree struct {
	Nodes []Node

	// Parent[id] is the enclosing node, or NoNode for the module node.
	Parent []NodeID

	// Root is the module node's id (always 0 when the tree is non-empty).
	Root NodeID
}

// New creates an empty Tree.
func New() *Tree {
	return &Tree{}
}

// Add appends a node and returns its id, recording parent in Parent.
//
// Target, Value, and Finally default to their Go zero value (0) when a
// constructor omits them, but 0 is also a potentially valid node id.
// Since id 0 is always the module root (never a legitimate Target/Value/
// Finally reference), zero in these fields unambiguously means "absent"
// and is normalized to NoNode here so callers can rely on the sentinel.
func (t *Tree) Add(n Node, parent NodeID) NodeID {
	if n.Target == 0 {
		n.Target = NoNode
	}
	if n.Value == 0 {
		n.Value = NoNode
	}
	if n.Finally == 0 {
		n.Finally = NoNode
	}
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, n)
	t.Parent = append(t.Parent, parent)
	return id
}

// Node returns the node at id. Callers must not hold the returned
// pointer across further calls to Add, which may reallocate the slice.
func (t *Tree) Node(id NodeID) *Node {
	if id == NoNode {
		return nil
	}
	return &t.Nodes[id]
}

// Set overwrites the node at id (used by the parser to backpatch spans
// and fields once a construct's full extent is known).
func (t *Tree) Set(id NodeID, n Node) {
	t.Nodes[id] = n
}
