package parser

import (
	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/token"
)

// parseExpr parses a single expression: the "test" production (ternary
// if-expr, lambda, or an or-test), but not a comma-separated list; that
// is parseTestListStarExpr's job. A starred or yield expression is
// accepted at the atom level (see parseAtom).
func (p *Parser) parseExpr(parent ast.NodeID) ast.NodeID {
	if p.at(token.LAMBDA) {
		return p.parseLambda(parent)
	}
	start := p.cur().Span.Start
	cond := p.parseOrTest(parent)
	if p.at(token.IF) {
		p.advance()
		test := p.parseOrTest(parent)
		p.expect(token.ELSE)
		els := p.parseExpr(parent)
		return p.add(ast.Node{Kind: ast.KindIfExp, Value: test, Target: cond, Extra: []ast.NodeID{els}, Span: p.spanFrom(start)}, parent)
	}
	return cond
}

// parseNamedTestExpr parses an expression that may be a walrus target at
// its own level (used directly by if/while/assert conditions).
func (p *Parser) parseNamedTestExpr(parent ast.NodeID) ast.NodeID {
	return p.parseExpr(parent)
}

func (p *Parser) parseLambda(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'lambda'
	id := p.add(ast.Node{Kind: ast.KindLambda}, parent)
	var params []ast.NodeID
	for !p.at(token.COLON) && !p.at(token.ENDMARKER) {
		pstart := p.cur().Span.Start
		switch {
		case p.at(token.STAR):
			p.advance()
			if p.at(token.IDENT) {
				name := p.text(p.advance())
				params = append(params, p.add(ast.Node{Kind: ast.KindParameter, Name: name, Value: ast.NoNode, ParamK: ast.ParamVararg, Span: p.spanFrom(pstart)}, id))
			}
		case p.at(token.DOUBLESTAR):
			p.advance()
			name := p.text(p.expect(token.IDENT))
			params = append(params, p.add(ast.Node{Kind: ast.KindParameter, Name: name, Value: ast.NoNode, ParamK: ast.ParamKwarg, Span: p.spanFrom(pstart)}, id))
		case p.at(token.IDENT):
			name := p.text(p.advance())
			def := ast.NoNode
			if p.at(token.ASSIGN) {
				p.advance()
				def = p.parseExpr(id)
			}
			params = append(params, p.add(ast.Node{Kind: ast.KindParameter, Name: name, Value: def, Span: p.spanFrom(pstart)}, id))
		default:
			p.errorf("unexpected token %s in lambda parameter list", p.cur().Kind)
			p.advance()
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.COLON)
	body := p.parseExpr(id)
	n := p.tree.Node(id)
	n.Params = params
	n.Value = body
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseOrTest(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	first := p.parseAndTest(parent)
	if !p.at(token.OR) {
		return first
	}
	items := []ast.NodeID{first}
	for p.at(token.OR) {
		p.advance()
		items = append(items, p.parseAndTest(parent))
	}
	return p.add(ast.Node{Kind: ast.KindBoolOp, Str: "or", Children: items, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseAndTest(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	first := p.parseNotTest(parent)
	if !p.at(token.AND) {
		return first
	}
	items := []ast.NodeID{first}
	for p.at(token.AND) {
		p.advance()
		items = append(items, p.parseNotTest(parent))
	}
	return p.add(ast.Node{Kind: ast.KindBoolOp, Str: "and", Children: items, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseNotTest(parent ast.NodeID) ast.NodeID {
	if p.at(token.NOT) {
		start := p.cur().Span.Start
		p.advance()
		operand := p.parseNotTest(parent)
		return p.add(ast.Node{Kind: ast.KindUnaryOp, Str: "not", Value: operand, Span: p.spanFrom(start)}, parent)
	}
	return p.parseComparison(parent)
}

func (p *Parser) parseComparison(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	first := p.parseOrExpr(parent)
	if !p.isCompareOp() {
		return first
	}
	var ops []string
	items := []ast.NodeID{}
	for p.isCompareOp() {
		op := p.compareOpText()
		ops = append(ops, op)
		items = append(items, p.parseOrExpr(parent))
	}
	return p.add(ast.Node{Kind: ast.KindCompare, Target: first, Children: items, Names: ops, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) isCompareOp() bool {
	switch p.cur().Kind {
	case token.LT, token.GT, token.EQ, token.GE, token.LE, token.NE, token.IN:
		return true
	case token.NOT:
		return p.peekIs(1, token.IN)
	case token.IS:
		return true
	}
	return false
}

// peekIs reports whether the token n positions ahead has kind k.
func (p *Parser) peekIs(n int, k token.Kind) bool {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return false
	}
	return p.toks[idx].Kind == k
}

func (p *Parser) compareOpText() string {
	switch p.cur().Kind {
	case token.NOT:
		p.advance() // 'not'
		p.advance() // 'in'
		return "not in"
	case token.IS:
		p.advance()
		if p.at(token.NOT) {
			p.advance()
			return "is not"
		}
		return "is"
	default:
		s := p.cur().Kind.String()
		p.advance()
		return s
	}
}

func (p *Parser) parseOrExpr(parent ast.NodeID) ast.NodeID {
	return p.parseBinOpLevel(parent, []token.Kind{token.PIPE}, p.parseXorExpr)
}
func (p *Parser) parseXorExpr(parent ast.NodeID) ast.NodeID {
	return p.parseBinOpLevel(parent, []token.Kind{token.CARET}, p.parseAndExpr)
}
func (p *Parser) parseAndExpr(parent ast.NodeID) ast.NodeID {
	return p.parseBinOpLevel(parent, []token.Kind{token.AMP}, p.parseShiftExpr)
}
func (p *Parser) parseShiftExpr(parent ast.NodeID) ast.NodeID {
	return p.parseBinOpLevel(parent, []token.Kind{token.LSHIFT, token.RSHIFT}, p.parseArithExpr)
}
func (p *Parser) parseArithExpr(parent ast.NodeID) ast.NodeID {
	return p.parseBinOpLevel(parent, []token.Kind{token.PLUS, token.MINUS}, p.parseTerm)
}
func (p *Parser) parseTerm(parent ast.NodeID) ast.NodeID {
	return p.parseBinOpLevel(parent, []token.Kind{token.STAR, token.SLASH, token.DSLASH, token.PERCENT, token.AT}, p.parseFactor)
}

func (p *Parser) parseBinOpLevel(parent ast.NodeID, ops []token.Kind, next func(ast.NodeID) ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	left := next(parent)
	for p.atAny(ops...) {
		op := p.text(p.cur())
		p.advance()
		right := next(parent)
		left = p.add(ast.Node{Kind: ast.KindBinOp, Target: left, Value: right, Str: op, Span: p.spanFrom(start)}, parent)
	}
	return left
}

func (p *Parser) parseFactor(parent ast.NodeID) ast.NodeID {
	if p.atAny(token.PLUS, token.MINUS, token.TILDE) {
		start := p.cur().Span.Start
		op := p.text(p.cur())
		p.advance()
		operand := p.parseFactor(parent)
		return p.add(ast.Node{Kind: ast.KindUnaryOp, Str: op, Value: operand, Span: p.spanFrom(start)}, parent)
	}
	return p.parsePower(parent)
}

func (p *Parser) parsePower(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	base := p.parseAwaitExpr(parent)
	if p.at(token.DOUBLESTAR) {
		p.advance()
		exp := p.parseFactor(parent) // right-assoc
		return p.add(ast.Node{Kind: ast.KindBinOp, Target: base, Value: exp, Str: "**", Span: p.spanFrom(start)}, parent)
	}
	return base
}

func (p *Parser) parseAwaitExpr(parent ast.NodeID) ast.NodeID {
	if p.at(token.AWAIT) {
		start := p.cur().Span.Start
		p.advance()
		operand := p.parsePostfix(parent)
		return p.add(ast.Node{Kind: ast.KindAwait, Value: operand, Span: p.spanFrom(start)}, parent)
	}
	return p.parsePostfix(parent)
}

// parsePostfix parses an atom followed by any chain of call/attribute/
// subscript trailers.
func (p *Parser) parsePostfix(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	expr := p.parseAtom(parent)
	for {
		switch {
		case p.at(token.DOT):
			p.advance()
			name := p.text(p.expect(token.IDENT))
			expr = p.add(ast.Node{Kind: ast.KindAttribute, Target: expr, Name: name, Span: p.spanFrom(start)}, parent)
		case p.at(token.LPAREN):
			expr = p.parseCall(parent, expr, start)
		case p.at(token.LBRACKET):
			expr = p.parseSubscript(parent, expr, start)
		default:
			return expr
		}
	}
}

func (p *Parser) parseCall(parent ast.NodeID, callee ast.NodeID, start int) ast.NodeID {
	p.advance() // '('
	id := p.add(ast.Node{Kind: ast.KindCall, Target: callee}, parent)
	var args, kwargs []ast.NodeID
	for !p.at(token.RPAREN) && !p.at(token.ENDMARKER) {
		a := p.parseCallArg(id)
		if p.tree.Node(a).Kind == ast.KindKeyword {
			kwargs = append(kwargs, a)
		} else {
			args = append(args, a)
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	n := p.tree.Node(id)
	n.Children = args
	n.Extra = kwargs
	n.Span = p.spanFrom(start)
	return id
}

// parseCallArg parses one call argument: positional, *args-unpack,
// **kwargs-unpack, keyword=value, or a generator-expression argument.
func (p *Parser) parseCallArg(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	if p.at(token.STAR) {
		p.advance()
		v := p.parseExpr(parent)
		return p.add(ast.Node{Kind: ast.KindStarred, Value: v, Span: p.spanFrom(start)}, parent)
	}
	if p.at(token.DOUBLESTAR) {
		p.advance()
		v := p.parseExpr(parent)
		return p.add(ast.Node{Kind: ast.KindDoubleStarred, Value: v, Span: p.spanFrom(start)}, parent)
	}
	if p.at(token.IDENT) && p.peekIs(1, token.ASSIGN) {
		name := p.text(p.advance())
		p.advance() // '='
		v := p.parseExpr(parent)
		return p.add(ast.Node{Kind: ast.KindKeyword, Name: name, Value: v, Span: p.spanFrom(start)}, parent)
	}
	expr := p.parseExpr(parent)
	if p.at(token.FOR) || p.at(token.ASYNC) {
		return p.parseComprehensionTail(parent, expr, start, ast.CompGen)
	}
	return expr
}

func (p *Parser) parseSubscript(parent ast.NodeID, base ast.NodeID, start int) ast.NodeID {
	p.advance() // '['
	idx := p.parseSubscriptItem(parent)
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACKET) {
			break
		}
		// tuple-of-slices subscript: fold into a KindTuple of items
		idx = p.foldSubscriptTuple(parent, idx, start)
	}
	p.expect(token.RBRACKET)
	return p.add(ast.Node{Kind: ast.KindSubscript, Target: base, Value: idx, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) foldSubscriptTuple(parent ast.NodeID, first ast.NodeID, start int) ast.NodeID {
	items := []ast.NodeID{first, p.parseSubscriptItem(parent)}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACKET) {
			break
		}
		items = append(items, p.parseSubscriptItem(parent))
	}
	return p.add(ast.Node{Kind: ast.KindTuple, Children: items, Span: p.spanFrom(start)}, parent)
}

// parseSubscriptItem parses one slice-or-expr component of a subscript.
func (p *Parser) parseSubscriptItem(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	var lower ast.NodeID = ast.NoNode
	if !p.at(token.COLON) {
		lower = p.parseExpr(parent)
	}
	if !p.at(token.COLON) {
		return lower
	}
	p.advance() // ':'
	var upper ast.NodeID = ast.NoNode
	if !p.at(token.COLON) && !p.at(token.RBRACKET) && !p.at(token.COMMA) {
		upper = p.parseExpr(parent)
	}
	var step ast.NodeID = ast.NoNode
	if p.at(token.COLON) {
		p.advance()
		if !p.at(token.RBRACKET) && !p.at(token.COMMA) {
			step = p.parseExpr(parent)
		}
	}
	return p.add(ast.Node{Kind: ast.KindSlice, Target: lower, Value: upper, Extra: []ast.NodeID{step}, Span: p.spanFrom(start)}, parent)
}

// --- Atoms ---

func (p *Parser) parseAtom(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	switch {
	case p.at(token.IDENT):
		name := p.text(p.cur())
		p.advance()
		return p.maybeNamedExpr(parent, p.add(ast.Node{Kind: ast.KindName, Name: name, Span: p.spanFrom(start)}, parent), start)
	case p.at(token.NUMBER):
		t := p.advance()
		return p.add(ast.Node{Kind: ast.KindLiteral, Str: p.text(t), Flags: uint32(litNumber), Span: p.spanFrom(start)}, parent)
	case p.at(token.STRING):
		return p.parseStringGroup(parent, start)
	case p.at(token.FSTRING):
		t := p.advance()
		return p.add(ast.Node{Kind: ast.KindFString, Span: token.Span{Start: t.Span.Start, End: t.Span.End}}, parent)
	case p.at(token.TRUE), p.at(token.FALSE):
		t := p.advance()
		return p.add(ast.Node{Kind: ast.KindLiteral, Str: t.Kind.String(), Flags: uint32(litBool), Span: p.spanFrom(start)}, parent)
	case p.at(token.NONE):
		p.advance()
		return p.add(ast.Node{Kind: ast.KindLiteral, Flags: uint32(litNone), Span: p.spanFrom(start)}, parent)
	case p.at(token.ELLIPSIS):
		p.advance()
		return p.add(ast.Node{Kind: ast.KindLiteral, Flags: uint32(litEllipsis), Span: p.spanFrom(start)}, parent)
	case p.at(token.LPAREN):
		return p.parseParenAtom(parent, start)
	case p.at(token.LBRACKET):
		return p.parseListAtom(parent, start)
	case p.at(token.LBRACE):
		return p.parseBraceAtom(parent, start)
	case p.at(token.YIELD):
		return p.parseYieldExpr(parent, start)
	case p.at(token.STAR):
		p.advance()
		v := p.parsePower(parent)
		return p.add(ast.Node{Kind: ast.KindStarred, Value: v, Span: p.spanFrom(start)}, parent)
	}
	p.errorf("unexpected token %s in expression", p.cur().Kind)
	p.advance()
	return p.add(ast.Node{Kind: ast.KindLiteral, Flags: uint32(litNone), Span: p.spanFrom(start)}, parent)
}

// literal subtype flags for KindLiteral.Flags
const (
	litString   = ast.LitString
	litNumber   = ast.LitNumber
	litBool     = ast.LitBool
	litNone     = ast.LitNone
	litEllipsis = ast.LitEllipsis
)

func (p *Parser) parseStringGroup(parent ast.NodeID, start int) ast.NodeID {
	var text string
	for p.at(token.STRING) {
		t := p.advance()
		text += p.text(t)
	}
	return p.add(ast.Node{Kind: ast.KindLiteral, Str: text, Flags: uint32(litString), Span: p.spanFrom(start)}, parent)
}

// maybeNamedExpr checks for ":=" immediately after a bare name, binding
// the walrus target to the name just parsed.
func (p *Parser) maybeNamedExpr(parent ast.NodeID, nameNode ast.NodeID, start int) ast.NodeID {
	if !p.at(token.WALRUS) {
		return nameNode
	}
	p.advance()
	val := p.parseExpr(parent)
	return p.add(ast.Node{Kind: ast.KindNamed, Target: nameNode, Value: val, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseYieldExpr(parent ast.NodeID, start int) ast.NodeID {
	p.advance() // 'yield'
	var flags uint32
	if p.at(token.FROM) {
		p.advance()
		flags = 1
		v := p.parseExpr(parent)
		return p.add(ast.Node{Kind: ast.KindYield, Value: v, Flags: flags, Span: p.spanFrom(start)}, parent)
	}
	var v ast.NodeID = ast.NoNode
	if !p.atStmtEnd() && !p.atAny(token.RPAREN, token.RBRACKET, token.RBRACE, token.COMMA) {
		v = p.parseTestListStarExpr(parent)
	}
	return p.add(ast.Node{Kind: ast.KindYield, Value: v, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseParenAtom(parent ast.NodeID, start int) ast.NodeID {
	p.advance() // '('
	if p.at(token.RPAREN) {
		p.advance()
		return p.add(ast.Node{Kind: ast.KindTuple, Span: p.spanFrom(start)}, parent)
	}
	if p.at(token.YIELD) {
		y := p.parseYieldExpr(parent, p.cur().Span.Start)
		p.expect(token.RPAREN)
		return y
	}
	first := p.parseTestOrStar(parent)
	if p.at(token.FOR) || p.at(token.ASYNC) {
		g := p.parseComprehensionTail(parent, first, start, ast.CompGen)
		p.expect(token.RPAREN)
		return g
	}
	if !p.at(token.COMMA) {
		p.expect(token.RPAREN)
		return first // parenthesized single expr, not a tuple
	}
	items := []ast.NodeID{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RPAREN) {
			break
		}
		items = append(items, p.parseTestOrStar(parent))
	}
	p.expect(token.RPAREN)
	return p.add(ast.Node{Kind: ast.KindTuple, Children: items, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseListAtom(parent ast.NodeID, start int) ast.NodeID {
	p.advance() // '['
	if p.at(token.RBRACKET) {
		p.advance()
		return p.add(ast.Node{Kind: ast.KindList, Span: p.spanFrom(start)}, parent)
	}
	first := p.parseTestOrStar(parent)
	if p.at(token.FOR) || p.at(token.ASYNC) {
		g := p.parseComprehensionTail(parent, first, start, ast.CompList)
		p.expect(token.RBRACKET)
		return g
	}
	items := []ast.NodeID{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACKET) {
			break
		}
		items = append(items, p.parseTestOrStar(parent))
	}
	p.expect(token.RBRACKET)
	return p.add(ast.Node{Kind: ast.KindList, Children: items, Span: p.spanFrom(start)}, parent)
}

// parseBraceAtom parses both dict and set literals/comprehensions, which
// share the '{' opener and are disambiguated by what follows the first
// element (a ':' means dict).
func (p *Parser) parseBraceAtom(parent ast.NodeID, start int) ast.NodeID {
	p.advance() // '{'
	if p.at(token.RBRACE) {
		p.advance()
		return p.add(ast.Node{Kind: ast.KindDict, Span: p.spanFrom(start)}, parent)
	}
	if p.at(token.DOUBLESTAR) {
		return p.parseDictBody(parent, start, nil)
	}
	first := p.parseTestOrStar(parent)
	if p.at(token.COLON) {
		p.advance()
		val := p.parseExpr(parent)
		if p.at(token.FOR) || p.at(token.ASYNC) {
			kv := p.add(ast.Node{Kind: ast.KindKeyword, Target: first, Value: val}, parent)
			g := p.parseComprehensionTail(parent, kv, start, ast.CompDict)
			p.expect(token.RBRACE)
			return g
		}
		entries := []ast.NodeID{p.add(ast.Node{Kind: ast.KindKeyword, Target: first, Value: val}, parent)}
		return p.parseDictBody(parent, start, entries)
	}
	if p.at(token.FOR) || p.at(token.ASYNC) {
		g := p.parseComprehensionTail(parent, first, start, ast.CompSet)
		p.expect(token.RBRACE)
		return g
	}
	items := []ast.NodeID{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACE) {
			break
		}
		items = append(items, p.parseTestOrStar(parent))
	}
	p.expect(token.RBRACE)
	return p.add(ast.Node{Kind: ast.KindSet, Children: items, Span: p.spanFrom(start)}, parent)
}

// parseDictBody continues a dict literal after its first "key: value" or
// "**expr" entry has been (or is about to be) consumed.
func (p *Parser) parseDictBody(parent ast.NodeID, start int, entries []ast.NodeID) ast.NodeID {
	for {
		if p.at(token.DOUBLESTAR) {
			dstart := p.cur().Span.Start
			p.advance()
			v := p.parseOrExpr(parent)
			entries = append(entries, p.add(ast.Node{Kind: ast.KindDoubleStarred, Value: v, Span: p.spanFrom(dstart)}, parent))
		} else if !p.at(token.RBRACE) {
			kstart := p.cur().Span.Start
			key := p.parseExpr(parent)
			p.expect(token.COLON)
			val := p.parseExpr(parent)
			entries = append(entries, p.add(ast.Node{Kind: ast.KindKeyword, Target: key, Value: val, Span: p.spanFrom(kstart)}, parent))
		}
		if p.at(token.COMMA) {
			p.advance()
			if p.at(token.RBRACE) {
				break
			}
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	return p.add(ast.Node{Kind: ast.KindDict, Children: entries, Span: p.spanFrom(start)}, parent)
}

// parseTestOrStar parses a single element inside a list/tuple/set
// display: a normal expression or a starred-unpack.
func (p *Parser) parseTestOrStar(parent ast.NodeID) ast.NodeID {
	if p.at(token.STAR) {
		start := p.cur().Span.Start
		p.advance()
		v := p.parseOrExpr(parent)
		return p.add(ast.Node{Kind: ast.KindStarred, Value: v, Span: p.spanFrom(start)}, parent)
	}
	return p.parseExpr(parent)
}

// parseTestListStarExpr parses a (possibly starred) expression, or a
// bare comma-separated list of them folded into an implicit tuple: the
// production used for assignment RHS, return values, for-loop iterables.
func (p *Parser) parseTestListStarExpr(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	first := p.parseTestOrStar(parent)
	if !p.at(token.COMMA) {
		return first
	}
	items := []ast.NodeID{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.atStmtEnd() || p.atAny(token.ASSIGN, token.RPAREN, token.RBRACKET, token.RBRACE, token.COLON) {
			break
		}
		items = append(items, p.parseTestOrStar(parent))
	}
	return p.add(ast.Node{Kind: ast.KindTuple, Children: items, Span: p.spanFrom(start)}, parent)
}

// parseComprehensionTail parses the "for ... in ... [if ...]..." clauses
// following a comprehension's leading element expression, which the
// caller has already parsed (elt, or a KindKeyword for dict comps).
func (p *Parser) parseComprehensionTail(parent ast.NodeID, elt ast.NodeID, start int, kind ast.CompKind) ast.NodeID {
	id := p.add(ast.Node{Kind: ast.KindComprehension, Value: elt, Flags: uint32(kind)}, parent)
	var clauses []ast.NodeID
	for p.at(token.FOR) || p.at(token.ASYNC) {
		clauses = append(clauses, p.parseCompFor(id))
	}
	n := p.tree.Node(id)
	n.Extra = clauses
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseCompFor(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	var flags uint32
	if p.at(token.ASYNC) {
		p.advance()
		flags = 1
	}
	p.advance() // 'for'
	target := p.parseTargetList(parent)
	p.expect(token.IN)
	iter := p.parseOrTest(parent)
	id := p.add(ast.Node{Kind: ast.KindCompFor, Target: target, Value: iter, Flags: flags}, parent)
	var ifs []ast.NodeID
	for p.at(token.IF) {
		p.advance()
		ifs = append(ifs, p.parseOrTest(parent))
	}
	n := p.tree.Node(id)
	n.Extra = ifs
	n.Span = p.spanFrom(start)
	return id
}
