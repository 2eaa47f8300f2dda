package parser

import (
	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/token"
)

// ParseModule parses the whole token stream into a module tree.
func (p *Parser) ParseModule() *ast.Tree {
	root := p.add(ast.Node{Kind: ast.KindModule}, ast.NoNode)
	p.tree.Root = root

	var body []ast.NodeID
	p.skipNewlines()
	for !p.at(token.ENDMARKER) {
		if p.at(token.NEWLINE) {
			p.advance()
			continue
		}
		id := p.parseStatement(root)
		if id != ast.NoNode {
			body = append(body, id)
		}
	}
	m := p.tree.Node(root)
	m.Body = body
	return p.tree
}

// parseBlock parses an indented block following a ':': INDENT stmt*
// DEDENT, or, for a one-line suite, the simple statements up to NEWLINE.
func (p *Parser) parseBlock(parent ast.NodeID) []ast.NodeID {
	if !p.at(token.NEWLINE) {
		return p.parseSimpleStmtLine(parent)
	}
	p.advance() // NEWLINE
	if !p.at(token.INDENT) {
		p.errorf("expected an indented block")
		return nil
	}
	p.advance() // INDENT
	var body []ast.NodeID
	for !p.at(token.DEDENT) && !p.at(token.ENDMARKER) {
		if p.at(token.NEWLINE) {
			p.advance()
			continue
		}
		id := p.parseStatement(parent)
		if id != ast.NoNode {
			body = append(body, id)
		}
	}
	if p.at(token.DEDENT) {
		p.advance()
	}
	return body
}

// parseStatement parses one top-level-of-a-block statement: either a
// compound statement or a simple-statement line (possibly several
// ';'-separated simple statements terminated by NEWLINE).
func (p *Parser) parseStatement(parent ast.NodeID) ast.NodeID {
	switch {
	case p.at(token.AT):
		return p.parseDecorated(parent)
	case p.at(token.DEF):
		return p.parseFunctionDef(parent, false, nil)
	case p.at(token.ASYNC):
		return p.parseAsyncStatement(parent, nil)
	case p.at(token.CLASS):
		return p.parseClassDef(parent, nil)
	case p.at(token.IF):
		return p.parseIf(parent)
	case p.at(token.WHILE):
		return p.parseWhile(parent)
	case p.at(token.FOR):
		return p.parseFor(parent, false)
	case p.at(token.WITH):
		return p.parseWith(parent, false)
	case p.at(token.TRY):
		return p.parseTry(parent)
	case p.atText("match") && p.looksLikeMatch():
		return p.parseMatch(parent)
	}

	ids := p.parseSimpleStmtLine(parent)
	if len(ids) == 0 {
		return ast.NoNode
	}
	if len(ids) == 1 {
		return ids[0]
	}
	// Multiple ';'-separated simple statements: fold under a synthetic
	// ExprStmt-less wrapper isn't part of the grammar, so callers that
	// asked for a single id (parseBlock's one-line-suite path) already
	// collect the slice directly; parseStatement's compound-block callers
	// only ever see this branch via top-level dispatch, so returning the
	// first and letting parseBlock's caller re-walk via parseSimpleStmtLine
	// is unreachable here in practice. Return the first for safety.
	return ids[0]
}

// looksLikeMatch performs the lookahead the soft-keyword "match" needs:
// match is a statement only when followed by an expression and ':' at
// end of the logical line, never e.g. "match = 1" or "match()".
func (p *Parser) looksLikeMatch() bool {
	save := p.pos
	defer func() { p.pos = save }()
	p.advance() // "match"
	if p.atAny(token.ASSIGN, token.DOT, token.LPAREN, token.COMMA, token.COLON) {
		return false
	}
	last := token.ILLEGAL
	for !p.atAny(token.NEWLINE, token.ENDMARKER) {
		last = p.advance().Kind
	}
	return last == token.COLON
}

func (p *Parser) parseSimpleStmtLine(parent ast.NodeID) []ast.NodeID {
	var ids []ast.NodeID
	for {
		id := p.parseSimpleStmt(parent)
		if id != ast.NoNode {
			ids = append(ids, id)
		}
		if p.at(token.SEMI) {
			p.advance()
			if p.at(token.NEWLINE) || p.at(token.ENDMARKER) {
				break
			}
			continue
		}
		break
	}
	if p.at(token.NEWLINE) {
		p.advance()
	} else if !p.at(token.ENDMARKER) && !p.at(token.DEDENT) {
		p.errorf("unexpected token %s at end of statement", p.cur().Kind)
		p.recover()
	}
	return ids
}

func (p *Parser) parseSimpleStmt(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	switch p.cur().Kind {
	case token.IMPORT:
		return p.parseImport(parent, start)
	case token.FROM:
		return p.parseImportFrom(parent, start)
	case token.RETURN:
		p.advance()
		var val ast.NodeID = ast.NoNode
		if !p.atStmtEnd() {
			val = p.parseTestListStarExpr(parent)
		}
		return p.finish(ast.Node{Kind: ast.KindReturn, Value: val, Span: p.spanFrom(start)}, parent)
	case token.RAISE:
		p.advance()
		var exc, cause ast.NodeID = ast.NoNode, ast.NoNode
		if !p.atStmtEnd() {
			exc = p.parseExpr(parent)
			if p.at(token.FROM) {
				p.advance()
				cause = p.parseExpr(parent)
			}
		}
		return p.finish(ast.Node{Kind: ast.KindRaise, Value: exc, Target: cause, Span: p.spanFrom(start)}, parent)
	case token.BREAK:
		p.advance()
		return p.finish(ast.Node{Kind: ast.KindBreak, Span: p.spanFrom(start)}, parent)
	case token.CONTINUE:
		p.advance()
		return p.finish(ast.Node{Kind: ast.KindContinue, Span: p.spanFrom(start)}, parent)
	case token.PASS:
		p.advance()
		return p.finish(ast.Node{Kind: ast.KindPass, Span: p.spanFrom(start)}, parent)
	case token.GLOBAL, token.NONLOCAL:
		kw := p.cur().Kind
		p.advance()
		names := []string{p.text(p.expect(token.IDENT))}
		for p.at(token.COMMA) {
			p.advance()
			names = append(names, p.text(p.expect(token.IDENT)))
		}
		k := ast.KindGlobal
		if kw == token.NONLOCAL {
			k = ast.KindNonlocal
		}
		return p.finish(ast.Node{Kind: k, Names: names, Span: p.spanFrom(start)}, parent)
	case token.DEL:
		p.advance()
		targets := []ast.NodeID{p.parseExpr(parent)}
		for p.at(token.COMMA) {
			p.advance()
			if p.atStmtEnd() {
				break
			}
			targets = append(targets, p.parseExpr(parent))
		}
		return p.finish(ast.Node{Kind: ast.KindDelete, Children: targets, Span: p.spanFrom(start)}, parent)
	case token.ASSERT:
		p.advance()
		cond := p.parseExpr(parent)
		var msg ast.NodeID = ast.NoNode
		if p.at(token.COMMA) {
			p.advance()
			msg = p.parseExpr(parent)
		}
		return p.finish(ast.Node{Kind: ast.KindExprStmt, Value: cond, Target: msg, Span: p.spanFrom(start)}, parent)
	default:
		return p.parseExprOrAssign(parent, start)
	}
}

func (p *Parser) atStmtEnd() bool {
	return p.atAny(token.NEWLINE, token.SEMI, token.ENDMARKER, token.DEDENT)
}

func (p *Parser) spanFrom(start int) token.Span {
	end := p.cur().Span.Start
	if p.pos > 0 {
		end = p.toks[p.pos-1].Span.End
	}
	return token.Span{Start: start, End: end}
}

func (p *Parser) finish(n ast.Node, parent ast.NodeID) ast.NodeID {
	return p.add(n, parent)
}

func (p *Parser) parseImport(parent ast.NodeID, start int) ast.NodeID {
	p.advance() // 'import'
	var aliases []ast.NodeID
	aliases = append(aliases, p.parseDottedAlias(parent))
	for p.at(token.COMMA) {
		p.advance()
		aliases = append(aliases, p.parseDottedAlias(parent))
	}
	return p.finish(ast.Node{Kind: ast.KindImport, Children: aliases, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseDottedAlias(parent ast.NodeID) ast.NodeID {
	nameStart := p.cur().Span.Start
	name := p.parseDottedName()
	local := ""
	if p.at(token.AS) {
		p.advance()
		local = p.text(p.expect(token.IDENT))
	}
	return p.add(ast.Node{Kind: ast.KindAlias, Name: name, Str: local, Span: p.spanFrom(nameStart)}, parent)
}

func (p *Parser) parseDottedName() string {
	name := p.text(p.expect(token.IDENT))
	for p.at(token.DOT) {
		p.advance()
		name += "." + p.text(p.expect(token.IDENT))
	}
	return name
}

func (p *Parser) parseImportFrom(parent ast.NodeID, start int) ast.NodeID {
	p.advance() // 'from'
	dots := 0
	for p.atAny(token.DOT, token.ELLIPSIS) {
		if p.at(token.ELLIPSIS) {
			dots += 3
		} else {
			dots++
		}
		p.advance()
	}
	module := ""
	if p.at(token.IDENT) {
		module = p.parseDottedName()
	}
	p.expect(token.IMPORT)

	n := ast.Node{Kind: ast.KindImportFrom, Name: module, Flags: uint32(dots)}

	if p.at(token.STAR) {
		p.advance()
		n.Flags |= importFromStarFlag
		return p.finish(ast.Node{Kind: n.Kind, Name: n.Name, Flags: n.Flags, Span: p.spanFrom(start)}, parent)
	}

	parens := false
	if p.at(token.LPAREN) {
		parens = true
		p.advance()
	}
	var aliases []ast.NodeID
	aliases = append(aliases, p.parseSimpleAlias(parent))
	for p.at(token.COMMA) {
		p.advance()
		if parens && p.at(token.RPAREN) {
			break
		}
		if !p.at(token.IDENT) {
			break
		}
		aliases = append(aliases, p.parseSimpleAlias(parent))
	}
	if parens {
		p.expect(token.RPAREN)
	}
	n.Children = aliases
	n.Span = p.spanFrom(start)
	return p.finish(n, parent)
}

// parseSimpleAlias parses "name" or "name as local" for a from-import
// member (not dotted, unlike a plain import statement's target).
func (p *Parser) parseSimpleAlias(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	name := p.text(p.expect(token.IDENT))
	local := ""
	if p.at(token.AS) {
		p.advance()
		local = p.text(p.expect(token.IDENT))
	}
	return p.add(ast.Node{Kind: ast.KindAlias, Name: name, Str: local, Span: p.spanFrom(start)}, parent)
}

// importFromStarFlag marks a KindImportFrom node as "from m import *".
const importFromStarFlag uint32 = 1 << 31

// --- Decorators, function/class defs ---

func (p *Parser) parseDecorated(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	var decorators []ast.NodeID
	for p.at(token.AT) {
		dstart := p.cur().Span.Start
		p.advance()
		expr := p.parseExpr(parent)
		p.expect(token.NEWLINE)
		decorators = append(decorators, p.add(ast.Node{Kind: ast.KindDecorator, Value: expr, Span: p.spanFrom(dstart)}, parent))
	}
	switch {
	case p.at(token.DEF):
		return p.parseFunctionDef(parent, false, decorators)
	case p.at(token.ASYNC):
		return p.parseAsyncStatement(parent, decorators)
	case p.at(token.CLASS):
		return p.parseClassDef(parent, decorators)
	}
	p.errorf("expected a function or class definition after decorator")
	p.recover()
	return p.finish(ast.Node{Kind: ast.KindPass, Decorators: decorators, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseAsyncStatement(parent ast.NodeID, decorators []ast.NodeID) ast.NodeID {
	p.advance() // 'async'
	switch {
	case p.at(token.DEF):
		return p.parseFunctionDef(parent, true, decorators)
	case p.at(token.FOR):
		return p.parseFor(parent, true)
	case p.at(token.WITH):
		return p.parseWith(parent, true)
	}
	p.errorf("expected 'def', 'for', or 'with' after 'async'")
	p.recover()
	return ast.NoNode
}

func (p *Parser) parseFunctionDef(parent ast.NodeID, isAsync bool, decorators []ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	if len(decorators) > 0 {
		start = p.tree.Node(decorators[0]).Span.Start
	}
	p.advance() // 'def'
	name := p.text(p.expect(token.IDENT))
	id := p.add(ast.Node{Kind: ast.KindFunctionDef, Name: name, Decorators: decorators}, parent)

	p.expect(token.LPAREN)
	params := p.parseParameters(id)
	p.expect(token.RPAREN)
	retAnn := ast.NoNode
	if p.at(token.ARROW) {
		p.advance()
		retAnn = p.parseExpr(id)
	}
	p.expect(token.COLON)
	body := p.parseBlock(id)

	var flags uint32
	if isAsync {
		flags |= 1
	}
	n := p.tree.Node(id)
	n.Params = params
	n.Body = body
	n.Value = retAnn
	n.Flags = flags
	n.Span = p.spanFrom(start)
	return id
}

// parseParameters parses a def's parameter list: plain, positional-only
// ('/'), keyword-only (bare or starred '*'), *args, and **kwargs.
func (p *Parser) parseParameters(parent ast.NodeID) []ast.NodeID {
	var params []ast.NodeID
	seenStar := false
	for !p.at(token.RPAREN) && !p.at(token.ENDMARKER) {
		start := p.cur().Span.Start
		switch {
		case p.at(token.SLASH):
			p.advance()
			for i := range params {
				n := p.tree.Node(params[i])
				if n.ParamK == ast.ParamPositional {
					n.ParamK = ast.ParamPosOnly
				}
			}
		case p.at(token.DOUBLESTAR):
			p.advance()
			name := p.text(p.expect(token.IDENT))
			ann := p.maybeAnnotation(parent)
			params = append(params, p.add(ast.Node{Kind: ast.KindParameter, Name: name, Value: ast.NoNode, Extra: ann, ParamK: ast.ParamKwarg, Span: p.spanFrom(start)}, parent))
		case p.at(token.STAR):
			p.advance()
			seenStar = true
			if p.at(token.IDENT) {
				name := p.text(p.advance())
				ann := p.maybeAnnotation(parent)
				params = append(params, p.add(ast.Node{Kind: ast.KindParameter, Name: name, Value: ast.NoNode, Extra: ann, ParamK: ast.ParamVararg, Span: p.spanFrom(start)}, parent))
			}
		case p.at(token.IDENT):
			name := p.text(p.advance())
			ann := p.maybeAnnotation(parent)
			def := ast.NoNode
			if p.at(token.ASSIGN) {
				p.advance()
				def = p.parseExpr(parent)
			}
			kind := ast.ParamPositional
			if seenStar {
				kind = ast.ParamKWOnly
			}
			params = append(params, p.add(ast.Node{Kind: ast.KindParameter, Name: name, Value: def, Extra: ann, ParamK: kind, Span: p.spanFrom(start)}, parent))
		default:
			p.errorf("unexpected token %s in parameter list", p.cur().Kind)
			p.advance()
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return params
}

func (p *Parser) maybeAnnotation(parent ast.NodeID) []ast.NodeID {
	if !p.at(token.COLON) {
		return nil
	}
	p.advance()
	return []ast.NodeID{p.parseExpr(parent)}
}

func (p *Parser) parseClassDef(parent ast.NodeID, decorators []ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	if len(decorators) > 0 {
		start = p.tree.Node(decorators[0]).Span.Start
	}
	p.advance() // 'class'
	name := p.text(p.expect(token.IDENT))
	id := p.add(ast.Node{Kind: ast.KindClassDef, Name: name, Decorators: decorators}, parent)

	var bases []ast.NodeID
	if p.at(token.LPAREN) {
		p.advance()
		for !p.at(token.RPAREN) && !p.at(token.ENDMARKER) {
			bases = append(bases, p.parseCallArg(id))
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
	}
	p.expect(token.COLON)
	body := p.parseBlock(id)

	n := p.tree.Node(id)
	n.Children = bases
	n.Body = body
	n.Span = p.spanFrom(start)
	return id
}

// --- Control flow ---

func (p *Parser) parseIf(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'if'
	cond := p.parseNamedTestExpr(parent)
	p.expect(token.COLON)
	id := p.add(ast.Node{Kind: ast.KindIf, Value: cond}, parent)
	body := p.parseBlock(id)

	var orelse []ast.NodeID
	switch {
	case p.at(token.ELIF):
		elifID := p.parseElif(id)
		orelse = []ast.NodeID{elifID}
	case p.at(token.ELSE):
		p.advance()
		p.expect(token.COLON)
		orelse = p.parseBlock(id)
	}

	n := p.tree.Node(id)
	n.Body = body
	n.Orelse = orelse
	n.Span = p.spanFrom(start)
	return id
}

// parseElif treats "elif" as a nested if-statement node, mirroring how
// the grammar desugars elif-chains.
func (p *Parser) parseElif(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'elif'
	cond := p.parseNamedTestExpr(parent)
	p.expect(token.COLON)
	id := p.add(ast.Node{Kind: ast.KindIf, Value: cond}, parent)
	body := p.parseBlock(id)

	var orelse []ast.NodeID
	switch {
	case p.at(token.ELIF):
		orelse = []ast.NodeID{p.parseElif(id)}
	case p.at(token.ELSE):
		p.advance()
		p.expect(token.COLON)
		orelse = p.parseBlock(id)
	}
	n := p.tree.Node(id)
	n.Body = body
	n.Orelse = orelse
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseWhile(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'while'
	cond := p.parseNamedTestExpr(parent)
	p.expect(token.COLON)
	id := p.add(ast.Node{Kind: ast.KindWhile, Value: cond}, parent)
	body := p.parseBlock(id)
	var orelse []ast.NodeID
	if p.at(token.ELSE) {
		p.advance()
		p.expect(token.COLON)
		orelse = p.parseBlock(id)
	}
	n := p.tree.Node(id)
	n.Body = body
	n.Orelse = orelse
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseFor(parent ast.NodeID, isAsync bool) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'for'
	id := p.add(ast.Node{Kind: ast.KindFor}, parent)
	target := p.parseTargetList(id)
	p.expect(token.IN)
	iter := p.parseTestListStarExpr(id)
	p.expect(token.COLON)
	body := p.parseBlock(id)
	var orelse []ast.NodeID
	if p.at(token.ELSE) {
		p.advance()
		p.expect(token.COLON)
		orelse = p.parseBlock(id)
	}
	var flags uint32
	if isAsync {
		flags = 1
	}
	n := p.tree.Node(id)
	n.Target = target
	n.Value = iter
	n.Body = body
	n.Orelse = orelse
	n.Flags = flags
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseWith(parent ast.NodeID, isAsync bool) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'with'
	id := p.add(ast.Node{Kind: ast.KindWith}, parent)

	parens := false
	if p.at(token.LPAREN) {
		parens = true
		p.advance()
	}
	var items []ast.NodeID
	items = append(items, p.parseWithItem(id))
	for p.at(token.COMMA) {
		p.advance()
		if parens && p.at(token.RPAREN) {
			break
		}
		if p.at(token.COLON) {
			break
		}
		items = append(items, p.parseWithItem(id))
	}
	if parens {
		p.expect(token.RPAREN)
	}
	p.expect(token.COLON)
	body := p.parseBlock(id)

	var flags uint32
	if isAsync {
		flags = 1
	}
	n := p.tree.Node(id)
	n.Children = items
	n.Body = body
	n.Flags = flags
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseWithItem(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	ctx := p.parseExpr(parent)
	target := ast.NoNode
	if p.at(token.AS) {
		p.advance()
		target = p.parseTarget(parent)
	}
	return p.add(ast.Node{Kind: ast.KindWithItem, Value: ctx, Target: target, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseTry(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'try'
	p.expect(token.COLON)
	id := p.add(ast.Node{Kind: ast.KindTry}, parent)
	body := p.parseBlock(id)

	var handlers []ast.NodeID
	for p.at(token.EXCEPT) {
		handlers = append(handlers, p.parseExceptHandler(id))
	}
	var orelse []ast.NodeID
	if p.at(token.ELSE) {
		p.advance()
		p.expect(token.COLON)
		orelse = p.parseBlock(id)
	}
	finally := ast.NoNode
	if p.at(token.FINALLY) {
		p.advance()
		p.expect(token.COLON)
		fbody := p.parseBlock(id)
		finally = p.add(ast.Node{Kind: ast.KindPass, Body: fbody}, id)
	}

	n := p.tree.Node(id)
	n.Body = body
	n.Extra = handlers
	n.Orelse = orelse
	n.Finally = finally
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseExceptHandler(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'except'
	if p.at(token.STAR) { // except* (exception groups)
		p.advance()
	}
	exc := ast.NoNode
	name := ""
	if !p.at(token.COLON) {
		exc = p.parseExpr(parent)
		if p.at(token.AS) {
			p.advance()
			name = p.text(p.expect(token.IDENT))
		}
	}
	p.expect(token.COLON)
	id := p.add(ast.Node{Kind: ast.KindExceptHandler, Value: exc, Name: name}, parent)
	body := p.parseBlock(id)
	n := p.tree.Node(id)
	n.Body = body
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseMatch(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'match' (soft keyword, IDENT)
	subject := p.parseTestListStarExpr(parent)
	p.expect(token.COLON)
	id := p.add(ast.Node{Kind: ast.KindMatch, Value: subject}, parent)

	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	var cases []ast.NodeID
	for p.atText("case") {
		cases = append(cases, p.parseMatchCase(id))
	}
	if p.at(token.DEDENT) {
		p.advance()
	}

	n := p.tree.Node(id)
	n.Extra = cases
	n.Span = p.spanFrom(start)
	return id
}

func (p *Parser) parseMatchCase(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	p.advance() // 'case'
	id := p.add(ast.Node{Kind: ast.KindMatchCase}, parent)
	pat := p.parsePatterns(id)
	guard := ast.NoNode
	if p.at(token.IF) {
		p.advance()
		guard = p.parseExpr(id)
	}
	p.expect(token.COLON)
	body := p.parseBlock(id)

	n := p.tree.Node(id)
	n.Extra = []ast.NodeID{pat}
	n.Value = guard
	n.Body = body
	n.Span = p.spanFrom(start)
	return id
}

// --- Assignment / expression statements ---

func (p *Parser) parseExprOrAssign(parent ast.NodeID, start int) ast.NodeID {
	first := p.parseTestListStarExpr(parent)

	if p.at(token.COLON) {
		p.advance()
		typ := p.parseExpr(parent)
		val := ast.NoNode
		if p.at(token.ASSIGN) {
			p.advance()
			val = p.parseTestListStarExpr(parent)
		}
		return p.finish(ast.Node{Kind: ast.KindAnnAssign, Target: first, Extra: []ast.NodeID{typ}, Value: val, Span: p.spanFrom(start)}, parent)
	}

	if isAugAssignOp(p.cur().Kind) {
		op := p.text(p.cur())
		p.advance()
		val := p.parseTestListStarExpr(parent)
		return p.finish(ast.Node{Kind: ast.KindAugAssign, Target: first, Str: op, Value: val, Span: p.spanFrom(start)}, parent)
	}

	if p.at(token.ASSIGN) {
		targets := []ast.NodeID{first}
		var val ast.NodeID
		for {
			p.advance()
			val = p.parseTestListStarExpr(parent)
			if p.at(token.ASSIGN) {
				targets = append(targets, val)
				continue
			}
			break
		}
		return p.finish(ast.Node{Kind: ast.KindAssign, Children: targets, Value: val, Span: p.spanFrom(start)}, parent)
	}

	return p.finish(ast.Node{Kind: ast.KindExprStmt, Value: first, Span: p.spanFrom(start)}, parent)
}

func isAugAssignOp(k token.Kind) bool {
	switch k {
	case token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ, token.DSLASHEQ,
		token.PERCENTEQ, token.AMPEQ, token.PIPEEQ, token.CARETEQ, token.LSHIFTEQ,
		token.RSHIFTEQ, token.DSTAREQ:
		return true
	}
	return false
}

// parseTargetList parses a for-loop's target: a single target or a
// comma-separated tuple of targets (without surrounding parens).
func (p *Parser) parseTargetList(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	first := p.parseTarget(parent)
	if !p.at(token.COMMA) {
		return first
	}
	items := []ast.NodeID{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.IN) {
			break
		}
		items = append(items, p.parseTarget(parent))
	}
	return p.add(ast.Node{Kind: ast.KindTuple, Children: items, Span: p.spanFrom(start)}, parent)
}

// parseTarget parses a single assignment target: a name, attribute,
// subscript, starred target, or parenthesized/bracketed target list.
func (p *Parser) parseTarget(parent ast.NodeID) ast.NodeID {
	return p.parseOrExpr(parent)
}
