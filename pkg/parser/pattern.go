package parser

import (
	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/token"
)

// parsePatterns parses the pattern list following "case": either a
// single pattern or an implicit (bracket-less) sequence pattern made of
// comma-separated sub-patterns.
func (p *Parser) parsePatterns(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	first := p.parsePatternAs(parent)
	if !p.at(token.COMMA) {
		return first
	}
	items := []ast.NodeID{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.IF) || p.at(token.COLON) {
			break
		}
		items = append(items, p.parsePatternAs(parent))
	}
	return p.add(ast.Node{Kind: ast.KindPatternSequence, Children: items, Span: p.spanFrom(start)}, parent)
}

// parsePatternAs parses an or-pattern optionally bound with "as name".
func (p *Parser) parsePatternAs(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	pat := p.parseOrPattern(parent)
	if !p.at(token.AS) {
		return pat
	}
	p.advance()
	name := p.text(p.expect(token.IDENT))
	return p.add(ast.Node{Kind: ast.KindPatternAs, Value: pat, Name: name, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseOrPattern(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	first := p.parseClosedPattern(parent)
	if !p.at(token.PIPE) {
		return first
	}
	items := []ast.NodeID{first}
	for p.at(token.PIPE) {
		p.advance()
		items = append(items, p.parseClosedPattern(parent))
	}
	return p.add(ast.Node{Kind: ast.KindPatternOr, Children: items, Span: p.spanFrom(start)}, parent)
}

// parseClosedPattern parses one pattern with no top-level '|' or 'as'.
func (p *Parser) parseClosedPattern(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start

	switch {
	case p.at(token.STAR):
		p.advance()
		name := p.text(p.expect(token.IDENT))
		if name == "_" {
			return p.add(ast.Node{Kind: ast.KindPatternWildcard, Flags: 1, Span: p.spanFrom(start)}, parent)
		}
		return p.add(ast.Node{Kind: ast.KindPatternCapture, Name: name, Flags: 1, Span: p.spanFrom(start)}, parent)

	case p.atAny(token.NUMBER, token.STRING, token.FSTRING, token.TRUE, token.FALSE, token.NONE, token.MINUS):
		lit := p.parsePatternLiteralExpr(parent)
		return p.add(ast.Node{Kind: ast.KindPatternLiteral, Value: lit, Span: p.spanFrom(start)}, parent)

	case p.at(token.LPAREN):
		p.advance()
		if p.at(token.RPAREN) {
			p.advance()
			return p.add(ast.Node{Kind: ast.KindPatternSequence, Span: p.spanFrom(start)}, parent)
		}
		items := []ast.NodeID{p.parsePatternAs(parent)}
		for p.at(token.COMMA) {
			p.advance()
			if p.at(token.RPAREN) {
				break
			}
			items = append(items, p.parsePatternAs(parent))
		}
		p.expect(token.RPAREN)
		if len(items) == 1 {
			return items[0]
		}
		return p.add(ast.Node{Kind: ast.KindPatternSequence, Children: items, Span: p.spanFrom(start)}, parent)

	case p.at(token.LBRACKET):
		p.advance()
		var items []ast.NodeID
		for !p.at(token.RBRACKET) && !p.at(token.ENDMARKER) {
			items = append(items, p.parsePatternAs(parent))
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RBRACKET)
		return p.add(ast.Node{Kind: ast.KindPatternSequence, Children: items, Span: p.spanFrom(start)}, parent)

	case p.at(token.LBRACE):
		return p.parseMappingPattern(parent, start)

	case p.at(token.IDENT):
		return p.parseNameOrValueOrClassPattern(parent, start)
	}

	p.errorf("unexpected token %s in pattern", p.cur().Kind)
	p.advance()
	return p.add(ast.Node{Kind: ast.KindPatternWildcard, Span: p.spanFrom(start)}, parent)
}

// parsePatternLiteralExpr parses the small expression grammar literal
// patterns allow: a bare literal, or a signed/unsigned numeric literal,
// optionally combined as a complex number (a+bj / a-bj).
func (p *Parser) parsePatternLiteralExpr(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	expr := p.parsePatternSignedAtom(parent)
	if p.atAny(token.PLUS, token.MINUS) {
		op := p.text(p.cur())
		p.advance()
		rhs := p.parsePatternSignedAtom(parent)
		return p.add(ast.Node{Kind: ast.KindBinOp, Target: expr, Value: rhs, Str: op, Span: p.spanFrom(start)}, parent)
	}
	return expr
}

func (p *Parser) parsePatternSignedAtom(parent ast.NodeID) ast.NodeID {
	start := p.cur().Span.Start
	if p.at(token.MINUS) {
		p.advance()
		operand := p.parseAtom(parent)
		return p.add(ast.Node{Kind: ast.KindUnaryOp, Str: "-", Value: operand, Span: p.spanFrom(start)}, parent)
	}
	return p.parseAtom(parent)
}

// parseMappingPattern parses a "{...}" mapping pattern: key:pattern
// entries and at most one "**rest" capture.
func (p *Parser) parseMappingPattern(parent ast.NodeID, start int) ast.NodeID {
	p.advance() // '{'
	var entries []ast.NodeID
	for !p.at(token.RBRACE) && !p.at(token.ENDMARKER) {
		if p.at(token.DOUBLESTAR) {
			dstart := p.cur().Span.Start
			p.advance()
			name := p.text(p.expect(token.IDENT))
			entries = append(entries, p.add(ast.Node{Kind: ast.KindPatternCapture, Name: name, Flags: 2, Span: p.spanFrom(dstart)}, parent))
		} else {
			kstart := p.cur().Span.Start
			key := p.parsePatternLiteralExpr(parent)
			p.expect(token.COLON)
			val := p.parsePatternAs(parent)
			entries = append(entries, p.add(ast.Node{Kind: ast.KindKeyword, Target: key, Value: val, Span: p.spanFrom(kstart)}, parent))
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	return p.add(ast.Node{Kind: ast.KindPatternMapping, Extra: entries, Span: p.spanFrom(start)}, parent)
}

// parseNameOrValueOrClassPattern handles the three forms that start with
// a bare identifier: a capture pattern (plain name), a value pattern
// (dotted name, compared by value, e.g. Color.RED), or a class pattern
// (Name(...) with positional/keyword sub-patterns).
func (p *Parser) parseNameOrValueOrClassPattern(parent ast.NodeID, start int) ast.NodeID {
	name := p.text(p.advance())
	dotted := name
	for p.at(token.DOT) {
		p.advance()
		dotted += "." + p.text(p.expect(token.IDENT))
	}

	if p.at(token.LPAREN) {
		class := p.add(ast.Node{Kind: ast.KindName, Name: dotted, Span: p.spanFrom(start)}, parent)
		return p.parseClassPattern(parent, class, start)
	}

	if dotted != name {
		valExpr := p.add(ast.Node{Kind: ast.KindName, Name: dotted, Span: p.spanFrom(start)}, parent)
		return p.add(ast.Node{Kind: ast.KindPatternValue, Value: valExpr, Span: p.spanFrom(start)}, parent)
	}

	// the lexer emits `_` as a plain identifier; in a pattern position it
	// is the wildcard
	if name == "_" {
		return p.add(ast.Node{Kind: ast.KindPatternWildcard, Span: p.spanFrom(start)}, parent)
	}
	return p.add(ast.Node{Kind: ast.KindPatternCapture, Name: name, Span: p.spanFrom(start)}, parent)
}

func (p *Parser) parseClassPattern(parent ast.NodeID, class ast.NodeID, start int) ast.NodeID {
	p.advance() // '('
	var positional, keyword []ast.NodeID
	for !p.at(token.RPAREN) && !p.at(token.ENDMARKER) {
		if p.at(token.IDENT) && p.peekIs(1, token.ASSIGN) {
			kstart := p.cur().Span.Start
			kwName := p.text(p.advance())
			p.advance() // '='
			val := p.parsePatternAs(parent)
			keyword = append(keyword, p.add(ast.Node{Kind: ast.KindKeyword, Name: kwName, Value: val, Span: p.spanFrom(kstart)}, parent))
		} else {
			positional = append(positional, p.parsePatternAs(parent))
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return p.add(ast.Node{Kind: ast.KindPatternClass, Target: class, Children: positional, Extra: keyword, Span: p.spanFrom(start)}, parent)
}
