// Package parser turns a token stream into a pkg/ast.Tree in a single
// forward pass: no backtracking, operator-precedence climbing for
// expressions. On a syntax error it records a diagnostic, advances to
// the next statement boundary (a NEWLINE at the current nesting level or
// a DEDENT), and keeps going; a partial file still yields a tree the
// per-file checkers can run against.
package parser

import (
	"fmt"

	"github.com/reap-dev/reap/pkg/ast"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/reap-dev/reap/pkg/token"
)

// Parser holds the state for one file's single forward pass.
type Parser struct {
	buf  *source.Buffer
	toks []token.Token // comments already filtered out by the caller
	pos  int

	tree *ast.Tree
	errs []*Error
}

// Result is the outcome of parsing one file.
type Result struct {
	Tree   *ast.Tree
	Errors []*Error
}

// Parse parses an already-lexed token stream for buf. toks is the raw
// stream from lexer.Tokenize, comments included; Parse drops them with
// FilterComments, so pkg/engine can hand the same stream to
// internal/suppress for noqa parsing.
func Parse(buf *source.Buffer, toks []token.Token) *Result {
	p := New(buf, FilterComments(toks))
	tree := p.ParseModule()
	return &Result{Tree: tree, Errors: p.errs}
}

// FilterComments drops COMMENT tokens from a token stream. The parser
// grammar has no use for them; internal/suppress reads the original,
// unfiltered stream instead.
func FilterComments(toks []token.Token) []token.Token {
	out := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != token.COMMENT {
			out = append(out, t)
		}
	}
	return out
}

// New creates a Parser over an already comment-filtered token stream.
func New(buf *source.Buffer, toks []token.Token) *Parser {
	return &Parser{buf: buf, toks: toks, tree: ast.New()}
}

// Errors returns parse errors recorded during ParseModule.
func (p *Parser) Errors() []*Error { return p.errs }

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // ENDMARKER
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) atAny(ks ...token.Kind) bool {
	c := p.cur().Kind
	for _, k := range ks {
		if c == k {
			return true
		}
	}
	return false
}

// text returns the source text of a token.
func (p *Parser) text(t token.Token) string {
	return string(p.buf.Slice(t.Span))
}

// atText reports whether the current token is an identifier whose text
// equals s, used for soft keywords (match/case) that the lexer always
// emits as IDENT.
func (p *Parser) atText(s string) bool {
	return p.at(token.IDENT) && p.text(p.cur()) == s
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorf("unexpected token %s, expected %s", p.cur().Kind, k)
	return p.cur()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, &Error{Pos: p.cur().Pos, Message: fmt.Sprintf(format, args...)})
}

// skipNewlines consumes any run of blank NEWLINE tokens (blank lines
// produce none from the lexer, but a defensive skip costs nothing).
func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// recover skips tokens until the next statement boundary: a NEWLINE at
// the current bracket/indent nesting or a DEDENT. depth tracks
// INDENT/DEDENT nesting opened since the error so recovery doesn't
// escape the block the error occurred in.
func (p *Parser) recover() {
	depth := 0
	for {
		switch p.cur().Kind {
		case token.ENDMARKER:
			return
		case token.INDENT:
			depth++
			p.advance()
		case token.DEDENT:
			if depth == 0 {
				return
			}
			depth--
			p.advance()
		case token.NEWLINE:
			p.advance()
			if depth == 0 {
				return
			}
		default:
			p.advance()
		}
	}
}

func (p *Parser) add(n ast.Node, parent ast.NodeID) ast.NodeID {
	return p.tree.Add(n, parent)
}
