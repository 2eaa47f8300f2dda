package lexer_test

import (
	"testing"

	"github.com/reap-dev/reap/pkg/lexer"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/reap-dev/reap/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	buf := source.New("test.py", []byte(src))
	toks, errs := lexer.Tokenize(buf)
	require.Empty(t, errs)
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestIndentDedent(t *testing.T) {
	src := "if x:\n    y = 1\nz = 2\n"
	got := kinds(t, src)
	want := []token.Kind{
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.IDENT, token.ASSIGN, token.NUMBER, token.NEWLINE,
		token.DEDENT, token.IDENT, token.ASSIGN, token.NUMBER, token.NEWLINE,
		token.ENDMARKER,
	}
	assert.Equal(t, want, got)
}

func TestNestedDedents(t *testing.T) {
	src := "if a:\n    if b:\n        x = 1\ny = 2\n"
	got := kinds(t, src)
	dedents := 0
	for _, k := range got {
		if k == token.DEDENT {
			dedents++
		}
	}
	assert.Equal(t, 2, dedents, "closing two levels at once emits one DEDENT per pop")
}

func TestBlankAndCommentLinesDoNotAffectIndentation(t *testing.T) {
	src := "if x:\n    a = 1\n\n    # comment\n    b = 2\n"
	got := kinds(t, src)
	indents, dedents := 0, 0
	for _, k := range got {
		switch k {
		case token.INDENT:
			indents++
		case token.DEDENT:
			dedents++
		}
	}
	assert.Equal(t, 1, indents)
	assert.Equal(t, 1, dedents)
}

func TestBadDedentIsRecoverableError(t *testing.T) {
	src := "if x:\n        a = 1\n    b = 2\n"
	buf := source.New("test.py", []byte(src))
	toks, errs := lexer.Tokenize(buf)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "unindent")
	assert.Equal(t, token.ENDMARKER, toks[len(toks)-1].Kind, "lexing continues past the error")
}

func TestImplicitLineJoining(t *testing.T) {
	src := "items = [\n    1,\n    2,\n]\n"
	got := kinds(t, src)
	for _, k := range got {
		assert.NotEqual(t, token.INDENT, k, "no INDENT inside brackets")
	}
	newlines := 0
	for _, k := range got {
		if k == token.NEWLINE {
			newlines++
		}
	}
	assert.Equal(t, 1, newlines, "only the closing line ends the logical line")
}

func TestBackslashContinuation(t *testing.T) {
	src := "total = 1 + \\\n    2\n"
	got := kinds(t, src)
	newlines := 0
	for _, k := range got {
		if k == token.NEWLINE {
			newlines++
		}
	}
	assert.Equal(t, 1, newlines)
}

func TestStringPrefixes(t *testing.T) {
	buf := source.New("test.py", []byte("a = r'raw'\nb = b'bytes'\nc = f'fmt {x}'\nd = '''triple'''\n"))
	toks, errs := lexer.Tokenize(buf)
	require.Empty(t, errs)

	var strs []token.Token
	for _, tok := range toks {
		if tok.Kind == token.STRING || tok.Kind == token.FSTRING {
			strs = append(strs, tok)
		}
	}
	require.Len(t, strs, 4)
	assert.NotZero(t, strs[0].Flags&token.FlagRaw)
	assert.NotZero(t, strs[1].Flags&token.FlagBytes)
	assert.Equal(t, token.FSTRING, strs[2].Kind)
	assert.NotZero(t, strs[2].Flags&token.FlagFString)
	assert.NotZero(t, strs[3].Flags&token.FlagTriple)
}

func TestFStringIsOneToken(t *testing.T) {
	src := "msg = f\"{a} and {b}\"\n"
	buf := source.New("test.py", []byte(src))
	toks, errs := lexer.Tokenize(buf)
	require.Empty(t, errs)

	count := 0
	for _, tok := range toks {
		if tok.Kind == token.FSTRING {
			count++
			assert.Equal(t, `f"{a} and {b}"`, string(buf.Slice(tok.Span)))
		}
	}
	assert.Equal(t, 1, count)
}

func TestUnterminatedStringRecovers(t *testing.T) {
	buf := source.New("test.py", []byte("s = 'oops\nx = 1\n"))
	toks, errs := lexer.Tokenize(buf)
	require.NotEmpty(t, errs)
	assert.Equal(t, token.ENDMARKER, toks[len(toks)-1].Kind)
}

func TestTokensCarrySpansNotText(t *testing.T) {
	src := "value = 42\n"
	buf := source.New("test.py", []byte(src))
	toks, errs := lexer.Tokenize(buf)
	require.Empty(t, errs)

	assert.Equal(t, "value", string(buf.Slice(toks[0].Span)))
	assert.Equal(t, "42", string(buf.Slice(toks[2].Span)))
}

func TestCRLFNormalization(t *testing.T) {
	buf := source.New("test.py", []byte("x = 1\r\ny = 2\r\n"))
	toks, errs := lexer.Tokenize(buf)
	require.Empty(t, errs)
	var idents int
	for _, tok := range toks {
		if tok.Kind == token.IDENT {
			idents++
		}
	}
	assert.Equal(t, 2, idents)
}

func TestOperators(t *testing.T) {
	src := "a //= b ** c := d\n"
	buf := source.New("test.py", []byte(src))
	toks, _ := lexer.Tokenize(buf)
	var ops []token.Kind
	for _, tok := range toks {
		switch tok.Kind {
		case token.DSLASHEQ, token.DOUBLESTAR, token.WALRUS:
			ops = append(ops, tok.Kind)
		}
	}
	assert.Equal(t, []token.Kind{token.DSLASHEQ, token.DOUBLESTAR, token.WALRUS}, ops)
}
