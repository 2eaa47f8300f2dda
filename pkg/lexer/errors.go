package lexer

import (
	"fmt"

	"github.com/reap-dev/reap/pkg/token"
)

// Error represents a lexical error: malformed token or an indentation
// width that doesn't match anything on the indent stack after dedenting.
// Lexing continues past an Error: the lexer degrades to emitting an
// ENDMARKER once it can no longer make progress, and never panics.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}
