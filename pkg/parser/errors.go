package parser

import (
	"fmt"

	"github.com/reap-dev/reap/pkg/token"
)

// Error is a syntax error recorded during parsing. A parse error never
// aborts the file: the parser records it, skips to the next statement
// boundary, and keeps building whatever tree it can.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}
