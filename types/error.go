package types

import (
	"fmt"
	"strings"
)

// ErrUnexpectedToken reports that parsing stopped at a token no rule accepts.
// Token is EndOfInput when the input ended too early.
type ErrUnexpectedToken struct {
	// Position is the rune offset of the token.
	Position int
	Token    string
	Expected []string
}

func (e *ErrUnexpectedToken) Error() string {
	return fmt.Sprintf(
		"unexpected token %q at offset %d, expected one of: %s",
		e.Token, e.Position, strings.Join(e.Expected, ", "),
	)
}

// ErrUnexpectedCharacter reports a character where no terminal of the grammar
// can start.
type ErrUnexpectedCharacter struct {
	Position int
	Line     int
	Column   int
	Char     rune
	Expected []string
}

func (e *ErrUnexpectedCharacter) Error() string {
	return fmt.Sprintf(
		"unexpected character %q at line %d, column %d",
		e.Char, e.Line, e.Column,
	)
}

// ErrLeftRecursion reports a rule that re-entered itself without consuming input.
type ErrLeftRecursion struct {
	Rule     string
	Position int
	Line     int
	Column   int
}

func (e *ErrLeftRecursion) Error() string {
	return fmt.Sprintf(
		"left recursion in rule %q at line %d, column %d",
		e.Rule, e.Line, e.Column,
	)
}

// ErrUndefinedRule reports a reference to a rule that does not exist.
type ErrUndefinedRule struct {
	Name string
}

func (e *ErrUndefinedRule) Error() string {
	return fmt.Sprintf("rule %q is not defined", e.Name)
}
