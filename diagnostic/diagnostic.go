// Package diagnostic turns parser failures into uniform syntax diagnostics.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/b4fun/grammarkeeper-go/types"
)

// ContextRadius is the number of lines shown around the failing line.
const ContextRadius = 2

// Kind classifies a parse failure.
type Kind int

const (
	KindOther Kind = iota
	KindUnexpectedToken
	KindUnexpectedCharacter
)

func (k Kind) String() string {
	switch k {
	case KindUnexpectedToken:
		return "unexpected_token"
	case KindUnexpectedCharacter:
		return "unexpected_character"
	default:
		return "other"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Diagnostic describes where and why parsing failed.
type Diagnostic struct {
	Kind Kind `json:"kind"`
	// Offset is the rune offset of the failure.
	Offset int `json:"offset"`
	// Line and Column are 1-based and count runes.
	Line   int `json:"line"`
	Column int `json:"column"`
	// Offending is the token or character found at the failure, or
	// types.EndOfInput.
	Offending string   `json:"offending,omitempty"`
	Expected  []string `json:"expected,omitempty"`
	// LineText is the failing line without its line terminator.
	LineText string `json:"line_text"`
	// Context is the numbered window around the failing line with a caret
	// under the failing column.
	Context string `json:"context"`
	Message string `json:"message"`
}

// Summary is a one line description of the failure.
func (d *Diagnostic) Summary() string {
	var sb strings.Builder
	switch d.Kind {
	case KindUnexpectedToken:
		fmt.Fprintf(&sb, "unexpected token %q", d.Offending)
	case KindUnexpectedCharacter:
		fmt.Fprintf(&sb, "unexpected character %q", d.Offending)
	default:
		sb.WriteString(d.Message)
	}
	fmt.Fprintf(&sb, " at line %d, column %d", d.Line, d.Column)
	if len(d.Expected) > 0 {
		fmt.Fprintf(&sb, "; expected one of: %s", strings.Join(d.Expected, ", "))
	}
	return sb.String()
}

// SyntaxError is the error returned for every failed parse.
type SyntaxError struct {
	Diagnostic *Diagnostic
	Err        error
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Diagnostic.Summary()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// NewSyntaxError builds the diagnostic for err raised while parsing code.
func NewSyntaxError(code string, err error) *SyntaxError {
	return &SyntaxError{Diagnostic: FromError(code, err), Err: err}
}

// FromError classifies a backend failure for code.
func FromError(code string, err error) *Diagnostic {
	d := &Diagnostic{
		Kind:    KindOther,
		Line:    1,
		Column:  1,
		Message: err.Error(),
	}

	var (
		tokenErr *types.ErrUnexpectedToken
		charErr  *types.ErrUnexpectedCharacter
		lrErr    *types.ErrLeftRecursion
	)
	switch {
	case errors.As(err, &tokenErr):
		d.Kind = KindUnexpectedToken
		d.Offset = tokenErr.Position
		d.Line, d.Column = LineColumn(code, tokenErr.Position)
		d.Offending = tokenErr.Token
		d.Expected = tokenErr.Expected
	case errors.As(err, &charErr):
		d.Kind = KindUnexpectedCharacter
		d.Offset = charErr.Position
		d.Line, d.Column = charErr.Line, charErr.Column
		d.Offending = string(charErr.Char)
		d.Expected = charErr.Expected
	case errors.As(err, &lrErr):
		d.Offset = lrErr.Position
		d.Line, d.Column = lrErr.Line, lrErr.Column
	}

	d.LineText = lineText(code, d.Line)
	d.Context = ContextWindow(code, d.Line, d.Column)
	return d
}
