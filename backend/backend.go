// Package backend compiles grammar descriptions into parsers.
package backend

import (
	"fmt"

	"github.com/b4fun/grammarkeeper-go/types"
)

// Artifact is a compiled grammar.
type Artifact interface {
	// Parse parses the whole of code. Failures are returned as
	// *types.ErrUnexpectedToken, *types.ErrUnexpectedCharacter or another
	// backend error.
	Parse(code string) (*types.Node, error)
	// RuleNames lists the rules of the compiled grammar.
	RuleNames() []string
}

// Backend turns grammar text into an Artifact.
type Backend interface {
	// Compile returns a *CompilationError when text is not a valid grammar.
	Compile(text string) (Artifact, error)
}

// CompilationError reports grammar text the backend rejected.
type CompilationError struct {
	Err error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compile grammar: %s", e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}
