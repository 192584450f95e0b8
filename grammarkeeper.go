// Package grammarkeeper exposes the grammar engine behind the version
// manager for direct use: compile a grammar description and parse text
// with it.
package grammarkeeper

import (
	"github.com/b4fun/grammarkeeper-go/internal/bootstrap"
	"github.com/b4fun/grammarkeeper-go/nodes"
	"github.com/b4fun/grammarkeeper-go/types"
)

var (
	NewGrammar = bootstrap.NewGrammar

	ParseWithDebug        = types.ParseWithDebug
	ParseWithDebugOutput  = types.ParseWithDebugOutput
	ParseWithWordBoundary = types.ParseWithWordBoundary

	DumpNodeExprTree         = nodes.DumpNodeExprTree
	DumpRuleTree             = nodes.DumpRuleTree
	NewNodeVisitorMux        = nodes.NewNodeVisitorMux
	WithDefaultNodeVisitFunc = nodes.WithDefaultNodeVisitFunc
)

type (
	Node       = types.Node
	Expression = types.Expression
	Grammar    = types.Grammar

	ErrUnexpectedToken     = types.ErrUnexpectedToken
	ErrUnexpectedCharacter = types.ErrUnexpectedCharacter
	ErrLeftRecursion       = types.ErrLeftRecursion
	ErrLeftRecursiveRule   = types.ErrLeftRecursiveRule
	ErrUndefinedRule       = types.ErrUndefinedRule
)

// MetaGrammar returns the grammar that grammar descriptions are written in.
func MetaGrammar() *Grammar {
	return bootstrap.MetaGrammar
}
