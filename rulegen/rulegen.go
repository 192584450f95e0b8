// Package rulegen proposes grammar extensions for code the active grammar
// cannot parse.
package rulegen

import (
	"github.com/b4fun/grammarkeeper-go/diagnostic"
	"github.com/b4fun/grammarkeeper-go/merge"
)

// Request is what a proposer knows about a failed parse.
type Request struct {
	Diagnostic *diagnostic.Diagnostic
	// Snippet is the source around the failing line.
	Snippet string
	// Grammar is the text of the grammar that failed.
	Grammar string
}

// Proposer suggests a grammar extension. It returns (nil, nil) when it has
// nothing to offer.
type Proposer interface {
	Propose(req Request) (*merge.Proposal, error)
}

// ProposerFunc adapts a function to Proposer.
type ProposerFunc func(req Request) (*merge.Proposal, error)

func (f ProposerFunc) Propose(req Request) (*merge.Proposal, error) {
	return f(req)
}
