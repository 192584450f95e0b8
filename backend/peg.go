package backend

import (
	"fmt"

	"github.com/b4fun/grammarkeeper-go/internal/bootstrap"
	"github.com/b4fun/grammarkeeper-go/types"
)

// DefaultIgnoreRule names the rule skipped before every token.
const DefaultIgnoreRule = "_ignore"

// PEG compiles grammar descriptions into packrat parsers.
type PEG struct {
	ignoreRule   string
	wordBoundary bool
	startRule    string
}

var _ Backend = (*PEG)(nil)

// Option configures a PEG backend.
type Option func(*PEG)

// WithIgnoreRule sets the rule skipped before every token. An empty name
// disables skipping.
func WithIgnoreRule(name string) Option {
	return func(b *PEG) {
		b.ignoreRule = name
	}
}

// WithWordBoundary controls whether word-like literals must end on a word
// boundary, so keyword "Не" does not match the start of "Неделя".
func WithWordBoundary(enabled bool) Option {
	return func(b *PEG) {
		b.wordBoundary = enabled
	}
}

// WithStartRule parses from the named rule instead of the first one.
func WithStartRule(name string) Option {
	return func(b *PEG) {
		b.startRule = name
	}
}

// NewPEG creates a PEG backend. Keywords respect word boundaries by default.
func NewPEG(opts ...Option) *PEG {
	b := &PEG{
		ignoreRule:   DefaultIgnoreRule,
		wordBoundary: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *PEG) Compile(text string) (Artifact, error) {
	grammar, err := bootstrap.NewGrammar(text)
	if err != nil {
		return nil, &CompilationError{Err: err}
	}
	if err := grammar.CheckLeftRecursion(); err != nil {
		return nil, &CompilationError{Err: err}
	}

	start := grammar.DefaultRule()
	if b.startRule != "" {
		rule, ok := grammar.GetRule(b.startRule)
		if !ok {
			return nil, &CompilationError{Err: &types.ErrUndefinedRule{Name: b.startRule}}
		}
		start = rule
	}

	parseOpts := []types.ParseOption{types.ParseWithWordBoundary(b.wordBoundary)}
	if b.ignoreRule != "" {
		if ignore, ok := grammar.GetRule(b.ignoreRule); ok {
			if ignore == start {
				return nil, &CompilationError{
					Err: fmt.Errorf("rule %q cannot be both the start rule and the ignore rule", b.ignoreRule),
				}
			}
			parseOpts = append(parseOpts, types.ParseWithIgnore(ignore))
		}
	}
	grammar.SetDefaultParseOptions(parseOpts...)

	return &PEGArtifact{grammar: grammar, start: start}, nil
}

// PEGArtifact is the Artifact produced by PEG.
type PEGArtifact struct {
	grammar *types.Grammar
	start   types.Expression
}

var _ Artifact = (*PEGArtifact)(nil)

func (a *PEGArtifact) Parse(code string) (*types.Node, error) {
	if a.start == a.grammar.DefaultRule() {
		return a.grammar.Parse(code)
	}
	return a.grammar.ParseWithRule(a.start.ExprName(), code)
}

func (a *PEGArtifact) RuleNames() []string {
	return a.grammar.RuleNames()
}

// Grammar exposes the compiled rules.
func (a *PEGArtifact) Grammar() *types.Grammar {
	return a.grammar
}
