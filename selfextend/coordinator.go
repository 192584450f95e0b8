// Package selfextend drives the parse, propose, extend and retry loop that
// lets the active grammar learn constructs it cannot parse yet.
package selfextend

import (
	"errors"
	"log/slog"

	"github.com/b4fun/grammarkeeper-go/diagnostic"
	"github.com/b4fun/grammarkeeper-go/manager"
	"github.com/b4fun/grammarkeeper-go/merge"
	"github.com/b4fun/grammarkeeper-go/rulegen"
	"github.com/b4fun/grammarkeeper-go/types"
	"github.com/b4fun/grammarkeeper-go/versionstore"
)

// DefaultMaxAttempts bounds the extensions committed for one input.
const DefaultMaxAttempts = 3

// Grammar is the part of *manager.Manager the loop drives.
type Grammar interface {
	Parse(code string) (*types.Node, error)
	Extend(proposal merge.Proposal) (*manager.ExtendResult, error)
	Current() *versionstore.GrammarVersion
}

var _ Grammar = (*manager.Manager)(nil)

// Outcome is the result of Run.
type Outcome struct {
	State  State  `json:"state"`
	Reason Reason `json:"reason,omitempty"`
	// Tree is set when the source parsed.
	Tree *types.Node `json:"-"`
	// Diagnostic describes the last failed parse.
	Diagnostic *diagnostic.Diagnostic `json:"diagnostic,omitempty"`
	// Attempts counts committed extensions.
	Attempts    int                     `json:"attempts"`
	Extensions  []*manager.ExtendResult `json:"-"`
	Transitions []State                 `json:"transitions"`
	// Proposal is the last proposal received.
	Proposal *merge.Proposal `json:"proposal,omitempty"`
	// Err is the last proposer or extension error.
	Err error `json:"-"`
}

// Succeeded reports whether the source parsed.
func (o *Outcome) Succeeded() bool {
	return o.State == StateSuccess
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxAttempts bounds the extensions committed per Run.
func WithMaxAttempts(n int) Option {
	return func(c *Coordinator) {
		c.maxAttempts = n
	}
}

// WithEnabled switches self-extension on or off. When off, Run only parses.
func WithEnabled(enabled bool) Option {
	return func(c *Coordinator) {
		c.enabled = enabled
	}
}

// WithAutoCommit controls whether proposals are applied. When off, Run stops
// after the first proposal and returns it for review.
func WithAutoCommit(enabled bool) Option {
	return func(c *Coordinator) {
		c.autoCommit = enabled
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// Coordinator runs the self-extension loop.
type Coordinator struct {
	grammar     Grammar
	proposer    rulegen.Proposer
	maxAttempts int
	enabled     bool
	autoCommit  bool
	logger      *slog.Logger
}

func New(grammar Grammar, proposer rulegen.Proposer, opts ...Option) *Coordinator {
	c := &Coordinator{
		grammar:     grammar,
		proposer:    proposer,
		maxAttempts: DefaultMaxAttempts,
		enabled:     true,
		autoCommit:  true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type run struct {
	*Coordinator
	code    string
	outcome *Outcome
	state   State
}

// Run parses code, extending the grammar and retrying on the same code
// until it parses or the loop gives up. It always returns an outcome.
func (c *Coordinator) Run(code string) *Outcome {
	r := &run{Coordinator: c, code: code, outcome: &Outcome{}}
	r.enter(StateParsing)

	var request rulegen.Request
	var proposal *merge.Proposal
	for !r.state.Terminal() {
		switch r.state {
		case StateParsing:
			r.parse()
		case StateFailed:
			r.afterFailure()
		case StateAnalyzing:
			request = r.analyze()
			r.enter(StateProposalRequested)
		case StateProposalRequested:
			proposal = r.requestProposal(request)
		case StateValidating:
			r.validate(*proposal)
		case StateCommitted:
			r.outcome.Attempts++
			r.enter(StateParsing)
		default:
			r.fail(ReasonNone, nil)
		}
	}

	r.outcome.State = r.state
	return r.outcome
}

func (r *run) enter(s State) {
	r.state = s
	r.outcome.Transitions = append(r.outcome.Transitions, s)
}

func (r *run) fail(reason Reason, err error) {
	r.outcome.Reason = reason
	if err != nil {
		r.outcome.Err = err
	}
	r.logger.Info("self-extension stopped",
		"reason", reason,
		"attempts", r.outcome.Attempts)
	r.enter(StateFail)
}

func (r *run) parse() {
	tree, err := r.grammar.Parse(r.code)
	if err == nil {
		r.outcome.Tree = tree
		r.outcome.Diagnostic = nil
		r.enter(StateSuccess)
		return
	}

	var syntaxErr *diagnostic.SyntaxError
	if errors.As(err, &syntaxErr) {
		r.outcome.Diagnostic = syntaxErr.Diagnostic
	} else {
		r.outcome.Diagnostic = diagnostic.FromError(r.code, err)
	}
	r.enter(StateFailed)
}

func (r *run) afterFailure() {
	switch {
	case !r.enabled:
		r.fail(ReasonDisabled, nil)
	case r.outcome.Attempts >= r.maxAttempts:
		r.fail(ReasonAttemptsExhausted, nil)
	default:
		r.enter(StateAnalyzing)
	}
}

func (r *run) analyze() rulegen.Request {
	d := r.outcome.Diagnostic
	r.logger.Debug("analyzing parse failure",
		"line", d.Line,
		"column", d.Column,
		"kind", d.Kind)
	return rulegen.Request{
		Diagnostic: d,
		Snippet:    diagnostic.Snippet(r.code, d.Line, diagnostic.ContextRadius),
		Grammar:    r.grammar.Current().Grammar,
	}
}

func (r *run) requestProposal(req rulegen.Request) *merge.Proposal {
	proposal, err := r.proposer.Propose(req)
	switch {
	case err != nil:
		r.logger.Warn("rule proposer failed", "error", err)
		r.fail(ReasonProposerFailed, err)
		return nil
	case proposal == nil:
		r.fail(ReasonNoProposal, nil)
		return nil
	}

	r.outcome.Proposal = proposal
	if !r.autoCommit {
		r.fail(ReasonReviewRequired, nil)
		return nil
	}
	r.enter(StateValidating)
	return proposal
}

func (r *run) validate(proposal merge.Proposal) {
	result, err := r.grammar.Extend(proposal)
	if err != nil {
		r.fail(ReasonExtendRejected, err)
		return
	}

	r.outcome.Extensions = append(r.outcome.Extensions, result)
	r.logger.Info("grammar extended",
		"version", result.Version.ID,
		"created_by", result.Version.CreatedBy,
		"attempt", r.outcome.Attempts+1)
	r.enter(StateCommitted)
}
