package manager

import (
	"log/slog"

	"github.com/b4fun/grammarkeeper-go/events"
	"github.com/b4fun/grammarkeeper-go/grammars"
	"github.com/b4fun/grammarkeeper-go/merge"
)

// Option configures a Manager.
type Option func(*options)

type options struct {
	logger          *slog.Logger
	merger          merge.Strategy
	publisher       events.Publisher
	initialGrammar  string
	baseGrammarFile string
	fallbackGrammar string
	smokeTest       string
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMerger replaces the text merge strategy used by Extend.
func WithMerger(merger merge.Strategy) Option {
	return func(o *options) {
		o.merger = merger
	}
}

// WithPublisher receives an event for every change of the current version.
func WithPublisher(publisher events.Publisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

// WithInitialGrammar stores text as a new version and makes it current,
// ignoring any version already in the store.
func WithInitialGrammar(text string) Option {
	return func(o *options) {
		o.initialGrammar = text
	}
}

// WithBaseGrammarFile names the file read when the store is empty.
func WithBaseGrammarFile(path string) Option {
	return func(o *options) {
		o.baseGrammarFile = path
	}
}

// WithFallbackGrammar is used when the store is empty and no base grammar
// file can be read. Defaults to grammars.Placeholder.
func WithFallbackGrammar(text string) Option {
	return func(o *options) {
		o.fallbackGrammar = text
	}
}

// WithSmokeTest requires every candidate grammar to parse snippet before it
// is accepted.
func WithSmokeTest(snippet string) Option {
	return func(o *options) {
		o.smokeTest = snippet
	}
}

func createOptions(opts []Option) *options {
	o := &options{
		logger:          slog.Default(),
		merger:          merge.TextStrategy{},
		publisher:       events.Nop,
		fallbackGrammar: grammars.Placeholder,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
