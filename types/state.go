package types

import (
	"fmt"
	"io"
	"os"
)

// EndOfInput is the token reported when input ends where more was expected.
const EndOfInput = "$END"

// ParseOptions represents options for parsing.
type ParseOptions struct {
	debug        bool
	debugOut     io.Writer
	ignore       Expression
	wordBoundary bool
}

func createParseOpts(opts ...ParseOption) *ParseOptions {
	parseOpts := &ParseOptions{debugOut: os.Stderr}
	for _, o := range opts {
		o(parseOpts)
	}
	return parseOpts
}

// ParseOption configures a ParseOptions.
type ParseOption func(*ParseOptions)

// ParseWithDebug enables tracing of every memoized match.
func ParseWithDebug(debug bool) ParseOption {
	return func(opts *ParseOptions) {
		opts.debug = debug
	}
}

// ParseWithDebugOutput sets where debug traces are written.
func ParseWithDebugOutput(w io.Writer) ParseOption {
	return func(opts *ParseOptions) {
		opts.debugOut = w
	}
}

// ParseWithIgnore skips text matched by ignore before every terminal.
func ParseWithIgnore(ignore Expression) ParseOption {
	return func(opts *ParseOptions) {
		opts.ignore = ignore
	}
}

// ParseWithWordBoundary makes literals ending in a letter, digit or
// underscore refuse to match when the next rune continues the word.
func ParseWithWordBoundary(enabled bool) ParseOption {
	return func(opts *ParseOptions) {
		opts.wordBoundary = enabled
	}
}

const (
	modeSkipping uint8 = 1 << iota
	modeSilent
)

type cacheKey struct {
	expr *expression
	pos  int
	mode uint8
}

var nodeInProgress = new(Node)

// parseState holds everything shared by a single parse run.
type parseState struct {
	text []rune
	opts *ParseOptions

	// cache maps to nil for a memoized miss.
	cache map[cacheKey]*Node

	skipping bool
	silent   int

	farthest     int
	expected     []string
	expectedSeen map[string]struct{}

	terminals    []terminal
	terminalSeen map[terminal]struct{}
}

func newParseState(text string, opts *ParseOptions) *parseState {
	return &parseState{
		text:         []rune(text),
		opts:         opts,
		cache:        make(map[cacheKey]*Node),
		farthest:     -1,
		expectedSeen: make(map[string]struct{}),
		terminalSeen: make(map[terminal]struct{}),
	}
}

func (st *parseState) debugf(format string, args ...any) {
	if st.opts.debug && st.opts.debugOut != nil {
		fmt.Fprintf(st.opts.debugOut, format, args...)
	}
}

func (st *parseState) cacheKey(e *expression, pos int) cacheKey {
	var mode uint8
	if st.skipping {
		mode |= modeSkipping
	}
	if st.silent > 0 {
		mode |= modeSilent
	}
	return cacheKey{expr: e, pos: pos, mode: mode}
}

// skip consumes ignored text at pos. It returns pos unchanged when no ignore
// expression is configured or the parser is already skipping.
func (st *parseState) skip(pos int) (int, error) {
	if st.opts.ignore == nil || st.skipping {
		return pos, nil
	}

	st.skipping = true
	result := st.opts.ignore.matchAt(st, pos)
	st.skipping = false

	if result.isMatchFailed() {
		return pos, result.Err
	}
	if result.isMatchedNode() && result.Node.End > pos {
		return result.Node.End, nil
	}
	return pos, nil
}

func (st *parseState) matchTerminal(t terminal, pos int) *matchResult {
	if _, seen := st.terminalSeen[t]; !seen && !st.skipping {
		st.terminalSeen[t] = struct{}{}
		st.terminals = append(st.terminals, t)
	}

	start, err := st.skip(pos)
	if err != nil {
		return matchFailed(err)
	}

	node, err := t.scan(st, start)
	if err != nil {
		return matchFailed(err)
	}
	if node == nil {
		st.fail(start, t.expectedLabel())
		return noMatch()
	}
	return matchedNode(node)
}

// fail records an expected label at pos, keeping only the farthest position.
func (st *parseState) fail(pos int, label string) {
	if st.silent > 0 || st.skipping {
		return
	}

	if pos > st.farthest {
		st.farthest = pos
		st.expected = nil
		st.expectedSeen = make(map[string]struct{})
	}
	if pos < st.farthest {
		return
	}
	if _, ok := st.expectedSeen[label]; ok {
		return
	}
	st.expectedSeen[label] = struct{}{}
	st.expected = append(st.expected, label)
}

// longestTokenAt returns the longest text any terminal tried during this
// parse matches at pos.
func (st *parseState) longestTokenAt(pos int) string {
	var longest *Node
	for _, t := range st.terminals {
		node, err := t.scan(st, pos)
		if err != nil || node == nil || node.End == node.Start {
			continue
		}
		if longest == nil || node.End > longest.End {
			longest = node
		}
	}
	if longest == nil {
		return ""
	}
	return longest.Text
}

func (st *parseState) syntaxError() error {
	pos := st.farthest
	if pos < 0 {
		pos = 0
	}
	expected := append([]string(nil), st.expected...)

	if pos >= len(st.text) {
		return &ErrUnexpectedToken{
			Position: pos,
			Token:    EndOfInput,
			Expected: expected,
		}
	}
	if token := st.longestTokenAt(pos); token != "" {
		return &ErrUnexpectedToken{
			Position: pos,
			Token:    token,
			Expected: expected,
		}
	}

	line, column := lineAndColumn(st.text, pos)
	return &ErrUnexpectedCharacter{
		Position: pos,
		Line:     line,
		Column:   column,
		Char:     st.text[pos],
		Expected: expected,
	}
}

func (st *parseState) leftRecursion(rule string, pos int) error {
	line, column := lineAndColumn(st.text, pos)
	return &ErrLeftRecursion{
		Rule:     rule,
		Position: pos,
		Line:     line,
		Column:   column,
	}
}
