package types

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

type matchResult struct {
	Node *Node
	Err  error
}

func (mr *matchResult) isNoMatch() bool {
	return mr.Node == nil && mr.Err == nil
}

func (mr *matchResult) isMatchedNode() bool {
	return mr.Node != nil && mr.Err == nil
}

func (mr *matchResult) isMatchFailed() bool {
	return mr.Node == nil && mr.Err != nil
}

func (mr *matchResult) String() string {
	if mr.Err != nil {
		return fmt.Sprintf("matchResult{Err: %s}", mr.Err)
	}
	if mr.Node != nil {
		return fmt.Sprintf(
			"matchResult{NodeMatchedStart: %d, NodeMatchedEnd: %d, NodeExpr: %q}",
			mr.Node.Start, mr.Node.End, mr.Node.Expression.ExprName(),
		)
	}
	return "matchResult{NoMatch}"
}

func noMatch() *matchResult {
	return &matchResult{}
}

func matchedNode(node *Node) *matchResult {
	return &matchResult{Node: node}
}

func matchFailed(err error) *matchResult {
	return &matchResult{Err: err}
}

func formatRuleRHSWithOptionalName(name string, rhs string) string {
	if name == "" {
		return rhs
	}
	return fmt.Sprintf("%s = %s", name, rhs)
}

func joinExpressionAsRule(expr Expression) string {
	exprRepr := expr.ExprName()
	if exprRepr == "" {
		return expr.String()
	}
	return exprRepr
}

func joinExpressionsAsRule(exprs []Expression, sep string) string {
	parts := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		parts = append(parts, joinExpressionAsRule(expr))
	}
	return strings.Join(parts, sep)
}

// Expression represents a grammar expression.
type Expression interface {
	fmt.Stringer

	// ExprName returns the name of the expression.
	ExprName() string
	// SetExprName sets the name of the expression. Rule definitions use it to
	// label the expression on their right hand side.
	SetExprName(string)
	// Match matches the expression against the beginning of text. Trailing
	// text is allowed.
	Match(text string, opts ...ParseOption) (*Node, error)

	// matchAt matches the expression at the given rune position. (internal usage)
	matchAt(st *parseState, pos int) *matchResult
}

// ParseWithExpression parses the whole text with the given expression.
//
// On failure the returned error is one of *ErrUnexpectedToken,
// *ErrUnexpectedCharacter or *ErrLeftRecursion.
func ParseWithExpression(expr Expression, text string, opts ...ParseOption) (*Node, error) {
	st := newParseState(text, createParseOpts(opts...))

	result := expr.matchAt(st, 0)
	if result.isMatchFailed() {
		return nil, result.Err
	}
	if result.isMatchedNode() {
		end, err := st.skip(result.Node.End)
		if err != nil {
			return nil, err
		}
		if end >= len(st.text) {
			return result.Node, nil
		}
		st.fail(end, EndOfInput)
	}

	return nil, st.syntaxError()
}

type withResolveRefs interface {
	Expression

	ResolveRefs(rules map[string]Expression) (Expression, error)
}

// ResolveRefsFor replaces lazy references reachable from v with the rules
// they point to.
func ResolveRefsFor(v Expression, rules map[string]Expression) (Expression, error) {
	expr, ok := v.(withResolveRefs)
	if !ok {
		return v, nil
	}

	return expr.ResolveRefs(rules)
}

func resolveRefsForMany(vs []Expression, rules map[string]Expression) ([]Expression, error) {
	resolved := make([]Expression, 0, len(vs))
	for _, v := range vs {
		expr, err := ResolveRefsFor(v, rules)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, expr)
	}

	return resolved, nil
}

type exprImpl interface {
	exprName() string
	setExprName(s string)
	uncachedMatch(st *parseState, pos int) *matchResult
	asRule() string
}

type expression struct {
	impl exprImpl
}

func (e *expression) ExprName() string {
	return e.impl.exprName()
}

func (e *expression) SetExprName(n string) {
	e.impl.setExprName(n)
}

func (e *expression) Match(text string, opts ...ParseOption) (*Node, error) {
	st := newParseState(text, createParseOpts(opts...))
	result := e.matchAt(st, 0)
	switch {
	case result.isMatchedNode():
		return result.Node, nil
	case result.isMatchFailed():
		return nil, result.Err
	default:
		return nil, st.syntaxError()
	}
}

func (e *expression) matchAt(st *parseState, pos int) *matchResult {
	key := st.cacheKey(e, pos)
	node, cached := st.cache[key]
	if !cached {
		st.cache[key] = nodeInProgress
		result := e.impl.uncachedMatch(st, pos)
		if result.isMatchFailed() {
			delete(st.cache, key)
			return result
		}
		node = result.Node
		st.cache[key] = node
		st.debugf("%s at %d: %s\n", e.impl.exprName(), pos, result)
	}
	if node == nodeInProgress {
		return matchFailed(st.leftRecursion(e.impl.exprName(), pos))
	}
	if node == nil {
		return noMatch()
	}

	return matchedNode(node)
}

func (e *expression) String() string {
	return fmt.Sprintf(
		"<%T %s>",
		e.impl,
		e.impl.asRule(),
	)
}

// terminal is an expression that consumes input directly.
type terminal interface {
	Expression

	// scan matches at pos without skipping ignored text. A nil node means no match.
	scan(st *parseState, pos int) (*Node, error)
	// expectedLabel names the terminal in expected sets.
	expectedLabel() string
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type Literal struct {
	expression

	literal []rune
	name    string
}

var _ Expression = (*Literal)(nil)
var _ exprImpl = (*Literal)(nil)
var _ terminal = (*Literal)(nil)

func NewLiteralWithName(name string, literal string) *Literal {
	rv := &Literal{
		literal: []rune(literal),
		name:    name,
	}
	rv.expression = expression{impl: rv}

	return rv
}

func NewLiteral(literal string) *Literal {
	return NewLiteralWithName("", literal)
}

func (l *Literal) GetLiteral() string {
	return string(l.literal)
}

func (l *Literal) exprName() string {
	return l.name
}

func (l *Literal) setExprName(n string) {
	l.name = n
}

func (l *Literal) expectedLabel() string {
	if l.name != "" {
		return l.name
	}
	return fmt.Sprintf("%q", string(l.literal))
}

func (l *Literal) uncachedMatch(st *parseState, pos int) *matchResult {
	return st.matchTerminal(l, pos)
}

func (l *Literal) scan(st *parseState, pos int) (*Node, error) {
	end := pos + len(l.literal)
	if end > len(st.text) {
		return nil, nil
	}
	for i, r := range l.literal {
		if st.text[pos+i] != r {
			return nil, nil
		}
	}
	if st.opts.wordBoundary && len(l.literal) > 0 && end < len(st.text) &&
		isWordRune(l.literal[len(l.literal)-1]) && isWordRune(st.text[end]) {
		return nil, nil
	}

	return st.newNode(l, pos, end), nil
}

func (l *Literal) asRule() string {
	return formatRuleRHSWithOptionalName(
		l.name,
		fmt.Sprintf("%q", string(l.literal)),
	)
}

type Sequence struct {
	expression

	name    string
	members []Expression
}

var _ Expression = (*Sequence)(nil)
var _ exprImpl = (*Sequence)(nil)
var _ withResolveRefs = (*Sequence)(nil)

func NewSequence(name string, members []Expression) *Sequence {
	rv := &Sequence{
		name:    name,
		members: members,
	}
	rv.expression = expression{impl: rv}

	return rv
}

func (s *Sequence) exprName() string {
	return s.name
}

func (s *Sequence) setExprName(n string) {
	s.name = n
}

func (s *Sequence) uncachedMatch(st *parseState, pos int) *matchResult {
	curPos := pos
	children := make([]*Node, 0, len(s.members))
	for _, member := range s.members {
		matchResult := member.matchAt(st, curPos)
		if !matchResult.isMatchedNode() {
			return matchResult
		}
		children = append(children, matchResult.Node)
		curPos = matchResult.Node.End
	}

	return matchedNode(st.newNodeWithChildren(s, pos, curPos, children))
}

func (s *Sequence) ResolveRefs(refs map[string]Expression) (Expression, error) {
	newMembers, err := resolveRefsForMany(s.members, refs)
	if err != nil {
		return nil, err
	}

	s.members = newMembers
	return s, nil
}

func (s *Sequence) asRule() string {
	return formatRuleRHSWithOptionalName(
		s.exprName(),
		fmt.Sprintf("(%s)", joinExpressionsAsRule(s.members, " ")),
	)
}

type OneOf struct {
	expression

	name    string
	members []Expression
}

var _ Expression = (*OneOf)(nil)
var _ exprImpl = (*OneOf)(nil)
var _ withResolveRefs = (*OneOf)(nil)

func NewOneOf(name string, members []Expression) *OneOf {
	rv := &OneOf{
		name:    name,
		members: members,
	}
	rv.expression = expression{impl: rv}

	return rv
}

func (of *OneOf) SetMembers(members []Expression) {
	of.members = members
}

func (of *OneOf) exprName() string {
	return of.name
}

func (of *OneOf) setExprName(n string) {
	of.name = n
}

// uncachedMatch tries the members in order and commits to the first match.
func (of *OneOf) uncachedMatch(st *parseState, pos int) *matchResult {
	for _, member := range of.members {
		matchResult := member.matchAt(st, pos)
		if matchResult.isMatchFailed() {
			return matchResult
		}
		if matchResult.isMatchedNode() {
			child := matchResult.Node
			return matchedNode(st.newNodeWithChildren(of, pos, child.End, []*Node{child}))
		}
	}

	return noMatch()
}

func (of *OneOf) ResolveRefs(refs map[string]Expression) (Expression, error) {
	newMembers, err := resolveRefsForMany(of.members, refs)
	if err != nil {
		return nil, err
	}

	of.members = newMembers
	return of, nil
}

func (of *OneOf) asRule() string {
	return formatRuleRHSWithOptionalName(
		of.exprName(),
		fmt.Sprintf("(%s)", joinExpressionsAsRule(of.members, " / ")),
	)
}

type Lookahead struct {
	expression

	name     string
	member   Expression
	negative bool
}

var _ Expression = (*Lookahead)(nil)
var _ exprImpl = (*Lookahead)(nil)
var _ withResolveRefs = (*Lookahead)(nil)

func NewLookahead(name string, member Expression, negative bool) *Lookahead {
	rv := &Lookahead{
		name:     name,
		member:   member,
		negative: negative,
	}
	rv.expression = expression{impl: rv}

	return rv
}

func NewNot(member Expression) *Lookahead {
	return NewLookahead("", member, true)
}

func (l *Lookahead) exprName() string {
	return l.name
}

func (l *Lookahead) setExprName(n string) {
	l.name = n
}

func (l *Lookahead) uncachedMatch(st *parseState, pos int) *matchResult {
	st.silent++
	matchResult := l.member.matchAt(st, pos)
	st.silent--
	if matchResult.isMatchFailed() {
		return matchResult
	}

	switch {
	case matchResult.isNoMatch() && l.negative:
		return matchedNode(st.newNode(l, pos, pos))
	case matchResult.isMatchedNode() && !l.negative:
		return matchedNode(st.newNode(l, pos, pos))
	default:
		return noMatch()
	}
}

func (l *Lookahead) ResolveRefs(refs map[string]Expression) (Expression, error) {
	newMember, err := ResolveRefsFor(l.member, refs)
	if err != nil {
		return nil, err
	}

	l.member = newMember
	return l, nil
}

func (l *Lookahead) asRule() string {
	prefix := "&"
	if l.negative {
		prefix = "!"
	}

	return formatRuleRHSWithOptionalName(
		l.exprName(),
		fmt.Sprintf("(%s%s)", prefix, joinExpressionAsRule(l.member)),
	)
}

type Quantifier struct {
	expression

	name   string
	member Expression
	min    float64
	max    float64
}

var _ Expression = (*Quantifier)(nil)
var _ exprImpl = (*Quantifier)(nil)
var _ withResolveRefs = (*Quantifier)(nil)

// NewQuantifier matches member between min and max times. Use math.Inf(1)
// for an unbounded max.
func NewQuantifier(name string, member Expression, min float64, max float64) *Quantifier {
	rv := &Quantifier{
		name:   name,
		member: member,
		min:    min,
		max:    max,
	}
	rv.expression = expression{impl: rv}

	return rv
}

func NewZeroOrMore(name string, member Expression) *Quantifier {
	return NewQuantifier(name, member, 0, math.Inf(1))
}

func NewOneOrMore(name string, member Expression) *Quantifier {
	return NewQuantifier(name, member, 1, math.Inf(1))
}

func NewOptional(name string, member Expression) *Quantifier {
	return NewQuantifier(name, member, 0, 1)
}

func (q *Quantifier) exprName() string {
	return q.name
}

func (q *Quantifier) setExprName(n string) {
	q.name = n
}

func (q *Quantifier) uncachedMatch(st *parseState, pos int) *matchResult {
	curPos := pos
	children := make([]*Node, 0)
	for float64(len(children)) < q.max {
		matchResult := q.member.matchAt(st, curPos)
		if matchResult.isMatchFailed() {
			return matchResult
		}
		if matchResult.isNoMatch() {
			break
		}
		node := matchResult.Node
		children = append(children, node)
		if node.End == curPos && float64(len(children)) >= q.min {
			// zero-length match, repeating it would never advance
			break
		}
		curPos = node.End
	}

	if float64(len(children)) < q.min {
		return noMatch()
	}

	return matchedNode(st.newNodeWithChildren(q, pos, curPos, children))
}

func (q *Quantifier) ResolveRefs(refs map[string]Expression) (Expression, error) {
	newMember, err := ResolveRefsFor(q.member, refs)
	if err != nil {
		return nil, err
	}

	q.member = newMember
	return q, nil
}

func (q *Quantifier) asRule() string {
	var quantifier string
	switch {
	case q.min == 0 && q.max == 1:
		quantifier = "?"
	case q.min == 0 && q.max == math.Inf(1):
		quantifier = "*"
	case q.min == 1 && q.max == math.Inf(1):
		quantifier = "+"
	case q.max == math.Inf(1):
		quantifier = fmt.Sprintf("{%d,}", int(q.min))
	case q.min == 0:
		quantifier = fmt.Sprintf("{,%d}", int(q.max))
	case q.min == q.max:
		quantifier = fmt.Sprintf("{%d}", int(q.min))
	default:
		quantifier = fmt.Sprintf("{%d,%d}", int(q.min), int(q.max))
	}

	return formatRuleRHSWithOptionalName(
		q.exprName(),
		joinExpressionAsRule(q.member)+quantifier,
	)
}

type Regex struct {
	expression

	name string
	re   *regexp2.Regexp
}

var _ Expression = (*Regex)(nil)
var _ exprImpl = (*Regex)(nil)
var _ terminal = (*Regex)(nil)

// NewRegex creates a regex terminal. The pattern should be anchored with ^;
// matches that do not start at the current position are rejected anyway.
func NewRegex(name string, re *regexp2.Regexp) *Regex {
	rv := &Regex{
		name: name,
		re:   re,
	}
	rv.expression = expression{impl: rv}

	return rv
}

func (r *Regex) exprName() string {
	return r.name
}

func (r *Regex) setExprName(n string) {
	r.name = n
}

func (r *Regex) expectedLabel() string {
	if r.name != "" {
		return r.name
	}
	return "~" + r.re.String()
}

func (r *Regex) uncachedMatch(st *parseState, pos int) *matchResult {
	return st.matchTerminal(r, pos)
}

func (r *Regex) scan(st *parseState, pos int) (*Node, error) {
	m, err := r.re.FindRunesMatch(st.text[pos:])
	if err != nil {
		return nil, fmt.Errorf("regex %s at %d: %w", r.re, pos, err)
	}
	if m == nil || m.Index != 0 {
		return nil, nil
	}

	node := st.newNode(r, pos, pos+m.Length)
	node.Match = m.String()
	return node, nil
}

func (r *Regex) asRule() string {
	return formatRuleRHSWithOptionalName(
		r.exprName(),
		fmt.Sprintf("~%q", r.re.String()),
	)
}

type LazyReference struct {
	expression

	name          string
	referenceName string
}

var _ Expression = (*LazyReference)(nil)
var _ exprImpl = (*LazyReference)(nil)
var _ withResolveRefs = (*LazyReference)(nil)

func NewLazyReference(referenceName string) *LazyReference {
	rv := &LazyReference{
		name:          "lazy_reference",
		referenceName: referenceName,
	}
	rv.expression = expression{impl: rv}

	return rv
}

// ReferenceName returns the name of the rule the reference points to.
func (r *LazyReference) ReferenceName() string {
	return r.referenceName
}

func (r *LazyReference) exprName() string {
	return r.name
}

func (r *LazyReference) setExprName(n string) {
	r.name = n
}

func (r *LazyReference) uncachedMatch(_ *parseState, _ int) *matchResult {
	return matchFailed(fmt.Errorf("lazy reference %q is not resolved", r.referenceName))
}

func (r *LazyReference) ResolveRefs(refs map[string]Expression) (Expression, error) {
	seen := make(map[string]struct{})
	current := r
	for {
		if _, exists := seen[current.referenceName]; exists {
			return nil, fmt.Errorf("circular reference detected for %q", r.referenceName)
		}
		seen[current.referenceName] = struct{}{}

		resolved, exists := refs[current.referenceName]
		if !exists {
			return nil, &ErrUndefinedRule{Name: current.referenceName}
		}
		if resolvedReference, ok := resolved.(*LazyReference); ok {
			current = resolvedReference
			continue
		}
		return resolved, nil
	}
}

func (r *LazyReference) asRule() string {
	return fmt.Sprintf("<LazyReference to %s>", r.referenceName)
}
