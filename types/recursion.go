package types

import (
	"fmt"
	"strings"
)

// ErrLeftRecursiveRule reports a rule that can reach itself without
// consuming input. Every parse entering such a rule fails with
// ErrLeftRecursion, so grammars containing one are rejected up front.
type ErrLeftRecursiveRule struct {
	Rule string
	// Path lists the rules on the cycle, starting and ending with Rule.
	Path []string
}

func (e *ErrLeftRecursiveRule) Error() string {
	return fmt.Sprintf(
		"rule %q is left recursive: %s",
		e.Rule, strings.Join(e.Path, " -> "),
	)
}

// CheckLeftRecursion reports the first rule, in lexical order, that can
// re-enter itself at the same position.
func (g *Grammar) CheckLeftRecursion() error {
	nullable := nullableExprs(g.rules)

	const (
		active = iota + 1
		done
	)
	state := make(map[Expression]int)
	var stack []Expression

	var visit func(expr Expression) error
	visit = func(expr Expression) error {
		switch state[expr] {
		case active:
			return leftRecursiveRuleError(stack, expr)
		case done:
			return nil
		}

		state[expr] = active
		stack = append(stack, expr)
		for _, next := range leftCalls(expr, nullable) {
			if err := visit(next); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[expr] = done
		return nil
	}

	for _, name := range g.RuleNames() {
		if err := visit(g.rules[name]); err != nil {
			return err
		}
	}
	return nil
}

func leftRecursiveRuleError(stack []Expression, reentered Expression) error {
	start := len(stack) - 1
	for start > 0 && stack[start] != reentered {
		start--
	}

	var path []string
	for _, expr := range stack[start:] {
		if name := expr.ExprName(); name != "" {
			path = append(path, name)
		}
	}
	if len(path) == 0 {
		path = []string{reentered.String()}
	}
	return &ErrLeftRecursiveRule{
		Rule: path[0],
		Path: append(path, path[0]),
	}
}

// leftCalls returns the expressions matched at the position expr starts at.
func leftCalls(expr Expression, nullable map[Expression]bool) []Expression {
	switch e := expr.(type) {
	case *Sequence:
		for idx, member := range e.members {
			if !nullable[member] {
				return e.members[:idx+1]
			}
		}
		return e.members
	case *OneOf:
		return e.members
	case *Quantifier:
		return []Expression{e.member}
	case *Lookahead:
		return []Expression{e.member}
	default:
		return nil
	}
}

// nullableExprs finds every expression reachable from rules that can
// succeed without consuming input.
func nullableExprs(rules map[string]Expression) map[Expression]bool {
	seen := make(map[Expression]struct{})
	var all []Expression
	var collect func(expr Expression)
	collect = func(expr Expression) {
		if _, ok := seen[expr]; ok {
			return
		}
		seen[expr] = struct{}{}
		all = append(all, expr)
		for _, child := range subExpressions(expr) {
			collect(child)
		}
	}
	for _, rule := range rules {
		collect(rule)
	}

	nullable := make(map[Expression]bool)
	for changed := true; changed; {
		changed = false
		for _, expr := range all {
			if !nullable[expr] && isNullable(expr, nullable) {
				nullable[expr] = true
				changed = true
			}
		}
	}
	return nullable
}

func subExpressions(expr Expression) []Expression {
	switch e := expr.(type) {
	case *Sequence:
		return e.members
	case *OneOf:
		return e.members
	case *Quantifier:
		return []Expression{e.member}
	case *Lookahead:
		return []Expression{e.member}
	default:
		return nil
	}
}

func isNullable(expr Expression, nullable map[Expression]bool) bool {
	switch e := expr.(type) {
	case *Literal:
		return len(e.literal) == 0
	case *Regex:
		matched, err := e.re.MatchString("")
		return err == nil && matched
	case *Lookahead:
		return true
	case *Quantifier:
		return e.min == 0 || nullable[e.member]
	case *Sequence:
		for _, member := range e.members {
			if !nullable[member] {
				return false
			}
		}
		return true
	case *OneOf:
		for _, member := range e.members {
			if nullable[member] {
				return true
			}
		}
		return false
	default:
		return false
	}
}
