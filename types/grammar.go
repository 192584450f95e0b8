package types

import (
	"fmt"
	"sort"
)

// Grammar parses a text into a tree of nodes with defined grammar rules.
type Grammar struct {
	rules       map[string]Expression
	defaultRule Expression
	parseOpts   []ParseOption
}

// NewGrammar creates a new grammar with the given rules and default rule.
func NewGrammar(rules map[string]Expression, defaultRule Expression) *Grammar {
	return &Grammar{
		rules:       rules,
		defaultRule: defaultRule,
	}
}

func (g *Grammar) String() string {
	return fmt.Sprintf(
		"<Grammar #rules=%d defaultRule=%q>",
		len(g.rules),
		g.defaultRule.ExprName(),
	)
}

// SetDefaultParseOptions sets options applied before the per-call options of
// Parse and ParseWithRule.
func (g *Grammar) SetDefaultParseOptions(opts ...ParseOption) {
	g.parseOpts = opts
}

func (g *Grammar) Parse(text string, parseOpts ...ParseOption) (*Node, error) {
	return ParseWithExpression(g.defaultRule, text, g.withDefaults(parseOpts)...)
}

func (g *Grammar) ParseWithRule(ruleName string, text string, parseOpts ...ParseOption) (*Node, error) {
	rule, ok := g.rules[ruleName]
	if !ok {
		return nil, &ErrUndefinedRule{Name: ruleName}
	}
	return ParseWithExpression(rule, text, g.withDefaults(parseOpts)...)
}

func (g *Grammar) withDefaults(opts []ParseOption) []ParseOption {
	if len(g.parseOpts) == 0 {
		return opts
	}
	merged := make([]ParseOption, 0, len(g.parseOpts)+len(opts))
	merged = append(merged, g.parseOpts...)
	return append(merged, opts...)
}

func (g *Grammar) GetRule(ruleName string) (Expression, bool) {
	rule, ok := g.rules[ruleName]
	return rule, ok
}

// DefaultRule returns the rule Parse starts from.
func (g *Grammar) DefaultRule() Expression {
	return g.defaultRule
}

// RuleNames returns the names of all rules in lexical order.
func (g *Grammar) RuleNames() []string {
	names := make([]string, 0, len(g.rules))
	for name := range g.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
