package bootstrap

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/b4fun/grammarkeeper-go/nodes"
	"github.com/b4fun/grammarkeeper-go/types"
	"github.com/dlclark/regexp2"
)

// createBootstrapRules hand-builds the subset of the meta grammar needed to
// parse ruleSyntax itself.
func createBootstrapRules() types.Expression {
	comment := types.NewRegex(
		"comment",
		regexp2.MustCompile("^#[^\r\n]*", regexp2.RE2),
	)
	meaninglessness := types.NewOneOf(
		"meaninglessness",
		[]types.Expression{
			types.NewRegex("", regexp2.MustCompile(`^\s+`, regexp2.RE2)),
			comment,
		},
	)
	underscore := types.NewZeroOrMore("_", meaninglessness)
	equals := types.NewSequence(
		"equals",
		[]types.Expression{types.NewLiteral("="), underscore},
	)
	label := types.NewSequence(
		"label",
		[]types.Expression{
			types.NewRegex("", regexp2.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*`, regexp2.RE2)),
			underscore,
		},
	)
	reference := types.NewSequence(
		"reference",
		[]types.Expression{label, types.NewNot(equals)},
	)
	quantifier := types.NewSequence(
		"quantifier",
		[]types.Expression{
			types.NewRegex("", regexp2.MustCompile(`^[*+?]`, regexp2.RE2)),
			underscore,
		},
	)
	literal := types.NewSequence(
		"literal",
		[]types.Expression{
			types.NewRegex(
				"spaceless_literal",
				regexp2.MustCompile(`(?si)^r?"[^"\\]*(?:\\.[^"\\]*)*"`, regexp2.RE2),
			),
			underscore,
		},
	)
	regex := types.NewSequence(
		"regex",
		[]types.Expression{
			types.NewLiteral("~"),
			literal,
			types.NewRegex("", regexp2.MustCompile(`^[ilmsuxa]*`, regexp2.RE2|regexp2.IgnoreCase)),
			underscore,
		},
	)
	atom := types.NewOneOf("atom", []types.Expression{reference, literal, regex})
	quantified := types.NewSequence("quantified", []types.Expression{atom, quantifier})

	term := types.NewOneOf("term", nil)
	notTerm := types.NewSequence(
		"not_term",
		[]types.Expression{types.NewLiteral("!"), term, underscore},
	)
	term.SetMembers([]types.Expression{notTerm, quantified, atom})

	sequence := types.NewSequence(
		"sequence",
		[]types.Expression{term, types.NewOneOrMore("", term)},
	)
	orTerm := types.NewSequence(
		"or_term",
		[]types.Expression{types.NewLiteral("/"), underscore, term},
	)
	ored := types.NewSequence(
		"ored",
		[]types.Expression{term, types.NewOneOrMore("", orTerm)},
	)
	expression := types.NewOneOf("expression", []types.Expression{ored, sequence, term})
	rule := types.NewSequence("rule", []types.Expression{label, equals, expression})

	return types.NewSequence(
		"rules",
		[]types.Expression{underscore, types.NewOneOrMore("", rule)},
	)
}

// parseQuantifier converts quantifier text into repetition bounds.
func parseQuantifier(text string) (float64, float64, error) {
	switch text {
	case "?":
		return 0, 1, nil
	case "*":
		return 0, math.Inf(1), nil
	case "+":
		return 1, math.Inf(1), nil
	}

	body := strings.TrimSuffix(strings.TrimPrefix(text, "{"), "}")
	if body == text {
		return 0, 0, fmt.Errorf("unknown quantifier %q", text)
	}
	bound := func(s string, fallback float64) (float64, error) {
		if s == "" {
			return fallback, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("quantifier %q: %w", text, err)
		}
		return float64(n), nil
	}

	minText, maxText, ranged := strings.Cut(body, ",")
	min, err := bound(minText, 0)
	if err != nil {
		return 0, 0, err
	}
	if !ranged {
		return min, min, nil
	}
	max, err := bound(maxText, math.Inf(1))
	if err != nil {
		return 0, 0, err
	}
	if max < min {
		return 0, 0, fmt.Errorf("quantifier %q: max is less than min", text)
	}
	return min, max, nil
}

func regexOptions(flags string) (regexp2.RegexOptions, error) {
	var options regexp2.RegexOptions = regexp2.Unicode
	for _, flag := range strings.ToLower(flags) {
		switch flag {
		case 'i':
			options |= regexp2.IgnoreCase
		case 'm':
			options |= regexp2.Multiline
		case 's':
			options |= regexp2.Singleline
		case 'x':
			options |= regexp2.IgnorePatternWhitespace
		case 'u', 'a':
		default:
			return 0, fmt.Errorf("regex flag %q is not supported", flag)
		}
	}
	return options, nil
}

// createRuleVisitor turns a parsed grammar description into a *types.Grammar.
// extraRules are added after the parsed rules, replacing rules of the same name.
func createRuleVisitor(extraRules []types.Expression) *nodes.NodeVisitorMux {
	visitParenthesized := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 5); err != nil {
			return nil, err
		}
		expression, err := shouldCastAsExpression(children[2])
		if err != nil {
			return nil, fmt.Errorf("parenthesized: %w", err)
		}
		return expression, nil
	}

	visitQuantifier := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 2); err != nil {
			return nil, err
		}
		return children[0], nil
	}

	visitQuantified := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 2); err != nil {
			return nil, err
		}
		atom, err := shouldCastAsExpression(children[0])
		if err != nil {
			return nil, fmt.Errorf("quantified: %w", err)
		}
		quantifier, err := shouldCastAsNode(children[1])
		if err != nil {
			return nil, fmt.Errorf("quantified: %w", err)
		}

		min, max, err := parseQuantifier(quantifier.Text)
		if err != nil {
			return nil, err
		}
		return types.NewQuantifier("", atom, min, max), nil
	}

	visitLookahead := func(negative bool) nodes.NodeVisitFunc {
		return func(node *types.Node, children []any) (any, error) {
			if err := assertNodeToHaveChildrenCount(node, children, 3); err != nil {
				return nil, err
			}
			term, err := shouldCastAsExpression(children[1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", node.ExprName(), err)
			}
			return types.NewLookahead("", term, negative), nil
		}
	}

	visitRule := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 3); err != nil {
			return nil, err
		}
		label, err := shouldCastAsNode(children[0])
		if err != nil {
			return nil, fmt.Errorf("rule: %w", err)
		}
		expression, err := shouldCastAsExpression(children[2])
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", label.Text, err)
		}

		if _, alias := expression.(*types.LazyReference); alias {
			// keep a node of its own for rules like "a = b"
			return types.NewSequence(label.Text, []types.Expression{expression}), nil
		}
		expression.SetExprName(label.Text)
		return expression, nil
	}

	visitSequence := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 2); err != nil {
			return nil, err
		}
		term, err := shouldCastAsExpression(children[0])
		if err != nil {
			return nil, fmt.Errorf("sequence: %w", err)
		}
		otherTerms, err := shouldCastAsExpressions(children[1])
		if err != nil {
			return nil, fmt.Errorf("sequence: %w", err)
		}
		return types.NewSequence("", append([]types.Expression{term}, otherTerms...)), nil
	}

	visitOred := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 2); err != nil {
			return nil, err
		}
		firstTerm, err := shouldCastAsExpression(children[0])
		if err != nil {
			return nil, fmt.Errorf("ored: %w", err)
		}
		otherTerms, err := shouldCastAsExpressions(children[1])
		if err != nil {
			return nil, fmt.Errorf("ored: %w", err)
		}
		return types.NewOneOf("", append([]types.Expression{firstTerm}, otherTerms...)), nil
	}

	visitOrTerm := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 3); err != nil {
			return nil, err
		}
		return children[2], nil
	}

	// label yields the name node, not an expression.
	visitLabel := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 2); err != nil {
			return nil, err
		}
		return shouldCastAsNode(children[0])
	}

	visitReference := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 2); err != nil {
			return nil, err
		}
		label, err := shouldCastAsNode(children[0])
		if err != nil {
			return nil, err
		}
		return types.NewLazyReference(label.Text), nil
	}

	visitRegex := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 4); err != nil {
			return nil, err
		}
		literal, err := shouldCastAsExpressionWithType[*types.Literal](children[1])
		if err != nil {
			return nil, fmt.Errorf("regex (literal): %w", err)
		}
		flags, err := shouldCastAsNode(children[2])
		if err != nil {
			return nil, fmt.Errorf("regex (flags): %w", err)
		}
		options, err := regexOptions(flags.Text)
		if err != nil {
			return nil, fmt.Errorf("regex (flags): %w", err)
		}

		pattern := "^(?:" + literal.GetLiteral() + ")"
		re, err := regexp2.Compile(pattern, options)
		if err != nil {
			return nil, fmt.Errorf("regex %q: %w", literal.GetLiteral(), err)
		}
		return types.NewRegex("", re), nil
	}

	visitSpacelessLiteral := func(node *types.Node, children []any) (any, error) {
		value, err := evalQuotedLiteral(node.Text)
		if err != nil {
			return nil, fmt.Errorf("literal %s: %w", node.Text, err)
		}
		return types.NewLiteral(value), nil
	}

	visitLiteral := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 2); err != nil {
			return nil, err
		}
		return children[0], nil
	}

	// rules yields the finished *types.Grammar.
	visitRules := func(node *types.Node, children []any) (any, error) {
		if err := assertNodeToHaveChildrenCount(node, children, 2); err != nil {
			return nil, err
		}
		rules, err := shouldCastAsExpressions(children[1])
		if err != nil {
			return nil, fmt.Errorf("rules: %w", err)
		}
		if len(rules) == 0 {
			return nil, fmt.Errorf("rules: grammar defines no rules")
		}

		var ruleNames []string
		rulesMap := make(map[string]types.Expression)
		for _, rule := range rules {
			name := rule.ExprName()
			if _, exists := rulesMap[name]; exists {
				return nil, &ErrDuplicateRule{Name: name}
			}
			rulesMap[name] = rule
			ruleNames = append(ruleNames, name)
		}
		for _, rule := range extraRules {
			name := rule.ExprName()
			if _, exists := rulesMap[name]; !exists {
				ruleNames = append(ruleNames, name)
			}
			rulesMap[name] = rule
		}
		for _, name := range ruleNames {
			resolved, err := types.ResolveRefsFor(rulesMap[name], rulesMap)
			if err != nil {
				return nil, fmt.Errorf("resolve refs for %q: %w", name, err)
			}
			rulesMap[name] = resolved
		}

		return types.NewGrammar(rulesMap, rulesMap[ruleNames[0]]), nil
	}

	return nodes.NewNodeVisitorMux().
		HandleExprs(nodes.LiftChild, "expression", "term", "atom", "alternative").
		HandleExpr("parenthesized", visitParenthesized).
		HandleExpr("quantifier", visitQuantifier).
		HandleExpr("quantified", visitQuantified).
		HandleExpr("lookahead_term", visitLookahead(false)).
		HandleExpr("not_term", visitLookahead(true)).
		HandleExpr("rule", visitRule).
		HandleExpr("sequence", visitSequence).
		HandleExpr("ored", visitOred).
		HandleExpr("or_term", visitOrTerm).
		HandleExpr("label", visitLabel).
		HandleExpr("reference", visitReference).
		HandleExpr("regex", visitRegex).
		HandleExpr("spaceless_literal", visitSpacelessLiteral).
		HandleExpr("literal", visitLiteral).
		HandleExpr("rules", visitRules)
}
