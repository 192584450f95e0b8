package bootstrap

import (
	"fmt"

	"github.com/b4fun/grammarkeeper-go/types"
)

// ErrDuplicateRule reports a rule name defined more than once.
type ErrDuplicateRule struct {
	Name string
}

func (e *ErrDuplicateRule) Error() string {
	return fmt.Sprintf("rule %q is defined more than once", e.Name)
}

func asGrammar(v any, err error) (*types.Grammar, error) {
	if err != nil {
		return nil, err
	}

	if result, ok := v.(*types.Grammar); ok {
		return result, nil
	}
	return nil, fmt.Errorf("expected *Grammar, got %T", v)
}

func assertNodeToHaveChildrenCount(node *types.Node, children []any, count int) error {
	if len(children) == count {
		return nil
	}

	return fmt.Errorf(
		"%s should have %d children, got %d",
		node, count, len(children),
	)
}

func shouldCastAsNode(v any) (*types.Node, error) {
	if node, ok := v.(*types.Node); ok {
		return node, nil
	}
	return nil, fmt.Errorf("expected *Node, got %#v", v)
}

func shouldCastAsExpressionWithType[T types.Expression](v any) (T, error) {
	if expression, ok := v.(T); ok {
		return expression, nil
	}
	var empty T
	return empty, fmt.Errorf("expected %T, got %#v", empty, v)
}

func shouldCastAsExpression(v any) (types.Expression, error) {
	return shouldCastAsExpressionWithType[types.Expression](v)
}

func shouldCastAsExpressions(v any) ([]types.Expression, error) {
	if node, ok := v.(*types.Node); ok && len(node.Children) == 0 {
		// an empty repetition visits as a bare node
		return nil, nil
	}
	exprs, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected []Expression, got %#v", v)
	}

	expressions := make([]types.Expression, len(exprs))
	for idx, expr := range exprs {
		expression, err := shouldCastAsExpression(expr)
		if err != nil {
			return nil, err
		}
		expressions[idx] = expression
	}

	return expressions, nil
}
