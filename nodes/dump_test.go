package nodes

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/b4fun/grammarkeeper-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseGreeting(t *testing.T) *types.Node {
	t.Helper()

	name := types.NewLiteralWithName("name", "world")
	greeting := types.NewSequence("greeting", []types.Expression{
		types.NewLiteral("hello "),
		name,
	})

	tree, err := types.ParseWithExpression(greeting, "hello world")
	require.NoError(t, err)
	return tree
}

func TestDumpRuleTree(t *testing.T) {
	assert.Equal(t, "greeting\n  name \"world\"\n", DumpRuleTree(parseGreeting(t)))
}

func TestMarshalTreeJSON(t *testing.T) {
	data, err := MarshalTreeJSON(parseGreeting(t))
	require.NoError(t, err)

	var decoded TreeNode
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "greeting", decoded.Rule)
	require.Len(t, decoded.Children, 1)
	assert.Equal(t, "name", decoded.Children[0].Rule)
	assert.Equal(t, "world", decoded.Children[0].Text)
	assert.Equal(t, 6, decoded.Children[0].Start)
}

func TestNodeVisitorMux(t *testing.T) {
	mux := NewNodeVisitorMux().
		HandleExpr("name", func(node *types.Node, _ []any) (any, error) {
			return "<" + node.Text + ">", nil
		}).
		HandleExpr("greeting", func(_ *types.Node, children []any) (any, error) {
			return children[1], nil
		})

	v, err := mux.Visit(parseGreeting(t))
	require.NoError(t, err)
	assert.Equal(t, "<world>", v)

	assert.Panics(t, func() {
		mux.HandleExpr("name", DefaultNodeVisitor)
	})
}

func TestNodeVisitorMux_VisitError(t *testing.T) {
	boom := errors.New("boom")
	mux := NewNodeVisitorMux().
		HandleExprs(func(*types.Node, []any) (any, error) { return nil, boom }, "name").
		HandleExpr("greeting", LiftChild)

	_, err := mux.Visit(parseGreeting(t))

	var visitErr *VisitError
	require.ErrorAs(t, err, &visitErr)
	assert.Equal(t, "name", visitErr.Rule)
	assert.Equal(t, 6, visitErr.Start)
	assert.Equal(t, 11, visitErr.End)
	assert.ErrorIs(t, err, boom)
}
