package nodes

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/b4fun/grammarkeeper-go/types"
)

// DumpNodeExprTree renders every node with its expression, one per line.
func DumpNodeExprTree(node *types.Node) string {
	sb := new(strings.Builder)

	var dump func(node *types.Node, indent int)
	dump = func(node *types.Node, indent int) {
		sb.WriteString(strings.Repeat(" ", indent))
		fmt.Fprintf(sb, "%s\n", node.Expression)

		for _, child := range node.Children {
			dump(child, indent+2)
		}
	}

	dump(node, 0)

	return sb.String()
}

// DumpRuleTree renders only the nodes produced by named rules. Anonymous
// nodes are flattened into their nearest named ancestor. Leaves show their text.
func DumpRuleTree(node *types.Node) string {
	sb := new(strings.Builder)

	var dump func(node *types.Node, indent int)
	dump = func(node *types.Node, indent int) {
		name := node.ExprName()
		if name == "" {
			for _, child := range node.Children {
				dump(child, indent)
			}
			return
		}

		sb.WriteString(strings.Repeat("  ", indent))
		if len(node.Children) == 0 {
			fmt.Fprintf(sb, "%s %q\n", name, node.Text)
			return
		}
		fmt.Fprintf(sb, "%s\n", name)
		for _, child := range node.Children {
			dump(child, indent+1)
		}
	}

	dump(node, 0)

	return sb.String()
}

// TreeNode is the serializable form of a parse tree node.
type TreeNode struct {
	Rule     string      `json:"rule,omitempty"`
	Text     string      `json:"text,omitempty"`
	Start    int         `json:"start"`
	End      int         `json:"end"`
	Children []*TreeNode `json:"children,omitempty"`
}

// ToTree converts a parse tree, keeping named nodes only. Text is set on leaves.
func ToTree(node *types.Node) *TreeNode {
	var convert func(node *types.Node) []*TreeNode
	convert = func(node *types.Node) []*TreeNode {
		var children []*TreeNode
		for _, child := range node.Children {
			children = append(children, convert(child)...)
		}
		if node.ExprName() == "" {
			return children
		}

		rv := &TreeNode{
			Rule:     node.ExprName(),
			Start:    node.Start,
			End:      node.End,
			Children: children,
		}
		if len(children) == 0 {
			rv.Text = node.Text
		}
		return []*TreeNode{rv}
	}

	converted := convert(node)
	if len(converted) == 1 {
		return converted[0]
	}
	return &TreeNode{Start: node.Start, End: node.End, Children: converted}
}

// MarshalTreeJSON encodes the tree produced by ToTree as indented JSON.
func MarshalTreeJSON(node *types.Node) ([]byte, error) {
	return json.MarshalIndent(ToTree(node), "", "  ")
}
