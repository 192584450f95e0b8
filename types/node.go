package types

import (
	"fmt"
)

// Node represents a node in the parse tree.
type Node struct {
	// Expression is the expression that matched this node.
	Expression Expression
	// Text is the text that matched this node.
	Text string
	// Start is the rune start index of the match.
	Start int
	// End is the rune end index of the match.
	End int
	// Children are the child nodes of this node.
	Children []*Node
	// Match is the string that matched this node from the regex expression.
	Match string
}

func (n *Node) String() string {
	return fmt.Sprintf(
		"<Node: %s start:%d, end:%d children:%d>",
		n.Expression, n.Start, n.End, len(n.Children),
	)
}

// ExprName returns the name of the expression that matched this node.
func (n *Node) ExprName() string {
	if n.Expression == nil {
		return ""
	}
	return n.Expression.ExprName()
}

// Find returns the first node in depth-first order whose expression is named
// name, including n itself.
func (n *Node) Find(name string) *Node {
	if n.ExprName() == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node in depth-first order whose expression is named
// name, including n itself.
func (n *Node) FindAll(name string) []*Node {
	var found []*Node
	var walk func(node *Node)
	walk = func(node *Node) {
		if node.ExprName() == name {
			found = append(found, node)
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(n)
	return found
}

func (st *parseState) newNode(expression Expression, start int, end int) *Node {
	return &Node{
		Expression: expression,
		Text:       string(st.text[start:end]),
		Start:      start,
		End:        end,
		Children:   make([]*Node, 0),
	}
}

// newNodeWithChildren starts the node at its first non-empty child so
// ignored text skipped by that child is not part of the node.
func (st *parseState) newNodeWithChildren(
	expression Expression,
	start int,
	end int,
	children []*Node,
) *Node {
	for _, child := range children {
		if child.End > child.Start {
			start = child.Start
			break
		}
	}
	if start > end {
		start = end
	}

	node := st.newNode(expression, start, end)
	node.Children = children
	return node
}
