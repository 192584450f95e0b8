package nodes

import (
	"errors"
	"fmt"

	"github.com/b4fun/grammarkeeper-go/types"
)

// NodeVisitFunc turns a node and the results of visiting its children into
// a value.
type NodeVisitFunc func(node *types.Node, children []any) (any, error)

// VisitError reports the innermost node whose visit failed.
type VisitError struct {
	Rule       string
	Start, End int
	Err        error
}

func (e *VisitError) Error() string {
	rule := e.Rule
	if rule == "" {
		rule = "<anonymous>"
	}
	return fmt.Sprintf("visit %s at %d..%d: %s", rule, e.Start, e.End, e.Err)
}

func (e *VisitError) Unwrap() error {
	return e.Err
}

// NodeVisitorMux dispatches visits by the expression name of each node.
type NodeVisitorMux struct {
	visitors     map[string]NodeVisitFunc
	defaultVisit NodeVisitFunc
}

// NodeVisitorMuxOpt configures a NodeVisitorMux.
type NodeVisitorMuxOpt func(*NodeVisitorMux)

// WithDefaultNodeVisitFunc sets the visit function used for unhandled names.
func WithDefaultNodeVisitFunc(f NodeVisitFunc) NodeVisitorMuxOpt {
	return func(mux *NodeVisitorMux) {
		mux.defaultVisit = f
	}
}

// DefaultNodeVisitor returns the visited children, or the node itself for leaves.
func DefaultNodeVisitor(node *types.Node, children []any) (any, error) {
	if len(children) > 0 {
		return children, nil
	}
	return node, nil
}

// LiftChild passes the result of the first child through. It suits nodes
// of ordered choices, which have a single child.
func LiftChild(node *types.Node, children []any) (any, error) {
	if len(children) < 1 {
		return nil, fmt.Errorf("%s should have at least one child", node)
	}
	return children[0], nil
}

func NewNodeVisitorMux(opts ...NodeVisitorMuxOpt) *NodeVisitorMux {
	rv := &NodeVisitorMux{
		visitors:     make(map[string]NodeVisitFunc),
		defaultVisit: DefaultNodeVisitor,
	}
	for _, opt := range opts {
		opt(rv)
	}
	return rv
}

// HandleExpr registers f for nodes named exprName. Registering a name twice panics.
func (mux *NodeVisitorMux) HandleExpr(exprName string, f NodeVisitFunc) *NodeVisitorMux {
	if _, exists := mux.visitors[exprName]; exists {
		panic(fmt.Sprintf("duplicated visitor for %q", exprName))
	}
	mux.visitors[exprName] = f
	return mux
}

// HandleExprs registers f for every name in exprNames.
func (mux *NodeVisitorMux) HandleExprs(f NodeVisitFunc, exprNames ...string) *NodeVisitorMux {
	for _, name := range exprNames {
		mux.HandleExpr(name, f)
	}
	return mux
}

// Visit walks the tree bottom-up. A failing visit is returned as a
// *VisitError naming the node it failed on.
func (mux *NodeVisitorMux) Visit(node *types.Node) (any, error) {
	children := make([]any, len(node.Children))
	for idx, child := range node.Children {
		v, err := mux.Visit(child)
		if err != nil {
			return nil, err
		}
		children[idx] = v
	}

	visit, ok := mux.visitors[node.ExprName()]
	if !ok {
		visit = mux.defaultVisit
	}
	v, err := visit(node, children)
	if err != nil {
		var visitErr *VisitError
		if errors.As(err, &visitErr) {
			return nil, err
		}
		return nil, &VisitError{Rule: node.ExprName(), Start: node.Start, End: node.End, Err: err}
	}
	return v, nil
}
