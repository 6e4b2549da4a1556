package formula

import "strings"

// Node represents an expression tree node. It is one of *Literal,
// *Variable, *BinaryOp or *FunctionCall.
type Node interface {
	String() string
	node()
}

// Literal represents a number or text constant
type Literal struct {
	Value Value
	Col   int
}

// Variable represents a reference to a raw field or a derived metric id
type Variable struct {
	Name string
	Col  int
}

// BinaryOp represents one of + - * / applied to two operands
type BinaryOp struct {
	Op    byte
	Left  Node
	Right Node
	Col   int
}

// FunctionCall represents a call to an allow-listed function
type FunctionCall struct {
	Name string
	Args []Node
	Col  int
}

func (*Literal) node()      {}
func (*Variable) node()     {}
func (*BinaryOp) node()     {}
func (*FunctionCall) node() {}

func (n *Literal) String() string  { return n.Value.String() }
func (n *Variable) String() string { return n.Name }

func (n *BinaryOp) String() string {
	return "(" + n.Left.String() + " " + string(n.Op) + " " + n.Right.String() + ")"
}

func (n *FunctionCall) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

// Walk calls fn for every node of the tree in depth-first pre-order.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch t := n.(type) {
	case *BinaryOp:
		Walk(t.Left, fn)
		Walk(t.Right, fn)
	case *FunctionCall:
		for _, a := range t.Args {
			Walk(a, fn)
		}
	}
}

// Variables returns the distinct variable names referenced by the tree,
// in order of first appearance.
func Variables(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(n, func(n Node) bool {
		if v, ok := n.(*Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
		return true
	})
	return names
}
