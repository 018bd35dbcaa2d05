package parser

import sitter "github.com/smacker/go-tree-sitter"

// Point is a 0-indexed row/column position, mirroring tree-sitter's own.
type Point struct {
	Row    uint32
	Column uint32
}

// node is our own copy of a tree-sitter node: primitive fields only, so a
// *node (and the Symbols built from it) can outlive the sitter.Tree that
// produced it. The language parser converts the sitter tree into a node
// tree once per Parse call and never touches the sitter tree again.
type node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	HasError   bool
	Children   []*node
}

func convertNode(n *sitter.Node) *node {
	if n == nil {
		return nil
	}
	out := &node{
		Type:       n.Type(),
		StartByte:  n.StartByte(),
		EndByte:    n.EndByte(),
		StartPoint: Point{Row: n.StartPoint().Row, Column: n.StartPoint().Column},
		EndPoint:   Point{Row: n.EndPoint().Row, Column: n.EndPoint().Column},
		HasError:   n.HasError(),
		Children:   make([]*node, 0, n.ChildCount()),
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil {
			out.Children = append(out.Children, convertNode(child))
		}
	}
	return out
}

// content returns the source slice the node spans.
func (n *node) content(source []byte) string {
	if n == nil || n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// childByType returns the first direct child of the given type.
func (n *node) childByType(t string) *node {
	for _, c := range n.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// descendantByType searches depth-first for the first node (including n
// itself) of the given type.
func (n *node) descendantByType(t string) *node {
	if n.Type == t {
		return n
	}
	for _, c := range n.Children {
		if found := c.descendantByType(t); found != nil {
			return found
		}
	}
	return nil
}

// hasDescendantType reports whether any node in n's subtree (including n)
// has one of the given types.
func (n *node) hasDescendantType(types map[string]bool) bool {
	if types[n.Type] {
		return true
	}
	for _, c := range n.Children {
		if c.hasDescendantType(types) {
			return true
		}
	}
	return false
}
