package zecs

import (
	"github.com/TheBitDrifter/mask"
)

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op       Operation
	children []QueryNode
	nodeMask mask.Mask
}

type query struct {
	root QueryNode
}

func newQuery() QueryBuilder {
	return &query{}
}

func newCompositeNode(op Operation, components []Component, children []QueryNode) *compositeNode {
	var nodeMask mask.Mask
	for _, comp := range components {
		nodeMask.Mark(uint32(comp.ID()))
	}
	return &compositeNode{
		op:       op,
		children: children,
		nodeMask: nodeMask,
	}
}

func (n *compositeNode) Evaluate(arch Archetype) bool {
	archeMask := arch.Mask()

	switch n.op {
	case OpAnd:
		if !archeMask.ContainsAll(n.nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(arch) {
				return false
			}
		}
		return true

	case OpOr:
		if archeMask.ContainsAny(n.nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(arch) {
				return true
			}
		}
		return false

	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(arch) {
				return false
			}
		}
		return n.nodeMask.IsEmpty() || archeMask.ContainsNone(n.nodeMask)
	}
	return false
}

func (q *query) And(items ...any) QueryNode {
	return q.node(OpAnd, items)
}

func (q *query) Or(items ...any) QueryNode {
	return q.node(OpOr, items)
}

func (q *query) Not(items ...any) QueryNode {
	return q.node(OpNot, items)
}

func (q *query) node(op Operation, items []any) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(op, components, children)
	// Children are built before their parent, so the latest node is the outermost.
	q.root = node
	return node
}

func (q *query) processItems(items ...any) ([]Component, []QueryNode) {
	components := make([]Component, 0, len(items))
	children := make([]QueryNode, 0)

	for _, item := range items {
		switch v := item.(type) {
		case Component:
			components = append(components, v)
		case []Component:
			components = append(components, v...)
		case QueryNode:
			children = append(children, v)
		}
	}

	return components, children
}

// Evaluate applies the outermost (last built) node of this query.
func (q *query) Evaluate(arch Archetype) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(arch)
}
