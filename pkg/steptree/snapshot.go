package steptree

import (
	"fmt"

	"github.com/aretw0/cerberus/pkg/domain"
)

// Snapshot serialises the tree, parents before children, children in branch order.
func (t *Tree) Snapshot() *domain.TreeSnapshot {
	snap := &domain.TreeSnapshot{
		LastNodeID: t.lastNodeID,
		TagDefs:    t.tagDefs,
		Nodes:      make([]domain.NodeSnapshot, 0, len(t.nodes)),
	}
	t.Walk(func(n Node, _ int) bool {
		ns := domain.NodeSnapshot{
			ID:       n.ID,
			Label:    n.Label,
			State:    n.State,
			Expanded: n.Expanded,
		}
		if !n.IsRoot {
			parent := n.Parent
			ns.Parent = &parent
		}
		snap.Nodes = append(snap.Nodes, ns)
		return true
	})
	return snap
}

// FromSnapshot rebuilds a tree. The first node must be the only root and
// every parent must appear before its children.
func FromSnapshot(snap *domain.TreeSnapshot) (*Tree, error) {
	if snap == nil || len(snap.Nodes) == 0 {
		return nil, domain.ErrEmptyStep
	}

	t := &Tree{
		session:    sessions.Add(1),
		nodes:      make(map[int]*Node, len(snap.Nodes)),
		lastNodeID: snap.LastNodeID,
		tagDefs:    snap.TagDefs,
	}
	for i, ns := range snap.Nodes {
		if _, dup := t.nodes[ns.ID]; dup {
			return nil, fmt.Errorf("%w: %d", domain.ErrNodeCollision, ns.ID)
		}
		n := &Node{
			ID:       ns.ID,
			Label:    ns.Label,
			State:    ns.State,
			Expanded: ns.Expanded,
		}
		switch {
		case i == 0 && ns.Parent == nil:
			n.IsRoot = true
			t.root = ns.ID
		case i == 0 || ns.Parent == nil:
			return nil, fmt.Errorf("snapshot node %d: root must come first and be unique", ns.ID)
		default:
			parent, ok := t.nodes[*ns.Parent]
			if !ok {
				return nil, fmt.Errorf("%w: parent %d of node %d", domain.ErrUnknownNode, *ns.Parent, ns.ID)
			}
			n.Parent = parent.ID
			parent.Children = append(parent.Children, Branch{Choice: n.Label, Child: n.ID})
			parent.Expanded = true
		}
		t.nodes[ns.ID] = n
		if ns.ID > t.lastNodeID {
			t.lastNodeID = ns.ID
		}
	}
	return t, nil
}
