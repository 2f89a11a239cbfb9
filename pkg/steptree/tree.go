package steptree

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/aretw0/cerberus/pkg/domain"
)

// Branch is one choice available from a node.
type Branch struct {
	Choice string `json:"choice"`
	Child  int    `json:"child"`
}

// Node is one explored execution state.
type Node struct {
	ID       int
	Label    string
	State    json.RawMessage
	Loc      json.RawMessage
	Parent   int
	IsRoot   bool
	Children []Branch
	Expanded bool
}

func (n *Node) clone() *Node {
	cp := *n
	cp.Children = slices.Clone(n.Children)
	return &cp
}

// Tree is an immutable interactive step tree.
// Every mutation returns a new Tree; values already handed out never change.
type Tree struct {
	session    uint64
	nodes      map[int]*Node
	root       int
	lastNodeID int
	tagDefs    json.RawMessage
}

var sessions atomic.Uint64

// Open builds the tree from the first step response.
// The root is the returned node without an incoming edge (lowest id on ties);
// every other returned node hangs below the node its edge comes from, or below the root.
func Open(res *domain.StepResult) (*Tree, error) {
	if res == nil || len(res.Steps.Nodes) == 0 {
		return nil, domain.ErrEmptyStep
	}

	fresh := make(map[int]*Node, len(res.Steps.Nodes))
	for _, sn := range res.Steps.Nodes {
		if _, dup := fresh[sn.ID]; dup {
			return nil, fmt.Errorf("%w: id %d returned twice", domain.ErrNodeCollision, sn.ID)
		}
		fresh[sn.ID] = newNode(sn)
	}

	incoming := make(map[int]bool)
	for _, e := range res.Steps.Edges {
		if _, ok := fresh[e.From]; ok {
			if _, ok := fresh[e.To]; ok {
				incoming[e.To] = true
			}
		}
	}

	root := -1
	for _, sn := range res.Steps.Nodes {
		if incoming[sn.ID] {
			continue
		}
		if root == -1 || sn.ID < root {
			root = sn.ID
		}
	}
	if root == -1 {
		root = slices.Min(slices.Collect(maps.Keys(fresh)))
	}
	fresh[root].IsRoot = true

	t := &Tree{
		session: sessions.Add(1),
		nodes:   fresh,
		root:    root,
		tagDefs: res.State.TagDefs,
	}
	t.attach(root, res.Steps, fresh)
	t.lastNodeID = maxID(fresh, 0)
	return t, nil
}

// Expand attaches the nodes of a step response below the active node.
// It is a pure function of (tree, parentID, response): the receiver is left untouched.
//
// The parent must exist and must not be expanded yet. Returned ids must be new,
// except for the parent itself, which the service may echo back and which is kept as is.
// The watermark advances to the highest id seen so far.
func Expand(t *Tree, parentID int, res *domain.StepResult) (*Tree, error) {
	if t == nil {
		return nil, domain.ErrNoInteractiveSession
	}
	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownNode, parentID)
	}
	if parent.Expanded {
		return nil, fmt.Errorf("%w: %d", domain.ErrNodeExpanded, parentID)
	}

	var steps domain.Steps
	if res != nil {
		steps = res.Steps
	}

	fresh := make(map[int]*Node, len(steps.Nodes))
	for _, sn := range steps.Nodes {
		if sn.ID == parentID {
			continue
		}
		if _, exists := t.nodes[sn.ID]; exists {
			return nil, fmt.Errorf("%w: %d", domain.ErrNodeCollision, sn.ID)
		}
		if _, dup := fresh[sn.ID]; dup {
			return nil, fmt.Errorf("%w: id %d returned twice", domain.ErrNodeCollision, sn.ID)
		}
		fresh[sn.ID] = newNode(sn)
	}

	next := &Tree{
		session:    t.session,
		nodes:      make(map[int]*Node, len(t.nodes)+len(fresh)),
		root:       t.root,
		lastNodeID: t.lastNodeID,
		tagDefs:    t.tagDefs,
	}
	maps.Copy(next.nodes, t.nodes)
	maps.Copy(next.nodes, fresh)

	p := parent.clone()
	p.Expanded = true
	next.nodes[parentID] = p
	fresh[parentID] = p

	next.attach(parentID, steps, fresh)
	next.lastNodeID = maxID(fresh, t.lastNodeID)
	if res != nil && len(res.State.TagDefs) > 0 {
		next.tagDefs = res.State.TagDefs
	}
	return next, nil
}

// attach links the nodes in scope (the fresh nodes plus their anchor) using the edges,
// in the order the service returned them. Nodes with no edge hang below anchor.
func (t *Tree) attach(anchor int, steps domain.Steps, scope map[int]*Node) {
	parentOf := make(map[int]int, len(steps.Edges))
	for _, e := range steps.Edges {
		if _, ok := scope[e.From]; !ok {
			continue
		}
		child, ok := scope[e.To]
		if !ok || child.IsRoot || e.To == anchor || e.From == e.To {
			continue
		}
		if _, seen := parentOf[e.To]; seen {
			continue
		}
		parentOf[e.To] = e.From
	}

	for _, sn := range steps.Nodes {
		if sn.ID == anchor {
			continue
		}
		node := scope[sn.ID]
		if node == nil || node.IsRoot {
			continue
		}
		pid, ok := parentOf[sn.ID]
		if !ok || t.ancestorOf(sn.ID, pid, parentOf) {
			pid = anchor
		}
		parent := scope[pid]
		node.Parent = pid
		parent.Children = append(parent.Children, Branch{Choice: node.Label, Child: node.ID})
		parent.Expanded = true
	}
}

// ancestorOf reports whether linking child below pid would close a cycle.
func (t *Tree) ancestorOf(child, pid int, parentOf map[int]int) bool {
	seen := map[int]bool{}
	for cur := pid; ; {
		if cur == child {
			return true
		}
		if seen[cur] {
			return true
		}
		seen[cur] = true
		next, ok := parentOf[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

func newNode(sn domain.StepNode) *Node {
	return &Node{
		ID:    sn.ID,
		Label: sn.Label,
		State: sn.State,
		Loc:   sn.Loc,
	}
}

func maxID(nodes map[int]*Node, floor int) int {
	m := floor
	for id := range nodes {
		if id > m {
			m = id
		}
	}
	return m
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return *t.nodes[t.root].clone()
}

// Node looks up a node by id.
func (t *Tree) Node(id int) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n.clone(), true
}

// Session identifies the interactive session a tree belongs to.
// Open and FromSnapshot start a new session; Expand keeps it.
func (t *Tree) Session() uint64 { return t.session }

// LastNodeID is the watermark: the highest node id known to the client.
func (t *Tree) LastNodeID() int { return t.lastNodeID }

// TagDefs is the tag definition table carried between step requests.
func (t *Tree) TagDefs() json.RawMessage { return t.tagDefs }

// Len is the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Leaves returns the ids of nodes that can still be expanded, in ascending order.
func (t *Tree) Leaves() []int {
	var ids []int
	for id, n := range t.nodes {
		if !n.Expanded {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Walk visits the tree depth-first from the root, children in branch order.
// Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(n Node, depth int) bool) {
	var visit func(id, depth int) bool
	visit = func(id, depth int) bool {
		n := t.nodes[id]
		if !fn(*n.clone(), depth) {
			return false
		}
		for _, b := range n.Children {
			if !visit(b.Child, depth+1) {
				return false
			}
		}
		return true
	}
	visit(t.root, 0)
}

// Continuation builds the interactive block of a request expanding node id.
func (t *Tree) Continuation(id int) (*domain.InteractiveRequest, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownNode, id)
	}
	if n.Expanded {
		return nil, fmt.Errorf("%w: %d", domain.ErrNodeExpanded, id)
	}
	return &domain.InteractiveRequest{
		LastID:  t.lastNodeID,
		State:   n.State,
		Active:  id,
		TagDefs: t.tagDefs,
	}, nil
}
