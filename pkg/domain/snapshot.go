package domain

import "encoding/json"

// Snapshot is the complete reconstructable state of one view.
// It is what a permalink carries and what snapshot stores persist.
type Snapshot struct {
	Title       string            `json:"title"`
	Source      string            `json:"source"`
	Settings    *AnalysisSettings `json:"settings,omitempty"`
	ActiveTab   Tab               `json:"activeTab,omitempty"`
	Interactive *TreeSnapshot     `json:"interactive,omitempty"`
}

// TreeSnapshot is the serialisable form of an interactive step tree.
type TreeSnapshot struct {
	LastNodeID int             `json:"lastNodeId"`
	TagDefs    json.RawMessage `json:"tagDefs,omitempty"`
	Nodes      []NodeSnapshot  `json:"nodes"`
}

// NodeSnapshot is one tree node. Parent is nil for the root.
// Nodes are listed so that parents precede their children, in branch order.
type NodeSnapshot struct {
	ID       int             `json:"id"`
	Label    string          `json:"label"`
	State    json.RawMessage `json:"state,omitempty"`
	Parent   *int            `json:"parent,omitempty"`
	Expanded bool            `json:"expanded,omitempty"`
}
