package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/cerberus/pkg/steptree"
	"github.com/muesli/termenv"
)

const (
	expandedColour = "#818cf8"
	leafColour     = "#f472b6"
)

// TreeStyle controls how a step tree is drawn. Cursor is the id of the selected
// node, zero for none; CursorColour highlights it when colours are on.
type TreeStyle struct {
	Profile      termenv.Profile
	Cursor       int
	CursorColour bool
}

// RenderTree draws the step tree one node per line. Expandable nodes are marked
// with "+", expanded ones with "-".
func RenderTree(tree *steptree.Tree, style TreeStyle) string {
	if tree == nil {
		return ""
	}
	p := style.Profile
	var sb strings.Builder

	var visit func(id int, prefix string, last, root bool)
	visit = func(id int, prefix string, last, root bool) {
		n, ok := tree.Node(id)
		if !ok {
			return
		}

		connector := ""
		childPrefix := ""
		if !root {
			connector = "├── "
			childPrefix = prefix + "│   "
			if last {
				connector = "└── "
				childPrefix = prefix + "    "
			}
		}

		marker, colour := "+", leafColour
		if n.Expanded {
			marker, colour = "-", expandedColour
		}
		label := p.String(fmt.Sprintf("%s %d %s", marker, n.ID, n.Label)).Foreground(p.Color(colour))
		if n.ID == style.Cursor {
			if style.CursorColour {
				label = label.Reverse()
			}
			label = p.String(label.String() + " <")
		}
		fmt.Fprintf(&sb, "%s%s%s\n", prefix, connector, label)

		for i, b := range n.Children {
			visit(b.Child, childPrefix, i == len(n.Children)-1, false)
		}
	}
	visit(tree.Root().ID, "", true, true)
	return sb.String()
}
