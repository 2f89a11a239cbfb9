package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/cerberus/pkg/steptree"
)

// GenerateMermaid produces a Mermaid flowchart of a step tree.
// The root is drawn as a circle, expandable nodes as parallelograms, and every
// edge is labelled with its branch choice. A non-zero cursor is highlighted.
func GenerateMermaid(tree *steptree.Tree, cursor int) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if tree == nil {
		return sb.String()
	}

	var leaves []int
	tree.Walk(func(n steptree.Node, _ int) bool {
		opener, closer := "[", "]"
		switch {
		case n.IsRoot:
			opener, closer = "((", "))"
		case !n.Expanded:
			opener, closer = "[/", "/]"
			leaves = append(leaves, n.ID)
		}
		fmt.Fprintf(&sb, "    n%d%s\"%d: %s\"%s\n", n.ID, opener, n.ID, escape(n.Label), closer)

		for _, b := range n.Children {
			fmt.Fprintf(&sb, "    n%d -- \"%s\" --> n%d\n", n.ID, escape(b.Choice), b.Child)
		}
		return true
	})

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds
	sb.WriteString("    classDef leaf fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	for _, id := range leaves {
		fmt.Fprintf(&sb, "    class n%d leaf;\n", id)
	}
	if _, ok := tree.Node(cursor); ok {
		fmt.Fprintf(&sb, "    class n%d current;\n", cursor)
	}
	return sb.String()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}
