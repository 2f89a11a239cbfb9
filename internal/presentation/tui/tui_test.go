package tui

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/steptree"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *steptree.Tree {
	t.Helper()
	tree, err := steptree.Open(&domain.StepResult{Steps: domain.Steps{
		Nodes: []domain.StepNode{
			{ID: 1, Label: "init", State: json.RawMessage(`1`)},
			{ID: 2, Label: "left", State: json.RawMessage(`2`)},
			{ID: 3, Label: "right", State: json.RawMessage(`3`)},
		},
		Edges: []domain.StepEdge{{From: 1, To: 2}, {From: 1, To: 3}},
	}})
	require.NoError(t, err)
	tree, err = steptree.Expand(tree, 2, &domain.StepResult{Steps: domain.Steps{
		Nodes: []domain.StepNode{{ID: 4, Label: "done"}},
	}})
	require.NoError(t, err)
	return tree
}

func TestRenderTree_Ascii(t *testing.T) {
	got := RenderTree(sampleTree(t), TreeStyle{Profile: termenv.Ascii, Cursor: 3, CursorColour: true})

	assert.Equal(t, "- 1 init\n"+
		"├── - 2 left\n"+
		"│   └── + 4 done\n"+
		"└── + 3 right <\n", got)

	assert.Empty(t, RenderTree(nil, TreeStyle{}))
}

func TestElaborationMarkdown(t *testing.T) {
	res := &domain.ElaborationResult{
		Status:  domain.StatusFailure,
		PP:      domain.Representations{Core: "proc main () : eff loaded integer\n", Cabs: "cabs"},
		Console: "error: bad",
	}

	md := ElaborationMarkdown(res, domain.TabCore)
	assert.Contains(t, md, "**Elaboration failed**")
	assert.Contains(t, md, "## Core\n\n```\nproc main () : eff loaded integer\n```")
	assert.NotContains(t, md, "cabs")
	assert.Contains(t, md, "## Console")

	all := ElaborationMarkdown(&domain.ElaborationResult{PP: res.PP}, "")
	assert.Contains(t, all, "## Cabs")
	assert.Contains(t, all, "## Core")
	assert.NotContains(t, all, "## Ail\n")
}

func TestExecutionMarkdown(t *testing.T) {
	md := ExecutionMarkdown(&domain.ExecutionResult{Status: "done", Result: "0"})
	assert.Contains(t, md, "status: `done`")
	assert.Contains(t, md, "```\n0\n```")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
}
