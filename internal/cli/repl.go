package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/internal/presentation/graph"
	"github.com/aretw0/cerberus/internal/presentation/tui"
	"github.com/aretw0/cerberus/pkg/steptree"
)

const replHelp = `Commands:
  <id> | e <id>   expand a node
  t | tree        print the tree
  l | leaves      list expandable nodes
  m | mermaid     print the tree as a Mermaid graph
  r | restart     start a new interactive session
  q | quit        leave
`

// StepREPL drives an interactive stepping session on one view from a line reader.
type StepREPL struct {
	Client *cerberus.Client
	ViewID string
	In     io.Reader
	Out    io.Writer
	Style  tui.TreeStyle
}

// Run opens the interactive session and processes commands until quit, end of
// input, or every state has been explored.
func (r *StepREPL) Run(ctx context.Context) error {
	tree, err := r.Client.Step(ctx, r.ViewID)
	if err != nil {
		return err
	}
	r.show(tree)

	scanner := bufio.NewScanner(NewInterruptibleReader(r.In, ctx.Done()))
	for {
		if len(tree.Leaves()) == 0 {
			PrintSystemMessage(r.Out, "All states explored.")
			return nil
		}
		fmt.Fprint(r.Out, "step> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.Out)
			return HandleExecutionError(scanner.Err())
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "q", "quit", "exit":
			return nil
		case "h", "help", "?":
			fmt.Fprint(r.Out, replHelp)
		case "t", "tree":
			r.show(tree)
		case "l", "leaves":
			fmt.Fprintln(r.Out, joinInts(tree.Leaves()))
		case "m", "mermaid":
			fmt.Fprint(r.Out, graph.GenerateMermaid(tree, r.Style.Cursor))
		case "r", "restart":
			next, err := r.Client.Step(ctx, r.ViewID)
			if err != nil {
				PrintSystemMessage(r.Out, "Error: %v", err)
				continue
			}
			tree = next
			r.Style.Cursor = 0
			r.show(tree)
		default:
			arg := fields[0]
			if (arg == "e" || arg == "expand") && len(fields) > 1 {
				arg = fields[1]
			}
			id, err := strconv.Atoi(arg)
			if err != nil {
				PrintSystemMessage(r.Out, "Unknown command %q. Type 'help' for commands.", fields[0])
				continue
			}
			next, err := r.Client.StepExpand(ctx, r.ViewID, id)
			if err != nil {
				PrintSystemMessage(r.Out, "Error: %v", err)
				continue
			}
			tree = next
			r.Style.Cursor = id
			r.show(tree)
		}
	}
}

func (r *StepREPL) show(tree *steptree.Tree) {
	fmt.Fprint(r.Out, tui.RenderTree(tree, r.Style))
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
