package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Width zero keeps glamour's default wrapping.
func NewRenderer(width int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}

// ElaborationMarkdown lays out an elaboration result for one tab, or for every IR
// tab when tab is empty.
func ElaborationMarkdown(res *domain.ElaborationResult, tab domain.Tab) string {
	var sb strings.Builder
	if res.Failed() {
		sb.WriteString("**Elaboration failed**\n\n")
	}

	tabs := []domain.Tab{domain.TabCabs, domain.TabAilAST, domain.TabAil, domain.TabCore}
	if tab != "" {
		tabs = []domain.Tab{tab}
	}
	for _, t := range tabs {
		text, ok := res.IR(t)
		if !ok || text == "" {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n```\n%s\n```\n\n", t, strings.TrimRight(text, "\n"))
	}
	if res.Console != "" {
		fmt.Fprintf(&sb, "## %s\n\n```\n%s\n```\n", domain.TabConsole, strings.TrimRight(res.Console, "\n"))
	}
	return sb.String()
}

// ExecutionMarkdown lays out an execution result.
func ExecutionMarkdown(res *domain.ExecutionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\nstatus: `%s`\n\n", domain.TabExecution, res.Status)
	if res.Result != "" {
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", strings.TrimRight(res.Result, "\n"))
	}
	if res.Console != "" {
		fmt.Fprintf(&sb, "## %s\n\n```\n%s\n```\n", domain.TabConsole, strings.TrimRight(res.Console, "\n"))
	}
	return sb.String()
}
