package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cerberus/internal/presentation/tui"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/spf13/cobra"
)

var elaborateCmd = &cobra.Command{
	Use:   "elaborate <file|->",
	Short: "Show the intermediate representations of a C program",
	Long:  `Elaborates the program and prints Cabs, Ail and Core, or only the representation chosen with --tab.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer a.close()
		if err := applyAnalysisFlags(cmd, a); err != nil {
			return err
		}

		var tab domain.Tab
		if raw, _ := cmd.Flags().GetString("tab"); raw != "" {
			if tab, err = domain.ParseTab(raw); err != nil {
				return err
			}
		}

		title, source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		v := a.client.NewView(cmd.Context(), title, source)
		if _, err := a.client.Elaborate(cmd.Context(), v.ID(), tab); err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetBool("raw")
		return printMarkdown(cmd, tui.ElaborationMarkdown(v.LastResult(), tab), raw)
	},
}

// printMarkdown renders md with glamour on a terminal, as is otherwise.
func printMarkdown(cmd *cobra.Command, md string, raw bool) error {
	out := cmd.OutOrStdout()
	if raw || out != os.Stdout || !tui.IsTerminal(os.Stdout) {
		_, err := fmt.Fprint(out, md)
		return err
	}
	rendered, err := tui.NewRenderer(tui.Width(os.Stdout))(md)
	if err != nil {
		_, err = fmt.Fprint(out, md)
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func init() {
	rootCmd.AddCommand(elaborateCmd)
	addAnalysisFlags(elaborateCmd)
	elaborateCmd.Flags().String("tab", "", "Only show one representation: Cabs, Ail_AST, Ail or Core")
	elaborateCmd.Flags().Bool("raw", false, "Print plain markdown even on a terminal")
}
