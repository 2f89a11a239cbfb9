package main

import (
	"os"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/internal/cli"
	"github.com/aretw0/cerberus/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:   "step <file|->",
	Short: "Explore a C program execution step by step",
	Long: `Opens an interactive stepping session. Each expandable node of the execution
tree can be expanded by typing its id; type 'help' for the other commands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer a.close()
		if err := applyAnalysisFlags(cmd, a); err != nil {
			return err
		}

		title, source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		if args[0] == "-" {
			// Stdin carried the program; commands cannot be read from it too.
			tty, err := os.Open("/dev/tty")
			if err != nil {
				return err
			}
			defer tty.Close()
			cmd.SetIn(tty)
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			tui.PrintBanner(cmd.OutOrStdout(), cerberus.Version)
		}

		settings := a.client.Settings()
		v := a.client.NewView(sigCtx, title, source)
		repl := &cli.StepREPL{
			Client: a.client,
			ViewID: v.ID(),
			In:     cmd.InOrStdin(),
			Out:    cmd.OutOrStdout(),
			Style: tui.TreeStyle{
				Profile:      tui.Profile(os.Stdout, settings.Colour),
				CursorColour: settings.ColourCursor,
			},
		}
		return cli.HandleExecutionError(repl.Run(sigCtx))
	},
}

func init() {
	rootCmd.AddCommand(stepCmd)
	addAnalysisFlags(stepCmd)
	stepCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
