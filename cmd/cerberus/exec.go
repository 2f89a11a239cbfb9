package main

import (
	"github.com/aretw0/cerberus/internal/presentation/tui"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <file|->",
	Short: "Run a C program under the semantics",
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

		raw, _ := cmd.Flags().GetString("mode")
		mode, err := domain.ParseExecutionMode(raw)
		if err != nil {
			return err
		}

		title, source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		v := a.client.NewView(cmd.Context(), title, source)
		res, err := a.client.Execute(cmd.Context(), v.ID(), mode)
		if err != nil {
			return err
		}

		plain, _ := cmd.Flags().GetBool("raw")
		return printMarkdown(cmd, tui.ExecutionMarkdown(res), plain)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
	addAnalysisFlags(execCmd)
	execCmd.Flags().String("mode", string(domain.ModeRandom), "Exploration mode: random or exhaustive")
	execCmd.Flags().Bool("raw", false, "Print plain markdown even on a terminal")
}
