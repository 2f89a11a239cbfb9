package main

import (
	"fmt"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share <file|->",
	Short: "Print a link reopening a C program in the web UI",
	Long: `Prints a share link. By default the whole state travels in the URL fragment;
with --short the state is stored and the link is <base>/s/<id>.`,
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
		if cmd.Flags().Changed("short") {
			short, _ := cmd.Flags().GetBool("short")
			a.client.UpdateSettings(cmd.Context(), func(s *domain.Settings) { s.ShortShare = short })
		}

		title, source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		v := a.client.NewView(cmd.Context(), title, source)
		link, err := a.client.Share(cmd.Context(), v.ID())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shareCmd)
	addAnalysisFlags(shareCmd)
	shareCmd.Flags().Bool("short", false, "Store the state and print a short link (overrides share.short)")
}
