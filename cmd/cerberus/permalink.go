package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/cerberus/pkg/permalink"
	"github.com/spf13/cobra"
)

var permalinkCmd = &cobra.Command{
	Use:   "permalink",
	Short: "Encode and decode permalink fragments offline",
}

var permalinkEncodeCmd = &cobra.Command{
	Use:   "encode <file|->",
	Short: "Print the permalink fragment of a C program",
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

		title, source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		if t, _ := cmd.Flags().GetString("title"); t != "" {
			title = t
		}
		v := a.client.NewView(cmd.Context(), title, source)
		token, err := a.client.Permalink(v.ID())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "#"+token)
		return nil
	},
}

var permalinkDecodeCmd = &cobra.Command{
	Use:   "decode <url|fragment>",
	Short: "Print the state carried by a permalink",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := permalink.Resolve(args[0], nil)
		if st.Kind != permalink.StartupPermalink {
			// Accept a bare fragment without the URL around it.
			snap, err := permalink.Decode(args[0])
			if err != nil {
				return err
			}
			st.Snapshot = snap
		}
		data, err := json.MarshalIndent(st.Snapshot, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling snapshot: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(permalinkCmd)
	permalinkCmd.AddCommand(permalinkEncodeCmd)
	permalinkCmd.AddCommand(permalinkDecodeCmd)
	addAnalysisFlags(permalinkEncodeCmd)
	permalinkEncodeCmd.Flags().String("title", "", "Title stored in the link (default: file name)")
}
