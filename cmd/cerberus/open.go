package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/internal/presentation/tui"
	"github.com/aretw0/cerberus/pkg/permalink"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open [url]",
	Short: "Open a permalink, a fixed link or the default example",
	Long: `Starts the way the web UI does for a URL: a '#' fragment is a permalink, a
'?file.c&model=...' query is a fixed link, anything else loads the default example.
Short links (<base>/s/<id>) are resolved through the configured store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer a.close()

		rawURL := ""
		if len(args) == 1 {
			rawURL = args[0]
		}

		st := permalink.Resolve(rawURL, a.logger)
		if id, ok := cerberus.ParseShortURL(rawURL); ok {
			snap, err := a.client.ResolveShort(cmd.Context(), id)
			if err != nil {
				return err
			}
			st = permalink.Startup{Kind: permalink.StartupPermalink, Snapshot: snap}
		}

		v, err := a.client.Open(cmd.Context(), st)
		if v == nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "// %s (%s)\n%s\n", v.Title(), st.Kind, v.Source())
		if err != nil {
			return err
		}
		if tree := v.Interactive(); tree != nil {
			fmt.Fprint(out, tui.RenderTree(tree, tui.TreeStyle{Profile: tui.Profile(os.Stdout, a.client.Settings().Colour)}))
			return nil
		}
		if res := v.LastResult(); res != nil {
			raw, _ := cmd.Flags().GetBool("raw")
			return printMarkdown(cmd, tui.ElaborationMarkdown(res, ""), raw)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().Bool("raw", false, "Print plain markdown even on a terminal")
}
