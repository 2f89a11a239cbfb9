package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/cerberus/pkg/catalog"
	"github.com/spf13/cobra"
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Browse the bundled example programs",
}

var examplesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the de facto tests and demos",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, s := range c.Sections {
			fmt.Fprintf(out, "%s\n", s.Section)
			for _, q := range s.Questions {
				fmt.Fprintf(out, "  %s\n", q.Question)
				for _, name := range q.Tests {
					fmt.Fprintf(out, "    - %s\n", name)
				}
			}
		}
		if len(c.Demos) > 0 {
			fmt.Fprintf(out, "Demos\n    - %s\n", strings.Join(c.Demos, "\n    - "))
		}
		return nil
	},
}

var examplesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Download and print an example",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		path, err := c.Path(args[0])
		if err != nil {
			return err
		}

		a, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer a.close()

		v, err := a.client.Load(cmd.Context(), path)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), v.Source())
		return nil
	},
}

func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog.Path)
}

func init() {
	rootCmd.AddCommand(examplesCmd)
	examplesCmd.AddCommand(examplesLsCmd)
	examplesCmd.AddCommand(examplesShowCmd)
}
