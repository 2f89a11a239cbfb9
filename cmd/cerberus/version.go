package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/cerberus"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cerberus",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cerberus version %s\n", strings.TrimSpace(cerberus.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
