package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/cerberus/internal/cli"
	"github.com/aretw0/cerberus/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored snapshots",
	Long:  `List, inspect, save and remove the snapshots kept in the configured store (short links and saved views).`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := getStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		keys, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing snapshots: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No stored snapshots found.")
			return nil
		}
		fmt.Fprintln(out, "Stored Snapshots:")
		for _, k := range keys {
			fmt.Fprintln(out, "- "+k)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Print a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := getStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		snap, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading snapshot '%s': %w", args[0], err)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling snapshot: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionSaveCmd = &cobra.Command{
	Use:   "save <file|-> <key>",
	Short: "Store a C program and the current settings under a key",
	Args:  cobra.ExactArgs(2),
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
		a.client.NewView(cmd.Context(), title, source)
		if err := a.client.Session().Save(cmd.Context(), a.client.Store(), args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved '%s'\n", args[1])
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove one or more snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := getStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		var errs []error
		for _, key := range args {
			if err := store.Delete(cmd.Context(), key); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", key, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed '%s'\n", key)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionSaveCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	addAnalysisFlags(sessionSaveCmd)
}

func getStore(cmd *cobra.Command) (ports.SnapshotStore, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cli.OpenStore(cfg)
}
