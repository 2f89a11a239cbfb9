package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/cerberus"
	"github.com/aretw0/cerberus/internal/cli"
	"github.com/aretw0/cerberus/internal/config"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cerberus",
	Short: "Cerberus is a client for the Cerberus C semantics service",
	Long: `Cerberus sends C programs to a running Cerberus semantics service and shows
what it computes: intermediate representations, executions and interactive
step-by-step exploration. Views can be shared as permalinks.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./cerberus.yaml or ~/.config/cerberus/cerberus.yaml)")
	rootCmd.PersistentFlags().String("service", "", "Semantics service URL (overrides service.url)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// app bundles what a command needs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	client *cerberus.Client
	close  func()
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if service, _ := cmd.Flags().GetString("service"); service != "" {
		cfg.Service.URL = service
	}
	return cfg, nil
}

// setup loads the configuration and wires a client. Commands must call close.
func setup(cmd *cobra.Command, reg prometheus.Registerer) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, logCloser, err := cli.NewLogger(cfg, debug)
	if err != nil {
		return nil, err
	}
	client, closeStore, err := cli.NewClient(cfg, logger, reg)
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		close: func() {
			if err := closeStore(); err != nil {
				logger.Warn("failed to close store", "err", err)
			}
			logCloser.Close()
		},
	}, nil
}

// addAnalysisFlags registers the flags overriding the analysis settings.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "Memory object model: concrete or symbolic")
	cmd.Flags().Bool("rewrite", false, "Apply Core rewriting")
	cmd.Flags().Bool("sequentialise", true, "Sequentialise Core")
}

// applyAnalysisFlags copies the flags the user set into the client settings.
func applyAnalysisFlags(cmd *cobra.Command, a *app) error {
	var model domain.Model
	if raw, _ := cmd.Flags().GetString("model"); raw != "" {
		m, err := domain.ParseModel(raw)
		if err != nil {
			return err
		}
		model = m
	}
	rewrite, _ := cmd.Flags().GetBool("rewrite")
	sequentialise, _ := cmd.Flags().GetBool("sequentialise")

	a.client.UpdateSettings(cmd.Context(), func(s *domain.Settings) {
		if model != "" {
			s.Model = model
		}
		if cmd.Flags().Changed("rewrite") {
			s.Rewrite = rewrite
		}
		if cmd.Flags().Changed("sequentialise") {
			s.Sequentialise = sequentialise
		}
	})
	return nil
}

// readSource reads a C file, or stdin for "-".
func readSource(cmd *cobra.Command, path string) (title, source string, err error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("error reading stdin: %w", err)
		}
		return "stdin.c", string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("error reading %s: %w", path, err)
	}
	return filepath.Base(path), string(data), nil
}
