package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/cerberus/internal/cli"
	httpAdapter "github.com/aretw0/cerberus/pkg/adapters/http"
	"github.com/aretw0/cerberus/pkg/orchestrator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the controller HTTP server",
	Long: `Serves the client state over HTTP: views, settings, actions, share links,
server-sent events and Prometheus metrics. Dirty views are re-elaborated by the
auto-refresh ticker while auto-refresh is on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		defer a.close()

		port, _ := cmd.Flags().GetString("port")
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if openURL, _ := cmd.Flags().GetString("open"); cmd.Flags().Changed("open") {
			if _, err := a.client.OpenURL(sigCtx, openURL); err != nil {
				a.logger.Warn("initial view not elaborated", "err", err)
			}
		}

		server := httpAdapter.NewServer(a.client, httpAdapter.WithServerLogger(a.logger))
		defer server.Close()
		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Handler(),
		}
		refresher := a.client.NewAutoRefresher(orchestrator.WithInterval(a.cfg.Refresh.Interval))

		g, ctx := errgroup.WithContext(sigCtx)
		g.Go(func() error {
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Starting Cerberus Server on %s (service %s)", srv.Addr, a.cfg.Service.URL)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			err := refresher.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Cerberus Server stopped gracefully")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8081", "Port to listen on")
	serveCmd.Flags().String("open", "", "URL to open as the first view (permalink, fixed link or empty for the default example)")
}
