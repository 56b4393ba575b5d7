package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/aware/internal/cli"
	httpAdapter "github.com/aretw0/aware/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP server",
	Long:  `Starts the engine and exposes subscriptions, throws, traces and metrics as a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cli.WithShutdown(cmd.Context())
		defer cancel()

		cfg, stack, err := buildStack(ctx, cmd)
		if err != nil {
			return err
		}
		defer stack.Close(context.Background())

		addr := cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		handler := httpAdapter.NewHandler(stack.Engine,
			httpAdapter.WithStreams(stack.Streams),
			httpAdapter.WithMetricsHandler(stack.Metrics.Handler()),
			httpAdapter.WithLogger(stack.Logger),
		)

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			stack.Logger.Info("starting aware server", "addr", srv.Addr, "signals", len(stack.Engine.Signals()))
			serverErrors <- srv.ListenAndServe()
		}()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			stack.Logger.Info("start shutdown", "signal", fmt.Sprint(cli.ShutdownSignal(ctx)))

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(shutdownCtx); err != nil {
				stack.Logger.Error("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			stack.Logger.Info("aware server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides the configuration)")
}
