package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/vmchat"
	httpAdapter "github.com/aretw0/vmchat/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long:  `Starts vmchat as an HTTP server exposing the chat endpoint, stored sessions and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd, false)
		if err != nil {
			return err
		}
		defer stack.Close()
		logger := stack.Logger

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		handler, err := httpAdapter.NewHandler(ctx, stack.Assistant,
			httpAdapter.WithSessions(stack.Sessions),
			httpAdapter.WithMetrics(stack.Metrics.Handler()),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMaxInputSize(stack.Config.MaxInputSize),
			httpAdapter.WithVersion(vmchat.Version),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              stack.Config.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting vmchat server", "addr", srv.Addr, "management_api", stack.Config.Management.BaseURL)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "error", err)
				}
			}
			logger.Info("vmchat server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides listen_addr)")
}
