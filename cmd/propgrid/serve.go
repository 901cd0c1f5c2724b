package main

import (
	"context"
	"fmt"

	"github.com/propgrid/propgrid/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	httpAddr    string
	grpcAddr    string
	disableGRPC bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC view service",
	Example: `
propgrid serve
propgrid serve --http-addr :8081 --no-grpc
propgrid serve --config /etc/propgrid/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address")
	serveCmd.Flags().BoolVar(&disableGRPC, "no-grpc", false, "disable the gRPC server")
}

func runServe(cmd *cobra.Command, args []string) error {
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if grpcAddr != "" {
		cfg.GRPC.Addr = grpcAddr
	}
	if disableGRPC {
		cfg.GRPC.Enabled = false
	}

	logger.Info("starting propgrid",
		zap.String("version", version),
		zap.String("data_dir", cfg.DataDir),
		zap.String("storage", cfg.Storage.Type),
		zap.String("http", cfg.HTTP.Addr),
		zap.Bool("grpc", cfg.GRPC.Enabled))

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	// A failing server ends the wait as well as a signal does.
	go func() {
		if err := application.Wait(); err != nil {
			logger.Error("server failed", zap.Error(err))
		}
		cancel()
	}()

	return application.WaitForShutdown(ctx)
}
