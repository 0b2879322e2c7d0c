package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"alcyxob/fitness-content/internal/api"
	"alcyxob/fitness-content/internal/config"
	"alcyxob/fitness-content/internal/observability"
)

// @title Fitness Content API
// @version 1.0
// @description API for managing workouts, exercises and their relationships.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "server",
		Short:        "Fitness content backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding config.yaml")

	root.AddCommand(newServeCmd(&configPath), newSyncCmd(&configPath), newAdminCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := observability.NewLogger(os.Stdout, cfg.Log.Level)
	slog.SetDefault(logger)
	logger.Info("starting fitness content server", "driver", cfg.Database.Driver, "lock", cfg.Lock.Driver)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(a.services, a.files, api.Options{
		ServiceName:  cfg.Telemetry.ServiceName,
		MaxBodyBytes: cfg.Server.MaxUploadMB << 20,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		return err
	}
	logger.Info("server exiting")
	return nil
}
