package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/db"
	"github.com/treegar/admin-console/internal/mockapi"
	"github.com/treegar/admin-console/internal/mockapi/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock Admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		opts := mockapi.Options{APIKey: cfg.Mock.APIKey, OTPCode: cfg.Mock.OTPCode}
		if cfg.Mock.RateLimit.Enabled {
			redisClient, err := db.NewRedisClient(cfg.Redis)
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
			opts.RateLimit = middleware.RateLimitConfig{
				Redis:          redisClient,
				RPS:            cfg.Mock.RateLimit.RPS,
				RetryAfterHint: true,
			}
		}

		server := mockapi.NewServer(opts, mockapi.NewStore().Seed())

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.Mock.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("mock api exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
