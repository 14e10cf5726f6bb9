package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymhub/internal/config"
	"gymhub/internal/database"
	"gymhub/internal/logging"
	"gymhub/internal/server"
	"gymhub/internal/services"
	"gymhub/pkg/rabbitmq"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd(v *viper.Viper, load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address, e.g. :8080")
	bindFlag(v, cmd, "addr", "APP_ADDR")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	// Postgres schemas are managed with the migrate command.
	if cfg.Database.Driver != config.DriverPostgres {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	opts := server.Options{Logger: logger, AccessLog: os.Stdout}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, user cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			opts.Cache = client
		}
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, closeMQ := connectRabbitMQ(ctx, cfg.RabbitMQ, logger)
		defer closeMQ()
		opts.Publisher = publisher
	}

	app, err := server.NewApp(cfg, db, opts)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTP.Addr, "base_path", cfg.HTTP.BasePath)
		errCh <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		return oops.Code("SERVER_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logging.LogError(logger, "error during shutdown", err)
		return err
	}
	logger.Info("server gracefully stopped")
	return nil
}

// connectRabbitMQ returns a publisher and its cleanup. A broker that cannot
// be reached disables events instead of failing startup.
func connectRabbitMQ(ctx context.Context, cfg config.RabbitMQConfig, logger *slog.Logger) (services.EventPublisher, func()) {
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.URL, Queue: cfg.Queue}, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable, user events disabled", "error", err)
		return nil, func() {}
	}

	if err := client.ConsumeUserEvents(ctx, rabbitmq.LogUserEvents(logger)); err != nil {
		logger.Warn("failed to start user event consumer", "error", err)
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close rabbitmq client", "error", err)
		}
	}
}
