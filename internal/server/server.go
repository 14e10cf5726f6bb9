// Package server assembles the Fiber application from configuration and
// already opened infrastructure.
package server

import (
	"io"
	"log/slog"
	"time"

	"gymhub/internal/config"
	"gymhub/internal/handlers"
	"gymhub/internal/logging"
	"gymhub/internal/metrics"
	"gymhub/internal/middleware"
	"gymhub/internal/repositories"
	"gymhub/internal/security"
	"gymhub/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options carries the optional collaborators. Zero values disable the
// corresponding feature.
type Options struct {
	Logger *slog.Logger
	// AccessLog receives one line per request when set.
	AccessLog io.Writer
	Publisher services.EventPublisher
	Cache     redis.UniversalClient
	// Registry backs /metrics when cfg.MetricsEnabled. A fresh registry is
	// created when nil.
	Registry *prometheus.Registry
}

// NewApp builds the Fiber app with every route registered.
func NewApp(cfg *config.Config, db *gorm.DB, opts Options) (*fiber.App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	tokens, err := security.NewTokenManager(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		return nil, err
	}
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	var userRepo repositories.UserRepository = repositories.NewGORMUserRepository(db)
	if opts.Cache != nil {
		userRepo = repositories.NewCachedUserRepository(userRepo, opts.Cache, cfg.Redis.CacheTTL, logger)
	}
	gymRepo := repositories.NewGORMGymRepository(db)

	var m *metrics.Metrics
	registry := opts.Registry
	if cfg.MetricsEnabled {
		if registry == nil {
			registry = prometheus.NewRegistry()
		}
		m = metrics.New(registry)
	}

	userService := services.NewUserService(userRepo, hasher, opts.Publisher, logger).WithMetrics(m)
	authService := services.NewAuthService(userRepo, hasher, tokens, logger).WithMetrics(m)
	gymService := services.NewGymService(gymRepo)

	app := fiber.New(fiber.Config{
		AppName:               "gymhub",
		ErrorHandler:          handlers.ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if opts.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{Output: opts.AccessLog}))
	}
	app.Use(m.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		status, health, dbStatus := fiber.StatusOK, "healthy", "up"
		if err := ping(db); err != nil {
			logger.WarnContext(c.UserContext(), "health check failed", "error", err)
			status, health, dbStatus = fiber.StatusServiceUnavailable, "unhealthy", "down"
		}
		return c.Status(status).JSON(handlers.Response{
			Success: status == fiber.StatusOK,
			Status:  status,
			Data: fiber.Map{
				"status":   health,
				"time":     time.Now().Format(time.RFC3339),
				"database": dbStatus,
			},
		})
	})
	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	guard := middleware.AuthRequired(authService, logger)
	api := app.Group(cfg.HTTP.BasePath)

	handlers.NewAuthHandler(authService, logger).RegisterRoutes(api, guard)
	handlers.NewUserHandler(userService, logger).RegisterRoutes(api, guard)
	handlers.NewGymHandler(gymService, logger).RegisterRoutes(api, guard)

	return app, nil
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
