// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/whome/internal/auth"
	"github.com/carterperez-dev/whome/internal/config"
	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/health"
	"github.com/carterperez-dev/whome/internal/link"
	"github.com/carterperez-dev/whome/internal/metrics"
	"github.com/carterperez-dev/whome/internal/middleware"
	"github.com/carterperez-dev/whome/internal/ordering"
	"github.com/carterperez-dev/whome/internal/profile"
	"github.com/carterperez-dev/whome/internal/routing"
	"github.com/carterperez-dev/whome/internal/server"
	"github.com/carterperez-dev/whome/internal/session"
	"github.com/carterperez-dev/whome/internal/storage"
	"github.com/carterperez-dev/whome/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	//nolint:errcheck // .env is optional outside development
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if err := metrics.RegisterDB(db.DB.DB, "whome"); err != nil {
		logger.Warn("failed to register db stats collector", "error", err)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
		"min_idle_conns", cfg.Redis.MinIdleConns,
	)

	if err := metrics.RegisterRedisPool(redis.PoolStats); err != nil {
		logger.Warn("failed to register redis pool collector", "error", err)
	}

	var avatars profile.AvatarSaver
	if cfg.Storage.Enabled {
		store, storeErr := storage.NewAvatarStore(ctx, cfg.Storage)
		if storeErr != nil {
			return storeErr
		}
		avatars = store
		logger.Info("avatar storage ready",
			"endpoint", cfg.Storage.Endpoint,
			"bucket", cfg.Storage.Bucket,
		)
	}

	codec, err := session.NewCodec(cfg.Session.Secret, cfg.Session.MaxAge)
	if err != nil {
		return err
	}

	sessionSvc := session.NewService(
		session.NewRepository(db.DB),
		session.NewRedisStore(redis.Client, cfg.Session.KeyPrefix),
		codec,
		cfg.Session,
		logger,
	)
	sessionHandler := session.NewHandler(sessionSvc)

	userSvc := user.NewService(user.NewRepository(db.DB))
	userHandler := user.NewHandler(userSvc, sessionSvc)

	authSvc := auth.NewService(
		auth.NewRepository(db.DB),
		userSvc,
		auth.Config{
			ResetTTL:       cfg.Reset.TokenTTL,
			ExposeResetURL: !cfg.IsProduction(),
			Passwords: core.NewPasswordHasher(core.PasswordParams{
				Time:      cfg.Password.ArgonTime,
				MemoryKiB: cfg.Password.ArgonMemoryKiB,
				Threads:   cfg.Password.ArgonThreads,
				KeyLen:    core.DefaultPasswordParams.KeyLen,
				SaltLen:   core.DefaultPasswordParams.SaltLen,
			}),
		},
		logger,
	)
	authHandler := auth.NewHandler(authSvc, sessionSvc)

	orderer := ordering.NewManager(db.DB)

	linkSvc := link.NewService(link.NewRepository(db.DB), orderer, logger)
	linkHandler := link.NewHandler(linkSvc)

	routingSvc := routing.NewService(routing.NewRepository(db.DB), cfg.App.Hosts, logger)
	routingHandler := routing.NewHandler(routingSvc)

	profileSvc := profile.NewService(
		profile.NewRepository(db.DB),
		orderer,
		linkSvc,
		avatars,
		logger,
	)
	profileHandler := profile.NewHandler(profileSvc, cfg.Storage.MaxAvatarSize)
	overview := profile.NewOverview(profileSvc, linkSvc, routingSvc, sessionSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.Authenticate(sessionSvc))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Name: "global",
			Limit: middleware.PerPeriod(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			KeyFunc:  middleware.KeyByUser,
			FailOpen: true,
		}).Handler,
	)
	router.Use(routing.Middleware(routingSvc, profileHandler))

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name: "auth",
		Limit: middleware.PerWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthWindow,
		),
		KeyFunc:  middleware.KeyByScope("auth"),
		FailOpen: true,
	})
	sensitiveLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name: "sensitive",
		Limit: middleware.PerWindow(
			cfg.RateLimit.SensitiveRequests,
			cfg.RateLimit.SensitiveWindow,
		),
		KeyFunc:  middleware.KeyByScope("sensitive"),
		FailOpen: true,
	})

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/", home(cfg.App))

	linkHandler.RegisterPublicRoutes(router)
	profileHandler.RegisterPublicRoutes(router)
	authHandler.RegisterRoutes(router, authLimiter.Handler, sensitiveLimiter.Handler)

	router.Route("/dashboard", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		overview.RegisterRoutes(r)
		profileHandler.RegisterRoutes(r)
		linkHandler.RegisterRoutes(r)
		routingHandler.RegisterRoutes(r)
		sessionHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()
	healthHandler.SetReady(true)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func home(app config.AppConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		core.OK(w, map[string]string{
			"name":    app.Name,
			"version": app.Version,
		})
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
