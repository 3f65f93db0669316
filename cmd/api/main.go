// Package main is the entrypoint for the Locshare API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/locshare/locshare/internal/blob"
	"github.com/locshare/locshare/internal/cache"
	"github.com/locshare/locshare/internal/config"
	"github.com/locshare/locshare/internal/handler"
	"github.com/locshare/locshare/internal/ingest"
	"github.com/locshare/locshare/internal/metrics"
	"github.com/locshare/locshare/internal/middleware"
	"github.com/locshare/locshare/internal/notify"
	"github.com/locshare/locshare/internal/repository"
	"github.com/locshare/locshare/internal/server"
	"github.com/locshare/locshare/internal/service"
	"github.com/locshare/locshare/internal/stream"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize photo blob store
	photos, err := blob.NewStore(cfg.PhotoDir)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err, "dir", cfg.PhotoDir)
		os.Exit(1)
	}

	// Metrics
	recorder := metrics.NewInMemory()

	// Ingest pipeline: publisher feeds the stream, worker drains it.
	samplePublisher := ingest.NewPublisher(cacheClient.Client(), logger, recorder)
	worker := ingest.NewWorker(cacheClient.Client(), repo, cacheClient, logger, recorder)
	worker.SetBatchSize(cfg.IngestBatchSize)
	worker.SetBlockTimeout(cfg.IngestBlockTimeout)

	// WebSocket hub fans presence/route snapshots out to subscribers.
	hub := stream.NewHub(cacheClient.Client(), repo, logger, recorder, nil)

	// Webhook dispatcher for presence events.
	dispatcher := notify.NewDispatcher(repo, logger)

	// Initialize services
	accountService := service.NewAccountService(
		repo, cacheClient, photos, cfg.BaseURL, cfg.SessionTTL, cfg.TokenEnv(), cfg.MaxPhotoSize,
	)
	presenceService := service.NewPresenceService(repo, cacheClient, samplePublisher, dispatcher, recorder)
	webhookService := service.NewWebhookService(repo)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(recorder)
	authHandler := handler.NewAuthHandler(accountService, presenceService, logger)
	profileHandler := handler.NewProfileHandler(accountService, logger)
	presenceHandler := handler.NewPresenceHandler(presenceService, logger)
	subscribeHandler := handler.NewSubscribeHandler(hub, logger)
	webhookHandler := handler.NewWebhookHandler(webhookService, logger)

	// Setup router
	r := setupRouter(routerDeps{
		health:    healthHandler,
		metrics:   metricsHandler,
		auth:      authHandler,
		profile:   profileHandler,
		presence:  presenceHandler,
		subscribe: subscribeHandler,
		webhook:   webhookHandler,
		cache:     cacheClient,
		cfg:       cfg,
		logger:    logger,
	})

	// Create server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Background components run until shutdown. Registration order
	// matters: OnShutdown is LIFO, so the worker (registered first)
	// drains last, after the hub stops pushing to clients.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	go func() {
		if err := worker.Run(runCtx); err != nil && runCtx.Err() == nil {
			logger.Error("ingest worker exited", "error", err)
		}
	}()
	srv.OnShutdown("ingest-worker", worker.Shutdown)

	go func() {
		if err := hub.Run(runCtx); err != nil && runCtx.Err() == nil {
			logger.Error("stream hub exited", "error", err)
		}
	}()
	srv.OnShutdown("stream-hub", hub.Shutdown)

	srv.OnShutdown("webhook-dispatcher", dispatcher.Shutdown)
	srv.OnShutdown("run-context", func(context.Context) error {
		cancelRun()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	health    *handler.HealthHandler
	metrics   *handler.MetricsHandler
	auth      *handler.AuthHandler
	profile   *handler.ProfileHandler
	presence  *handler.PresenceHandler
	subscribe *handler.SubscribeHandler
	webhook   *handler.WebhookHandler
	cache     *cache.Cache
	cfg       *config.Config
	logger    *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: deps.cfg.IsDevelopment(),
	}))
	// The photo upload enforces its own larger cap in the blob store
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize, "/api/v1/profile/photo"))

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", handler.Hello)

	sessionCfg := middleware.SessionConfig{
		Logger:     deps.logger,
		Cache:      deps.cache,
		SessionTTL: deps.cfg.SessionTTL,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:         deps.logger,
		Cache:          deps.cache,
		SamplesEnabled: deps.cfg.RateLimitSamplesEnabled,
		SamplesPerMin:  deps.cfg.RateLimitSamplesPerMin,
		SamplesBurst:   deps.cfg.RateLimitSamplesBurst,
		LoginEnabled:   deps.cfg.RateLimitLoginEnabled,
		LoginRPS:       deps.cfg.RateLimitLoginRPS,
		LoginBurst:     deps.cfg.RateLimitLoginBurst,
	}

	// Auth endpoints: register/login are unauthenticated and IP rate
	// limited; logout needs the token but tolerates a stale one;
	// password change requires a live session.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/register", deps.auth.Register)
		r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/login", deps.auth.Login)
		r.Post("/logout", deps.auth.Logout)
		r.With(middleware.Session(sessionCfg)).Post("/password", deps.profile.ChangePassword)
	})

	// Authenticated API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(sessionCfg))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", deps.profile.Get)
			r.Patch("/", deps.profile.Update)
			r.Post("/photo", deps.profile.UploadPhoto)
		})

		r.Route("/presence", func(r chi.Router) {
			r.Get("/", deps.presence.List)
			r.Post("/connect", deps.presence.Connect)
			r.Post("/disconnect", deps.presence.Disconnect)
			r.With(middleware.RateLimitSamples(rateLimitCfg)).Post("/position", deps.presence.PublishPosition)
		})

		r.Get("/routes/{userID}", deps.presence.GetRoute)
		r.Get("/subscribe", deps.subscribe.Subscribe)

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", deps.webhook.Create)
			r.Delete("/{id}", deps.webhook.Disable)
		})
	})

	// Resolved photo references point here (no auth; refs are opaque)
	r.Get("/photos/{userID}.jpg", deps.profile.ServePhoto)

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
