package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/textbridge/contact-backend/internal/attachment"
	"github.com/textbridge/contact-backend/internal/audit"
	"github.com/textbridge/contact-backend/internal/config"
	"github.com/textbridge/contact-backend/internal/contact"
	"github.com/textbridge/contact-backend/internal/health"
	"github.com/textbridge/contact-backend/internal/logger"
	"github.com/textbridge/contact-backend/internal/mailer"
	appmw "github.com/textbridge/contact-backend/internal/middleware"
	"github.com/textbridge/contact-backend/internal/metrics"
	"github.com/textbridge/contact-backend/internal/ratelimit"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg := config.Load()
	appLogger := logger.New(logger.DefaultConfig())
	slog.SetDefault(appLogger)

	// Rate window store
	store, redisClient, err := setupRateStore(cfg)
	if err != nil {
		log.Fatalf("Failed to set up rate limit store: %v", err)
	}
	limiter := ratelimit.New(store, cfg.RateLimit.MaxAttempts, cfg.RateLimit.Period, appLogger)

	// Attachment storage
	guard := attachment.NewGuard(cfg.Upload.Dir, cfg.Upload.MaxSizeBytes, appLogger)

	// Outbound mail
	smtpMailer, err := mailer.NewSMTPMailer(cfg.Mail, appLogger)
	if err != nil {
		log.Fatalf("Failed to set up mailer: %v", err)
	}

	// Durable outcome records
	auditLog := audit.NewLog(cfg.Storage.AuditLogPath(), appLogger)
	failureStore := audit.NewFailureStore(cfg.Storage.FailureStorePath(), appLogger)

	pipeline := contact.NewPipeline(limiter, guard, smtpMailer, auditLog, failureStore, appLogger)
	contactHandler := contact.NewHandler(pipeline, appLogger)
	healthHandler := health.NewHandler(redisClient)

	r := setupRouter(cfg, appLogger, contactHandler, healthHandler)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("starting contact backend", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
}

// setupRateStore builds the configured rate window store. The redis
// client is returned separately so the health endpoint can probe it.
func setupRateStore(cfg *config.Config) (ratelimit.Store, *redis.Client, error) {
	switch cfg.RateLimit.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return ratelimit.NewRedisStore(client), client, nil
	case "memory":
		return ratelimit.NewMemoryStore(), nil, nil
	default:
		store, err := ratelimit.NewFileStore(cfg.Storage.RateLimitStorePath())
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

// setupRouter configures middleware and routes
func setupRouter(cfg *config.Config, appLogger *slog.Logger, contactHandler *contact.Handler, healthHandler *health.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.StructuredLogger(appLogger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(chimw.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The CSRF token lives in a server-side session
	r.Use(session.Sessioner(session.Options{
		Provider:    "memory",
		CookieName:  "textbridge_session",
		Secure:      os.Getenv("USE_HTTPS") == "true",
		Gclifetime:  3600,
		Maxlifetime: 3600,
	}))

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	r.Route("/api/v1", func(r chi.Router) {
		contact.RegisterRoutes(r, contactHandler)
	})

	return r
}
