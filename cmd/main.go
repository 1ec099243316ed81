package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/duynhne/pkg/logger/zerolog"
	"github.com/duynhne/wanderlust/config"
	"github.com/duynhne/wanderlust/internal/core"
	"github.com/duynhne/wanderlust/internal/core/storage"
	logicv1 "github.com/duynhne/wanderlust/internal/logic/v1"
	"github.com/duynhne/wanderlust/internal/web/session"
	v1 "github.com/duynhne/wanderlust/internal/web/v1"
	"github.com/duynhne/wanderlust/middleware"
)

const sessionPurgeInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Configuration load failed: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	// Initialize Zerolog with LOG_LEVEL from config
	zerolog.Setup(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize OpenTelemetry tracing
	tp, err := middleware.InitTracing(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing")
	} else if cfg.Tracing.Enabled {
		log.Info().
			Str("endpoint", cfg.Tracing.Endpoint).
			Float64("sample_rate", cfg.Tracing.SampleRate).
			Msg("Tracing initialized")
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Connect the primary store and the session store
	store, err := core.Open(context.Background(), core.Options{
		Driver:            cfg.Database.Driver,
		DatabaseURL:       cfg.Database.URL,
		MongoDatabase:     cfg.Database.MongoDatabase,
		MongoTransactions: cfg.Database.MongoTransactions,
		SessionStore:      cfg.Session.Store,
		RedisAddr:         cfg.Session.RedisAddr,
		RedisPassword:     cfg.Session.RedisPassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	images, err := openImageStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize image storage")
	}

	writeTimeout := cfg.GetWriteTimeoutDuration()
	h := v1.NewHandler(
		logicv1.NewAuthService(store.Users, writeTimeout),
		logicv1.NewListingService(store.Listings, store.Reviews, store.Users, images, writeTimeout),
		logicv1.NewReviewService(store.Reviews, writeTimeout),
		v1.JSONRenderer{},
		cfg.Storage.MaxUploadBytes,
	)

	if cfg.Session.Secret == "" {
		log.Warn().Msg("SESSION_SECRET not set; sessions will not survive a restart")
	}
	sessions := session.NewManager(store.Sessions, session.Options{
		CookieName: cfg.Session.CookieName,
		Secret:     []byte(cfg.Session.Secret),
		TTL:        cfg.GetSessionTTLDuration(),
		TouchAfter: cfg.GetSessionTouchAfterDuration(),
		Secure:     cfg.IsProduction(),
	})

	r := v1.NewRouter(h, v1.RouterOptions{
		Sessions:   sessions,
		Production: cfg.IsProduction(),
	})

	var isShuttingDown atomic.Bool

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started or the store is unreachable.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		Handler:           middleware.MethodOverride(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting wanderlust")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go purgeSessions(ctx, store)

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation.
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Close store connections
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Store close error")
	} else {
		log.Info().Msg("Store connections closed")
	}

	// 3. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}

func openImageStore(cfg *config.Config) (storage.ImageStore, error) {
	if cfg.Storage.Driver != "minio" {
		log.Warn().Msg("Using in-memory image storage; uploads are lost on restart")
		return storage.NewMemoryStore(), nil
	}
	s, err := storage.NewMinioStore(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.UseSSL,
		cfg.Storage.PublicBaseURL,
	)
	if err != nil {
		return nil, err
	}
	log.Info().Str("endpoint", cfg.Storage.Endpoint).Str("bucket", cfg.Storage.Bucket).Msg("MinIO image storage ready")
	return s, nil
}

// purgeSessions removes expired sessions on backends without native expiry
// until ctx is cancelled.
func purgeSessions(ctx context.Context, store *core.Store) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Session purge failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("removed", n).Msg("Expired sessions purged")
			}
		}
	}
}
