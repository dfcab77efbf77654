package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/AlessioChianetta/leadgate/cmd/mainconfig"
	"github.com/AlessioChianetta/leadgate/internal/admin"
	"github.com/AlessioChianetta/leadgate/internal/agents"
	"github.com/AlessioChianetta/leadgate/internal/api/router"
	"github.com/AlessioChianetta/leadgate/internal/audit"
	"github.com/AlessioChianetta/leadgate/internal/campaigns"
	appconfig "github.com/AlessioChianetta/leadgate/internal/config"
	"github.com/AlessioChianetta/leadgate/internal/endpoints"
	"github.com/AlessioChianetta/leadgate/internal/events"
	"github.com/AlessioChianetta/leadgate/internal/leads"
	observemetrics "github.com/AlessioChianetta/leadgate/internal/observability/metrics"
	"github.com/AlessioChianetta/leadgate/internal/webhook"
	"github.com/AlessioChianetta/leadgate/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadgate API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	auditDB, err := sql.Open("postgres", cfg.AuditLogDBURL)
	if err != nil {
		logger.Error("failed to open audit database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = auditDB.Close() }()

	// Repositories
	var endpointRepo endpoints.Repository = endpoints.NewPostgresRepository(pool)
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
		endpointRepo = endpoints.NewCachedRepository(endpointRepo, redisClient, cfg.EndpointCacheTTL, logger.Named("endpoint-cache"))
		logger.Info("endpoint config cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.EndpointCacheTTL.String())
	}
	agentRepo := agents.NewPostgresRepository(pool)
	campaignRepo := campaigns.NewPostgresRepository(pool)
	leadRepo := leads.NewPostgresRepository(pool)

	// Audit trail
	auditStore := audit.NewStore(auditDB)
	recorder := audit.NewRecorder(auditStore, logger.Named("audit"))

	// Lead event announcements (optional)
	var announcer webhook.LeadAnnouncer
	if cfg.LeadQueueURL != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		announcer = events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.LeadQueueURL)
		logger.Info("lead event publishing enabled", "queue", cfg.LeadQueueURL)
	}

	webhookMetrics := observemetrics.NewWebhookMetrics(nil)

	adapterCfg := webhook.AdapterConfig{
		Phone: webhook.PhonePolicy{RepairUSMisdetect: cfg.PhoneRepairUSMisdetect},
		PhoneCandidates: webhook.PhoneCandidatePolicy{
			MinChars:  cfg.PhoneCandidateMinChars,
			MaxChars:  cfg.PhoneCandidateMaxChars,
			MinDigits: cfg.PhoneCandidateMinDigit,
			MaxDigits: cfg.PhoneCandidateMaxDigit,
		},
	}

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		Endpoints:  endpointRepo,
		Agents:     agentRepo,
		Attributor: campaigns.NewAttributor(campaignRepo, logger.Named("attribution")),
		Leads:      leadRepo,
		Recorder:   recorder,
		Announcer:  announcer,
		Adapters:   webhook.NewAdapters(adapterCfg),
		Metrics:    webhookMetrics,
		Logger:     logger.Named("webhook"),
	})

	adminHandler := admin.NewHandler(endpointRepo, auditStore, logger.Named("admin"))

	r := router.New(&router.Config{
		Logger:             logger,
		WebhookHandler:     webhookHandler,
		AdminHandler:       adminHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WebhookRateLimit:   cfg.WebhookRateLimit,
		WebhookRateBurst:   cfg.WebhookRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight audit writes land before the process exits.
	recorder.Close()

	logger.Info("server stopped")
}
