package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pacelink.app/relay/common/id"
	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/common/otel"
	"pacelink.app/relay/core/config"
	"pacelink.app/relay/internal/dedupe"
	"pacelink.app/relay/internal/http/middleware"
	httprouter "pacelink.app/relay/internal/http/router"
	"pacelink.app/relay/internal/service"
	"pacelink.app/relay/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		// slog is not configured yet
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "relay starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	tokens, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open credential store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	admitter, closeDedupe, err := newAdmitter(ctx, cfg.Dedupe)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up webhook deduplication", "error", err)
		os.Exit(1)
	}
	defer closeDedupe()

	services := service.NewServices(cfg, tokens, admitter)

	if !cfg.Poke.Enabled() {
		slog.WarnContext(ctx, "POKE_API_KEY not set, activity notifications will not be relayed")
	}
	if _, err := services.Credentials().Current(ctx); err != nil {
		slog.WarnContext(ctx, "no strava credential yet, authorize via /strava/auth", "error", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Tool calls can wait on a token refresh plus a 30s Strava call.
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting",
			"port", cfg.Port,
			"webhook_callback", cfg.WebhookCallbackURL())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func newAdmitter(ctx context.Context, cfg config.DedupeConfig) (dedupe.Admitter, func(), error) {
	if cfg.Backend != config.DedupeBackendRedis {
		slog.InfoContext(ctx, "webhook dedupe in memory", "ttl", cfg.TTL)
		return dedupe.NewMemory(), func() {}, nil
	}

	admitter, client, err := dedupe.NewRedisFromURL(ctx, cfg.RedisURL, cfg.Prefix)
	if err != nil {
		return nil, nil, err
	}
	slog.InfoContext(ctx, "webhook dedupe in redis", "ttl", cfg.TTL, "prefix", cfg.Prefix)
	return admitter, func() { _ = client.Close() }, nil
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		ServiceName:  cfg.OTel.ServiceName,
		IsProduction: cfg.IsProduction(),
		VerifyToken:  cfg.Webhook.VerifyToken,
	})

	return router
}

const banner = `
 ____   _    ____ _____ _     ___ _   _ _  __
|  _ \ / \  / ___| ____| |   |_ _| \ | | |/ /
| |_) / _ \| |   |  _| | |    | ||  \| | ' /
|  __/ ___ \ |___| |___| |___ | || |\  | . \
|_| /_/   \_\____|_____|_____|___|_| \_|_|\_\
`
