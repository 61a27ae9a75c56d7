package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-gateway/internal/api/http"
	"github.com/spec-kit/storefront-gateway/internal/api/http/handlers"
	"github.com/spec-kit/storefront-gateway/internal/audit"
	"github.com/spec-kit/storefront-gateway/internal/backend"
	"github.com/spec-kit/storefront-gateway/internal/config"
	"github.com/spec-kit/storefront-gateway/internal/events"
	"github.com/spec-kit/storefront-gateway/internal/observability"
	"github.com/spec-kit/storefront-gateway/internal/persistence"
	"github.com/spec-kit/storefront-gateway/internal/service"
	"github.com/spec-kit/storefront-gateway/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	audit.NewRecorder(logger).Register(dispatcher)

	api := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout())
	codec := session.NewCodec(cfg.Session.Secret, cfg.Session.CookieTTL())
	cookies := session.NewCookieAdapter(cfg.App.IsProduction(), cfg.Session.CookieTTL())

	authService := service.NewAuthService(api, codec, dispatcher, logger)
	refreshService := service.NewRefreshService(api, codec, dispatcher, logger)
	impersonationService := service.NewImpersonationService(api, codec, dispatcher, logger, cfg.Session.ImpersonationTTL())
	paymentService := service.NewPaymentService(api, dispatcher, logger)
	catalogService := service.NewCatalogService(api, redis, cfg.Catalog.CacheTTL(), logger)

	sessionMiddleware := session.NewMiddleware(codec, cookies, refreshService, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis),
		Session:           handlers.NewSessionHandler(authService, refreshService, cookies),
		Impersonation:     handlers.NewImpersonationHandler(impersonationService, cookies),
		Payment:           handlers.NewPaymentHandler(paymentService),
		Catalog:           handlers.NewCatalogHandler(catalogService),
		SessionMiddleware: sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
