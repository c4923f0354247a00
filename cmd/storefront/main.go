//	@title						Storefront Cart & Order API
//	@version					1.0
//	@description				Carts for guests and signed-in shoppers, checkout, order lifecycle and loyalty points.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aaravmahajanofficial/storefront/docs"
	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/app"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/health"
	"github.com/aaravmahajanofficial/storefront/internal/identity"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/telemetry"
	httpSwagger "github.com/swaggo/http-swagger"
)

const version = "1.0.0"

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTel, version)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.Any("error", err))
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("❌ Error initializing storage", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("⚠️ Error closing connections", slog.Any("error", err))
		} else {
			slog.Info("✅ Connections closed")
		}
	}()

	healthHandler, err := health.NewHealthHandler(cfg, &health.Endpoints{DB: application.DB, RedisClient: application.Redis, Version: version})
	if err != nil {
		slog.Error("❌ Error initializing health checks", slog.Any("error", err))
		os.Exit(1)
	}

	resolver := identity.NewResolver([]byte(cfg.Security.JWTKey), cfg.Security.SessionCookieName)
	identityMiddleware := middleware.NewIdentityMiddleware(resolver, cfg.Security.SessionCookieName, cfg.Security.SessionCookieTTL, cfg.Security.CookieSecure)

	cartHandler := handlers.NewCartHandler(application.Carts, application.Limiter, cfg.Cart.MaxRetries)
	orderHandler := handlers.NewOrderHandler(application.Orders, cfg.Cart.MaxRetries)
	loyaltyHandler := handlers.NewLoyaltyHandler(application.Ledger)
	eventsHandler := handlers.NewEventsHandler(application.Hub, cfg.Notifier.Heartbeat)

	docs.SwaggerInfo.Version = version

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("driver", cfg.Storage.Driver), slog.String("version", version))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart())
	routerMux.HandleFunc("DELETE /api/v1/cart", cartHandler.ClearCart())
	routerMux.HandleFunc("GET /api/v1/cart/pricing", cartHandler.GetPriceBreakdown())
	routerMux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("PUT /api/v1/cart/items/{variantId}", cartHandler.UpdateItem())
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{variantId}", cartHandler.RemoveItem())
	routerMux.HandleFunc("POST /api/v1/cart/discount", cartHandler.ApplyDiscount())
	routerMux.HandleFunc("DELETE /api/v1/cart/discount", cartHandler.RemoveDiscount())
	routerMux.HandleFunc("POST /api/v1/cart/merge", identityMiddleware.RequireUser(cartHandler.MergeCart()))
	routerMux.HandleFunc("POST /api/v1/orders", orderHandler.CreateOrder())
	routerMux.HandleFunc("GET /api/v1/orders", orderHandler.ListOrders())
	routerMux.HandleFunc("GET /api/v1/orders/{id}", orderHandler.GetOrder())
	routerMux.HandleFunc("POST /api/v1/orders/{id}/confirm", orderHandler.ConfirmOrder())
	routerMux.HandleFunc("POST /api/v1/orders/{id}/cancel", orderHandler.CancelOrder())
	routerMux.HandleFunc("GET /api/v1/orders/{id}/tracking", orderHandler.GetTracking())
	routerMux.HandleFunc("GET /api/v1/loyalty", identityMiddleware.RequireUser(loyaltyHandler.GetAccount()))
	routerMux.HandleFunc("GET /api/v1/events", eventsHandler.Stream())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Middleware chaining. metrics and the route namer read the pattern the
	// mux records on the request, so they sit directly around it.
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = telemetry.RouteNamer(handler)
	handler = identityMiddleware.Identify(handler)
	handler = middleware.Logging(handler)
	handler = telemetry.Middleware(handler, cfg.OTel.ServiceName)

	// Setup http server. WriteTimeout defaults to 0 for the event stream; the
	// base context ends open streams once shutdown starts.
	server := http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	workersCtx, stopWorkers := context.WithCancel(ctx)
	workers := application.RunWorkers(workersCtx)

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	stopWorkers()
	workers.Wait()

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Failed to flush traces", slog.Any("error", err))
	}

}
