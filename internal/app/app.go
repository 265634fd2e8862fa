package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/trialkart/checkout-api/internal/domain/cart"
	"github.com/trialkart/checkout-api/internal/domain/gst"
	"github.com/trialkart/checkout-api/internal/domain/order"
	"github.com/trialkart/checkout-api/internal/domain/shipping"
	"github.com/trialkart/checkout-api/internal/handler"
	"github.com/trialkart/checkout-api/internal/storage/postgres"
	"github.com/trialkart/checkout-api/pkg/health"
	"github.com/trialkart/checkout-api/pkg/httpmiddleware"
	"github.com/trialkart/checkout-api/pkg/retry"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	rateRepo := postgres.NewGSTRateRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)
	pincodeRepo := postgres.NewPincodeRepository(pool)

	// GST rates load once at startup. A failed load degrades to zero tax
	// instead of blocking checkout.
	rates := loadRateTable(ctx, lg, rateRepo)

	// Domain services.
	carts := cart.NewStore()
	estimator := shipping.NewTariffEstimator()
	orderService := order.NewService(orderRepo, retry.DefaultPolicy())

	// HTTP handlers.
	h := handler.NewHandler(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		productRepo,
		carts,
		rates,
		estimator,
		pincodeRepo,
		orderService,
	)

	api := httpmiddleware.Wrap(h.Routes(),
		handler.APIKeyAuth(apikeyRepo, []byte(cfg.APIKeyPepper)),
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", api))

	instrumented := otelhttp.NewHandler(mux, "checkout-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "api_key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// loadRateTable fetches the GST rate catalogue once. On failure it returns
// an empty table, which taxes everything at zero, so a missing or broken
// rate source never blocks checkout.
func loadRateTable(ctx context.Context, lg *zap.Logger, src gst.RateSource) *gst.RateTable {
	entries, err := src.FetchRates(ctx)
	if err != nil {
		lg.Error("Loading GST rates failed, degrading to zero tax", zap.Error(err))
		return gst.EmptyRateTable()
	}
	lg.Info("GST rates loaded", zap.Int("categories", len(entries)))
	return gst.NewRateTable(entries)
}
