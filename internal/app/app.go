package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-catalog/internal/catalog"
	"github.com/xenking/kart-catalog/internal/domain/auth"
	"github.com/xenking/kart-catalog/internal/domain/product"
	"github.com/xenking/kart-catalog/internal/governance"
	"github.com/xenking/kart-catalog/internal/handler"
	"github.com/xenking/kart-catalog/internal/storage/memory"
	"github.com/xenking/kart-catalog/internal/storage/postgres"
	"github.com/xenking/kart-catalog/pkg/health"
	"github.com/xenking/kart-catalog/pkg/httpmiddleware"
)

// storage is the persistence selected by configuration.
type storage struct {
	products product.Repository
	runs     product.ImportRunRepository
	pinger   health.Pinger
	close    func()
}

// openStorage connects to PostgreSQL when a database URL is configured and
// otherwise keeps the catalog in memory.
func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (*storage, error) {
	if cfg.DatabaseURL == "" {
		lg.Warn("No database configured, catalog is kept in memory")
		repo := memory.New()
		return &storage{products: repo, runs: repo, close: func() {}}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return &storage{
		products: postgres.NewProductRepository(pool),
		runs:     postgres.NewImportRunRepository(pool),
		pinger:   pool,
		close:    pool.Close,
	}, nil
}

// seed imports cfg.SeedFile when the published catalog is empty.
func seed(ctx context.Context, lg *zap.Logger, svc *catalog.Service, path string) error {
	if path == "" || svc.Snapshot().Len() > 0 {
		return nil
	}
	raw, err := governance.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read seed")
	}
	res, err := svc.Import(ctx, raw)
	if err != nil {
		return errors.Wrap(err, "import seed")
	}
	lg.Info("Seeded catalog",
		zap.String("file", path),
		zap.Int("accepted", res.Report.Accepted()),
		zap.Int("rejected", res.Report.Rejected()),
		zap.String("version", res.Version),
	)
	for _, msg := range res.Report.ErrorStrings() {
		lg.Warn("Seed row rejected", zap.String("error", msg))
	}
	return nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	vocab, err := LoadVocabulary(cfg.Vocab)
	if err != nil {
		return err
	}
	pipeline, err := NewPipeline(vocab, cfg.Import)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	svc, err := catalog.NewService(pipeline, NewEngine(vocab, cfg.Search), store.products,
		catalog.WithLogger(lg.Named("catalog")),
		catalog.WithMeterProvider(m.MeterProvider()),
		catalog.WithTracerProvider(m.TracerProvider()),
		catalog.WithImportRuns(store.runs),
		catalog.WithSearchLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
	)
	if err != nil {
		return errors.Wrap(err, "create catalog service")
	}
	if err := svc.Load(ctx); err != nil {
		return errors.Wrap(err, "load catalog")
	}
	if err := seed(ctx, lg, svc, cfg.SeedFile); err != nil {
		return err
	}

	// Health check service.
	healthSvc := health.New()
	if store.pinger != nil {
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(store.pinger), health.StartUnhealthy())
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	keys, err := cfg.Auth.Keys()
	if err != nil {
		return err
	}
	var keyRepo auth.Repository
	if len(keys) > 0 {
		keyRepo = auth.NewStaticKeys(keys)
	} else {
		lg.Warn("No operator keys configured, import routes are open")
	}

	h := handler.NewHandler(
		handler.Config{MaxImportBytes: cfg.Import.MaxBodyBytes, Pepper: []byte(cfg.Auth.Pepper)},
		svc,
		vocab.Taxonomy,
		vocab.Attributes,
		keyRepo,
	)

	router := chi.NewRouter()
	router.Use(
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.RequestID(),
		httpmiddleware.Recovery(),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Mount(router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Instrument("catalog-api", m),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.HeaderAPIKey, httpmiddleware.HeaderRequestID},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip:   isProbe,
			}),
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

	lg.Info("Server listening",
		zap.String("addr", cfg.Addr),
		zap.Int("products", svc.Snapshot().Len()),
		zap.String("version", svc.Snapshot().Version()),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func isProbe(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}
