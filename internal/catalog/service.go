package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kart-catalog/internal/domain/product"
	"github.com/xenking/kart-catalog/internal/governance"
	"github.com/xenking/kart-catalog/internal/search"
)

const instrumentationName = "github.com/xenking/kart-catalog/internal/catalog"

// Default search limits.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// ImportResult is the outcome of Import.
type ImportResult struct {
	Report *governance.Report
	// Committed is true when the accepted products replaced the catalog.
	Committed bool
	// Version identifies the published snapshot after the import.
	Version string
	// RunID identifies the recorded import run, if any.
	RunID string
}

// Service governs imports and serves queries over the current snapshot.
// Writers are serialized; readers never block.
type Service struct {
	pipeline *governance.Pipeline
	engine   *search.Engine
	store    *Store
	products product.Repository
	runs     product.ImportRunRepository

	mu sync.Mutex

	lg           *zap.Logger
	tracer       trace.Tracer
	meter        metric.Meter
	defaultLimit int
	maxLimit     int

	importRows     metric.Int64Counter
	searchCount    metric.Int64Counter
	searchDuration metric.Float64Histogram
	catalogSize    metric.Int64Gauge
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) { s.lg = lg }
}

// WithMeterProvider sets the provider of the service metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter(instrumentationName) }
}

// WithTracerProvider sets the provider of the service spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithImportRuns records every committed import in runs.
func WithImportRuns(runs product.ImportRunRepository) Option {
	return func(s *Service) { s.runs = runs }
}

// WithSearchLimits sets the default and maximum result counts.
func WithSearchLimits(def, maxLimit int) Option {
	return func(s *Service) {
		s.defaultLimit = def
		s.maxLimit = maxLimit
	}
}

// NewService wires a service. The store starts empty until Load or a commit
// publishes a snapshot.
func NewService(
	pipeline *governance.Pipeline,
	engine *search.Engine,
	products product.Repository,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		pipeline:     pipeline,
		engine:       engine,
		store:        NewStore(),
		products:     products,
		lg:           zap.NewNop(),
		tracer:       tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:        metricnoop.NewMeterProvider().Meter(instrumentationName),
		defaultLimit: DefaultSearchLimit,
		maxLimit:     MaxSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.importRows, err = s.meter.Int64Counter("catalog.import.rows",
		metric.WithDescription("Imported rows by outcome"),
	); err != nil {
		return nil, errors.Wrap(err, "create import counter")
	}
	if s.searchCount, err = s.meter.Int64Counter("catalog.search.requests",
		metric.WithDescription("Search and browse requests"),
	); err != nil {
		return nil, errors.Wrap(err, "create search counter")
	}
	if s.searchDuration, err = s.meter.Float64Histogram("catalog.search.duration",
		metric.WithDescription("Search latency"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, errors.Wrap(err, "create search histogram")
	}
	if s.catalogSize, err = s.meter.Int64Gauge("catalog.products",
		metric.WithDescription("Products in the published snapshot"),
	); err != nil {
		return nil, errors.Wrap(err, "create catalog gauge")
	}
	return s, nil
}

// Load publishes the catalog stored in the repository.
func (s *Service) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "catalog.Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	snap := s.publish(ctx, products)
	s.lg.Info("Catalog loaded",
		zap.Int("products", snap.Len()),
		zap.String("version", snap.Version()),
	)
	return nil
}

// Validate governs raw without committing anything.
func (s *Service) Validate(ctx context.Context, raw string) (*governance.Report, error) {
	_, span := s.tracer.Start(ctx, "catalog.Validate")
	defer span.End()

	report, err := s.pipeline.Import(raw)
	if err != nil {
		return nil, errors.Wrap(err, "govern import")
	}
	span.SetAttributes(
		attribute.Int("catalog.import.accepted", report.Accepted()),
		attribute.Int("catalog.import.rejected", report.Rejected()),
	)
	return report, nil
}

// Import governs raw and, when at least one row was accepted, replaces the
// catalog with the accepted products. Rejected rows are reported, never
// committed. A batch with no accepted rows leaves the catalog untouched.
func (s *Service) Import(ctx context.Context, raw string) (*ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Import")
	defer span.End()

	report, err := s.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.CommitReport(ctx, report)
}

// CommitReport commits the accepted products of an already governed report
// and records the import run. It is a no-op for reports without accepted
// products.
func (s *Service) CommitReport(ctx context.Context, report *governance.Report) (*ImportResult, error) {
	s.importRows.Add(ctx, int64(report.Accepted()), metric.WithAttributes(attribute.String("outcome", "accepted")))
	s.importRows.Add(ctx, int64(report.Rejected()), metric.WithAttributes(attribute.String("outcome", "rejected")))

	res := &ImportResult{Report: report, Version: s.store.Current().Version()}
	if !report.Success() {
		s.lg.Warn("Import rejected every row",
			zap.Int("rows", len(report.Rows)),
			zap.Int("errors", len(report.Errors)),
		)
		return res, nil
	}

	snap, err := s.Commit(ctx, report.Products)
	if err != nil {
		return nil, err
	}
	res.Committed = true
	res.Version = snap.Version()

	if s.runs != nil {
		run := &product.ImportRun{
			ID:             uuid.New().String(),
			Accepted:       report.Accepted(),
			Rejected:       report.Rejected(),
			Errors:         report.ErrorStrings(),
			Warnings:       report.WarningStrings(),
			InventoryValue: product.InventoryValue(report.Products, s.pipeline.Currency()),
			Currency:       s.pipeline.Currency(),
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.runs.RecordImport(ctx, run); err != nil {
			s.lg.Error("Record import run", zap.Error(err))
		} else {
			res.RunID = run.ID
		}
	}

	s.lg.Info("Import committed",
		zap.Int("accepted", report.Accepted()),
		zap.Int("rejected", report.Rejected()),
		zap.Int("warnings", len(report.Warnings)),
		zap.String("version", res.Version),
	)
	return res, nil
}

// Commit persists products as the whole catalog and publishes them.
func (s *Service) Commit(ctx context.Context, products []product.Product) (*Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Commit")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.products.Replace(ctx, products); err != nil {
		return nil, errors.Wrap(err, "replace catalog")
	}
	return s.publish(ctx, products), nil
}

func (s *Service) publish(ctx context.Context, products []product.Product) *Snapshot {
	snap := NewSnapshot(products)
	s.store.Replace(snap)
	s.catalogSize.Record(ctx, int64(snap.Len()))
	return snap
}

// Snapshot returns the published snapshot.
func (s *Service) Snapshot() *Snapshot {
	return s.store.Current()
}

// Search ranks the current snapshot against query. limit is clamped to the
// configured maximum; zero or less selects the default.
func (s *Service) Search(ctx context.Context, query string, limit int) (search.Response, *Snapshot) {
	ctx, span := s.tracer.Start(ctx, "catalog.Search")
	defer span.End()

	start := time.Now()
	snap := s.store.Current()
	resp := s.engine.Search(snap.Index, query, s.clampLimit(limit))

	s.observe(ctx, "search", start)
	span.SetAttributes(
		attribute.Int("catalog.search.total", resp.Total),
		attribute.StringSlice("catalog.search.tokens", resp.Tokens),
	)
	return resp, snap
}

// Browse filters the current snapshot by category and attributes.
func (s *Service) Browse(ctx context.Context, categorySlug string, filters search.Filters) (search.Response, *Snapshot) {
	ctx, span := s.tracer.Start(ctx, "catalog.Browse")
	defer span.End()

	start := time.Now()
	snap := s.store.Current()
	resp := s.engine.Browse(snap.Index, categorySlug, filters)

	s.observe(ctx, "browse", start)
	span.SetAttributes(attribute.Int("catalog.browse.total", resp.Total))
	return resp, snap
}

// Product returns the product with handle id from the current snapshot.
func (s *Service) Product(_ context.Context, id string) (*product.Product, error) {
	p, ok := s.store.Current().Index.Lookup(id)
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

func (s *Service) observe(ctx context.Context, kind string, start time.Time) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	s.searchCount.Add(ctx, 1, attrs)
	s.searchDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

// ImportRuns returns the latest recorded imports, newest first. Without an
// import run repository it returns nothing.
func (s *Service) ImportRuns(ctx context.Context, limit int) ([]product.ImportRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	runs, err := s.runs.Recent(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "list import runs")
	}
	return runs, nil
}
