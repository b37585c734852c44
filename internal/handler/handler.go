// Package handler serves the catalog HTTP API.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-catalog/internal/attribute"
	"github.com/xenking/kart-catalog/internal/catalog"
	"github.com/xenking/kart-catalog/internal/domain/auth"
	"github.com/xenking/kart-catalog/internal/domain/product"
	"github.com/xenking/kart-catalog/internal/governance"
	"github.com/xenking/kart-catalog/internal/search"
	"github.com/xenking/kart-catalog/internal/taxonomy"
	"github.com/xenking/kart-catalog/pkg/httpmiddleware"
)

// HeaderVersion carries the fingerprint of the snapshot that served a request.
const HeaderVersion = "X-Catalog-Version"

// DefaultMaxImportBytes bounds POST /api/import bodies.
const DefaultMaxImportBytes = 16 << 20

// CatalogService is the catalog behaviour the API depends on.
type CatalogService interface {
	Snapshot() *catalog.Snapshot
	Search(ctx context.Context, query string, limit int) (search.Response, *catalog.Snapshot)
	Browse(ctx context.Context, categorySlug string, filters search.Filters) (search.Response, *catalog.Snapshot)
	Product(ctx context.Context, id string) (*product.Product, error)
	Validate(ctx context.Context, raw string) (*governance.Report, error)
	Import(ctx context.Context, raw string) (*catalog.ImportResult, error)
	ImportRuns(ctx context.Context, limit int) ([]product.ImportRun, error)
}

var _ CatalogService = (*catalog.Service)(nil)

// Config holds non-dependency settings of the Handler.
type Config struct {
	// MaxImportBytes bounds import bodies. Zero selects DefaultMaxImportBytes.
	MaxImportBytes int64
	// Pepper keys the HMAC of operator API keys.
	Pepper []byte
}

// Handler maps HTTP requests onto the catalog service.
type Handler struct {
	catalog    CatalogService
	taxonomy   *taxonomy.Registry
	attributes *attribute.Dictionary
	keys       auth.Repository

	maxImportBytes int64
	pepper         []byte
}

// NewHandler constructs a Handler. A nil keys repository leaves the operator
// routes unauthenticated.
func NewHandler(
	cfg Config,
	svc CatalogService,
	tax *taxonomy.Registry,
	attrs *attribute.Dictionary,
	keys auth.Repository,
) *Handler {
	maxBytes := cfg.MaxImportBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImportBytes
	}
	return &Handler{
		catalog:        svc,
		taxonomy:       tax,
		attributes:     attrs,
		keys:           keys,
		maxImportBytes: maxBytes,
		pepper:         cfg.Pepper,
	}
}

// Mount registers the API routes under /api.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/products", h.Browse)
		r.Get("/products/{handle}", h.Product)
		r.Get("/categories", h.Categories)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireScope(auth.ScopeImport))
			r.Post("/import", h.Import)
			r.Get("/imports", h.ImportRuns)
		})
	})
}

// writeError maps domain errors onto API error responses. Unknown errors are
// logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, governance.ErrEmptyDocument), errors.Is(err, governance.ErrNoDataRows):
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLarge):
		httpmiddleware.WriteError(w, http.StatusRequestEntityTooLarge, "import body too large")
	case errors.Is(err, product.ErrNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
