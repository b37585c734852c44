package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-catalog/internal/search"
	"github.com/xenking/kart-catalog/pkg/httpmiddleware"
)

// Reserved browse parameters; every other query key is an attribute filter.
const (
	paramCategory = "category"
	paramLimit    = "limit"
	paramQuery    = "q"
)

// Search handles GET /api/search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := parseLimit(w, q.Get(paramLimit))
	if !ok {
		return
	}

	resp, snap := h.catalog.Search(r.Context(), q.Get(paramQuery), limit)
	writeJSON(w, http.StatusOK, snap.Version(), func(e *jx.Encoder) {
		encodeResponse(e, resp, true)
	})
}

// Browse handles GET /api/products?category=&limit=&<Key>=v1&<Key>=v2.
// Filter values are mapped onto the configured option spelling, so they match
// case-insensitively. The q parameter is ignored.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := parseLimit(w, q.Get(paramLimit))
	if !ok {
		return
	}

	category := strings.ToLower(strings.TrimSpace(q.Get(paramCategory)))
	filters := search.Filters{}
	for key, values := range q {
		switch key {
		case paramCategory, paramLimit, paramQuery:
			continue
		}
		canonical, ok := h.attributes.CanonicalKey(key)
		if !ok {
			httpmiddleware.WriteError(w, http.StatusBadRequest, "unknown filter '"+key+"'")
			return
		}
		for _, v := range values {
			filters[canonical] = append(filters[canonical], h.attributes.Canonical(canonical, v, category)...)
		}
	}

	resp, snap := h.catalog.Browse(r.Context(), category, filters)
	resp.Results = search.Truncate(resp.Results, limit)
	writeJSON(w, http.StatusOK, snap.Version(), func(e *jx.Encoder) {
		encodeResponse(e, resp, false)
	})
}

// Product handles GET /api/products/{handle}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	handle := strings.ToLower(chi.URLParam(r, "handle"))
	p, err := h.catalog.Product(r.Context(), handle)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.Snapshot().Version(), func(e *jx.Encoder) {
		encodeProduct(e, p, 0, false)
	})
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	roots := h.taxonomy.Roots()
	writeJSON(w, http.StatusOK, "", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, n := range roots {
				encodeCategory(e, n)
			}
		})
	})
}

// parseLimit accepts an empty or non-negative integer limit. Invalid values
// are answered with 400.
func parseLimit(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "invalid limit '"+raw+"'")
		return 0, false
	}
	return n, true
}
