package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-catalog/internal/governance"
	"github.com/xenking/kart-catalog/pkg/httpmiddleware"
)

// Import handles POST /api/import. The body is the raw CSV document.
// ?dry_run=true validates without committing. A document with no acceptable
// rows is answered with 422 and the full report.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpmiddleware.WriteError(w, http.StatusBadRequest, "invalid dry_run '"+raw+"'")
			return
		}
		dryRun = v
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxImportBytes))
	if err != nil {
		writeError(w, r, errors.Wrap(err, "read body"))
		return
	}

	if dryRun {
		report, err := h.catalog.Validate(r.Context(), string(body))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, reportStatus(report), h.catalog.Snapshot().Version(), func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				encodeReport(e, report)
				e.Field("committed", func(e *jx.Encoder) { e.Bool(false) })
			})
		})
		return
	}

	res, err := h.catalog.Import(r.Context(), string(body))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, reportStatus(res.Report), res.Version, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			encodeReport(e, res.Report)
			e.Field("committed", func(e *jx.Encoder) { e.Bool(res.Committed) })
			e.Field("version", func(e *jx.Encoder) { e.Str(res.Version) })
			if res.RunID != "" {
				e.Field("run_id", func(e *jx.Encoder) { e.Str(res.RunID) })
			}
		})
	})
}

func reportStatus(r *governance.Report) int {
	if r.Success() {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

// ImportRuns handles GET /api/imports?limit=.
func (h *Handler) ImportRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r.URL.Query().Get(paramLimit))
	if !ok {
		return
	}
	runs, err := h.catalog.ImportRuns(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, run := range runs {
				encodeRun(e, run)
			}
		})
	})
}
