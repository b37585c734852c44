package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-catalog/internal/domain/auth"
	"github.com/xenking/kart-catalog/pkg/httpmiddleware"
)

// HeaderAPIKey carries the operator API key.
const HeaderAPIKey = "X-API-Key"

// RequireScope admits requests whose X-API-Key grants scope. The key is
// hashed with the server pepper, looked up, and compared in constant time.
func (h *Handler) RequireScope(scope string) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		if h.keys == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderAPIKey)
			if key == "" {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, "missing api key")
				return
			}

			hash := auth.Hash(h.pepper, key)
			info, err := h.keys.FindByHash(r.Context(), hash)
			if err != nil || !sameHash(hash, info.KeyHash) {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !info.HasScope(scope) {
				httpmiddleware.WriteError(w, http.StatusForbidden, "missing scope "+scope)
				return
			}

			ctx := zctx.With(r.Context(), zap.String("operator", info.Name))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sameHash(computed, stored string) bool {
	a, err := hex.DecodeString(computed)
	if err != nil {
		return false
	}
	b, err := hex.DecodeString(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
