// Package auth authenticates catalog operators by API key.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/go-faster/errors"
)

// ScopeImport allows replacing the catalog through bulk import.
const ScopeImport = "catalog:import"

// ErrUnknownKey is returned when no key matches a hash.
var ErrUnknownKey = errors.New("unknown api key")

// APIKeyInfo identifies an operator key.
type APIKeyInfo struct {
	Name string
	// KeyHash is the hex HMAC-SHA256 of the key under the server pepper.
	KeyHash string
	Scopes  []string
}

// HasScope reports whether the key grants scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	return slices.Contains(k.Scopes, scope)
}

// Repository looks keys up by hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Hash returns the hex HMAC-SHA256 of key under pepper.
func Hash(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

var _ Repository = (*StaticKeys)(nil)

// StaticKeys is a fixed key set loaded from configuration.
type StaticKeys struct {
	byHash map[string]*APIKeyInfo
}

// NewStaticKeys indexes keys by lowercased hash. Entries without a hash are
// skipped.
func NewStaticKeys(keys []APIKeyInfo) *StaticKeys {
	s := &StaticKeys{byHash: make(map[string]*APIKeyInfo, len(keys))}
	for i := range keys {
		k := keys[i]
		k.KeyHash = strings.ToLower(strings.TrimSpace(k.KeyHash))
		if k.KeyHash == "" {
			continue
		}
		s.byHash[k.KeyHash] = &k
	}
	return s
}

// Len returns the number of configured keys.
func (s *StaticKeys) Len() int {
	return len(s.byHash)
}

// FindByHash returns the key with the given hash.
func (s *StaticKeys) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	k, ok := s.byHash[strings.ToLower(hash)]
	if !ok {
		return nil, ErrUnknownKey
	}
	return k, nil
}
