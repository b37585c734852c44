// Package memory keeps catalog snapshots and import runs in process memory.
// It backs the service when no database is configured, and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/kart-catalog/internal/domain/product"
)

var (
	_ product.Repository          = (*Repository)(nil)
	_ product.ImportRunRepository = (*Repository)(nil)
)

// Repository is a mutex-guarded in-memory store. Products are copied on the
// way in and out so callers cannot alias stored state.
type Repository struct {
	mu       sync.RWMutex
	products []product.Product
	runs     []product.ImportRun
}

// New returns an empty repository.
func New() *Repository {
	return &Repository{}
}

// Load returns a copy of the stored catalog.
func (r *Repository) Load(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneAll(r.products), nil
}

// Replace stores a copy of products as the whole catalog.
func (r *Repository) Replace(_ context.Context, products []product.Product) error {
	cp := cloneAll(products)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = cp
	return nil
}

// RecordImport appends run to the audit log.
func (r *Repository) RecordImport(_ context.Context, run *product.ImportRun) error {
	cp := *run
	cp.Errors = slices.Clone(run.Errors)
	cp.Warnings = slices.Clone(run.Warnings)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, cp)
	return nil
}

// Recent returns at most limit runs, newest first.
func (r *Repository) Recent(_ context.Context, limit int) ([]product.ImportRun, error) {
	if limit <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]product.ImportRun, 0, min(limit, len(r.runs)))
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}

func cloneAll(products []product.Product) []product.Product {
	out := make([]product.Product, len(products))
	for i := range products {
		out[i] = products[i].Clone()
	}
	return out
}
