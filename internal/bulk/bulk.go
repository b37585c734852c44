// Package bulk governs catalog imports split across several documents.
//
// Each document is governed on its own, in parallel. Handles accepted from an
// earlier document win over later ones: per-document bloom filters find
// candidate collisions, and an exact handle index confirms them.
package bulk

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-catalog/internal/governance"
)

// FalsePositiveRate of the per-document handle filters.
const FalsePositiveRate = 0.001

// Document is one governed source document.
type Document struct {
	Path   string
	Report *governance.Report

	handles *bloom.BloomFilter
	rows    map[string]int
}

// Result is the outcome of governing several documents.
type Result struct {
	Documents []*Document
	// Merged holds the accepted products of every document in document
	// order, minus cross-document duplicates, and every row problem
	// qualified with its document name.
	Merged *governance.Report
	// Duplicates counts rows rejected because an earlier document already
	// supplied their handle.
	Duplicates int
}

// Governor governs documents with a shared pipeline.
type Governor struct {
	pipeline    *governance.Pipeline
	lg          *zap.Logger
	parallelism int
}

// Option configures a Governor.
type Option func(*Governor)

// WithLogger sets the progress logger.
func WithLogger(lg *zap.Logger) Option {
	return func(g *Governor) { g.lg = lg }
}

// WithParallelism bounds how many documents are governed at once.
func WithParallelism(n int) Option {
	return func(g *Governor) {
		if n > 0 {
			g.parallelism = n
		}
	}
}

// NewGovernor returns a Governor over p.
func NewGovernor(p *governance.Pipeline, opts ...Option) *Governor {
	g := &Governor{
		pipeline:    p,
		lg:          zap.NewNop(),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GovernFiles reads and governs every path. A path that cannot be read or
// parsed as a document fails the whole run.
func (g *Governor) GovernFiles(ctx context.Context, paths []string) (*Result, error) {
	docs := make([]*Document, len(paths))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelism)
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := governance.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			doc, err := g.govern(path, raw)
			if err != nil {
				return errors.Wrapf(err, "govern %s", path)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return Merge(docs), nil
}

// Govern governs in-memory documents keyed by name, in the given order.
func (g *Governor) Govern(names []string, raws []string) (*Result, error) {
	if len(names) != len(raws) {
		return nil, errors.Errorf("%d names for %d documents", len(names), len(raws))
	}
	docs := make([]*Document, len(names))
	for i := range names {
		doc, err := g.govern(names[i], raws[i])
		if err != nil {
			return nil, errors.Wrapf(err, "govern %s", names[i])
		}
		docs[i] = doc
	}
	return Merge(docs), nil
}

func (g *Governor) govern(path, raw string) (*Document, error) {
	report, err := g.pipeline.Import(raw)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Path:    path,
		Report:  report,
		handles: bloom.NewWithEstimates(uint(max(report.Accepted(), 1)), FalsePositiveRate),
		rows:    make(map[string]int, report.Accepted()),
	}
	for _, r := range report.Rows {
		if r.OK() {
			doc.handles.AddString(r.Handle)
			doc.rows[r.Handle] = r.Row
		}
	}

	g.lg.Info("Document governed",
		zap.String("file", path),
		zap.Int("accepted", report.Accepted()),
		zap.Int("rejected", report.Rejected()),
		zap.Int("warnings", len(report.Warnings)),
	)
	return doc, nil
}

// firstSeen returns the earlier document and row that accepted handle.
func firstSeen(earlier []*Document, handle string) (*Document, int, bool) {
	for _, d := range earlier {
		if !d.handles.TestString(handle) {
			continue
		}
		if row, ok := d.rows[handle]; ok {
			return d, row, true
		}
	}
	return nil, 0, false
}

// Merge combines governed documents in order. Rows whose handle was accepted
// by an earlier document are rejected with ErrDuplicateHandle.
func Merge(docs []*Document) *Result {
	res := &Result{Documents: docs, Merged: &governance.Report{}}
	merged := res.Merged

	for i, doc := range docs {
		name := filepath.Base(doc.Path)
		for _, e := range doc.Report.Errors {
			e.File = name
		}
		for _, w := range doc.Report.Warnings {
			w.File = name
		}
		merged.Errors = append(merged.Errors, doc.Report.Errors...)
		merged.Warnings = append(merged.Warnings, doc.Report.Warnings...)

		next := 0
		for _, row := range doc.Report.Rows {
			if !row.OK() {
				merged.Rows = append(merged.Rows, row)
				continue
			}
			p := doc.Report.Products[next]
			next++

			if first, firstRow, dup := firstSeen(docs[:i], row.Handle); dup {
				e := governance.NewRowError(row.Row, governance.ColHandle, governance.ErrDuplicateHandle,
					"Duplicate handle '%s' (first seen in %s row %d)", row.Handle, filepath.Base(first.Path), firstRow)
				e.File = name
				row.Errors = append(row.Errors, e)
				merged.Errors = append(merged.Errors, e)
				res.Duplicates++
				merged.Rows = append(merged.Rows, row)
				continue
			}
			merged.Rows = append(merged.Rows, row)
			merged.Products = append(merged.Products, p)
		}
	}
	return res
}
