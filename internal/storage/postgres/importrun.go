package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-catalog/internal/domain/product"
)

const (
	insertImportRunSQL = `INSERT INTO import_runs
		(id, accepted, rejected, errors, warnings, inventory_value, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	listImportRunsSQL = `SELECT id::text, accepted, rejected, errors, warnings, inventory_value, currency, created_at
		FROM import_runs ORDER BY created_at DESC LIMIT $1`
)

var _ product.ImportRunRepository = (*ImportRunRepository)(nil)

// ImportRunRepository keeps the audit log of committed imports.
type ImportRunRepository struct {
	pool *pgxpool.Pool
}

// NewImportRunRepository returns an ImportRunRepository that uses the given pool.
func NewImportRunRepository(pool *pgxpool.Pool) *ImportRunRepository {
	return &ImportRunRepository{pool: pool}
}

// RecordImport stores run.
func (r *ImportRunRepository) RecordImport(ctx context.Context, run *product.ImportRun) error {
	errs, err := json.Marshal(nonNilStrings(run.Errors))
	if err != nil {
		return errors.Wrap(err, "encode errors")
	}
	warnings, err := json.Marshal(nonNilStrings(run.Warnings))
	if err != nil {
		return errors.Wrap(err, "encode warnings")
	}

	if _, err := r.pool.Exec(ctx, insertImportRunSQL,
		run.ID, run.Accepted, run.Rejected, errs, warnings, run.InventoryValue, run.Currency, run.CreatedAt,
	); err != nil {
		return errors.Wrapf(err, "insert import run %q", run.ID)
	}
	return nil
}

// Recent returns the latest limit import runs, newest first.
func (r *ImportRunRepository) Recent(ctx context.Context, limit int) ([]product.ImportRun, error) {
	rows, err := r.pool.Query(ctx, listImportRunsSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list import runs")
	}
	return pgx.CollectRows(rows, scanImportRun)
}

func scanImportRun(row pgx.CollectableRow) (product.ImportRun, error) {
	var (
		run      product.ImportRun
		errs     []byte
		warnings []byte
	)
	if err := row.Scan(
		&run.ID, &run.Accepted, &run.Rejected, &errs, &warnings,
		&run.InventoryValue, &run.Currency, &run.CreatedAt,
	); err != nil {
		return run, err
	}
	if err := json.Unmarshal(errs, &run.Errors); err != nil {
		return run, errors.Wrap(err, "decode errors")
	}
	if err := json.Unmarshal(warnings, &run.Warnings); err != nil {
		return run, errors.Wrap(err, "decode warnings")
	}
	return run, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
