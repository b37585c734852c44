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
	listProductsSQL = `SELECT id, title, description, thumbnail, status, attributes, metadata
		FROM products ORDER BY position`

	listVariantsSQL = `SELECT id, product_id, title, sku, inventory_quantity
		FROM variants ORDER BY product_id, position`

	listPricesSQL = `SELECT variant_id, currency_code, amount
		FROM variant_prices ORDER BY variant_id, currency_code`

	truncateCatalogSQL = `TRUNCATE variant_prices, variants, products`

	insertProductSQL = `INSERT INTO products (id, position, title, description, thumbnail, status, attributes, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertVariantSQL = `INSERT INTO variants (id, product_id, position, title, sku, inventory_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`

	insertPriceSQL = `INSERT INTO variant_prices (variant_id, currency_code, amount)
		VALUES ($1, $2, $3)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Load reads the whole catalog in its stored order inside one read-only
// repeatable-read transaction.
func (r *ProductRepository) Load(ctx context.Context) ([]product.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, errors.Wrap(err, "begin load")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}

	rows, err = tx.Query(ctx, listPricesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list prices")
	}
	prices := make(map[string][]product.Price)
	var (
		variantID string
		price     product.Price
	)
	if _, err := pgx.ForEachRow(rows, []any{&variantID, &price.CurrencyCode, &price.Amount}, func() error {
		prices[variantID] = append(prices[variantID], price)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "scan prices")
	}

	rows, err = tx.Query(ctx, listVariantsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list variants")
	}
	byProduct := make(map[string]int, len(products))
	for i := range products {
		byProduct[products[i].ID] = i
	}
	var (
		v         product.Variant
		productID string
	)
	if _, err := pgx.ForEachRow(rows, []any{&v.ID, &productID, &v.Title, &v.SKU, &v.InventoryQuantity}, func() error {
		i, ok := byProduct[productID]
		if !ok {
			return errors.Errorf("variant %q references unknown product %q", v.ID, productID)
		}
		v.Prices = prices[v.ID]
		products[i].Variants = append(products[i].Variants, v)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "scan variants")
	}

	return products, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p          product.Product
		status     string
		attributes []byte
		metadata   []byte
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Thumbnail, &status, &attributes, &metadata); err != nil {
		return p, err
	}
	p.Status = product.Status(status)
	if err := json.Unmarshal(attributes, &p.Attributes); err != nil {
		return p, errors.Wrapf(err, "decode attributes of %q", p.ID)
	}
	if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
		return p, errors.Wrapf(err, "decode metadata of %q", p.ID)
	}
	if len(p.Metadata) == 0 {
		p.Metadata = nil
	}
	return p, nil
}

// Replace swaps the stored catalog for products in a single transaction.
// Readers of the table never observe a mix of old and new rows.
func (r *ProductRepository) Replace(ctx context.Context, products []product.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin replace")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b := &pgx.Batch{}
	b.Queue(truncateCatalogSQL)
	for i := range products {
		p := &products[i]
		attributes, err := json.Marshal(p.Attributes)
		if err != nil {
			return errors.Wrapf(err, "encode attributes of %q", p.ID)
		}
		metadata, err := json.Marshal(nonNil(p.Metadata))
		if err != nil {
			return errors.Wrapf(err, "encode metadata of %q", p.ID)
		}
		b.Queue(insertProductSQL, p.ID, i, p.Title, p.Description, p.Thumbnail, string(p.Status), attributes, metadata)
		for j, v := range p.Variants {
			b.Queue(insertVariantSQL, v.ID, p.ID, j, v.Title, v.SKU, v.InventoryQuantity)
			for _, pr := range v.Prices {
				b.Queue(insertPriceSQL, v.ID, pr.CurrencyCode, pr.Amount)
			}
		}
	}

	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return errors.Wrap(err, "write catalog")
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit catalog")
	}
	return nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
