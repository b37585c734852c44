package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ImportRun is the audit record of one committed bulk import.
type ImportRun struct {
	ID       string
	Accepted int
	Rejected int
	Errors   []string
	Warnings []string
	// InventoryValue is the sum of price * stock over accepted variants, in
	// major currency units.
	InventoryValue decimal.Decimal
	Currency       string
	CreatedAt      time.Time
}

// InventoryValue sums price * quantity for every variant priced in currency
// and converts the minor-unit total back to major units.
func InventoryValue(products []Product, currency string) decimal.Decimal {
	var total int64
	for i := range products {
		for _, v := range products[i].Variants {
			if amount, ok := v.Amount(currency); ok {
				total += amount * int64(v.InventoryQuantity)
			}
		}
	}
	return decimal.New(total, -2)
}

// ImportRunRepository records committed imports.
type ImportRunRepository interface {
	RecordImport(ctx context.Context, run *ImportRun) error
	// Recent returns at most limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]ImportRun, error)
}
