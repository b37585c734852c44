package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-catalog/internal/domain/product"
)

func TestRepository_ReplaceAndLoadCopy(t *testing.T) {
	ctx := context.Background()
	r := New()

	in := []product.Product{{
		ID:         "a",
		Title:      "Red Saree",
		Attributes: product.Attributes{product.KeyColor: {"Red"}},
		Variants:   []product.Variant{{ID: "v", Prices: []product.Price{{CurrencyCode: "INR", Amount: 100}}}},
	}}
	require.NoError(t, r.Replace(ctx, in))

	in[0].Attributes.Add(product.KeyColor, "Blue")
	in[0].Variants[0].Prices[0].Amount = 1

	out, err := r.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"Red"}, out[0].Attributes.Values(product.KeyColor))
	assert.Equal(t, int64(100), out[0].Variants[0].Prices[0].Amount)

	out[0].Title = "changed"
	again, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Red Saree", again[0].Title)
}

func TestRepository_Recent(t *testing.T) {
	ctx := context.Background()
	r := New()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, r.RecordImport(ctx, &product.ImportRun{ID: id, CreatedAt: time.Now()}))
	}

	runs, err := r.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "3", runs[0].ID)
	assert.Equal(t, "2", runs[1].ID)

	runs, err = r.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
