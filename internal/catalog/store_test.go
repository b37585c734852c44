package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xenking/kart-catalog/internal/domain/product"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sample(id, title string, tags ...string) product.Product {
	return product.Product{
		ID:         id,
		Title:      title,
		Status:     product.StatusProposed,
		Attributes: product.AttributesFromTags(tags),
		Variants: []product.Variant{{
			ID:                id + "-v",
			SKU:               id,
			InventoryQuantity: 3,
			Prices:            []product.Price{{CurrencyCode: "INR", Amount: 99900}},
		}},
	}
}

func TestFingerprint(t *testing.T) {
	a := []product.Product{sample("a", "Red Saree", "Category:women-sarees"), sample("b", "Blue Kurta")}
	b := []product.Product{sample("a", "Red Saree", "Category:women-sarees"), sample("b", "Blue Kurta")}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b[1].Variants[0].Prices[0].Amount++
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))

	swapped := []product.Product{a[1], a[0]}
	assert.NotEqual(t, Fingerprint(a), Fingerprint(swapped), "order is part of the catalog")

	withMeta := []product.Product{sample("a", "Red Saree")}
	withMeta[0].Metadata = map[string]string{"x": "1", "y": "2"}
	again := []product.Product{sample("a", "Red Saree")}
	again[0].Metadata = map[string]string{"y": "2", "x": "1"}
	assert.Equal(t, Fingerprint(withMeta), Fingerprint(again))
}

func TestSnapshot(t *testing.T) {
	snap := NewSnapshot([]product.Product{sample("a", "Red Saree")})
	assert.Equal(t, 1, snap.Len())
	assert.Len(t, snap.Version(), 16)
	assert.Equal(t, "a", snap.Products()[0].ID)

	empty := NewStore().Current()
	require.NotNil(t, empty)
	assert.Zero(t, empty.Len())
}

func TestStore_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	store := NewStore()
	small := NewSnapshot([]product.Product{sample("a", "A")})
	large := NewSnapshot([]product.Product{sample("a", "A"), sample("b", "B"), sample("c", "C")})
	store.Replace(small)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := store.Current()
				switch snap.Len() {
				case 1:
					assert.Equal(t, small.Fingerprint, Fingerprint(snap.Products()))
				case 3:
					assert.Equal(t, large.Fingerprint, Fingerprint(snap.Products()))
				default:
					assert.Failf(t, "torn snapshot", "len %d", snap.Len())
					return
				}
			}
		}()
	}

	for i := range 200 {
		if i%2 == 0 {
			store.Replace(large)
		} else {
			store.Replace(small)
		}
	}
	close(stop)
	wg.Wait()

	prev := store.Replace(large)
	assert.Same(t, small, prev)
}
