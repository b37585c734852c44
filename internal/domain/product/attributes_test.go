package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   Tag
		wantOK bool
	}{
		{name: "simple", in: "Fabric:Pure Silk", want: Tag{Key: "Fabric", Value: "Pure Silk"}, wantOK: true},
		{name: "splits on first colon only", in: "Dispatch Time:2:3 days", want: Tag{Key: "Dispatch Time", Value: "2:3 days"}, wantOK: true},
		{name: "trims whitespace", in: " Color : Red ", want: Tag{Key: "Color", Value: "Red"}, wantOK: true},
		{name: "no colon", in: "Fabric", wantOK: false},
		{name: "empty key", in: ":Red", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTag(tt.in)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttributes_TagsOrder(t *testing.T) {
	a := AttributesFromTags([]string{"Fabric:Silk", "Category:women-sarees", "Color:Red", "Color:Red", "bogus"})

	tags := a.Tags()
	require.Len(t, tags, 3)
	assert.Equal(t, "Category:women-sarees", tags[0].String())
	assert.Equal(t, "Color:Red", tags[1].String())
	assert.Equal(t, "Fabric:Silk", tags[2].String())
}

func TestAttributes_CloneIsDeep(t *testing.T) {
	a := Attributes{KeyColor: {"Red"}}
	b := a.Clone()
	b.Add(KeyColor, "Blue")

	assert.Equal(t, []string{"Red"}, a.Values(KeyColor))
	assert.Equal(t, []string{"Red", "Blue"}, b.Values(KeyColor))
}

func TestInventoryValue(t *testing.T) {
	products := []Product{
		{ID: "a", Variants: []Variant{{InventoryQuantity: 5, Prices: []Price{{CurrencyCode: "INR", Amount: 120000}}}}},
		{ID: "b", Variants: []Variant{{InventoryQuantity: 2, Prices: []Price{{CurrencyCode: "USD", Amount: 999}}}}},
		{ID: "c", Variants: []Variant{{InventoryQuantity: 3, Prices: []Price{{CurrencyCode: "INR", Amount: 1050}}}}},
	}

	got := InventoryValue(products, "INR")
	assert.True(t, decimal.RequireFromString("6031.50").Equal(got), "got %s", got)
}
