//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestSearch(t *testing.T) {
	resp := doGet(t, "/api/search?q=silk+saree")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Catalog-Version") == "" {
		t.Error("X-Catalog-Version header not present")
	}

	list := decodeJSON[listResponse](t, resp)
	if list.Total == 0 {
		t.Fatal("expected results for 'silk saree'")
	}
	if got := list.Results[0].ID; got != "red-silk-saree" {
		t.Errorf("top result: got %q, want %q", got, "red-silk-saree")
	}
	if list.Results[0].Score <= 0 {
		t.Errorf("top score: got %d, want > 0", list.Results[0].Score)
	}
	if len(list.Tokens) == 0 {
		t.Error("tokens are empty")
	}
}

func TestSearch_Limit(t *testing.T) {
	resp := doGet(t, "/api/search?q=saree&limit=1")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[listResponse](t, resp)
	if len(list.Results) != 1 {
		t.Errorf("results: got %d, want 1", len(list.Results))
	}
}

func TestSearch_InvalidLimit(t *testing.T) {
	resp := doGet(t, "/api/search?q=saree&limit=abc")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusBadRequest {
		t.Errorf("code: got %d, want %d", body.Code, http.StatusBadRequest)
	}
}

func TestBrowse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"Category", "?category=men-kurtas", []string{"white-khadi-kurta"}},
		{"Fabric", "?fabric=Cotton", []string{"blue-cotton-saree"}},
		{"CategoryAndColor", "?category=men-sherwanis&color=Maroon", []string{"maroon-sherwani"}},
		{"NoMatch", "?category=men-kurtas&color=Red", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(t, "/api/products"+tt.query)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}

			list := decodeJSON[listResponse](t, resp)
			if list.Total != len(tt.want) {
				t.Fatalf("total: got %d, want %d", list.Total, len(tt.want))
			}
			for i, id := range tt.want {
				if list.Results[i].ID != id {
					t.Errorf("result %d: got %q, want %q", i, list.Results[i].ID, id)
				}
			}
		})
	}
}

func TestBrowse_UnknownFilter(t *testing.T) {
	resp := doGet(t, "/api/products?sleeve=long")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/red-silk-saree")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	p := decodeJSON[productResponse](t, resp)
	if p.Title != "Red Silk Saree" {
		t.Errorf("title: got %q, want %q", p.Title, "Red Silk Saree")
	}
	if p.Category != "women-silk-sarees" {
		t.Errorf("category: got %q, want %q", p.Category, "women-silk-sarees")
	}
	if p.Status != "proposed" {
		t.Errorf("status: got %q, want %q", p.Status, "proposed")
	}
	if got := p.Metadata["Dispatch Time"]; got != "2 days" {
		t.Errorf("dispatch time: got %q, want %q", got, "2 days")
	}
	if len(p.Variants) != 1 || len(p.Variants[0].Prices) != 1 {
		t.Fatalf("expected one variant with one price, got %+v", p.Variants)
	}
	price := p.Variants[0].Prices[0]
	if price.Amount != 450000 || price.Value != "4500.00" || price.CurrencyCode != "INR" {
		t.Errorf("price: got %+v", price)
	}
	if p.Variants[0].InventoryQuantity != 12 {
		t.Errorf("stock: got %d, want 12", p.Variants[0].InventoryQuantity)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/missing-handle")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Errorf("code: got %d, want %d", body.Code, http.StatusNotFound)
	}
}

func TestCategories(t *testing.T) {
	resp := doGet(t, "/api/categories")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	tree := decodeJSON[[]categoryResponse](t, resp)
	if len(tree) == 0 {
		t.Fatal("category tree is empty")
	}
	if tree[0].Slug != "women" || len(tree[0].Children) == 0 {
		t.Errorf("first root: got %+v", tree[0])
	}
}
