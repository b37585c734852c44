package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-catalog/internal/domain/product"
	"github.com/xenking/kart-catalog/internal/governance"
	"github.com/xenking/kart-catalog/internal/search"
	"github.com/xenking/kart-catalog/internal/taxonomy"
)

// writeJSON encodes a response body with fn. A non-empty version is sent as
// X-Catalog-Version.
func writeJSON(w http.ResponseWriter, status int, version string, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	if version != "" {
		w.Header().Set(HeaderVersion, version)
	}
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, v := range values {
			e.Str(v)
		}
	})
}

func encodeProduct(e *jx.Encoder, p *product.Product, score int, withScore bool) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		if p.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		}
		e.Field("thumbnail", func(e *jx.Encoder) { e.Str(p.Thumbnail) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(p.Status)) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category()) })

		tags := p.Attributes.Tags()
		e.Field("tags", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, t := range tags {
					e.Str(t.String())
				}
			})
		})
		e.Field("attributes", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, k := range p.Attributes.Keys() {
					e.Field(k, func(e *jx.Encoder) { encodeStrings(e, p.Attributes.Values(k)) })
				}
			})
		})
		e.Field("variants", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, v := range p.Variants {
					encodeVariant(e, v)
				}
			})
		})
		if len(p.Metadata) > 0 {
			e.Field("metadata", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					keys := make([]string, 0, len(p.Metadata))
					for k := range p.Metadata {
						keys = append(keys, k)
					}
					slices.Sort(keys)
					for _, k := range keys {
						e.Field(k, func(e *jx.Encoder) { e.Str(p.Metadata[k]) })
					}
				})
			})
		}
		if withScore {
			e.Field("score", func(e *jx.Encoder) { e.Int(score) })
		}
	})
}

func encodeVariant(e *jx.Encoder, v product.Variant) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(v.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(v.Title) })
		e.Field("sku", func(e *jx.Encoder) { e.Str(v.SKU) })
		e.Field("inventory_quantity", func(e *jx.Encoder) { e.Int(v.InventoryQuantity) })
		e.Field("prices", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range v.Prices {
					e.Obj(func(e *jx.Encoder) {
						e.Field("currency_code", func(e *jx.Encoder) { e.Str(p.CurrencyCode) })
						e.Field("amount", func(e *jx.Encoder) { e.Int64(p.Amount) })
						e.Field("value", func(e *jx.Encoder) { e.Str(decimal.New(p.Amount, -2).StringFixed(2)) })
					})
				}
			})
		})
	})
}

// encodeResponse writes {tokens?, results, total, facets}.
func encodeResponse(e *jx.Encoder, resp search.Response, withScore bool) {
	e.Obj(func(e *jx.Encoder) {
		if withScore {
			e.Field("tokens", func(e *jx.Encoder) { encodeStrings(e, resp.Tokens) })
		}
		e.Field("results", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, r := range resp.Results {
					encodeProduct(e, r.Product, r.Score, withScore)
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Int(resp.Total) })
		e.Field("facets", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("categories", func(e *jx.Encoder) { encodeStrings(e, resp.Facets.Categories) })
				e.Field("fabrics", func(e *jx.Encoder) { encodeStrings(e, resp.Facets.Fabrics) })
			})
		})
	})
}

func encodeCategory(e *jx.Encoder, n taxonomy.CategoryNode) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(n.ID) })
		e.Field("label", func(e *jx.Encoder) { e.Str(n.Label) })
		e.Field("slug", func(e *jx.Encoder) { e.Str(n.Slug) })
		if n.Highlight {
			e.Field("highlight", func(e *jx.Encoder) { e.Bool(true) })
		}
		if len(n.Children) > 0 {
			e.Field("children", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, c := range n.Children {
						encodeCategory(e, c)
					}
				})
			})
		}
	})
}

// encodeReport writes the validation report fields into an open object.
func encodeReport(e *jx.Encoder, r *governance.Report) {
	e.Field("success", func(e *jx.Encoder) { e.Bool(r.Success()) })
	e.Field("count", func(e *jx.Encoder) { e.Int(r.Accepted()) })
	e.Field("rejected", func(e *jx.Encoder) { e.Int(r.Rejected()) })
	e.Field("errors", func(e *jx.Encoder) { encodeStrings(e, r.ErrorStrings()) })
	e.Field("warnings", func(e *jx.Encoder) { encodeStrings(e, r.WarningStrings()) })
}

func encodeRun(e *jx.Encoder, run product.ImportRun) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(run.ID) })
		e.Field("accepted", func(e *jx.Encoder) { e.Int(run.Accepted) })
		e.Field("rejected", func(e *jx.Encoder) { e.Int(run.Rejected) })
		e.Field("errors", func(e *jx.Encoder) { encodeStrings(e, run.Errors) })
		e.Field("warnings", func(e *jx.Encoder) { encodeStrings(e, run.Warnings) })
		e.Field("inventory_value", func(e *jx.Encoder) { e.Str(run.InventoryValue.StringFixed(2)) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(run.Currency) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(run.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}
