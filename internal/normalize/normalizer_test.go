// internal/normalize/normalizer_test.go
package normalize

import (
	"testing"

	"github.com/modestry/catalogpipe/internal/catalog"
)

const testCatalogURL = "https://shop.example.com/dresses"

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := New(Options{
		PlaceholderTitles: []string{"MISSING", "N/A"},
		CodePatterns:      []string{`/dp/([A-Z0-9-]+)`},
		DefaultCurrency:   "USD",
	})
	if err != nil {
		t.Fatalf("failed to build normalizer: %v", err)
	}
	return n
}

func TestNormalizeFullRecord(t *testing.T) {
	n := newTestNormalizer(t)

	cand, warnings := n.Normalize(testCatalogURL, map[string]interface{}{
		"title":      "  Midi   Wrap  Dress ",
		"url":        "https://shop.example.com/dp/SELF-WD318",
		"price":      "$128.00",
		"image_urls": []interface{}{"https://img.example.com/1.jpg"},
	}, catalog.AdapterDOM)

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if cand.Title != "Midi Wrap Dress" {
		t.Errorf("title = %q", cand.Title)
	}
	if cand.Price == nil || cand.Price.Amount != 128.0 || cand.Price.Currency != "USD" {
		t.Errorf("price = %v", cand.Price)
	}
	if cand.ProductCode != "SELF-WD318" {
		t.Errorf("derived code = %q, want SELF-WD318", cand.ProductCode)
	}
	if !cand.Complete() {
		t.Error("candidate should be complete")
	}
	if got := cand.Provenance["title"]; len(got) != 1 || got[0] != catalog.AdapterDOM {
		t.Errorf("title provenance = %v", got)
	}
}

func TestNormalizeNeverErrors(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"empty record", map[string]interface{}{}},
		{"wrong types", map[string]interface{}{"title": 42, "price": []string{"x"}, "url": 1.5}},
		{"nil values", map[string]interface{}{"title": nil, "price": nil, "url": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, _ := n.Normalize(testCatalogURL, tt.raw, catalog.AdapterDOM)
			if cand.Complete() {
				t.Error("degenerate record must not be complete")
			}
		})
	}
}

func TestNormalizeTitleRejection(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name  string
		title string
	}{
		{"placeholder", "MISSING"},
		{"placeholder lowercase", "n/a"},
		{"too short", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, warnings := n.Normalize(testCatalogURL, map[string]interface{}{
				"title": tt.title,
				"url":   "https://shop.example.com/dp/X1",
			}, catalog.AdapterDOM)

			if cand.Title != "" {
				t.Errorf("title should be rejected, got %q", cand.Title)
			}
			if len(warnings) != 1 || warnings[0].Field != "title" {
				t.Errorf("expected one title warning, got %v", warnings)
			}
		})
	}
}

func TestNormalizeUnparseablePriceWarns(t *testing.T) {
	n := newTestNormalizer(t)

	cand, warnings := n.Normalize(testCatalogURL, map[string]interface{}{
		"title": "Midi Dress",
		"url":   "https://shop.example.com/dp/X1",
		"price": "sold out",
	}, catalog.AdapterMarkdown)

	if cand.Price != nil {
		t.Fatalf("unparseable price must map to nil, got %v", cand.Price)
	}
	if cand.Complete() {
		t.Fatal("nil price implies incomplete")
	}
	if len(warnings) != 1 || warnings[0].Field != "price" {
		t.Fatalf("expected price warning, got %v", warnings)
	}
}

func TestNormalizeExplicitCodeBeatsDerived(t *testing.T) {
	n := newTestNormalizer(t)

	cand, _ := n.Normalize(testCatalogURL, map[string]interface{}{
		"title": "Midi Dress",
		"url":   "https://shop.example.com/dp/URL-CODE",
		"sku":   "sku-999",
	}, catalog.AdapterDOM)

	if cand.ProductCode != "SKU-999" {
		t.Fatalf("explicit code should win, got %q", cand.ProductCode)
	}
}

// Normalizing a normalizer's own output must be a fixed point.
func TestNormalizeIdempotent(t *testing.T) {
	n := newTestNormalizer(t)

	first, _ := n.Normalize(testCatalogURL, map[string]interface{}{
		"title": "  Burgundy   Rhinestone  Dress ",
		"url":   "https://shop.example.com/dp/SELF-WD318?utm=x",
		"price": "$895.00",
	}, catalog.AdapterDOM)

	second, warnings := n.Normalize(testCatalogURL, map[string]interface{}{
		"title":        first.Title,
		"url":          first.ProductURL,
		"price":        first.Price.Amount,
		"currency":     first.Price.Currency,
		"product_code": first.ProductCode,
	}, catalog.AdapterDOM)

	if len(warnings) != 0 {
		t.Fatalf("re-normalization warned: %v", warnings)
	}
	if second.Title != first.Title {
		t.Errorf("title drifted: %q vs %q", second.Title, first.Title)
	}
	if second.ProductURL != first.ProductURL {
		t.Errorf("url drifted: %q vs %q", second.ProductURL, first.ProductURL)
	}
	if second.ProductCode != first.ProductCode {
		t.Errorf("code drifted: %q vs %q", second.ProductCode, first.ProductCode)
	}
	if !second.Price.Equal(*first.Price) {
		t.Errorf("price drifted: %v vs %v", second.Price, first.Price)
	}
	if second.Key() != first.Key() {
		t.Errorf("match key drifted: %v vs %v", second.Key(), first.Key())
	}
}
