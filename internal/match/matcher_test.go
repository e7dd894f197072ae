// internal/match/matcher_test.go
package match

import (
	"testing"

	"github.com/modestry/catalogpipe/internal/catalog"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("failed to build matcher: %v", err)
	}
	return m
}

func usd(amount float64) *catalog.Price {
	return &catalog.Price{Amount: amount, Currency: "USD"}
}

func TestMatchIdenticalByKey(t *testing.T) {
	m := newTestMatcher(t)

	a := catalog.ProductCandidate{ProductCode: "SELF-WD318", Title: "Dress A"}
	b := catalog.ProductCandidate{ProductCode: "self-wd318", Title: "Completely Different"}

	v := m.Match(a, b)
	if v.Kind != Identical || v.Score != 1 {
		t.Fatalf("equal codes must be identical, got %+v", v)
	}
}

func TestMatchIdenticalByURL(t *testing.T) {
	m := newTestMatcher(t)

	a := catalog.ProductCandidate{ProductURL: "https://x.com/dp/1?utm=a", Title: "Red Dress"}
	b := catalog.ProductCandidate{ProductURL: "https://x.com/dp/1", Title: "Blue Coat"}

	if v := m.Match(a, b); v.Kind != Identical {
		t.Fatalf("exact URL match must short-circuit to identical, got %+v", v)
	}
}

func TestMatchFuzzyDuplicateSameTitleAndPrice(t *testing.T) {
	m := newTestMatcher(t)

	// Same physical product listed under two codes: keys differ, so no
	// short-circuit, but title and price agree completely.
	a := catalog.ProductCandidate{
		ProductCode: "SELF-WD318",
		Title:       "Burgundy Rhinestone Fishnet Midi Dress",
		Price:       usd(895),
	}
	b := catalog.ProductCandidate{
		ProductCode: "SELF-WD101",
		Title:       "Burgundy Rhinestone Fishnet Midi Dress",
		Price:       usd(895),
	}

	v := m.Match(a, b)
	if v.Kind != Fuzzy {
		t.Fatalf("expected fuzzy verdict, got %+v", v)
	}
	if v.Score < 0.90 {
		t.Fatalf("expected score >= 0.90, got %v", v.Score)
	}
}

func TestMatchDistinct(t *testing.T) {
	m := newTestMatcher(t)

	a := catalog.ProductCandidate{Title: "Burgundy Rhinestone Fishnet Midi Dress", Price: usd(895)}
	b := catalog.ProductCandidate{Title: "Linen Safari Jacket", Price: usd(240)}

	v := m.Match(a, b)
	if v.Kind != Distinct {
		t.Fatalf("unrelated products must be distinct, got %+v", v)
	}
}

func TestMatchSymmetric(t *testing.T) {
	m := newTestMatcher(t)

	pairs := []struct {
		a, b catalog.ProductCandidate
	}{
		{
			catalog.ProductCandidate{Title: "Burgundy Rhinestone Midi Dress", Price: usd(895)},
			catalog.ProductCandidate{Title: "Rhinestone Midi Dress Burgundy", Price: usd(895)},
		},
		{
			catalog.ProductCandidate{Title: "Silk Slip Dress", Price: usd(310)},
			catalog.ProductCandidate{Title: "Satin Slip Dress", Price: usd(290)},
		},
		{
			catalog.ProductCandidate{ProductURL: "https://x.com/dp/1", Title: "A Dress"},
			catalog.ProductCandidate{Title: "Unrelated Coat", Price: usd(100)},
		},
	}

	for i, p := range pairs {
		ab := m.Match(p.a, p.b)
		ba := m.Match(p.b, p.a)
		if ab != ba {
			t.Errorf("pair %d not symmetric: %+v vs %+v", i, ab, ba)
		}
	}
}

func TestPriceDisagreementLowersScore(t *testing.T) {
	m := newTestMatcher(t)

	same := m.Similarity("Silk Slip Dress", usd(310), "Silk Slip Dress", usd(310))
	diff := m.Similarity("Silk Slip Dress", usd(310), "Silk Slip Dress", usd(280))

	if same <= diff {
		t.Fatalf("price agreement must raise score: same=%v diff=%v", same, diff)
	}
	if diff != 0.7 {
		t.Fatalf("identical title alone should score the title weight, got %v", diff)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero threshold", Config{FuzzyThreshold: 0, TitleWeight: 0.7, PriceWeight: 0.3}},
		{"threshold above one", Config{FuzzyThreshold: 1.2, TitleWeight: 0.7, PriceWeight: 0.3}},
		{"weak title weight", Config{FuzzyThreshold: 0.9, TitleWeight: 0.5, PriceWeight: 0.3}},
		{"heavy price weight", Config{FuzzyThreshold: 0.9, TitleWeight: 0.7, PriceWeight: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected config validation error")
			}
		})
	}
}

func TestConfigurableThreshold(t *testing.T) {
	strict, err := New(Config{FuzzyThreshold: 0.99, TitleWeight: 0.7, PriceWeight: 0.3})
	if err != nil {
		t.Fatalf("failed to build matcher: %v", err)
	}

	a := catalog.ProductCandidate{Title: "Burgundy Rhinestone Midi Dress", Price: usd(895)}
	b := catalog.ProductCandidate{Title: "Burgundy Rhinestone Midi Dress Gown", Price: usd(895)}

	if v := strict.Match(a, b); v.Kind == Fuzzy {
		t.Fatalf("stricter threshold should demote near-matches, got %+v", v)
	}
}
