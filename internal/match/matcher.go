// internal/match/matcher.go

// Package match scores similarity between product records. Matching is a
// pure function over its inputs and symmetric in its arguments.
package match

import (
	"fmt"

	"github.com/modestry/catalogpipe/internal/catalog"
)

// VerdictKind is the outcome of comparing two records.
type VerdictKind string

const (
	Identical VerdictKind = "IDENTICAL"
	Fuzzy     VerdictKind = "FUZZY"
	Distinct  VerdictKind = "DISTINCT"
)

// Verdict carries a similarity score in [0, 1] and its interpretation.
type Verdict struct {
	Score float64     `json:"score"`
	Kind  VerdictKind `json:"kind"`
}

// Config holds the tunable matching parameters. The 0.90 threshold and
// the 0.7/0.3 weighting come from operational dedup heuristics and should
// be validated per retailer, not treated as constants.
type Config struct {
	FuzzyThreshold float64
	TitleWeight    float64
	PriceWeight    float64
}

// DefaultConfig returns the operational defaults.
func DefaultConfig() Config {
	return Config{FuzzyThreshold: 0.90, TitleWeight: 0.7, PriceWeight: 0.3}
}

// Matcher compares product candidates and baseline records.
type Matcher struct {
	cfg Config
}

// New builds a Matcher, validating the weighting contract: title
// similarity is the primary signal, price equality secondary.
func New(cfg Config) (*Matcher, error) {
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("fuzzy threshold must be in (0, 1], got %v", cfg.FuzzyThreshold)
	}
	if cfg.TitleWeight < 0.7 {
		return nil, fmt.Errorf("title weight must be at least 0.7, got %v", cfg.TitleWeight)
	}
	if cfg.PriceWeight > 0.3 || cfg.PriceWeight < 0 {
		return nil, fmt.Errorf("price weight must be in [0, 0.3], got %v", cfg.PriceWeight)
	}
	return &Matcher{cfg: cfg}, nil
}

// Threshold exposes the configured fuzzy cutoff for callers that compare
// raw scores (the diff engine's baseline sweep).
func (m *Matcher) Threshold() float64 { return m.cfg.FuzzyThreshold }

// Match compares two candidates. MatchKey equality or an exact URL match
// short-circuits to IDENTICAL; URLs otherwise contribute nothing to the
// score, because retailers rotate URLs for the same physical product.
func (m *Matcher) Match(a, b catalog.ProductCandidate) Verdict {
	keyA, keyB := a.Key(), b.Key()
	if !keyA.IsZero() && keyA == keyB {
		return Verdict{Score: 1, Kind: Identical}
	}

	urlA, urlB := catalog.NormalizeURL(a.ProductURL), catalog.NormalizeURL(b.ProductURL)
	if urlA != "" && urlA == urlB {
		return Verdict{Score: 1, Kind: Identical}
	}

	score := m.Similarity(a.Title, a.Price, b.Title, b.Price)
	if score >= m.cfg.FuzzyThreshold {
		return Verdict{Score: score, Kind: Fuzzy}
	}
	return Verdict{Score: score, Kind: Distinct}
}

// Similarity computes the weighted score over titles and prices. Both
// signals are symmetric, so Similarity(a, b) == Similarity(b, a).
func (m *Matcher) Similarity(titleA string, priceA *catalog.Price, titleB string, priceB *catalog.Price) float64 {
	title := titleSimilarity(catalog.NormalizeTitle(titleA), catalog.NormalizeTitle(titleB))

	price := 0.0
	if priceA != nil && priceB != nil && priceA.Equal(*priceB) {
		price = 1.0
	}

	return m.cfg.TitleWeight*title + m.cfg.PriceWeight*price
}

// titleSimilarity blends character-bigram Dice similarity with token-set
// Jaccard overlap. Bigrams catch small spelling drift; token overlap
// catches reordered or partially rewritten titles.
func titleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return 0.65*diceCoefficient(a, b) + 0.35*tokenJaccard(a, b)
}

func diceCoefficient(a, b string) float64 {
	aPairs := bigrams(a)
	bPairs := bigrams(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	counts := make(map[string]int, len(bPairs))
	for _, p := range bPairs {
		counts[p]++
	}
	overlap := 0
	for _, p := range aPairs {
		if counts[p] > 0 {
			overlap++
			counts[p]--
		}
	}
	return float64(2*overlap) / float64(len(aPairs)+len(bPairs))
}

func bigrams(s string) []string {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	out := make([]string, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		out = append(out, string(r[i:i+2]))
	}
	return out
}

func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range catalog.Tokenize(s) {
		set[t] = true
	}
	return set
}
