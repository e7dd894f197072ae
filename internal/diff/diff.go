// internal/diff/diff.go

// Package diff classifies merged candidates against the known-product
// baseline: known, new, suspected duplicate, or incomplete.
package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/logging"
	"github.com/modestry/catalogpipe/internal/match"
)

// Store is the read-only baseline lookup boundary. Writes belong to the
// storage collaborator; the engine only emits classification decisions.
type Store interface {
	// Lookup returns the baseline record with the given MatchKey, or
	// nil when there is none.
	Lookup(ctx context.Context, retailer string, key catalog.MatchKey) (*catalog.BaselineRecord, error)

	// NearNeighbors returns baseline records for the same retailer
	// whose normalized title starts with the given token. Bounding the
	// comparison set this way keeps classification off an O(n²) scan.
	NearNeighbors(ctx context.Context, retailer, firstToken string) ([]catalog.BaselineRecord, error)
}

// Classified pairs a candidate with its classification.
type Classified struct {
	Candidate      catalog.ProductCandidate `json:"candidate"`
	Classification catalog.Classification   `json:"classification"`
}

// Engine classifies candidates. Classification is deterministic given
// identical inputs: no randomness, no time-dependent tie-breaks.
type Engine struct {
	matcher *match.Matcher
	logger  logging.Logger
}

// NewEngine builds a diff engine around a fuzzy matcher.
func NewEngine(matcher *match.Matcher, logger logging.Logger) *Engine {
	return &Engine{matcher: matcher, logger: logger}
}

// Classify labels every candidate. Incomplete candidates short-circuit to
// INCOMPLETE without touching the baseline; a URL-less candidate reaching
// this engine is a merge invariant violation and fails loudly.
func (e *Engine) Classify(ctx context.Context, retailer string, candidates []catalog.ProductCandidate, store Store) ([]Classified, error) {
	out := make([]Classified, 0, len(candidates))

	for _, cand := range candidates {
		if cand.ProductURL == "" {
			return nil, fmt.Errorf("invariant violation: URL-less candidate %q reached classification", cand.Title)
		}

		if !cand.Complete() {
			out = append(out, Classified{
				Candidate: cand,
				Classification: catalog.Classification{
					Kind:   catalog.ClassIncomplete,
					Reason: "missing " + strings.Join(cand.MissingFields(), ", "),
				},
			})
			continue
		}

		cls, err := e.classifyOne(ctx, retailer, cand, store)
		if err != nil {
			return nil, err
		}
		out = append(out, Classified{Candidate: cand, Classification: cls})
	}

	return out, nil
}

func (e *Engine) classifyOne(ctx context.Context, retailer string, cand catalog.ProductCandidate, store Store) (catalog.Classification, error) {
	key := cand.Key()
	if !key.IsZero() {
		rec, err := store.Lookup(ctx, retailer, key)
		if err != nil {
			return catalog.Classification{}, fmt.Errorf("baseline lookup failed: %w", err)
		}
		if rec != nil {
			return catalog.Classification{Kind: catalog.ClassKnown, Score: 1, Baseline: rec}, nil
		}
	}

	neighbors, err := store.NearNeighbors(ctx, retailer, catalog.FirstToken(cand.Title))
	if err != nil {
		return catalog.Classification{}, fmt.Errorf("baseline near-neighbor query failed: %w", err)
	}

	var best *catalog.BaselineRecord
	bestScore := 0.0
	for i := range neighbors {
		rec := neighbors[i]
		score := e.matcher.Similarity(cand.Title, cand.Price, rec.NormalizedTitle, &rec.Price)
		if score > bestScore {
			bestScore = score
			best = &neighbors[i]
		}
	}

	if best != nil && bestScore >= e.matcher.Threshold() {
		e.logger.WithFields(map[string]interface{}{
			"retailer": retailer,
			"title":    cand.Title,
			"matched":  best.NormalizedTitle,
			"score":    fmt.Sprintf("%.3f", bestScore),
		}).Info("suspected duplicate")
		return catalog.Classification{
			Kind:     catalog.ClassSuspectedDuplicate,
			Score:    bestScore,
			Baseline: best,
		}, nil
	}

	return catalog.Classification{Kind: catalog.ClassNew, Score: bestScore}, nil
}
