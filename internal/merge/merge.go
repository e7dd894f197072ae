// internal/merge/merge.go

// Package merge reconciles candidate lists from multiple extraction
// adapters into one deduplicated, field-complete set for a catalog page.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/logging"
	"github.com/modestry/catalogpipe/internal/normalize"
)

// ErrExtractionUnavailable distinguishes "every adapter failed" from a
// catalog page that is genuinely empty. Callers must never treat it as
// "zero new products".
var ErrExtractionUnavailable = errors.New("extraction unavailable: all adapters failed")

// AdapterResult pairs one adapter's raw records with its outcome.
type AdapterResult struct {
	Adapter catalog.AdapterKind
	Outcome catalog.AdapterOutcome
	Records []map[string]interface{}
}

// Discard records one candidate dropped during merge, with the reason
// preserved for auditing.
type Discard struct {
	Candidate catalog.ProductCandidate `json:"candidate"`
	Reason    string                   `json:"reason"`
}

// Result is the merged output for one catalog page. Candidate order is
// unspecified; consumers must not rely on it.
type Result struct {
	Candidates []catalog.ProductCandidate `json:"candidates"`
	Discards   []Discard                  `json:"discards,omitempty"`
	Warnings   []normalize.Warning        `json:"warnings,omitempty"`
}

// Engine merges multi-adapter extractions. It is synchronous, in-memory
// logic with no shared state; one engine per run.
type Engine struct {
	normalizer *normalize.Normalizer
	priority   map[catalog.AdapterKind]int
	logger     logging.Logger
}

// NewEngine builds a merge engine. The priority order breaks field ties
// between adapters of equal trust; it comes from configuration, never
// from inference.
func NewEngine(n *normalize.Normalizer, priority []catalog.AdapterKind, logger logging.Logger) *Engine {
	ranks := make(map[catalog.AdapterKind]int, len(priority))
	for i, kind := range priority {
		ranks[kind] = i
	}
	return &Engine{normalizer: n, priority: ranks, logger: logger}
}

// Merge normalizes every record from every adapter, groups candidates by
// MatchKey, and merges fields by trust order: an OK adapter's field beats
// a PARTIAL adapter's, and ties keep the first non-empty value in
// configured adapter priority order.
//
// URL-less candidates are dropped outright and logged; a candidate with a
// URL but no title or price survives as incomplete, because it is still
// addressable for a later repair pass.
func (e *Engine) Merge(catalogURL string, results []AdapterResult) (*Result, error) {
	if len(results) == 0 {
		return nil, ErrExtractionUnavailable
	}
	allFailed := true
	for _, r := range results {
		if r.Outcome.Status != catalog.StatusFailed {
			allFailed = false
			break
		}
	}
	if allFailed {
		return nil, ErrExtractionUnavailable
	}

	out := &Result{}

	// Normalize in trust order so that within a MatchKey group the first
	// non-empty value seen is the winning one.
	ordered := e.orderByTrust(results)

	var candidates []catalog.ProductCandidate
	for _, r := range ordered {
		if r.Outcome.Status == catalog.StatusFailed {
			continue
		}
		for _, raw := range r.Records {
			cand, warnings := e.normalizer.Normalize(catalogURL, raw, r.Adapter)
			for _, w := range warnings {
				e.logger.WithFields(map[string]interface{}{
					"adapter": r.Adapter,
					"page":    catalogURL,
				}).Infof("normalization warning: %s", w)
			}
			out.Warnings = append(out.Warnings, warnings...)
			candidates = append(candidates, cand)
		}
	}

	merged := groupAndMerge(candidates)

	for _, cand := range merged {
		if cand.ProductURL == "" {
			reason := discardReason(cand)
			out.Discards = append(out.Discards, Discard{Candidate: cand, Reason: reason})
			e.logger.WithFields(map[string]interface{}{
				"page":   catalogURL,
				"title":  cand.Title,
				"reason": reason,
			}).Warn("discarding candidate")
			continue
		}
		out.Candidates = append(out.Candidates, cand)
	}

	return out, nil
}

// orderByTrust sorts adapter results so OK precedes PARTIAL, with
// configured priority breaking ties. Insertion sort keeps it stable.
func (e *Engine) orderByTrust(results []AdapterResult) []AdapterResult {
	ordered := make([]AdapterResult, len(results))
	copy(ordered, results)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && e.trustLess(ordered[j], ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}

func (e *Engine) trustLess(a, b AdapterResult) bool {
	ra, rb := statusRank(a.Outcome.Status), statusRank(b.Outcome.Status)
	if ra != rb {
		return ra < rb
	}
	return e.priority[a.Adapter] < e.priority[b.Adapter]
}

func statusRank(s catalog.AdapterStatus) int {
	switch s {
	case catalog.StatusOK:
		return 0
	case catalog.StatusPartial:
		return 1
	default:
		return 2
	}
}

// groupAndMerge collapses candidates that share a MatchKey. Filling
// fields can change a candidate's key (a price copied into a URL-keyed
// candidate promotes it to a title+price key, which may collide with
// another group), so grouping repeats until the key set is stable. Each
// pass with a collision shrinks the set, so the loop terminates.
func groupAndMerge(candidates []catalog.ProductCandidate) []catalog.ProductCandidate {
	merged := coalesce(candidates)
	for {
		regrouped := coalesce(merged)
		if len(regrouped) == len(merged) {
			return regrouped
		}
		merged = regrouped
	}
}

// coalesce performs one grouping pass. Candidates with no derivable key
// cannot be grouped and pass through as singletons; the input arrives in
// trust order, so the first candidate of a group holds the winning fields.
func coalesce(candidates []catalog.ProductCandidate) []catalog.ProductCandidate {
	groups := map[string]*catalog.ProductCandidate{}
	var order []string

	synthetic := 0
	for _, c := range candidates {
		key := c.Key().String()
		if key == "" {
			key = fmt.Sprintf("~ungrouped:%d", synthetic)
			synthetic++
		}
		if existing, ok := groups[key]; ok {
			fillMissing(existing, c)
			continue
		}
		cand := c
		groups[key] = &cand
		order = append(order, key)
	}

	out := make([]catalog.ProductCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out
}

// fillMissing copies fields from src into dst only where dst is empty.
// dst was seen earlier in trust order, so its values win.
func fillMissing(dst *catalog.ProductCandidate, src catalog.ProductCandidate) {
	if dst.ProductURL == "" && src.ProductURL != "" {
		dst.ProductURL = src.ProductURL
		dst.Provenance.Merge(fieldProvenance(src, "product_url"))
	}
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
		dst.Provenance.Merge(fieldProvenance(src, "title"))
	}
	if dst.Price == nil && src.Price != nil {
		price := *src.Price
		dst.Price = &price
		dst.Provenance.Merge(fieldProvenance(src, "price"))
	}
	if dst.ProductCode == "" && src.ProductCode != "" {
		dst.ProductCode = src.ProductCode
		dst.Provenance.Merge(fieldProvenance(src, "product_code"))
	}
	if len(dst.ImageURLs) == 0 && len(src.ImageURLs) > 0 {
		dst.ImageURLs = append([]string(nil), src.ImageURLs...)
		dst.Provenance.Merge(fieldProvenance(src, "image_urls"))
	}
}

func fieldProvenance(c catalog.ProductCandidate, field string) catalog.Provenance {
	if kinds, ok := c.Provenance[field]; ok {
		return catalog.Provenance{field: kinds}
	}
	return catalog.Provenance{}
}

func discardReason(c catalog.ProductCandidate) string {
	missing := c.MissingFields()
	if len(missing) == 0 {
		return "unknown"
	}
	return "missing " + strings.Join(missing, ", ")
}
