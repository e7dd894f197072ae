// internal/catalog/types.go

// Package catalog defines the domain types shared across the extraction
// pipeline: product candidates, match keys, adapter outcomes, baseline
// records, and classifications.
package catalog

import (
	"fmt"
	"strconv"
	"time"
)

// AdapterKind identifies one extraction strategy.
type AdapterKind string

const (
	AdapterDOM           AdapterKind = "dom"
	AdapterBrowser       AdapterKind = "browser"
	AdapterMarkdown      AdapterKind = "markdown"
	AdapterCommercialAPI AdapterKind = "commercial_api"
)

// ParseAdapterKind converts a configuration string into an AdapterKind.
func ParseAdapterKind(s string) (AdapterKind, error) {
	switch AdapterKind(s) {
	case AdapterDOM, AdapterBrowser, AdapterMarkdown, AdapterCommercialAPI:
		return AdapterKind(s), nil
	default:
		return "", fmt.Errorf("unknown adapter kind: %q", s)
	}
}

// AdapterStatus reports how an extraction attempt went.
type AdapterStatus string

const (
	StatusOK      AdapterStatus = "ok"
	StatusPartial AdapterStatus = "partial"
	StatusFailed  AdapterStatus = "failed"
)

// AdapterOutcome is the structured result of one adapter invocation.
// Expected failure modes (network errors, empty pages, challenge pages)
// are reported here with a reason code, never as a Go error.
type AdapterOutcome struct {
	Adapter  AdapterKind   `json:"adapter"`
	Status   AdapterStatus `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration"`
}

// Price is a monetary amount with its currency code.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Equal reports whether two prices are the same amount and currency.
// Amounts are compared at cent precision to absorb float parsing noise.
func (p Price) Equal(o Price) bool {
	if p.Currency != o.Currency {
		return false
	}
	diff := p.Amount - o.Amount
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.005
}

func (p Price) String() string {
	return strconv.FormatFloat(p.Amount, 'f', 2, 64) + " " + p.Currency
}

// Provenance records which adapter(s) contributed each candidate field,
// keyed by field name. Required for auditing merge decisions.
type Provenance map[string][]AdapterKind

// Add records a contribution without duplicating an adapter per field.
func (p Provenance) Add(field string, kind AdapterKind) {
	for _, k := range p[field] {
		if k == kind {
			return
		}
	}
	p[field] = append(p[field], kind)
}

// Merge folds another provenance map into this one.
func (p Provenance) Merge(other Provenance) {
	for field, kinds := range other {
		for _, k := range kinds {
			p.Add(field, k)
		}
	}
}

// ProductCandidate is one observed product on a catalog page. Candidates
// are owned by the run that produced them; they acquire a persisted
// identity only after a downstream decision.
type ProductCandidate struct {
	RetailerCatalogURL string     `json:"retailer_catalog_url"`
	ProductURL         string     `json:"product_url,omitempty"`
	Title              string     `json:"title,omitempty"`
	Price              *Price     `json:"price,omitempty"`
	ProductCode        string     `json:"product_code,omitempty"`
	ImageURLs          []string   `json:"image_urls,omitempty"`
	Provenance         Provenance `json:"provenance,omitempty"`
}

// Complete reports whether the candidate has every field required before
// it may be classified or persisted: product URL, title, and price.
func (c ProductCandidate) Complete() bool {
	return c.ProductURL != "" && c.Title != "" && c.Price != nil
}

// MissingFields names the required fields the candidate lacks, in a fixed
// order so discard reasons are stable.
func (c ProductCandidate) MissingFields() []string {
	var missing []string
	if c.ProductURL == "" {
		missing = append(missing, "url")
	}
	if c.Title == "" {
		missing = append(missing, "title")
	}
	if c.Price == nil {
		missing = append(missing, "price")
	}
	return missing
}

// BaselineRecord is the persisted representation of a previously-seen
// product. The pipeline treats it as read-only input; all writes are the
// storage collaborator's concern.
type BaselineRecord struct {
	Retailer        string    `json:"retailer"`
	ProductCode     string    `json:"product_code,omitempty"`
	NormalizedTitle string    `json:"normalized_title"`
	Price           Price     `json:"price"`
	LastSeen        time.Time `json:"last_seen"`
}

// ClassificationKind is the novelty verdict for one candidate.
type ClassificationKind string

const (
	ClassKnown              ClassificationKind = "KNOWN"
	ClassNew                ClassificationKind = "NEW"
	ClassSuspectedDuplicate ClassificationKind = "SUSPECTED_DUPLICATE"
	ClassIncomplete         ClassificationKind = "INCOMPLETE"
)

// Classification is the immutable diff-engine output for one candidate,
// created once per run and consumed by the review router.
type Classification struct {
	Kind     ClassificationKind `json:"kind"`
	Score    float64            `json:"score,omitempty"`
	Baseline *BaselineRecord    `json:"baseline,omitempty"`
	Reason   string             `json:"reason,omitempty"`
}
