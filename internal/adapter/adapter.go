// internal/adapter/adapter.go

// Package adapter implements the extraction source boundary: each
// adapter wraps one extraction mechanism (static DOM, rendered browser,
// markdown/LLM, commercial API) behind a single capability interface.
//
// Adapters never return a Go error for expected failure modes. Network
// errors, empty pages, and challenge pages all map to a FAILED outcome
// with a reason code, so the strategy selector can decide on fallback.
package adapter

import (
	"context"
	"time"

	"github.com/modestry/catalogpipe/internal/catalog"
)

// PageRef identifies one catalog page to extract.
type PageRef struct {
	Retailer string
	URL      string
}

// Source is the extraction capability interface. Raw records are
// adapter-defined mappings; each must at minimum carry a URL-or-title
// anchor so the normalizer has something to work with.
type Source interface {
	Kind() catalog.AdapterKind
	Extract(ctx context.Context, page PageRef) ([]map[string]interface{}, catalog.AdapterOutcome)
}

// Outcome reason codes shared across adapters.
const (
	ReasonRequestFailed  = "request_failed"
	ReasonBadStatus      = "bad_status"
	ReasonNoProducts     = "no_products"
	ReasonTimeout        = "timeout"
	ReasonRenderFailed   = "render_failed"
	ReasonMalformedJSON  = "malformed_json"
	ReasonTruncatedJSON  = "truncated_json"
	ReasonViewportBound  = "viewport_limited"
	ReasonCompleterError = "completer_error"
)

func failed(kind catalog.AdapterKind, reason string, start time.Time) catalog.AdapterOutcome {
	return catalog.AdapterOutcome{
		Adapter:  kind,
		Status:   catalog.StatusFailed,
		Reason:   reason,
		Duration: time.Since(start),
	}
}

func succeeded(kind catalog.AdapterKind, status catalog.AdapterStatus, reason string, records int, start time.Time) catalog.AdapterOutcome {
	return catalog.AdapterOutcome{
		Adapter:  kind,
		Status:   status,
		Reason:   reason,
		Records:  records,
		Duration: time.Since(start),
	}
}
