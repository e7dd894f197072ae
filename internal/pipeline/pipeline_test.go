// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/modestry/catalogpipe/internal/adapter"
	"github.com/modestry/catalogpipe/internal/baseline"
	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/logging"
	"github.com/modestry/catalogpipe/internal/merge"
)

const testPage = "https://shop.example.com/dresses"

// stubSource plays one scripted adapter.
type stubSource struct {
	kind    catalog.AdapterKind
	status  catalog.AdapterStatus
	reason  string
	records []map[string]interface{}
	calls   int
}

func (s *stubSource) Kind() catalog.AdapterKind { return s.kind }

func (s *stubSource) Extract(_ context.Context, _ adapter.PageRef) ([]map[string]interface{}, catalog.AdapterOutcome) {
	s.calls++
	return s.records, catalog.AdapterOutcome{
		Adapter: s.kind,
		Status:  s.status,
		Reason:  s.reason,
		Records: len(s.records),
	}
}

func retailerConfig(adapters ...string) config.RetailerConfig {
	return config.RetailerConfig{
		Adapters:       adapters,
		MinYield:       1,
		Currency:       "USD",
		AdapterTimeout: "1m",
	}
}

func matchingConfig() config.MatchingConfig {
	return config.MatchingConfig{FuzzyThreshold: 0.90, TitleWeight: 0.7, PriceWeight: 0.3}
}

func newTestPipeline(t *testing.T, store *baseline.MemoryStore, sources ...adapter.Source) *Pipeline {
	t.Helper()
	adapters := make([]string, 0, len(sources))
	for _, s := range sources {
		adapters = append(adapters, string(s.Kind()))
	}
	p, err := New(Options{
		Retailer:    "shopretail",
		RetailerCfg: retailerConfig(adapters...),
		Matching:    matchingConfig(),
		Sources:     sources,
		Store:       store,
		Logger:      logging.Nop(),
	})
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}
	return p
}

func TestRunClassifiesAgainstBaseline(t *testing.T) {
	ctx := context.Background()
	store := baseline.NewMemoryStore()

	known := catalog.BaselineRecord{
		Retailer:        "shopretail",
		NormalizedTitle: "burgundy midi dress",
		Price:           catalog.Price{Amount: 78, Currency: "USD"},
	}
	if err := store.Record(ctx, known); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	dom := &stubSource{
		kind:   catalog.AdapterDOM,
		status: catalog.StatusOK,
		records: []map[string]interface{}{
			{"url": "https://shop.example.com/dp/X", "title": "Burgundy Midi Dress", "price": "$78.00"},
			{"url": "https://shop.example.com/dp/Y", "title": "Chiffon Maxi Skirt", "price": "$54.00"},
		},
	}

	p := newTestPipeline(t, store, dom)
	report, err := p.Run(ctx, testPage)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	counts := report.Plan.Counts()
	if counts.Known != 1 {
		t.Errorf("known = %d, want 1", counts.Known)
	}
	if counts.AutoNew != 1 {
		t.Errorf("auto_new = %d, want 1", counts.AutoNew)
	}
	if report.Plan.Total() != 2 {
		t.Errorf("total routed = %d, want 2", report.Plan.Total())
	}
	if len(report.Outcomes) != 1 {
		t.Errorf("outcomes = %d, want 1 (no escalation on OK)", len(report.Outcomes))
	}
}

// A challenge-page failure on the primary adapter escalates to the next
// rung, and the run still succeeds on the fallback's records.
func TestRunEscalatesOnPrimaryFailure(t *testing.T) {
	ctx := context.Background()
	store := baseline.NewMemoryStore()

	dom := &stubSource{
		kind:   catalog.AdapterDOM,
		status: catalog.StatusFailed,
		reason: adapter.ReasonNoProducts,
	}
	browser := &stubSource{
		kind:   catalog.AdapterBrowser,
		status: catalog.StatusOK,
		records: []map[string]interface{}{
			{"url": "https://shop.example.com/dp/X", "title": "Burgundy Midi Dress", "price": "$78.00"},
		},
	}

	p := newTestPipeline(t, store, dom, browser)
	report, err := p.Run(ctx, testPage)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if dom.calls != 1 || browser.calls != 1 {
		t.Fatalf("calls = dom:%d browser:%d, want one each", dom.calls, browser.calls)
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(report.Outcomes))
	}
	if report.Outcomes[0].Status != catalog.StatusFailed || report.Outcomes[1].Status != catalog.StatusOK {
		t.Fatalf("outcome statuses = %v", report.Outcomes)
	}
	if report.Plan.Counts().AutoNew != 1 {
		t.Fatalf("auto_new = %d, want 1", report.Plan.Counts().AutoNew)
	}
}

func TestRunAcceptsPartialMeetingYield(t *testing.T) {
	ctx := context.Background()
	store := baseline.NewMemoryStore()

	dom := &stubSource{
		kind:   catalog.AdapterDOM,
		status: catalog.StatusPartial,
		reason: adapter.ReasonViewportBound,
		records: []map[string]interface{}{
			{"url": "https://shop.example.com/dp/X", "title": "Burgundy Midi Dress", "price": "$78.00"},
		},
	}
	browser := &stubSource{kind: catalog.AdapterBrowser, status: catalog.StatusOK}

	p := newTestPipeline(t, store, dom, browser)
	report, err := p.Run(ctx, testPage)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if browser.calls != 0 {
		t.Fatalf("partial meeting min_yield must not escalate, browser called %d times", browser.calls)
	}
	if len(report.Outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(report.Outcomes))
	}
}

// Scenario: every rung of the escalation chain fails. The run must
// surface ErrExtractionUnavailable, never an empty success.
func TestRunAllAdaptersFailed(t *testing.T) {
	ctx := context.Background()
	store := baseline.NewMemoryStore()

	dom := &stubSource{kind: catalog.AdapterDOM, status: catalog.StatusFailed, reason: adapter.ReasonRequestFailed}
	browser := &stubSource{kind: catalog.AdapterBrowser, status: catalog.StatusFailed, reason: adapter.ReasonRenderFailed}

	p := newTestPipeline(t, store, dom, browser)
	report, err := p.Run(ctx, testPage)

	if !errors.Is(err, merge.ErrExtractionUnavailable) {
		t.Fatalf("err = %v, want ErrExtractionUnavailable", err)
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2 (both rungs attempted)", len(report.Outcomes))
	}
	if report.Plan.Total() != 0 {
		t.Fatalf("no candidates should be routed, got %d", report.Plan.Total())
	}
}

func TestRunRoutesIncompleteAndDiscards(t *testing.T) {
	ctx := context.Background()
	store := baseline.NewMemoryStore()

	dom := &stubSource{
		kind:   catalog.AdapterDOM,
		status: catalog.StatusOK,
		records: []map[string]interface{}{
			{"url": "https://shop.example.com/dp/X", "title": "Burgundy Midi Dress"},
			{"title": "Orphan Dress", "price": "$10.00"},
		},
	}

	p := newTestPipeline(t, store, dom)
	report, err := p.Run(ctx, testPage)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := report.Plan.Counts().RejectedIncomplete; got != 1 {
		t.Errorf("rejected_incomplete = %d, want 1", got)
	}
	if len(report.Discards) != 1 || report.Discards[0].Reason != "missing url" {
		t.Errorf("discards = %v, want one 'missing url'", report.Discards)
	}
}

func TestNewRejectsUnregisteredAdapter(t *testing.T) {
	_, err := New(Options{
		Retailer:    "shopretail",
		RetailerCfg: retailerConfig("dom", "browser"),
		Matching:    matchingConfig(),
		Sources:     []adapter.Source{&stubSource{kind: catalog.AdapterDOM}},
		Store:       baseline.NewMemoryStore(),
		Logger:      logging.Nop(),
	})
	if err == nil {
		t.Fatal("expected error for configured adapter without a source")
	}
}
