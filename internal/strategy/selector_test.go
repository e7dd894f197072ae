// internal/strategy/selector_test.go
package strategy

import (
	"testing"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
)

func newTestSelector(t *testing.T, adapters []string, minYield int) *Selector {
	t.Helper()
	s, err := NewSelector(config.RetailerConfig{Adapters: adapters, MinYield: minYield})
	if err != nil {
		t.Fatalf("failed to build selector: %v", err)
	}
	return s
}

func TestSelectReturnsConfiguredOrder(t *testing.T) {
	s := newTestSelector(t, []string{"dom", "browser", "markdown"}, 1)

	got := s.Select()
	want := []catalog.AdapterKind{catalog.AdapterDOM, catalog.AdapterBrowser, catalog.AdapterMarkdown}
	if len(got) != len(want) {
		t.Fatalf("order length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNewSelectorRejectsEmptyOrder(t *testing.T) {
	if _, err := NewSelector(config.RetailerConfig{}); err == nil {
		t.Fatal("expected error for retailer with no adapters")
	}
}

func TestEscalate(t *testing.T) {
	outcome := func(kind catalog.AdapterKind, status catalog.AdapterStatus, records int) catalog.AdapterOutcome {
		return catalog.AdapterOutcome{Adapter: kind, Status: status, Records: records}
	}

	tests := []struct {
		name     string
		minYield int
		outcomes []catalog.AdapterOutcome
		wantNext catalog.AdapterKind
		wantMore bool
	}{
		{
			name:     "nothing attempted starts with primary",
			minYield: 1,
			wantNext: catalog.AdapterDOM,
			wantMore: true,
		},
		{
			name:     "ok stops escalation",
			minYield: 1,
			outcomes: []catalog.AdapterOutcome{outcome(catalog.AdapterDOM, catalog.StatusOK, 24)},
		},
		{
			name:     "failed escalates to next",
			minYield: 1,
			outcomes: []catalog.AdapterOutcome{outcome(catalog.AdapterDOM, catalog.StatusFailed, 0)},
			wantNext: catalog.AdapterBrowser,
			wantMore: true,
		},
		{
			name:     "partial meeting yield is accepted",
			minYield: 10,
			outcomes: []catalog.AdapterOutcome{outcome(catalog.AdapterDOM, catalog.StatusPartial, 12)},
		},
		{
			name:     "partial below yield escalates",
			minYield: 10,
			outcomes: []catalog.AdapterOutcome{outcome(catalog.AdapterDOM, catalog.StatusPartial, 3)},
			wantNext: catalog.AdapterBrowser,
			wantMore: true,
		},
		{
			name:     "two failures reach the last rung",
			minYield: 1,
			outcomes: []catalog.AdapterOutcome{
				outcome(catalog.AdapterDOM, catalog.StatusFailed, 0),
				outcome(catalog.AdapterBrowser, catalog.StatusFailed, 0),
			},
			wantNext: catalog.AdapterMarkdown,
			wantMore: true,
		},
		{
			name:     "order exhausted stops",
			minYield: 1,
			outcomes: []catalog.AdapterOutcome{
				outcome(catalog.AdapterDOM, catalog.StatusFailed, 0),
				outcome(catalog.AdapterBrowser, catalog.StatusFailed, 0),
				outcome(catalog.AdapterMarkdown, catalog.StatusFailed, 0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSelector(t, []string{"dom", "browser", "markdown"}, tt.minYield)
			next, more := s.Escalate(tt.outcomes)
			if more != tt.wantMore {
				t.Fatalf("more = %v, want %v", more, tt.wantMore)
			}
			if next != tt.wantNext {
				t.Fatalf("next = %q, want %q", next, tt.wantNext)
			}
		})
	}
}
