// internal/strategy/selector.go

// Package strategy decides which extraction adapters to run and when to
// escalate to the next one. Behavior comes from configuration alone;
// there is deliberately no retailer-keyed branching here.
package strategy

import (
	"fmt"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
)

// Selector resolves the escalation order and escalation decisions for a
// retailer from its configuration.
type Selector struct {
	order    []catalog.AdapterKind
	minYield int
}

// NewSelector builds a selector from retailer configuration.
func NewSelector(retailer config.RetailerConfig) (*Selector, error) {
	order := retailer.AdapterOrder()
	if len(order) == 0 {
		return nil, fmt.Errorf("retailer has no configured adapters")
	}
	return &Selector{order: order, minYield: retailer.MinYield}, nil
}

// Select returns the configured escalation order, primary adapter first.
func (s *Selector) Select() []catalog.AdapterKind {
	out := make([]catalog.AdapterKind, len(s.order))
	copy(out, s.order)
	return out
}

// Escalate inspects the outcomes so far and returns the next adapter to
// try, or false when no escalation is warranted. Escalation happens only
// on FAILED, or on PARTIAL whose yield fell below the configured minimum;
// a PARTIAL result meeting the minimum is accepted, trading completeness
// for cost.
func (s *Selector) Escalate(outcomes []catalog.AdapterOutcome) (catalog.AdapterKind, bool) {
	if len(outcomes) == 0 {
		return s.order[0], true
	}

	last := outcomes[len(outcomes)-1]
	switch last.Status {
	case catalog.StatusOK:
		return "", false
	case catalog.StatusPartial:
		if last.Records >= s.minYield {
			return "", false
		}
	case catalog.StatusFailed:
		// always escalate
	}

	attempted := make(map[catalog.AdapterKind]bool, len(outcomes))
	for _, o := range outcomes {
		attempted[o.Adapter] = true
	}
	for _, kind := range s.order {
		if !attempted[kind] {
			return kind, true
		}
	}
	return "", false
}

// MinYield exposes the configured minimum product count.
func (s *Selector) MinYield() int { return s.minYield }
