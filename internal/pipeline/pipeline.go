// internal/pipeline/pipeline.go

// Package pipeline orchestrates one catalog page run: strategy selection,
// adapter extraction with escalation, merge, baseline classification, and
// review routing. Each run owns its candidate lists end to end; there is
// no shared mutable state between concurrent runs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/modestry/catalogpipe/internal/adapter"
	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/diff"
	"github.com/modestry/catalogpipe/internal/logging"
	"github.com/modestry/catalogpipe/internal/match"
	"github.com/modestry/catalogpipe/internal/merge"
	"github.com/modestry/catalogpipe/internal/monitoring"
	"github.com/modestry/catalogpipe/internal/normalize"
	"github.com/modestry/catalogpipe/internal/review"
	"github.com/modestry/catalogpipe/internal/strategy"
)

// RunReport is the full outcome of one catalog page run.
type RunReport struct {
	Retailer   string                   `json:"retailer"`
	PageURL    string                   `json:"page_url"`
	StartedAt  time.Time                `json:"started_at"`
	Duration   time.Duration            `json:"duration"`
	Outcomes   []catalog.AdapterOutcome `json:"adapter_outcomes"`
	Plan       review.RoutingPlan       `json:"routing_plan"`
	Discards   []merge.Discard          `json:"discards,omitempty"`
	Warnings   []normalize.Warning      `json:"warnings,omitempty"`
}

// Pipeline wires the components for one retailer. Build one per retailer
// and call Run per catalog page; runs are independent and may execute in
// parallel across retailers.
type Pipeline struct {
	retailer     string
	retailerCfg  config.RetailerConfig
	sources      map[catalog.AdapterKind]adapter.Source
	selector     *strategy.Selector
	merger       *merge.Engine
	differ       *diff.Engine
	store        diff.Store
	logger       logging.Logger
	metrics      *monitoring.Metrics
}

// Options assembles a Pipeline.
type Options struct {
	Retailer    string
	RetailerCfg config.RetailerConfig
	Matching    config.MatchingConfig
	Sources     []adapter.Source
	Store       diff.Store
	Logger      logging.Logger
	Metrics     *monitoring.Metrics
}

// New builds a pipeline for one retailer.
func New(opts Options) (*Pipeline, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("baseline store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.Default()
	}

	selector, err := strategy.NewSelector(opts.RetailerCfg)
	if err != nil {
		return nil, fmt.Errorf("strategy selector: %w", err)
	}

	sources := make(map[catalog.AdapterKind]adapter.Source, len(opts.Sources))
	for _, s := range opts.Sources {
		sources[s.Kind()] = s
	}
	for _, kind := range selector.Select() {
		if _, ok := sources[kind]; !ok {
			return nil, fmt.Errorf("configured adapter %q has no registered source", kind)
		}
	}

	normalizer, err := normalize.New(normalize.Options{
		PlaceholderTitles: opts.RetailerCfg.PlaceholderTitles,
		CodePatterns:      opts.RetailerCfg.CodePatterns,
		DefaultCurrency:   opts.RetailerCfg.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}

	matcher, err := match.New(match.Config{
		FuzzyThreshold: opts.Matching.FuzzyThreshold,
		TitleWeight:    opts.Matching.TitleWeight,
		PriceWeight:    opts.Matching.PriceWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}

	logger := opts.Logger.WithField("retailer", opts.Retailer)

	return &Pipeline{
		retailer:    opts.Retailer,
		retailerCfg: opts.RetailerCfg,
		sources:     sources,
		selector:    selector,
		merger:      merge.NewEngine(normalizer, selector.Select(), logger),
		differ:      diff.NewEngine(matcher, logger),
		store:       opts.Store,
		logger:      logger,
		metrics:     opts.Metrics,
	}, nil
}

// Run processes one catalog page. It returns merge.ErrExtractionUnavailable
// when every adapter in the escalation chain failed; that outcome must
// never be read as "zero new products".
func (p *Pipeline) Run(ctx context.Context, pageURL string) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{
		Retailer:  p.retailer,
		PageURL:   pageURL,
		StartedAt: start,
	}
	logger := p.logger.WithField("page", pageURL)

	results := p.extract(ctx, pageURL, logger)
	for _, r := range results {
		report.Outcomes = append(report.Outcomes, r.Outcome)
	}

	merged, err := p.merger.Merge(pageURL, results)
	if err != nil {
		report.Duration = time.Since(start)
		p.metrics.ObserveRun("extraction_unavailable", report.Duration)
		logger.Error("extraction unavailable: all adapters failed")
		return report, err
	}
	report.Discards = merged.Discards
	report.Warnings = merged.Warnings
	for _, d := range merged.Discards {
		p.metrics.ObserveDiscard(d.Reason)
	}

	classified, err := p.differ.Classify(ctx, p.retailer, merged.Candidates, p.store)
	if err != nil {
		report.Duration = time.Since(start)
		p.metrics.ObserveRun("classification_error", report.Duration)
		return report, fmt.Errorf("classification failed: %w", err)
	}
	for _, c := range classified {
		p.metrics.ObserveClassification(string(c.Classification.Kind))
	}

	report.Plan = review.Route(classified)
	report.Duration = time.Since(start)
	p.metrics.ObserveRun("ok", report.Duration)

	counts := report.Plan.Counts()
	logger.WithFields(map[string]interface{}{
		"new":        counts.AutoNew,
		"review":     counts.NeedsDuplicateReview,
		"incomplete": counts.RejectedIncomplete,
		"known":      counts.Known,
		"discarded":  len(report.Discards),
		"duration":   report.Duration.Round(time.Millisecond),
	}).Info("run complete")

	return report, nil
}

// extract walks the escalation chain. Every attempted adapter's records
// feed the merge; FAILED attempts contribute outcomes only.
func (p *Pipeline) extract(ctx context.Context, pageURL string, logger logging.Logger) []merge.AdapterResult {
	page := adapter.PageRef{Retailer: p.retailer, URL: pageURL}

	var results []merge.AdapterResult
	var outcomes []catalog.AdapterOutcome

	for {
		kind, ok := p.selector.Escalate(outcomes)
		if !ok {
			break
		}
		if len(outcomes) > 0 {
			p.metrics.ObserveEscalation(string(kind))
			logger.WithField("adapter", kind).Info("escalating to fallback adapter")
		}

		source := p.sources[kind]
		records, outcome := p.runAdapter(ctx, source, page)

		logger.WithFields(map[string]interface{}{
			"adapter": kind,
			"status":  outcome.Status,
			"reason":  outcome.Reason,
			"records": outcome.Records,
		}).Info("adapter outcome")
		p.metrics.ObserveAdapter(string(kind), string(outcome.Status), outcome.Records, outcome.Duration)

		outcomes = append(outcomes, outcome)
		results = append(results, merge.AdapterResult{
			Adapter: kind,
			Outcome: outcome,
			Records: records,
		})
	}

	return results
}

// runAdapter bounds one adapter invocation with the configured timeout. A
// timed-out adapter reports FAILED rather than blocking the run.
func (p *Pipeline) runAdapter(ctx context.Context, source adapter.Source, page adapter.PageRef) ([]map[string]interface{}, catalog.AdapterOutcome) {
	timeout := p.retailerCfg.AdapterTimeoutDuration()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return source.Extract(ctx, page)
}
