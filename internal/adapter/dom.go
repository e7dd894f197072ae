// internal/adapter/dom.go
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/logging"
)

// DOMAdapter extracts product tiles from statically-served catalog HTML.
// It is the cheapest strategy and usually the configured primary.
type DOMAdapter struct {
	client    *http.Client
	selectors config.SelectorConfig
	request   config.RequestConfig
	limiter   *rate.Limiter
	logger    logging.Logger

	uaIndex int
	mu      sync.Mutex
}

// NewDOMAdapter builds a DOM adapter for one retailer.
func NewDOMAdapter(retailer config.RetailerConfig, request config.RequestConfig, logger logging.Logger) *DOMAdapter {
	var limiter *rate.Limiter
	if interval := retailer.RateLimitDuration(); interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return &DOMAdapter{
		client: &http.Client{
			Timeout: request.TimeoutDuration(),
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		selectors: retailer.Selectors,
		request:   request,
		limiter:   limiter,
		logger:    logger,
	}
}

// Kind implements Source.
func (a *DOMAdapter) Kind() catalog.AdapterKind { return catalog.AdapterDOM }

// Extract fetches and parses the catalog page. Zero matching tiles is
// reported as FAILED so the selector can escalate; a static fetch that
// sees nothing usually means the page renders client-side.
func (a *DOMAdapter) Extract(ctx context.Context, page PageRef) ([]map[string]interface{}, catalog.AdapterOutcome) {
	start := time.Now()
	kind := a.Kind()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, failed(kind, ReasonTimeout, start)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page.URL, nil)
	if err != nil {
		return nil, failed(kind, ReasonRequestFailed, start)
	}
	req.Header.Set("User-Agent", a.nextUserAgent())
	for key, value := range a.request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.WithField("page", page.URL).Warnf("dom fetch failed: %v", err)
		if ctx.Err() != nil {
			return nil, failed(kind, ReasonTimeout, start)
		}
		return nil, failed(kind, ReasonRequestFailed, start)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		a.logger.WithFields(map[string]interface{}{
			"page":   page.URL,
			"status": resp.StatusCode,
		}).Warn("dom fetch returned error status")
		return nil, failed(kind, fmt.Sprintf("%s: %d", ReasonBadStatus, resp.StatusCode), start)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, failed(kind, ReasonRequestFailed, start)
	}

	records := extractTiles(doc, a.selectors, page.URL)
	if len(records) == 0 {
		return nil, failed(kind, ReasonNoProducts, start)
	}

	return records, succeeded(kind, catalog.StatusOK, "", len(records), start)
}

func (a *DOMAdapter) nextUserAgent() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.request.UserAgents) == 0 {
		return "catalogpipe/1.0"
	}
	ua := a.request.UserAgents[a.uaIndex]
	a.uaIndex = (a.uaIndex + 1) % len(a.request.UserAgents)
	return ua
}
