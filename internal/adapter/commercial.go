// internal/adapter/commercial.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/logging"
)

// CommercialAdapter delegates extraction to a paid third-party API. It is
// the most reliable and most expensive tier, so it sits last in most
// escalation orders.
type CommercialAdapter struct {
	client   *http.Client
	endpoint string
	apiKey   string
	logger   logging.Logger
}

// commercialResponse is the provider's envelope. Providers differ in the
// top-level key; both common shapes are accepted.
type commercialResponse struct {
	Results  []map[string]interface{} `json:"results"`
	Products []map[string]interface{} `json:"products"`
	Partial  bool                     `json:"partial,omitempty"`
}

// NewCommercialAdapter builds a commercial-API adapter. The API key comes
// from the environment-expanded configuration, never from code.
func NewCommercialAdapter(retailer config.RetailerConfig, request config.RequestConfig, apiKey string, logger logging.Logger) *CommercialAdapter {
	return &CommercialAdapter{
		client:   &http.Client{Timeout: request.TimeoutDuration()},
		endpoint: retailer.CommercialEndpoint,
		apiKey:   apiKey,
		logger:   logger,
	}
}

// Kind implements Source.
func (a *CommercialAdapter) Kind() catalog.AdapterKind { return catalog.AdapterCommercialAPI }

// Extract calls the provider with the catalog URL and maps its response
// into raw records for the normalizer.
func (a *CommercialAdapter) Extract(ctx context.Context, page PageRef) ([]map[string]interface{}, catalog.AdapterOutcome) {
	start := time.Now()
	kind := a.Kind()

	endpoint, err := a.buildRequestURL(page.URL)
	if err != nil {
		return nil, failed(kind, ReasonRequestFailed, start)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, failed(kind, ReasonRequestFailed, start)
	}
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.WithField("page", page.URL).Warnf("commercial api request failed: %v", err)
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
		}).Warn("commercial api returned error status")
		return nil, failed(kind, fmt.Sprintf("%s: %d", ReasonBadStatus, resp.StatusCode), start)
	}

	var body commercialResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, failed(kind, ReasonMalformedJSON, start)
	}

	records := body.Results
	if len(records) == 0 {
		records = body.Products
	}
	if len(records) == 0 {
		return nil, failed(kind, ReasonNoProducts, start)
	}

	if body.Partial {
		return records, succeeded(kind, catalog.StatusPartial, "provider reported partial coverage", len(records), start)
	}
	return records, succeeded(kind, catalog.StatusOK, "", len(records), start)
}

// buildRequestURL substitutes the page URL into the endpoint template, or
// appends it as a query parameter when no placeholder is present.
func (a *CommercialAdapter) buildRequestURL(pageURL string) (string, error) {
	if strings.Contains(a.endpoint, "{url}") {
		return strings.ReplaceAll(a.endpoint, "{url}", url.QueryEscape(pageURL)), nil
	}

	u, err := url.Parse(a.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("url", pageURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
