// internal/adapter/markdown.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/logging"
)

// Completer is the LLM boundary: given page text and instructions, it
// returns a best-effort completion which may be malformed or truncated
// JSON. The adapter owns the repair work, not the collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// MarkdownAdapter extracts products by reducing the page to text and
// asking an LLM for structured records. Mid-tier cost, tolerant of
// markup churn, prone to truncated output on long catalogs.
type MarkdownAdapter struct {
	client    *http.Client
	completer Completer
	request   config.RequestConfig
	logger    logging.Logger
}

const extractionPrompt = `Extract every product from this catalog page text.
Respond with only a JSON array; each element must be an object with keys
"title", "url", "price", and optionally "image_urls". Use null for
unknown values. Do not invent products.

Page text:
%s`

// NewMarkdownAdapter builds a markdown/LLM adapter.
func NewMarkdownAdapter(completer Completer, request config.RequestConfig, logger logging.Logger) *MarkdownAdapter {
	return &MarkdownAdapter{
		client:    &http.Client{Timeout: request.TimeoutDuration()},
		completer: completer,
		request:   request,
		logger:    logger,
	}
}

// Kind implements Source.
func (a *MarkdownAdapter) Kind() catalog.AdapterKind { return catalog.AdapterMarkdown }

// Extract fetches the page, reduces it to text, and parses the LLM's
// response. A response that parses only after truncation repair is
// reported PARTIAL: records were extracted but coverage is suspect.
func (a *MarkdownAdapter) Extract(ctx context.Context, page PageRef) ([]map[string]interface{}, catalog.AdapterOutcome) {
	start := time.Now()
	kind := a.Kind()

	text, err := a.fetchPageText(ctx, page.URL)
	if err != nil {
		a.logger.WithField("page", page.URL).Warnf("markdown fetch failed: %v", err)
		if ctx.Err() != nil {
			return nil, failed(kind, ReasonTimeout, start)
		}
		return nil, failed(kind, ReasonRequestFailed, start)
	}

	response, err := a.completer.Complete(ctx, fmt.Sprintf(extractionPrompt, text))
	if err != nil {
		a.logger.WithField("page", page.URL).Warnf("completion failed: %v", err)
		if ctx.Err() != nil {
			return nil, failed(kind, ReasonTimeout, start)
		}
		return nil, failed(kind, ReasonCompleterError, start)
	}

	records, repaired, err := parseRecordArray(response)
	if err != nil {
		a.logger.WithField("page", page.URL).Warnf("unusable completion: %v", err)
		return nil, failed(kind, ReasonMalformedJSON, start)
	}
	if len(records) == 0 {
		return nil, failed(kind, ReasonNoProducts, start)
	}

	if repaired {
		return records, succeeded(kind, catalog.StatusPartial, ReasonTruncatedJSON, len(records), start)
	}
	return records, succeeded(kind, catalog.StatusOK, "", len(records), start)
}

// fetchPageText downloads the page and strips it to visible text.
func (a *MarkdownAdapter) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	if len(a.request.UserAgents) > 0 {
		req.Header.Set("User-Agent", a.request.UserAgents[0])
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, svg").Remove()

	// Keep href context: an LLM cannot report product URLs the text
	// dropped.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			s.AppendHtml(" (" + href + ")")
		}
	})

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	const maxChars = 60000
	return truncateUTF8(text, maxChars), nil
}

// truncateUTF8 cuts s to at most max bytes, backing off to a rune
// boundary so the tail stays valid UTF-8.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// parseRecordArray parses an LLM response into raw records, tolerating
// code fences, leading prose, and truncated arrays. repaired=true means
// the array had to be salvaged and coverage is likely incomplete.
func parseRecordArray(response string) (records []map[string]interface{}, repaired bool, err error) {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	open := strings.Index(s, "[")
	if open < 0 {
		return nil, false, fmt.Errorf("no JSON array in response")
	}
	s = s[open:]

	if close := strings.LastIndex(s, "]"); close >= 0 {
		if err := json.Unmarshal([]byte(s[:close+1]), &records); err == nil {
			return records, false, nil
		}
	}

	// Truncated mid-object: keep whole objects up to the last complete
	// one and close the array.
	if last := strings.LastIndex(s, "},"); last >= 0 {
		salvaged := s[:last+1] + "]"
		if err := json.Unmarshal([]byte(salvaged), &records); err == nil {
			return records, true, nil
		}
	}
	if last := strings.LastIndex(s, "}"); last >= 0 {
		salvaged := s[:last+1] + "]"
		if err := json.Unmarshal([]byte(salvaged), &records); err == nil {
			return records, true, nil
		}
	}

	return nil, false, fmt.Errorf("response is not a parseable JSON array")
}
