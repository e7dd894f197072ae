// internal/adapter/dom_test.go
package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/logging"
)

const catalogHTML = `<!DOCTYPE html>
<html><body>
<div class="grid">
  <div class="product-tile">
    <h3 class="title">Burgundy Midi Dress</h3>
    <a class="product-link" href="/dp/WD318">view</a>
    <span class="price">$78.00</span>
    <img class="hero" src="/img/wd318.jpg">
  </div>
  <div class="product-tile">
    <h3 class="title">Chiffon Maxi Skirt</h3>
    <a class="product-link" href="/dp/SK204">view</a>
    <span class="price">$54.00</span>
  </div>
  <div class="product-tile"></div>
</div>
</body></html>`

var testSelectors = config.SelectorConfig{
	Tile:  "div.product-tile",
	Title: "h3.title",
	Link:  "a.product-link",
	Price: "span.price",
	Image: "img.hero",
}

func newDOMAdapter(retailer config.RetailerConfig) *DOMAdapter {
	return NewDOMAdapter(retailer, config.RequestConfig{}, logging.Nop())
}

func TestDOMExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogHTML))
	}))
	defer srv.Close()

	a := newDOMAdapter(config.RetailerConfig{Selectors: testSelectors})
	records, outcome := a.Extract(context.Background(), PageRef{Retailer: "shopretail", URL: srv.URL + "/dresses"})

	if outcome.Status != catalog.StatusOK {
		t.Fatalf("status = %s (%s), want ok", outcome.Status, outcome.Reason)
	}
	if outcome.Records != 2 {
		t.Fatalf("records = %d, want 2 (empty tile must be skipped)", outcome.Records)
	}

	first := records[0]
	if first["title"] != "Burgundy Midi Dress" {
		t.Errorf("title = %v", first["title"])
	}
	wantURL := srv.URL + "/dp/WD318"
	if first["url"] != wantURL {
		t.Errorf("url = %v, want %v (relative hrefs must be resolved)", first["url"], wantURL)
	}
	if first["price"] != "$78.00" {
		t.Errorf("price = %v", first["price"])
	}
	images, ok := first["image_urls"].([]string)
	if !ok || len(images) != 1 || !strings.HasSuffix(images[0], "/img/wd318.jpg") {
		t.Errorf("image_urls = %v", first["image_urls"])
	}
}

func TestDOMExtractBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	a := newDOMAdapter(config.RetailerConfig{Selectors: testSelectors})
	_, outcome := a.Extract(context.Background(), PageRef{URL: srv.URL})

	if outcome.Status != catalog.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Status)
	}
	if !strings.HasPrefix(outcome.Reason, ReasonBadStatus) {
		t.Fatalf("reason = %q, want %s prefix", outcome.Reason, ReasonBadStatus)
	}
}

// A page with no matching tiles is FAILED, not an empty success: static
// fetches against client-rendered pages must trigger escalation.
func TestDOMExtractNoTilesFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div id="app"></div></body></html>`))
	}))
	defer srv.Close()

	a := newDOMAdapter(config.RetailerConfig{Selectors: testSelectors})
	_, outcome := a.Extract(context.Background(), PageRef{URL: srv.URL})

	if outcome.Status != catalog.StatusFailed || outcome.Reason != ReasonNoProducts {
		t.Fatalf("outcome = %+v, want failed/no_products", outcome)
	}
}

func TestDOMExtractUnreachableHost(t *testing.T) {
	a := newDOMAdapter(config.RetailerConfig{Selectors: testSelectors})
	_, outcome := a.Extract(context.Background(), PageRef{URL: "http://127.0.0.1:1/"})

	if outcome.Status != catalog.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Status)
	}
	if outcome.Reason != ReasonRequestFailed {
		t.Fatalf("reason = %q, want %s", outcome.Reason, ReasonRequestFailed)
	}
}

func TestDOMUserAgentRotation(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("User-Agent"))
		w.Write([]byte(catalogHTML))
	}))
	defer srv.Close()

	a := NewDOMAdapter(
		config.RetailerConfig{Selectors: testSelectors},
		config.RequestConfig{UserAgents: []string{"ua-one", "ua-two"}},
		logging.Nop(),
	)

	for i := 0; i < 3; i++ {
		a.Extract(context.Background(), PageRef{URL: srv.URL})
	}
	if len(seen) != 3 || seen[0] != "ua-one" || seen[1] != "ua-two" || seen[2] != "ua-one" {
		t.Fatalf("user agents = %v, want round-robin rotation", seen)
	}
}
