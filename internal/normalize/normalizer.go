// internal/normalize/normalizer.go

// Package normalize canonicalizes raw adapter records into product
// candidates. Normalization never fails: malformed fields map to unset
// values plus a warning, so one bad record cannot abort a batch.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/modestry/catalogpipe/internal/catalog"
)

// Options configures a Normalizer for one retailer.
type Options struct {
	// PlaceholderTitles are rejected as if the title were absent
	PlaceholderTitles []string

	// CodePatterns derive a product code from the product URL; the
	// first capture group of the first matching pattern wins
	CodePatterns []string

	// DefaultCurrency is assumed when a price carries no currency
	DefaultCurrency string
}

// Warning records one non-fatal normalization problem.
type Warning struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (w Warning) String() string { return w.Field + ": " + w.Reason }

// Normalizer canonicalizes raw extracted records.
type Normalizer struct {
	placeholders map[string]bool
	codePatterns []*regexp.Regexp
	currency     string
}

// New builds a Normalizer from options. Invalid code patterns are the
// only construction error; everything else has a working default.
func New(opts Options) (*Normalizer, error) {
	placeholders := make(map[string]bool, len(opts.PlaceholderTitles))
	for _, p := range opts.PlaceholderTitles {
		placeholders[strings.ToUpper(strings.TrimSpace(p))] = true
	}

	patterns := make([]*regexp.Regexp, 0, len(opts.CodePatterns))
	for _, p := range opts.CodePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid code pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	currency := opts.DefaultCurrency
	if currency == "" {
		currency = "USD"
	}

	return &Normalizer{
		placeholders: placeholders,
		codePatterns: patterns,
		currency:     currency,
	}, nil
}

// Field aliases seen across adapters. Raw record shapes are
// adapter-defined; the normalizer meets them where they are.
var (
	urlKeys      = []string{"product_url", "url", "link", "href"}
	titleKeys    = []string{"title", "name", "product_name"}
	priceKeys    = []string{"price", "price_amount", "amount"}
	currencyKeys = []string{"currency", "currency_code"}
	codeKeys     = []string{"product_code", "code", "sku", "style"}
	imageKeys    = []string{"image_urls", "images", "image_url", "image", "img"}
)

// Normalize shapes one raw record into a ProductCandidate. It always
// returns a candidate, possibly incomplete, plus warnings describing what
// was discarded and why.
func (n *Normalizer) Normalize(catalogURL string, raw map[string]interface{}, source catalog.AdapterKind) (catalog.ProductCandidate, []Warning) {
	var warnings []Warning

	cand := catalog.ProductCandidate{
		RetailerCatalogURL: catalogURL,
		Provenance:         catalog.Provenance{},
	}

	if u := firstString(raw, urlKeys); u != "" {
		cand.ProductURL = strings.TrimSpace(u)
		cand.Provenance.Add("product_url", source)
	}

	title, warn := n.cleanTitle(firstString(raw, titleKeys))
	if warn != nil {
		warnings = append(warnings, *warn)
	}
	if title != "" {
		cand.Title = title
		cand.Provenance.Add("title", source)
	}

	if v, ok := firstValue(raw, priceKeys); ok {
		price, parsed := ParsePrice(v, firstString(raw, currencyKeys), n.currency)
		if parsed {
			cand.Price = &price
			cand.Provenance.Add("price", source)
		} else {
			warnings = append(warnings, Warning{Field: "price", Reason: fmt.Sprintf("unparseable value %v", v)})
		}
	}

	if code := catalog.NormalizeCode(firstString(raw, codeKeys)); code != "" {
		cand.ProductCode = code
		cand.Provenance.Add("product_code", source)
	} else if derived := n.deriveCode(cand.ProductURL); derived != "" {
		cand.ProductCode = derived
		cand.Provenance.Add("product_code", source)
	}

	if images := stringList(raw, imageKeys); len(images) > 0 {
		cand.ImageURLs = images
		cand.Provenance.Add("image_urls", source)
	}

	return cand, warnings
}

// cleanTitle collapses whitespace and rejects placeholder or too-short
// titles, mapping them to empty rather than erroring.
func (n *Normalizer) cleanTitle(raw string) (string, *Warning) {
	title := strings.Join(strings.Fields(raw), " ")
	if title == "" {
		return "", nil
	}
	if len([]rune(title)) < 3 {
		return "", &Warning{Field: "title", Reason: fmt.Sprintf("too short: %q", title)}
	}
	if n.placeholders[strings.ToUpper(title)] {
		return "", &Warning{Field: "title", Reason: fmt.Sprintf("placeholder: %q", title)}
	}
	return title, nil
}

// deriveCode extracts a product code from the URL. Absence of a derivable
// code is not an error; the code is a secondary key.
func (n *Normalizer) deriveCode(productURL string) string {
	if productURL == "" {
		return ""
	}
	for _, re := range n.codePatterns {
		m := re.FindStringSubmatch(productURL)
		if len(m) >= 2 && m[1] != "" {
			return catalog.NormalizeCode(m[1])
		}
	}
	return ""
}

func firstValue(raw map[string]interface{}, keys []string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(raw map[string]interface{}, keys []string) string {
	v, ok := firstValue(raw, keys)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		return ""
	}
}

func stringList(raw map[string]interface{}, keys []string) []string {
	v, ok := firstValue(raw, keys)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case string:
		if strings.TrimSpace(list) == "" {
			return nil
		}
		return []string{strings.TrimSpace(list)}
	case []string:
		out := make([]string, 0, len(list))
		for _, s := range list {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}
