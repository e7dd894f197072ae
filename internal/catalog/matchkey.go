// internal/catalog/matchkey.go
package catalog

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchKeyKind names which identity signal produced a MatchKey.
type MatchKeyKind string

const (
	KeyByCode       MatchKeyKind = "code"
	KeyByTitlePrice MatchKeyKind = "title_price"
	KeyByURL        MatchKeyKind = "url"
	KeyNone         MatchKeyKind = ""
)

// MatchKey is the derived identity used to group candidates across
// adapters and to compare against the baseline. It is never persisted by
// the pipeline itself.
type MatchKey struct {
	Kind  MatchKeyKind
	Value string
}

// IsZero reports whether no identity signal was derivable.
func (k MatchKey) IsZero() bool { return k.Kind == KeyNone }

func (k MatchKey) String() string {
	if k.IsZero() {
		return ""
	}
	return string(k.Kind) + ":" + k.Value
}

// Key derives the candidate's MatchKey: product code when present, else
// normalized title plus price when both are present, else normalized URL.
func (c ProductCandidate) Key() MatchKey {
	if code := NormalizeCode(c.ProductCode); code != "" {
		return MatchKey{Kind: KeyByCode, Value: code}
	}
	if title := NormalizeTitle(c.Title); title != "" && c.Price != nil {
		return MatchKey{Kind: KeyByTitlePrice, Value: title + "|" + priceKey(*c.Price)}
	}
	if u := NormalizeURL(c.ProductURL); u != "" {
		return MatchKey{Kind: KeyByURL, Value: u}
	}
	return MatchKey{}
}

// Key derives the baseline record's MatchKey with the same precedence as
// ProductCandidate.Key, so exact lookups line up across the boundary.
func (r BaselineRecord) Key() MatchKey {
	if code := NormalizeCode(r.ProductCode); code != "" {
		return MatchKey{Kind: KeyByCode, Value: code}
	}
	if r.NormalizedTitle != "" {
		return MatchKey{Kind: KeyByTitlePrice, Value: r.NormalizedTitle + "|" + priceKey(r.Price)}
	}
	return MatchKey{}
}

func priceKey(p Price) string {
	return strconv.FormatFloat(p.Amount, 'f', 2, 64) + p.Currency
}

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	rePunct    = regexp.MustCompile(`[^a-z0-9 ]+`)
	foldAccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// NormalizeTitle lowercases, strips diacritics and punctuation, and
// collapses whitespace. Retailer title conventions vary wildly; this is
// the canonical form every comparison runs over.
func NormalizeTitle(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(foldAccent, s); err == nil {
		s = folded
	}
	s = rePunct.ReplaceAllString(s, " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// NormalizeCode uppercases a product code and strips everything except
// letters, digits, dashes, underscores, and slashes.
func NormalizeCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '/' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeURL canonicalizes a product URL for identity comparison:
// scheme and host lowercased, query string and fragment dropped, trailing
// slash trimmed. Tracking parameters otherwise make the same product look
// like a rotation.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return strings.TrimRight(u.String(), "/")
}

// Tokenize splits a normalized title into tokens of two or more runes.
func Tokenize(title string) []string {
	parts := strings.Fields(NormalizeTitle(title))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

// FirstToken returns the first token of a normalized title, used to bound
// near-neighbor baseline queries.
func FirstToken(title string) string {
	tokens := Tokenize(title)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}
