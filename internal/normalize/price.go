// internal/normalize/price.go
package normalize

import (
	"strconv"
	"strings"

	"github.com/modestry/catalogpipe/internal/catalog"
)

// Multi-character symbols come first so "C$" never matches as "$".
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"C$", "CAD"},
	{"A$", "AUD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

var currencyCodes = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CAD": true, "AUD": true, "CHF": true, "SEK": true,
}

// ParsePrice converts a raw price value of arbitrary shape into a Price.
// Unparseable input yields ok=false, never an error; a missing price is a
// completeness problem downstream, not a batch-aborting one.
func ParsePrice(v interface{}, currencyHint, defaultCurrency string) (catalog.Price, bool) {
	currency := normalizeCurrency(currencyHint)
	if currency == "" {
		currency = defaultCurrency
	}

	switch n := v.(type) {
	case nil:
		return catalog.Price{}, false
	case float64:
		return amountPrice(n, currency)
	case float32:
		return amountPrice(float64(n), currency)
	case int:
		return amountPrice(float64(n), currency)
	case int64:
		return amountPrice(float64(n), currency)
	case string:
		return parsePriceString(n, currency)
	default:
		return catalog.Price{}, false
	}
}

func amountPrice(amount float64, currency string) (catalog.Price, bool) {
	if amount <= 0 {
		return catalog.Price{}, false
	}
	return catalog.Price{Amount: amount, Currency: currency}, true
}

// parsePriceString handles the formats retailers actually emit: currency
// symbols or codes on either side, thousands separators, and both
// decimal-point conventions ("1,299.99" and "1.299,99").
func parsePriceString(s, fallbackCurrency string) (catalog.Price, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return catalog.Price{}, false
	}

	currency := fallbackCurrency
	for _, sym := range currencySymbols {
		if strings.Contains(s, sym.symbol) {
			currency = sym.code
			s = strings.ReplaceAll(s, sym.symbol, "")
			break
		}
	}
	for _, token := range strings.Fields(strings.ToUpper(s)) {
		if currencyCodes[token] {
			currency = token
			break
		}
	}

	// Keep only the numeric core. "From $128.00" and "128.00 USD" both
	// reduce to "128.00".
	var b strings.Builder
	started := false
	for _, r := range s {
		if (r >= '0' && r <= '9') || ((r == '.' || r == ',') && started) {
			b.WriteRune(r)
			started = true
		} else if started {
			break
		}
	}
	num := strings.Trim(b.String(), ".,")
	if num == "" {
		return catalog.Price{}, false
	}

	num = resolveSeparators(num)
	amount, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return catalog.Price{}, false
	}
	return amountPrice(amount, currency)
}

// resolveSeparators disambiguates thousands versus decimal separators.
func resolveSeparators(num string) string {
	lastDot := strings.LastIndex(num, ".")
	lastComma := strings.LastIndex(num, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The later separator is the decimal one.
		if lastComma > lastDot {
			num = strings.ReplaceAll(num, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case lastComma >= 0:
		// A single comma followed by exactly two digits reads as a
		// decimal mark; anything else is a thousands separator.
		if strings.Count(num, ",") == 1 && len(num)-lastComma-1 == 2 {
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	}
	return num
}

func normalizeCurrency(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if currencyCodes[s] {
		return s
	}
	for _, sym := range currencySymbols {
		if s == sym.symbol {
			return sym.code
		}
	}
	return ""
}
