// internal/config/types.go

// Package config provides the YAML configuration for the catalog
// pipeline: per-retailer extraction settings, matching thresholds, the
// baseline store, and output sinks. Configuration is the single source of
// truth for per-retailer behavior; the pipeline itself carries no
// retailer-keyed branching.
package config

import (
	"time"
)

// Config is the root configuration for a pipeline deployment.
type Config struct {
	// Name identifies this configuration
	Name string `yaml:"name" json:"name"`

	// Version of the configuration format
	Version string `yaml:"version" json:"version"`

	// LogLevel controls logger verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	// Retailers maps retailer identity to its extraction settings
	Retailers map[string]RetailerConfig `yaml:"retailers" json:"retailers"`

	// Matching holds fuzzy-match tuning shared across retailers
	Matching MatchingConfig `yaml:"matching" json:"matching"`

	// Request holds HTTP client settings for network-backed adapters
	Request RequestConfig `yaml:"request" json:"request"`

	// Baseline configures the known-product store
	Baseline BaselineConfig `yaml:"baseline" json:"baseline"`

	// Outputs configures routing-plan sinks
	Outputs OutputConfig `yaml:"outputs,omitempty" json:"outputs,omitempty"`

	// Monitoring configures the metrics/health endpoint
	Monitoring MonitoringConfig `yaml:"monitoring,omitempty" json:"monitoring,omitempty"`
}

// RetailerConfig holds everything retailer-specific: the adapter
// escalation order, selectors, code patterns, and yield expectations.
type RetailerConfig struct {
	// Adapters is the escalation order, primary first
	Adapters []string `yaml:"adapters" json:"adapters"`

	// MinYield is the minimum product count below which a PARTIAL
	// result still triggers escalation
	MinYield int `yaml:"min_yield,omitempty" json:"min_yield,omitempty"`

	// Selectors drive the DOM and browser adapters
	Selectors SelectorConfig `yaml:"selectors,omitempty" json:"selectors,omitempty"`

	// CodePatterns are regexes applied to a product URL to derive a
	// product code; the first capture group of the first match wins
	CodePatterns []string `yaml:"code_patterns,omitempty" json:"code_patterns,omitempty"`

	// PlaceholderTitles are rejected outright by the normalizer
	PlaceholderTitles []string `yaml:"placeholder_titles,omitempty" json:"placeholder_titles,omitempty"`

	// Currency is assumed when a price carries no currency signal
	Currency string `yaml:"currency,omitempty" json:"currency,omitempty"`

	// CommercialEndpoint is the commercial extraction API URL template
	CommercialEndpoint string `yaml:"commercial_endpoint,omitempty" json:"commercial_endpoint,omitempty"`

	// AdapterTimeout bounds a single adapter invocation, as a Go
	// duration string ("2m", "90s")
	AdapterTimeout string `yaml:"adapter_timeout,omitempty" json:"adapter_timeout,omitempty"`

	// RateLimit is the minimum interval between requests to this
	// retailer, as a Go duration string; empty disables limiting
	RateLimit string `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
}

// AdapterTimeoutDuration returns the parsed adapter timeout. Validate has
// already checked the format.
func (r RetailerConfig) AdapterTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(r.AdapterTimeout)
	return d
}

// RateLimitDuration returns the parsed rate-limit interval, or zero when
// limiting is disabled.
func (r RetailerConfig) RateLimitDuration() time.Duration {
	if r.RateLimit == "" {
		return 0
	}
	d, _ := time.ParseDuration(r.RateLimit)
	return d
}

// SelectorConfig holds the CSS selectors for tile-based extraction.
type SelectorConfig struct {
	// Tile selects one product card on the catalog page
	Tile string `yaml:"tile" json:"tile"`

	// Title selects the product title within a tile
	Title string `yaml:"title,omitempty" json:"title,omitempty"`

	// Link selects the anchor element carrying the product URL
	Link string `yaml:"link,omitempty" json:"link,omitempty"`

	// Price selects the price text within a tile
	Price string `yaml:"price,omitempty" json:"price,omitempty"`

	// Image selects product image elements within a tile
	Image string `yaml:"image,omitempty" json:"image,omitempty"`

	// WaitFor is the selector the browser adapter waits on before
	// reading the rendered page
	WaitFor string `yaml:"wait_for,omitempty" json:"wait_for,omitempty"`

	// MaxScrolls bounds the browser adapter's scroll passes
	MaxScrolls int `yaml:"max_scrolls,omitempty" json:"max_scrolls,omitempty"`
}

// MatchingConfig holds fuzzy-matching parameters. The threshold and
// weights are deployment-tunable, not constants; retailer title
// conventions vary too much for a fixed cutoff.
type MatchingConfig struct {
	// FuzzyThreshold is the score at or above which two records are
	// suspected duplicates
	FuzzyThreshold float64 `yaml:"fuzzy_threshold,omitempty" json:"fuzzy_threshold,omitempty"`

	// TitleWeight is the title-similarity share of the score
	TitleWeight float64 `yaml:"title_weight,omitempty" json:"title_weight,omitempty"`

	// PriceWeight is the exact-price-equality share of the score
	PriceWeight float64 `yaml:"price_weight,omitempty" json:"price_weight,omitempty"`
}

// RequestConfig holds HTTP settings for network-backed adapters. Timeout
// is a Go duration string.
type RequestConfig struct {
	Timeout    string            `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	UserAgents []string          `yaml:"user_agents,omitempty" json:"user_agents,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// TimeoutDuration returns the parsed request timeout. Validate has
// already checked the format.
func (rc RequestConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(rc.Timeout)
	return d
}

// BaselineConfig selects and configures the known-product store.
type BaselineConfig struct {
	// Driver is one of sqlite, postgres, mysql, memory
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the driver-specific connection string or file path
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`

	// Table overrides the default baseline table name
	Table string `yaml:"table,omitempty" json:"table,omitempty"`
}

// OutputConfig configures routing-plan sinks.
type OutputConfig struct {
	// JSONFile, when set, receives the full run report
	JSONFile string `yaml:"json_file,omitempty" json:"json_file,omitempty"`

	// ExcelFile, when set, receives a reviewer-friendly workbook
	ExcelFile string `yaml:"excel_file,omitempty" json:"excel_file,omitempty"`

	// ReviewQueue, when set, pushes suspected duplicates to MongoDB
	ReviewQueue *ReviewQueueConfig `yaml:"review_queue,omitempty" json:"review_queue,omitempty"`
}

// ReviewQueueConfig points at the human-review MongoDB collection.
type ReviewQueueConfig struct {
	URI        string `yaml:"uri" json:"uri"`
	Database   string `yaml:"database" json:"database"`
	Collection string `yaml:"collection" json:"collection"`
}

// MonitoringConfig configures the metrics/health HTTP endpoint.
type MonitoringConfig struct {
	Enabled       bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	ListenAddress string `yaml:"listen_address,omitempty" json:"listen_address,omitempty"`
}
