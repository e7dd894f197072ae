// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modestry/catalogpipe/internal/catalog"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes, expanding
// environment variables before parsing.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	if r == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// applyDefaults fills unset fields with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Matching.FuzzyThreshold == 0 {
		cfg.Matching.FuzzyThreshold = 0.90
	}
	if cfg.Matching.TitleWeight == 0 && cfg.Matching.PriceWeight == 0 {
		cfg.Matching.TitleWeight = 0.7
		cfg.Matching.PriceWeight = 0.3
	}

	if cfg.Request.Timeout == "" {
		cfg.Request.Timeout = "30s"
	}
	if len(cfg.Request.UserAgents) == 0 {
		cfg.Request.UserAgents = []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		}
	}

	if cfg.Baseline.Driver == "" {
		cfg.Baseline.Driver = "memory"
	}
	if cfg.Baseline.Table == "" {
		cfg.Baseline.Table = "baseline_products"
	}

	if cfg.Monitoring.ListenAddress == "" {
		cfg.Monitoring.ListenAddress = ":9090"
	}

	for name, r := range cfg.Retailers {
		if r.MinYield == 0 {
			r.MinYield = 1
		}
		if r.AdapterTimeout == "" {
			r.AdapterTimeout = "2m"
		}
		if r.Currency == "" {
			r.Currency = "USD"
		}
		if r.Selectors.MaxScrolls == 0 {
			r.Selectors.MaxScrolls = 10
		}
		if len(r.PlaceholderTitles) == 0 {
			r.PlaceholderTitles = []string{"MISSING", "N/A", "TBD", "UNTITLED"}
		}
		cfg.Retailers[name] = r
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if len(c.Retailers) == 0 {
		return fmt.Errorf("at least one retailer must be configured")
	}

	for name, r := range c.Retailers {
		if err := r.validate(); err != nil {
			return fmt.Errorf("retailer %q: %w", name, err)
		}
	}

	if c.Matching.FuzzyThreshold <= 0 || c.Matching.FuzzyThreshold > 1 {
		return fmt.Errorf("matching.fuzzy_threshold must be in (0, 1], got %v", c.Matching.FuzzyThreshold)
	}
	if c.Matching.TitleWeight < 0.7 {
		return fmt.Errorf("matching.title_weight must be at least 0.7, got %v", c.Matching.TitleWeight)
	}
	if c.Matching.PriceWeight > 0.3 {
		return fmt.Errorf("matching.price_weight must be at most 0.3, got %v", c.Matching.PriceWeight)
	}

	if d, err := time.ParseDuration(c.Request.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("request.timeout must be a positive duration, got %q", c.Request.Timeout)
	}

	switch c.Baseline.Driver {
	case "sqlite", "postgres", "mysql", "memory":
	default:
		return fmt.Errorf("baseline.driver must be sqlite, postgres, mysql, or memory, got %q", c.Baseline.Driver)
	}
	if c.Baseline.Driver != "memory" && c.Baseline.DSN == "" {
		return fmt.Errorf("baseline.dsn is required for driver %q", c.Baseline.Driver)
	}

	if rq := c.Outputs.ReviewQueue; rq != nil {
		if rq.URI == "" || rq.Database == "" || rq.Collection == "" {
			return fmt.Errorf("outputs.review_queue requires uri, database, and collection")
		}
	}

	return nil
}

func (r RetailerConfig) validate() error {
	if len(r.Adapters) == 0 {
		return fmt.Errorf("adapters escalation order cannot be empty")
	}

	seen := map[string]bool{}
	for _, a := range r.Adapters {
		kind, err := catalog.ParseAdapterKind(a)
		if err != nil {
			return err
		}
		if seen[a] {
			return fmt.Errorf("adapter %q listed twice in escalation order", a)
		}
		seen[a] = true

		switch kind {
		case catalog.AdapterDOM, catalog.AdapterBrowser:
			if strings.TrimSpace(r.Selectors.Tile) == "" {
				return fmt.Errorf("adapter %q requires selectors.tile", a)
			}
		case catalog.AdapterCommercialAPI:
			if r.CommercialEndpoint == "" {
				return fmt.Errorf("adapter %q requires commercial_endpoint", a)
			}
		}
	}

	for _, p := range r.CodePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid code pattern %q: %w", p, err)
		}
	}

	if r.MinYield < 0 {
		return fmt.Errorf("min_yield cannot be negative")
	}

	if r.AdapterTimeout != "" {
		if d, err := time.ParseDuration(r.AdapterTimeout); err != nil || d <= 0 {
			return fmt.Errorf("adapter_timeout must be a positive duration, got %q", r.AdapterTimeout)
		}
	}
	if r.RateLimit != "" {
		if d, err := time.ParseDuration(r.RateLimit); err != nil || d < 0 {
			return fmt.Errorf("rate_limit must be a non-negative duration, got %q", r.RateLimit)
		}
	}

	return nil
}

// AdapterOrder returns the retailer's escalation order as parsed kinds.
// Validate has already checked every entry.
func (r RetailerConfig) AdapterOrder() []catalog.AdapterKind {
	out := make([]catalog.AdapterKind, 0, len(r.Adapters))
	for _, a := range r.Adapters {
		kind, err := catalog.ParseAdapterKind(a)
		if err != nil {
			continue
		}
		out = append(out, kind)
	}
	return out
}
