// internal/output/json.go
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modestry/catalogpipe/internal/pipeline"
)

// JSONSink writes the full run report to a file, one report per run.
// The path may contain {retailer}, replaced by the retailer name, so
// parallel retailer runs do not clobber each other.
type JSONSink struct {
	path string
}

// NewJSONSink creates a JSON file sink.
func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

// Write implements Sink.
func (s *JSONSink) Write(_ context.Context, report *pipeline.RunReport) error {
	path := expandPath(s.path, report.Retailer)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *JSONSink) Close() error { return nil }

// expandPath substitutes the {retailer} placeholder. A plain string
// replacement keeps paths with literal % characters intact.
func expandPath(path, retailer string) string {
	return strings.ReplaceAll(path, "{retailer}", retailer)
}
