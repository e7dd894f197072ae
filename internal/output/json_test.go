// internal/output/json_test.go
package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modestry/catalogpipe/internal/pipeline"
)

func TestJSONSinkExpandsRetailerPlaceholder(t *testing.T) {
	dir := t.TempDir()
	sink := NewJSONSink(filepath.Join(dir, "{retailer}-report.json"))

	report := &pipeline.RunReport{Retailer: "shopretail", PageURL: "https://shop.example.com/dresses"}
	if err := sink.Write(context.Background(), report); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "shopretail-report.json"))
	if err != nil {
		t.Fatalf("expected expanded filename: %v", err)
	}

	var decoded pipeline.RunReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Retailer != "shopretail" {
		t.Fatalf("retailer = %q", decoded.Retailer)
	}
}

// Paths with literal percent characters must pass through untouched.
func TestJSONSinkKeepsPercentLiteralPaths(t *testing.T) {
	dir := t.TempDir()
	name := "sale-20%-off.json"
	sink := NewJSONSink(filepath.Join(dir, name))

	report := &pipeline.RunReport{Retailer: "shopretail"}
	if err := sink.Write(context.Background(), report); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Fatalf("expected literal filename preserved: %v", err)
	}
}
