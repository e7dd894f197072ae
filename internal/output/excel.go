// internal/output/excel.go
package output

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/pipeline"
)

// ExcelSink writes a reviewer-friendly workbook: one sheet per routing
// bucket, suspected duplicates carrying the matched baseline and score.
// The path supports the same {retailer} placeholder as JSONSink.
type ExcelSink struct {
	path string
}

// NewExcelSink creates an Excel workbook sink.
func NewExcelSink(path string) *ExcelSink {
	return &ExcelSink{path: path}
}

// Write implements Sink.
func (s *ExcelSink) Write(_ context.Context, report *pipeline.RunReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeCandidateSheet(f, "New", report.Plan.AutoNew); err != nil {
		return err
	}
	if err := s.writeReviewSheet(f, report); err != nil {
		return err
	}
	if err := s.writeRejectedSheet(f, report); err != nil {
		return err
	}
	if err := s.writeCandidateSheet(f, "Known", report.Plan.Known); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(expandPath(s.path, report.Retailer)); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *ExcelSink) Close() error { return nil }

func (s *ExcelSink) writeCandidateSheet(f *excelize.File, name string, candidates []catalog.ProductCandidate) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("sheet %s: %w", name, err)
	}

	headers := []interface{}{"Title", "URL", "Price", "Code"}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}

	for i, c := range candidates {
		row := []interface{}{c.Title, c.ProductURL, priceCell(c.Price), c.ProductCode}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExcelSink) writeReviewSheet(f *excelize.File, report *pipeline.RunReport) error {
	const name = "Needs Review"
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("sheet %s: %w", name, err)
	}

	headers := []interface{}{"Title", "URL", "Price", "Matched Title", "Matched Code", "Score"}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}

	for i, item := range report.Plan.NeedsDuplicateReview {
		matchedTitle, matchedCode := "", ""
		if item.Baseline != nil {
			matchedTitle = item.Baseline.NormalizedTitle
			matchedCode = item.Baseline.ProductCode
		}
		row := []interface{}{
			item.Candidate.Title, item.Candidate.ProductURL, priceCell(item.Candidate.Price),
			matchedTitle, matchedCode, fmt.Sprintf("%.3f", item.Score),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExcelSink) writeRejectedSheet(f *excelize.File, report *pipeline.RunReport) error {
	const name = "Rejected"
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("sheet %s: %w", name, err)
	}

	headers := []interface{}{"Title", "URL", "Reason"}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}

	for i, item := range report.Plan.RejectedIncomplete {
		row := []interface{}{item.Candidate.Title, item.Candidate.ProductURL, item.Reason}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func priceCell(p *catalog.Price) string {
	if p == nil {
		return ""
	}
	return p.String()
}
