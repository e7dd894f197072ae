// internal/output/output.go

// Package output delivers run reports to the downstream collaborators:
// JSON files for the storage layer, Excel workbooks for the review team,
// and a MongoDB queue feeding the human duplicate-review tool.
package output

import (
	"context"
	"fmt"

	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/logging"
	"github.com/modestry/catalogpipe/internal/pipeline"
)

// Sink receives one run report.
type Sink interface {
	Write(ctx context.Context, report *pipeline.RunReport) error
	Close() error
}

// Manager fans a run report out to every configured sink. A sink failure
// is logged and does not stop delivery to the others.
type Manager struct {
	sinks  []Sink
	logger logging.Logger
}

// NewManager builds the sinks named by configuration.
func NewManager(ctx context.Context, cfg config.OutputConfig, logger logging.Logger) (*Manager, error) {
	m := &Manager{logger: logger}

	if cfg.JSONFile != "" {
		m.sinks = append(m.sinks, NewJSONSink(cfg.JSONFile))
	}
	if cfg.ExcelFile != "" {
		m.sinks = append(m.sinks, NewExcelSink(cfg.ExcelFile))
	}
	if cfg.ReviewQueue != nil {
		queue, err := NewReviewQueue(ctx, *cfg.ReviewQueue)
		if err != nil {
			return nil, fmt.Errorf("review queue: %w", err)
		}
		m.sinks = append(m.sinks, queue)
	}

	return m, nil
}

// Write delivers the report to all sinks.
func (m *Manager) Write(ctx context.Context, report *pipeline.RunReport) error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Write(ctx, report); err != nil {
			m.logger.Errorf("output sink failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close closes all sinks.
func (m *Manager) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
