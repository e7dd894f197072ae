// cmd/catalogpipe/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modestry/catalogpipe/internal/adapter"
	"github.com/modestry/catalogpipe/internal/baseline"
	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/logging"
	"github.com/modestry/catalogpipe/internal/merge"
	"github.com/modestry/catalogpipe/internal/monitoring"
	"github.com/modestry/catalogpipe/internal/output"
	"github.com/modestry/catalogpipe/internal/pipeline"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "usage: catalogpipe run <config.yaml> <retailer> <catalog-url>")
			os.Exit(1)
		}
		os.Exit(runPage(os.Args[2], os.Args[3], os.Args[4]))
	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: catalogpipe validate <config.yaml>")
			os.Exit(1)
		}
		if _, err := config.LoadFromFile(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Configuration file '%s' is valid\n", os.Args[2])
	case "version", "--version":
		fmt.Printf("catalogpipe %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// runPage runs the pipeline for one catalog page and reports through the
// configured sinks. Exit codes: 0 success, 1 setup error, 2 extraction
// unavailable.
func runPage(configFile, retailer, pageURL string) int {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	retailerCfg, ok := cfg.Retailers[retailer]
	if !ok {
		fmt.Fprintf(os.Stderr, "retailer %q not in configuration\n", retailer)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.Default()
	if cfg.Monitoring.Enabled {
		server := monitoring.NewServer(cfg.Monitoring.ListenAddress, metrics)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("monitoring server failed: %v", err)
			}
		}()
		defer server.Shutdown(context.Background())
	}

	store, err := baseline.Open(cfg.Baseline)
	if err != nil {
		fmt.Fprintf(os.Stderr, "baseline store error: %v\n", err)
		return 1
	}
	defer store.Close()

	sinks, err := output.NewManager(ctx, cfg.Outputs, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "output setup error: %v\n", err)
		return 1
	}
	defer sinks.Close()

	pipe, err := pipeline.New(pipeline.Options{
		Retailer:    retailer,
		RetailerCfg: retailerCfg,
		Matching:    cfg.Matching,
		Sources:     buildSources(retailerCfg, cfg.Request, logger),
		Store:       store,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline setup error: %v\n", err)
		return 1
	}

	report, err := pipe.Run(ctx, pageURL)
	if err != nil {
		if errors.Is(err, merge.ErrExtractionUnavailable) {
			fmt.Fprintf(os.Stderr, "extraction unavailable for %s: every adapter failed\n", pageURL)
			return 2
		}
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		return 1
	}

	if err := sinks.Write(ctx, report); err != nil {
		logger.Errorf("report delivery incomplete: %v", err)
	}

	counts := report.Plan.Counts()
	fmt.Printf("%s: %d new, %d need review, %d known, %d incomplete, %d discarded\n",
		pageURL, counts.AutoNew, counts.NeedsDuplicateReview, counts.Known,
		counts.RejectedIncomplete, len(report.Discards))
	return 0
}

// buildSources registers every adapter the retailer's escalation order
// can reach. The markdown adapter needs an LLM endpoint; it is wired
// through the COMPLETION_API_URL/COMPLETION_API_KEY environment here at
// the composition root.
func buildSources(retailerCfg config.RetailerConfig, request config.RequestConfig, logger logging.Logger) []adapter.Source {
	sources := []adapter.Source{
		adapter.NewDOMAdapter(retailerCfg, request, logger),
		adapter.NewBrowserAdapter(retailerCfg, request, logger),
	}

	if endpoint := os.Getenv("COMPLETION_API_URL"); endpoint != "" {
		completer := adapter.NewHTTPCompleter(endpoint, os.Getenv("COMPLETION_API_KEY"), request.TimeoutDuration())
		sources = append(sources, adapter.NewMarkdownAdapter(completer, request, logger))
	}

	if retailerCfg.CommercialEndpoint != "" {
		sources = append(sources, adapter.NewCommercialAdapter(retailerCfg, request, os.Getenv("COMMERCIAL_API_KEY"), logger))
	}

	return sources
}

func printUsage() {
	fmt.Println(`catalogpipe - retailer catalog extraction and dedup pipeline

Usage:
  catalogpipe run <config.yaml> <retailer> <catalog-url>   Process one catalog page
  catalogpipe validate <config.yaml>                       Validate a configuration file
  catalogpipe version                                      Print version information

Environment:
  COMPLETION_API_URL    LLM completion endpoint for the markdown adapter
  COMPLETION_API_KEY    Bearer token for the completion endpoint
  COMMERCIAL_API_KEY    Bearer token for the commercial extraction API`)
}
