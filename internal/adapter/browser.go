// internal/adapter/browser.go
package adapter

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/logging"
)

// BrowserAdapter renders the catalog page in headless Chrome before
// extracting tiles, for retailers whose catalogs build client-side. It
// scrolls to trigger lazy loading; when the scroll budget runs out before
// the page stops growing, the outcome is PARTIAL so the merge engine
// trust-weights its fields accordingly.
type BrowserAdapter struct {
	selectors config.SelectorConfig
	userAgent string
	logger    logging.Logger
}

// NewBrowserAdapter builds a browser adapter for one retailer.
func NewBrowserAdapter(retailer config.RetailerConfig, request config.RequestConfig, logger logging.Logger) *BrowserAdapter {
	ua := ""
	if len(request.UserAgents) > 0 {
		ua = request.UserAgents[0]
	}
	return &BrowserAdapter{
		selectors: retailer.Selectors,
		userAgent: ua,
		logger:    logger,
	}
}

// Kind implements Source.
func (a *BrowserAdapter) Kind() catalog.AdapterKind { return catalog.AdapterBrowser }

// Extract renders the page, scrolls, and parses the settled DOM. Each
// call owns its own browser context; the caller's ctx bounds the whole
// render, so a stuck page reports FAILED instead of blocking the run.
func (a *BrowserAdapter) Extract(ctx context.Context, page PageRef) ([]map[string]interface{}, catalog.AdapterOutcome) {
	start := time.Now()
	kind := a.Kind()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	}
	if a.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(a.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tasks := []chromedp.Action{
		chromedp.Navigate(page.URL),
		chromedp.WaitReady("body"),
	}
	if a.selectors.WaitFor != "" {
		tasks = append(tasks, chromedp.WaitVisible(a.selectors.WaitFor))
	}
	if err := chromedp.Run(tabCtx, tasks...); err != nil {
		a.logger.WithField("page", page.URL).Warnf("browser render failed: %v", err)
		if ctx.Err() != nil {
			return nil, failed(kind, ReasonTimeout, start)
		}
		return nil, failed(kind, ReasonRenderFailed, start)
	}

	reachedBottom := a.scrollToBottom(tabCtx)

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, failed(kind, ReasonRenderFailed, start)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, failed(kind, ReasonRenderFailed, start)
	}

	records := extractTiles(doc, a.selectors, page.URL)
	if len(records) == 0 {
		return nil, failed(kind, ReasonNoProducts, start)
	}

	if !reachedBottom {
		// Lazy content below the last scroll pass was never seen;
		// likely incomplete coverage.
		return records, succeeded(kind, catalog.StatusPartial, ReasonViewportBound, len(records), start)
	}
	return records, succeeded(kind, catalog.StatusOK, "", len(records), start)
}

// scrollToBottom scrolls until the document height stops growing or the
// configured scroll budget runs out. Returns true when the page settled.
func (a *BrowserAdapter) scrollToBottom(ctx context.Context) bool {
	maxScrolls := a.selectors.MaxScrolls
	if maxScrolls <= 0 {
		maxScrolls = 10
	}

	prevHeight := int64(-1)
	for i := 0; i < maxScrolls; i++ {
		var height int64
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`document.body.scrollHeight`, &height),
		)
		if err != nil {
			return false
		}
		if height == prevHeight {
			return true
		}
		prevHeight = height

		err = chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(500*time.Millisecond),
		)
		if err != nil {
			return false
		}
	}
	return false
}
