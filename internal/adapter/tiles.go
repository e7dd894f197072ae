// internal/adapter/tiles.go
package adapter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/modestry/catalogpipe/internal/config"
)

// extractTiles pulls raw product records out of parsed catalog HTML using
// the retailer's configured selectors. Shared by the DOM and browser
// adapters; only how the HTML was obtained differs between them.
func extractTiles(doc *goquery.Document, sel config.SelectorConfig, baseURL string) []map[string]interface{} {
	base, _ := url.Parse(baseURL)

	var records []map[string]interface{}
	doc.Find(sel.Tile).Each(func(_ int, tile *goquery.Selection) {
		record := map[string]interface{}{}

		if sel.Title != "" {
			if title := strings.TrimSpace(tile.Find(sel.Title).First().Text()); title != "" {
				record["title"] = title
			}
		}

		link := tile
		if sel.Link != "" {
			link = tile.Find(sel.Link).First()
		}
		if href, ok := link.Attr("href"); ok {
			record["url"] = absoluteURL(base, href)
		} else if href, ok := tile.Find("a[href]").First().Attr("href"); ok {
			record["url"] = absoluteURL(base, href)
		}

		if sel.Price != "" {
			if price := strings.TrimSpace(tile.Find(sel.Price).First().Text()); price != "" {
				record["price"] = price
			}
		}

		if sel.Image != "" {
			var images []string
			tile.Find(sel.Image).Each(func(_ int, img *goquery.Selection) {
				src, ok := img.Attr("src")
				if !ok {
					src, ok = img.Attr("data-src")
				}
				if ok && strings.TrimSpace(src) != "" {
					images = append(images, absoluteURL(base, src))
				}
			})
			if len(images) > 0 {
				record["image_urls"] = images
			}
		}

		// A record with neither URL nor title cannot anchor a
		// candidate; skip it here rather than feeding the merge
		// engine noise.
		if record["url"] == nil && record["title"] == nil {
			return
		}
		records = append(records, record)
	})

	return records
}

func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
