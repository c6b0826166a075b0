package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tooldex/tooldex/internal/browse"
	"github.com/tooldex/tooldex/internal/urlutil"
)

// testModePages caps load-more expansion during smoke runs.
const testModePages = 2

// harvestLinks parses a rendered listing page and returns the absolute tool
// detail URLs its cards link to, in document order.
func harvestLinks(pageHTML, baseURL, cardSelector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var urls []string
	doc.Find(cardSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		abs := urlutil.Absolutize(baseURL, strings.TrimSpace(href))
		if abs == "" {
			return
		}
		urls = append(urls, abs)
	})
	return urls, nil
}

// discover renders the listing and keeps clicking the load-more control
// until it disappears, the page cap is reached, or the context ends. The
// listing repeats already-loaded cards after each expansion, so URLs are
// deduplicated on canonical form, first seen wins.
func (c *Crawler) discover(ctx context.Context) ([]string, error) {
	site := c.cfg.Site
	if err := c.renderer.Navigate(ctx, site.ListingURL, site.CardLink); err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}
	if c.metrics != nil {
		c.metrics.PagesRendered.Add(1)
	}

	maxPages := c.cfg.Crawl.MaxPages
	if c.cfg.Crawl.TestMode && (maxPages <= 0 || maxPages > testModePages) {
		maxPages = testModePages
	}

	seen := make(map[string]struct{})
	var urls []string
	collect := func() error {
		pageHTML, err := c.renderer.HTML(ctx)
		if err != nil {
			return fmt.Errorf("listing html: %w", err)
		}
		links, err := harvestLinks(pageHTML, site.BaseURL, site.CardLink)
		if err != nil {
			return err
		}
		for _, u := range links {
			key := urlutil.Canonical(u)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			urls = append(urls, key)
		}
		return nil
	}

	for page := 1; ; page++ {
		if err := collect(); err != nil {
			return nil, err
		}
		c.logger.Info("listing page collected", "page", page, "tools", len(urls))

		if maxPages > 0 && page >= maxPages {
			break
		}
		if err := c.renderer.Click(ctx, site.LoadMore); err != nil {
			if errors.Is(err, browse.ErrNoElement) {
				c.logger.Debug("load more control gone, listing complete")
				break
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("load more click failed, stopping expansion", "error", err)
			break
		}
		if err := sleepCtx(ctx, c.cfg.Crawl.LoadMoreDelay); err != nil {
			return nil, err
		}
	}
	return urls, nil
}
