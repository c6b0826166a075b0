// Package crawl drives the end-to-end scrape: discover tool URLs from the
// listing page, render and extract each detail page, classify and assemble
// records, and persist them with periodic checkpoints so an interrupted run
// can resume without repeating work.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tooldex/tooldex/internal/browse"
	"github.com/tooldex/tooldex/internal/catalog"
	"github.com/tooldex/tooldex/internal/config"
	"github.com/tooldex/tooldex/internal/extract"
	"github.com/tooldex/tooldex/internal/logo"
	"github.com/tooldex/tooldex/internal/observability"
	"github.com/tooldex/tooldex/internal/state"
	"github.com/tooldex/tooldex/internal/storage"
	"github.com/tooldex/tooldex/internal/taxonomy"
	"github.com/tooldex/tooldex/internal/urlutil"
)

// Crawler walks the directory site one tool at a time. Tools are processed
// sequentially: the rate limiter spaces page loads and the single browser
// page is not safe for concurrent navigation.
type Crawler struct {
	cfg        *config.Config
	renderer   browse.Renderer
	extractor  *extract.Extractor
	classifier *taxonomy.Classifier
	assembler  *catalog.Assembler
	logos      *logo.Finder
	states     *state.Manager
	primary    storage.Sink
	extra      []storage.Sink
	metrics    *observability.Metrics
	limiter    *rate.Limiter
	stats      Stats

	root   *slog.Logger
	logger *slog.Logger
}

// New creates a crawler from the configuration. A renderer must be attached
// with SetRenderer before Run; everything else is optional.
func New(cfg *config.Config, logger *slog.Logger) *Crawler {
	c := &Crawler{
		cfg:        cfg,
		extractor:  extract.New(logger),
		classifier: taxonomy.NewClassifier(cfg.Classify.MinScore, logger),
		assembler:  catalog.NewAssembler(cfg.Site, logger),
		states:     state.NewManager(cfg.Crawl, logger),
		limiter:    rate.NewLimiter(rate.Every(cfg.Crawl.ToolDelay), 1),
		root:       logger,
		logger:     logger.With("component", "crawler"),
	}
	c.logos = logo.NewFinder(nil, logger)
	return c
}

// SetRenderer attaches the browser that renders listing and detail pages.
func (c *Crawler) SetRenderer(r browse.Renderer) {
	c.renderer = r
}

// SetSiteFetcher enables the external-site phase of the logo search.
func (c *Crawler) SetSiteFetcher(f logo.SiteFetcher) {
	c.logos = logo.NewFinder(countingFetcher{inner: f, crawler: c}, c.root)
}

// SetModel attaches the LLM fallback consulted when keyword classification
// is inconclusive.
func (c *Crawler) SetModel(m taxonomy.Model) {
	c.classifier.SetModel(countingModel{inner: m, crawler: c})
}

// SetPrimarySink sets the output rewritten after every successful tool, so
// a crash loses at most the tool in flight.
func (c *Crawler) SetPrimarySink(s storage.Sink) {
	c.primary = s
}

// AddSink registers an output written once after a completed run.
func (c *Crawler) AddSink(s storage.Sink) {
	c.extra = append(c.extra, s)
}

// SetMetrics attaches the metrics registry.
func (c *Crawler) SetMetrics(m *observability.Metrics) {
	c.metrics = m
}

// Run executes a full crawl. On cancellation it saves a checkpoint and
// returns ErrStopped; on success the checkpoint is removed and every sink
// holds the complete record set. The returned Stats are valid on every path.
func (c *Crawler) Run(ctx context.Context) (Stats, error) {
	if c.renderer == nil {
		return c.stats, errors.New("crawler has no renderer")
	}

	st, err := c.states.Load()
	if err != nil {
		return c.stats, err
	}
	if st.Len() > 0 {
		c.logger.Info("resuming from checkpoint",
			"tools", st.Len(), "processed", len(st.Processed()))
	}

	urls, err := c.discover(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return c.abort(st)
		}
		return c.stats, err
	}
	c.stats.Discovered = len(urls)
	if len(urls) == 0 {
		return c.stats, ErrNoTools
	}
	c.logger.Info("discovery complete", "tools", len(urls))

	limit := c.effectiveLimit()
	scraped := 0
	for _, u := range urls {
		if ctx.Err() != nil {
			return c.abort(st)
		}
		if limit > 0 && scraped >= limit {
			c.logger.Info("tool limit reached", "limit", limit)
			break
		}
		if st.Seen(u) {
			c.stats.Skipped++
			if c.metrics != nil {
				c.metrics.ToolsSkipped.Add(1)
			}
			c.logger.Debug("already processed, skipping", "url", u)
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return c.abort(st)
		}

		var rec catalog.ToolRecord
		err := c.withRetry(ctx, u, func() error {
			var perr error
			rec, perr = c.processTool(ctx, u)
			return perr
		})
		if err != nil {
			if ctx.Err() != nil {
				return c.abort(st)
			}
			c.stats.Failed++
			if c.metrics != nil {
				c.metrics.ToolsFailed.Add(1)
			}
			c.logger.Error("tool failed, moving on", "url", u, "error", err)
			continue
		}

		st.MarkDone(u, rec)
		scraped++
		c.stats.Scraped++
		c.stats.addCategory(rec.Category)
		if c.metrics != nil {
			c.metrics.ToolsScraped.Add(1)
			c.metrics.CountCategory(rec.Category)
			if rec.LogoURL != "" {
				c.metrics.LogosFound.Add(1)
			}
		}
		c.logger.Info("tool scraped",
			"name", rec.Name, "category", rec.Category, "url", u)

		if c.primary != nil {
			if err := c.primary.Write(st.Results()); err != nil {
				c.logger.Error("primary output write failed", "error", err)
			}
		}
		if c.states.ShouldSave(scraped) {
			if err := c.states.Save(st); err != nil {
				c.logger.Error("checkpoint save failed", "error", err)
			} else if c.metrics != nil {
				c.metrics.CheckpointSaves.Add(1)
			}
		}
	}

	if err := c.flush(st); err != nil {
		return c.stats, err
	}
	if err := c.states.Clean(); err != nil {
		c.logger.Warn("checkpoint cleanup failed", "error", err)
	}
	c.stats.Total = st.Len()
	c.logger.Info("crawl complete",
		"total", c.stats.Total, "scraped", c.stats.Scraped,
		"skipped", c.stats.Skipped, "failed", c.stats.Failed,
		"retries", c.stats.Retried)
	return c.stats, nil
}

// abort checkpoints progress on the way out of a canceled run.
func (c *Crawler) abort(st *state.CrawlState) (Stats, error) {
	if err := c.states.Save(st); err != nil {
		c.logger.Error("checkpoint save on stop failed", "error", err)
	} else {
		c.logger.Info("checkpoint saved on stop",
			"tools", st.Len(), "path", c.states.Path())
		if c.metrics != nil {
			c.metrics.CheckpointSaves.Add(1)
		}
	}
	return c.stats, ErrStopped
}

// flush writes the complete record set to every sink. A failure leaves the
// checkpoint in place so the next run can retry the writes without
// re-scraping.
func (c *Crawler) flush(st *state.CrawlState) error {
	records := st.Results()
	if c.primary != nil {
		if err := c.primary.Write(records); err != nil {
			return fmt.Errorf("write %s: %w", c.primary.Name(), err)
		}
	}
	for _, sink := range c.extra {
		if err := sink.Write(records); err != nil {
			return fmt.Errorf("write %s: %w", sink.Name(), err)
		}
	}
	if c.metrics != nil {
		c.metrics.RecordsStored.Add(int64(len(records)))
	}
	return nil
}

func (c *Crawler) effectiveLimit() int {
	limit := c.cfg.Crawl.MaxTools
	if c.cfg.Crawl.TestMode {
		tl := c.cfg.Crawl.TestLimit
		if tl <= 0 {
			tl = 10
		}
		if limit <= 0 || tl < limit {
			limit = tl
		}
	}
	return limit
}

// withRetry runs fn up to MaxRetries times with a doubling delay. Permanent
// failures (a retryable-aware error saying no) and run cancellation stop the
// attempts immediately.
func (c *Crawler) withRetry(ctx context.Context, url string, fn func() error) error {
	attempts := c.cfg.Crawl.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := c.cfg.Crawl.RetryDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		var retryable interface{ IsRetryable() bool }
		if errors.As(err, &retryable) && !retryable.IsRetryable() {
			return err
		}
		if attempt == attempts {
			break
		}
		c.stats.Retried++
		if c.metrics != nil {
			c.metrics.Retries.Add(1)
		}
		c.logger.Warn("tool attempt failed, retrying",
			"url", url, "attempt", attempt, "delay", delay, "error", err)
		if serr := sleepCtx(ctx, delay); serr != nil {
			return err
		}
		delay *= 2
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, attempts, err)
}

// processTool renders one detail page and turns it into a clean record.
func (c *Crawler) processTool(ctx context.Context, pageURL string) (catalog.ToolRecord, error) {
	var zero catalog.ToolRecord

	if err := c.renderer.Navigate(ctx, pageURL, c.cfg.Site.DetailWait); err != nil {
		return zero, fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if c.metrics != nil {
		c.metrics.PagesRendered.Add(1)
	}
	pageHTML, err := c.renderer.HTML(ctx)
	if err != nil {
		return zero, fmt.Errorf("page html: %w", err)
	}
	doc, err := extract.NewDocument(pageURL, pageHTML)
	if err != nil {
		return zero, fmt.Errorf("parse page: %w", err)
	}

	raw := catalog.RawTool{
		SourceURL:      pageURL,
		Name:           c.field(doc, "name"),
		Description:    c.field(doc, "description"),
		MonthlyTraffic: c.field(doc, "monthly_traffic"),
		Rating:         c.field(doc, "rating"),
		ImgURL:         c.field(doc, "image"),
		SupportEmail:   c.field(doc, "support_email"),
		Website:        c.field(doc, "website"),
	}
	name := cleanField(raw.Name)

	// Sections come from rendered text, link harvesting from markup.
	blob := doc.Text(c.cfg.Site.ContentRegion)
	blobHTML := doc.HTML(c.cfg.Site.ContentRegion)
	if blob == "" {
		blob = doc.Text("body")
		blobHTML = doc.HTML("body")
	}
	raw.Sections = extract.ParseSections(blob, name)
	if len(raw.Sections.Features) == 0 {
		if rule, ok := c.cfg.Extract.Rule("features"); ok {
			raw.Sections.Features = c.extractor.ExtractAll(doc, rule)
		}
	}
	raw.SocialLinks = extract.ExtractSocialLinks(blobHTML)
	raw.ContactLinks = extract.ExtractContactLinks(blobHTML)
	if pricing := cleanField(c.field(doc, "pricing_link")); pricing != "" {
		if abs := urlutil.Absolutize(c.cfg.Site.BaseURL, pricing); abs != "" {
			if raw.ContactLinks == nil {
				raw.ContactLinks = make(map[string]string)
			}
			if _, ok := raw.ContactLinks["pricing"]; !ok {
				raw.ContactLinks["pricing"] = abs
			}
		}
	}
	if cleanField(raw.SupportEmail) == "" {
		raw.SupportEmail = extract.ExtractEmail(doc, blobHTML)
	}

	desc := raw.Sections.ShortDescription
	if desc == "" {
		desc = cleanField(raw.Description)
	}
	raw.Category = string(c.classifier.Resolve(ctx, name, desc))

	raw.LogoURL = c.findLogo(ctx, name, raw.Website)

	rec, err := c.assembler.Assemble(raw)
	if err != nil {
		return zero, fmt.Errorf("assemble %s: %w", pageURL, err)
	}
	return rec, nil
}

// findLogo collects the page's images and runs the logo search. The tool's
// own website joins the search only when it lives off the directory site,
// otherwise the fetch would just hit the directory again.
func (c *Crawler) findLogo(ctx context.Context, name, website string) string {
	if name == "" {
		return ""
	}
	images, err := c.renderer.Images(ctx, c.cfg.Site.ContentRegion)
	if err != nil {
		c.logger.Debug("image probe failed", "tool", name, "error", err)
	}
	cands := make([]logo.Candidate, 0, len(images))
	for _, im := range images {
		cands = append(cands, logo.Candidate{
			URL:    im.Src,
			Alt:    im.Alt,
			Width:  im.Width,
			Height: im.Height,
		})
	}

	site := urlutil.Absolutize(c.cfg.Site.BaseURL, cleanField(website))
	if site != "" && urlutil.Host(site) == urlutil.Host(c.cfg.Site.BaseURL) {
		site = ""
	}

	url, ok := c.logos.Find(ctx, name, site, cands)
	if !ok {
		return ""
	}
	return url
}

// field applies the named extraction rule, returning N/A when the rule is
// missing so downstream cleaning treats it like any other absent value.
func (c *Crawler) field(doc *extract.Document, name string) string {
	rule, ok := c.cfg.Extract.Rule(name)
	if !ok {
		return extract.NotAvailable
	}
	return c.extractor.Extract(doc, rule)
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if s == extract.NotAvailable {
		return ""
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// countingFetcher bumps the external-fetch counter on its way through to
// the real fetcher.
type countingFetcher struct {
	inner   logo.SiteFetcher
	crawler *Crawler
}

func (f countingFetcher) HTML(ctx context.Context, url string) (string, error) {
	if f.crawler.metrics != nil {
		f.crawler.metrics.SitesFetched.Add(1)
	}
	return f.inner.HTML(ctx, url)
}

// countingModel bumps the LLM counter around fallback classifications.
type countingModel struct {
	inner   taxonomy.Model
	crawler *Crawler
}

func (m countingModel) ClassifyTool(ctx context.Context, name, description string) (string, error) {
	if m.crawler.metrics != nil {
		m.crawler.metrics.LLMCalls.Add(1)
	}
	return m.inner.ClassifyTool(ctx, name, description)
}
