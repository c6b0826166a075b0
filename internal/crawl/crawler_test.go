package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tooldex/tooldex/internal/browse"
	"github.com/tooldex/tooldex/internal/config"
	"github.com/tooldex/tooldex/internal/observability"
	"github.com/tooldex/tooldex/internal/state"
	"github.com/tooldex/tooldex/internal/storage"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

const listingPage = `<html><body>
<a href="/tool/adflow" class="card">AdFlow</a>
<a href="/tool/clipcut" class="card">ClipCut</a>
<a href="/tool/adflow" class="card">AdFlow again</a>
<a href="/tool/pixelforge" class="card">PixelForge</a>
<a class="card">No href</a>
</body></html>`

func detailPage(name, desc, slug string) string {
	return `<html><body><div class="tool-detail">
<h1>` + name + `</h1>
<p class="description">` + desc + `</p>
<span title="Monthly Visits">Monthly Visits</span><span>1.2M</span>
<span class="rating-value">4.5</span>
<img src="https://cdn.tooldir.example/shots/` + slug + `.png" alt="` + name + ` screenshot" width="600" height="400">
<a href="https://` + slug + `.example/?utm_source=tooldir">Visit Website</a>
<a href="mailto:support@` + slug + `.example">Contact</a>
<a href="/tool/` + slug + `/pricing">Pricing</a>
<a href="https://twitter.com/` + slug + `">Twitter</a>
</div></body></html>`
}

const (
	adflowURL     = "https://tooldir.example/tool/adflow"
	clipcutURL    = "https://tooldir.example/tool/clipcut"
	pixelforgeURL = "https://tooldir.example/tool/pixelforge"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = "https://tooldir.example"
	cfg.Site.ListingURL = "https://tooldir.example/tools"
	cfg.Site.CardLink = `a[href^="/tool/"]`
	cfg.Site.LoadMore = "button.load-more"
	cfg.Site.DetailWait = ".tool-detail"
	cfg.Site.ContentRegion = ".tool-detail"
	cfg.Site.PlaceholderImage = "/img/placeholder.png"
	cfg.Site.PlaceholderEmail = "business@tooldir.example"
	cfg.Crawl.CheckpointPath = filepath.Join(dir, "checkpoint.json")
	cfg.Crawl.CheckpointEvery = 2
	cfg.Crawl.ToolDelay = time.Millisecond
	cfg.Crawl.LoadMoreDelay = time.Millisecond
	cfg.Crawl.MaxRetries = 2
	cfg.Crawl.RetryDelay = time.Millisecond
	cfg.Storage.OutputPath = filepath.Join(dir, "tools.json")
	cfg.Storage.CSVPath = filepath.Join(dir, "tools.csv")
	return cfg
}

// fakeRenderer serves canned listing and detail pages. The listings slice
// holds one snapshot per load-more expansion; clicking past the last
// snapshot reports the control gone.
type fakeRenderer struct {
	listingURL string
	listings   []string
	pages      map[string]string
	images     map[string][]browse.ImageInfo
	failUntil  map[string]int
	onNavigate func(url string)

	navs    map[string]int
	clickN  int
	current string
	closed  bool
}

func newFakeRenderer(cfg *config.Config) *fakeRenderer {
	f := &fakeRenderer{
		listingURL: cfg.Site.ListingURL,
		listings:   []string{listingPage},
		pages:      make(map[string]string),
		images:     make(map[string][]browse.ImageInfo),
		failUntil:  make(map[string]int),
		navs:       make(map[string]int),
	}
	f.pages[adflowURL] = detailPage("AdFlow", "Email marketing automation for ad campaign management.", "adflow")
	f.pages[clipcutURL] = detailPage("ClipCut", "AI video editing and content creation for short clips.", "clipcut")
	f.pages[pixelforgeURL] = detailPage("PixelForge", "AI image generation and graphic design assistant.", "pixelforge")
	f.images[adflowURL] = []browse.ImageInfo{
		{Src: "https://cdn.tooldir.example/logos/adflow-logo.png", Alt: "AdFlow logo", Width: 120, Height: 120},
		{Src: "https://cdn.tooldir.example/shots/adflow.png", Alt: "AdFlow screenshot", Width: 600, Height: 400},
	}
	return f
}

func (f *fakeRenderer) Navigate(ctx context.Context, url, waitSelector string) error {
	if f.onNavigate != nil {
		f.onNavigate(url)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.navs[url]++
	if until, ok := f.failUntil[url]; ok && f.navs[url] <= until {
		return fmt.Errorf("wait for %s: render timeout", waitSelector)
	}
	f.current = url
	return nil
}

func (f *fakeRenderer) Click(ctx context.Context, selector string) error {
	if f.clickN+1 >= len(f.listings) {
		return fmt.Errorf("%w: %s", browse.ErrNoElement, selector)
	}
	f.clickN++
	return nil
}

func (f *fakeRenderer) HTML(ctx context.Context) (string, error) {
	if f.current == f.listingURL {
		return f.listings[f.clickN], nil
	}
	page, ok := f.pages[f.current]
	if !ok {
		return "", fmt.Errorf("no fixture for %s", f.current)
	}
	return page, nil
}

func (f *fakeRenderer) Images(ctx context.Context, selector string) ([]browse.ImageInfo, error) {
	return f.images[f.current], nil
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

func newTestCrawler(cfg *config.Config, f *fakeRenderer) (*Crawler, error) {
	c := New(cfg, testLogger)
	c.SetRenderer(f)
	jw, err := storage.NewJSONWriter(cfg.Storage.OutputPath, testLogger)
	if err != nil {
		return nil, err
	}
	c.SetPrimarySink(jw)
	return c, nil
}

// --- Full Run Tests ---

func TestCrawlerFullRun(t *testing.T) {
	cfg := testConfig(t)
	f := newFakeRenderer(cfg)
	c, err := newTestCrawler(cfg, f)
	if err != nil {
		t.Fatal(err)
	}
	cw, err := storage.NewCSVWriter(cfg.Storage.CSVPath, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	c.AddSink(cw)
	metrics := observability.NewMetrics(testLogger)
	c.SetMetrics(metrics)

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.Discovered != 3 {
		t.Errorf("expected 3 discovered after dedup, got %d", stats.Discovered)
	}
	if stats.Scraped != 3 || stats.Failed != 0 || stats.Total != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}

	records, err := storage.ReadRecords(cfg.Storage.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	rec := records[0]
	if rec.Name != "AdFlow" {
		t.Fatalf("expected AdFlow first, got %q", rec.Name)
	}
	if rec.Category != "AI Marketing & Advertising" {
		t.Errorf("unexpected category %q", rec.Category)
	}
	if rec.ShortDescription != "Email marketing automation for ad campaign management." {
		t.Errorf("unexpected description %q", rec.ShortDescription)
	}
	if rec.SupportEmail != "support@adflow.example" {
		t.Errorf("unexpected email %q", rec.SupportEmail)
	}
	if rec.Website != "https://adflow.example/?utm_source=tooldir" {
		t.Errorf("unexpected website %q", rec.Website)
	}
	if rec.LogoURL != "https://cdn.tooldir.example/logos/adflow-logo.png" {
		t.Errorf("unexpected logo %q", rec.LogoURL)
	}
	if rec.ImgURL != "https://cdn.tooldir.example/shots/adflow.png" {
		t.Errorf("unexpected image %q", rec.ImgURL)
	}
	if rec.Rating != 4.5 {
		t.Errorf("expected rating 4.5, got %v", rec.Rating)
	}
	if rec.MonthlyTraffic != "1.2M" {
		t.Errorf("unexpected traffic %q", rec.MonthlyTraffic)
	}
	if rec.SocialLinks["twitter"] != "https://twitter.com/adflow" {
		t.Errorf("unexpected social links %v", rec.SocialLinks)
	}
	if rec.ContactLinks["pricing"] != "https://tooldir.example/tool/adflow/pricing" {
		t.Errorf("unexpected contact links %v", rec.ContactLinks)
	}
	if rec.SourceURL != adflowURL {
		t.Errorf("unexpected source url %q", rec.SourceURL)
	}

	if records[1].Category != "AI Content & Media" {
		t.Errorf("unexpected clipcut category %q", records[1].Category)
	}
	if records[1].LogoURL != "" {
		t.Errorf("expected no logo without candidates, got %q", records[1].LogoURL)
	}
	if records[2].Category != "AI Image & Graphics" {
		t.Errorf("unexpected pixelforge category %q", records[2].Category)
	}

	if _, err := os.Stat(cfg.Crawl.CheckpointPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected checkpoint removed after a completed run")
	}
	if _, err := os.Stat(cfg.Storage.CSVPath); err != nil {
		t.Errorf("expected CSV written: %v", err)
	}

	if got := metrics.ToolsScraped.Load(); got != 3 {
		t.Errorf("expected 3 scraped in metrics, got %d", got)
	}
	if got := metrics.PagesRendered.Load(); got != 4 {
		t.Errorf("expected 4 rendered pages (listing + 3 tools), got %d", got)
	}
	if got := metrics.CheckpointSaves.Load(); got != 1 {
		t.Errorf("expected 1 checkpoint save at interval 2, got %d", got)
	}
	if got := metrics.LogosFound.Load(); got != 1 {
		t.Errorf("expected 1 logo found, got %d", got)
	}
	if got := metrics.Snapshot()["category:AI Marketing & Advertising"]; got != 1 {
		t.Errorf("expected 1 marketing tool in snapshot, got %d", got)
	}
}

func TestCrawlerLoadMoreExpansion(t *testing.T) {
	cfg := testConfig(t)
	f := newFakeRenderer(cfg)
	f.listings = []string{
		`<html><body><a href="/tool/adflow">AdFlow</a><a href="/tool/clipcut">ClipCut</a></body></html>`,
		listingPage,
	}
	c, err := newTestCrawler(cfg, f)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if f.clickN != 1 {
		t.Errorf("expected 1 load-more click, got %d", f.clickN)
	}
	if stats.Discovered != 3 {
		t.Errorf("expected 3 discovered across expansions, got %d", stats.Discovered)
	}
	if stats.Scraped != 3 {
		t.Errorf("expected 3 scraped, got %d", stats.Scraped)
	}
}

func TestCrawlerToolLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Crawl.MaxTools = 2
	f := newFakeRenderer(cfg)
	c, err := newTestCrawler(cfg, f)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.Scraped != 2 {
		t.Errorf("expected limit to stop at 2, got %d", stats.Scraped)
	}
	records, err := storage.ReadRecords(cfg.Storage.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestCrawlerNoTools(t *testing.T) {
	cfg := testConfig(t)
	f := newFakeRenderer(cfg)
	f.listings = []string{`<html><body><p>Maintenance</p></body></html>`}
	c, err := newTestCrawler(cfg, f)
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Run(context.Background())
	if !errors.Is(err, ErrNoTools) {
		t.Fatalf("expected ErrNoTools, got %v", err)
	}
}

// --- Failure Handling Tests ---

func TestCrawlerRetriesTransientFailure(t *testing.T) {
	cfg := testConfig(t)
	f := newFakeRenderer(cfg)
	f.failUntil[clipcutURL] = 1
	c, err := newTestCrawler(cfg, f)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.Scraped != 3 {
		t.Errorf("expected retry to recover the tool, got %d scraped", stats.Scraped)
	}
	if stats.Retried != 1 {
		t.Errorf("expected 1 retry, got %d", stats.Retried)
	}
	if f.navs[clipcutURL] != 2 {
		t.Errorf("expected 2 navigations for the flaky tool, got %d", f.navs[clipcutURL])
	}
}

func TestCrawlerSkipsFailingTool(t *testing.T) {
	cfg := testConfig(t)
	f := newFakeRenderer(cfg)
	f.failUntil[clipcutURL] = 100
	c, err := newTestCrawler(cfg, f)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("expected run to continue past a failing tool, got %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failed)
	}
	if stats.Scraped != 2 {
		t.Errorf("expected the other 2 tools scraped, got %d", stats.Scraped)
	}
	if f.navs[clipcutURL] != cfg.Crawl.MaxRetries {
		t.Errorf("expected %d attempts, got %d", cfg.Crawl.MaxRetries, f.navs[clipcutURL])
	}

	records, err := storage.ReadRecords(cfg.Storage.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if rec.Name == "ClipCut" {
			t.Error("failed tool must not reach the output")
		}
	}
}

func TestCrawlerCorruptCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Crawl.CheckpointPath, []byte("{{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := newFakeRenderer(cfg)
	c, err := newTestCrawler(cfg, f)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := c.Run(context.Background())
	if !errors.Is(err, state.ErrCorrupt) {
		t.Fatalf("expected corrupt checkpoint to abort the run, got %v", err)
	}
	if stats.Scraped != 0 {
		t.Errorf("expected nothing scraped, got %d", stats.Scraped)
	}
	if len(f.navs) != 0 {
		t.Errorf("expected no navigation before the abort, got %v", f.navs)
	}
}

// --- Resume Tests ---

func TestCrawlerResumeAfterCancel(t *testing.T) {
	cfg := testConfig(t)
	f := newFakeRenderer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.onNavigate = func(url string) {
		if strings.Contains(url, "pixelforge") {
			cancel()
		}
	}
	c, err := newTestCrawler(cfg, f)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := c.Run(ctx)
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if stats.Scraped != 2 {
		t.Fatalf("expected 2 tools before the cancel, got %d", stats.Scraped)
	}
	if _, err := os.Stat(cfg.Crawl.CheckpointPath); err != nil {
		t.Fatalf("expected checkpoint saved on stop: %v", err)
	}

	// Second run resumes, skips the finished tools, and completes.
	f2 := newFakeRenderer(cfg)
	c2, err := newTestCrawler(cfg, f2)
	if err != nil {
		t.Fatal(err)
	}
	stats2, err := c2.Run(context.Background())
	if err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}
	if stats2.Skipped != 2 {
		t.Errorf("expected 2 skipped on resume, got %d", stats2.Skipped)
	}
	if stats2.Scraped != 1 {
		t.Errorf("expected 1 new tool on resume, got %d", stats2.Scraped)
	}
	if stats2.Total != 3 {
		t.Errorf("expected 3 total records, got %d", stats2.Total)
	}
	if f2.navs[adflowURL] != 0 || f2.navs[clipcutURL] != 0 {
		t.Error("expected finished tools not to be re-rendered")
	}

	records, err := storage.ReadRecords(cfg.Storage.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records after resume, got %d", len(records))
	}
	if records[0].Name != "AdFlow" || records[2].Name != "PixelForge" {
		t.Errorf("unexpected record order %q, %q, %q", records[0].Name, records[1].Name, records[2].Name)
	}
	if _, err := os.Stat(cfg.Crawl.CheckpointPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected checkpoint removed after resumed run completed")
	}
}

// --- Discovery Tests ---

func TestHarvestLinks(t *testing.T) {
	urls, err := harvestLinks(listingPage, "https://tooldir.example", `a[href^="/tool/"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 4 {
		t.Fatalf("expected 4 raw links, got %d", len(urls))
	}
	if urls[0] != adflowURL {
		t.Errorf("expected absolute URL, got %q", urls[0])
	}
	if urls[3] != pixelforgeURL {
		t.Errorf("expected document order, got %q", urls[3])
	}
}

func TestStatsCategories(t *testing.T) {
	var s Stats
	s.addCategory("AI Content & Media")
	s.addCategory("AI Content & Media")
	s.addCategory("AI Development")
	s.addCategory("Other")
	s.addCategory("Other")

	got := s.Categories()
	if len(got) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(got))
	}
	if got[0] != "AI Content & Media" || got[1] != "Other" || got[2] != "AI Development" {
		t.Errorf("unexpected order %v", got)
	}
}
