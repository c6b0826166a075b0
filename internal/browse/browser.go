// Package browse drives the headless browser that renders the directory's
// JavaScript-heavy pages. The crawler only sees the Renderer interface;
// everything rod-specific stays here.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/tooldex/tooldex/internal/config"
)

// ErrNoElement means a selector matched nothing. During pagination this is
// the normal end-of-listing signal, not a failure.
var ErrNoElement = errors.New("element not found")

// ImageInfo is one rendered image with its natural (decoded) dimensions.
type ImageInfo struct {
	Src    string
	Alt    string
	Width  int
	Height int
}

// Renderer is the rendering collaborator the crawler depends on.
type Renderer interface {
	// Navigate loads a URL and, when waitSelector is non-empty, blocks
	// until that selector appears.
	Navigate(ctx context.Context, url, waitSelector string) error

	// Click clicks the first visible element matching the selector.
	// Returns ErrNoElement when nothing clickable matches.
	Click(ctx context.Context, selector string) error

	// HTML returns the current DOM serialized to HTML.
	HTML(ctx context.Context) (string, error)

	// Images probes rendered images under the selector (whole document
	// when empty), reporting natural dimensions.
	Images(ctx context.Context, selector string) ([]ImageInfo, error)

	Close() error
}

// clickWait bounds how long Click looks for its target. Kept short: a
// missing load-more button is expected at the end of a listing.
const clickWait = 2 * time.Second

// Browser is the rod-backed Renderer. It drives a single page, matching
// the strictly sequential crawl model.
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     config.BrowserConfig
	logger  *slog.Logger
}

var _ Renderer = (*Browser)(nil)

// New launches a browser and prepares its single page.
func New(cfg config.BrowserConfig, logger *slog.Logger) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.ViewportWidth, cfg.ViewportHeight))

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	b := &Browser{
		browser: browser,
		page:    page,
		cfg:     cfg,
		logger:  logger.With("component", "browser"),
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.logger.Warn("failed to set viewport", "error", err)
	}

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: cfg.UserAgent,
		}); err != nil {
			b.logger.Warn("failed to set user agent", "error", err)
		}
	}

	b.logger.Info("browser ready",
		"headless", cfg.Headless,
		"stealth", cfg.Stealth,
		"viewport", fmt.Sprintf("%dx%d", cfg.ViewportWidth, cfg.ViewportHeight),
	)
	return b, nil
}

// Navigate loads the URL, waits for the page to settle, then for the
// required selector when one is given.
func (b *Browser) Navigate(ctx context.Context, url, waitSelector string) error {
	page := b.page.Context(ctx)

	if err := page.Timeout(b.cfg.NavTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.Timeout(b.cfg.NavTimeout).WaitStable(300 * time.Millisecond); err != nil {
		b.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}

	if waitSelector != "" {
		if _, err := page.Timeout(b.cfg.WaitSelectorTimeout).Element(waitSelector); err != nil {
			return fmt.Errorf("wait for %q on %s: %w", waitSelector, url, err)
		}
	}
	return nil
}

// Click finds and clicks the selector's first match.
func (b *Browser) Click(ctx context.Context, selector string) error {
	page := b.page.Context(ctx)

	el, err := page.Timeout(clickWait).Element(selector)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	visible, err := el.Visible()
	if err != nil || !visible {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// HTML serializes the current DOM.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}
	return html, nil
}

// imageProbeJS collects every rendered image under a scope with its
// natural dimensions, which markup attributes alone cannot provide.
const imageProbeJS = `(sel) => {
	const scope = sel ? document.querySelector(sel) : document;
	if (!scope) return [];
	return Array.from(scope.querySelectorAll('img')).map(img => ({
		src: img.currentSrc || img.src || img.getAttribute('data-src') || '',
		alt: img.alt || '',
		width: img.naturalWidth || 0,
		height: img.naturalHeight || 0,
	}));
}`

// Images runs the dimension probe in the page.
func (b *Browser) Images(ctx context.Context, selector string) ([]ImageInfo, error) {
	page := b.page.Context(ctx)

	res, err := page.Eval(imageProbeJS, selector)
	if err != nil {
		return nil, fmt.Errorf("probe images: %w", err)
	}

	items := res.Value.Arr()
	images := make([]ImageInfo, 0, len(items))
	for _, item := range items {
		images = append(images, ImageInfo{
			Src:    item.Get("src").Str(),
			Alt:    item.Get("alt").Str(),
			Width:  item.Get("width").Int(),
			Height: item.Get("height").Int(),
		})
	}
	return images, nil
}

// Close shuts down the page and the browser.
func (b *Browser) Close() error {
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		return b.browser.Close()
	}
	return nil
}
