package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must not be empty")
	}
	if err := ValidateURL(cfg.Site.BaseURL); err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if cfg.Site.ListingURL == "" {
		return fmt.Errorf("site.listing_url must not be empty")
	}
	if err := ValidateURL(cfg.Site.ListingURL); err != nil {
		return fmt.Errorf("site.listing_url: %w", err)
	}
	if cfg.Site.CardLink == "" {
		return fmt.Errorf("site.card_link must not be empty")
	}

	if cfg.Crawl.CheckpointPath == "" {
		return fmt.Errorf("crawl.checkpoint_path must not be empty")
	}
	if cfg.Crawl.CheckpointEvery < 0 {
		return fmt.Errorf("crawl.checkpoint_every must be >= 0, got %d", cfg.Crawl.CheckpointEvery)
	}
	if cfg.Crawl.ToolDelay < 0 {
		return fmt.Errorf("crawl.tool_delay must be >= 0")
	}
	if cfg.Crawl.LoadMoreDelay < 0 {
		return fmt.Errorf("crawl.load_more_delay must be >= 0")
	}
	if cfg.Crawl.MaxRetries < 0 {
		return fmt.Errorf("crawl.max_retries must be >= 0, got %d", cfg.Crawl.MaxRetries)
	}
	if cfg.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.MaxTools < 0 {
		return fmt.Errorf("crawl.max_tools must be >= 0, got %d", cfg.Crawl.MaxTools)
	}
	if cfg.Crawl.TestMode && cfg.Crawl.TestLimit < 1 {
		return fmt.Errorf("crawl.test_limit must be >= 1 in test mode, got %d", cfg.Crawl.TestLimit)
	}

	if cfg.Browser.ViewportWidth < 1 {
		return fmt.Errorf("browser.viewport_width must be >= 1, got %d", cfg.Browser.ViewportWidth)
	}
	if cfg.Browser.ViewportHeight < 1 {
		return fmt.Errorf("browser.viewport_height must be >= 1, got %d", cfg.Browser.ViewportHeight)
	}
	if cfg.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser.nav_timeout must be > 0")
	}
	if cfg.Browser.WaitSelectorTimeout <= 0 {
		return fmt.Errorf("browser.wait_selector_timeout must be > 0")
	}

	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if cfg.Fetch.MaxBodySize <= 0 {
		return fmt.Errorf("fetch.max_body_size must be > 0")
	}
	if cfg.Fetch.MaxRedirects < 0 {
		return fmt.Errorf("fetch.max_redirects must be >= 0")
	}

	for i, rule := range cfg.Extract.Rules {
		if rule.Name == "" {
			return fmt.Errorf("extract.rules[%d] has no name", i)
		}
		if rule.CSS == "" && rule.XPath == "" {
			return fmt.Errorf("extract rule %q needs a css or xpath selector", rule.Name)
		}
	}

	if cfg.Classify.MinScore < 0 {
		return fmt.Errorf("classify.min_score must be >= 0, got %v", cfg.Classify.MinScore)
	}

	if cfg.Storage.OutputPath == "" {
		return fmt.Errorf("storage.output_path must not be empty")
	}
	if cfg.Storage.Mongo.Enabled {
		if cfg.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri must not be empty when mongo is enabled")
		}
		if cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "" {
			return fmt.Errorf("storage.mongo.database and storage.mongo.collection must not be empty")
		}
	}

	if cfg.AI.Enabled {
		validProviders := map[string]bool{
			"ollama": true, "openai": true, "custom": true,
		}
		if !validProviders[cfg.AI.Provider] {
			return fmt.Errorf("ai.provider must be ollama/openai/custom, got %q", cfg.AI.Provider)
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model must not be empty when ai is enabled")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
