package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for Tooldex.
type Config struct {
	Site     SiteConfig     `mapstructure:"site"     yaml:"site"`
	Crawl    CrawlConfig    `mapstructure:"crawl"    yaml:"crawl"`
	Browser  BrowserConfig  `mapstructure:"browser"  yaml:"browser"`
	Fetch    FetchConfig    `mapstructure:"fetch"    yaml:"fetch"`
	Extract  ExtractConfig  `mapstructure:"extract"  yaml:"extract"`
	Classify ClassifyConfig `mapstructure:"classify" yaml:"classify"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	AI       AIConfig       `mapstructure:"ai"       yaml:"ai"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// SiteConfig describes the directory site being crawled: entry points,
// structural selectors, and the placeholder values the site substitutes for
// missing data (which we strip back out).
type SiteConfig struct {
	BaseURL       string `mapstructure:"base_url"       yaml:"base_url"`
	ListingURL    string `mapstructure:"listing_url"    yaml:"listing_url"`
	CardLink      string `mapstructure:"card_link"      yaml:"card_link"`
	LoadMore      string `mapstructure:"load_more"      yaml:"load_more"`
	DetailWait    string `mapstructure:"detail_wait"    yaml:"detail_wait"`
	ContentRegion string `mapstructure:"content_region" yaml:"content_region"`

	PlaceholderImage string `mapstructure:"placeholder_image" yaml:"placeholder_image"`
	PlaceholderEmail string `mapstructure:"placeholder_email" yaml:"placeholder_email"`
}

// CrawlConfig controls the crawl loop: pacing, retries, checkpointing, and
// run limits.
type CrawlConfig struct {
	CheckpointPath  string        `mapstructure:"checkpoint_path"  yaml:"checkpoint_path"`
	CheckpointEvery int           `mapstructure:"checkpoint_every" yaml:"checkpoint_every"`
	ToolDelay       time.Duration `mapstructure:"tool_delay"       yaml:"tool_delay"`
	LoadMoreDelay   time.Duration `mapstructure:"load_more_delay"  yaml:"load_more_delay"`
	MaxRetries      int           `mapstructure:"max_retries"      yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"      yaml:"retry_delay"`
	MaxPages        int           `mapstructure:"max_pages"        yaml:"max_pages"`
	MaxTools        int           `mapstructure:"max_tools"        yaml:"max_tools"`
	TestMode        bool          `mapstructure:"test_mode"        yaml:"test_mode"`
	TestLimit       int           `mapstructure:"test_limit"       yaml:"test_limit"`
}

// BrowserConfig controls the rendering browser.
type BrowserConfig struct {
	Headless            bool          `mapstructure:"headless"              yaml:"headless"`
	Stealth             bool          `mapstructure:"stealth"               yaml:"stealth"`
	UserAgent           string        `mapstructure:"user_agent"            yaml:"user_agent"`
	ViewportWidth       int           `mapstructure:"viewport_width"        yaml:"viewport_width"`
	ViewportHeight      int           `mapstructure:"viewport_height"       yaml:"viewport_height"`
	NavTimeout          time.Duration `mapstructure:"nav_timeout"           yaml:"nav_timeout"`
	WaitSelectorTimeout time.Duration `mapstructure:"wait_selector_timeout" yaml:"wait_selector_timeout"`
}

// FetchConfig controls the plain HTTP client used for external-site fetches.
type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout"`
	MaxBodySize  int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
	MaxRedirects int           `mapstructure:"max_redirects" yaml:"max_redirects"`
	UserAgent    string        `mapstructure:"user_agent"    yaml:"user_agent"`
}

// ExtractConfig holds the per-field extraction rules.
type ExtractConfig struct {
	Rules []FieldRule `mapstructure:"rules" yaml:"rules"`
}

// Rule returns the rule with the given name.
func (c ExtractConfig) Rule(name string) (FieldRule, bool) {
	for _, r := range c.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return FieldRule{}, false
}

// ClassifyConfig controls the keyword classifier.
type ClassifyConfig struct {
	MinScore float64 `mapstructure:"min_score" yaml:"min_score"`
}

// StorageConfig controls output sinks.
type StorageConfig struct {
	OutputPath string      `mapstructure:"output_path" yaml:"output_path"`
	CSVPath    string      `mapstructure:"csv_path"    yaml:"csv_path"`
	Mongo      MongoConfig `mapstructure:"mongo"       yaml:"mongo"`
}

// MongoConfig controls the optional MongoDB sink.
type MongoConfig struct {
	Enabled    bool          `mapstructure:"enabled"    yaml:"enabled"`
	URI        string        `mapstructure:"uri"        yaml:"uri"`
	Database   string        `mapstructure:"database"   yaml:"database"`
	Collection string        `mapstructure:"collection" yaml:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"    yaml:"timeout"`
}

// AIConfig controls the LLM classification fallback.
type AIConfig struct {
	Enabled     bool    `mapstructure:"enabled"     yaml:"enabled"`
	Provider    string  `mapstructure:"provider"    yaml:"provider"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	Endpoint    string  `mapstructure:"endpoint"    yaml:"endpoint"`
	APIKey      string  `mapstructure:"api_key"     yaml:"api_key"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:          "https://www.toolify.ai",
			ListingURL:       "https://www.toolify.ai/ai-tools",
			CardLink:         `a.go-tool-detail-name, a[href^="/tool/"]`,
			LoadMore:         "button.el-button.el-button--default",
			DetailWait:       ".tool-detail-information",
			ContentRegion:    ".tool-detail-information",
			PlaceholderImage: "/2.9.4/img/logo.f3a91ce.png",
			PlaceholderEmail: "business@toolify.ai",
		},
		Crawl: CrawlConfig{
			CheckpointPath:  "scrape_checkpoint.json",
			CheckpointEvery: 10,
			ToolDelay:       1 * time.Second,
			LoadMoreDelay:   2 * time.Second,
			MaxRetries:      3,
			RetryDelay:      2 * time.Second,
			MaxPages:        0, // unlimited
			MaxTools:        0, // unlimited
			TestMode:        false,
			TestLimit:       10,
		},
		Browser: BrowserConfig{
			Headless:            true,
			Stealth:             true,
			UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ViewportWidth:       1280,
			ViewportHeight:      800,
			NavTimeout:          30 * time.Second,
			WaitSelectorTimeout: 10 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:      20 * time.Second,
			MaxBodySize:  10 * 1024 * 1024, // 10MB
			MaxRedirects: 5,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Extract: ExtractConfig{
			Rules: DefaultFieldRules(),
		},
		Classify: ClassifyConfig{
			MinScore: 4,
		},
		Storage: StorageConfig{
			OutputPath: "ai_tools.json",
			CSVPath:    "",
			Mongo: MongoConfig{
				Enabled:    false,
				URI:        "mongodb://localhost:27017",
				Database:   "tooldex",
				Collection: "tools",
				Timeout:    10 * time.Second,
			},
		},
		AI: AIConfig{
			Enabled:     false,
			Provider:    "ollama",
			Model:       "llama3",
			Endpoint:    "http://localhost:11434",
			MaxTokens:   32,
			Temperature: 0.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
