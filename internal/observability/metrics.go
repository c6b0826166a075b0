package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// Metrics tracks operational metrics for the crawl.
type Metrics struct {
	// Tool metrics
	ToolsScraped atomic.Int64
	ToolsSkipped atomic.Int64
	ToolsFailed  atomic.Int64

	// Page metrics
	PagesRendered atomic.Int64
	SitesFetched  atomic.Int64
	Retries       atomic.Int64

	// Enrichment metrics
	LLMCalls   atomic.Int64
	LogosFound atomic.Int64

	// Persistence metrics
	CheckpointSaves atomic.Int64
	RecordsStored   atomic.Int64

	mu         sync.Mutex
	byCategory map[string]int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		byCategory: make(map[string]int64),
		logger:     logger.With("component", "metrics"),
	}
}

// CountCategory increments the per-category tool counter.
func (m *Metrics) CountCategory(category string) {
	m.mu.Lock()
	m.byCategory[category]++
	m.mu.Unlock()
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"tooldex_tools_scraped_total", "Total tools scraped successfully", m.ToolsScraped.Load()},
		{"tooldex_tools_skipped_total", "Total tools skipped as already processed", m.ToolsSkipped.Load()},
		{"tooldex_tools_failed_total", "Total tools that failed all attempts", m.ToolsFailed.Load()},
		{"tooldex_pages_rendered_total", "Total pages rendered in the browser", m.PagesRendered.Load()},
		{"tooldex_sites_fetched_total", "Total external sites fetched over plain HTTP", m.SitesFetched.Load()},
		{"tooldex_retries_total", "Total retried tool attempts", m.Retries.Load()},
		{"tooldex_llm_calls_total", "Total LLM classification calls", m.LLMCalls.Load()},
		{"tooldex_logos_found_total", "Total tools with a resolved logo", m.LogosFound.Load()},
		{"tooldex_checkpoint_saves_total", "Total checkpoint saves", m.CheckpointSaves.Load()},
		{"tooldex_records_stored_total", "Total records written to storage", m.RecordsStored.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}

	m.mu.Lock()
	categories := make([]string, 0, len(m.byCategory))
	for category := range m.byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	fmt.Fprintf(w, "# HELP tooldex_tools_by_category Tools scraped per category\n")
	fmt.Fprintf(w, "# TYPE tooldex_tools_by_category counter\n")
	for _, category := range categories {
		fmt.Fprintf(w, "tooldex_tools_by_category{category=%q} %d\n", category, m.byCategory[category])
	}
	m.mu.Unlock()
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	snap := map[string]int64{
		"tools_scraped":    m.ToolsScraped.Load(),
		"tools_skipped":    m.ToolsSkipped.Load(),
		"tools_failed":     m.ToolsFailed.Load(),
		"pages_rendered":   m.PagesRendered.Load(),
		"sites_fetched":    m.SitesFetched.Load(),
		"retries":          m.Retries.Load(),
		"llm_calls":        m.LLMCalls.Load(),
		"logos_found":      m.LogosFound.Load(),
		"checkpoint_saves": m.CheckpointSaves.Load(),
		"records_stored":   m.RecordsStored.Load(),
	}
	m.mu.Lock()
	for category, n := range m.byCategory {
		snap["category:"+category] = n
	}
	m.mu.Unlock()
	return snap
}
