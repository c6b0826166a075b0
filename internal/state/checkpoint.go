// Package state tracks crawl progress: which source URLs are done, the
// records collected so far, and the durable checkpoint that makes a crashed
// run resumable.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/tooldex/tooldex/internal/catalog"
	"github.com/tooldex/tooldex/internal/config"
	"github.com/tooldex/tooldex/internal/urlutil"
)

// ErrCorrupt means a checkpoint file exists but cannot be parsed. This is
// fatal at startup: silently starting over would re-scrape everything and
// overwrite progress an operator may want to salvage.
var ErrCorrupt = errors.New("checkpoint file is corrupt")

// CrawlState is the run's accumulated progress. URLs are keyed in canonical
// form so spelling variants of the same page never double-process. Mutated
// only by the sequential crawl loop.
type CrawlState struct {
	results   []catalog.ToolRecord
	processed map[string]struct{}
}

// NewCrawlState returns an empty state.
func NewCrawlState() *CrawlState {
	return &CrawlState{processed: make(map[string]struct{})}
}

// Seen reports whether the URL has already been fully processed.
func (s *CrawlState) Seen(url string) bool {
	_, ok := s.processed[urlutil.Canonical(url)]
	return ok
}

// MarkDone records a completed URL and its record. Returns false without
// mutating anything when the URL was already processed, so replaying a
// checkpointed run can never duplicate a record.
func (s *CrawlState) MarkDone(url string, rec catalog.ToolRecord) bool {
	key := urlutil.Canonical(url)
	if _, ok := s.processed[key]; ok {
		return false
	}
	s.processed[key] = struct{}{}
	s.results = append(s.results, rec)
	return true
}

// Results returns the collected records in completion order.
func (s *CrawlState) Results() []catalog.ToolRecord {
	return s.results
}

// Len returns the number of processed URLs.
func (s *CrawlState) Len() int {
	return len(s.processed)
}

// Processed returns the processed URLs sorted, for stable persistence.
func (s *CrawlState) Processed() []string {
	urls := make([]string, 0, len(s.processed))
	for u := range s.processed {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// checkpointFile is the durable shape of a CrawlState.
type checkpointFile struct {
	Tools         []catalog.ToolRecord `json:"tools"`
	ProcessedURLs []string             `json:"processed_urls"`
}

// Manager persists and restores CrawlState. Saves are atomic: the state is
// written to a temp file and renamed over the checkpoint, so a crash
// mid-save leaves the previous checkpoint intact.
type Manager struct {
	path     string
	interval int
	logger   *slog.Logger
}

// NewManager creates a checkpoint manager from the crawl configuration.
func NewManager(cfg config.CrawlConfig, logger *slog.Logger) *Manager {
	interval := cfg.CheckpointEvery
	if interval <= 0 {
		interval = 10
	}
	return &Manager{
		path:     cfg.CheckpointPath,
		interval: interval,
		logger:   logger.With("component", "checkpoint"),
	}
}

// Path returns the checkpoint file location.
func (m *Manager) Path() string {
	return m.path
}

// HasCheckpoint reports whether a checkpoint file exists.
func (m *Manager) HasCheckpoint() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Load restores state from the checkpoint file. An absent file yields a
// fresh empty state; an unparseable file yields ErrCorrupt.
func (m *Manager) Load() (*CrawlState, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewCrawlState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp checkpointFile
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, m.path, err)
	}

	st := NewCrawlState()
	st.results = cp.Tools
	for _, u := range cp.ProcessedURLs {
		st.processed[urlutil.Canonical(u)] = struct{}{}
	}

	m.logger.Info("checkpoint loaded",
		"path", m.path,
		"tools", len(cp.Tools),
		"processed", len(cp.ProcessedURLs))
	return st, nil
}

// Save writes the state to the checkpoint file. A failed write is retried
// once before the error surfaces; losing the checkpoint defeats resume.
func (m *Manager) Save(st *CrawlState) error {
	if err := m.write(st); err != nil {
		m.logger.Warn("checkpoint save failed, retrying", "path", m.path, "error", err)
		if err := m.write(st); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}
	m.logger.Debug("checkpoint saved", "path", m.path, "tools", st.Len())
	return nil
}

func (m *Manager) write(st *CrawlState) error {
	tools := st.results
	if tools == nil {
		tools = []catalog.ToolRecord{}
	}
	data, err := json.MarshalIndent(checkpointFile{
		Tools:         tools,
		ProcessedURLs: st.Processed(),
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

// ShouldSave reports whether the periodic persistence cadence is due after
// the given number of processed URLs.
func (m *Manager) ShouldSave(processed int) bool {
	return processed > 0 && processed%m.interval == 0
}

// Clean deletes the checkpoint after a fully successful run. Missing file
// is not an error.
func (m *Manager) Clean() error {
	err := os.Remove(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	m.logger.Info("checkpoint removed", "path", m.path)
	return nil
}
