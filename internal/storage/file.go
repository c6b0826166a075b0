package storage

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tooldex/tooldex/internal/catalog"
)

// --- JSON Output ---

// JSONWriter persists the result set as a pretty-printed array. Each write
// replaces the file atomically (temp file + rename), so readers inspecting
// partial progress never observe a truncated array.
type JSONWriter struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONWriter creates the primary JSON output sink.
func NewJSONWriter(path string, logger *slog.Logger) (*JSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &Error{Backend: "json", Op: "mkdir", Err: err}
	}
	return &JSONWriter{
		path:   path,
		logger: logger.With("component", "json_writer"),
	}, nil
}

func (w *JSONWriter) Name() string { return "json" }

func (w *JSONWriter) Write(records []catalog.ToolRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if records == nil {
		records = []catalog.ToolRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &Error{Backend: "json", Op: "encode", Err: err}
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &Error{Backend: "json", Op: "write", Err: err}
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return &Error{Backend: "json", Op: "rename", Err: err}
	}

	w.logger.Debug("results written", "path", w.path, "tools", len(records))
	return nil
}

func (w *JSONWriter) Close() error { return nil }

// --- CSV Export ---

// csvColumns is the fixed export column order.
var csvColumns = []string{
	"name",
	"category",
	"short_description",
	"how_to_use",
	"features",
	"use_cases",
	"social_links",
	"important_links",
	"support_email",
	"logo_url",
	"img_url",
}

// CSVWriter exports the result set as CSV. List cells join items with "|";
// map cells render "key: value" pairs joined with "|". The section cleaner
// strips both delimiters from field text, so cells stay unambiguous.
type CSVWriter struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewCSVWriter creates the CSV export sink.
func NewCSVWriter(path string, logger *slog.Logger) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &Error{Backend: "csv", Op: "mkdir", Err: err}
	}
	return &CSVWriter{
		path:   path,
		logger: logger.With("component", "csv_writer"),
	}, nil
}

func (w *CSVWriter) Name() string { return "csv" }

func (w *CSVWriter) Write(records []catalog.ToolRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Create(w.path)
	if err != nil {
		return &Error{Backend: "csv", Op: "create", Err: err}
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvColumns); err != nil {
		return &Error{Backend: "csv", Op: "write header", Err: err}
	}
	for _, rec := range records {
		if err := cw.Write(csvRow(rec)); err != nil {
			return &Error{Backend: "csv", Op: "write row", Err: err}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return &Error{Backend: "csv", Op: "flush", Err: err}
	}

	w.logger.Info("CSV written", "path", w.path, "rows", len(records))
	return nil
}

func (w *CSVWriter) Close() error { return nil }

func csvRow(rec catalog.ToolRecord) []string {
	return []string{
		rec.Name,
		rec.Category,
		rec.ShortDescription,
		rec.HowToUse,
		JoinList(rec.Features),
		JoinList(rec.UseCases),
		JoinMap(rec.SocialLinks),
		JoinMap(rec.ContactLinks),
		rec.SupportEmail,
		rec.LogoURL,
		rec.ImgURL,
	}
}

// JoinList renders a list cell.
func JoinList(items []string) string {
	return strings.Join(items, "|")
}

// SplitList parses a list cell back into items.
func SplitList(cell string) []string {
	if cell == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(cell, "|") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// JoinMap renders a map cell with keys sorted for deterministic output.
func JoinMap(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+": "+m[k])
	}
	return strings.Join(pairs, "|")
}

// SplitMap parses a map cell. Pairs without the "key: value" shape are
// dropped rather than guessed at.
func SplitMap(cell string) map[string]string {
	if cell == "" {
		return nil
	}
	var m map[string]string
	for _, pair := range strings.Split(cell, "|") {
		k, v, ok := strings.Cut(pair, ": ")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[k] = v
	}
	return m
}

// --- Conversion ---

// ReadRecords loads a JSON results file.
func ReadRecords(path string) ([]catalog.ToolRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Backend: "json", Op: "read", Err: err}
	}
	var records []catalog.ToolRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &Error{Backend: "json", Op: "decode", Err: err}
	}
	return records, nil
}

// Convert rewrites a JSON results file as CSV.
func Convert(jsonPath, csvPath string, logger *slog.Logger) error {
	records, err := ReadRecords(jsonPath)
	if err != nil {
		return err
	}
	w, err := NewCSVWriter(csvPath, logger)
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		return err
	}
	return w.Close()
}
