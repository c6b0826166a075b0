package catalog

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/tooldex/tooldex/internal/config"
	"github.com/tooldex/tooldex/internal/extract"
	"github.com/tooldex/tooldex/internal/taxonomy"
	"github.com/tooldex/tooldex/internal/textutil"
	"github.com/tooldex/tooldex/internal/urlutil"
)

// ErrMissingName marks a page that yielded no tool name. Such a page
// produces no record; the caller skips the URL.
var ErrMissingName = errors.New("tool record has no name")

var reFloat = regexp.MustCompile(`\d+(?:\.\d+)?`)

// RawTool carries everything the pipeline gathered for one tool before
// cleanup: scalar extractor output (which may hold the "N/A" sentinel),
// parsed free-text sections, harvested links, and the classifier verdict.
type RawTool struct {
	SourceURL      string
	Name           string
	Description    string
	Category       string
	Sections       extract.Sections
	SocialLinks    map[string]string
	ContactLinks   map[string]string
	SupportEmail   string
	Website        string
	ImgURL         string
	LogoURL        string
	MonthlyTraffic string
	Rating         string
}

// Assembler merges raw extraction results into a clean ToolRecord:
// sentinel values become empty, URLs are resolved to absolute form,
// placeholder assets are discarded, and out-of-range values are reset.
type Assembler struct {
	baseURL          string
	placeholderImage string
	placeholderEmail string
	logger           *slog.Logger
}

// NewAssembler creates an assembler bound to the site being scraped.
func NewAssembler(site config.SiteConfig, logger *slog.Logger) *Assembler {
	return &Assembler{
		baseURL:          site.BaseURL,
		placeholderImage: site.PlaceholderImage,
		placeholderEmail: site.PlaceholderEmail,
		logger:           logger.With("component", "assembler"),
	}
}

// Assemble builds the final record. A missing name is the only fatal
// condition; every other defect degrades to an empty or zero field.
func (a *Assembler) Assemble(raw RawTool) (ToolRecord, error) {
	name := textutil.CleanSection(scalar(raw.Name))
	if name == "" {
		return ToolRecord{}, ErrMissingName
	}

	desc := raw.Sections.ShortDescription
	if desc == "" {
		desc = textutil.CleanSection(scalar(raw.Description))
	}
	if desc == "" {
		a.logger.Debug("record has no description", "name", name, "url", raw.SourceURL)
	}

	category := string(taxonomy.Other)
	if c, ok := taxonomy.Lookup(strings.TrimSpace(raw.Category)); ok {
		category = string(c)
	}

	return ToolRecord{
		Name:             name,
		Category:         category,
		ShortDescription: desc,
		HowToUse:         raw.Sections.HowToUse,
		Features:         raw.Sections.Features,
		UseCases:         raw.Sections.UseCases,
		SocialLinks:      a.cleanLinks(raw.SocialLinks),
		ContactLinks:     a.cleanLinks(raw.ContactLinks),
		LogoURL:          a.normalizeAsset(raw.LogoURL),
		ImgURL:           a.normalizeAsset(raw.ImgURL),
		SupportEmail:     a.cleanEmail(raw.SupportEmail, name),
		Website:          urlutil.Absolutize(a.baseURL, scalar(raw.Website)),
		MonthlyTraffic:   textutil.CleanSection(scalar(raw.MonthlyTraffic)),
		Rating:           a.parseRating(raw.Rating, name),
		SourceURL:        urlutil.Canonical(raw.SourceURL),
	}, nil
}

// cleanLinks keeps only absolute http(s) URLs, returning nil when nothing
// survives so empty maps never reach the output.
func (a *Assembler) cleanLinks(links map[string]string) map[string]string {
	var out map[string]string
	for kind, link := range links {
		link = strings.TrimSpace(link)
		if !urlutil.IsHTTP(link) {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(links))
		}
		out[kind] = link
	}
	return out
}

// normalizeAsset resolves an image reference against the site base and
// drops the site's stock placeholder asset.
func (a *Assembler) normalizeAsset(ref string) string {
	u := urlutil.Absolutize(a.baseURL, scalar(ref))
	if u == "" {
		return ""
	}
	if a.placeholderImage != "" &&
		(u == a.placeholderImage || strings.HasSuffix(u, a.placeholderImage)) {
		return ""
	}
	return u
}

func (a *Assembler) cleanEmail(raw, name string) string {
	email := strings.TrimPrefix(scalar(raw), "mailto:")
	if i := strings.IndexByte(email, '?'); i >= 0 {
		email = email[:i]
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	if a.placeholderEmail != "" && strings.EqualFold(email, a.placeholderEmail) {
		return ""
	}
	if !strings.Contains(email, "@") {
		a.logger.Debug("discarding malformed support email", "name", name, "value", email)
		return ""
	}
	return email
}

// parseRating pulls the first decimal number out of the raw rating text.
// Values outside 0–5 are treated as extraction artifacts and reset.
func (a *Assembler) parseRating(raw, name string) float64 {
	m := reFloat.FindString(scalar(raw))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	if f < 0 || f > 5 {
		a.logger.Debug("rating out of range, reset", "name", name, "value", f)
		return 0
	}
	return f
}

// scalar trims an extractor value and maps the not-available sentinel to
// the empty string.
func scalar(v string) string {
	v = strings.TrimSpace(v)
	if v == extract.NotAvailable {
		return ""
	}
	return v
}
