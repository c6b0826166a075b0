// Package logo picks the best representative image for a tool by scoring
// candidate images from the tool's external website and its directory page.
package logo

import (
	"context"
	"log/slog"
	"sort"
	"strings"
)

// Candidate is one image considered for the logo. Width and Height are 0
// when the source markup did not declare dimensions.
type Candidate struct {
	URL    string
	Alt    string
	Width  int
	Height int
	Score  float64
}

// eligibilityFloor is the score a candidate must exceed to be considered at
// all. Scoring below or at the floor means "no logo found", not a weak pick.
const eligibilityFloor = 5

// ScoreCandidates scores and ranks candidates for the given tool name,
// returning only eligible ones, best first. Ranking is by score descending,
// then by closeness to square (ascending |width-height|).
//
// Scoring, cumulative:
//
//	+5 if the URL or alt text mentions "logo", "brand", or "icon"
//	+8 if the URL or alt text mentions the tool name
//	+3 if the aspect ratio is within [0.8, 1.2]
//	+2 if the shorter declared side is within [32, 200] pixels
//
// Data URIs and images with a declared longest side under 32px are skipped
// outright. Unknown dimensions skip the geometry checks but stay in the
// running on name/keyword strength alone.
func ScoreCandidates(cands []Candidate, toolName string) []Candidate {
	name := strings.ToLower(strings.TrimSpace(toolName))
	nameCompact := strings.ReplaceAll(name, " ", "")

	var scored []Candidate
	for _, c := range cands {
		if c.URL == "" || strings.HasPrefix(c.URL, "data:") {
			continue
		}
		if longest := max(c.Width, c.Height); longest > 0 && longest < 32 {
			continue
		}

		haystack := strings.ToLower(c.URL + " " + c.Alt)

		var score float64
		if strings.Contains(haystack, "logo") ||
			strings.Contains(haystack, "brand") ||
			strings.Contains(haystack, "icon") {
			score += 5
		}
		if name != "" && (strings.Contains(haystack, name) ||
			(nameCompact != name && strings.Contains(haystack, nameCompact))) {
			score += 8
		}
		if c.Width > 0 && c.Height > 0 {
			ratio := float64(c.Width) / float64(c.Height)
			if ratio >= 0.8 && ratio <= 1.2 {
				score += 3
			}
			if shorter := min(c.Width, c.Height); shorter >= 32 && shorter <= 200 {
				score += 2
			}
		}

		if score <= eligibilityFloor {
			continue
		}
		c.Score = score
		scored = append(scored, c)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return squareness(scored[i]) < squareness(scored[j])
	})

	return scored
}

func squareness(c Candidate) int {
	d := c.Width - c.Height
	if d < 0 {
		return -d
	}
	return d
}

// Best returns the single best eligible candidate, or false when none
// qualifies.
func Best(cands []Candidate, toolName string) (Candidate, bool) {
	scored := ScoreCandidates(cands, toolName)
	if len(scored) == 0 {
		return Candidate{}, false
	}
	return scored[0], true
}

// SiteFetcher retrieves a page's HTML for candidate harvesting. Implemented
// by the plain HTTP client; the browser is never used for external sites.
type SiteFetcher interface {
	HTML(ctx context.Context, url string) (string, error)
}

// Finder runs the two-phase logo search: the tool's own website first, the
// directory page's images as fallback.
type Finder struct {
	fetch  SiteFetcher
	logger *slog.Logger
}

// NewFinder creates a Finder. fetch may be nil, which disables the
// external-site phase.
func NewFinder(fetch SiteFetcher, logger *slog.Logger) *Finder {
	return &Finder{
		fetch:  fetch,
		logger: logger.With("component", "logo_finder"),
	}
}

// Find returns the best logo URL for a tool. websiteURL may be empty when
// the tool's external site is unknown; pageImages are candidates harvested
// from the directory page. Returns false when neither phase yields an
// eligible candidate.
func (f *Finder) Find(ctx context.Context, toolName, websiteURL string, pageImages []Candidate) (string, bool) {
	if f.fetch != nil && websiteURL != "" {
		html, err := f.fetch.HTML(ctx, websiteURL)
		if err != nil {
			f.logger.Debug("website fetch failed", "tool", toolName, "url", websiteURL, "error", err)
		} else {
			if best, ok := Best(SiteCandidates(html, websiteURL), toolName); ok {
				f.logger.Debug("logo from website", "tool", toolName, "logo", best.URL, "score", best.Score)
				return best.URL, true
			}
		}
	}

	if best, ok := Best(pageImages, toolName); ok {
		f.logger.Debug("logo from directory page", "tool", toolName, "logo", best.URL, "score", best.Score)
		return best.URL, true
	}

	return "", false
}
