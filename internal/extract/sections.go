package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tooldex/tooldex/internal/textutil"
)

// Sections holds the named slices of a tool's description blob. Any section
// whose anchor phrase is absent from the blob stays empty.
type Sections struct {
	ShortDescription string
	HowToUse         string
	Features         []string
	UseCases         []string
	FAQ              string
}

var (
	reQANoise   = regexp.MustCompile(`\s+Q\d+\s+A\d+\s+`)
	reFAQSource = regexp.MustCompile(`FAQ from[^\n]*\n`)

	reHowToUse = regexp.MustCompile(`(?i)how\s+to\s+use\b`)
	reFeatures = regexp.MustCompile(`(?i)core\s+features\b`)
	reUseCases = regexp.MustCompile(`(?i)use\s+cases\b`)
	reFAQ      = regexp.MustCompile(`(?i)(?:\bfaqs?\b|frequently\s+asked\s+questions:?)`)
	reWhatIs   = regexp.MustCompile(`(?i)what\s+is\b`)

	reNumMarker  = regexp.MustCompile(`\s*\b\d{1,2}[.)]\s+`)
	reHashMarker = regexp.MustCompile(`#\d+\s*`)
	reWideGap    = regexp.MustCompile(`\s{2,}`)
)

// ScrubFAQ strips the "Q1 A1" numbering noise the directory injects between
// FAQ entries and rewrites the "FAQ from <tool>" heading line.
func ScrubFAQ(s string) string {
	s = reQANoise.ReplaceAllString(s, " ")
	s = reFAQSource.ReplaceAllString(s, "\nFrequently Asked Questions:\n")
	return s
}

type anchorHit struct {
	name  string
	start int
	end   int
}

// ParseSections slices a description blob into named sections. Anchor
// phrases are located case-insensitively; each section runs from the end of
// its anchor to the start of the next found anchor (in position order), or
// to end of text. Parsing never fails: a blob with no anchors yields an
// all-empty Sections.
func ParseSections(blob, toolName string) Sections {
	text := ScrubFAQ(blob)

	var hits []anchorHit
	add := func(name string, loc []int) {
		if loc != nil {
			hits = append(hits, anchorHit{name: name, start: loc[0], end: loc[1]})
		}
	}

	add("what_is", findWhatIs(text, toolName))
	add("how_to_use", reHowToUse.FindStringIndex(text))
	add("features", reFeatures.FindStringIndex(text))
	add("use_cases", reUseCases.FindStringIndex(text))
	add("faq", reFAQ.FindStringIndex(text))

	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	raw := make(map[string]string, len(hits))
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		if h.end < end {
			raw[h.name] = sliceTrim(text[h.end:end])
		}
	}

	return Sections{
		ShortDescription: textutil.CleanSection(raw["what_is"]),
		HowToUse:         textutil.CleanSection(raw["how_to_use"]),
		Features:         textutil.UniqueNonEmpty(splitItems(raw["features"], reNumMarker)),
		UseCases:         textutil.UniqueNonEmpty(splitItems(raw["use_cases"], reHashMarker)),
		FAQ:              textutil.CleanSection(raw["faq"]),
	}
}

// findWhatIs prefers the heading that names the tool ("what is AdFlow") and
// falls back to a generic "what is" match.
func findWhatIs(text, toolName string) []int {
	name := strings.TrimSpace(toolName)
	if name != "" {
		pattern := `(?i)what\s+is\s+` + strings.ReplaceAll(regexp.QuoteMeta(name), " ", `\s+`)
		if re, err := regexp.Compile(pattern); err == nil {
			if loc := re.FindStringIndex(text); loc != nil {
				return loc
			}
		}
	}
	return reWhatIs.FindStringIndex(text)
}

// sliceTrim drops the leftover punctuation an anchor match leaves behind,
// like the "?" of "What is AdFlow?".
func sliceTrim(s string) string {
	return strings.TrimLeft(s, " \t\r\n?:!.,-'\"")
}

// splitItems breaks a section into list items on the given markers plus any
// run of two or more whitespace characters.
func splitItems(s string, markers ...*regexp.Regexp) []string {
	if s == "" {
		return nil
	}
	for _, re := range markers {
		s = re.ReplaceAllString(s, "\x00")
	}
	s = reWideGap.ReplaceAllString(s, "\x00")
	return strings.Split(s, "\x00")
}
