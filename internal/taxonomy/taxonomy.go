// Package taxonomy defines the fixed category set for the tool directory and
// the weighted keyword tables behind deterministic classification.
package taxonomy

import "strings"

// Category is one of the fixed directory categories.
type Category string

const (
	Marketing Category = "AI Marketing & Advertising"
	Analytics Category = "AI Analytics & Scheduling"
	Content   Category = "AI Content & Media"
	Graphics  Category = "AI Image & Graphics"
	AIDev     Category = "AI Development"
	DevTools  Category = "Development Tools"

	// Other is the fallback when no category scores above the threshold.
	Other Category = "Other"
)

// Keyword pairs a matchable term with its base weight. Terms are stored in
// normalized form (lowercase, single spaces) so they can be compared against
// normalized input directly.
type Keyword struct {
	Term   string
	Weight float64
}

type entry struct {
	category Category
	keywords []Keyword
}

// entries holds the keyword table per category. Order is significant: when
// two categories reach the same score, the one listed first wins.
var entries = []entry{
	{Marketing, []Keyword{
		{"marketing automation", 3},
		{"ad campaign", 3},
		{"social media management", 3},
		{"email marketing", 3},
		{"seo optimization", 3},
		{"crm", 3},
		{"lead generation", 3},
		{"social media", 2},
		{"digital marketing", 2},
		{"advertising", 2},
		{"campaign", 2},
		{"marketing analytics", 2},
		{"marketing", 1},
		{"ads", 1},
		{"promotion", 1},
		{"keyword research", 3},
		{"seo tool", 3},
		{"search engine optimization", 3},
		{"seo", 2},
		{"search ranking", 2},
		{"organic traffic", 2},
		{"serp", 2},
		{"backlink", 2},
		{"keyword", 2},
	}},
	{Analytics, []Keyword{
		{"data analysis", 3},
		{"analytics dashboard", 3},
		{"workflow automation", 3},
		{"task management", 3},
		{"project planning", 3},
		{"scheduling", 3},
		{"performance tracking", 2},
		{"productivity", 2},
		{"time management", 2},
		{"reporting", 2},
		{"metrics", 2},
		{"automation", 2},
		{"analytics", 1},
		{"data", 1},
		{"tracking", 1},
		{"sales automation", 3},
		{"sales agent", 3},
		{"meeting scheduling", 3},
		{"sales pipeline", 3},
		{"customer relationship", 3},
		{"booking meetings", 3},
		{"sales", 2},
		{"crm automation", 2},
		{"lead management", 2},
		{"revenue generation", 2},
		{"customer data", 2},
	}},
	{Content, []Keyword{
		{"video generation", 3},
		{"content creation", 3},
		{"video editing", 3},
		{"podcast creation", 3},
		{"blog writing", 3},
		{"content writing", 3},
		{"video production", 2},
		{"content repurposing", 2},
		{"media creation", 2},
		{"article writing", 2},
		{"copywriting", 2},
		{"script writing", 2},
		{"content", 1},
		{"video", 1},
		{"media", 1},
		{"writing", 1},
	}},
	{Graphics, []Keyword{
		{"image generation", 3},
		{"photo editing", 3},
		{"graphic design", 3},
		{"image creation", 3},
		{"visual design", 3},
		{"art generation", 3},
		{"photo enhancement", 2},
		{"image editing", 2},
		{"design tools", 2},
		{"visual effects", 2},
		{"illustration", 2},
		{"avatar", 2},
		{"image", 1},
		{"photo", 1},
		{"graphics", 1},
		{"visual", 1},
	}},
	{AIDev, []Keyword{
		{"language model", 3},
		{"ai framework", 3},
		{"model training", 3},
		{"ai infrastructure", 3},
		{"api development", 3},
		{"machine learning", 3},
		{"model deployment", 2},
		{"neural network", 2},
		{"ai platform", 2},
		{"model optimization", 2},
		{"ai development", 2},
		{"training data", 2},
		{"model", 1},
		{"ai", 1},
		{"development", 1},
	}},
	{DevTools, []Keyword{
		{"code generation", 3},
		{"no code", 3},
		{"low code", 3},
		{"programming assistant", 3},
		{"developer tools", 3},
		{"debugging", 3},
		{"code completion", 2},
		{"development platform", 2},
		{"coding assistant", 2},
		{"code analysis", 2},
		{"testing tools", 2},
		{"ide", 2},
		{"code", 1},
		{"programming", 1},
		{"development", 1},
	}},
}

// Categories returns the scored categories in table order, excluding Other.
func Categories() []Category {
	out := make([]Category, len(entries))
	for i, e := range entries {
		out[i] = e.category
	}
	return out
}

// Names returns every valid category name, including Other.
func Names() []string {
	out := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		out = append(out, string(e.category))
	}
	return append(out, string(Other))
}

// Lookup matches a string against the valid category names
// (case-insensitively) and returns the canonical Category.
func Lookup(s string) (Category, bool) {
	for _, e := range entries {
		if strings.EqualFold(s, string(e.category)) {
			return e.category, true
		}
	}
	if strings.EqualFold(s, string(Other)) {
		return Other, true
	}
	return "", false
}

// AcceptAnswer validates a free-form answer (typically from an LLM) against
// the taxonomy. It tolerates the common variants seen in practice: "and"
// instead of "&", and a missing "AI " prefix. Anything that does not
// normalize to an exact category name is rejected.
func AcceptAnswer(raw string) (Category, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if cat, ok := Lookup(s); ok {
		return cat, true
	}

	s = strings.ReplaceAll(s, "Marketing and Advertising", "Marketing & Advertising")
	s = strings.ReplaceAll(s, "Content and Media", "Content & Media")
	s = strings.ReplaceAll(s, "Analytics and Scheduling", "Analytics & Scheduling")
	s = strings.ReplaceAll(s, "Image and Graphics", "Image & Graphics")

	if !strings.HasPrefix(s, "AI ") && s != string(DevTools) && s != string(Other) {
		s = "AI " + s
	}

	return Lookup(s)
}
