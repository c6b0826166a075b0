package logo

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tooldex/tooldex/internal/urlutil"
)

// SiteCandidates harvests logo candidates from a page's HTML: <img> tags,
// icon <link>s, JSON-LD logo declarations, and the og:image meta tag.
// Relative URLs are resolved against pageURL; unparseable HTML yields nil.
func SiteCandidates(pageHTML, pageURL string) []Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var cands []Candidate
	add := func(ref, alt string, width, height int) {
		abs := urlutil.Absolutize(pageURL, ref)
		if abs == "" {
			// Keep data URIs addressable so the scorer can reject them
			// explicitly; everything else unresolvable is dropped here.
			if !strings.HasPrefix(ref, "data:") {
				return
			}
			abs = ref
		}
		cands = append(cands, Candidate{URL: abs, Alt: alt, Width: width, Height: height})
	}

	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = sel.Attr("data-src")
		}
		if strings.TrimSpace(src) == "" {
			return
		}
		alt, _ := sel.Attr("alt")
		add(src, alt, attrPixels(sel, "width"), attrPixels(sel, "height"))
	})

	doc.Find(`link[rel*="icon"]`).Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		rel, _ := sel.Attr("rel")
		sizes, _ := sel.Attr("sizes")
		w, h := parseSizes(sizes)
		add(href, rel, w, h)
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		// Try parsing as single object
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			if u := jsonLDLogo(data); u != "" {
				add(u, "logo", 0, 0)
			}
			return
		}

		// Try parsing as array
		var dataArr []map[string]any
		if err := json.Unmarshal([]byte(raw), &dataArr); err == nil {
			for _, d := range dataArr {
				if u := jsonLDLogo(d); u != "" {
					add(u, "logo", 0, 0)
				}
			}
		}
	})

	doc.Find(`meta[property="og:image"]`).Each(func(i int, sel *goquery.Selection) {
		content, _ := sel.Attr("content")
		if strings.TrimSpace(content) == "" {
			return
		}
		add(content, "og:image", 0, 0)
	})

	return cands
}

// jsonLDLogo pulls the logo URL from a JSON-LD object. The logo field is
// either a plain string or an ImageObject with a url key.
func jsonLDLogo(data map[string]any) string {
	switch v := data["logo"].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if u, ok := v["url"].(string); ok {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

// attrPixels reads a dimension attribute, tolerating a trailing "px" and
// fractional values. Returns 0 for anything else ("auto", percentages).
func attrPixels(sel *goquery.Selection, name string) int {
	raw, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "px")
	if raw == "" || strings.HasSuffix(raw, "%") {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// parseSizes reads a link sizes attribute such as "180x180". Multiple
// entries keep the first; "any" and malformed values yield zeros.
func parseSizes(sizes string) (int, int) {
	sizes = strings.TrimSpace(sizes)
	if sizes == "" {
		return 0, 0
	}
	first := strings.Fields(sizes)[0]
	w, h, ok := strings.Cut(strings.ToLower(first), "x")
	if !ok {
		return 0, 0
	}
	wi, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0
	}
	hi, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0
	}
	return wi, hi
}
