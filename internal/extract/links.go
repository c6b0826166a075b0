package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// platform describes one social network: the canonical base URL used to
// reassemble relative matches, and the pattern that finds mentions.
type platform struct {
	name   string
	domain string
	re     *regexp.Regexp
}

// Path charset covers the usual URL body characters; trailing sentence
// punctuation is trimmed after matching.
const pathChars = `[A-Za-z0-9_\-./@?=&%+~#]`

var socialPlatforms = []platform{
	{"twitter", "https://twitter.com",
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?(?:twitter|x)\.com(/` + pathChars + `*)?`)},
	{"linkedin", "https://www.linkedin.com",
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?linkedin\.com(/` + pathChars + `*)?`)},
	{"facebook", "https://www.facebook.com",
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?facebook\.com(/` + pathChars + `*)?`)},
	{"youtube", "https://www.youtube.com",
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?(?:youtube\.com|youtu\.be)(/` + pathChars + `*)?`)},
	{"instagram", "https://www.instagram.com",
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?instagram\.com(/` + pathChars + `*)?`)},
	{"discord", "https://discord.gg",
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?(?:discord\.gg|discord\.com)(/` + pathChars + `*)?`)},
}

var contactKinds = []struct {
	name string
	re   *regexp.Regexp
}{
	{"login", regexp.MustCompile(`(?i)/(?:log-?in|sign-?in)\b`)},
	{"signup", regexp.MustCompile(`(?i)/(?:sign-?up|register)\b`)},
	{"pricing", regexp.MustCompile(`(?i)/(?:pricing|plans?)\b`)},
	{"contact", regexp.MustCompile(`(?i)/contact(?:-?us)?\b`)},
}

var (
	reAbsURL = regexp.MustCompile(`https?://[^\s"'<>()\[\]]+`)
	reEmail  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// ExtractSocialLinks scans a blob (text or raw HTML) for social profile
// links. The first mention per platform wins. An absolute match is used
// verbatim; a bare-domain mention with a path is reassembled onto the
// platform's canonical domain.
func ExtractSocialLinks(blob string) map[string]string {
	links := make(map[string]string)
	for _, p := range socialPlatforms {
		m := p.re.FindStringSubmatch(blob)
		if m == nil {
			continue
		}

		full := trimLinkTail(m[0])
		if strings.HasPrefix(strings.ToLower(full), "http") {
			links[p.name] = full
			continue
		}

		path := ""
		if len(m) > 1 {
			path = trimLinkTail(m[1])
		}
		links[p.name] = p.domain + path
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

// ExtractContactLinks scans a blob for absolute URLs that look like login,
// signup, pricing, or contact pages. The first URL per kind wins.
func ExtractContactLinks(blob string) map[string]string {
	urls := reAbsURL.FindAllString(blob, -1)
	if len(urls) == 0 {
		return nil
	}

	links := make(map[string]string)
	for _, raw := range urls {
		u := trimLinkTail(raw)
		for _, kind := range contactKinds {
			if _, done := links[kind.name]; done {
				continue
			}
			if kind.re.MatchString(u) {
				links[kind.name] = u
			}
		}
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

// ExtractEmail finds a contact email: mailto: anchors in the document take
// priority, then the first bare address in the blob. Returns "" when
// nothing plausible is found.
func ExtractEmail(doc *Document, blob string) string {
	var email string
	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		addr := strings.TrimPrefix(strings.TrimSpace(href), "mailto:")
		if idx := strings.IndexByte(addr, '?'); idx >= 0 {
			addr = addr[:idx]
		}
		if strings.Contains(addr, "@") {
			email = addr
			return false
		}
		return true
	})
	if email != "" {
		return email
	}

	return reEmail.FindString(blob)
}

// trimLinkTail removes sentence punctuation that regex matches drag along
// ("...see https://x.com/acme." should not keep the final dot).
func trimLinkTail(s string) string {
	return strings.TrimRight(s, ".,;:!?)'\"")
}
