// Package extract pulls record fields out of rendered pages using CSS
// selectors with XPath fallback, and parses free-text description blobs
// into named sections.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Error wraps a document-level extraction failure with its page URL.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Document wraps one rendered page for extraction. The goquery view is
// built eagerly; the x/net/html tree used for XPath queries is parsed
// lazily since most fields resolve via CSS alone.
type Document struct {
	url  string
	raw  string
	gq   *goquery.Document
	root *html.Node
}

// NewDocument parses raw HTML into a Document.
func NewDocument(pageURL, rawHTML string) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &Error{URL: pageURL, Err: err}
	}
	return &Document{url: pageURL, raw: rawHTML, gq: gq}, nil
}

// URL returns the page URL this document was rendered from.
func (d *Document) URL() string {
	return d.url
}

// Find returns the goquery selection for a CSS selector, for callers that
// need direct access beyond the rule-based API.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.gq.Find(selector)
}

// Text returns the trimmed text content of the first element matching
// selector, or "" when nothing matches.
func (d *Document) Text(selector string) string {
	return strings.TrimSpace(d.gq.Find(selector).First().Text())
}

// HTML returns the inner HTML of the first element matching selector, or ""
// when nothing matches.
func (d *Document) HTML(selector string) string {
	h, err := d.gq.Find(selector).First().Html()
	if err != nil {
		return ""
	}
	return h
}

func (d *Document) htmlRoot() (*html.Node, error) {
	if d.root != nil {
		return d.root, nil
	}
	root, err := html.Parse(strings.NewReader(d.raw))
	if err != nil {
		return nil, err
	}
	d.root = root
	return root, nil
}
