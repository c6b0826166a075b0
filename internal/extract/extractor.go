package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/tooldex/tooldex/internal/config"
	"github.com/tooldex/tooldex/internal/textutil"
)

// NotAvailable is the sentinel value for fields no strategy could extract.
const NotAvailable = "N/A"

// Extractor resolves field rules against documents. Extraction is strictly
// best-effort: a rule that matches nothing yields the sentinel (or nil for
// multi-valued rules), never an error.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "extractor"),
	}
}

// Extract resolves a single-valued rule: CSS first, then XPath, then the
// NotAvailable sentinel. The first non-empty match wins.
func (e *Extractor) Extract(doc *Document, rule config.FieldRule) string {
	if rule.CSS != "" {
		if values := e.cssValues(doc, rule); len(values) > 0 {
			return values[0]
		}
	}
	if rule.XPath != "" {
		if values := e.xpathValues(doc, rule); len(values) > 0 {
			return values[0]
		}
	}
	return NotAvailable
}

// ExtractAll resolves a multi-valued rule. CSS matches win outright; XPath
// is consulted only when CSS found nothing. Results are cleaned and
// deduplicated; nil means the rule matched nothing.
func (e *Extractor) ExtractAll(doc *Document, rule config.FieldRule) []string {
	var values []string
	if rule.CSS != "" {
		values = e.cssValues(doc, rule)
	}
	if len(values) == 0 && rule.XPath != "" {
		values = e.xpathValues(doc, rule)
	}
	return textutil.UniqueNonEmpty(values)
}

// cssValues applies the rule's CSS selector and returns matched values.
func (e *Extractor) cssValues(doc *Document, rule config.FieldRule) []string {
	var values []string

	doc.gq.Find(rule.CSS).Each(func(i int, sel *goquery.Selection) {
		var val string

		switch rule.Attr {
		case "", "text":
			val = strings.TrimSpace(sel.Text())
		case "html", "innerHTML":
			val, _ = sel.Html()
		case "outerHTML":
			val, _ = goquery.OuterHtml(sel)
		default:
			val, _ = sel.Attr(rule.Attr)
			val = strings.TrimSpace(val)
		}

		if val != "" {
			values = append(values, val)
		}
	})

	return values
}

// xpathValues applies the rule's XPath expression and returns matched
// values. Invalid expressions are logged and treated as no match.
func (e *Extractor) xpathValues(doc *Document, rule config.FieldRule) []string {
	root, err := doc.htmlRoot()
	if err != nil {
		e.logger.Warn("html parse failed", "url", doc.URL(), "error", err)
		return nil
	}

	nodes, err := htmlquery.QueryAll(root, rule.XPath)
	if err != nil {
		e.logger.Warn("invalid xpath", "selector", rule.XPath, "error", err)
		return nil
	}

	var values []string
	for _, node := range nodes {
		var val string

		switch rule.Attr {
		case "", "text":
			val = strings.TrimSpace(htmlquery.InnerText(node))
		case "html", "innerHTML":
			val = htmlquery.OutputHTML(node, false)
		case "outerHTML":
			val = htmlquery.OutputHTML(node, true)
		default:
			val = strings.TrimSpace(htmlquery.SelectAttr(node, rule.Attr))
		}

		if val != "" {
			values = append(values, val)
		}
	}

	return values
}
