package config

// FieldRule defines how one record field is extracted from a rendered page.
// CSS is tried first; XPath is the fallback when CSS matches nothing. Attr
// selects an attribute value instead of text content. Multi collects every
// match instead of the first.
type FieldRule struct {
	Name  string `mapstructure:"name"  yaml:"name"`
	CSS   string `mapstructure:"css"   yaml:"css"`
	XPath string `mapstructure:"xpath" yaml:"xpath"`
	Attr  string `mapstructure:"attr"  yaml:"attr"`
	Multi bool   `mapstructure:"multi" yaml:"multi"`
}

// DefaultFieldRules returns the extraction rules for the default directory
// site. Selectors target a Tailwind-styled page, so class names are fragile;
// each rule carries an XPath fallback anchored on text content instead.
func DefaultFieldRules() []FieldRule {
	return []FieldRule{
		{
			Name:  "name",
			CSS:   `h1, .text-base.font-medium, .text-lg.font-medium, h2, h3, h4, div[class*="title"]`,
			XPath: "//h1|//h2|//h3|//h4",
		},
		{
			Name:  "description",
			CSS:   `.text-sm.text-gray-500, .text-base.text-gray-500, p[class*="description"]`,
			XPath: "//p",
		},
		{
			Name:  "monthly_traffic",
			CSS:   `span[title="Monthly Visits"] + span`,
			XPath: `//span[contains(text(), 'Monthly Visits')]/following-sibling::span`,
		},
		{
			Name:  "rating",
			CSS:   ".rating-value",
			XPath: `//span[contains(@class, 'group-hover:text-purple-1300')]`,
		},
		{
			Name:  "image",
			CSS:   "img[src]",
			XPath: "//img[@src]",
			Attr:  "src",
		},
		{
			Name:  "pricing_link",
			CSS:   `a[href*="pricing"]`,
			XPath: `//a[contains(text(), 'Pricing')]`,
			Attr:  "href",
		},
		{
			Name:  "support_email",
			CSS:   `a[href^="mailto:"]`,
			XPath: `//a[starts-with(@href, 'mailto:')]`,
			Attr:  "href",
		},
		{
			Name:  "website",
			CSS:   `a[href*="utm_source"]`,
			XPath: `//a[contains(@href, 'utm_source')]`,
			Attr:  "href",
		},
		{
			Name:  "features",
			CSS:   ".features-list li",
			XPath: `//ul[contains(@class, 'features')]/li`,
			Multi: true,
		},
	}
}
