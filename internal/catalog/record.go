// Package catalog defines the tool record that the pipeline produces and
// the assembler that builds one from raw extraction results.
package catalog

// ToolRecord is the unit of output: one scraped, classified, cleaned tool.
// Field names are the stable output contract shared by the JSON file, the
// checkpoint, the CSV export, and the Mongo sink.
type ToolRecord struct {
	Name             string            `json:"name" bson:"name"`
	Category         string            `json:"category" bson:"category"`
	ShortDescription string            `json:"short_description" bson:"short_description"`
	HowToUse         string            `json:"how_to_use,omitempty" bson:"how_to_use,omitempty"`
	Features         []string          `json:"features,omitempty" bson:"features,omitempty"`
	UseCases         []string          `json:"use_cases,omitempty" bson:"use_cases,omitempty"`
	SocialLinks      map[string]string `json:"social_links,omitempty" bson:"social_links,omitempty"`
	ContactLinks     map[string]string `json:"contact_links,omitempty" bson:"contact_links,omitempty"`
	LogoURL          string            `json:"logo_url,omitempty" bson:"logo_url,omitempty"`
	ImgURL           string            `json:"img_url,omitempty" bson:"img_url,omitempty"`
	SupportEmail     string            `json:"support_email,omitempty" bson:"support_email,omitempty"`
	Website          string            `json:"website,omitempty" bson:"website,omitempty"`
	MonthlyTraffic   string            `json:"monthly_traffic,omitempty" bson:"monthly_traffic,omitempty"`
	Rating           float64           `json:"rating,omitempty" bson:"rating,omitempty"`
	SourceURL        string            `json:"source_url" bson:"source_url"`
}
