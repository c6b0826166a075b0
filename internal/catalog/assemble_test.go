package catalog

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/tooldex/tooldex/internal/config"
	"github.com/tooldex/tooldex/internal/extract"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

func testAssembler() *Assembler {
	return NewAssembler(config.SiteConfig{
		BaseURL:          "https://tooldir.example",
		PlaceholderImage: "/img/logo.default.png",
		PlaceholderEmail: "business@tooldir.example",
	}, testLogger)
}

// --- Assembly Tests ---

func TestAssembleFullRecord(t *testing.T) {
	raw := RawTool{
		SourceURL:   "https://Tooldir.example/tool/adflow#about",
		Name:        "  AdFlow  ",
		Description: "N/A",
		Category:    "AI Marketing & Advertising",
		Sections: extract.Sections{
			ShortDescription: "Marketing automation platform.",
			HowToUse:         "Sign up and connect accounts.",
			Features:         []string{"Campaign scheduling"},
			UseCases:         []string{"Agencies"},
		},
		SocialLinks: map[string]string{
			"twitter":  "https://twitter.com/adflow",
			"linkedin": "ftp://linkedin.com/company/adflow",
		},
		ContactLinks:   map[string]string{"pricing": "https://adflow.io/pricing"},
		SupportEmail:   "mailto:support@adflow.io?subject=Hi",
		Website:        "https://adflow.io/?utm_source=tooldir",
		ImgURL:         "/images/adflow.png",
		LogoURL:        "https://adflow.io/logo.png",
		MonthlyTraffic: "1.2M",
		Rating:         "4.6 (1,234 reviews)",
	}

	rec, err := testAssembler().Assemble(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Name != "AdFlow" {
		t.Errorf("expected trimmed name, got %q", rec.Name)
	}
	if rec.Category != "AI Marketing & Advertising" {
		t.Errorf("unexpected category %q", rec.Category)
	}
	if rec.ShortDescription != "Marketing automation platform." {
		t.Errorf("expected section description to win, got %q", rec.ShortDescription)
	}
	if rec.SourceURL != "https://tooldir.example/tool/adflow" {
		t.Errorf("expected canonical source URL, got %q", rec.SourceURL)
	}
	if len(rec.SocialLinks) != 1 || rec.SocialLinks["twitter"] == "" {
		t.Errorf("expected only the http twitter link to survive, got %v", rec.SocialLinks)
	}
	if rec.ContactLinks["pricing"] != "https://adflow.io/pricing" {
		t.Errorf("unexpected contact links %v", rec.ContactLinks)
	}
	if rec.SupportEmail != "support@adflow.io" {
		t.Errorf("expected mailto prefix and query stripped, got %q", rec.SupportEmail)
	}
	if rec.Website != "https://adflow.io/?utm_source=tooldir" {
		t.Errorf("expected absolute website kept, got %q", rec.Website)
	}
	if rec.ImgURL != "https://tooldir.example/images/adflow.png" {
		t.Errorf("expected relative image resolved, got %q", rec.ImgURL)
	}
	if rec.LogoURL != "https://adflow.io/logo.png" {
		t.Errorf("unexpected logo URL %q", rec.LogoURL)
	}
	if rec.Rating != 4.6 {
		t.Errorf("expected rating 4.6, got %v", rec.Rating)
	}
	if rec.MonthlyTraffic != "1.2M" {
		t.Errorf("unexpected traffic %q", rec.MonthlyTraffic)
	}
}

func TestAssembleMissingName(t *testing.T) {
	_, err := testAssembler().Assemble(RawTool{Name: "N/A", Description: "something"})
	if !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}

	_, err = testAssembler().Assemble(RawTool{Name: "   "})
	if !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName for blank name, got %v", err)
	}
}

func TestAssembleDescriptionFallback(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{
		Name:        "ClipCut",
		Description: "A  video  editor!",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ShortDescription != "A video editor!" {
		t.Errorf("expected cleaned scalar description fallback, got %q", rec.ShortDescription)
	}
}

func TestAssembleUnknownCategoryDefaults(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{Name: "ClipCut", Category: "Nonsense"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Category != "Other" {
		t.Errorf("expected fallback category, got %q", rec.Category)
	}
}

func TestAssembleCategoryCaseNormalized(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{Name: "ClipCut", Category: "ai content & media"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Category != "AI Content & Media" {
		t.Errorf("expected canonical casing, got %q", rec.Category)
	}
}

// --- Cleanup Tests ---

func TestAssembleStripsPlaceholderAssets(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{
		Name:    "ClipCut",
		ImgURL:  "https://tooldir.example/2.9.4/img/logo.default.png",
		LogoURL: "/img/logo.default.png",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ImgURL != "" {
		t.Errorf("expected placeholder img discarded, got %q", rec.ImgURL)
	}
	if rec.LogoURL != "" {
		t.Errorf("expected placeholder logo discarded, got %q", rec.LogoURL)
	}
}

func TestAssembleStripsPlaceholderEmail(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{
		Name:         "ClipCut",
		SupportEmail: "Business@Tooldir.example",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.SupportEmail != "" {
		t.Errorf("expected placeholder email discarded, got %q", rec.SupportEmail)
	}
}

func TestAssembleRejectsMalformedEmail(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{
		Name:         "ClipCut",
		SupportEmail: "contact us on the website",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.SupportEmail != "" {
		t.Errorf("expected email without @ discarded, got %q", rec.SupportEmail)
	}
}

func TestAssembleRatingOutOfRangeReset(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{Name: "ClipCut", Rating: "9.8"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Rating != 0 {
		t.Errorf("expected out-of-range rating reset to 0, got %v", rec.Rating)
	}

	rec, err = testAssembler().Assemble(RawTool{Name: "ClipCut", Rating: "no ratings yet"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Rating != 0 {
		t.Errorf("expected unparseable rating to be 0, got %v", rec.Rating)
	}
}

func TestAssembleWebsiteNormalization(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{Name: "ClipCut", Website: "/redirect?to=clipcut"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Website != "https://tooldir.example/redirect?to=clipcut" {
		t.Errorf("expected relative website resolved, got %q", rec.Website)
	}

	rec, err = testAssembler().Assemble(RawTool{Name: "ClipCut", Website: "javascript:void(0)"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Website != "" {
		t.Errorf("expected non-http website discarded, got %q", rec.Website)
	}
}

func TestAssembleEmptyLinkMapsStayNil(t *testing.T) {
	rec, err := testAssembler().Assemble(RawTool{
		Name:        "ClipCut",
		SocialLinks: map[string]string{"twitter": "not a url"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.SocialLinks != nil {
		t.Errorf("expected nil social links, got %v", rec.SocialLinks)
	}
	if rec.ContactLinks != nil {
		t.Errorf("expected nil contact links, got %v", rec.ContactLinks)
	}
}
