package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// --- Classify Tests ---

func TestClassifyStrongKeyword(t *testing.T) {
	c := NewClassifier(0, testLogger)

	got := c.Classify("AdFlow", "A marketing automation platform for small teams")
	if got != Marketing {
		t.Errorf("expected %q, got %q", Marketing, got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(0, testLogger)

	name := "PixelForge"
	desc := "AI image generation and photo editing suite"
	first := c.Classify(name, desc)
	for i := 0; i < 10; i++ {
		if got := c.Classify(name, desc); got != first {
			t.Fatalf("classification changed between runs: %q vs %q", first, got)
		}
	}
	if first != Graphics {
		t.Errorf("expected %q, got %q", Graphics, first)
	}
}

func TestClassifyBelowThresholdIsOther(t *testing.T) {
	c := NewClassifier(0, testLogger)

	// "ads" is a weight-1 keyword; a single whole-word hit scores 2,
	// below the acceptance threshold of 4.
	got := c.Classify("Zenith", "shows ads sometimes")
	if got != Other {
		t.Errorf("expected %q, got %q", Other, got)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	c := NewClassifier(0, testLogger)

	if got := c.Classify("", ""); got != Other {
		t.Errorf("expected %q for empty input, got %q", Other, got)
	}
}

func TestClassifyTieGoesToFirstCategory(t *testing.T) {
	c := NewClassifier(0, testLogger)

	// "language model" + "model" give AI Development 8 points;
	// "programming assistant" + "programming" give Development Tools 8.
	// AI Development is listed first, so it wins the tie.
	got := c.Classify("Tool", "language model programming assistant")
	if got != AIDev {
		t.Errorf("expected tie to resolve to %q, got %q", AIDev, got)
	}
}

func TestClassifyNameTier(t *testing.T) {
	c := NewClassifier(0, testLogger)

	// "crm" never appears as a whole word, but it is a substring of the
	// normalized name, so the name tier scores it 3*1.5 = 4.5.
	got := c.Classify("CRMForge", "help for support teams")
	if got != Marketing {
		t.Errorf("expected %q, got %q", Marketing, got)
	}
}

func TestClassifyCustomThreshold(t *testing.T) {
	c := NewClassifier(10, testLogger)

	// Scores 8 (see tie test), below a raised threshold of 10.
	got := c.Classify("Tool", "language model programming assistant")
	if got != Other {
		t.Errorf("expected %q with raised threshold, got %q", Other, got)
	}
}

func TestExplainScores(t *testing.T) {
	c := NewClassifier(0, testLogger)

	scores := c.Explain("", "marketing automation")
	if len(scores) != len(entries) {
		t.Fatalf("expected %d scores, got %d", len(entries), len(scores))
	}

	byCat := make(map[Category]float64, len(scores))
	for _, s := range scores {
		byCat[s.Category] = s.Points
	}

	// "marketing automation" (3x2) + "marketing" (1x2) = 8.
	if byCat[Marketing] != 8 {
		t.Errorf("expected Marketing score 8, got %v", byCat[Marketing])
	}
	// "automation" (2x2) = 4.
	if byCat[Analytics] != 4 {
		t.Errorf("expected Analytics score 4, got %v", byCat[Analytics])
	}
	if byCat[Graphics] != 0 {
		t.Errorf("expected Graphics score 0, got %v", byCat[Graphics])
	}
}

// --- Resolve Tests ---

type fakeModel struct {
	answer string
	err    error
	calls  int
}

func (m *fakeModel) ClassifyTool(ctx context.Context, name, description string) (string, error) {
	m.calls++
	return m.answer, m.err
}

func TestResolveSkipsModelWhenKeywordsDecide(t *testing.T) {
	model := &fakeModel{answer: string(Content)}
	c := NewClassifier(0, testLogger)
	c.SetModel(model)

	got := c.Resolve(context.Background(), "AdFlow", "marketing automation for everyone")
	if got != Marketing {
		t.Errorf("expected %q, got %q", Marketing, got)
	}
	if model.calls != 0 {
		t.Errorf("model should not be consulted, got %d calls", model.calls)
	}
}

func TestResolveConsultsModelOnOther(t *testing.T) {
	model := &fakeModel{answer: "AI Content & Media"}
	c := NewClassifier(0, testLogger)
	c.SetModel(model)

	got := c.Resolve(context.Background(), "Quantum", "a thing for enthusiasts")
	if got != Content {
		t.Errorf("expected %q, got %q", Content, got)
	}
	if model.calls != 1 {
		t.Errorf("expected 1 model call, got %d", model.calls)
	}
}

func TestResolveNormalizesModelAnswer(t *testing.T) {
	model := &fakeModel{answer: "Marketing and Advertising"}
	c := NewClassifier(0, testLogger)
	c.SetModel(model)

	got := c.Resolve(context.Background(), "Quantum", "a thing for enthusiasts")
	if got != Marketing {
		t.Errorf("expected %q, got %q", Marketing, got)
	}
}

func TestResolveRejectsUnknownAnswer(t *testing.T) {
	model := &fakeModel{answer: "Blockchain Voodoo"}
	c := NewClassifier(0, testLogger)
	c.SetModel(model)

	got := c.Resolve(context.Background(), "Quantum", "a thing for enthusiasts")
	if got != Other {
		t.Errorf("expected %q, got %q", Other, got)
	}
}

func TestResolveToleratesModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	c := NewClassifier(0, testLogger)
	c.SetModel(model)

	got := c.Resolve(context.Background(), "Quantum", "a thing for enthusiasts")
	if got != Other {
		t.Errorf("expected %q on model error, got %q", Other, got)
	}
}

func TestResolveWithoutModel(t *testing.T) {
	c := NewClassifier(0, testLogger)

	got := c.Resolve(context.Background(), "Quantum", "a thing for enthusiasts")
	if got != Other {
		t.Errorf("expected %q, got %q", Other, got)
	}
}

// --- AcceptAnswer Tests ---

func TestAcceptAnswerExact(t *testing.T) {
	cat, ok := AcceptAnswer("AI Image & Graphics")
	if !ok || cat != Graphics {
		t.Errorf("expected %q accepted, got %q ok=%v", Graphics, cat, ok)
	}
}

func TestAcceptAnswerAndVariant(t *testing.T) {
	cat, ok := AcceptAnswer("AI Analytics and Scheduling")
	if !ok || cat != Analytics {
		t.Errorf("expected %q accepted, got %q ok=%v", Analytics, cat, ok)
	}
}

func TestAcceptAnswerMissingPrefix(t *testing.T) {
	cat, ok := AcceptAnswer("Content & Media")
	if !ok || cat != Content {
		t.Errorf("expected %q accepted, got %q ok=%v", Content, cat, ok)
	}
}

func TestAcceptAnswerDevelopmentToolsNoPrefix(t *testing.T) {
	cat, ok := AcceptAnswer("Development Tools")
	if !ok || cat != DevTools {
		t.Errorf("expected %q accepted, got %q ok=%v", DevTools, cat, ok)
	}
}

func TestAcceptAnswerRejectsGarbage(t *testing.T) {
	if cat, ok := AcceptAnswer("The category is AI Development"); ok {
		t.Errorf("verbose answer should be rejected, got %q", cat)
	}
	if _, ok := AcceptAnswer(""); ok {
		t.Error("empty answer should be rejected")
	}
}

// --- Taxonomy Tests ---

func TestNamesIncludesOther(t *testing.T) {
	names := Names()
	if len(names) != len(entries)+1 {
		t.Fatalf("expected %d names, got %d", len(entries)+1, len(names))
	}
	if names[len(names)-1] != string(Other) {
		t.Errorf("expected Other last, got %q", names[len(names)-1])
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	cat, ok := Lookup("ai development")
	if !ok || cat != AIDev {
		t.Errorf("expected %q, got %q ok=%v", AIDev, cat, ok)
	}
}

func BenchmarkClassify(b *testing.B) {
	c := NewClassifier(0, testLogger)
	name := "PixelForge Studio"
	desc := "An AI-powered image generation and photo editing suite with " +
		"batch processing, style transfer, and a template marketplace for designers."
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify(name, desc)
	}
}
