package taxonomy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tooldex/tooldex/internal/textutil"
)

// DefaultMinScore is the minimum best-category score required before a
// keyword classification is accepted. Anything below falls back to Other.
const DefaultMinScore = 4

// Model is an optional secondary classifier consulted when keyword scoring
// is inconclusive. It returns a raw category name which the caller validates
// against the taxonomy.
type Model interface {
	ClassifyTool(ctx context.Context, name, description string) (string, error)
}

// Classifier assigns a Category to a tool from its name and description
// using the weighted keyword tables.
type Classifier struct {
	minScore float64
	model    Model
	logger   *slog.Logger
}

// NewClassifier creates a keyword classifier. A minScore of zero or below
// selects DefaultMinScore.
func NewClassifier(minScore float64, logger *slog.Logger) *Classifier {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Classifier{
		minScore: minScore,
		logger:   logger.With("component", "classifier"),
	}
}

// SetModel attaches a fallback model. Without one, Resolve behaves exactly
// like Classify.
func (c *Classifier) SetModel(m Model) {
	c.model = m
}

// Score holds one category's accumulated keyword points.
type Score struct {
	Category Category
	Points   float64
}

// Classify assigns a category from keyword scores alone. It is deterministic
// and never fails; inputs without a strong signal come back as Other.
//
// Scoring per keyword, highest matching tier only: a whole-word match in the
// combined name+description text earns weight x2, a substring match in the
// name earns weight x1.5, a substring match in the description earns weight
// x1. The best-scoring category wins; ties go to the category listed first
// in the table.
func (c *Classifier) Classify(name, description string) Category {
	best := Other
	bestPoints := 0.0
	for _, s := range c.scores(name, description) {
		if s.Points > bestPoints {
			best = s.Category
			bestPoints = s.Points
		}
	}

	if bestPoints < c.minScore {
		return Other
	}
	return best
}

// Explain returns every category's score in table order. Useful for
// debugging a surprising classification.
func (c *Classifier) Explain(name, description string) []Score {
	return c.scores(name, description)
}

// Resolve classifies with keywords first and consults the fallback model
// only when the result is Other. Model errors and answers outside the
// taxonomy are logged and discarded, never propagated.
func (c *Classifier) Resolve(ctx context.Context, name, description string) Category {
	cat := c.Classify(name, description)
	if cat != Other || c.model == nil {
		return cat
	}

	answer, err := c.model.ClassifyTool(ctx, name, description)
	if err != nil {
		c.logger.Warn("model classification failed", "tool", name, "error", err)
		return Other
	}

	accepted, ok := AcceptAnswer(answer)
	if !ok {
		c.logger.Warn("model returned unknown category", "tool", name, "answer", answer)
		return Other
	}

	c.logger.Debug("model resolved category", "tool", name, "category", accepted)
	return accepted
}

func (c *Classifier) scores(name, description string) []Score {
	nameClean := textutil.Normalize(name)
	descClean := textutil.Normalize(description)
	combined := " " + nameClean + " " + descClean + " "

	out := make([]Score, len(entries))
	for i, e := range entries {
		var points float64
		for _, kw := range e.keywords {
			switch {
			case strings.Contains(combined, " "+kw.Term+" "):
				points += kw.Weight * 2
			case strings.Contains(nameClean, kw.Term):
				points += kw.Weight * 1.5
			case strings.Contains(descClean, kw.Term):
				points += kw.Weight
			}
		}
		out[i] = Score{Category: e.category, Points: points}
	}
	return out
}
