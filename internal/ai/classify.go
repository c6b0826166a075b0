package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tooldex/tooldex/internal/config"
	"github.com/tooldex/tooldex/internal/taxonomy"
)

// categoryPromptFormat asks for exactly one taxonomy category. The answer
// is validated against the taxonomy by the caller; the "Respond with ONLY"
// instruction keeps small local models from padding the reply.
const categoryPromptFormat = `Tool Name: %s
Description: %s

Based on the above information, categorize this tool into exactly ONE of these categories:
- AI Marketing & Advertising (marketing automation, ad campaigns, social media)
- AI Content & Media (content creation, video/audio production, writing)
- AI Analytics & Scheduling (data analysis, workflow automation, productivity)
- AI Image & Graphics (image generation, editing, visual design)
- AI Development (LLM infrastructure, AI frameworks, model development)
- Development Tools (programming assistance, no-code platforms)

Respond with ONLY the category name, nothing else.`

// maxDescriptionChars bounds the prompt size for long tool descriptions.
const maxDescriptionChars = 1000

// CategoryClassifier consults the LLM for a category when keyword scoring
// came up empty. It plugs into the keyword classifier as its model.
type CategoryClassifier struct {
	client *LLMClient
	logger *slog.Logger
}

var _ taxonomy.Model = (*CategoryClassifier)(nil)

// NewCategoryClassifier wraps an LLM client as a classification fallback.
func NewCategoryClassifier(client *LLMClient, logger *slog.Logger) *CategoryClassifier {
	return &CategoryClassifier{
		client: client,
		logger: logger.With("component", "llm_classifier"),
	}
}

// NewFromConfig builds the fallback when AI is enabled, nil otherwise.
func NewFromConfig(cfg config.AIConfig, logger *slog.Logger) *CategoryClassifier {
	if !cfg.Enabled {
		return nil
	}
	return NewCategoryClassifier(NewLLMClient(cfg, logger), logger)
}

// ClassifyTool asks the model for a category name. The raw trimmed answer
// is returned; acceptance against the taxonomy happens at the call site.
func (cc *CategoryClassifier) ClassifyTool(ctx context.Context, name, description string) (string, error) {
	if len(description) > maxDescriptionChars {
		description = description[:maxDescriptionChars]
	}

	answer, err := cc.client.Generate(ctx, fmt.Sprintf(categoryPromptFormat, name, description))
	if err != nil {
		return "", fmt.Errorf("llm classify: %w", err)
	}

	answer = strings.TrimSpace(answer)
	cc.logger.Debug("llm category answer", "tool", name, "answer", answer)
	return answer, nil
}
