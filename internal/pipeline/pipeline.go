// Package pipeline implements the question answering pipeline: classify the
// latest user message, route on the label and run one generation strategy.
package pipeline

import (
	"context"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// Classifier labels the intent of a user message.
type Classifier interface {
	Classify(ctx context.Context, lastUserMessage string, profile *domain.DatasetProfile) (domain.Label, error)
}

// Generator produces the assistant message for one stage.
type Generator interface {
	ResponseType() domain.ResponseType
	Generate(ctx context.Context, lastUserMessage string, profile *domain.DatasetProfile) (domain.Message, error)
}

// Generators holds the strategy for each generation stage.
type Generators struct {
	Narrative Generator
	Chart     Generator
	Dashboard Generator
}

func (g Generators) byStage() map[domain.Stage]Generator {
	return map[domain.Stage]Generator{
		domain.StageAnalyticalResponse: g.Narrative,
		domain.StageGenerateGraph:      g.Chart,
		domain.StageGenerateDashboard:  g.Dashboard,
	}
}

// ModelOptions are the language model settings shared by the LLM backed
// classifier and generators.
type ModelOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}
