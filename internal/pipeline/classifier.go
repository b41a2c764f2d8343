package pipeline

import (
	"context"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// LLMClassifier classifies messages with a schema constrained model call.
type LLMClassifier struct {
	client llm.LLMClient
	opts   ModelOptions
}

// NewLLMClassifier creates a classifier backed by client.
func NewLLMClassifier(client llm.LLMClient, opts ModelOptions) *LLMClassifier {
	return &LLMClassifier{client: client, opts: opts}
}

// Classify implements Classifier. Any model failure or out-of-enum reply is
// a CLASSIFICATION_FAILED error; no default label is substituted.
func (c *LLMClassifier) Classify(ctx context.Context, lastUserMessage string, profile *domain.DatasetProfile) (domain.Label, error) {
	req := buildRequest(c.opts, classifierPrompt, lastUserMessage, profile,
		llm.NewJSONSchemaFormat(llm.SchemaClassification, classificationSchema()))

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", domain.NewError(domain.KindClassificationFailed, "classifier model call failed", err)
	}
	text, err := resp.Content()
	if err != nil {
		return "", domain.NewError(domain.KindClassificationFailed, "classifier returned no content", err)
	}
	label, err := ParseClassification(text)
	if err != nil {
		return "", domain.NewError(domain.KindClassificationFailed, "classifier returned an invalid label", err)
	}
	return label, nil
}
