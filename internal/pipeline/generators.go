package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// NewLLMGenerators creates the three LLM backed generation strategies.
func NewLLMGenerators(client llm.LLMClient, opts ModelOptions) Generators {
	return Generators{
		Narrative: &NarrativeResponder{client: client, opts: opts},
		Chart:     &ChartBuilder{client: client, opts: opts},
		Dashboard: &DashboardBuilder{client: client, opts: opts},
	}
}

func complete(ctx context.Context, client llm.LLMClient, req *llm.ChatCompletionRequest) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", domain.NewError(domain.KindGenerationFailed, "generation model call failed", err)
	}
	text, err := resp.Content()
	if err != nil {
		return "", domain.NewError(domain.KindGenerationFailed, "generation returned no content", err)
	}
	return text, nil
}

// NarrativeResponder answers in free text grounded in the profile.
type NarrativeResponder struct {
	client llm.LLMClient
	opts   ModelOptions
}

func (g *NarrativeResponder) ResponseType() domain.ResponseType { return domain.ResponseTypeText }

func (g *NarrativeResponder) Generate(ctx context.Context, lastUserMessage string, profile *domain.DatasetProfile) (domain.Message, error) {
	text, err := complete(ctx, g.client, buildRequest(g.opts, narrativePrompt, lastUserMessage, profile, nil))
	if err != nil {
		return domain.Message{}, err
	}
	return domain.NewAssistantMessage(domain.ResponseTypeText, text), nil
}

// ChartBuilder produces a validated chart payload.
type ChartBuilder struct {
	client llm.LLMClient
	opts   ModelOptions
}

func (g *ChartBuilder) ResponseType() domain.ResponseType { return domain.ResponseTypeChart }

func (g *ChartBuilder) Generate(ctx context.Context, lastUserMessage string, profile *domain.DatasetProfile) (domain.Message, error) {
	text, err := complete(ctx, g.client, buildRequest(g.opts, chartPrompt, lastUserMessage, profile,
		llm.NewJSONSchemaFormat(llm.SchemaCharts, chartPayloadSchema())))
	if err != nil {
		return domain.Message{}, err
	}
	payload, err := ParseChartPayload(text, profile)
	if err != nil {
		return domain.Message{}, err
	}
	return structuredMessage(domain.ResponseTypeChart, payload)
}

// DashboardBuilder produces a validated, normalized dashboard layout.
type DashboardBuilder struct {
	client llm.LLMClient
	opts   ModelOptions
}

func (g *DashboardBuilder) ResponseType() domain.ResponseType { return domain.ResponseTypeDashboard }

func (g *DashboardBuilder) Generate(ctx context.Context, lastUserMessage string, profile *domain.DatasetProfile) (domain.Message, error) {
	text, err := complete(ctx, g.client, buildRequest(g.opts, dashboardPrompt, lastUserMessage, profile,
		llm.NewJSONSchemaFormat(llm.SchemaDashboard, dashboardPayloadSchema())))
	if err != nil {
		return domain.Message{}, err
	}
	payload, err := ParseDashboardPayload(text, profile)
	if err != nil {
		return domain.Message{}, err
	}
	return structuredMessage(domain.ResponseTypeDashboard, payload)
}

func structuredMessage(rt domain.ResponseType, payload interface{}) (domain.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Message{}, domain.NewError(domain.KindStructuredOutputInvalid,
			fmt.Sprintf("failed to encode %s payload", rt), err)
	}
	return domain.NewAssistantMessage(rt, string(data)), nil
}
