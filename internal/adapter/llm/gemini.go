package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient adapts the Gemini API to LLMClient. System messages become
// the system instruction and json_schema response formats become a
// ResponseSchema.
type GeminiClient struct {
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiClient creates a Gemini client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, timeout: timeout}, nil
}

// CreateChatCompletion implements LLMClient.
func (g *GeminiClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents, system := toGenaiContents(req.Messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("request has no user content")
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, toGenaiConfig(req, system))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in Gemini response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	result := &ChatCompletionResponse{
		ID:      fmt.Sprintf("gemini-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: RoleAssistant, Content: text.String()},
				FinishReason: strings.ToLower(string(resp.Candidates[0].FinishReason)),
			},
		},
	}
	if resp.UsageMetadata != nil {
		result.Usage = &Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}

func toGenaiContents(messages []ChatMessage) ([]*genai.Content, string) {
	var (
		contents []*genai.Content
		system   []string
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return contents, strings.Join(system, "\n\n")
}

func toGenaiConfig(req *ChatCompletionRequest, system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		cfg.Temperature = &temp
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if rf := req.ResponseFormat; rf != nil {
		cfg.ResponseMIMEType = "application/json"
		if rf.JSONSchema != nil {
			cfg.ResponseSchema = toGenaiSchema(rf.JSONSchema.Schema)
		}
	}
	return cfg
}

// toGenaiSchema converts a Schema. Gemini rejects untyped values and objects
// without properties, so those are dropped (nil) along with arrays of them;
// callers back-fill the missing fields.
func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		MinItems:    s.MinItems,
		Minimum:     s.Minimum,
	}
	switch s.Type {
	case TypeObject:
		if len(s.Properties) == 0 {
			return nil
		}
		out.Type = genai.TypeObject
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			if converted := toGenaiSchema(prop); converted != nil {
				out.Properties[name] = converted
			}
		}
		for _, name := range s.Required {
			if _, ok := out.Properties[name]; ok {
				out.Required = append(out.Required, name)
			}
		}
	case TypeArray:
		items := toGenaiSchema(s.Items)
		if items == nil {
			return nil
		}
		out.Type = genai.TypeArray
		out.Items = items
	case TypeString:
		out.Type = genai.TypeString
	case TypeNumber:
		out.Type = genai.TypeNumber
	case TypeInteger:
		out.Type = genai.TypeInteger
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		return nil
	}
	return out
}
