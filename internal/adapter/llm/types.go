package llm

import (
	"errors"
	"strings"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Prompt markers shared by prompt builders and the mock client.
const (
	ProfileMarker  = "Dataset profile: "
	QuestionMarker = "Question: "
)

// ErrEmptyCompletion is returned when a completion carries no text.
var ErrEmptyCompletion = errors.New("completion has no content")

// ChatCompletionRequest represents the OpenAI chat completion request.
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage represents a chat message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the model for JSON output, optionally constrained by a
// schema.
type ResponseFormat struct {
	Type       string            `json:"type"` // json_object or json_schema
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

// JSONSchemaFormat names the schema the output must satisfy.
type JSONSchemaFormat struct {
	Name   string  `json:"name"`
	Strict bool    `json:"strict,omitempty"`
	Schema *Schema `json:"schema"`
}

// NewJSONSchemaFormat builds a json_schema response format.
func NewJSONSchemaFormat(name string, schema *Schema) *ResponseFormat {
	return &ResponseFormat{
		Type:       "json_schema",
		JSONSchema: &JSONSchemaFormat{Name: name, Schema: schema},
	}
}

// ChatCompletionResponse represents the OpenAI chat completion response.
type ChatCompletionResponse struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}

// Content returns the trimmed text of the first choice.
func (r *ChatCompletionResponse) Content() (string, error) {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(r.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// Choice represents a completion choice.
type Choice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError represents the error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// lastContent returns the content of the last message with the given role.
func lastContent(messages []ChatMessage, role string) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == role {
			return messages[i].Content
		}
	}
	return ""
}
