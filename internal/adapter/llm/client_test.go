package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientCreateChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected authorization header: %q", got)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		format, ok := req["response_format"].(map[string]interface{})
		if !ok || format["type"] != "json_schema" {
			t.Fatalf("expected json_schema response_format, got %v", req["response_format"])
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt","choices":[{"index":0,"message":{"role":"assistant","content":" {\"message_type\":\"generate_graph\"} "},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", time.Second)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model: "gpt",
		Messages: []ChatMessage{
			{Role: RoleUser, Content: "hello"},
		},
		ResponseFormat: NewJSONSchemaFormat(SchemaClassification, Object(map[string]*Schema{
			"message_type": String("label", "generate_graph"),
		}, "message_type")),
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	content, err := resp.Content()
	if err != nil {
		t.Fatalf("Content failed: %v", err)
	}
	if content != `{"message_type":"generate_graph"}` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestClientCreateChatCompletionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestResponseContentEmpty(t *testing.T) {
	var resp *ChatCompletionResponse
	if _, err := resp.Content(); err != ErrEmptyCompletion {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
	resp = &ChatCompletionResponse{Choices: []Choice{{Message: &ChatMessage{Content: "  "}}}}
	if _, err := resp.Content(); err != ErrEmptyCompletion {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
