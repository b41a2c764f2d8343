package pipeline

import (
	"context"
	"sync"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

func spendProfile() *domain.DatasetProfile {
	return &domain.DatasetProfile{
		Columns: []string{"date", "spend"},
		ColumnTypes: map[string]domain.ColumnType{
			"date":  domain.ColumnTypeDate,
			"spend": domain.ColumnTypeNumeric,
		},
		SampleRows: []domain.Record{
			{"date": "2024-01-01", "spend": int64(100)},
			{"date": "2024-01-02", "spend": int64(250)},
			{"date": "2024-01-03", "spend": int64(175)},
		},
	}
}

// scriptedClient replies with fixed content per schema name ("" for free
// text) and records the requests it saw.
type scriptedClient struct {
	mu       sync.Mutex
	replies  map[string]string
	err      error
	requests []*llm.ChatCompletionRequest
}

func (c *scriptedClient) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	name := ""
	if req.ResponseFormat != nil && req.ResponseFormat.JSONSchema != nil {
		name = req.ResponseFormat.JSONSchema.Name
	}
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: llm.RoleAssistant, Content: c.replies[name]}}},
	}, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []StageEvent
}

func (o *recordingObserver) ObserveStage(ctx context.Context, ev StageEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) steps() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	for i, ev := range o.events {
		out[i] = ev.Step
	}
	return out
}
