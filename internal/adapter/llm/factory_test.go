package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/datachat/internal/config"
)

func TestNewLLMClient(t *testing.T) {
	cfg := config.Load()

	cfg.LLMMode = "MOCK"
	client, err := NewLLMClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, client)

	cfg.LLMMode = ""
	cfg.LLMProvider = "openai"
	client, err = NewLLMClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &Client{}, client)
}
