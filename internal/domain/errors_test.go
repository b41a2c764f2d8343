package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("failed to load dataset: %w", NewError(KindRemoteUnavailable, "dial failed", errors.New("connection refused")))

	assert.True(t, errors.Is(err, ErrRemoteUnavailable))
	assert.False(t, errors.Is(err, ErrRemoteTimeout))
	assert.Equal(t, KindRemoteUnavailable, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRemoteHTTPErrorCarriesStatus(t *testing.T) {
	err := NewRemoteHTTPError(503, "http://example.com/a.csv")

	de, ok := AsError(err)
	assert.True(t, ok)
	assert.Equal(t, 503, de.Status)
	assert.True(t, errors.Is(err, ErrRemoteHTTPError))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestMessageValidate(t *testing.T) {
	assert.NoError(t, NewUserMessage("hi").Validate())
	assert.NoError(t, NewAssistantMessage(ResponseTypeChart, "{}").Validate())
	assert.Error(t, Message{Role: RoleUser, Content: "x", ResponseType: ResponseTypeText}.Validate())
	assert.Error(t, Message{Role: RoleAssistant, Content: "x"}.Validate())
	assert.Error(t, Message{Role: "system", Content: "x"}.Validate())
}

func TestConversationStateLastUserMessage(t *testing.T) {
	state := NewConversationState("s1", "data.csv", nil)
	_, ok := state.LastUserMessage()
	assert.False(t, ok)

	state.Append(NewUserMessage("first"))
	state.Append(NewAssistantMessage(ResponseTypeText, "answer"))
	state.Append(NewUserMessage("second"))

	last, ok := state.LastUserMessage()
	assert.True(t, ok)
	assert.Equal(t, "second", last)

	msg, ok := state.LastMessage()
	assert.True(t, ok)
	assert.Equal(t, RoleUser, msg.Role)
}
