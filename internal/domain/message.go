package domain

import "fmt"

// Message is a single conversation turn. ResponseType is empty on user
// messages and required on assistant messages.
type Message struct {
	Role         Role         `json:"role"`
	Content      string       `json:"content"`
	ResponseType ResponseType `json:"type,omitempty"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message tagged with the strategy
// that produced it.
func NewAssistantMessage(rt ResponseType, content string) Message {
	return Message{Role: RoleAssistant, Content: content, ResponseType: rt}
}

// Validate checks the role/response-type pairing.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser:
		if m.ResponseType != "" {
			return fmt.Errorf("user message must not carry a response type (got %s)", m.ResponseType)
		}
	case RoleAssistant:
		if !m.ResponseType.Valid() {
			return fmt.Errorf("assistant message has invalid response type %q", m.ResponseType)
		}
	default:
		return fmt.Errorf("unknown message role %q", m.Role)
	}
	return nil
}

// ConversationState is the unit of data threaded through one pipeline
// invocation. It is owned by a single invocation and never shared.
type ConversationState struct {
	RunID         string          `json:"run_id,omitempty"`
	SessionID     string          `json:"session_id"`
	DatasetSource string          `json:"dataset_source"`
	Profile       *DatasetProfile `json:"profile,omitempty"`
	Messages      []Message       `json:"messages"`
	RoutingLabel  Label           `json:"routing_label,omitempty"`
}

// NewConversationState creates an empty state for a session.
func NewConversationState(sessionID, source string, profile *DatasetProfile) *ConversationState {
	return &ConversationState{
		SessionID:     sessionID,
		DatasetSource: source,
		Profile:       profile,
		Messages:      []Message{},
	}
}

// Append adds a message to the end of the conversation.
func (s *ConversationState) Append(m Message) {
	s.Messages = append(s.Messages, m)
}

// LastMessage returns the most recent message, if any.
func (s *ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastUserMessage returns the content of the most recent user message.
func (s *ConversationState) LastUserMessage() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}
