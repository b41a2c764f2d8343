// Package protocol defines the WebSocket message protocol between clients and datachat.
package protocol

import "encoding/json"

// Message types from client to server
const (
	TypeHello = "hello"
	TypeQuery = "query"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeResponse = "response"
	TypeError    = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	RunID     string `json:"run_id,omitempty"`
}

// HelloMessage binds a connection to a session. A dataset_source registers
// the session with that dataset.
type HelloMessage struct {
	BaseMessage
	DatasetSource string `json:"dataset_source,omitempty"`
}

// HelloAckMessage is sent after a successful hello.
type HelloAckMessage struct {
	BaseMessage
}

// QueryMessage asks a question about the bound session's dataset.
type QueryMessage struct {
	BaseMessage
	Query string `json:"query"`
}

// ResponseMessage carries the answer to a query. It is sent to every
// connection bound to the session.
type ResponseMessage struct {
	BaseMessage
	ResponseType string          `json:"response_type"`
	Response     json.RawMessage `json:"response"`
}

// ErrorMessage is sent when a message cannot be handled.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Protocol error codes. Query failures use the error kind as their code.
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeSessionRequired = "session_required"
	ErrorCodeInternalError   = "internal_error"
)
