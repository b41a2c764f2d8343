package domain

import (
	"encoding/json"
	"time"
)

// Run represents a single pipeline invocation for a query.
type Run struct {
	RunID        string       `json:"run_id"`
	SessionID    string       `json:"session_id"`
	Status       RunStatus    `json:"status"`
	RoutingLabel Label        `json:"routing_label,omitempty"`
	ResponseType ResponseType `json:"response_type,omitempty"`
	ErrorKind    ErrorKind    `json:"error_kind,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	EndedAt      *time.Time   `json:"ended_at,omitempty"`
}

// Event represents a trace event of a run.
type Event struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
