package domain

import "encoding/json"

// CreateSessionRequest represents the request to create a session.
type CreateSessionRequest struct {
	DatasetSource string `json:"dataset_source"`
	SessionID     string `json:"session_id,omitempty"`
}

// CreateSessionResponse represents the response after creating a session.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// DeleteSessionResponse represents the response after deleting a session.
type DeleteSessionResponse struct {
	Deleted bool `json:"deleted"`
}

// SessionListItem is one entry of the session list.
type SessionListItem struct {
	SessionID     string `json:"session_id"`
	DatasetSource string `json:"dataset_source"`
}

// ListSessionsResponse represents the response for listing sessions.
type ListSessionsResponse struct {
	Sessions []SessionListItem `json:"sessions"`
}

// QueryRequest represents a natural-language question about a dataset.
type QueryRequest struct {
	Query         string `json:"query"`
	SessionID     string `json:"session_id,omitempty"`
	DatasetSource string `json:"dataset_source,omitempty"`
}

// QueryResponse carries the final assistant message of a pipeline run.
// Response is a JSON string for TEXT and the structured payload otherwise.
type QueryResponse struct {
	Response  json.RawMessage `json:"response"`
	Type      ResponseType    `json:"type"`
	SessionID string          `json:"session_id"`
	RunID     string          `json:"run_id"`
}

// ListEventsResponse represents the response for listing run events.
type ListEventsResponse struct {
	RunID  string  `json:"run_id"`
	Events []Event `json:"events"`
}

// ErrorResponse is the single error payload returned to callers.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
