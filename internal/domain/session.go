package domain

import "time"

// SessionRecord maps a session to the dataset it was created with. Nothing
// else about a session is retained.
type SessionRecord struct {
	SessionID     string    `json:"session_id"`
	DatasetSource string    `json:"dataset_source"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
