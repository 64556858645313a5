package types

import "time"

// ProgressMessage represents a WebSocket progress update message
type ProgressMessage struct {
	JobID         string    `json:"jobId"`
	Type          string    `json:"type"` // "progress", "status", "complete", "error"
	CanonicalID   string    `json:"videoId,omitempty"`
	Status        string    `json:"status"`
	Progress      int       `json:"progress"` // 0-100 for the current item
	FailureReason string    `json:"error,omitempty"`
	Index         int       `json:"index"`
	Total         int       `json:"total"`
	Message       string    `json:"message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
