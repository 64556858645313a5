package types

import (
	"fmt"
	"strings"
)

// Format is the requested output container
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatMP4 Format = "mp4"
	FormatWAV Format = "wav"
)

// ParseFormat validates a format name; an empty name means mp3
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatMP3, nil
	case FormatMP3, FormatMP4, FormatWAV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// IsAudio reports whether only the audio track is wanted
func (f Format) IsAudio() bool {
	return f != FormatMP4
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// TaskStatus represents the state of one item in a batch
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsFinished returns true for terminal states
func (s TaskStatus) IsFinished() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CanTransition reports whether moving from s to next is allowed.
// pending -> in_progress -> completed|failed, nothing leaves a terminal state.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusInProgress
	case TaskStatusInProgress:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	default:
		return false
	}
}

// DownloadTask tracks one reference through a batch run
type DownloadTask struct {
	CanonicalID    string     `json:"videoId"`
	Status         TaskStatus `json:"status"`
	Progress       int        `json:"progress"`
	OutputFilename string     `json:"filename,omitempty"`
	FailureReason  string     `json:"error,omitempty"`
}

// NewDownloadTask creates a pending task
func NewDownloadTask(id string) DownloadTask {
	return DownloadTask{CanonicalID: id, Status: TaskStatusPending}
}

// Transition moves the task to next, rejecting illegal moves
func (t *DownloadTask) Transition(next TaskStatus) error {
	if !t.Status.CanTransition(next) {
		return fmt.Errorf("task %s: illegal transition %s -> %s", t.CanonicalID, t.Status, next)
	}
	t.Status = next
	return nil
}

// ManifestEntry describes one completed download
type ManifestEntry struct {
	CanonicalID      string `json:"videoId"`
	OutputFilename   string `json:"filename"`
	RetrievalLocator string `json:"downloadUrl"`
	Title            string `json:"title,omitempty"`
	Artist           string `json:"artist,omitempty"`
	Format           Format `json:"format"`
}

// ProgressEvent is one snapshot pushed while a batch runs
type ProgressEvent struct {
	CanonicalID   string     `json:"videoId"`
	Index         int        `json:"index"`
	Total         int        `json:"total"`
	Status        TaskStatus `json:"status"`
	Progress      int        `json:"progress"`
	FailureReason string     `json:"error,omitempty"`
}

// BatchReport is the outcome of one batch run
type BatchReport struct {
	Tasks    []DownloadTask  `json:"tasks"`
	Manifest []ManifestEntry `json:"manifest"`
}

// Attempted returns the number of tasks in the batch
func (r *BatchReport) Attempted() int {
	return len(r.Tasks)
}

// Completed returns the number of completed tasks
func (r *BatchReport) Completed() int {
	return len(r.Manifest)
}

// Failed returns the number of tasks that reached the failed state
func (r *BatchReport) Failed() int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status == TaskStatusFailed {
			n++
		}
	}
	return n
}
