package types

import "time"

// JobStatus represents the current status of a batch job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// BatchJob represents a queued bulk download
type BatchJob struct {
	ID          string            `json:"id"`
	Status      JobStatus         `json:"status"`
	Format      Format            `json:"format"`
	References  []ParsedReference `json:"-"`
	Tasks       []DownloadTask    `json:"tasks"`
	Manifest    []ManifestEntry   `json:"manifest"`
	Attempted   int               `json:"attempted"`
	Completed   int               `json:"completed"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// Snapshot returns a copy that shares no slices with the job
func (j *BatchJob) Snapshot() *BatchJob {
	cp := *j
	cp.References = append([]ParsedReference(nil), j.References...)
	cp.Tasks = append([]DownloadTask(nil), j.Tasks...)
	cp.Manifest = append([]ManifestEntry{}, j.Manifest...)
	return &cp
}
