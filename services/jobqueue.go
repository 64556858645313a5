package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"songfetch/types"
	"songfetch/websocket"
)

// ErrQueueFull is returned when no more batch jobs can be queued
var ErrQueueFull = errors.New("download queue is full")

const queueCapacity = 100

// JobQueue runs batch downloads in the background, one job at a time
type JobQueue interface {
	Start(ctx context.Context)
	Submit(refs []types.ParsedReference, format types.Format) (*types.BatchJob, error)
	GetJob(id string) (*types.BatchJob, bool)
	GetAllJobs() []*types.BatchJob
	CancelJob(id string) bool
}

// jobQueue manages batch jobs
type jobQueue struct {
	jobs    map[string]*types.BatchJob
	cancels map[string]context.CancelFunc
	queue   chan string
	mu      sync.RWMutex

	orchestrator Orchestrator
	hub          websocket.Hub
	now          func() time.Time
}

// NewJobQueue creates a job queue. hub may be nil.
func NewJobQueue(orchestrator Orchestrator, hub websocket.Hub) JobQueue {
	return &jobQueue{
		jobs:         make(map[string]*types.BatchJob),
		cancels:      make(map[string]context.CancelFunc),
		queue:        make(chan string, queueCapacity),
		orchestrator: orchestrator,
		hub:          hub,
		now:          time.Now,
	}
}

// Submit queues a batch of references. Invalid references are dropped here so
// the job's task list matches what will run.
func (jq *jobQueue) Submit(refs []types.ParsedReference, format types.Format) (*types.BatchJob, error) {
	valid := ValidReferences(refs)
	if len(valid) == 0 {
		return nil, &ValidationError{Reason: "batch", Err: ErrNoValidReferences}
	}

	job := &types.BatchJob{
		ID:         uuid.New().String(),
		Status:     types.JobStatusQueued,
		Format:     format,
		References: valid,
		Tasks:      make([]types.DownloadTask, len(valid)),
		Manifest:   []types.ManifestEntry{},
		Attempted:  len(valid),
		CreatedAt:  jq.now(),
	}
	for i, ref := range valid {
		job.Tasks[i] = types.NewDownloadTask(ref.CanonicalID)
	}

	jq.mu.Lock()
	defer jq.mu.Unlock()

	select {
	case jq.queue <- job.ID:
	default:
		return nil, ErrQueueFull
	}
	jq.jobs[job.ID] = job
	log.Printf("[jobqueue] queued job %s with %d item(s)", job.ID, len(valid))
	return job.Snapshot(), nil
}

// GetJob returns a snapshot of a job
func (jq *jobQueue) GetJob(id string) (*types.BatchJob, bool) {
	jq.mu.RLock()
	defer jq.mu.RUnlock()
	job, exists := jq.jobs[id]
	if !exists {
		return nil, false
	}
	return job.Snapshot(), true
}

// GetAllJobs returns snapshots of all jobs, newest first
func (jq *jobQueue) GetAllJobs() []*types.BatchJob {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	jobs := make([]*types.BatchJob, 0, len(jq.jobs))
	for _, job := range jq.jobs {
		jobs = append(jobs, job.Snapshot())
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs
}

// CancelJob cancels a queued job outright, or asks a running one to stop
// after its current item. Finished jobs cannot be cancelled.
func (jq *jobQueue) CancelJob(id string) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists {
		return false
	}

	switch job.Status {
	case types.JobStatusQueued:
		job.Status = types.JobStatusCancelled
		now := jq.now()
		job.CompletedAt = &now
		jq.broadcast(types.ProgressMessage{JobID: id, Type: "status", Status: string(job.Status), Total: len(job.Tasks)})
		return true
	case types.JobStatusProcessing:
		if cancel, ok := jq.cancels[id]; ok {
			cancel()
			return true
		}
	}
	return false
}

// Start runs the single worker until ctx is done
func (jq *jobQueue) Start(ctx context.Context) {
	go jq.worker(ctx)
}

func (jq *jobQueue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-jq.queue:
			jq.process(ctx, id)
		}
	}
}

func (jq *jobQueue) process(parent context.Context, id string) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	job, ok := jq.begin(id, cancel)
	if !ok {
		return
	}

	report, err := jq.orchestrator.RunBatch(ctx, job.References, job.Format, func(ev types.ProgressEvent) {
		jq.applyProgress(id, ev)
	})
	jq.finish(id, report, err)
}

// begin moves a queued job to processing and returns a snapshot of it
func (jq *jobQueue) begin(id string, cancel context.CancelFunc) (*types.BatchJob, bool) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists || job.Status != types.JobStatusQueued {
		return nil, false
	}

	now := jq.now()
	job.Status = types.JobStatusProcessing
	job.StartedAt = &now
	jq.cancels[id] = cancel

	jq.broadcast(types.ProgressMessage{
		JobID:   id,
		Type:    "status",
		Status:  string(job.Status),
		Total:   len(job.Tasks),
		Message: fmt.Sprintf("Started downloading %d item(s)", len(job.Tasks)),
	})
	return job.Snapshot(), true
}

func (jq *jobQueue) applyProgress(id string, ev types.ProgressEvent) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists || ev.Index < 0 || ev.Index >= len(job.Tasks) {
		return
	}

	task := &job.Tasks[ev.Index]
	task.Status = ev.Status
	task.Progress = ev.Progress
	task.FailureReason = ev.FailureReason

	msgType := "progress"
	if ev.Status == types.TaskStatusFailed {
		msgType = "error"
	}
	jq.broadcast(types.ProgressMessage{
		JobID:         id,
		Type:          msgType,
		CanonicalID:   ev.CanonicalID,
		Status:        string(ev.Status),
		Progress:      ev.Progress,
		FailureReason: ev.FailureReason,
		Index:         ev.Index,
		Total:         ev.Total,
	})
}

// finish records the report and settles the job's final status
func (jq *jobQueue) finish(id string, report *types.BatchReport, runErr error) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	delete(jq.cancels, id)
	job, exists := jq.jobs[id]
	if !exists {
		return
	}

	if report != nil {
		job.Tasks = report.Tasks
		job.Manifest = report.Manifest
		job.Completed = report.Completed()
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		job.Status = types.JobStatusCancelled
	case runErr != nil:
		job.Status = types.JobStatusFailed
		job.Error = runErr.Error()
	case job.Completed == 0:
		job.Status = types.JobStatusFailed
		job.Error = "no items were downloaded"
	default:
		job.Status = types.JobStatusCompleted
	}
	now := jq.now()
	job.CompletedAt = &now

	log.Printf("[jobqueue] job %s %s: %d/%d completed", id, job.Status, job.Completed, job.Attempted)

	msgType := "complete"
	if job.Status != types.JobStatusCompleted {
		msgType = "error"
	}
	jq.broadcast(types.ProgressMessage{
		JobID:         id,
		Type:          msgType,
		Status:        string(job.Status),
		Progress:      100,
		FailureReason: job.Error,
		Total:         job.Attempted,
		Message:       fmt.Sprintf("Downloaded %d of %d item(s)", job.Completed, job.Attempted),
	})
}

// broadcast forwards msg to the hub. Callers hold jq.mu.
func (jq *jobQueue) broadcast(msg types.ProgressMessage) {
	if jq.hub == nil {
		return
	}
	jq.hub.BroadcastProgress(msg)
}
