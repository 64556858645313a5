package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"songfetch/types"
)

// Fixed progress checkpoints. The retriever does not report bytes transferred,
// so the midpoint is a placeholder rather than a measurement.
const (
	progressStarted  = 25
	progressMidpoint = 50
	progressDone     = 100
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)
	nonIDChars      = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// NameHint overrides retriever metadata when naming a single download
type NameHint struct {
	Title  string
	Artist string
}

// Orchestrator runs batches of downloads one item at a time
type Orchestrator interface {
	RunBatch(ctx context.Context, refs []types.ParsedReference, format types.Format, onProgress func(types.ProgressEvent)) (*types.BatchReport, error)
	DownloadOne(ctx context.Context, id string, format types.Format, hint NameHint) (types.ManifestEntry, error)
}

// orchestrator implements the Orchestrator interface
type orchestrator struct {
	retriever Retriever
	store     AssetStore
	history   HistorySink
}

// NewOrchestrator creates an orchestrator. history may be nil.
func NewOrchestrator(retriever Retriever, store AssetStore, history HistorySink) Orchestrator {
	return &orchestrator{
		retriever: retriever,
		store:     store,
		history:   history,
	}
}

// batchRun owns the task table for one RunBatch call
type batchRun struct {
	tasks      []types.DownloadTask
	manifest   []types.ManifestEntry
	onProgress func(types.ProgressEvent)
}

func (b *batchRun) emit(i int) {
	if b.onProgress == nil {
		return
	}
	t := b.tasks[i]
	b.onProgress(types.ProgressEvent{
		CanonicalID:   t.CanonicalID,
		Index:         i,
		Total:         len(b.tasks),
		Status:        t.Status,
		Progress:      t.Progress,
		FailureReason: t.FailureReason,
	})
}

func (b *batchRun) report() *types.BatchReport {
	return &types.BatchReport{
		Tasks:    append([]types.DownloadTask(nil), b.tasks...),
		Manifest: append([]types.ManifestEntry{}, b.manifest...),
	}
}

// RunBatch downloads every valid reference in input order, never two at once.
// A failed item is recorded and the batch moves on. The context is only
// checked between items; on cancellation the remaining tasks stay pending and
// the partial report is returned with ctx.Err().
func (o *orchestrator) RunBatch(ctx context.Context, refs []types.ParsedReference, format types.Format, onProgress func(types.ProgressEvent)) (*types.BatchReport, error) {
	valid := ValidReferences(refs)
	if len(valid) == 0 {
		return &types.BatchReport{Tasks: []types.DownloadTask{}, Manifest: []types.ManifestEntry{}}, &ValidationError{Reason: "batch", Err: ErrNoValidReferences}
	}

	run := &batchRun{
		tasks:      make([]types.DownloadTask, len(valid)),
		onProgress: onProgress,
	}
	for i, ref := range valid {
		run.tasks[i] = types.NewDownloadTask(ref.CanonicalID)
	}

	for i := range run.tasks {
		if err := ctx.Err(); err != nil {
			log.Printf("[orchestrator] batch stopped before item %d/%d: %v", i+1, len(run.tasks), err)
			return run.report(), err
		}
		o.runTask(ctx, run, i, format)
	}

	report := run.report()
	log.Printf("[orchestrator] batch finished: %d/%d completed", report.Completed(), report.Attempted())
	return report, nil
}

func (o *orchestrator) runTask(ctx context.Context, run *batchRun, i int, format types.Format) {
	task := &run.tasks[i]

	if err := task.Transition(types.TaskStatusInProgress); err != nil {
		log.Printf("[orchestrator] %v", err)
		return
	}
	task.Progress = progressStarted
	run.emit(i)

	task.Progress = progressMidpoint
	run.emit(i)

	// The item runs to completion even if the batch is cancelled meanwhile
	entry, err := o.download(context.WithoutCancel(ctx), task.CanonicalID, format, NameHint{})
	if err != nil {
		// Progress is left where it was on failure
		task.FailureReason = err.Error()
		if terr := task.Transition(types.TaskStatusFailed); terr != nil {
			log.Printf("[orchestrator] %v", terr)
		}
		log.Printf("[orchestrator] %s failed: %v", task.CanonicalID, err)
		run.emit(i)
		return
	}

	if err := task.Transition(types.TaskStatusCompleted); err != nil {
		log.Printf("[orchestrator] %v", err)
		return
	}
	task.OutputFilename = entry.OutputFilename
	task.Progress = progressDone
	run.manifest = append(run.manifest, entry)
	run.emit(i)

	o.recordDownload(entry)
}

// DownloadOne runs the per-item download path outside of a batch
func (o *orchestrator) DownloadOne(ctx context.Context, id string, format types.Format, hint NameHint) (types.ManifestEntry, error) {
	if strings.TrimSpace(id) == "" {
		return types.ManifestEntry{}, &ValidationError{Reason: "video ID is required"}
	}
	entry, err := o.download(ctx, id, format, hint)
	if err != nil {
		return types.ManifestEntry{}, err
	}
	o.recordDownload(entry)
	return entry, nil
}

func (o *orchestrator) download(ctx context.Context, id string, format types.Format, hint NameHint) (types.ManifestEntry, error) {
	asset, err := o.retriever.FetchAsset(ctx, id, format)
	if err != nil {
		return types.ManifestEntry{}, asRetrievalError(id, err)
	}
	if asset == nil || asset.Body == nil {
		return types.ManifestEntry{}, &RetrievalError{CanonicalID: id, Err: errors.New("empty asset")}
	}
	defer asset.Body.Close()

	artist, title := asset.Artist, asset.Title
	if hint.Artist != "" && hint.Artist != UnknownArtist {
		artist = hint.Artist
	}
	if hint.Title != "" && hint.Title != UnknownTitle {
		title = hint.Title
	}

	filename := OutputFilename(id, artist, title, format)
	locator, err := o.store.Save(ctx, filename, asset.Body)
	if err != nil {
		return types.ManifestEntry{}, &RetrievalError{CanonicalID: id, Err: fmt.Errorf("save %s: %w", filename, err)}
	}
	if locator == "" {
		return types.ManifestEntry{}, &RetrievalError{CanonicalID: id, Err: ErrMissingLocator}
	}

	return types.ManifestEntry{
		CanonicalID:      id,
		OutputFilename:   StoredFilename(locator, filename),
		RetrievalLocator: locator,
		Title:            title,
		Artist:           artist,
		Format:           format,
	}, nil
}

func (o *orchestrator) recordDownload(entry types.ManifestEntry) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordDownload(entry); err != nil {
		log.Printf("[orchestrator] %v", &PersistenceError{Op: "record download", Err: err})
	}
}

func asRetrievalError(id string, err error) error {
	var re *RetrievalError
	if errors.As(err, &re) {
		return err
	}
	return &RetrievalError{CanonicalID: id, Err: err}
}

// OutputFilename builds "<artist>-<title>.<ext>" from sanitized metadata, or
// "<id>.<ext>" when artist or title is unknown.
func OutputFilename(id, artist, title string, format types.Format) string {
	safeArtist := sanitizeName(artist)
	safeTitle := sanitizeName(title)
	if artist == UnknownArtist || title == UnknownTitle || safeArtist == "" || safeTitle == "" {
		return nonIDChars.ReplaceAllString(id, "") + format.Extension()
	}
	return safeArtist + "-" + safeTitle + format.Extension()
}

func sanitizeName(s string) string {
	return strings.ToLower(nonAlphanumeric.ReplaceAllString(s, ""))
}
