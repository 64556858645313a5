package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songfetch/types"
)

type eventLog struct {
	mu     sync.Mutex
	events []types.ProgressEvent
}

func (l *eventLog) record(ev types.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) forID(id string) []types.ProgressEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []types.ProgressEvent
	for _, ev := range l.events {
		if ev.CanonicalID == id {
			out = append(out, ev)
		}
	}
	return out
}

func TestRunBatchSecondItemFails(t *testing.T) {
	retriever := &fakeRetriever{failures: map[string]error{"bbbbbbbbbbb": errUnavailable}}
	store := newMemoryStore()
	history := &fakeHistory{}
	events := &eventLog{}

	refs := ParseReferences("aaaaaaaaaaa bbbbbbbbbbb ccccccccccc")
	report, err := NewOrchestrator(retriever, store, history).RunBatch(context.Background(), refs, types.FormatMP3, events.record)

	require.NoError(t, err)
	require.Len(t, report.Tasks, 3)
	assert.Equal(t, types.TaskStatusCompleted, report.Tasks[0].Status)
	assert.Equal(t, types.TaskStatusFailed, report.Tasks[1].Status)
	assert.Equal(t, types.TaskStatusCompleted, report.Tasks[2].Status)

	assert.Contains(t, report.Tasks[1].FailureReason, "video unavailable")
	assert.Equal(t, progressMidpoint, report.Tasks[1].Progress, "progress is left where it was")
	assert.Equal(t, progressDone, report.Tasks[0].Progress)

	require.Len(t, report.Manifest, 2)
	assert.Equal(t, "aaaaaaaaaaa", report.Manifest[0].CanonicalID)
	assert.Equal(t, "ccccccccccc", report.Manifest[1].CanonicalID)
	assert.Equal(t, 3, report.Attempted())
	assert.Equal(t, 2, report.Completed())
	assert.Equal(t, 1, report.Failed())

	assert.Equal(t, []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"}, retriever.fetched)
	assert.Equal(t, 1, retriever.maxSeen, "never two downloads at once")
	assert.Len(t, history.downloads, 2)
	assert.Len(t, store.files, 2)
}

func TestRunBatchProgressEvents(t *testing.T) {
	retriever := &fakeRetriever{failures: map[string]error{"bbbbbbbbbbb": errUnavailable}}
	events := &eventLog{}

	refs := ParseReferences("aaaaaaaaaaa bbbbbbbbbbb")
	_, err := NewOrchestrator(retriever, newMemoryStore(), nil).RunBatch(context.Background(), refs, types.FormatMP3, events.record)
	require.NoError(t, err)

	ok := events.forID("aaaaaaaaaaa")
	require.Len(t, ok, 3)
	assert.Equal(t, []int{25, 50, 100}, []int{ok[0].Progress, ok[1].Progress, ok[2].Progress})
	assert.Equal(t, types.TaskStatusInProgress, ok[0].Status)
	assert.Equal(t, types.TaskStatusCompleted, ok[2].Status)
	assert.Equal(t, 0, ok[0].Index)
	assert.Equal(t, 2, ok[0].Total)

	failed := events.forID("bbbbbbbbbbb")
	require.Len(t, failed, 3)
	last := failed[2]
	assert.Equal(t, types.TaskStatusFailed, last.Status)
	assert.Equal(t, 50, last.Progress)
	assert.NotEmpty(t, last.FailureReason)
	assert.Equal(t, 1, last.Index)
}

func TestRunBatchFiltersInvalidReferences(t *testing.T) {
	retriever := &fakeRetriever{}

	refs := ParseReferences("nope aaaaaaaaaaa also-nope")
	report, err := NewOrchestrator(retriever, newMemoryStore(), nil).RunBatch(context.Background(), refs, types.FormatMP3, nil)

	require.NoError(t, err)
	require.Len(t, report.Tasks, 1)
	assert.Equal(t, "aaaaaaaaaaa", report.Tasks[0].CanonicalID)
}

func TestRunBatchNoValidReferences(t *testing.T) {
	retriever := &fakeRetriever{}

	report, err := NewOrchestrator(retriever, newMemoryStore(), nil).RunBatch(context.Background(), ParseReferences("nope"), types.FormatMP3, nil)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.ErrorIs(t, err, ErrNoValidReferences)
	assert.Empty(t, report.Tasks)
	assert.Empty(t, retriever.fetched)
}

func TestRunBatchCancellationBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	retriever := &fakeRetriever{onFetch: func(id string) {
		if id == "aaaaaaaaaaa" {
			cancel()
		}
	}}

	refs := ParseReferences("aaaaaaaaaaa bbbbbbbbbbb ccccccccccc")
	report, err := NewOrchestrator(retriever, newMemoryStore(), nil).RunBatch(ctx, refs, types.FormatMP3, nil)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Tasks, 3)
	assert.Equal(t, []string{"aaaaaaaaaaa"}, retriever.fetched)
	assert.Equal(t, types.TaskStatusCompleted, report.Tasks[0].Status)
	assert.Equal(t, types.TaskStatusPending, report.Tasks[1].Status)
	assert.Equal(t, types.TaskStatusPending, report.Tasks[2].Status)
}

func TestRunBatchCancellationLetsCurrentItemFinish(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Cancel after the stream is open but before the disk store copies it
	retriever := &fakeRetriever{onFetch: func(id string) {
		if id == "aaaaaaaaaaa" {
			cancel()
		}
	}}
	events := &eventLog{}

	refs := ParseReferences("aaaaaaaaaaa bbbbbbbbbbb")
	report, err := NewOrchestrator(retriever, NewDiskStore(func() string { return dir }), nil).RunBatch(ctx, refs, types.FormatMP3, events.record)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Tasks, 2)
	first := report.Tasks[0]
	assert.Equal(t, types.TaskStatusCompleted, first.Status)
	assert.Equal(t, 100, first.Progress)
	assert.Empty(t, first.FailureReason)
	assert.FileExists(t, filepath.Join(dir, "artist-songaaaaaaaaaaa.mp3"))
	assert.Equal(t, types.TaskStatusPending, report.Tasks[1].Status)
	assert.Equal(t, 1, report.Completed())
	assert.Equal(t, 0, report.Failed())
}

func TestRunBatchSameNameDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	retriever := &fakeRetriever{titles: map[string][2]string{
		"aaaaaaaaaaa": {"Queen", "Bohemian Rhapsody"},
		"bbbbbbbbbbb": {"Queen", "Bohemian Rhapsody"},
	}}

	report, err := NewOrchestrator(retriever, NewDiskStore(func() string { return dir }), nil).RunBatch(context.Background(), ParseReferences("aaaaaaaaaaa bbbbbbbbbbb"), types.FormatMP3, nil)

	require.NoError(t, err)
	require.Len(t, report.Manifest, 2)
	assert.Equal(t, "queen-bohemianrhapsody.mp3", report.Manifest[0].OutputFilename)
	assert.Equal(t, "queen-bohemianrhapsody-2.mp3", report.Manifest[1].OutputFilename)
	assert.Equal(t, DownloadURLPrefix+"queen-bohemianrhapsody-2.mp3", report.Manifest[1].RetrievalLocator)
	assert.Equal(t, "queen-bohemianrhapsody-2.mp3", report.Tasks[1].OutputFilename)
	assert.FileExists(t, filepath.Join(dir, "queen-bohemianrhapsody.mp3"))
	assert.FileExists(t, filepath.Join(dir, "queen-bohemianrhapsody-2.mp3"))
}

func TestRunBatchMissingLocatorFailsItem(t *testing.T) {
	store := newMemoryStore()
	store.emptyLocator = true

	report, err := NewOrchestrator(&fakeRetriever{}, store, nil).RunBatch(context.Background(), ParseReferences("aaaaaaaaaaa"), types.FormatWAV, nil)

	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusFailed, report.Tasks[0].Status)
	assert.Contains(t, report.Tasks[0].FailureReason, ErrMissingLocator.Error())
	assert.Empty(t, report.Manifest)
}

func TestRunBatchHistoryFailureDoesNotFailItem(t *testing.T) {
	history := &fakeHistory{err: errors.New("disk full")}

	report, err := NewOrchestrator(&fakeRetriever{}, newMemoryStore(), history).RunBatch(context.Background(), ParseReferences("aaaaaaaaaaa"), types.FormatMP3, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Completed())
}

func TestDownloadOneUsesHint(t *testing.T) {
	store := newMemoryStore()
	history := &fakeHistory{}
	orch := NewOrchestrator(&fakeRetriever{}, store, history)

	entry, err := orch.DownloadOne(context.Background(), "aaaaaaaaaaa", types.FormatMP4, NameHint{Title: "Get Lucky", Artist: "Daft Punk"})

	require.NoError(t, err)
	assert.Equal(t, "daftpunk-getlucky.mp4", entry.OutputFilename)
	assert.Equal(t, DownloadURLPrefix+"daftpunk-getlucky.mp4", entry.RetrievalLocator)
	assert.Equal(t, "aaaaaaaaaaa body", store.files["daftpunk-getlucky.mp4"])
	assert.Len(t, history.downloads, 1)
}

func TestDownloadOneRetrievalError(t *testing.T) {
	orch := NewOrchestrator(&fakeRetriever{failures: map[string]error{"aaaaaaaaaaa": errUnavailable}}, newMemoryStore(), nil)

	_, err := orch.DownloadOne(context.Background(), "aaaaaaaaaaa", types.FormatMP3, NameHint{})

	var retrieval *RetrievalError
	require.ErrorAs(t, err, &retrieval)
	assert.Equal(t, "aaaaaaaaaaa", retrieval.CanonicalID)
	assert.ErrorIs(t, err, errUnavailable)
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		artist string
		title  string
		format types.Format
		want   string
	}{
		{"sanitized", "aaaaaaaaaaa", "Rick Astley", "Never Gonna Give You Up!", types.FormatMP3, "rickastley-nevergonnagiveyouup.mp3"},
		{"unknown artist", "aaaaaaaaaaa", UnknownArtist, "Song", types.FormatWAV, "aaaaaaaaaaa.wav"},
		{"unknown title", "aaaaaaaaaaa", "Queen", UnknownTitle, types.FormatMP4, "aaaaaaaaaaa.mp4"},
		{"nothing left after sanitizing", "a-b_c-d_e-f", "ドリカム", "未来予想図", types.FormatMP3, "a-b_c-d_e-f.mp3"},
		{"id stem is sanitized", "ab/cd..efgh", UnknownArtist, "x", types.FormatMP3, "abcdefgh.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputFilename(tt.id, tt.artist, tt.title, tt.format))
		})
	}
}
