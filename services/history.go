package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/keshon/datastore"

	"songfetch/types"
)

const (
	searchHistoryKey   = "searches"
	downloadHistoryKey = "downloads"

	// HistoryLimit caps each history list; older records are dropped
	HistoryLimit = 50
)

// HistoryStore persists recent searches and downloads in a JSON datastore
type HistoryStore struct {
	mu     sync.Mutex
	ds     *datastore.DataStore
	cancel context.CancelFunc
	now    func() time.Time
}

// NewHistoryStore opens (or creates) the history file at path
func NewHistoryStore(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &PersistenceError{Op: "open history", Err: fmt.Errorf("create directory: %w", err)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ds, err := datastore.New(ctx, path, datastore.WithSaveInterval(time.Minute))
	if err != nil {
		cancel()
		return nil, &PersistenceError{Op: "open history", Err: err}
	}
	return &HistoryStore{ds: ds, cancel: cancel, now: time.Now}, nil
}

// Close stops autosaving and flushes the datastore to disk. The autosave
// goroutine must be stopped first or the datastore's Close never returns.
func (h *HistoryStore) Close() error {
	h.cancel()
	return h.ds.Close()
}

// RecordSearch prepends a search to the history
func (h *HistoryStore) RecordSearch(query string, outcome types.SearchOutcome) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var records []types.SearchRecord
	if err := h.load(searchHistoryKey, &records); err != nil {
		return err
	}
	records = prepend(records, types.SearchRecord{
		Query:      query,
		Outcome:    outcome,
		SearchedAt: h.now(),
	})
	if err := h.ds.Set(searchHistoryKey, records); err != nil {
		return &PersistenceError{Op: "record search", Err: err}
	}
	return nil
}

// RecordDownload prepends a completed download to the history
func (h *HistoryStore) RecordDownload(entry types.ManifestEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var records []types.DownloadRecord
	if err := h.load(downloadHistoryKey, &records); err != nil {
		return err
	}
	records = prepend(records, types.DownloadRecord{
		VideoID:      entry.CanonicalID,
		Title:        entry.Title,
		Artist:       entry.Artist,
		Format:       entry.Format,
		Filename:     entry.OutputFilename,
		DownloadURL:  entry.RetrievalLocator,
		DownloadedAt: h.now(),
	})
	if err := h.ds.Set(downloadHistoryKey, records); err != nil {
		return &PersistenceError{Op: "record download", Err: err}
	}
	return nil
}

// SearchHistory returns recent searches, newest first
func (h *HistoryStore) SearchHistory() ([]types.SearchRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := []types.SearchRecord{}
	if err := h.load(searchHistoryKey, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DownloadHistory returns recent downloads, newest first
func (h *HistoryStore) DownloadHistory() ([]types.DownloadRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := []types.DownloadRecord{}
	if err := h.load(downloadHistoryKey, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// load decodes the value stored under key into out. A missing key leaves out
// untouched.
func (h *HistoryStore) load(key string, out any) error {
	if _, err := h.ds.Get(key, out); err != nil {
		return &PersistenceError{Op: "load " + key, Err: err}
	}
	return nil
}

func prepend[T any](records []T, record T) []T {
	out := make([]T, 0, min(len(records)+1, HistoryLimit))
	out = append(out, record)
	for _, r := range records {
		if len(out) == HistoryLimit {
			break
		}
		out = append(out, r)
	}
	return out
}
