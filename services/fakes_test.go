package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"songfetch/types"
)

type fakeKeyword struct {
	mu       sync.Mutex
	hits     map[string][]SearchHit
	details  map[string]VideoDetails
	err      error
	errFor   map[string]error
	queries  []string
	orders   []types.SortOrder
	detailed [][]string
}

func newFakeKeyword() *fakeKeyword {
	return &fakeKeyword{
		hits:    map[string][]SearchHit{},
		details: map[string]VideoDetails{},
	}
}

func (f *fakeKeyword) Search(_ context.Context, query string, order types.SortOrder, _ int) ([]SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.orders = append(f.orders, order)
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.errFor[query]; ok {
		return nil, err
	}
	return f.hits[query], nil
}

func (f *fakeKeyword) FetchDetails(_ context.Context, ids []string) ([]VideoDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailed = append(f.detailed, ids)
	var out []VideoDetails
	for _, id := range ids {
		if d, ok := f.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeLyrics struct {
	song    *Song
	err     error
	queries []string
}

func (f *fakeLyrics) FindSong(_ context.Context, query string) (*Song, error) {
	f.queries = append(f.queries, query)
	return f.song, f.err
}

func (f *fakeLyrics) GetLyrics(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.song == nil {
		return "", nil
	}
	return f.song.Lyrics, nil
}

type fakeHistory struct {
	mu        sync.Mutex
	searches  []string
	downloads []types.ManifestEntry
	err       error
}

func (f *fakeHistory) RecordSearch(query string, _ types.SearchOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	return f.err
}

func (f *fakeHistory) RecordDownload(entry types.ManifestEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, entry)
	return f.err
}

// fakeRetriever serves "<id> body" for every id not listed in failures
type fakeRetriever struct {
	mu       sync.Mutex
	failures map[string]error
	titles   map[string][2]string // id -> artist, title
	fetched  []string
	active   int
	maxSeen  int
	onFetch  func(id string)
}

func (f *fakeRetriever) FetchAsset(_ context.Context, id string, _ types.Format) (*Asset, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.active++
	f.maxSeen = max(f.maxSeen, f.active)
	hook := f.onFetch
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if hook != nil {
		hook(id)
	}
	if err, ok := f.failures[id]; ok {
		return nil, err
	}
	artist, title := "Artist", "Song "+id
	if t, ok := f.titles[id]; ok {
		artist, title = t[0], t[1]
	}
	return &Asset{Artist: artist, Title: title, Body: io.NopCloser(strings.NewReader(id + " body"))}, nil
}

func (f *fakeRetriever) Lookup(_ context.Context, id string) (types.CanonicalTrack, error) {
	return types.CanonicalTrack{CanonicalID: id, Title: "Song " + id, Artist: "Artist"}, nil
}

func (f *fakeRetriever) OpenPreview(_ context.Context, id string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader(id)), "audio/webm", nil
}

// memoryStore keeps saved bodies in memory
type memoryStore struct {
	mu           sync.Mutex
	files        map[string]string
	emptyLocator bool
	err          error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: map[string]string{}}
}

func (m *memoryStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filename] = string(b)
	if m.emptyLocator {
		return "", nil
	}
	return DownloadURLPrefix + filename, nil
}

var errUnavailable = errors.New("video unavailable")
