package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"songfetch/config"
	"songfetch/services"
	"songfetch/types"
	"songfetch/websocket"
)

var errVideoUnavailable = errors.New("video unavailable")

// stubSearch answers keyword searches from a fixed table
type stubSearch struct {
	hits    map[string][]services.SearchHit
	details map[string]services.VideoDetails
	err     error
}

func (s *stubSearch) Search(_ context.Context, query string, _ types.SortOrder, _ int) ([]services.SearchHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hits[query], nil
}

func (s *stubSearch) FetchDetails(_ context.Context, ids []string) ([]services.VideoDetails, error) {
	var out []services.VideoDetails
	for _, id := range ids {
		if d, ok := s.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type stubLyrics struct {
	song *services.Song
}

func (s *stubLyrics) FindSong(context.Context, string) (*services.Song, error) {
	return s.song, nil
}

func (s *stubLyrics) GetLyrics(_ context.Context, title, _ string) (string, error) {
	if s.song == nil || !strings.EqualFold(s.song.Title, title) {
		return "", nil
	}
	return s.song.Lyrics, nil
}

// stubRetriever serves "<id> audio" for every id except those in failures
type stubRetriever struct {
	failures map[string]bool
}

func (s *stubRetriever) FetchAsset(_ context.Context, id string, _ types.Format) (*services.Asset, error) {
	if s.failures[id] {
		return nil, errVideoUnavailable
	}
	return &services.Asset{
		Title:  "Song " + id,
		Artist: "Artist",
		Body:   io.NopCloser(strings.NewReader(id + " audio")),
	}, nil
}

func (s *stubRetriever) Lookup(_ context.Context, id string) (types.CanonicalTrack, error) {
	if s.failures[id] {
		return types.CanonicalTrack{CanonicalID: id, Title: services.UnknownTitle, Artist: services.UnknownArtist}, nil
	}
	return types.CanonicalTrack{CanonicalID: id, Title: "Song " + id, Artist: "Artist", DurationSeconds: 200}, nil
}

func (s *stubRetriever) OpenPreview(_ context.Context, id string) (io.ReadCloser, string, error) {
	if s.failures[id] {
		return nil, "", &services.RetrievalError{CanonicalID: id, Err: errVideoUnavailable}
	}
	return io.NopCloser(strings.NewReader("preview " + id)), "audio/webm", nil
}

// TestHelper runs the full router against stub providers
type TestHelper struct {
	Server      *httptest.Server
	App         *App
	DownloadDir string
	Search      *stubSearch
	Lyrics      *stubLyrics
	Retriever   *stubRetriever
	Hub         websocket.Hub
}

// NewTestHelper creates a server with a temporary download location
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmp := t.TempDir()
	cfg := (&config.Config{
		GinMode:          gin.TestMode,
		DownloadLocation: filepath.Join(tmp, "downloads"),
		HistoryPath:      filepath.Join(tmp, "history.json"),
	}).WithSettingsPath(filepath.Join(tmp, "settings.json"))

	h := &TestHelper{
		DownloadDir: cfg.DownloadLocation,
		Search:      &stubSearch{hits: map[string][]services.SearchHit{}, details: map[string]services.VideoDetails{}},
		Lyrics:      &stubLyrics{},
		Retriever:   &stubRetriever{failures: map[string]bool{}},
	}

	history, err := services.NewHistoryStore(cfg.HistoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	app := &App{
		Config:    cfg,
		Retriever: h.Retriever,
		Lyrics:    h.Lyrics,
		Files:     services.NewFileService(),
		History:   history,
	}
	app.Resolver = services.NewResolver(h.Search, h.Lyrics, history)
	app.Orchestrator = services.NewOrchestrator(h.Retriever, services.NewDiskStore(cfg.DownloadDir), history)
	h.App = app

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.Hub = websocket.NewHub()
	go h.Hub.Run(ctx)
	jobQueue := services.NewJobQueue(app.Orchestrator, h.Hub)
	jobQueue.Start(ctx)

	h.Server = httptest.NewServer(NewRouter(app, jobQueue, h.Hub))
	t.Cleanup(h.Server.Close)
	return h
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (h *TestHelper) doJSON(t *testing.T, method, path string, body, target any) *http.Response {
	t.Helper()
	resp := h.MakeRequest(t, method, path, body)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if target != nil {
		require.NoError(t, json.Unmarshal(data, target), string(data))
	}
	return resp
}

// GetJSON makes a GET request and unmarshals the JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target any) *http.Response {
	return h.doJSON(t, http.MethodGet, path, nil, target)
}

// PostJSON makes a POST request with a JSON body and unmarshals the response
func (h *TestHelper) PostJSON(t *testing.T, path string, body, target any) *http.Response {
	return h.doJSON(t, http.MethodPost, path, body, target)
}

// WaitForJob polls a batch job until it reaches status or the timeout passes
func (h *TestHelper) WaitForJob(t *testing.T, jobID string, status types.JobStatus, timeout time.Duration) *types.BatchJob {
	t.Helper()
	var job *types.BatchJob
	require.Eventually(t, func() bool {
		resp, err := http.Get(h.Server.URL + "/api/downloads/jobs/" + jobID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		var response struct {
			Job *types.BatchJob `json:"job"`
		}
		if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&response) != nil {
			return false
		}
		job = response.Job
		return job != nil && job.Status == status
	}, timeout, 20*time.Millisecond)
	return job
}
