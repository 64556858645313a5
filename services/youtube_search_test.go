package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songfetch/types"
)

const searchResponse = `{
  "items": [
    {
      "id": {"kind": "youtube#video", "videoId": "aaaaaaaaaaa"},
      "snippet": {
        "title": "Queen &amp; David Bowie - Under Pressure",
        "description": "Official",
        "publishedAt": "2008-08-01T00:00:00Z",
        "thumbnails": {"default": {"url": "https://i.ytimg.com/d.jpg"}, "high": {"url": "https://i.ytimg.com/h.jpg"}}
      }
    },
    {
      "id": {"kind": "youtube#channel", "channelId": "x"},
      "snippet": {"title": "channel"}
    },
    {
      "id": {"kind": "youtube#video", "videoId": "bbbbbbbbbbb"},
      "snippet": {"title": "Imagine", "thumbnails": {"default": {"url": "https://i.ytimg.com/b.jpg"}}}
    }
  ]
}`

const videosResponse = `{
  "items": [
    {"id": "aaaaaaaaaaa", "contentDetails": {"duration": "PT4M8S"}, "statistics": {"viewCount": "123456"}},
    {"id": "bbbbbbbbbbb", "contentDetails": {"duration": "PT3M"}, "statistics": {}}
  ]
}`

func newSearchServer(t *testing.T, requests *[]*http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			w.Write([]byte(searchResponse))
		case "/videos":
			w.Write([]byte(videosResponse))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYouTubeSearch(t *testing.T) {
	var requests []*http.Request
	srv := newSearchServer(t, &requests)
	search := NewYouTubeSearch(YouTubeSearchConfig{APIKey: "key", BaseURL: srv.URL, Timeout: time.Second})

	hits, err := search.Search(context.Background(), "under pressure", types.SortDate, 10)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, SearchHit{
		ID:           "aaaaaaaaaaa",
		Title:        "Queen & David Bowie - Under Pressure",
		ThumbnailURL: "https://i.ytimg.com/h.jpg",
		Description:  "Official",
		PublishDate:  "2008-08-01T00:00:00Z",
	}, hits[0])
	assert.Equal(t, "https://i.ytimg.com/b.jpg", hits[1].ThumbnailURL)

	require.Len(t, requests, 1)
	q := requests[0].URL.Query()
	assert.Equal(t, "under pressure", q.Get("q"))
	assert.Equal(t, "video", q.Get("type"))
	assert.Equal(t, "10", q.Get("videoCategoryId"))
	assert.Equal(t, "10", q.Get("maxResults"))
	assert.Equal(t, "date", q.Get("order"))
	assert.Equal(t, "key", q.Get("key"))
}

func TestYouTubeFetchDetails(t *testing.T) {
	var requests []*http.Request
	srv := newSearchServer(t, &requests)
	search := NewYouTubeSearch(YouTubeSearchConfig{APIKey: "key", BaseURL: srv.URL})

	details, err := search.FetchDetails(context.Background(), []string{"aaaaaaaaaaa", "bbbbbbbbbbb"})

	require.NoError(t, err)
	assert.Equal(t, []VideoDetails{
		{ID: "aaaaaaaaaaa", Duration: "PT4M8S", ViewCount: 123456},
		{ID: "bbbbbbbbbbb", Duration: "PT3M", ViewCount: 0},
	}, details)
	require.Len(t, requests, 1)
	assert.Equal(t, "aaaaaaaaaaa,bbbbbbbbbbb", requests[0].URL.Query().Get("id"))
	assert.Equal(t, "snippet,contentDetails,statistics", requests[0].URL.Query().Get("part"))
}

func TestYouTubeSearchMissingKey(t *testing.T) {
	var requests []*http.Request
	srv := newSearchServer(t, &requests)
	search := NewYouTubeSearch(YouTubeSearchConfig{BaseURL: srv.URL})

	_, err := search.Search(context.Background(), "x", types.SortRelevance, 10)

	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Empty(t, requests)
}

func TestYouTubeSearchProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "quotaExceeded"}}`))
	}))
	defer srv.Close()
	search := NewYouTubeSearch(YouTubeSearchConfig{APIKey: "key", BaseURL: srv.URL})

	_, err := search.Search(context.Background(), "x", types.SortRelevance, 10)

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quotaExceeded"))
}
