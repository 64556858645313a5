package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"songfetch/types"
)

// DefaultYouTubeAPIBase is the YouTube Data API v3 root
const DefaultYouTubeAPIBase = "https://www.googleapis.com/youtube/v3"

// musicCategoryID is the YouTube video category for music
const musicCategoryID = "10"

// YouTubeSearchConfig configures the keyword search provider
type YouTubeSearchConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 means unlimited
}

// youtubeSearch implements KeywordSearcher against the YouTube Data API
type youtubeSearch struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewYouTubeSearch creates a KeywordSearcher
func NewYouTubeSearch(cfg YouTubeSearchConfig) KeywordSearcher {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultYouTubeAPIBase
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}
	return &youtubeSearch{
		apiKey:  cfg.APIKey,
		baseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

// Search returns up to maxResults music videos matching query
func (y *youtubeSearch) Search(ctx context.Context, query string, order types.SortOrder, maxResults int) ([]SearchHit, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("videoCategoryId", musicCategoryID)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("order", string(types.ParseSortOrder(string(order))))

	body, err := y.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	items := gjson.GetBytes(body, "items").Array()
	hits := make([]SearchHit, 0, len(items))
	for _, item := range items {
		id := item.Get("id.videoId").String()
		if id == "" {
			continue
		}
		snippet := item.Get("snippet")
		hits = append(hits, SearchHit{
			ID:           id,
			Title:        html.UnescapeString(snippet.Get("title").String()),
			ThumbnailURL: thumbnailURL(snippet.Get("thumbnails")),
			Description:  html.UnescapeString(snippet.Get("description").String()),
			PublishDate:  snippet.Get("publishedAt").String(),
		})
	}
	return hits, nil
}

// FetchDetails looks up duration and view count for all ids in one request
func (y *youtubeSearch) FetchDetails(ctx context.Context, ids []string) ([]VideoDetails, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", strings.Join(ids, ","))

	body, err := y.get(ctx, "/videos", params)
	if err != nil {
		return nil, err
	}

	items := gjson.GetBytes(body, "items").Array()
	details := make([]VideoDetails, 0, len(items))
	for _, item := range items {
		details = append(details, VideoDetails{
			ID:        item.Get("id").String(),
			Duration:  item.Get("contentDetails.duration").String(),
			ViewCount: item.Get("statistics.viewCount").Int(),
		})
	}
	return details, nil
}

func (y *youtubeSearch) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if y.apiKey == "" {
		return nil, fmt.Errorf("youtube: %w", ErrMissingCredentials)
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("youtube: rate limit: %w", err)
	}

	params.Set("key", y.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("youtube: build request: %w", err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("youtube: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("youtube: %s: %s", resp.Status, msg)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("youtube: invalid JSON from %s", path)
	}
	return body, nil
}

func thumbnailURL(thumbnails gjson.Result) string {
	if u := thumbnails.Get("high.url").String(); u != "" {
		return u
	}
	return thumbnails.Get("default.url").String()
}
