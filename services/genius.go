package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// DefaultGeniusAPIBase is the Genius API root
const DefaultGeniusAPIBase = "https://api.genius.com"

var bracketed = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]`)

// GeniusConfig configures the lyric index
type GeniusConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// geniusClient implements LyricsFinder against the Genius API and song pages
type geniusClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGeniusClient creates a LyricsFinder
func NewGeniusClient(cfg GeniusConfig) LyricsFinder {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultGeniusAPIBase
	}
	return &geniusClient{
		apiKey:  cfg.APIKey,
		baseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// FindSong searches the index with query and returns the first song hit with
// its lyrics. A song whose lyrics page cannot be read is still returned.
func (g *geniusClient) FindSong(ctx context.Context, query string) (*Song, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("genius: %w", ErrMissingCredentials)
	}

	params := url.Values{}
	params.Set("q", query)
	body, err := g.get(ctx, g.baseURL+"/search?"+params.Encode(), true)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("genius: invalid JSON from search")
	}

	var hit gjson.Result
	for _, h := range gjson.GetBytes(body, "response.hits").Array() {
		if h.Get("type").String() == "song" {
			hit = h.Get("result")
			break
		}
	}
	if !hit.Exists() {
		return nil, nil
	}

	song := &Song{
		Artist: hit.Get("primary_artist.name").String(),
		Title:  hit.Get("title").String(),
	}
	if page := hit.Get("url").String(); page != "" {
		lyrics, err := g.fetchLyrics(ctx, page)
		if err != nil {
			log.Printf("[genius] lyrics page for %q: %v", song.Title, err)
		}
		song.Lyrics = lyrics
	}
	return song, nil
}

// GetLyrics returns the lyrics for a known title and artist, or "" when the
// index has no match
func (g *geniusClient) GetLyrics(ctx context.Context, title, artist string) (string, error) {
	song, err := g.FindSong(ctx, optimizeQuery(title, artist))
	if err != nil {
		return "", err
	}
	if song == nil {
		return "", nil
	}
	return song.Lyrics, nil
}

// optimizeQuery drops bracketed noise like "(Official Video)" and joins title
// and artist
func optimizeQuery(title, artist string) string {
	title = bracketed.ReplaceAllString(title, "")
	artist = bracketed.ReplaceAllString(artist, "")
	return strings.ToLower(strings.Join(strings.Fields(title+" "+artist), " "))
}

func (g *geniusClient) get(ctx context.Context, target string, auth bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("genius: build request: %w", err)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genius: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("genius: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genius: %s", resp.Status)
	}
	return body, nil
}

func (g *geniusClient) fetchLyrics(ctx context.Context, page string) (string, error) {
	body, err := g.get(ctx, page, false)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("genius: parse lyrics page: %w", err)
	}
	return extractLyrics(doc), nil
}

// extractLyrics collects the text of every lyrics container on a song page
func extractLyrics(doc *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && attr(n, "data-lyrics-container") == "true" {
			var b strings.Builder
			collectText(n, &b)
			parts = append(parts, strings.TrimSpace(b.String()))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func collectText(n *html.Node, b *strings.Builder) {
	switch {
	case n.Type == html.TextNode:
		b.WriteString(n.Data)
	case n.Type == html.ElementNode && n.Data == "br":
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
