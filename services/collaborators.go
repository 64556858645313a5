package services

import (
	"context"
	"io"

	"songfetch/types"
)

// Asset is a fetched media body plus the metadata the retriever knows about it
type Asset struct {
	Title  string
	Artist string
	Body   io.ReadCloser
}

// Retriever fetches media bytes and metadata from the catalog
type Retriever interface {
	FetchAsset(ctx context.Context, id string, format types.Format) (*Asset, error)
	Lookup(ctx context.Context, id string) (types.CanonicalTrack, error)
	OpenPreview(ctx context.Context, id string) (io.ReadCloser, string, error)
}

// SearchHit is one keyword search match
type SearchHit struct {
	ID           string
	Title        string
	ThumbnailURL string
	Description  string
	PublishDate  string
}

// VideoDetails carries the extended detail of one match
type VideoDetails struct {
	ID        string
	Duration  string
	ViewCount int64
}

// KeywordSearcher is the keyword search provider
type KeywordSearcher interface {
	Search(ctx context.Context, query string, order types.SortOrder, maxResults int) ([]SearchHit, error)
	FetchDetails(ctx context.Context, ids []string) ([]VideoDetails, error)
}

// Song is a lyric index match
type Song struct {
	Artist string
	Title  string
	Lyrics string
}

// LyricsFinder is the lyric/song index. FindSong returns a nil song when
// nothing matched.
type LyricsFinder interface {
	FindSong(ctx context.Context, query string) (*Song, error)
	GetLyrics(ctx context.Context, title, artist string) (string, error)
}

// HistorySink persists searches and downloads
type HistorySink interface {
	RecordSearch(query string, outcome types.SearchOutcome) error
	RecordDownload(entry types.ManifestEntry) error
}

// AssetStore persists fetched bytes and returns a locator for them
type AssetStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}
