package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"songfetch/types"
)

// MaxKeywordResults is the number of matches requested from the keyword provider
const MaxKeywordResults = 10

// lyricsWordThreshold is the word count a query must exceed to look like lyrics
const lyricsWordThreshold = 3

// Resolver turns a free-text query into a canonical result set
type Resolver interface {
	Resolve(ctx context.Context, query string, order types.SortOrder) (types.SearchOutcome, error)
}

type resolverState int

const (
	stateNotTried resolverState = iota
	stateLyricsTried
	stateKeywordTried
)

func (s resolverState) String() string {
	switch s {
	case stateNotTried:
		return "not_tried"
	case stateLyricsTried:
		return "lyrics_tried"
	case stateKeywordTried:
		return "keyword_tried"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// resolver implements the Resolver interface
type resolver struct {
	keyword KeywordSearcher
	lyrics  LyricsFinder
	history HistorySink
}

// NewResolver creates a resolver. lyrics and history may be nil.
func NewResolver(keyword KeywordSearcher, lyrics LyricsFinder, history HistorySink) Resolver {
	return &resolver{
		keyword: keyword,
		lyrics:  lyrics,
		history: history,
	}
}

// LooksLikeLyrics reports whether the lyrics strategy should run first
func LooksLikeLyrics(query string) bool {
	return strings.Contains(strings.TrimSpace(query), " ") && len(strings.Fields(query)) > lyricsWordThreshold
}

// Resolve walks the strategies NotTried -> LyricsTried -> KeywordTried and
// returns the first non-empty outcome. A keyword provider failure is a
// ProviderUnavailable error; an empty keyword result is NoMatches, returned
// along with the empty outcome.
func (r *resolver) Resolve(ctx context.Context, query string, order types.SortOrder) (types.SearchOutcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.SearchOutcome{}, &ValidationError{Reason: "search query is required"}
	}

	state := stateNotTried
	for {
		switch state {
		case stateNotTried:
			state = stateLyricsTried
			if r.lyrics == nil || !LooksLikeLyrics(query) {
				continue
			}
			outcome, ok := r.resolveByLyrics(ctx, query, order)
			if ok {
				r.recordSearch(query, outcome)
				return outcome, nil
			}

		case stateLyricsTried:
			state = stateKeywordTried
			outcome, err := r.resolveByKeyword(ctx, query, order)
			if err != nil {
				return types.SearchOutcome{}, &ResolutionError{Kind: ProviderUnavailable, Query: query, Err: err}
			}
			if outcome.Empty() {
				return outcome, &ResolutionError{Kind: NoMatches, Query: query}
			}
			r.recordSearch(query, outcome)
			return outcome, nil

		default:
			return types.SearchOutcome{}, fmt.Errorf("resolver: unexpected state %s", state)
		}
	}
}

// resolveByLyrics never fails; any problem just means "no result here"
func (r *resolver) resolveByLyrics(ctx context.Context, query string, order types.SortOrder) (types.SearchOutcome, bool) {
	song, err := r.lyrics.FindSong(ctx, query)
	if err != nil {
		log.Printf("[resolver] lyrics lookup failed for %q: %v", query, err)
		return types.SearchOutcome{}, false
	}
	if song == nil {
		return types.SearchOutcome{}, false
	}

	derived := strings.TrimSpace(song.Artist + " " + song.Title)
	outcome, err := r.resolveByKeyword(ctx, derived, order)
	if err != nil {
		log.Printf("[resolver] keyword search for lyrics match %q failed: %v", derived, err)
		return types.SearchOutcome{}, false
	}
	if outcome.Empty() {
		return types.SearchOutcome{}, false
	}

	primary := outcome.Primary.WithLyrics(song.Lyrics)
	outcome.Primary = &primary
	outcome.Strategy = types.StrategyLyrics
	return outcome, true
}

func (r *resolver) resolveByKeyword(ctx context.Context, query string, order types.SortOrder) (types.SearchOutcome, error) {
	hits, err := r.keyword.Search(ctx, query, order, MaxKeywordResults)
	if err != nil {
		return types.SearchOutcome{}, fmt.Errorf("keyword search: %w", err)
	}
	if len(hits) == 0 {
		return types.SearchOutcome{Strategy: types.StrategyKeyword}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}
	details, err := r.keyword.FetchDetails(ctx, ids)
	if err != nil {
		return types.SearchOutcome{}, fmt.Errorf("fetch details: %w", err)
	}

	return buildOutcome(hits, details), nil
}

// buildOutcome merges search hits with their details by id, keeping the
// provider's ordering. Hits with no details get zero duration and views.
func buildOutcome(hits []SearchHit, details []VideoDetails) types.SearchOutcome {
	byID := make(map[string]VideoDetails, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	tracks := make([]types.CanonicalTrack, 0, len(hits))
	for _, hit := range hits {
		artist, title := SplitArtistTitle(hit.Title)
		d := byID[hit.ID]
		tracks = append(tracks, types.CanonicalTrack{
			CanonicalID:     hit.ID,
			Title:           title,
			Artist:          artist,
			ThumbnailURL:    hit.ThumbnailURL,
			DurationSeconds: DecodeDuration(d.Duration),
			ViewCount:       max(d.ViewCount, 0),
			Description:     hit.Description,
			PublishDate:     hit.PublishDate,
		})
	}

	outcome := types.SearchOutcome{
		Alternatives: []types.CanonicalTrack{},
		Strategy:     types.StrategyKeyword,
	}
	if len(tracks) == 0 {
		return outcome
	}
	primary := tracks[0]
	outcome.Primary = &primary
	outcome.Alternatives = tracks[1:]
	return outcome
}

func (r *resolver) recordSearch(query string, outcome types.SearchOutcome) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordSearch(query, outcome); err != nil {
		log.Printf("[resolver] %v", &PersistenceError{Op: "record search", Err: err})
	}
}
