package types

// SortOrder controls keyword search ordering
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortDate      SortOrder = "date"
)

// ParseSortOrder maps a caller-supplied sort option, defaulting to relevance
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortDate {
		return SortDate
	}
	return SortRelevance
}

// Strategy names the resolver strategy that produced an outcome
type Strategy string

const (
	StrategyLyrics  Strategy = "lyrics"
	StrategyKeyword Strategy = "keyword"
)

// CanonicalTrack is one resolved media record. Treat it as a value; it is
// never modified once built.
type CanonicalTrack struct {
	CanonicalID     string `json:"videoId"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	DurationSeconds int    `json:"duration"`
	ViewCount       int64  `json:"views"`
	Description     string `json:"description,omitempty"`
	PublishDate     string `json:"publishDate,omitempty"`
	Lyrics          string `json:"lyrics,omitempty"`
}

// WithLyrics returns a copy of the track carrying the given lyrics
func (t CanonicalTrack) WithLyrics(lyrics string) CanonicalTrack {
	t.Lyrics = lyrics
	return t
}

// SearchOutcome is the canonical result set of one resolution
type SearchOutcome struct {
	Primary      *CanonicalTrack  `json:"mainResult"`
	Alternatives []CanonicalTrack `json:"otherResults"`
	Strategy     Strategy         `json:"strategy,omitempty"`
}

// Empty reports whether no provider returned any match
func (o SearchOutcome) Empty() bool {
	return o.Primary == nil
}
