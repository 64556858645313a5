package services

import (
	"regexp"
	"strings"
)

// UnknownArtist is used when no artist can be read from a title
const UnknownArtist = "Unknown Artist"

// UnknownTitle is used when the catalog has no title for an item
const UnknownTitle = "Unknown Title"

type titleRule struct {
	name    string
	pattern *regexp.Regexp
	// artistGroup and titleGroup index the submatches
	artistGroup int
	titleGroup  int
}

// titleRules are tried in order; the first match wins
var titleRules = []titleRule{
	{
		name:        "artist-dash-title",
		pattern:     regexp.MustCompile(`^(.*?)\s*-\s*(.*?)(?:\s*\(.*?\))?$`),
		artistGroup: 1,
		titleGroup:  2,
	},
	{
		name:        "title-paren-artist",
		pattern:     regexp.MustCompile(`^(.*?)\s*\(\s*(.*?)\s*\)`),
		artistGroup: 2,
		titleGroup:  1,
	},
}

// SplitArtistTitle guesses artist and title from a display string such as
// "Artist - Title (Official Video)" or "Title (Artist)".
//
// This is a best-effort heuristic. It does not check that it picked the
// right side, so "Title - Artist" comes back reversed.
func SplitArtistTitle(raw string) (artist, title string) {
	for _, rule := range titleRules {
		if artist, title, ok := rule.apply(raw); ok {
			return artist, title
		}
	}
	return UnknownArtist, raw
}

func (r titleRule) apply(raw string) (string, string, bool) {
	m := r.pattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[r.artistGroup]), strings.TrimSpace(m[r.titleGroup]), true
}
