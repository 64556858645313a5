package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArtistTitle(t *testing.T) {
	tests := []struct {
		raw    string
		artist string
		title  string
	}{
		{"Rick Astley - Never Gonna Give You Up (Official Video)", "Rick Astley", "Never Gonna Give You Up"},
		{"Imagine (John Lennon)", "John Lennon", "Imagine"},
		{"Queen - Bohemian Rhapsody", "Queen", "Bohemian Rhapsody"},
		{"Queen - Bohemian Rhapsody (Official Video)", "Queen", "Bohemian Rhapsody"},
		{"Daft Punk-Get Lucky", "Daft Punk", "Get Lucky"},
		{"Bohemian Rhapsody (Queen)", "Queen", "Bohemian Rhapsody"},
		{"Bohemian Rhapsody", UnknownArtist, "Bohemian Rhapsody"},
		{"", UnknownArtist, ""},
		// The heuristic does not know which side is the artist
		{"Bohemian Rhapsody - Queen", "Bohemian Rhapsody", "Queen"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			artist, title := SplitArtistTitle(tt.raw)
			assert.Equal(t, tt.artist, artist)
			assert.Equal(t, tt.title, title)
		})
	}
}
