package types

import "time"

// SearchRecord is one stored search
type SearchRecord struct {
	Query      string        `json:"query"`
	Outcome    SearchOutcome `json:"results"`
	SearchedAt time.Time     `json:"searchDate"`
}

// DownloadRecord is one stored download
type DownloadRecord struct {
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Format       Format    `json:"format"`
	Filename     string    `json:"filename"`
	DownloadURL  string    `json:"downloadUrl"`
	DownloadedAt time.Time `json:"downloadDate"`
}
