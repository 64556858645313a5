package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"songfetch/types"
)

// youtubeRetriever implements Retriever on top of kkdai/youtube
type youtubeRetriever struct {
	client *youtube.Client
}

// NewYouTubeRetriever creates a Retriever. timeout bounds how long the
// catalog may take to start answering a request; streaming itself is not
// cut off.
func NewYouTubeRetriever(timeout time.Duration) Retriever {
	return &youtubeRetriever{
		client: &youtube.Client{
			HTTPClient: &http.Client{
				Transport: &http.Transport{
					Proxy:                 http.ProxyFromEnvironment,
					ResponseHeaderTimeout: timeout,
				},
			},
		},
	}
}

// FetchAsset opens the best stream for the requested format
func (r *youtubeRetriever) FetchAsset(ctx context.Context, id string, format types.Format) (*Asset, error) {
	video, err := r.client.GetVideoContext(ctx, id)
	if err != nil {
		return nil, &RetrievalError{CanonicalID: id, Err: fmt.Errorf("get video: %w", err)}
	}

	f, err := selectFormat(video, format)
	if err != nil {
		return nil, &RetrievalError{CanonicalID: id, Err: err}
	}

	stream, _, err := r.client.GetStreamContext(ctx, video, f)
	if err != nil {
		return nil, &RetrievalError{CanonicalID: id, Err: fmt.Errorf("start stream: %w", err)}
	}

	artist, title := SplitArtistTitle(video.Title)
	log.Printf("[retriever] streaming %s (%s, itag %d) as %s", id, f.MimeType, f.ItagNo, format)
	return &Asset{Title: title, Artist: artist, Body: stream}, nil
}

// Lookup returns the catalog metadata for id. When the lookup fails a
// minimal track is returned instead of an error.
func (r *youtubeRetriever) Lookup(ctx context.Context, id string) (types.CanonicalTrack, error) {
	video, err := r.client.GetVideoContext(ctx, id)
	if err != nil {
		log.Printf("[retriever] lookup %s failed: %v", id, err)
		return types.CanonicalTrack{
			CanonicalID: id,
			Title:       UnknownTitle,
			Artist:      UnknownArtist,
		}, nil
	}
	return trackFromVideo(video), nil
}

// OpenPreview opens an audio-only stream for playback and returns its MIME type
func (r *youtubeRetriever) OpenPreview(ctx context.Context, id string) (io.ReadCloser, string, error) {
	video, err := r.client.GetVideoContext(ctx, id)
	if err != nil {
		return nil, "", &RetrievalError{CanonicalID: id, Err: fmt.Errorf("get video: %w", err)}
	}

	f, err := selectFormat(video, types.FormatMP3)
	if err != nil {
		return nil, "", &RetrievalError{CanonicalID: id, Err: err}
	}

	stream, _, err := r.client.GetStreamContext(ctx, video, f)
	if err != nil {
		return nil, "", &RetrievalError{CanonicalID: id, Err: fmt.Errorf("start stream: %w", err)}
	}
	return stream, mimeType(f.MimeType), nil
}

func trackFromVideo(video *youtube.Video) types.CanonicalTrack {
	artist, title := SplitArtistTitle(video.Title)

	track := types.CanonicalTrack{
		CanonicalID:     video.ID,
		Title:           title,
		Artist:          artist,
		DurationSeconds: int(video.Duration.Seconds()),
		ViewCount:       int64(max(video.Views, 0)),
		Description:     video.Description,
	}
	if len(video.Thumbnails) > 0 {
		track.ThumbnailURL = video.Thumbnails[0].URL
	}
	if !video.PublishDate.IsZero() {
		track.PublishDate = video.PublishDate.Format(time.RFC3339)
	}
	return track
}

// selectFormat picks the highest bitrate audio-only format for audio output,
// or the tallest progressive format for mp4
func selectFormat(video *youtube.Video, format types.Format) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range video.Formats {
		f := &video.Formats[i]
		if f.AudioChannels == 0 {
			continue
		}

		if format.IsAudio() {
			if f.Width != 0 || f.Height != 0 {
				continue
			}
			if best == nil || f.Bitrate > best.Bitrate {
				best = f
			}
			continue
		}

		if f.Width == 0 || f.Height == 0 || !strings.HasPrefix(f.MimeType, "video/mp4") {
			continue
		}
		if best == nil || f.Height > best.Height || (f.Height == best.Height && f.Bitrate > best.Bitrate) {
			best = f
		}
	}

	if best == nil {
		if format.IsAudio() {
			return nil, errors.New("no audio-only formats available")
		}
		return nil, errors.New("no progressive mp4 formats available")
	}
	return best, nil
}

func mimeType(raw string) string {
	if i := strings.Index(raw, ";"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "application/octet-stream"
	}
	return raw
}
