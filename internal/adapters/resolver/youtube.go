package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"guild-jukebox/internal/core/domain"

	"github.com/kkdai/youtube/v2"
)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
}

type YouTube struct {
	client videoClient
}

func NewYouTube(httpClient *http.Client) *YouTube {
	return &YouTube{client: &youtube.Client{HTTPClient: httpClient}}
}

func (y *YouTube) Name() string { return "youtube" }

func (y *YouTube) Supports(query string) bool {
	u, ok := parseHTTPURL(query)
	return ok && youtubeHosts[strings.ToLower(u.Hostname())]
}

func (y *YouTube) Resolve(ctx context.Context, query string) (*domain.Track, error) {
	video, err := y.client.GetVideoContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch video: %w", err)
	}

	format, ok := pickAudioFormat(video.Formats)
	if !ok {
		return nil, ErrNoAudio
	}

	streamURL, err := y.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("get stream url: %w", err)
	}

	return &domain.Track{
		URL:       query,
		StreamURL: streamURL,
		Title:     video.Title,
		Author:    video.Author,
		Duration:  video.Duration,
	}, nil
}

// pickAudioFormat prefers audio-only formats, then the highest bitrate.
func pickAudioFormat(formats youtube.FormatList) (*youtube.Format, bool) {
	candidates := formats.WithAudioChannels()
	if len(candidates) == 0 {
		return nil, false
	}

	best := &candidates[0]
	for i := range candidates {
		f := &candidates[i]
		if betterAudio(f, best) {
			best = f
		}
	}
	return best, true
}

func betterAudio(a, b *youtube.Format) bool {
	aOnly := strings.HasPrefix(a.MimeType, "audio/")
	bOnly := strings.HasPrefix(b.MimeType, "audio/")
	if aOnly != bOnly {
		return aOnly
	}
	return a.Bitrate > b.Bitrate
}
