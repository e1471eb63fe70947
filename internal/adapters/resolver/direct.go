package resolver

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"guild-jukebox/internal/core/domain"

	"golang.org/x/net/html"
)

const maxPageSize = 2 << 20

var audioExtensions = map[string]bool{
	".mp3":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".webm": true,
}

// Direct handles links to audio files and to web pages that embed one.
type Direct struct {
	client *http.Client
}

func NewDirect(client *http.Client) *Direct {
	return &Direct{client: client}
}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) Supports(query string) bool {
	_, ok := parseHTTPURL(query)
	return ok
}

func (d *Direct) Resolve(ctx context.Context, query string) (*domain.Track, error) {
	u, ok := parseHTTPURL(query)
	if !ok {
		return nil, ErrUnsupportedQuery
	}

	if audioExtensions[strings.ToLower(path.Ext(u.Path))] {
		return fileTrack(u), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(mediaType, "audio/"):
		return fileTrack(u), nil
	case mediaType == "text/html":
		return parsePage(u, io.LimitReader(resp.Body, maxPageSize))
	default:
		return nil, ErrNoAudio
	}
}

func fileTrack(u *url.URL) *domain.Track {
	return &domain.Track{
		URL:       u.String(),
		StreamURL: u.String(),
		Title:     path.Base(u.Path),
	}
}

type pageInfo struct {
	title   string
	ogTitle string
	audio   string
}

func parsePage(base *url.URL, r io.Reader) (*domain.Track, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var info pageInfo
	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				info.applyMeta(n)
			case "audio", "source":
				if src := attr(n, "src"); src != "" && info.audio == "" {
					info.audio = src
				}
			case "title":
				if info.title == "" && n.FirstChild != nil {
					info.title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	if info.audio == "" {
		return nil, ErrNoAudio
	}

	ref, err := url.Parse(info.audio)
	if err != nil {
		return nil, fmt.Errorf("parse audio source: %w", err)
	}
	stream, ok := parseHTTPURL(base.ResolveReference(ref).String())
	if !ok {
		return nil, fmt.Errorf("audio source %q is not http: %w", info.audio, ErrNoAudio)
	}

	title := info.ogTitle
	if title == "" {
		title = info.title
	}

	return &domain.Track{
		URL:       base.String(),
		StreamURL: stream.String(),
		Title:     title,
	}, nil
}

// applyMeta records OpenGraph values. og:audio wins over an <audio> element
// found earlier in the document.
func (p *pageInfo) applyMeta(n *html.Node) {
	property := attr(n, "property")
	content := attr(n, "content")
	if content == "" {
		return
	}

	switch property {
	case "og:audio", "og:audio:url", "og:audio:secure_url":
		p.audio = content
	case "og:title":
		p.ogTitle = content
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
