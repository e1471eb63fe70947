package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"guild-jukebox/internal/adapters/metrics"
	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "jukebox:track:"

var _ ports.TrackResolver = (*ResolveCache)(nil)

type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Connect parses a redis:// URL and verifies the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ResolveCache memoizes track resolution results. Cache failures never
// fail a resolution; they only cost a call to the wrapped resolver.
type ResolveCache struct {
	client Client
	next   ports.TrackResolver
	ttl    time.Duration
}

func NewResolveCache(client Client, next ports.TrackResolver, ttl time.Duration) *ResolveCache {
	return &ResolveCache{client: client, next: next, ttl: ttl}
}

type cachedTrack struct {
	URL       string        `json:"url"`
	StreamURL string        `json:"stream_url"`
	Title     string        `json:"title"`
	Author    string        `json:"author"`
	Duration  time.Duration `json:"duration"`
}

func (c *ResolveCache) Resolve(ctx context.Context, query string) (*domain.Track, error) {
	key := keyPrefix + strings.TrimSpace(query)

	if track, ok := c.lookup(ctx, key); ok {
		metrics.ResolveCache.WithLabelValues("hit").Inc()
		return track, nil
	}
	metrics.ResolveCache.WithLabelValues("miss").Inc()

	track, err := c.next.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, track)
	return track, nil
}

func (c *ResolveCache) lookup(ctx context.Context, key string) (*domain.Track, bool) {
	res, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Resolve cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	if len(res) == 0 {
		return nil, false
	}

	var entry cachedTrack
	if err := json.Unmarshal(res, &entry); err != nil {
		slog.Warn("Discarding malformed resolve cache entry", "key", key, "error", err)
		return nil, false
	}

	return &domain.Track{
		URL:       entry.URL,
		StreamURL: entry.StreamURL,
		Title:     entry.Title,
		Author:    entry.Author,
		Duration:  entry.Duration,
	}, true
}

func (c *ResolveCache) store(ctx context.Context, key string, track *domain.Track) {
	data, err := json.Marshal(cachedTrack{
		URL:       track.URL,
		StreamURL: track.StreamURL,
		Title:     track.Title,
		Author:    track.Author,
		Duration:  track.Duration,
	})
	if err != nil {
		slog.Warn("Failed to encode resolve cache entry", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("Resolve cache write failed", "key", key, "error", err)
	}
}
