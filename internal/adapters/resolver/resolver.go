package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"guild-jukebox/internal/adapters/metrics"
	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/core/ports"
)

var (
	ErrUnsupportedQuery = errors.New("query is not a supported link")
	ErrNoAudio          = errors.New("no playable audio found")
)

var _ ports.TrackResolver = (*Chain)(nil)

type Resolver interface {
	Name() string
	Supports(query string) bool
	Resolve(ctx context.Context, query string) (*domain.Track, error)
}

// Chain delegates to the first resolver that supports a query.
type Chain struct {
	resolvers []Resolver
}

func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

func (c *Chain) Resolve(ctx context.Context, query string) (*domain.Track, error) {
	query = strings.TrimSpace(query)

	for _, r := range c.resolvers {
		if !r.Supports(query) {
			continue
		}

		track, err := r.Resolve(ctx, query)
		if err != nil {
			metrics.ResolverRequests.WithLabelValues(r.Name(), "failure").Inc()
			return nil, fmt.Errorf("%s: %w", r.Name(), err)
		}

		metrics.ResolverRequests.WithLabelValues(r.Name(), "success").Inc()
		return track, nil
	}

	metrics.ResolverRequests.WithLabelValues("none", "unsupported").Inc()
	return nil, ErrUnsupportedQuery
}

func parseHTTPURL(query string) (*url.URL, bool) {
	u, err := url.Parse(query)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}
