package resolver

import (
	"net/http"
	"strconv"
	"time"

	"guild-jukebox/internal/adapters/metrics"
)

const httpTimeout = 15 * time.Second

func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   httpTimeout,
		Transport: NewMetricsRoundTripper(http.DefaultTransport),
	}
}

// -- Middleware --

type MetricsRoundTripper struct {
	Proxied http.RoundTripper
}

func NewMetricsRoundTripper(proxied http.RoundTripper) *MetricsRoundTripper {
	if proxied == nil {
		proxied = http.DefaultTransport
	}
	return &MetricsRoundTripper{Proxied: proxied}
}

func (mrt *MetricsRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := mrt.Proxied.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	metrics.ResolverRequestDuration.WithLabelValues(status).Observe(duration)
	return resp, err
}
