// Package httpx builds the shared keep-alive HTTP client used by
// every service client in internal/plexclient, internal/radarr,
// internal/qbittorrent, and internal/telegram, so the connection pool
// policy (cap 20 idle conns, 10 per host, 5 minute idle timeout) lives
// in one place instead of four copies.
package httpx

import (
	"net"
	"net/http"
	"time"
)

// Options configures the shared client's timeout; pool limits are
// fixed.
type Options struct {
	Timeout time.Duration
}

// NewClient returns an *http.Client with a bounded keep-alive
// transport and a 5 minute DNS cache (via the dialer's KeepAlive and
// the transport's IdleConnTimeout).
func NewClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     5 * time.Minute,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
