package registry

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the single *http.Client shared by every registry
// adapter, so connection pooling, keep-alive, and DNS caching are shared
// across registries.
//
// Timeouts: 5s connect, 10s total, 90s pool-idle, 60s
// TCP keepalive. The vulnerability service (internal/vuln) builds its own
// client with a longer, 30s total timeout since its batches are larger.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 60 * time.Second,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   10 * time.Second,
	}
}
