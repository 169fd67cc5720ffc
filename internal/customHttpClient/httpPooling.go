package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
)

// one transport for every backend so keep-alive connections are pooled
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewClient returns a client on the shared transport. A zero timeout means
// the caller's context is the only deadline.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
