package app

import (
	"net"
	"net/http"
	"time"
)

// The two outbound call shapes have very different patience: a rewrite of a
// long chunk can sit on a slow local model for a while, a page fetch cannot.
const (
	modelCallTimeout = 120 * time.Second
	pageFetchTimeout = 20 * time.Second
)

// newHTTPClient returns a client for outbound calls. Connections are pooled
// per host since both the model endpoint and fetched pages repeat hosts.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
