package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// headerInjectingTransport wraps an http.RoundTripper to add credentials
// and custom headers to every request sent to the API host.
// Requests to other hosts (result documents on a storage host) only get
// the User-Agent.
type headerInjectingTransport struct {
	base      http.RoundTripper
	apiHost   string
	apiKey    string
	teamID    string
	userAgent string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	if strings.EqualFold(clone.URL.Host, t.apiHost) {
		for k, v := range t.headers {
			clone.Header.Set(k, v)
		}
		if t.apiKey != "" {
			clone.Header.Set("Authorization", "Bearer "+t.apiKey)
		}
		if t.teamID != "" {
			clone.Header.Set("X-Team-ID", t.teamID)
		}
	}

	return t.base.RoundTrip(clone)
}

// newBaseTransport returns the transport shared by the regular and the
// streaming HTTP clients. With a proxy URL, every connection is dialed
// through the SOCKS5 proxy.
func newBaseTransport(proxyURL string) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if proxyURL == "" {
		return transport, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}
	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}

	// Environment proxies must not stack on top of the SOCKS5 dialer.
	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}
