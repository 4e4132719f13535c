package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
)

// DefaultMaxRedirects is the number of redirects followed before a request
// fails with ErrTooManyRedirects.
const DefaultMaxRedirects = 10

// checkProxyTimeout bounds the SOCKS5 greeting done by CheckProxy.
const checkProxyTimeout = 2 * time.Second

// SOCKS5 protocol constants.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

type options struct {
	proxyAddress string
	cookie       string
	headers      map[string]string
	credHost     string
	maxRedirects int
}

// Option configures the client built by NewHTTPClient.
type Option func(*options)

// WithProxy routes every connection through the SOCKS5 proxy at address
// ("host:port"). Pointing it at a Tor SOCKS port makes .onion links
// checkable.
func WithProxy(address string) Option {
	return func(o *options) {
		o.proxyAddress = address
	}
}

// WithCookie sends cookie with every request, in addition to cookies set by
// the crawled site.
func WithCookie(cookie string) Option {
	return func(o *options) {
		o.cookie = cookie
	}
}

// WithHeaders sets extra headers on every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithCredentialHost limits the cookie and headers of WithCookie and
// WithHeaders to requests for host. Without it they go to every host.
// A leading "www." is ignored on both sides.
func WithCredentialHost(host string) Option {
	return func(o *options) {
		o.credHost = host
	}
}

// WithMaxRedirects sets how many redirects are followed.
func WithMaxRedirects(n int) Option {
	return func(o *options) {
		o.maxRedirects = n
	}
}

// NewHTTPClient builds the HTTP client shared by all crawl workers.
// It keeps a cookie jar for session cookies, follows at most
// DefaultMaxRedirects redirects and leaves the request timeout to the
// caller's context.
func NewHTTPClient(opts ...Option) (*http.Client, error) {
	o := options{maxRedirects: DefaultMaxRedirects}
	for _, opt := range opts {
		opt(&o)
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Content-Encoding is decoded by the fetcher.
		DisableCompression: true,
	}

	if o.proxyAddress != "" {
		if !isValidProxyAddress(o.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		socks, err := proxy.SOCKS5("tcp", o.proxyAddress, nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		contextDialer, ok := socks.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", ErrProxyNotSOCKS5)
		}
		base.Proxy = nil
		base.DialContext = contextDialer.DialContext
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var rt http.RoundTripper = base
	if o.cookie != "" || len(o.headers) > 0 {
		rt = &headerInjectingTransport{
			base:    base,
			cookie:  o.cookie,
			headers: o.headers,
			host:    canonicalHost(o.credHost),
		}
	}

	maxRedirects := o.maxRedirects
	return &http.Client{
		Transport: rt,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}, nil
}

// CheckProxy performs the SOCKS5 greeting with the proxy at address and
// reports whether it accepts unauthenticated clients.
func CheckProxy(ctx context.Context, address string) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// version, one method, "no authentication"
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if resp[0] != socks5Version {
		return ProxyStatusWrongType
	}
	if resp[1] == socks5AuthNoAccept || resp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || port == "" {
		return false
	}
	p, err := net.LookupPort("tcp", port)
	return err == nil && p > 0
}

// headerInjectingTransport adds the configured cookie and headers to
// requests for host, or to every request when host is empty. Redirects
// go through RoundTrip again and are matched on their own host.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
	host    string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.host != "" && canonicalHost(req.URL.Hostname()) != t.host {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}

func canonicalHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
