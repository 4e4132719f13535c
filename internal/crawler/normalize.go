package crawler

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Errors returned by Normalize. A rejected link is skipped by the crawler.
var (
	// ErrEmptyURL is returned for an empty or whitespace-only link.
	ErrEmptyURL = errors.New("empty url")

	// ErrUnsupportedScheme is returned for links that are not http or https,
	// such as mailto:, javascript: or tel:.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")

	// ErrMalformedURL is returned when a link cannot be parsed or resolved
	// to an absolute URL with a host.
	ErrMalformedURL = errors.New("malformed url")
)

// Normalize resolves raw against base and returns the URL key used for
// deduplication. The fragment is stripped, scheme and host are lower-cased,
// the default port of the scheme is removed, an empty path becomes "/" and
// an empty query ("/a?") is dropped.
// Two links pointing to the same resource produce the same key.
//
// base may be nil, in which case raw must already be absolute.
func Normalize(raw string, base *url.URL) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedURL, raw)
	}

	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: %s is not absolute", ErrMalformedURL, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %s has no host", ErrMalformedURL, raw)
	}

	u.Host = normalizeHost(u.Scheme, u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.RawQuery == "" {
		u.ForceQuery = false
	}
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	return u.String(), nil
}

// NormalizeSeed normalizes the crawl entrypoint. A bare domain such as
// "example.com" or "example.com/docs" is crawled over http.
func NormalizeSeed(seed string) (string, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return "", ErrEmptyURL
	}
	if !strings.Contains(seed, "://") {
		seed = "http://" + seed
	}
	return Normalize(seed, nil)
}

// normalizeHost lower-cases host and removes the port when it is the
// default one for scheme.
func normalizeHost(scheme, host string) string {
	host = strings.ToLower(host)

	hostname, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(hostname, ":") {
			return "[" + hostname + "]"
		}
		return hostname
	}
	return host
}

// hostOf returns the host (including a non-default port) of a URL key.
func hostOf(key string) string {
	u, err := url.Parse(key)
	if err != nil {
		return ""
	}
	return u.Host
}
