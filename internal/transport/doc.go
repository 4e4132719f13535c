// Package transport builds the HTTP client used to check links: connection
// pooling, redirects, cookies, per-site headers and an optional SOCKS5 proxy.
package transport
