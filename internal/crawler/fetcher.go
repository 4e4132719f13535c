package crawler

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/crypto/sha3"

	"github.com/nao1215/linkscan/internal/model"
	"github.com/nao1215/linkscan/internal/transport"
)

// Network error details reported in Outcome.Detail.
const (
	DetailTimeout           = "timeout"
	DetailDNS               = "dns lookup failed"
	DetailConnectionRefused = "connection refused"
	DetailConnectionReset   = "connection reset"
	DetailTLS               = "tls failure"
	DetailTooManyRedirects  = "too many redirects"
	DetailInvalidRequest    = "invalid request"
)

// Outcome is the classified result of one fetch attempt.
type Outcome struct {
	// Kind is success, HTTP error (status >= 400) or network error.
	Kind model.Kind

	// StatusCode is the HTTP status. Zero for network errors.
	StatusCode int

	// ContentType is the Content-Type response header.
	ContentType string

	// FinalURL is the URL of the last request after redirects. Relative
	// links on the page resolve against it. Empty for network errors.
	FinalURL string

	// Body is the decoded response body, capped at the fetcher's maximum
	// body size. It may be set for HTTP errors too.
	Body []byte

	// Detail describes a network error.
	Detail string

	// Duration is the wall time of the request, excluding politeness delay.
	Duration time.Duration
}

// IsHTML reports whether the response declared an HTML-like content type.
func (o Outcome) IsHTML() bool {
	mediaType, _, err := mime.ParseMediaType(o.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(o.ContentType, ";")[0]))
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// Hash returns the hex encoded SHA3-256 digest of the body, or "" when
// there is no body.
func (o Outcome) Hash() string {
	if len(o.Body) == 0 {
		return ""
	}
	sum := sha3.Sum256(o.Body)
	return hex.EncodeToString(sum[:])
}

// Fetcher retrieves one URL. Implementations never return an error:
// every failure mode is an Outcome.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) Outcome
}

// HTTPFetcher implements Fetcher with an *http.Client.
type HTTPFetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	limiter     *hostLimiter
	logger      *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the number of body bytes read. Longer bodies are
// truncated. Non-positive sizes keep the default.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithCrawlDelay sets the minimum delay between two requests to the same
// host.
func WithCrawlDelay(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.limiter = newHostLimiter(d)
	}
}

// WithFetcherLogger sets the logger used for request-level debug output.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates a fetcher that sends requests through client.
// The client owns transport concerns: proxy, TLS, redirects and pooling.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		timeout:     30 * time.Second,
		userAgent:   "linkscan",
		maxBodySize: 5 * 1024 * 1024,
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch sends a GET request for rawURL and classifies the response.
// The timeout covers the whole exchange including the body read; when it
// elapses the outcome is a network error with detail "timeout".
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) Outcome {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Outcome{Kind: model.KindNetworkError, Detail: DetailInvalidRequest}
	}
	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return Outcome{Kind: model.KindNetworkError, Detail: classifyError(err)}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Outcome{Kind: model.KindNetworkError, Detail: DetailInvalidRequest}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		detail := classifyError(err)
		f.logger.Debug("request failed", "url", rawURL, "detail", detail, "error", err)
		return Outcome{Kind: model.KindNetworkError, Detail: detail, Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	out := Outcome{
		Kind:        model.KindSuccess,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    rawURL,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		out.FinalURL = resp.Request.URL.String()
	}
	if resp.StatusCode >= http.StatusBadRequest {
		out.Kind = model.KindHTTPError
	}

	body, err := f.readBody(resp)
	out.Duration = time.Since(start)
	if err != nil {
		f.logger.Debug("reading body failed", "url", rawURL, "status", resp.StatusCode, "error", err)
		if out.Kind == model.KindSuccess {
			return Outcome{Kind: model.KindNetworkError, Detail: classifyError(err), Duration: out.Duration}
		}
		return out
	}
	out.Body = body

	f.logger.Debug("fetched", "url", rawURL, "status", resp.StatusCode, "bytes", len(body), "duration", out.Duration)
	return out
}

// readBody decodes the body according to Content-Encoding and reads at most
// maxBodySize bytes of it.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// classifyError maps a transport error to a short, stable detail string.
func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return DetailTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return DetailTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DetailDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return DetailConnectionRefused
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return DetailConnectionReset
	}

	var (
		certErr      *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	if errors.As(err, &certErr) || errors.As(err, &recordErr) ||
		errors.As(err, &authorityErr) || errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) {
		return DetailTLS
	}

	if errors.Is(err, transport.ErrTooManyRedirects) {
		return DetailTooManyRedirects
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
