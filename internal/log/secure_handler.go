package log

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// credentialKeywords mark an attribute key, header name or query parameter
// as a credential when they appear anywhere in it (case-insensitive).
// The bare word "key" is left out: it matches "monkey" and "primary_key".
var credentialKeywords = []string{
	"authorization", "auth", "cookie", "session", "token",
	"secret", "password", "passwd", "credential",
	"api_key", "api-key", "apikey",
}

// credentialQueryParams are query parameters masked in logged URLs on top
// of the credential keywords. Signed links (CDN, object storage) put their
// signatures here.
var credentialQueryParams = map[string]bool{
	"sig":       true,
	"signature": true,
	"key":       true,
	"code":      true,
}

// credentialValue matches values that carry an authorization scheme or a
// JWT whatever key they are logged under.
var credentialValue = regexp.MustCompile(
	`(?i)^(bearer|basic|digest)\s+\S+|^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)

// embeddedURL finds absolute URLs inside free text such as error messages.
var embeddedURL = regexp.MustCompile(`(?i)\b(https?|socks5h?)://[^\s"'<>]+`)

// SecureHandler wraps an slog.Handler and masks credentials before records
// reach it: site cookies and headers, authorization values, and the
// password or token parts of the URLs the crawler logs.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a SecureHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a handler with the masked attrs added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}

	case slog.KindString:
		if isCredentialName(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, sanitizeText(a.Value.String()))

	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]string:
			// Site headers from the configuration file.
			return slog.Attr{Key: a.Key, Value: headerGroup(v)}
		case error:
			if isCredentialName(a.Key) {
				return slog.String(a.Key, MaskValue)
			}
			return slog.String(a.Key, sanitizeText(v.Error()))
		}
	}

	if isCredentialName(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

// headerGroup renders a header map as a group, masking credential headers.
func headerGroup(headers map[string]string) slog.Value {
	attrs := make([]slog.Attr, 0, len(headers))
	for name, value := range headers {
		attrs = append(attrs, sanitizeAttr(slog.String(name, value)))
	}
	return slog.GroupValue(attrs...)
}

// sanitizeText masks authorization values and redacts every URL in s.
func sanitizeText(s string) string {
	if credentialValue.MatchString(strings.TrimSpace(s)) {
		return MaskValue
	}
	if !strings.Contains(s, "://") {
		return s
	}
	return embeddedURL.ReplaceAllStringFunc(s, redactURL)
}

// redactURL masks the userinfo password and credential query parameters
// of raw. Text that does not parse as a URL is returned unchanged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	changed := false
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), MaskValue)
		changed = true
	}

	if u.RawQuery != "" {
		query, err := url.ParseQuery(u.RawQuery)
		if err == nil {
			for name := range query {
				if isCredentialName(name) || credentialQueryParams[strings.ToLower(name)] {
					query.Set(name, MaskValue)
					changed = true
				}
			}
			if changed {
				u.RawQuery = query.Encode()
			}
		}
	}

	if !changed {
		return raw
	}
	// String escapes the mask's '*' in both userinfo and query.
	return strings.ReplaceAll(u.String(), url.QueryEscape(MaskValue), MaskValue)
}

// isCredentialName reports whether a key names a credential.
func isCredentialName(key string) bool {
	key = strings.ToLower(key)
	for _, keyword := range credentialKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}
