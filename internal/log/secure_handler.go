package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces redacted values in log output.
const MaskValue = "***REDACTED***"

// credentialKeys are attribute keys whose values are always redacted.
// Keys are compared lowercased.
var credentialKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"api_key":             true,
	"apikey":              true,
	"api-key":             true,
	"access_token":        true,
	"refresh_token":       true,
	"password":            true,
	"session":             true,
	"sessionid":           true,
}

// credentialKeywords redact any key that contains them, e.g. "team_token".
// The bare word "key" is not listed; "request_key" or "primary_key" are not secrets.
var credentialKeywords = []string{
	"token", "secret", "password", "passwd", "credential", "auth",
}

// credentialPatterns match values that look like credentials regardless of key.
var credentialPatterns = []*regexp.Regexp{
	// Bearer and basic authorization header values
	regexp.MustCompile(`(?i)^bearer\s+\S+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Prefixed API keys (e.g. "wc-1a2b3c...", "sk_live_...")
	regexp.MustCompile(`^(wc|sk|pk)[-_][A-Za-z0-9_-]{16,}$`),
}

// sensitiveQueryParams are URL query parameters masked inside URL values.
var sensitiveQueryParams = []string{"token", "api_key", "apikey", "key", "signature", "x-amz-signature"}

// SecureHandler wraps an slog.Handler and redacts credentials from
// attributes before the record reaches the wrapped handler.
//
// Three rules apply, in order: credential-like keys are masked, values that
// look like credentials are masked, and sensitive query parameters inside
// URL-valued strings are masked while the rest of the URL is kept.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs redacts attrs and returns a handler carrying them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup returns a handler that nests subsequent attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// redactAttr applies the redaction rules to a, descending into groups.
func redactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		group := v.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isCredentialKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if v.Kind() != slog.KindString {
		return slog.Attr{Key: a.Key, Value: v}
	}

	s := v.String()
	if isCredentialValue(s) {
		return slog.String(a.Key, MaskValue)
	}
	if masked, ok := maskURLQuery(s); ok {
		return slog.String(a.Key, masked)
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// isCredentialKey reports whether key names a credential.
func isCredentialKey(key string) bool {
	lower := strings.ToLower(key)
	if credentialKeys[lower] {
		return true
	}
	for _, kw := range credentialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isCredentialValue reports whether value looks like a credential.
func isCredentialValue(value string) bool {
	for _, p := range credentialPatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// maskURLQuery masks sensitive query parameters of an absolute http(s) URL.
// It reports false when value is not such a URL or has nothing to mask.
func maskURLQuery(value string) (string, bool) {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.RawQuery == "" {
		return "", false
	}

	q := u.Query()
	changed := false
	for name := range q {
		for _, sensitive := range sensitiveQueryParams {
			if strings.EqualFold(name, sensitive) {
				q.Set(name, "REDACTED")
				changed = true
			}
		}
	}
	if !changed {
		return "", false
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

// level maps the verbose flag to a log level: Debug when verbose, Warn otherwise.
func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewSecureLogger returns a text logger writing to w with redaction enabled.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewSecureHandler(h))
}

// NewSecureJSONLogger returns a JSON logger writing to w with redaction enabled.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewSecureHandler(h))
}

// NewLogger picks the text or JSON logger by format ("json" or anything else).
func NewLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return NewSecureJSONLogger(w, verbose)
	}
	return NewSecureLogger(w, verbose)
}
