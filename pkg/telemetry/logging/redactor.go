package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// Redacted replaces the value of a sensitive attribute.
const Redacted = "***"

// Redactor hides credentials in log attributes. Values of sensitive keys
// are replaced entirely; string values have URL user info and
// Authorization header payloads masked.
type Redactor struct {
	sensitiveKeys []string
	patterns      []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in key list and patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: []string{
			"password", "passwd", "pwd",
			"secret", "token",
			"authorization", "credentials",
			"private_key", "privatekey",
		},
		patterns: []*redactPattern{
			{
				regex:       regexp.MustCompile(`(?i)\b(Basic|Bearer)\s+[a-zA-Z0-9\-._~+/]+=*`),
				replacement: "$1 " + Redacted,
			},
			{
				regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)[:=]\s*[^\s&]+`),
				replacement: "$1=" + Redacted,
			},
		},
	}
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if r.isSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); s != "" {
			if red := r.RedactString(s); red != s {
				return slog.String(a.Key, red)
			}
		}
	}
	return a
}

// RedactString masks credentials inside a free-form string.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	value = RedactURL(value)
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// isSensitiveKey checks if a key name indicates sensitive data.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range r.sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactURL replaces the password of a URL with user info. Values that are
// not absolute URLs are returned unchanged.
func RedactURL(value string) string {
	if !strings.Contains(value, "@") || !strings.Contains(value, "://") {
		return value
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value
	}
	if _, ok := u.User.Password(); !ok {
		return value
	}
	return u.Redacted()
}
