package logger

import (
	"regexp"
	"strings"
)

// Redacted replaces any value judged sensitive.
const Redacted = "[REDACTED]"

// sensitiveKeys are exact field names that always get redacted.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"key":           {},
	"authorization": {},
	"ssn":           {},
	"credit_card":   {},
	"phone":         {},
	"email":         {},
	"address":       {},
}

// sensitiveSubstrings catch fields like "api_key", "refresh_token",
// "client_secret" without enumerating every spelling.
var sensitiveSubstrings = []string{
	"pass", "secret", "token", "key", "auth", "credential",
}

// Value patterns catch sensitive data in mislabeled fields. Key matching
// alone is insufficient: a JWT stored under "note" must still never reach
// a log line.
var (
	jwtPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}$`)
	// No dash in the class: dashed identifiers like UUIDs are not secrets.
	longKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]{32,}$`)
	cardPattern    = regexp.MustCompile(`^(?:\d[ -]?){12,18}\d$`)
)

// SensitiveKey reports whether a field name should always be redacted.
func SensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if _, ok := sensitiveKeys[k]; ok {
		return true
	}
	for _, sub := range sensitiveSubstrings {
		if strings.Contains(k, sub) {
			return true
		}
	}
	return false
}

// SensitiveValue reports whether a string value looks like a secret
// regardless of the key it was stored under.
func SensitiveValue(v string) bool {
	return jwtPattern.MatchString(v) ||
		longKeyPattern.MatchString(v) ||
		cardPattern.MatchString(v)
}

// RedactString returns the value unchanged unless it looks sensitive.
func RedactString(v string) string {
	if SensitiveValue(v) {
		return Redacted
	}
	return v
}

// Redact walks maps, slices, and strings recursively, replacing sensitive
// keys and sensitive-looking values. Non-sensitive fields pass through
// unaltered; the input is never mutated.
func Redact(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if SensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = Redact(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, inner := range val {
			if SensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = RedactString(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = Redact(inner)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, inner := range val {
			out[i] = RedactString(inner)
		}
		return out
	case string:
		return RedactString(val)
	default:
		return v
	}
}

// RedactMetadata is a convenience for audit metadata maps.
func RedactMetadata(md map[string]any) map[string]any {
	if md == nil {
		return nil
	}
	return Redact(md).(map[string]any)
}
