package logging

import "strings"

// SensitiveKeys are field-name substrings that mark a logged value as
// needing redaction before it reaches any sink. Adapted from the
// teacher's debug.SensitiveKeys.
var SensitiveKeys = []string{
	"password", "passwd", "pwd", "secret",
	"token", "api_key", "apikey", "api-key",
	"authorization", "auth", "credential",
	"x-csrf-token", "csrf",
}

// IsSensitiveKey reports whether key's name indicates the value it pairs
// with should be redacted before logging.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range SensitiveKeys {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// Redact masks value, preserving only its last showLastChars characters,
// unless it is shorter than that, in which case it is masked entirely.
// Adapted from the teacher's debug.MaskToken/MaskValue.
func Redact(value string, showLastChars int) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= showLastChars {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-showLastChars) + value[len(value)-showLastChars:]
}

// RedactField redacts value if key looks sensitive, otherwise returns it
// unchanged. Intended for use just before a key/value pair is attached
// to a log record (e.g. request params, header values).
func RedactField(key, value string) string {
	if IsSensitiveKey(key) {
		return Redact(value, 4)
	}
	return value
}

// RedactData walks an arbitrary JSON-shaped value (the decoded form of a
// log record's free-form data, typically produced by encoding/json's
// map[string]any/[]any/string/float64/bool/nil unmarshalling) and returns
// a copy with every string value keyed by a sensitive field name passed
// through RedactField. Non-string, non-container values pass through
// unchanged. This is what keeps notifications/message from forwarding a
// tool's raw arguments or headers to the client unmasked.
func RedactData(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if s, ok := val.(string); ok {
				out[key] = RedactField(key, s)
				continue
			}
			out[key] = RedactData(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = RedactData(val)
		}
		return out
	default:
		return v
	}
}
