// Package masking keeps credentials out of logs and the audit trail.
package masking

import "strings"

const maskToken = "****"

// MaskSecret redacts a credential while keeping its last four characters
// so a trail reader can still tell which key was in play.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// RedactMetadata returns a copy of metadata with secret-bearing values
// masked. Callers attach arbitrary metadata to audit entries; this is the
// last gate before it is persisted. Nested maps are walked.
func RedactMetadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		out[trimmedKey] = redactValue(trimmedKey, value)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func redactValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if secretKey(key) {
			return MaskSecret(cast)
		}
		return cast
	case map[string]any:
		return RedactMetadata(cast)
	default:
		return value
	}
}

func secretKey(key string) bool {
	lower := strings.ToLower(key)
	switch lower {
	case "password", "secret", "token", "authorization", "api_key", "apikey":
		return true
	}
	return strings.HasSuffix(lower, "_password") ||
		strings.HasSuffix(lower, "_secret") ||
		strings.HasSuffix(lower, "_token") ||
		strings.HasSuffix(lower, "_api_key")
}
