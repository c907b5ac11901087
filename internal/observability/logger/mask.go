package logger

import (
	"net/http"
	"strings"
)

var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"signature",
	"authorization",
	"api_key",
}

// MaskAuthorization masks bearer tokens, preserving the scheme.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Fields(value)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return "Bearer " + maskTail(parts[1])
	}
	return maskTail(value)
}

// MaskHeaders returns a copy of webhook headers with credentials and
// provider signatures masked.
func MaskHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	masked := make(map[string]string, len(headers))
	for key, values := range headers {
		joined := strings.Join(values, ",")
		switch {
		case strings.EqualFold(key, "Authorization"):
			masked[key] = MaskAuthorization(joined)
		case isSensitiveKey(key):
			masked[key] = maskTail(joined)
		default:
			masked[key] = joined
		}
	}
	return masked
}

// MaskJSON returns a deep copy of the map with sensitive fields masked.
func MaskJSON(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		if isSensitiveKey(key) {
			out[key] = maskValue(value)
			continue
		}
		switch typed := value.(type) {
		case map[string]any:
			out[key] = MaskJSON(typed)
		case []any:
			items := make([]any, 0, len(typed))
			for _, entry := range typed {
				if nested, ok := entry.(map[string]any); ok {
					items = append(items, MaskJSON(nested))
					continue
				}
				items = append(items, entry)
			}
			out[key] = items
		default:
			out[key] = value
		}
	}
	return out
}

func maskValue(value any) any {
	switch typed := value.(type) {
	case string:
		return maskTail(typed)
	case []byte:
		return maskTail(string(typed))
	default:
		return "****"
	}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}

func maskTail(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****" + value
	}
	return "****" + value[len(value)-4:]
}
