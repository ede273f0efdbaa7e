package cache

import "strings"

const (
	GlobalKeyPrefix = "studybuddy"
)

// GenerateCacheKey joins the global prefix, service, object type and
// identifier with ":". Extra params are joined by "_" and appended.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// SessionKey is where a quiz session snapshot lives.
func SessionKey(sessionID string) string {
	return GenerateCacheKey("session", "snapshot", sessionID)
}
