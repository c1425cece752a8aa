package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads a boolean environment variable. An unset or empty
// variable yields fallback, as does an unrecognized value (with a warning).
// Recognized spellings, any case: true/1/yes/on and false/0/no/off.
func ParseBoolEnv(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: unrecognized value, keeping fallback", "key", key, "value", raw, "fallback", fallback)
	return fallback
}
