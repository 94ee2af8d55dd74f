package auth

import (
	"os"
	"strings"
	"time"
)

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func defaultNow(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}

func defaultReadFile(readFile func(string) ([]byte, error)) func(string) ([]byte, error) {
	if readFile != nil {
		return readFile
	}
	return os.ReadFile
}
