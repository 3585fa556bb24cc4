package util

import (
	"os"
	"strconv"
)

func StringPtr(s string) *string {
	return &s
}

// EnvOrDefault returns the environment variable value, or fallback when unset.
func EnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvBool parses a boolean environment variable, returning fallback when the
// variable is unset or unparsable.
func EnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
