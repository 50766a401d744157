package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvInt is Getenv for integer values. Unparsable values yield the fallback.
func GetenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// GetenvBool accepts the forms understood by strconv.ParseBool.
func GetenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// GetenvDuration parses values such as "24h" or "15m".
func GetenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// GetenvList splits a comma separated variable, dropping blank entries.
func GetenvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
