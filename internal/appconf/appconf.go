package appconf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the operating environment of the process.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment converts the -env flag value into an Environment.
// Unrecognized values map to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds the HTTP-facing settings of the application.
type Config struct {
	Port      int
	Env       Environment
	ApiKeys   []string
	RateLimit int // requests per second per API key
	LogLevel  string
}

// ParseAPIKeys splits a comma separated list of API keys, dropping blanks.
func ParseAPIKeys(raw string) []string {
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// GetEnv returns the value of key, or fallback when it is unset or blank.
func GetEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// GetEnvInt parses key as an integer.
func GetEnvInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

// GetEnvDuration parses key as a Go duration ("15s", "2m").
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return fallback, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return d, nil
}
