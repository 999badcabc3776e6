// Package config reads restar's process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Sternrassler/restar/pkg/logging"
	"github.com/joho/godotenv"
)

// Environment variables.
const (
	// EnvAccount names the account whose starred repositories are read.
	EnvAccount = "USER_WITH_STARS"

	// EnvToken is the bearer token of the account that stars.
	EnvToken = "GH_TOKEN"

	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// ErrMissingValue is returned when a required environment value is unset or empty.
var ErrMissingValue = errors.New("required environment value not set")

// Config is the process configuration. It is read once at startup and
// never mutated.
type Config struct {
	Account string
	Token   string
}

// LoadDotEnv loads variables from files (default ".env") without overriding
// the environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the required values from the environment.
func Load() (Config, error) {
	account, err := required(EnvAccount)
	if err != nil {
		return Config{}, err
	}

	token, err := required(EnvToken)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Account: account,
		Token:   token,
	}, nil
}

// LoggingFromEnv returns the logger configuration from LOG_LEVEL and LOG_FORMAT.
func LoggingFromEnv() logging.Config {
	cfg := logging.DefaultConfig()
	if v := getEnv(EnvLogLevel, ""); v != "" {
		cfg.Level = logging.LogLevel(strings.ToLower(v))
	}
	cfg.Format = logging.ParseFormat(getEnv(EnvLogFormat, string(cfg.Format)))
	return cfg
}

func required(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingValue, key)
	}
	return v, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
