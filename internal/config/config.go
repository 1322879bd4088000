package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"keypad-calculator/internal/keypad"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	HTTPAddr        string
	ServiceName     string
	OTelEnabled     bool
	LogLevel        string
	Separator       rune
	MaxDigits       int
	SessionIdleTTL  time.Duration
	ShutdownTimeout time.Duration
}

// Defaults returns the configuration used when no variable is set.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		ServiceName:     "keypad-calculator",
		OTelEnabled:     true,
		LogLevel:        "info",
		Separator:       ',',
		MaxDigits:       7,
		SessionIdleTTL:  30 * time.Minute,
		ShutdownTimeout: 5 * time.Second,
	}
}

// LoadDotEnv loads environment variables from .env when present.
// Existing process environment variables are not overridden.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load .env: %w", err)
}

// Load reads the process environment on top of Defaults.
func Load() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	if v, ok := lookup("HTTP_ADDR"); ok && v != "" {
		cfg.HTTPAddr = v
	}
	if v, ok := lookup("OTEL_SERVICE_NAME"); ok && v != "" {
		cfg.ServiceName = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if v, ok := lookup("OTEL_ENABLED"); ok && v != "" {
		enabled, err := cast.ToBoolE(v)
		if err != nil {
			return Config{}, fmt.Errorf("OTEL_ENABLED: %w", err)
		}
		cfg.OTelEnabled = enabled
	}

	if v, ok := lookup("KEYPAD_DECIMAL_SEPARATOR"); ok && v != "" {
		sep, err := parseSeparator(v)
		if err != nil {
			return Config{}, fmt.Errorf("KEYPAD_DECIMAL_SEPARATOR: %w", err)
		}
		cfg.Separator = sep
	}

	if v, ok := lookup("KEYPAD_MAX_DIGITS"); ok && v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return Config{}, fmt.Errorf("KEYPAD_MAX_DIGITS: %w", err)
		}
		if n < 1 {
			return Config{}, fmt.Errorf("KEYPAD_MAX_DIGITS: must be positive, got %d", n)
		}
		cfg.MaxDigits = n
	}

	if v, ok := lookup("SESSION_IDLE_TTL"); ok && v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return Config{}, fmt.Errorf("SESSION_IDLE_TTL: %w", err)
		}
		cfg.SessionIdleTTL = d
	}

	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok && v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

func parseSeparator(v string) (rune, error) {
	r, size := utf8.DecodeRuneInString(v)
	if size != len(v) {
		return 0, fmt.Errorf("want a single character, got %q", v)
	}
	if r != ',' && r != '.' {
		return 0, fmt.Errorf("want ',' or '.', got %q", v)
	}
	return r, nil
}

// KeypadOptions translates the calculator settings into keypad options.
func (c Config) KeypadOptions() []keypad.Option {
	return []keypad.Option{
		keypad.WithFormat(keypad.Format{Separator: c.Separator}),
		keypad.WithMaxDigits(c.MaxDigits),
	}
}
