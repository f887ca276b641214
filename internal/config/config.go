package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	Source        string
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	FetchAttempts int
	Watch         bool

	RedisKey    string
	WSReconnect time.Duration
	WSReadLimit int64

	ListenAddr string

	Glyphs     string
	CatalogDir string
	SquareSize int
}

const (
	DefaultSource       = "game.json"
	DefaultPollInterval = 1000 * time.Millisecond
	DefaultRedisKey     = "viewer:game"
	DefaultWSReadLimit  = 4 << 20
)

// Default returns the configuration used when no environment is set.
func Default() *AppConfig {
	return &AppConfig{
		Source:        DefaultSource,
		PollInterval:  DefaultPollInterval,
		FetchTimeout:  5 * time.Second,
		FetchAttempts: 1,
		Watch:         true,
		RedisKey:      DefaultRedisKey,
		WSReconnect:   2 * time.Second,
		WSReadLimit:   DefaultWSReadLimit,
		ListenAddr:    ":8080",
		Glyphs:        "unicode",
		SquareSize:    64,
	}
}

// Load reads VIEWER_* variables on top of Default. Unparseable numbers keep
// their defaults.
func Load() (*AppConfig, error) {
	cfg := Default()

	if v := strings.TrimSpace(os.Getenv("VIEWER_SOURCE")); v != "" {
		cfg.Source = v
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_POLL_INTERVAL")); v != "" {
		if d, ok := parseDuration(v); ok {
			cfg.PollInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_FETCH_TIMEOUT")); v != "" {
		if d, ok := parseDuration(v); ok {
			cfg.FetchTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_FETCH_RETRY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_WATCH")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Watch = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_REDIS_KEY")); v != "" {
		cfg.RedisKey = v
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_WS_RECONNECT")); v != "" {
		if d, ok := parseDuration(v); ok {
			cfg.WSReconnect = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_WS_READ_LIMIT")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.WSReadLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("VIEWER_GLYPHS")); v != "" {
		cfg.Glyphs = strings.ToLower(v)
	}
	cfg.CatalogDir = strings.TrimSpace(os.Getenv("VIEWER_CATALOG_DIR"))
	if v := strings.TrimSpace(os.Getenv("VIEWER_SQUARE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SquareSize = n
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that flags may also have set.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return errors.New("VIEWER_SOURCE is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.Glyphs != "unicode" && c.Glyphs != "ascii" {
		return fmt.Errorf("VIEWER_GLYPHS must be unicode or ascii, got %q", c.Glyphs)
	}
	if c.SquareSize < 16 {
		return fmt.Errorf("VIEWER_SQUARE_SIZE must be at least 16, got %d", c.SquareSize)
	}
	return nil
}

// parseDuration accepts Go durations ("1s", "250ms") or bare milliseconds ("1000").
func parseDuration(v string) (time.Duration, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, false
		}
		return time.Duration(n) * time.Millisecond, true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
