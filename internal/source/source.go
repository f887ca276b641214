// Package source fetches game snapshots from wherever the producer publishes
// them: an HTTP endpoint, a local file, a Redis key or a WebSocket feed.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-viewer/internal/domain"
)

// ErrFetch wraps every failure to obtain a usable game. Callers treat it as
// "skip this refresh cycle".
var ErrFetch = errors.New("fetch failed")

// Source returns the current game from a single origin.
type Source interface {
	Fetch(ctx context.Context) (domain.Game, error)
	Name() string
}

// Notifier is implemented by sources that can signal changes between polls.
type Notifier interface {
	Changes() <-chan struct{}
}

// Waiter is implemented by push sources that hold nothing until the first
// message arrives. One-shot callers wait on it before Fetch.
type Waiter interface {
	WaitReady(ctx context.Context) error
}

// Closer is implemented by sources holding connections or watchers.
type Closer interface {
	Close() error
}

type Options struct {
	Timeout     time.Duration
	Attempts    int
	Watch       bool
	RedisKey    string
	WSReconnect time.Duration
	WSReadLimit int64
	Logger      *zap.Logger
}

// Open picks an implementation from the location's scheme: http(s), redis,
// ws(s); anything else is treated as a file path.
func Open(ctx context.Context, location string, opts Options) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("source location is empty")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	scheme := ""
	if u, err := url.Parse(location); err == nil {
		scheme = strings.ToLower(u.Scheme)
	}
	switch scheme {
	case "http", "https":
		if strings.HasSuffix(location, "/") {
			location += domain.DefaultFileName
		}
		return NewHTTP(location, WithTimeout(opts.Timeout), WithAttempts(opts.Attempts)), nil
	case "redis", "rediss":
		return NewRedisFromURL(ctx, location, opts.RedisKey)
	case "ws", "wss":
		s := NewWebSocket(location, opts.WSReconnect, opts.WSReadLimit, opts.Logger)
		s.Start(ctx)
		return s, nil
	default:
		f := NewFile(location)
		if opts.Watch {
			if err := f.Watch(opts.Logger); err != nil {
				// polling still works without the watcher
				opts.Logger.Warn("file watch unavailable", zap.String("path", location), zap.Error(err))
			}
		}
		return f, nil
	}
}

// Close releases resources held by s, if any.
func Close(s Source) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

func fetchErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFetch, fmt.Sprintf(format, args...))
}

// decode turns raw bytes into a game, tagging failures as fetch errors.
func decode(raw []byte) (domain.Game, error) {
	g, err := domain.DecodeGame(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return g, nil
}
