// Package poller refreshes a game from a source on a fixed interval.
//
// Refresh is best effort: a tick never waits for an earlier fetch, so slow
// fetches can overlap. Results are applied in the order the fetches finish,
// which means the last fetch to complete wins even if it was issued first.
// Failures are logged and the cycle is skipped.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-viewer/internal/domain"
	"github.com/park285/cheese-viewer/internal/source"
)

// ApplyFunc receives each successfully fetched game. Calls are serialized.
type ApplyFunc func(domain.Game)

type Poller struct {
	src      source.Source
	apply    ApplyFunc
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	applyMu  sync.Mutex
	inflight sync.WaitGroup

	okCount   atomic.Int64
	failCount atomic.Int64
	lastOK    atomic.Int64 // unix nanos
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout bounds a single fetch. It does not depend on Run's context,
// so stopping the poller never aborts a fetch already in flight.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(src source.Source, apply ApplyFunc, opts ...Option) *Poller {
	p := &Poller{
		src:      src,
		apply:    apply,
		interval: time.Second,
		timeout:  5 * time.Second,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches immediately and then on every tick until ctx is done. Sources
// that implement source.Notifier also trigger a fetch on change. Run waits for
// in-flight fetches before returning.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.inflight.Wait()

	var changes <-chan struct{}
	if n, ok := p.src.(source.Notifier); ok {
		changes = n.Changes()
	}

	p.spawn(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.spawn(ctx)
		case <-changes:
			p.spawn(ctx)
		}
	}
}

// spawn starts one fetch without waiting for earlier ones.
func (p *Poller) spawn(ctx context.Context) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.fetchOnce(context.WithoutCancel(ctx))
	}()
}

// FetchOnce runs a single synchronous fetch-and-apply. It reports whether the
// game was replaced.
func (p *Poller) FetchOnce(ctx context.Context) bool {
	return p.fetchOnce(ctx)
}

func (p *Poller) fetchOnce(ctx context.Context) bool {
	id := uuid.NewString()
	fctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	g, err := p.src.Fetch(fctx)
	if err != nil {
		p.failCount.Add(1)
		p.logger.Warn("fetch skipped",
			zap.String("fetch_id", id),
			zap.String("source", p.src.Name()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return false
	}

	p.applyMu.Lock()
	p.apply(g)
	p.applyMu.Unlock()

	p.okCount.Add(1)
	p.lastOK.Store(time.Now().UnixNano())
	p.logger.Debug("game replaced",
		zap.String("fetch_id", id),
		zap.String("source", p.src.Name()),
		zap.Int("positions", len(g)),
		zap.Duration("took", time.Since(start)),
	)
	return true
}

type Stats struct {
	OK     int64     `json:"ok"`
	Failed int64     `json:"failed"`
	LastOK time.Time `json:"last_ok,omitempty"`
}

func (p *Poller) Stats() Stats {
	s := Stats{OK: p.okCount.Load(), Failed: p.failCount.Load()}
	if n := p.lastOK.Load(); n > 0 {
		s.LastOK = time.Unix(0, n)
	}
	return s
}
