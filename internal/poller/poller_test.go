package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/park285/cheese-viewer/internal/domain"
	"github.com/park285/cheese-viewer/internal/source"
	"github.com/park285/cheese-viewer/internal/viewer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type scriptedFetch struct {
	game  domain.Game
	err   error
	delay <-chan struct{}
}

// fakeSource returns scripted results in call order; later calls repeat the last one.
type fakeSource struct {
	mu     sync.Mutex
	script []scriptedFetch
	calls  int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) (domain.Game, error) {
	f.mu.Lock()
	i := f.calls
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	step := f.script[i]
	f.calls++
	f.mu.Unlock()
	if step.delay != nil {
		select {
		case <-step.delay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return step.game, step.err
}

func gameOf(n int) domain.Game {
	g := make(domain.Game, n)
	for i := range g {
		g[i] = domain.EmptyPosition()
	}
	return g
}

func TestFetchFailureLeavesStateUntouched(t *testing.T) {
	st := viewer.New()
	st.Replace(gameOf(5))
	st.Seek(3)
	src := &fakeSource{script: []scriptedFetch{{err: errors.Join(source.ErrFetch, domain.ErrInvalidPayload)}}}
	p := New(src, st.Replace)

	if p.FetchOnce(context.Background()) { t.Fatalf("failed fetch must not report a replace") }
	if st.Len() != 5 || st.Index() != 3 { t.Fatalf("state changed: len=%d idx=%d", st.Len(), st.Index()) }
	if p.Stats().Failed != 1 || p.Stats().OK != 0 { t.Fatalf("unexpected stats %+v", p.Stats()) }
}

func TestFetchSingleSetsLabel(t *testing.T) {
	st := viewer.New()
	src := &fakeSource{script: []scriptedFetch{{game: gameOf(1)}}}
	p := New(src, st.Replace)
	if !p.FetchOnce(context.Background()) { t.Fatalf("expected replace") }
	if st.Label() != "Move: 0 / 0" { t.Fatalf("label: %q", st.Label()) }
	if p.Stats().LastOK.IsZero() { t.Fatalf("expected LastOK to be set") }
}

func TestOverlappingFetchesLastCompletionWins(t *testing.T) {
	st := viewer.New()
	slow := make(chan struct{})
	src := &fakeSource{script: []scriptedFetch{
		{game: gameOf(7), delay: slow}, // issued first, finishes last
		{game: gameOf(2)},
	}}
	var applied []int
	p := New(src, func(g domain.Game) {
		applied = append(applied, len(g))
		st.Replace(g)
	})

	ctx := context.Background()
	p.spawn(ctx)
	waitCalls(t, src, 1)
	p.spawn(ctx)
	waitApplied(t, p, 1)
	close(slow)
	p.inflight.Wait()

	if len(applied) != 2 || applied[0] != 2 || applied[1] != 7 {
		t.Fatalf("expected completion order [2 7], got %v", applied)
	}
	if st.Len() != 7 { t.Fatalf("last completed fetch should win, len=%d", st.Len()) }
}

func TestRunPollsUntilCancelled(t *testing.T) {
	var applied atomic.Int32
	src := &fakeSource{script: []scriptedFetch{{game: gameOf(3)}}}
	p := New(src, func(domain.Game) { applied.Add(1) }, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for applied.Load() < 3 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("expected at least 3 applies, got %d", applied.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) { t.Fatalf("Run returned %v", err) }
}

type notifyingSource struct {
	fakeSource
	ch chan struct{}
}

func (n *notifyingSource) Changes() <-chan struct{} { return n.ch }

func TestRunFetchesOnChange(t *testing.T) {
	var applied atomic.Int32
	src := &notifyingSource{fakeSource: fakeSource{script: []scriptedFetch{{game: gameOf(1)}}}, ch: make(chan struct{}, 1)}
	p := New(src, func(domain.Game) { applied.Add(1) }, WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitCount(t, &applied, 1)
	src.ch <- struct{}{}
	waitCount(t, &applied, 2)
	cancel()
	<-done
}

func waitCalls(t *testing.T, f *fakeSource, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		c := f.calls
		f.mu.Unlock()
		if c >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("source not called %d times", n)
}

func waitApplied(t *testing.T, p *Poller, n int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Stats().OK >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d applies", n)
}

func waitCount(t *testing.T, c *atomic.Int32, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Load() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected count %d, got %d", n, c.Load())
}
