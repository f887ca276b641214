package source

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-viewer/internal/domain"
)

// HTTP polls a JSON document over HTTP with caching disabled.
type HTTP struct {
	url  string
	http *fasthttp.Client

	defaultTimeout time.Duration
	attempts       int
}

type HTTPOption func(*HTTP)

func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.defaultTimeout = d
		}
	}
}

// WithAttempts enables bounded retry on transport errors and 5xx responses.
func WithAttempts(n int) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.attempts = n
		}
	}
}

func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		url:            url,
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 5 * time.Second,
		attempts:       1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Name() string { return h.url }

func (h *HTTP) Fetch(ctx context.Context) (domain.Game, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(h.url)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	var lastErr error
	for attempt := 1; attempt <= h.attempts; attempt++ {
		if attempt > 1 {
			if err := sleepWithContext(ctx, backoffDuration(attempt-1)); err != nil {
				return nil, lastErr
			}
		}
		err := h.http.DoDeadline(req, resp, h.computeDeadline(ctx))
		if err != nil {
			lastErr = fetchErr("GET %s: %v", h.url, err)
			continue
		}
		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = fetchErr("GET %s: status=%d body=%s", h.url, status, truncate(string(resp.Body()), 256))
			if !shouldRetryStatus(status) {
				return nil, lastErr
			}
			continue
		}
		return decode(resp.Body())
	}
	if lastErr == nil {
		lastErr = fetchErr("GET %s: no attempts made", h.url)
	}
	return nil, lastErr
}

func (h *HTTP) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(h.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
