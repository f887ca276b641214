package webui

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/cheese-viewer/internal/domain"
	"github.com/park285/cheese-viewer/internal/msgcat"
	"github.com/park285/cheese-viewer/internal/poller"
	"github.com/park285/cheese-viewer/internal/viewer"
)

func do(t *testing.T, s *Server, method, path string) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	s.Handler(&ctx)
	return &ctx
}

func decodeState(t *testing.T, ctx *fasthttp.RequestCtx) StateResponse {
	t.Helper()
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var st StateResponse
	if err := json.Unmarshal(ctx.Response.Body(), &st); err != nil { t.Fatalf("decode: %v", err) }
	return st
}

func TestStateWithoutData(t *testing.T) {
	s := New(Config{})
	st := decodeState(t, do(t, s, "GET", "/api/state"))
	if st.Phase != viewer.PhaseNoData || len(st.Cells) != 0 || st.Label != "" {
		t.Fatalf("expected empty state, got %+v", st)
	}
	if ctx := do(t, s, "GET", "/board.png"); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("png without data should 404, got %d", ctx.Response.StatusCode())
	}
}

func TestNavigateEndpoints(t *testing.T) {
	s := New(Config{Glyphs: msgcat.GlyphsUnicode})
	s.Replace(domain.Game{domain.StartPosition(), domain.EmptyPosition()})

	st := decodeState(t, do(t, s, "POST", "/api/prev"))
	if st.Moved || st.Index != 0 { t.Fatalf("prev at 0 must be a no-op: %+v", st) }

	st = decodeState(t, do(t, s, "POST", "/api/next"))
	if !st.Moved || st.Index != 1 || st.Label != "Move: 1 / 1" { t.Fatalf("unexpected after next: %+v", st) }
	if len(st.Cells) != 64 || st.Cells[56].Square != "a1" || !st.Cells[56].Dark { t.Fatalf("bad cells") }

	st = decodeState(t, do(t, s, "POST", "/api/next"))
	if st.Moved || st.Index != 1 { t.Fatalf("next at end must be a no-op: %+v", st) }

	st = decodeState(t, do(t, s, "POST", "/api/prev"))
	if st.FEN != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR" { t.Fatalf("fen: %s", st.FEN) }
	if st.Cells[56].Glyph != "♖" { t.Fatalf("a1 glyph: %q", st.Cells[56].Glyph) }
}

func TestIndexPage(t *testing.T) {
	s := New(Config{})
	s.Replace(domain.Game{domain.StartPosition()})
	ctx := do(t, s, "GET", "/")
	body := string(ctx.Response.Body())
	if !strings.Contains(body, `id="prev"`) || !strings.Contains(body, `id="next"`) { t.Fatalf("buttons missing") }
	if !strings.Contains(body, "Move: 0 / 0") { t.Fatalf("label missing") }
	if strings.Count(body, `class="square `) != 64 { t.Fatalf("expected 64 squares") }
	if !strings.Contains(body, "ArrowLeft") { t.Fatalf("keyboard forwarding missing") }
}

func TestPNGAndRouting(t *testing.T) {
	s := New(Config{SquareSize: 24})
	s.Replace(domain.Game{domain.StartPosition()})
	ctx := do(t, s, "GET", "/board.png")
	if ctx.Response.StatusCode() != fasthttp.StatusOK || string(ctx.Response.Header.ContentType()) != "image/png" {
		t.Fatalf("png: %d %s", ctx.Response.StatusCode(), ctx.Response.Header.ContentType())
	}
	if do(t, s, "GET", "/api/next").Response.StatusCode() != fasthttp.StatusMethodNotAllowed { t.Fatalf("GET next should be rejected") }
	if do(t, s, "GET", "/nope").Response.StatusCode() != fasthttp.StatusNotFound { t.Fatalf("unknown path should 404") }
}

type fixedStats struct{}

func (fixedStats) Stats() poller.Stats { return poller.Stats{OK: 3, Failed: 1} }

func TestHealthz(t *testing.T) {
	s := New(Config{})
	s.AttachStats(fixedStats{})
	ctx := do(t, s, "GET", "/healthz")
	if !strings.Contains(string(ctx.Response.Body()), `"failed":1`) { t.Fatalf("stats missing: %s", ctx.Response.Body()) }
}

func TestServeInMemory(t *testing.T) {
	s := New(Config{})
	s.Replace(domain.Game{domain.StartPosition()})
	ln := fasthttputil.NewInmemoryListener()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI("http://viewer/api/state")
	req.SetConnectionClose()
	if err := client.DoTimeout(req, resp, 2*time.Second); err != nil { t.Fatalf("request: %v", err) }
	if !strings.Contains(string(resp.Body()), `"total":1`) { t.Fatalf("unexpected body %s", resp.Body()) }

	cancel()
	if err := <-done; err != nil { t.Fatalf("Serve: %v", err) }
}
