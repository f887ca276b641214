// Package webui serves the Game Viewer to browsers over fasthttp. There is a
// single shared viewer state; every client navigates the same index.
package webui

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-viewer/internal/domain"
	"github.com/park285/cheese-viewer/internal/msgcat"
	"github.com/park285/cheese-viewer/internal/poller"
	"github.com/park285/cheese-viewer/internal/render"
	"github.com/park285/cheese-viewer/internal/viewer"
)

//go:embed index.html.tmpl
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// StatsProvider reports refresh health for /healthz.
type StatsProvider interface {
	Stats() poller.Stats
}

type Config struct {
	Catalog    *msgcat.Catalog
	Glyphs     string
	SquareSize int
	Refresh    time.Duration
	Logger     *zap.Logger
}

type Server struct {
	mu    sync.Mutex
	state *viewer.State

	catalog    *msgcat.Catalog
	glyphs     msgcat.GlyphSet
	renderer   render.BoardRenderer
	squareSize int
	refresh    time.Duration
	stats      StatsProvider
	logger     *zap.Logger
}

func New(cfg Config) *Server {
	if cfg.Catalog == nil {
		cfg.Catalog = msgcat.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Second
	}
	return &Server{
		state:      viewer.New(),
		catalog:    cfg.Catalog,
		glyphs:     cfg.Catalog.Glyphs(cfg.Glyphs),
		renderer:   render.NewPNGRenderer(),
		squareSize: cfg.SquareSize,
		refresh:    cfg.Refresh,
		logger:     cfg.Logger,
	}
}

// AttachStats wires the poller (or anything with Stats) into /healthz.
func (s *Server) AttachStats(p StatsProvider) {
	s.stats = p
}

// Replace is the poller's apply callback.
func (s *Server) Replace(g domain.Game) {
	s.mu.Lock()
	s.state.Replace(g)
	s.mu.Unlock()
}

// Cell is the JSON form of a display square.
type Cell struct {
	Square string `json:"square"`
	Dark   bool   `json:"dark"`
	Glyph  string `json:"glyph"`
}

type StateResponse struct {
	Phase viewer.Phase `json:"phase"`
	Index int          `json:"index"`
	Total int          `json:"total"`
	Label string       `json:"label"`
	FEN   string       `json:"fen,omitempty"`
	Moved bool         `json:"moved"`
	Cells []Cell       `json:"cells"`
}

func (s *Server) snapshot() viewer.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

func (s *Server) navigate(step func(*viewer.State) bool) (viewer.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := step(s.state)
	return s.state.Snapshot(), moved
}

func (s *Server) view(snap viewer.Snapshot, moved bool) StateResponse {
	resp := StateResponse{Phase: snap.Phase, Index: snap.Index, Total: snap.Total, Moved: moved, Cells: []Cell{}}
	if snap.Phase != viewer.PhaseViewing {
		return resp
	}
	resp.Label = s.catalog.MoveLabel(snap.Index, snap.Total)
	resp.FEN = render.FEN(snap.Position)
	for _, c := range render.Project(snap.Position, s.glyphs).Cells {
		resp.Cells = append(resp.Cells, Cell{Square: c.Square, Dark: c.Dark, Glyph: c.Glyph})
	}
	return resp
}

// Handler routes requests; exported for tests and embedding.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())
	switch {
	case path == "/" && method == fasthttp.MethodGet:
		s.handleIndex(ctx)
	case path == "/api/state" && method == fasthttp.MethodGet:
		s.writeJSON(ctx, fasthttp.StatusOK, s.view(s.snapshot(), false))
	case path == "/api/prev" && method == fasthttp.MethodPost:
		snap, moved := s.navigate((*viewer.State).StepBack)
		s.writeJSON(ctx, fasthttp.StatusOK, s.view(snap, moved))
	case path == "/api/next" && method == fasthttp.MethodPost:
		snap, moved := s.navigate((*viewer.State).StepForward)
		s.writeJSON(ctx, fasthttp.StatusOK, s.view(snap, moved))
	case path == "/board.png" && method == fasthttp.MethodGet:
		s.handlePNG(ctx)
	case path == "/healthz":
		s.handleHealth(ctx)
	case path == "/" || path == "/api/state" || path == "/api/prev" || path == "/api/next" || path == "/board.png":
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleIndex(ctx *fasthttp.RequestCtx) {
	v := s.view(s.snapshot(), false)
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, map[string]any{
		"Cells":         v.Cells,
		"Label":         v.Label,
		"RefreshMillis": s.refresh.Milliseconds(),
	})
	if err != nil {
		s.logger.Error("render index", zap.Error(err))
		ctx.Error("render failed", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(buf.Bytes())
}

func (s *Server) handlePNG(ctx *fasthttp.RequestCtx) {
	snap := s.snapshot()
	if snap.Phase != viewer.PhaseViewing {
		ctx.Error("no game loaded", fasthttp.StatusNotFound)
		return
	}
	label := s.catalog.MoveLabel(snap.Index, snap.Total)
	rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	img, err := s.renderer.RenderPNG(rctx, snap.Position, render.PNGOptions{SquareSize: s.squareSize, Label: label})
	if err != nil {
		s.logger.Error("render png", zap.Error(err))
		ctx.Error("render failed", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(img)
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	snap := s.snapshot()
	body := map[string]any{"phase": snap.Phase, "positions": snap.Total}
	if s.stats != nil {
		body["fetch"] = s.stats.Stats()
	}
	s.writeJSON(ctx, fasthttp.StatusOK, body)
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		ctx.Error(fmt.Sprintf("encode: %v", err), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(raw)
}

// Serve runs the HTTP server on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &fasthttp.Server{
		Handler:      s.Handler,
		Name:         "board-viewer",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		if err := srv.Shutdown(); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.logger.Info("web viewer listening", zap.String("addr", ln.Addr().String()))
	return s.Serve(ctx, ln)
}
