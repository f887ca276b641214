package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/cheese-viewer/internal/domain"
)

// DefaultWSReadLimit bounds a single pushed frame. A full game runs to a few
// hundred bytes per position, far past the library's 32 KiB default.
const DefaultWSReadLimit int64 = 4 << 20

// WebSocket keeps a connection to a push feed. Each text frame is a full
// game document; Fetch returns the most recent valid one.
type WebSocket struct {
	wsURL          string
	reconnectDelay time.Duration
	readLimit      int64
	logger         *zap.Logger

	mu     sync.RWMutex
	latest domain.Game
	have   bool

	changes   chan struct{}
	ready     chan struct{}
	readyOnce sync.Once

	rootCtx    context.Context
	rootCancel context.CancelFunc
	startOnce  sync.Once
	wg         sync.WaitGroup
}

func NewWebSocket(wsURL string, reconnectDelay time.Duration, readLimit int64, logger *zap.Logger) *WebSocket {
	if reconnectDelay <= 0 {
		reconnectDelay = 2 * time.Second
	}
	if readLimit <= 0 {
		readLimit = DefaultWSReadLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocket{
		wsURL:          wsURL,
		reconnectDelay: reconnectDelay,
		readLimit:      readLimit,
		logger:         logger,
		changes:        make(chan struct{}, 1),
		ready:          make(chan struct{}),
	}
}

func (ws *WebSocket) Name() string { return ws.wsURL }

// Start launches the connect/read loop. It returns immediately.
func (ws *WebSocket) Start(ctx context.Context) {
	ws.startOnce.Do(func() {
		ws.rootCtx, ws.rootCancel = context.WithCancel(ctx)
		ws.wg.Add(1)
		go ws.loop()
	})
}

func (ws *WebSocket) Fetch(ctx context.Context) (domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchErr("%s: %v", ws.wsURL, err)
	}
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if !ws.have {
		return nil, fetchErr("%s: no game received yet", ws.wsURL)
	}
	return ws.latest, nil
}

func (ws *WebSocket) Changes() <-chan struct{} { return ws.changes }

// WaitReady blocks until the first valid game has arrived or ctx is done.
func (ws *WebSocket) WaitReady(ctx context.Context) error {
	select {
	case <-ws.ready:
		return nil
	case <-ctx.Done():
		return fetchErr("%s: %v", ws.wsURL, ctx.Err())
	}
}

func (ws *WebSocket) loop() {
	defer ws.wg.Done()
	for {
		err := ws.session()
		if ws.rootCtx.Err() != nil {
			return
		}
		ws.logger.Warn("websocket feed disconnected", zap.String("url", ws.wsURL), zap.Error(err))
		if sleepWithContext(ws.rootCtx, ws.reconnectDelay) != nil {
			return
		}
	}
}

func (ws *WebSocket) session() error {
	dialCtx, cancel := context.WithTimeout(ws.rootCtx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	conn.SetReadLimit(ws.readLimit)
	ws.logger.Info("websocket feed connected", zap.String("url", ws.wsURL))

	for {
		typ, raw, err := conn.Read(ws.rootCtx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		g, err := decode(raw)
		if err != nil {
			ws.logger.Warn("websocket frame ignored", zap.Error(err))
			continue
		}
		ws.mu.Lock()
		ws.latest = g
		ws.have = true
		ws.mu.Unlock()
		ws.readyOnce.Do(func() { close(ws.ready) })
		select {
		case ws.changes <- struct{}{}:
		default:
		}
	}
}

func (ws *WebSocket) Close() error {
	if ws.rootCancel != nil {
		ws.rootCancel()
	}
	ws.wg.Wait()
	return nil
}
