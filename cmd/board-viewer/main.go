package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appcfg "github.com/park285/cheese-viewer/internal/config"
	"github.com/park285/cheese-viewer/internal/msgcat"
	"github.com/park285/cheese-viewer/internal/obslog"
	"github.com/park285/cheese-viewer/internal/poller"
	"github.com/park285/cheese-viewer/internal/render"
	"github.com/park285/cheese-viewer/internal/source"
	"github.com/park285/cheese-viewer/internal/tui"
	"github.com/park285/cheese-viewer/internal/viewer"
	"github.com/park285/cheese-viewer/internal/webui"
)

type flagValues struct {
	source   string
	interval time.Duration
	glyphs   string
	addr     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fv flagValues
	root := &cobra.Command{
		Use:           "board-viewer",
		Short:         "Step through chess board snapshots polled from game.json",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), fv)
		},
	}
	root.PersistentFlags().StringVar(&fv.source, "source", "", "game source: path, http(s)://, redis:// or ws(s):// URL (env VIEWER_SOURCE)")
	root.PersistentFlags().DurationVar(&fv.interval, "interval", 0, "poll interval (env VIEWER_POLL_INTERVAL)")
	root.PersistentFlags().StringVar(&fv.glyphs, "glyphs", "", "glyph set: unicode or ascii (env VIEWER_GLYPHS)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Terminal viewer (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), fv)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the viewer over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), fv)
		},
	}
	serveCmd.Flags().StringVar(&fv.addr, "addr", "", "listen address (env VIEWER_LISTEN_ADDR)")

	root.AddCommand(tuiCmd, serveCmd, newExportCmd(&fv))
	return root
}

func newExportCmd(fv *flagValues) *cobra.Command {
	var (
		index  int
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch once and render one position as text, fen or png",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*fv)
			if err != nil {
				return err
			}
			if err := initLogging(false); err != nil {
				return err
			}
			defer obslog.Sync()
			return runExport(cmd.Context(), cfg, index, format, out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "position index; negative means the last one")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, fen or png")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}

func loadConfig(fv flagValues) (*appcfg.AppConfig, error) {
	cfg, err := appcfg.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if s := strings.TrimSpace(fv.source); s != "" {
		cfg.Source = s
	}
	if fv.interval > 0 {
		cfg.PollInterval = fv.interval
	}
	if g := strings.TrimSpace(fv.glyphs); g != "" {
		cfg.Glyphs = strings.ToLower(g)
	}
	if a := strings.TrimSpace(fv.addr); a != "" {
		cfg.ListenAddr = a
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// initLogging applies LOG_* settings. The terminal UI owns stdout, so console
// logging is forced off there and only the log file (if enabled) is written.
func initLogging(terminalUI bool) error {
	opts := obslog.OptionsFromEnv()
	if terminalUI {
		opts.Console = false
	}
	if err := obslog.Init(opts); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	return nil
}

func openSource(ctx context.Context, cfg *appcfg.AppConfig) (source.Source, error) {
	src, err := source.Open(ctx, cfg.Source, source.Options{
		Timeout:     cfg.FetchTimeout,
		Attempts:    cfg.FetchAttempts,
		Watch:       cfg.Watch,
		RedisKey:    cfg.RedisKey,
		WSReconnect: cfg.WSReconnect,
		WSReadLimit: cfg.WSReadLimit,
		Logger:      obslog.L(),
	})
	if err != nil {
		return nil, fmt.Errorf("source init: %w", err)
	}
	return src, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runTUI(parent context.Context, fv flagValues) error {
	cfg, err := loadConfig(fv)
	if err != nil {
		return err
	}
	if err := initLogging(true); err != nil {
		return err
	}
	defer obslog.Sync()

	ctx, cancel := signalContext(parent)
	defer cancel()

	catalog, err := msgcat.New(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("catalog init: %w", err)
	}
	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.Close(src)

	obslog.L().Info("terminal viewer starting", zap.String("source", src.Name()), zap.Duration("interval", cfg.PollInterval))
	return tui.Run(ctx, tui.Config{
		Source:   src,
		Interval: cfg.PollInterval,
		Timeout:  cfg.FetchTimeout,
		Catalog:  catalog,
		Glyphs:   cfg.Glyphs,
		Logger:   obslog.L(),
	})
}

func runServe(parent context.Context, fv flagValues) error {
	cfg, err := loadConfig(fv)
	if err != nil {
		return err
	}
	if err := initLogging(false); err != nil {
		return err
	}
	defer obslog.Sync()
	logger := obslog.L()

	ctx, cancel := signalContext(parent)
	defer cancel()

	catalog, err := msgcat.New(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("catalog init: %w", err)
	}
	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.Close(src)

	srv := webui.New(webui.Config{
		Catalog:    catalog,
		Glyphs:     cfg.Glyphs,
		SquareSize: cfg.SquareSize,
		Refresh:    cfg.PollInterval,
		Logger:     logger,
	})
	p := poller.New(src, srv.Replace,
		poller.WithInterval(cfg.PollInterval),
		poller.WithTimeout(cfg.FetchTimeout),
		poller.WithLogger(logger),
	)
	srv.AttachStats(p)

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		_ = p.Run(ctx)
	}()

	err = srv.ListenAndServe(ctx, cfg.ListenAddr)
	cancel()
	<-pollDone
	return err
}

func runExport(ctx context.Context, cfg *appcfg.AppConfig, index int, format, out string, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	catalog, err := msgcat.New(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("catalog init: %w", err)
	}
	// one-shot: no watcher needed
	cfg.Watch = false
	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.Close(src)

	fctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()
	if w, ok := src.(source.Waiter); ok {
		// push feeds hold nothing until the first frame; Fetch reports a timeout
		_ = w.WaitReady(fctx)
	}
	game, err := src.Fetch(fctx)
	if err != nil {
		return err
	}

	st := viewer.New()
	st.Replace(game)
	if index < 0 {
		index = st.Len() - 1
	}
	st.Seek(index)
	pos, ok := st.Current()
	if !ok {
		return fmt.Errorf("source %s has no positions", src.Name())
	}
	label := catalog.MoveLabel(st.Index(), st.Len())

	var body []byte
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "":
		grid := render.Project(pos, catalog.Glyphs(cfg.Glyphs))
		body = []byte(render.Text(grid, label, render.PlainTextTheme()) + "\n")
	case "fen":
		body = []byte(render.FEN(pos) + "\n")
	case "png":
		body, err = render.NewPNGRenderer().RenderPNG(ctx, pos, render.PNGOptions{SquareSize: cfg.SquareSize, Label: label})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want text, fen or png)", format)
	}

	if out == "" {
		_, err = stdout.Write(body)
		return err
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	obslog.L().Info("exported position", zap.String("out", out), zap.Int("index", st.Index()), zap.String("format", format))
	return nil
}
