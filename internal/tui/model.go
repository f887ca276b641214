// Package tui is the terminal Game Viewer. All state changes happen inside
// the bubbletea update loop; fetches run as commands, so a slow fetch never
// blocks navigation and overlapping fetches apply in completion order.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-viewer/internal/domain"
	"github.com/park285/cheese-viewer/internal/msgcat"
	"github.com/park285/cheese-viewer/internal/render"
	"github.com/park285/cheese-viewer/internal/source"
	"github.com/park285/cheese-viewer/internal/viewer"
)

type keyMap struct {
	Prev  key.Binding
	Next  key.Binding
	First key.Binding
	Last  key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.First, k.Last, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		Next:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		First: key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		Last:  key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

type tickMsg time.Time

type fetchedMsg struct {
	id   string
	game domain.Game
}

type fetchFailedMsg struct {
	id  string
	err error
}

type changedMsg struct{}

type Config struct {
	Source   source.Source
	Interval time.Duration
	Timeout  time.Duration
	Catalog  *msgcat.Catalog
	Glyphs   string
	Logger   *zap.Logger
}

type Model struct {
	state   *viewer.State
	src     source.Source
	changes <-chan struct{}

	interval time.Duration
	timeout  time.Duration

	catalog *msgcat.Catalog
	glyphs  msgcat.GlyphSet
	theme   render.TextTheme

	keys keyMap
	help help.Model

	logger *zap.Logger
}

func New(cfg Config) Model {
	if cfg.Catalog == nil {
		cfg.Catalog = msgcat.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	m := Model{
		state:    viewer.New(),
		src:      cfg.Source,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		catalog:  cfg.Catalog,
		glyphs:   cfg.Catalog.Glyphs(cfg.Glyphs),
		theme:    render.DefaultTextTheme(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		logger:   cfg.Logger,
	}
	if n, ok := cfg.Source.(source.Notifier); ok {
		m.changes = n.Changes()
	}
	return m
}

// State exposes the viewer state for inspection.
func (m Model) State() *viewer.State { return m.state }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick(), m.waitChange())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) fetch() tea.Cmd {
	src, timeout := m.src, m.timeout
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		id := uuid.NewString()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		g, err := src.Fetch(ctx)
		if err != nil {
			return fetchFailedMsg{id: id, err: err}
		}
		return fetchedMsg{id: id, game: g}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Prev):
			m.state.StepBack()
		case key.Matches(msg, m.keys.Next):
			m.state.StepForward()
		case key.Matches(msg, m.keys.First):
			m.state.Seek(0)
		case key.Matches(msg, m.keys.Last):
			m.state.Seek(m.state.Len() - 1)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		// the next tick does not wait for this fetch
		return m, tea.Batch(m.fetch(), m.tick())

	case changedMsg:
		return m, tea.Batch(m.fetch(), m.waitChange())

	case fetchedMsg:
		m.state.Replace(msg.game)
		m.logger.Debug("game replaced", zap.String("fetch_id", msg.id), zap.Int("positions", len(msg.game)))
		return m, nil

	case fetchFailedMsg:
		m.logger.Warn("fetch skipped", zap.String("fetch_id", msg.id), zap.String("source", m.sourceName()), zap.Error(msg.err))
		return m, nil
	}
	return m, nil
}

func (m Model) sourceName() string {
	if m.src == nil {
		return ""
	}
	return m.src.Name()
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ECEFFF")).Background(lipgloss.Color("#1C1F2E")).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A7F9A"))
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("♞ board viewer"))
	b.WriteString("\n\n")

	pos, ok := m.state.Current()
	if !ok {
		waiting, err := m.catalog.Render(msgcat.KeyWaiting, map[string]string{"Source": m.sourceName()})
		if err != nil {
			waiting = "Waiting for game data"
		}
		b.WriteString(dimStyle.Render(waiting))
	} else {
		label := m.catalog.MoveLabel(m.state.Index(), m.state.Len())
		grid := render.Project(pos, m.glyphs)
		b.WriteString(render.Text(grid, label, m.theme))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("fen " + render.FEN(pos)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// Run starts the program on the terminal and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
