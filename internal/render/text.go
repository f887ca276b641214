package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TextTheme styles the terminal board.
type TextTheme struct {
	Light  lipgloss.Style
	Dark   lipgloss.Style
	White  lipgloss.Color
	Black  lipgloss.Color
	Coord  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
}

// DefaultTextTheme uses the same board colors as the PNG renderer.
func DefaultTextTheme() TextTheme {
	return TextTheme{
		Light:  lipgloss.NewStyle().Background(lipgloss.Color("#E9CFA3")).Width(3).Align(lipgloss.Center),
		Dark:   lipgloss.NewStyle().Background(lipgloss.Color("#BB8860")).Width(3).Align(lipgloss.Center),
		White:  lipgloss.Color("#FFFFFF"),
		Black:  lipgloss.Color("#000000"),
		Coord:  lipgloss.NewStyle().Foreground(lipgloss.Color("#08D678")),
		Label:  lipgloss.NewStyle().Bold(true).MarginTop(1),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// PlainTextTheme has no colors; useful for files and tests.
func PlainTextTheme() TextTheme {
	cell := lipgloss.NewStyle().Width(3).Align(lipgloss.Center)
	return TextTheme{
		Light: cell,
		Dark:  cell,
		Coord: lipgloss.NewStyle(),
		Label: lipgloss.NewStyle(),
	}
}

// Text draws the grid with rank/file coordinates and the label underneath.
// An empty grid renders only the label.
func Text(g Grid, label string, theme TextTheme) string {
	rows := g.Rows()
	if len(rows) == 0 {
		return theme.Label.Render(label)
	}

	lines := make([]string, 0, len(rows)+1)
	for _, row := range rows {
		parts := make([]string, 0, len(row)+1)
		parts = append(parts, theme.Coord.Render(string(rune('1'+row[0].Rank))+" "))
		for _, c := range row {
			st := theme.Light
			if c.Dark {
				st = theme.Dark
			}
			if c.Symbol.IsWhite() && theme.White != "" {
				st = st.Foreground(theme.White)
			} else if c.Symbol.IsBlack() && theme.Black != "" {
				st = st.Foreground(theme.Black)
			}
			glyph := c.Glyph
			if glyph == "" {
				glyph = " "
			}
			parts = append(parts, st.Render(glyph))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	var files strings.Builder
	files.WriteString("  ")
	for f := 0; f < 8; f++ {
		files.WriteString(" " + string(rune('a'+f)) + " ")
	}
	lines = append(lines, theme.Coord.Render(files.String()))

	board := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if label == "" {
		return board
	}
	return lipgloss.JoinVertical(lipgloss.Left, board, theme.Label.Render(label))
}
