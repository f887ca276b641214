package render

import (
	"github.com/park285/cheese-viewer/internal/domain"
)

// Glyphs maps a cell symbol to the text shown on a square.
type Glyphs interface {
	Glyph(s domain.Symbol) string
}

// Cell is one display square.
type Cell struct {
	Square string
	Rank   int // 0 = rank 1
	File   int // 0 = file a
	Dark   bool
	Symbol domain.Symbol
	Glyph  string
}

// Grid is a position projected for display: ranks 8 down to 1, files a to h.
type Grid struct {
	Cells []Cell
}

// Rows splits the grid into display rows (rank 8 first).
func (g Grid) Rows() [][]Cell {
	if len(g.Cells) == 0 {
		return nil
	}
	rows := make([][]Cell, 0, domain.BoardRanks)
	for i := 0; i < len(g.Cells); i += domain.BoardFiles {
		rows = append(rows, g.Cells[i:i+domain.BoardFiles])
	}
	return rows
}

// IsDark reports the square shade; a1 is dark.
func IsDark(rank, file int) bool { return (rank+file)%2 == 0 }

// Project lays out pos for display.
func Project(pos domain.Position, glyphs Glyphs) Grid {
	cells := make([]Cell, 0, domain.BoardSquares)
	for rank := domain.BoardRanks - 1; rank >= 0; rank-- {
		for file := 0; file < domain.BoardFiles; file++ {
			i := domain.Index(rank, file)
			s := pos[i]
			glyph := ""
			if glyphs != nil && !s.IsEmpty() {
				glyph = glyphs.Glyph(s)
			}
			cells = append(cells, Cell{
				Square: domain.SquareName(i),
				Rank:   rank,
				File:   file,
				Dark:   IsDark(rank, file),
				Symbol: s,
				Glyph:  glyph,
			})
		}
	}
	return Grid{Cells: cells}
}

// ProjectCurrent projects pos when ok, otherwise returns an empty grid.
func ProjectCurrent(pos domain.Position, ok bool, glyphs Glyphs) Grid {
	if !ok {
		return Grid{}
	}
	return Project(pos, glyphs)
}
