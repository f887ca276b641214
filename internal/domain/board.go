package domain

import (
	"fmt"
	"strings"
)

// Symbol is a single board cell: a piece letter or Empty.
type Symbol byte

const (
	Empty Symbol = '.'

	WhiteKing   Symbol = 'K'
	WhiteQueen  Symbol = 'Q'
	WhiteRook   Symbol = 'R'
	WhiteBishop Symbol = 'B'
	WhiteKnight Symbol = 'N'
	WhitePawn   Symbol = 'P'

	BlackKing   Symbol = 'k'
	BlackQueen  Symbol = 'q'
	BlackRook   Symbol = 'r'
	BlackBishop Symbol = 'b'
	BlackKnight Symbol = 'n'
	BlackPawn   Symbol = 'p'
)

const (
	BoardFiles   = 8
	BoardRanks   = 8
	BoardSquares = BoardFiles * BoardRanks
)

// Symbols lists every valid cell symbol in display order.
var Symbols = []Symbol{
	WhiteKing, WhiteQueen, WhiteRook, WhiteBishop, WhiteKnight, WhitePawn,
	BlackKing, BlackQueen, BlackRook, BlackBishop, BlackKnight, BlackPawn,
	Empty,
}

func (s Symbol) Valid() bool {
	switch s {
	case Empty,
		WhiteKing, WhiteQueen, WhiteRook, WhiteBishop, WhiteKnight, WhitePawn,
		BlackKing, BlackQueen, BlackRook, BlackBishop, BlackKnight, BlackPawn:
		return true
	}
	return false
}

func (s Symbol) IsEmpty() bool { return s == Empty }
func (s Symbol) IsWhite() bool { return s >= 'A' && s <= 'Z' && s.Valid() }
func (s Symbol) IsBlack() bool { return s >= 'a' && s <= 'z' && s.Valid() }

func (s Symbol) String() string { return string(rune(s)) }

// ParseSymbol accepts exactly one character from the symbol set.
func ParseSymbol(raw string) (Symbol, error) {
	if len(raw) != 1 {
		return 0, fmt.Errorf("cell symbol %q: want one character", raw)
	}
	s := Symbol(raw[0])
	if !s.Valid() {
		return 0, fmt.Errorf("cell symbol %q: unknown", raw)
	}
	return s, nil
}

// Position is one board snapshot. Index 0 is a1, 7 is h1, 63 is h8.
type Position [BoardSquares]Symbol

// EmptyPosition returns a board with every cell Empty.
func EmptyPosition() Position {
	var p Position
	for i := range p {
		p[i] = Empty
	}
	return p
}

// StartPosition returns the standard initial setup.
func StartPosition() Position {
	p := EmptyPosition()
	back := []Symbol{WhiteRook, WhiteKnight, WhiteBishop, WhiteQueen, WhiteKing, WhiteBishop, WhiteKnight, WhiteRook}
	for file, s := range back {
		p[Index(0, file)] = s
		p[Index(1, file)] = WhitePawn
		p[Index(6, file)] = BlackPawn
		p[Index(7, file)] = s + ('a' - 'A')
	}
	return p
}

// ParsePosition reads 64 symbols, ignoring whitespace, in index order.
func ParsePosition(raw string) (Position, error) {
	var p Position
	n := 0
	for _, r := range raw {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if n >= BoardSquares {
			return Position{}, fmt.Errorf("position: more than %d cells", BoardSquares)
		}
		s, err := ParseSymbol(string(r))
		if err != nil {
			return Position{}, err
		}
		p[n] = s
		n++
	}
	if n != BoardSquares {
		return Position{}, fmt.Errorf("position: got %d cells, want %d", n, BoardSquares)
	}
	return p, nil
}

// At returns the symbol on rank/file (both zero based).
func (p Position) At(rank, file int) Symbol { return p[Index(rank, file)] }

func (p Position) String() string {
	var b strings.Builder
	for rank := BoardRanks - 1; rank >= 0; rank-- {
		for file := 0; file < BoardFiles; file++ {
			b.WriteByte(byte(p.At(rank, file)))
		}
		if rank > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Index maps zero-based rank/file to a cell index.
func Index(rank, file int) int { return rank*BoardFiles + file }

// RankFile splits a cell index into zero-based rank and file.
func RankFile(index int) (rank, file int) { return index / BoardFiles, index % BoardFiles }

// SquareName returns the algebraic name of a cell index, e.g. "a1" for 0.
func SquareName(index int) string {
	rank, file := RankFile(index)
	return string([]byte{byte('a' + file), byte('1' + rank)})
}

// Game is the ordered sequence of snapshots.
type Game []Position

func (g Game) Len() int { return len(g) }
