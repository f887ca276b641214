package render

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-viewer/internal/domain"
)

var symbolPieces = map[domain.Symbol]nchess.Piece{
	domain.WhiteKing:   nchess.WhiteKing,
	domain.WhiteQueen:  nchess.WhiteQueen,
	domain.WhiteRook:   nchess.WhiteRook,
	domain.WhiteBishop: nchess.WhiteBishop,
	domain.WhiteKnight: nchess.WhiteKnight,
	domain.WhitePawn:   nchess.WhitePawn,
	domain.BlackKing:   nchess.BlackKing,
	domain.BlackQueen:  nchess.BlackQueen,
	domain.BlackRook:   nchess.BlackRook,
	domain.BlackBishop: nchess.BlackBishop,
	domain.BlackKnight: nchess.BlackKnight,
	domain.BlackPawn:   nchess.BlackPawn,
}

// Board converts a snapshot into a chess board. No legality checks are made;
// any arrangement of pieces is accepted.
func Board(pos domain.Position) *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece, domain.BoardSquares)
	for i, s := range pos {
		piece, ok := symbolPieces[s]
		if !ok {
			continue
		}
		rank, file := domain.RankFile(i)
		m[nchess.NewSquare(nchess.File(file), nchess.Rank(rank))] = piece
	}
	return nchess.NewBoard(m)
}

// FEN returns the piece-placement field for pos, e.g.
// "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR".
func FEN(pos domain.Position) string {
	return Board(pos).String()
}
