package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultFileName is the conventional name of the polled resource.
const DefaultFileName = "game.json"

// ErrInvalidPayload marks data that does not have the game.json shape.
var ErrInvalidPayload = errors.New("invalid game payload")

// Payload is the wire shape of game.json.
type Payload struct {
	Positions *[][]string `json:"positions"`
}

// DecodeGame parses a game.json document. Missing or malformed
// positions are reported as ErrInvalidPayload.
func DecodeGame(raw []byte) (Game, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Positions == nil {
		return nil, fmt.Errorf("%w: missing positions", ErrInvalidPayload)
	}
	game := make(Game, 0, len(*p.Positions))
	for i, cells := range *p.Positions {
		if len(cells) != BoardSquares {
			return nil, fmt.Errorf("%w: position %d has %d cells", ErrInvalidPayload, i, len(cells))
		}
		var pos Position
		for j, c := range cells {
			s, err := ParseSymbol(c)
			if err != nil {
				return nil, fmt.Errorf("%w: position %d cell %d: %v", ErrInvalidPayload, i, j, err)
			}
			pos[j] = s
		}
		game = append(game, pos)
	}
	return game, nil
}

// EncodeGame writes the game.json document for g.
func EncodeGame(g Game) ([]byte, error) {
	positions := make([][]string, len(g))
	for i, pos := range g {
		cells := make([]string, BoardSquares)
		for j, s := range pos {
			cells[j] = s.String()
		}
		positions[i] = cells
	}
	return json.Marshal(Payload{Positions: &positions})
}
