package viewer

import (
	"fmt"

	"github.com/park285/cheese-viewer/internal/domain"
)

// Phase is the coarse viewer state.
type Phase string

const (
	PhaseNoData  Phase = "NO_DATA"
	PhaseViewing Phase = "VIEWING"
)

// Key names accepted by HandleKey. Browser and terminal spellings both map.
const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// State owns the loaded game and the index being viewed.
// The zero value is ready to use and has no data.
//
// State is not safe for concurrent use; callers serialize access
// (the TUI through its update loop, the web server with a mutex).
type State struct {
	game    domain.Game
	current int
}

func New() *State { return &State{} }

// Replace swaps in a new game and clamps the index to it.
func (s *State) Replace(g domain.Game) {
	s.game = g
	switch {
	case len(g) == 0:
		s.current = 0
	case s.current >= len(g):
		s.current = len(g) - 1
	}
}

func (s *State) StepBack() bool {
	if len(s.game) == 0 || s.current <= 0 {
		return false
	}
	s.current--
	return true
}

func (s *State) StepForward() bool {
	if s.current >= len(s.game)-1 {
		return false
	}
	s.current++
	return true
}

// HandleKey maps a key name to a navigation step.
func (s *State) HandleKey(key string) bool {
	switch key {
	case KeyArrowLeft, "left":
		return s.StepBack()
	case KeyArrowRight, "right":
		return s.StepForward()
	default:
		return false
	}
}

// Seek moves to index, clamped to the loaded game.
func (s *State) Seek(index int) bool {
	if len(s.game) == 0 {
		return false
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.game)-1 {
		index = len(s.game) - 1
	}
	if index == s.current {
		return false
	}
	s.current = index
	return true
}

func (s *State) Current() (domain.Position, bool) {
	if len(s.game) == 0 {
		return domain.Position{}, false
	}
	return s.game[s.current], true
}

func (s *State) Index() int { return s.current }
func (s *State) Len() int   { return len(s.game) }

func (s *State) Phase() Phase {
	if len(s.game) == 0 {
		return PhaseNoData
	}
	return PhaseViewing
}

// Label is the move counter, e.g. "Move: 3 / 10". Empty without data.
func (s *State) Label() string {
	if len(s.game) == 0 {
		return ""
	}
	return FormatLabel(s.current, len(s.game))
}

// FormatLabel renders the default move counter for index of total.
func FormatLabel(index, total int) string {
	return fmt.Sprintf("Move: %d / %d", index, total-1)
}

// Snapshot is a copy of the state suitable for handing to renderers.
type Snapshot struct {
	Phase    Phase
	Index    int
	Total    int
	Label    string
	Position domain.Position
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{Phase: s.Phase(), Index: s.current, Total: len(s.game), Label: s.Label()}
	if pos, ok := s.Current(); ok {
		snap.Position = pos
	}
	return snap
}
