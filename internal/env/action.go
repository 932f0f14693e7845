package env

import (
	"fmt"

	"github.com/vovakirdan/sweeper/internal/minesweeper"
)

// Action kinds.
const (
	Reveal = minesweeper.MoveReveal
	Flag   = minesweeper.MoveFlag
)

// kinds is the number of action kinds per cell.
const kinds = 2

// Action targets one cell with a reveal or a flag toggle.
type Action struct {
	X, Y int
	Kind minesweeper.MoveKind
}

// String returns e.g. "reveal(3,4)".
func (a Action) String() string {
	return fmt.Sprintf("%s(%d,%d)", a.Kind, a.X, a.Y)
}

// ActionSpace returns every action in enumeration order: x ascending, then
// y ascending, then Reveal before Flag. The slice is shared; do not modify.
func (e *Env) ActionSpace() []Action {
	return e.actions
}

func actionSpace(w, h int) []Action {
	actions := make([]Action, 0, w*h*kinds)
	for x := range w {
		for y := range h {
			actions = append(actions,
				Action{X: x, Y: y, Kind: Reveal},
				Action{X: x, Y: y, Kind: Flag},
			)
		}
	}
	return actions
}

// Index returns the position of a in ActionSpace: (x*Height+y)*2+kind.
func (e *Env) Index(a Action) int {
	return (a.X*e.Height()+a.Y)*kinds + int(a.Kind)
}

// ActionFromIndex is the inverse of Index.
func (e *Env) ActionFromIndex(i int) (Action, error) {
	if i < 0 || i >= len(e.actions) {
		return Action{}, fmt.Errorf("%w: index %d outside [0,%d)", ErrInvalidAction, i, len(e.actions))
	}
	return e.actions[i], nil
}

// RevealIndex decodes a reveal-only action index, a = x*Height+y.
func (e *Env) RevealIndex(a int) (Action, error) {
	h := e.Height()
	if a < 0 || a >= e.Width()*h {
		return Action{}, fmt.Errorf("%w: reveal index %d outside [0,%d)", ErrInvalidAction, a, e.Width()*h)
	}
	return Action{X: a / h, Y: a % h, Kind: Reveal}, nil
}
