package env

import (
	"strings"

	"github.com/vovakirdan/sweeper/internal/minesweeper"
)

// Cell codes for tiles that are not revealed safe tiles. Revealed safe
// tiles carry their neighbor count, 0-8.
const (
	CellHidden  = 0
	CellMine    = -1
	CellFlagged = -2
)

// Observation is the integer grid an agent sees. Cells are stored
// column-major: index x*Height+y.
type Observation struct {
	Width  int
	Height int
	Cells  []int8
}

// Observe encodes the board. Hidden tiles and revealed zero tiles both read
// as 0; the learner tells them apart only through their neighbors.
func Observe(b *minesweeper.Board) Observation {
	w, h := b.Width(), b.Height()
	obs := Observation{Width: w, Height: h, Cells: make([]int8, w*h)}

	for x := range w {
		for y := range h {
			t, _ := b.Tile(x, y)
			var v int8
			switch {
			case t.Revealed && t.Mine:
				v = CellMine
			case t.Revealed:
				v = int8(t.NeighborMines)
			case t.Flagged:
				v = CellFlagged
			default:
				v = CellHidden
			}
			obs.Cells[x*h+y] = v
		}
	}
	return obs
}

// At returns the cell value at (x, y).
func (o Observation) At(x, y int) int {
	return int(o.Cells[x*o.Height+y])
}

// Key returns the canonical byte encoding of the grid. Two observations
// have equal keys iff every cell matches.
func (o Observation) Key() string {
	var sb strings.Builder
	sb.Grow(len(o.Cells))
	for _, c := range o.Cells {
		sb.WriteByte(byte(c))
	}
	return sb.String()
}

// String draws the grid row by row for debugging.
func (o Observation) String() string {
	var sb strings.Builder
	for y := range o.Height {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range o.Width {
			switch v := o.At(x, y); v {
			case CellMine:
				sb.WriteByte('*')
			case CellFlagged:
				sb.WriteByte('F')
			default:
				sb.WriteByte(byte('0' + v))
			}
		}
	}
	return sb.String()
}
