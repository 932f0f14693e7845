// Package minesweeper implements the Minesweeper game-state engine:
// lazy mine placement around the first reveal, neighbor counts, flags,
// the zero-count flood-fill and win/loss detection.
//
// The engine contains pure game logic. Rendering, input and timing of
// redraws belong to the platform layer, which reads Snapshot() and mutates
// the board only through Reveal, ToggleFlag and Reset.
package minesweeper

import "fmt"

// Point is a board coordinate. X grows to the right, Y grows downward.
type Point struct {
	X, Y int
}

// P is shorthand for Point{X: x, Y: y}.
func P(x, y int) Point {
	return Point{X: x, Y: y}
}

// String returns "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Tile is a single board cell.
type Tile struct {
	X, Y          int
	Mine          bool
	Revealed      bool
	Flagged       bool
	NeighborMines int // Mines in the clipped 8-neighborhood, 0-8
}

// Pos returns the tile coordinate.
func (t Tile) Pos() Point {
	return Point{X: t.X, Y: t.Y}
}

// Hidden reports whether the tile is neither revealed nor flagged.
func (t Tile) Hidden() bool {
	return !t.Revealed && !t.Flagged
}

// neighborOffsets lists the 8-neighborhood in scan order.
var neighborOffsets = [8]Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}
