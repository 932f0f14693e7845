package minesweeper

import "time"

// Snapshot is a read-only copy of the board for presentation layers and
// determinism checks.
type Snapshot struct {
	Width          int
	Height         int
	Mines          int
	Tiles          []Tile // row-major, index y*Width+x
	State          State
	MinesGenerated bool
	FlagsPlaced    int
	FlagsRemaining int
	Elapsed        time.Duration
}

// Snapshot returns a copy of the current board state.
func (b *Board) Snapshot() Snapshot {
	tiles := make([]Tile, len(b.tiles))
	copy(tiles, b.tiles)

	return Snapshot{
		Width:          b.width,
		Height:         b.height,
		Mines:          b.mines,
		Tiles:          tiles,
		State:          b.state,
		MinesGenerated: b.minesGenerated,
		FlagsPlaced:    b.flagsPlaced,
		FlagsRemaining: b.FlagsRemaining(),
		Elapsed:        b.Elapsed(),
	}
}

// At returns the tile at (x, y). Out-of-range coordinates yield a zero Tile.
func (s Snapshot) At(x, y int) Tile {
	if x < 0 || x >= s.Width || y < 0 || y >= s.Height {
		return Tile{}
	}
	return s.Tiles[y*s.Width+x]
}
