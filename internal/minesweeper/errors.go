package minesweeper

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every board construction failure.
	ErrInvalidConfig = errors.New("minesweeper: invalid board configuration")

	// ErrTooManyMines is returned when the mines do not fit outside the safe zone.
	ErrTooManyMines = errors.New("minesweeper: not enough cells outside the safe zone")

	// ErrOutOfBounds is returned for coordinates outside the board.
	ErrOutOfBounds = errors.New("minesweeper: coordinates out of bounds")

	// ErrInvalidMove is returned by Apply for an unknown move kind.
	ErrInvalidMove = errors.New("minesweeper: invalid move")
)

// ConfigError describes rejected board parameters.
type ConfigError struct {
	Width      int
	Height     int
	Mines      int
	SafeRadius int
}

// crowded reports whether the only problem is the safe zone leaving too
// few cells for the mines.
func (e *ConfigError) crowded() bool {
	return e.Width > 0 && e.Height > 0 && e.Mines >= 0 && e.Mines < e.Width*e.Height &&
		e.Mines > MaxMines(e.Width, e.Height, e.SafeRadius)
}

func (e *ConfigError) Error() string {
	switch {
	case e.Width <= 0:
		return fmt.Sprintf("minesweeper: cannot create a board with width %d", e.Width)
	case e.Height <= 0:
		return fmt.Sprintf("minesweeper: cannot create a board with height %d", e.Height)
	case e.Mines < 0:
		return fmt.Sprintf("minesweeper: cannot create a board with %d mines", e.Mines)
	case e.Mines >= e.Width*e.Height:
		return fmt.Sprintf("minesweeper: %d mines do not fit a %dx%d board (need fewer than %d)",
			e.Mines, e.Width, e.Height, e.Width*e.Height)
	case e.crowded():
		return fmt.Sprintf("minesweeper: %d mines do not fit a %dx%d board with safe radius %d (at most %d)",
			e.Mines, e.Width, e.Height, e.SafeRadius, MaxMines(e.Width, e.Height, e.SafeRadius))
	default:
		return "minesweeper: invalid board configuration"
	}
}

// Is lets errors.Is(err, ErrInvalidConfig) match a *ConfigError. A board
// rejected only because of its safe zone also matches ErrTooManyMines.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig || (target == ErrTooManyMines && e.crowded())
}

// MaxMines returns the largest mine count a width x height board accepts
// with the given safe radius, so that mine placement succeeds wherever the
// first reveal lands. The largest zone is the one around a centre click.
// At least one cell always stays free.
func MaxMines(width, height, safeRadius int) int {
	zone := 1
	if safeRadius >= 0 {
		side := 2*safeRadius + 1
		zone = min(side, width) * min(side, height)
	}
	return width*height - zone
}

// validate returns a *ConfigError when the parameters cannot form a board.
func validate(width, height, mines int) error {
	if width <= 0 || height <= 0 || mines < 0 || mines >= width*height {
		return &ConfigError{Width: width, Height: height, Mines: mines}
	}
	return nil
}

func outOfBounds(b *Board, x, y int) error {
	return fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfBounds, x, y, b.width, b.height)
}
