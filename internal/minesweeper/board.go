package minesweeper

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// DefaultSafeRadius is the half-width of the square kept free of mines
// around the first revealed cell.
const DefaultSafeRadius = 2

// State is the lifecycle state of a board.
type State int

const (
	StateActive State = iota
	StateWon
	StateLost
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWon:
		return "won"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further moves are accepted.
func (s State) Terminal() bool {
	return s == StateWon || s == StateLost
}

// Board owns the tile grid and every piece of per-game bookkeeping.
type Board struct {
	width  int
	height int
	mines  int
	tiles  []Tile // row-major, index y*width+x

	safeRadius     int
	minesGenerated bool
	state          State
	flagsPlaced    int
	revealedSafe   int

	rng       *rand.Rand
	now       func() time.Time
	startedAt time.Time
	elapsed   time.Duration // frozen once the game is over
	frozen    bool
}

// Option configures a Board at construction time.
type Option func(*Board)

// WithRand sets the random source used for mine placement.
func WithRand(rng *rand.Rand) Option {
	return func(b *Board) {
		b.rng = rng
	}
}

// WithSeed makes mine placement deterministic.
func WithSeed(seed int64) Option {
	return func(b *Board) {
		b.rng = rand.New(rand.NewSource(seed))
	}
}

// WithSafeRadius overrides DefaultSafeRadius. A negative radius disables
// the safe zone entirely.
func WithSafeRadius(radius int) Option {
	return func(b *Board) {
		b.safeRadius = radius
	}
}

// WithClock replaces time.Now for the game timer.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

// New creates an empty board. Mines are placed lazily on the first reveal.
// The mine count must leave room for the safe zone around any first click.
func New(width, height, mines int, opts ...Option) (*Board, error) {
	b, err := newBoard(width, height, mines, opts)
	if err != nil {
		return nil, err
	}
	if mines > MaxMines(width, height, b.safeRadius) {
		return nil, &ConfigError{Width: width, Height: height, Mines: mines, SafeRadius: b.safeRadius}
	}
	return b, nil
}

func newBoard(width, height, mines int, opts []Option) (*Board, error) {
	if err := validate(width, height, mines); err != nil {
		return nil, err
	}

	b := &Board{
		width:      width,
		height:     height,
		mines:      mines,
		safeRadius: DefaultSafeRadius,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Reset()
	return b, nil
}

// NewFromLayout creates a board whose mines are already at the given
// coordinates. The first reveal does not move them, so the safe zone does
// not limit the mine count.
func NewFromLayout(width, height int, mines []Point, opts ...Option) (*Board, error) {
	b, err := newBoard(width, height, len(mines), opts)
	if err != nil {
		return nil, err
	}

	for _, p := range mines {
		if !b.InBounds(p.X, p.Y) {
			return nil, outOfBounds(b, p.X, p.Y)
		}
		t := b.tile(p.X, p.Y)
		if t.Mine {
			return nil, fmt.Errorf("%w: duplicate mine at %s", ErrInvalidConfig, p)
		}
		t.Mine = true
	}

	b.computeNeighborCounts()
	b.minesGenerated = true
	return b, nil
}

// Reset discards the grid and returns the board to its initial state.
// Dimensions, mine count and options are kept.
func (b *Board) Reset() {
	b.tiles = make([]Tile, b.width*b.height)
	for y := range b.height {
		for x := range b.width {
			b.tiles[y*b.width+x] = Tile{X: x, Y: y}
		}
	}

	b.minesGenerated = false
	b.state = StateActive
	b.flagsPlaced = 0
	b.revealedSafe = 0
	b.startedAt = time.Time{}
	b.elapsed = 0
	b.frozen = false
}

// PlaceMines puts the configured number of mines outside the square zone of
// the given radius around (safeX, safeY). Cells are drawn by rejection
// sampling, so placement is reproducible for a seeded source.
func (b *Board) PlaceMines(safeX, safeY, safeRadius int) error {
	if !b.InBounds(safeX, safeY) {
		return outOfBounds(b, safeX, safeY)
	}
	if b.minesGenerated {
		return fmt.Errorf("minesweeper: mines already placed")
	}

	inZone := func(x, y int) bool {
		return abs(x-safeX) <= safeRadius && abs(y-safeY) <= safeRadius
	}

	zone := 0
	for y := range b.height {
		for x := range b.width {
			if inZone(x, y) {
				zone++
			}
		}
	}
	if free := len(b.tiles) - zone; b.mines > free {
		return fmt.Errorf("%w: %d mines, %d free cells around %s radius %d",
			ErrTooManyMines, b.mines, free, P(safeX, safeY), safeRadius)
	}

	placed := 0
	for placed < b.mines {
		x := b.intn(b.width)
		y := b.intn(b.height)
		if inZone(x, y) {
			continue
		}

		t := b.tile(x, y)
		if t.Mine {
			continue
		}
		t.Mine = true
		placed++
	}

	b.computeNeighborCounts()
	b.minesGenerated = true
	return nil
}

// computeNeighborCounts fills NeighborMines for every non-mine tile.
func (b *Board) computeNeighborCounts() {
	for i := range b.tiles {
		t := &b.tiles[i]
		if t.Mine {
			t.NeighborMines = 0
			continue
		}

		count := 0
		for _, n := range b.neighbors(t.X, t.Y) {
			if b.tile(n.X, n.Y).Mine {
				count++
			}
		}
		t.NeighborMines = count
	}
}

// ToggleFlag flips the flag on a hidden tile.
func (b *Board) ToggleFlag(x, y int) (MoveResult, error) {
	if !b.InBounds(x, y) {
		return MoveResult{}, outOfBounds(b, x, y)
	}

	result := MoveResult{Kind: NoChange, Target: P(x, y)}
	if b.state.Terminal() {
		return result, nil
	}

	t := b.tile(x, y)
	if t.Revealed {
		return result, nil
	}

	t.Flagged = !t.Flagged
	if t.Flagged {
		b.flagsPlaced++
		result.Kind = Flagged
	} else {
		b.flagsPlaced--
		result.Kind = Unflagged
	}
	return result, nil
}

// Apply dispatches a Move to Reveal or ToggleFlag.
func (b *Board) Apply(m Move) (MoveResult, error) {
	switch m.Kind {
	case MoveReveal:
		return b.Reveal(m.X, m.Y)
	case MoveFlag:
		return b.ToggleFlag(m.X, m.Y)
	default:
		return MoveResult{}, fmt.Errorf("%w: kind %d", ErrInvalidMove, m.Kind)
	}
}

// CheckWin reports whether every non-mine tile has been revealed.
func (b *Board) CheckWin() bool {
	if !b.minesGenerated {
		return false
	}
	return b.revealedSafe == len(b.tiles)-b.mines
}

// finish moves the board into a terminal state and freezes the timer.
func (b *Board) finish(state State) {
	b.state = state
	if !b.startedAt.IsZero() {
		b.elapsed = b.now().Sub(b.startedAt)
	}
	b.frozen = true
}

// Width returns the number of columns.
func (b *Board) Width() int { return b.width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.height }

// Mines returns the configured mine count.
func (b *Board) Mines() int { return b.mines }

// SafeRadius returns the radius used for the first-reveal safe zone.
func (b *Board) SafeRadius() int { return b.safeRadius }

// State returns the current game state.
func (b *Board) State() State { return b.state }

// MinesGenerated reports whether mines have been placed.
func (b *Board) MinesGenerated() bool { return b.minesGenerated }

// FlagsPlaced returns the number of flagged tiles.
func (b *Board) FlagsPlaced() int { return b.flagsPlaced }

// FlagsRemaining returns mines minus flags; negative when over-flagged.
func (b *Board) FlagsRemaining() int { return b.mines - b.flagsPlaced }

// Elapsed returns time since the first reveal, frozen once the game ends.
func (b *Board) Elapsed() time.Duration {
	switch {
	case b.frozen:
		return b.elapsed
	case b.startedAt.IsZero():
		return 0
	default:
		return b.now().Sub(b.startedAt)
	}
}

// InBounds reports whether (x, y) lies on the board.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Tile returns a copy of the tile at (x, y).
func (b *Board) Tile(x, y int) (Tile, bool) {
	if !b.InBounds(x, y) {
		return Tile{}, false
	}
	return *b.tile(x, y), true
}

// tile returns the live tile. Callers must bounds-check first.
func (b *Board) tile(x, y int) *Tile {
	return &b.tiles[y*b.width+x]
}

// neighbors returns the in-bounds 8-neighborhood of (x, y).
func (b *Board) neighbors(x, y int) []Point {
	out := make([]Point, 0, len(neighborOffsets))
	for _, d := range neighborOffsets {
		nx, ny := x+d.X, y+d.Y
		if b.InBounds(nx, ny) {
			out = append(out, Point{X: nx, Y: ny})
		}
	}
	return out
}

func (b *Board) intn(n int) int {
	if b.rng == nil {
		return rand.Intn(n)
	}
	return b.rng.Intn(n)
}

// String draws the board for debugging: '-' hidden, 'F' flag, '*' mine,
// '.' empty, digits for counts.
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow((b.width + 1) * b.height)
	for y := range b.height {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range b.width {
			t := b.tile(x, y)
			switch {
			case t.Flagged:
				sb.WriteByte('F')
			case !t.Revealed:
				sb.WriteByte('-')
			case t.Mine:
				sb.WriteByte('*')
			case t.NeighborMines == 0:
				sb.WriteByte('.')
			default:
				sb.WriteByte(byte('0' + t.NeighborMines))
			}
		}
	}
	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
