package minesweeper

import "github.com/gammazero/deque"

// MoveKind selects what a Move does to its target tile.
type MoveKind uint8

const (
	MoveReveal MoveKind = iota
	MoveFlag
)

// String returns "reveal" or "flag".
func (k MoveKind) String() string {
	switch k {
	case MoveReveal:
		return "reveal"
	case MoveFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Move is a single player action.
type Move struct {
	X, Y int
	Kind MoveKind
}

// MoveResultKind classifies the effect of a move.
type MoveResultKind int

const (
	NoChange MoveResultKind = iota
	Revealed
	Exploded
	Won
	Flagged
	Unflagged
)

// String returns a human-readable name for the result kind.
func (k MoveResultKind) String() string {
	switch k {
	case NoChange:
		return "no_change"
	case Revealed:
		return "revealed"
	case Exploded:
		return "exploded"
	case Won:
		return "won"
	case Flagged:
		return "flagged"
	case Unflagged:
		return "unflagged"
	default:
		return "unknown"
	}
}

// MoveResult describes what a move changed.
type MoveResult struct {
	Kind   MoveResultKind
	Target Point
	// Revealed lists every tile opened by the move in reveal order. The
	// target comes first; cascade tiles follow.
	Revealed []Point
}

// Changed reports whether any tile changed state.
func (r MoveResult) Changed() bool {
	return r.Kind != NoChange
}

// Reveal opens the tile at (x, y). The first reveal on a fresh board places
// the mines around it and starts the timer. Revealing a tile with no
// neighboring mines opens the connected empty region and its numbered
// border. Reveals on revealed or flagged tiles, and any move after the game
// has ended, change nothing.
func (b *Board) Reveal(x, y int) (MoveResult, error) {
	if !b.InBounds(x, y) {
		return MoveResult{}, outOfBounds(b, x, y)
	}

	result := MoveResult{Kind: NoChange, Target: P(x, y)}
	if b.state.Terminal() {
		return result, nil
	}

	if !b.minesGenerated {
		if err := b.PlaceMines(x, y, b.safeRadius); err != nil {
			return result, err
		}
	}
	if b.startedAt.IsZero() {
		b.startedAt = b.now()
	}

	t := b.tile(x, y)
	if t.Revealed || t.Flagged {
		return result, nil
	}

	b.cascade(y*b.width+x, &result)
	return result, nil
}

// cascade reveals tiles breadth-first from start. Each tile is queued at
// most once, so the walk is bounded by the board size. Flagged tiles are
// never opened and stop the cascade in their direction.
func (b *Board) cascade(start int, result *MoveResult) {
	queued := make([]bool, len(b.tiles))
	var queue deque.Deque[int]
	queue.PushBack(start)
	queued[start] = true

	for queue.Len() > 0 {
		t := &b.tiles[queue.PopFront()]
		if t.Revealed || t.Flagged {
			continue
		}

		t.Revealed = true
		result.Revealed = append(result.Revealed, t.Pos())

		if t.Mine {
			b.finish(StateLost)
			result.Kind = Exploded
			return
		}

		b.revealedSafe++
		if b.CheckWin() {
			b.finish(StateWon)
			result.Kind = Won
			return
		}
		result.Kind = Revealed

		if t.NeighborMines != 0 {
			continue
		}
		for _, n := range b.neighbors(t.X, t.Y) {
			i := n.Y*b.width + n.X
			nt := &b.tiles[i]
			if queued[i] || nt.Revealed || nt.Flagged {
				continue
			}
			queued[i] = true
			queue.PushBack(i)
		}
	}
}
