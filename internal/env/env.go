// Package env wraps a minesweeper.Board behind a reset/step contract for
// learning agents. It encodes the board as an integer observation grid and
// shapes a reward for every action.
package env

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/vovakirdan/sweeper/internal/minesweeper"
)

// Reward values returned by Step.
const (
	RewardWin        = 10.0
	RewardLoss       = -10.0
	RewardOpen       = 5.0 // revealed a zero-count tile
	RewardSafe       = 2.0 // revealed a numbered tile
	RewardMine       = -5.0
	RewardFlagMine   = 1.0
	RewardFlagSafe   = -1.0
	RewardUnflagMine = -1.0
	RewardUnflagSafe = 1.0
	RewardNoChange   = -1.0
)

// ErrInvalidAction is returned when a flat action index cannot be decoded.
var ErrInvalidAction = errors.New("env: invalid action")

// Config describes the boards an Env builds.
type Config struct {
	Width  int
	Height int
	Mines  int
	Seed   int64 // 0 uses process-wide randomness
}

// BoardFactory builds the board for a new episode.
type BoardFactory func() (*minesweeper.Board, error)

// Option configures an Env.
type Option func(*Env)

// WithBoardFactory replaces the default board construction, e.g. with a
// fixed layout from minesweeper.NewFromLayout.
func WithBoardFactory(f BoardFactory) Option {
	return func(e *Env) {
		e.factory = f
	}
}

// WithSafeRadius sets the first-click safe zone of the boards the Env
// builds. The default is minesweeper.DefaultSafeRadius; a negative radius
// disables the zone.
func WithSafeRadius(radius int) Option {
	return func(e *Env) {
		e.safeRadius = radius
	}
}

// StepResult is the outcome of one Step.
type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool
	Move        minesweeper.MoveResult
}

// Env is a single-episode environment. It is not safe for concurrent use;
// parallel rollouts each own their Env.
type Env struct {
	cfg        Config
	safeRadius int
	rng        *rand.Rand
	factory    BoardFactory
	board      *minesweeper.Board
	actions    []Action
}

// New validates cfg and builds the first board.
func New(cfg Config, opts ...Option) (*Env, error) {
	e := &Env{cfg: cfg, safeRadius: minesweeper.DefaultSafeRadius}
	if cfg.Seed != 0 {
		e.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	e.factory = e.newBoard
	for _, opt := range opts {
		opt(e)
	}

	if _, err := e.Reset(); err != nil {
		return nil, err
	}
	e.actions = actionSpace(e.board.Width(), e.board.Height())
	return e, nil
}

func (e *Env) newBoard() (*minesweeper.Board, error) {
	opts := []minesweeper.Option{minesweeper.WithSafeRadius(e.safeRadius)}
	if e.rng != nil {
		opts = append(opts, minesweeper.WithRand(e.rng))
	}
	return minesweeper.New(e.cfg.Width, e.cfg.Height, e.cfg.Mines, opts...)
}

// Reset discards the current board and starts a new episode.
func (e *Env) Reset() (Observation, error) {
	b, err := e.factory()
	if err != nil {
		return Observation{}, fmt.Errorf("env: reset: %w", err)
	}
	if e.board != nil && (b.Width() != e.board.Width() || b.Height() != e.board.Height()) {
		return Observation{}, fmt.Errorf("env: reset: board changed size from %dx%d to %dx%d",
			e.board.Width(), e.board.Height(), b.Width(), b.Height())
	}
	e.board = b
	return Observe(b), nil
}

// Board returns the live board for read-only use (Snapshot, Elapsed).
func (e *Env) Board() *minesweeper.Board {
	return e.board
}

// Width returns the board width.
func (e *Env) Width() int { return e.board.Width() }

// Height returns the board height.
func (e *Env) Height() int { return e.board.Height() }

// Done reports whether the current episode has ended.
func (e *Env) Done() bool {
	return e.board.State().Terminal()
}

// Step applies a to the board and returns the next observation, the shaped
// reward and whether the episode is over. Steps after the episode has ended
// change nothing and return a zero reward.
func (e *Env) Step(a Action) (StepResult, error) {
	if e.board.State().Terminal() {
		return StepResult{Observation: Observe(e.board), Done: true}, nil
	}

	move, err := e.board.Apply(minesweeper.Move{X: a.X, Y: a.Y, Kind: a.Kind})
	if err != nil {
		return StepResult{}, err
	}

	return StepResult{
		Observation: Observe(e.board),
		Reward:      e.reward(a, move),
		Done:        e.board.State().Terminal(),
		Move:        move,
	}, nil
}

func (e *Env) reward(a Action, move minesweeper.MoveResult) float64 {
	switch e.board.State() {
	case minesweeper.StateWon:
		return RewardWin
	case minesweeper.StateLost:
		return RewardLoss
	}

	t, _ := e.board.Tile(a.X, a.Y)
	switch move.Kind {
	case minesweeper.Revealed:
		if t.NeighborMines == 0 {
			return RewardOpen
		}
		return RewardSafe
	case minesweeper.Exploded:
		return RewardMine
	case minesweeper.Flagged:
		if t.Mine {
			return RewardFlagMine
		}
		return RewardFlagSafe
	case minesweeper.Unflagged:
		if t.Mine {
			return RewardUnflagMine
		}
		return RewardUnflagSafe
	default:
		return RewardNoChange
	}
}
