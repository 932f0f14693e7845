// Package agent implements the tabular action-value learner: a sparse
// value table keyed by (observation, action) and an epsilon-greedy policy
// with one-step Q-learning updates.
package agent

import (
	"bytes"
	"cmp"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/vovakirdan/sweeper/internal/env"
	"github.com/vovakirdan/sweeper/internal/minesweeper"
)

// tableVersion is written at the head of every encoded table. Version 1
// tables carry no board shape.
const tableVersion = 2

var (
	// ErrCorruptTable is returned when an encoded table cannot be decoded.
	ErrCorruptTable = errors.New("agent: corrupt value table")

	// ErrShapeMismatch is returned when a table belongs to another board.
	ErrShapeMismatch = errors.New("agent: table was trained on a different board")
)

// Shape is the board a table was trained on. The zero Shape is unknown.
type Shape struct {
	Width  int
	Height int
	Mines  int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d/%d", s.Width, s.Height, s.Mines)
}

// IsZero reports whether the shape is unknown.
func (s Shape) IsZero() bool {
	return s == Shape{}
}

type key struct {
	state  string
	action env.Action
}

// Table is a sparse map from (state key, action) to a value estimate.
// Missing entries read as 0. It is safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	values map[key]float64
	shape  Shape
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[key]float64)}
}

// SetShape records the board the table is trained on.
func (t *Table) SetShape(s Shape) {
	t.mu.Lock()
	t.shape = s
	t.mu.Unlock()
}

// Shape returns the recorded board, or the zero Shape.
func (t *Table) Shape() Shape {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.shape
}

// CheckShape returns ErrShapeMismatch when the table was trained on a
// board other than s. A table without a recorded shape is checked by the
// length of its state keys, which cannot tell mine counts apart.
func (t *Table) CheckShape(s Shape) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.shape.IsZero() {
		if t.shape != s {
			return fmt.Errorf("%w: table is for %s, board is %s", ErrShapeMismatch, t.shape, s)
		}
		return nil
	}
	for k := range t.values {
		if len(k.state) != s.Width*s.Height {
			return fmt.Errorf("%w: table states have %d cells, board %s has %d",
				ErrShapeMismatch, len(k.state), s, s.Width*s.Height)
		}
		break
	}
	return nil
}

// Value returns the stored estimate, or 0 for an unseen pair.
func (t *Table) Value(state string, a env.Action) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[key{state, a}]
}

// MaxValue returns the largest estimate for state over actions.
func (t *Table) MaxValue(state string, actions []env.Action) float64 {
	_, v := t.Best(state, actions)
	return v
}

// Best returns the first action in actions with the largest estimate for
// state, and that estimate. It returns the zero Action and 0 when actions
// is empty.
func (t *Table) Best(state string, actions []env.Action) (env.Action, float64) {
	if len(actions) == 0 {
		return env.Action{}, 0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	best, bestValue := actions[0], t.values[key{state, actions[0]}]
	for _, a := range actions[1:] {
		if v := t.values[key{state, a}]; v > bestValue {
			best, bestValue = a, v
		}
	}
	return best, bestValue
}

// Update replaces the value of (state, a) with fn(old) under the write lock
// and returns the new value.
func (t *Table) Update(state string, a env.Action, fn func(old float64) float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{state, a}
	v := fn(t.values[k])
	t.values[k] = v
	return v
}

// Len returns the number of stored entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// States returns the number of distinct state keys.
func (t *Table) States() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range t.values {
		seen[k.state] = struct{}{}
	}
	return len(seen)
}

// encodedTable is the gob wire form.
type encodedTable struct {
	Version int
	Width   int
	Height  int
	Mines   int
	Entries []encodedEntry
}

type encodedEntry struct {
	State string
	X, Y  int
	Kind  uint8
	Value float64
}

// Save writes the table to w. Entries are sorted, so equal tables encode
// to equal bytes.
func (t *Table) Save(w io.Writer) error {
	t.mu.RLock()
	enc := encodedTable{
		Version: tableVersion,
		Width:   t.shape.Width,
		Height:  t.shape.Height,
		Mines:   t.shape.Mines,
		Entries: make([]encodedEntry, 0, len(t.values)),
	}
	for k, v := range t.values {
		enc.Entries = append(enc.Entries, encodedEntry{
			State: k.state,
			X:     k.action.X,
			Y:     k.action.Y,
			Kind:  uint8(k.action.Kind),
			Value: v,
		})
	}
	t.mu.RUnlock()

	slices.SortFunc(enc.Entries, func(a, b encodedEntry) int {
		return cmp.Or(
			cmp.Compare(a.State, b.State),
			cmp.Compare(a.X, b.X),
			cmp.Compare(a.Y, b.Y),
			cmp.Compare(a.Kind, b.Kind),
		)
	})

	if err := gob.NewEncoder(w).Encode(enc); err != nil {
		return fmt.Errorf("agent: cannot encode table: %w", err)
	}
	return nil
}

// Load reads a table written by Save and replaces the current contents
// and shape. On error the table is left unchanged.
func (t *Table) Load(r io.Reader) error {
	var enc encodedTable
	if err := gob.NewDecoder(r).Decode(&enc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	if enc.Version != 1 && enc.Version != tableVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptTable, enc.Version)
	}
	shape := Shape{Width: enc.Width, Height: enc.Height, Mines: enc.Mines}
	if shape.Width < 0 || shape.Height < 0 || shape.Mines < 0 {
		return fmt.Errorf("%w: bad board shape %s", ErrCorruptTable, shape)
	}

	values := make(map[key]float64, len(enc.Entries))
	for _, e := range enc.Entries {
		kind := minesweeper.MoveKind(e.Kind)
		if kind != env.Reveal && kind != env.Flag {
			return fmt.Errorf("%w: unknown action kind %d", ErrCorruptTable, e.Kind)
		}
		if !shape.IsZero() && len(e.State) != shape.Width*shape.Height {
			return fmt.Errorf("%w: state of %d cells on a %s board", ErrCorruptTable, len(e.State), shape)
		}
		if math.IsNaN(e.Value) {
			return fmt.Errorf("%w: NaN value", ErrCorruptTable)
		}
		k := key{state: e.State, action: env.Action{X: e.X, Y: e.Y, Kind: kind}}
		if _, dup := values[k]; dup {
			return fmt.Errorf("%w: duplicate entry for %s", ErrCorruptTable, k.action)
		}
		values[k] = e.Value
	}

	t.mu.Lock()
	t.values = values
	t.shape = shape
	t.mu.Unlock()
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Table) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (t *Table) UnmarshalBinary(data []byte) error {
	return t.Load(bytes.NewReader(data))
}

// SaveFile writes the table to path, creating parent directories. The file
// is replaced atomically.
func (t *Table) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("agent: cannot create table directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".qtable-*")
	if err != nil {
		return fmt.Errorf("agent: cannot create table file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := t.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("agent: cannot write table file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("agent: cannot write table file: %w", err)
	}
	return nil
}

// LoadFile replaces the table with the contents of path.
func (t *Table) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("agent: cannot open table file: %w", err)
	}
	defer f.Close()

	if err := t.Load(f); err != nil {
		return fmt.Errorf("agent: %s: %w", path, err)
	}
	return nil
}
