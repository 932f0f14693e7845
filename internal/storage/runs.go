package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run kinds.
const (
	KindTrain = "train"
	KindEval  = "eval"
)

// Run is one training or evaluation session.
type Run struct {
	ID     string
	Kind   string
	Width  int
	Height int
	Mines  int
	Params RunParams
	Totals RunTotals

	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
}

// RunParams records the learner settings a run used.
type RunParams struct {
	LearningRate     float64
	Discount         float64
	Exploration      float64
	ExplorationDecay float64
	MinExploration   float64
}

// RunTotals is the outcome of a finished run.
type RunTotals struct {
	Episodes         int
	Wins             int
	Losses           int
	Truncated        int
	TotalReward      float64
	TotalSteps       int
	FinalExploration float64
	Duration         time.Duration
}

// WinRate returns Wins/Episodes, or 0 for an empty run.
func (t RunTotals) WinRate() float64 {
	if t.Episodes == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.Episodes)
}

// Finished reports whether FinishRun has been called.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// CreateRun inserts a run and returns its ID. A new UUID is assigned when
// run.ID is empty; StartedAt defaults to now.
func (s *Store) CreateRun(run Run) (string, error) {
	if run.ID == "" {
		run.ID = newID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO runs
		 (id, kind, width, height, mines,
		  learning_rate, discount, exploration, exploration_decay, min_exploration,
		  started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Width, run.Height, run.Mines,
		run.Params.LearningRate, run.Params.Discount, run.Params.Exploration,
		run.Params.ExplorationDecay, run.Params.MinExploration,
		run.StartedAt,
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot create run: %w", err)
	}
	return run.ID, nil
}

// FinishRun stores the totals of a run and marks it finished.
func (s *Store) FinishRun(id string, totals RunTotals) error {
	res, err := s.db.Exec(
		`UPDATE runs SET
		   episodes = ?, wins = ?, losses = ?, truncated = ?,
		   total_reward = ?, total_steps = ?, final_exploration = ?,
		   duration_ms = ?, finished_at = ?
		 WHERE id = ?`,
		totals.Episodes, totals.Wins, totals.Losses, totals.Truncated,
		totals.TotalReward, totals.TotalSteps, totals.FinalExploration,
		totals.Duration.Milliseconds(), time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("storage: run %s: %w", id, ErrNotFound)
	}
	return nil
}

const runColumns = `id, kind, width, height, mines,
	learning_rate, discount, exploration, exploration_decay, min_exploration,
	episodes, wins, losses, truncated, total_reward, total_steps, final_exploration,
	duration_ms, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var durationMS int64
	var startedAt, finishedAt any
	err := row.Scan(
		&r.ID, &r.Kind, &r.Width, &r.Height, &r.Mines,
		&r.Params.LearningRate, &r.Params.Discount, &r.Params.Exploration,
		&r.Params.ExplorationDecay, &r.Params.MinExploration,
		&r.Totals.Episodes, &r.Totals.Wins, &r.Totals.Losses, &r.Totals.Truncated,
		&r.Totals.TotalReward, &r.Totals.TotalSteps, &r.Totals.FinalExploration,
		&durationMS, &startedAt, &finishedAt,
	)
	if err != nil {
		return r, err
	}
	r.Totals.Duration = time.Duration(durationMS) * time.Millisecond
	r.StartedAt = parseTime(startedAt)
	r.FinishedAt = parseTime(finishedAt)
	return r, nil
}

// Run retrieves a run by ID.
func (s *Store) Run(id string) (Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("storage: run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("storage: cannot query run: %w", err)
	}
	return r, nil
}

// RecentRuns retrieves the most recently started runs.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}
