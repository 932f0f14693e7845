package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Policy is a stored value table blob and the board it was trained on.
type Policy struct {
	ID        int64
	RunID     string
	Width     int
	Height    int
	Mines     int
	Entries   int
	Data      []byte
	CreatedAt time.Time
}

const policyColumns = `id, run_id, width, height, mines, entries, data, created_at`

// SavePolicy stores an encoded value table for a run.
// Returns the ID of the inserted record.
func (s *Store) SavePolicy(p Policy) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO policies (run_id, width, height, mines, entries, data) VALUES (?, ?, ?, ?, ?, ?)",
		p.RunID, p.Width, p.Height, p.Mines, p.Entries, p.Data,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save policy: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// LoadPolicy returns the newest policy of a run, or the newest policy of
// any run when runID is empty.
func (s *Store) LoadPolicy(runID string) (Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	p, err := scanPolicy(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Policy{}, fmt.Errorf("storage: policy for run %q: %w", runID, ErrNotFound)
	}
	return p, err
}

// LatestPolicy returns the newest policy trained on the given board.
func (s *Store) LatestPolicy(width, height, mines int) (Policy, error) {
	p, err := scanPolicy(s.db.QueryRow(
		`SELECT `+policyColumns+` FROM policies
		WHERE width = ? AND height = ? AND mines = ?
		ORDER BY id DESC LIMIT 1`,
		width, height, mines,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Policy{}, fmt.Errorf("storage: policy for %dx%d/%d: %w", width, height, mines, ErrNotFound)
	}
	return p, err
}

func scanPolicy(row rowScanner) (Policy, error) {
	var p Policy
	var createdAt any
	err := row.Scan(&p.ID, &p.RunID, &p.Width, &p.Height, &p.Mines, &p.Entries, &p.Data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Policy{}, err
	}
	if err != nil {
		return Policy{}, fmt.Errorf("storage: cannot query policy: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}
