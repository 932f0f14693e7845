package storage

import "fmt"

// Episode is one finished episode of a run.
type Episode struct {
	RunID       string
	Episode     int
	Worker      int
	Steps       int
	Reward      float64
	Outcome     string // won, lost, truncated
	Exploration float64
}

// SaveEpisodes inserts a batch of episodes in one transaction. Existing rows
// for the same (run, episode) are replaced.
func (s *Store) SaveEpisodes(runID string, episodes []Episode) error {
	if len(episodes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO episodes
		 (run_id, episode, worker, steps, reward, outcome, exploration)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot prepare episode insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range episodes {
		if _, err := stmt.Exec(runID, e.Episode, e.Worker, e.Steps, e.Reward, e.Outcome, e.Exploration); err != nil {
			return fmt.Errorf("storage: cannot save episode %d: %w", e.Episode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit episodes: %w", err)
	}
	return nil
}

// Episodes retrieves every episode of a run in episode order.
func (s *Store) Episodes(runID string) ([]Episode, error) {
	rows, err := s.db.Query(
		`SELECT run_id, episode, worker, steps, reward, outcome, exploration
		 FROM episodes
		 WHERE run_id = ?
		 ORDER BY episode`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.RunID, &e.Episode, &e.Worker, &e.Steps, &e.Reward, &e.Outcome, &e.Exploration); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		episodes = append(episodes, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return episodes, nil
}
