package storage

import (
	"fmt"
	"time"
)

// Score is the result of one human game.
type Score struct {
	ID        int64
	Player    string
	Width     int
	Height    int
	Mines     int
	Duration  time.Duration
	Won       bool
	CreatedAt time.Time
}

// BoardStats contains aggregated play statistics for one board size.
type BoardStats struct {
	Width      int
	Height     int
	Mines      int
	Games      int
	Wins       int
	BestTime   time.Duration // zero when never won
	LastPlayed time.Time
}

// SaveScore records a finished game.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(score Score) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO scores (player, width, height, mines, duration_ms, won)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		score.Player, score.Width, score.Height, score.Mines,
		score.Duration.Milliseconds(), score.Won,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// BestTimes retrieves the fastest won games for a board size.
func (s *Store) BestTimes(width, height, mines, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, player, width, height, mines, duration_ms, won, created_at
		 FROM scores
		 WHERE width = ? AND height = ? AND mines = ? AND won = 1
		 ORDER BY duration_ms ASC, id ASC
		 LIMIT ?`,
		width, height, mines, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var sc Score
		var durationMS int64
		var createdAt any
		if err := rows.Scan(&sc.ID, &sc.Player, &sc.Width, &sc.Height, &sc.Mines, &durationMS, &sc.Won, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		sc.Duration = time.Duration(durationMS) * time.Millisecond
		sc.CreatedAt = parseTime(createdAt)
		scores = append(scores, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return scores, nil
}

// AllBoardStats retrieves play statistics for every board size that has
// been played, largest boards first.
func (s *Store) AllBoardStats() ([]BoardStats, error) {
	rows, err := s.db.Query(
		`SELECT width, height, mines, COUNT(*), COALESCE(SUM(won), 0),
		        COALESCE(MIN(CASE WHEN won = 1 THEN duration_ms END), 0),
		        MAX(created_at)
		 FROM scores
		 GROUP BY width, height, mines
		 ORDER BY width * height DESC, mines DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get board stats: %w", err)
	}
	defer rows.Close()

	var stats []BoardStats
	for rows.Next() {
		var st BoardStats
		var bestMS int64
		var lastPlayed any
		if err := rows.Scan(&st.Width, &st.Height, &st.Mines, &st.Games, &st.Wins, &bestMS, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.BestTime = time.Duration(bestMS) * time.Millisecond
		st.LastPlayed = parseTime(lastPlayed)
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}
