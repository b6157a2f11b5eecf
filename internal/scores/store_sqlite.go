package scores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/playperu/typerace/internal/race"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Save validates s, stamps it with the current time and stores it. The
// returned score carries the assigned ID.
func (s *SQLiteStore) Save(ctx context.Context, score race.Score) (race.Score, error) {
	score, err := Validate(score)
	if err != nil {
		return score, err
	}
	score.Date = s.now().UTC().Truncate(time.Millisecond)

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO scores (name, wpm, accuracy, mode, characters_typed, errors, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, score.Name, score.WPM, score.Accuracy, string(score.Mode),
		score.CharactersTyped, score.Errors, score.Date.UnixMilli(),
	).Scan(&score.ID)
	if err != nil {
		return score, fmt.Errorf("inserting score: %w", err)
	}
	return score, nil
}

// Leaderboard returns the best scores by q.SortBy, highest first. Ties keep
// insertion order.
func (s *SQLiteStore) Leaderboard(ctx context.Context, q Query) ([]race.Score, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, wpm, accuracy, mode, characters_typed, errors, played_at
		FROM scores
		WHERE (? = '' OR mode = ?)
		ORDER BY ` + sortColumns[q.SortBy] + ` DESC, id ASC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, string(q.Mode), string(q.Mode), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	out := []race.Score{}
	for rows.Next() {
		var (
			sc       race.Score
			mode     string
			playedAt int64
		)
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.WPM, &sc.Accuracy, &mode,
			&sc.CharactersTyped, &sc.Errors, &playedAt); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		sc.Mode = race.Mode(mode)
		sc.Date = time.UnixMilli(playedAt).UTC()
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scores: %w", err)
	}
	return out, nil
}
