package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ozcodx/marcopolo/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS rounds (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'active',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS guesses (
	id          TEXT PRIMARY KEY,
	round_id    TEXT NOT NULL REFERENCES rounds(id),
	seq         INTEGER NOT NULL,
	country     TEXT NOT NULL,
	distance_km REAL NOT NULL,
	tier        TEXT NOT NULL,
	guessed_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (round_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_rounds_status ON rounds(status);
CREATE INDEX IF NOT EXISTS idx_guesses_round_id ON guesses(round_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRound(ctx context.Context, target model.Country) (*model.Round, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	targetJSON, err := json.Marshal(target)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal target")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rounds (id, target, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(targetJSON), string(model.RoundStatusActive), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert round")
	}

	return &model.Round{
		ID:        id,
		Target:    target,
		Status:    model.RoundStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetRound(ctx context.Context, roundID string) (*model.Round, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, target, status, created_at, updated_at FROM rounds WHERE id = ?`,
		roundID,
	)

	var r model.Round
	var targetJSON string
	err := row.Scan(&r.ID, &targetJSON, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrRoundNotFound, "%s", roundID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan round")
	}
	if err := json.Unmarshal([]byte(targetJSON), &r.Target); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal target")
	}

	guesses, err := s.roundGuesses(ctx, roundID)
	if err != nil {
		return nil, err
	}
	r.Guesses = guesses
	return &r, nil
}

func (s *SQLiteStore) roundGuesses(ctx context.Context, roundID string) ([]model.Guess, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, country, distance_km, tier, guessed_at FROM guesses
		 WHERE round_id = ? ORDER BY seq`,
		roundID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query guesses")
	}
	defer rows.Close()

	var guesses []model.Guess
	for rows.Next() {
		var g model.Guess
		var countryJSON string
		if err := rows.Scan(&g.ID, &g.Seq, &countryJSON, &g.DistanceKm, &g.Tier, &g.GuessedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan guess")
		}
		if err := json.Unmarshal([]byte(countryJSON), &g.Country); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal guess country")
		}
		guesses = append(guesses, g)
	}
	return guesses, eris.Wrap(rows.Err(), "sqlite: iterate guesses")
}

func (s *SQLiteStore) ListRounds(ctx context.Context, filter RoundFilter) ([]model.Round, error) {
	query := `SELECT id, target, status, created_at, updated_at FROM rounds WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rounds")
	}
	defer rows.Close()

	var rounds []model.Round
	for rows.Next() {
		var r model.Round
		var targetJSON string
		if err := rows.Scan(&r.ID, &targetJSON, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan round")
		}
		if err := json.Unmarshal([]byte(targetJSON), &r.Target); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal target")
		}
		rounds = append(rounds, r)
	}
	return rounds, eris.Wrap(rows.Err(), "sqlite: list rounds iterate")
}

func (s *SQLiteStore) UpdateRoundStatus(ctx context.Context, roundID string, status model.RoundStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), roundID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update round status %s", roundID)
	}
	return checkRowsAffected(res, roundID)
}

func (s *SQLiteStore) AppendGuess(ctx context.Context, roundID string, guess model.Guess) error {
	countryJSON, err := json.Marshal(guess.Country)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal guess country")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO guesses (id, round_id, seq, country, distance_km, tier, guessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		guess.ID, roundID, guess.Seq, string(countryJSON), guess.DistanceKm, string(guess.Tier), guess.GuessedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert guess for round %s", roundID)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE rounds SET updated_at = ? WHERE id = ?`,
		time.Now().UTC(), roundID,
	)
	return eris.Wrap(err, "sqlite: touch round")
}

// helpers

func checkRowsAffected(res sql.Result, roundID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRoundNotFound, "%s", roundID)
	}
	return nil
}
