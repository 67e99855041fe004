package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ozcodx/marcopolo/internal/db"
	"github.com/ozcodx/marcopolo/internal/model"
)

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS rounds (
	id         TEXT PRIMARY KEY,
	target     JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS guesses (
	id          TEXT PRIMARY KEY,
	round_id    TEXT NOT NULL REFERENCES rounds(id),
	seq         INTEGER NOT NULL,
	country     JSONB NOT NULL,
	distance_km DOUBLE PRECISION NOT NULL,
	tier        TEXT NOT NULL,
	guessed_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (round_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_rounds_status ON rounds(status);
CREATE INDEX IF NOT EXISTS idx_guesses_round_id ON guesses(round_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) CreateRound(ctx context.Context, target model.Country) (*model.Round, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	targetJSON, err := json.Marshal(target)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal target")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO rounds (id, target, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, targetJSON, string(model.RoundStatusActive), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert round")
	}

	return &model.Round{
		ID:        id,
		Target:    target,
		Status:    model.RoundStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetRound(ctx context.Context, roundID string) (*model.Round, error) {
	var r model.Round
	var targetJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, target, status, created_at, updated_at FROM rounds WHERE id = $1`,
		roundID,
	).Scan(&r.ID, &targetJSON, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrRoundNotFound, "%s", roundID)
		}
		return nil, eris.Wrap(err, "postgres: scan round")
	}
	if err := json.Unmarshal(targetJSON, &r.Target); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal target")
	}

	guesses, err := s.roundGuesses(ctx, roundID)
	if err != nil {
		return nil, err
	}
	r.Guesses = guesses
	return &r, nil
}

func (s *PostgresStore) roundGuesses(ctx context.Context, roundID string) ([]model.Guess, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, seq, country, distance_km, tier, guessed_at FROM guesses
		 WHERE round_id = $1 ORDER BY seq`,
		roundID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query guesses")
	}
	defer rows.Close()

	var guesses []model.Guess
	for rows.Next() {
		var g model.Guess
		var countryJSON []byte
		if err := rows.Scan(&g.ID, &g.Seq, &countryJSON, &g.DistanceKm, &g.Tier, &g.GuessedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan guess")
		}
		if err := json.Unmarshal(countryJSON, &g.Country); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal guess country")
		}
		guesses = append(guesses, g)
	}
	return guesses, eris.Wrap(rows.Err(), "postgres: iterate guesses")
}

func (s *PostgresStore) ListRounds(ctx context.Context, filter RoundFilter) ([]model.Round, error) {
	query := `SELECT id, target, status, created_at, updated_at FROM rounds`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rounds")
	}
	defer rows.Close()

	var rounds []model.Round
	for rows.Next() {
		var r model.Round
		var targetJSON []byte
		if err := rows.Scan(&r.ID, &targetJSON, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan round")
		}
		if err := json.Unmarshal(targetJSON, &r.Target); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal target")
		}
		rounds = append(rounds, r)
	}
	return rounds, eris.Wrap(rows.Err(), "postgres: list rounds iterate")
}

func (s *PostgresStore) UpdateRoundStatus(ctx context.Context, roundID string, status model.RoundStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rounds SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), roundID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update round status %s", roundID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRoundNotFound, "%s", roundID)
	}
	return nil
}

func (s *PostgresStore) AppendGuess(ctx context.Context, roundID string, guess model.Guess) error {
	countryJSON, err := json.Marshal(guess.Country)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal guess country")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO guesses (id, round_id, seq, country, distance_km, tier, guessed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		guess.ID, roundID, guess.Seq, countryJSON, guess.DistanceKm, string(guess.Tier), guess.GuessedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert guess for round %s", roundID)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE rounds SET updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), roundID,
	)
	return eris.Wrap(err, "postgres: touch round")
}
