package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	seed BIGINT NOT NULL,
	players TEXT[] NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	action TEXT NOT NULL,
	PRIMARY KEY (game_id, seq)
);
`

// PostgresStore keeps games in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to url, checks the connection and creates the
// tables if needed.
func NewPostgresStore(ctx context.Context, url string, logger *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if logger != nil {
		stats := pool.Stat()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("max_conns", stats.MaxConns()),
		)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateGame(ctx context.Context, rec GameRecord) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO games (id, seed, players, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			rec.ID, int64(rec.Seed), rec.Players, rec.CreatedAt, now,
		); err != nil {
			return fmt.Errorf("insert game %s: %w", rec.ID, err)
		}
		for i, a := range rec.Actions {
			if _, err := tx.Exec(ctx,
				`INSERT INTO game_actions (game_id, seq, action) VALUES ($1, $2, $3)`, rec.ID, i, a,
			); err != nil {
				return fmt.Errorf("insert action %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) AppendAction(ctx context.Context, gameID string, seq int, action string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// Lock the game row so concurrent appends see each other's count.
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", gameID, ErrNotFound)
		}
		if err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM game_actions WHERE game_id = $1`, gameID).Scan(&count); err != nil {
			return err
		}
		if count != seq {
			return fmt.Errorf("game %s has %d actions, got seq %d: %w", gameID, count, seq, ErrSequence)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO game_actions (game_id, seq, action) VALUES ($1, $2, $3)`, gameID, seq, action,
		); err != nil {
			return fmt.Errorf("insert action: %w", err)
		}
		_, err = tx.Exec(ctx, `UPDATE games SET updated_at = $1 WHERE id = $2`, time.Now(), gameID)
		return err
	})
}

func (s *PostgresStore) LoadGame(ctx context.Context, id string) (GameRecord, error) {
	var (
		rec  GameRecord
		seed int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, seed, players, created_at, updated_at FROM games WHERE id = $1`, id,
	).Scan(&rec.ID, &seed, &rec.Players, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return GameRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return GameRecord{}, err
	}
	rec.Seed = uint64(seed)

	rows, err := s.pool.Query(ctx, `SELECT action FROM game_actions WHERE game_id = $1 ORDER BY seq`, id)
	if err != nil {
		return GameRecord{}, err
	}
	actions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return GameRecord{}, err
	}
	rec.Actions = actions
	return rec, nil
}

func (s *PostgresStore) ListGames(ctx context.Context) ([]GameSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.players, g.created_at, g.updated_at, COUNT(a.seq)
		FROM games g LEFT JOIN game_actions a ON a.game_id = g.id
		GROUP BY g.id ORDER BY g.created_at, g.id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (GameSummary, error) {
		var g GameSummary
		err := row.Scan(&g.ID, &g.Players, &g.CreatedAt, &g.UpdatedAt, &g.ActionCount)
		return g, err
	})
}
