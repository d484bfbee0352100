package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps games in a local SQLite file.
type SQLiteStore struct {
	conn *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

type gameRow struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	Players   string `db:"players"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
	Actions   int    `db:"action_count"`
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		players TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actions (
		game_id TEXT NOT NULL REFERENCES games(id),
		seq INTEGER NOT NULL,
		action TEXT NOT NULL,
		PRIMARY KEY (game_id, seq)
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) CreateGame(ctx context.Context, rec GameRecord) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, seed, players, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, int64(rec.Seed), strings.Join(rec.Players, ","), rec.CreatedAt.UnixMilli(), now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert game %s: %w", rec.ID, err)
	}
	for i, a := range rec.Actions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO actions (game_id, seq, action) VALUES (?, ?, ?)`, rec.ID, i, a,
		); err != nil {
			return fmt.Errorf("insert action %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AppendAction(ctx context.Context, gameID string, seq int, action string) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM games WHERE id = ?`, gameID); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s: %w", gameID, ErrNotFound)
	}
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM actions WHERE game_id = ?`, gameID); err != nil {
		return err
	}
	if count != seq {
		return fmt.Errorf("game %s has %d actions, got seq %d: %w", gameID, count, seq, ErrSequence)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO actions (game_id, seq, action) VALUES (?, ?, ?)`, gameID, seq, action,
	); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET updated_at = ? WHERE id = ?`, time.Now().UnixMilli(), gameID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadGame(ctx context.Context, id string) (GameRecord, error) {
	var row gameRow
	err := s.conn.GetContext(ctx, &row,
		`SELECT id, seed, players, created_at, updated_at, 0 AS action_count FROM games WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return GameRecord{}, err
	}

	var actions []string
	if err := s.conn.SelectContext(ctx, &actions,
		`SELECT action FROM actions WHERE game_id = ? ORDER BY seq`, id); err != nil {
		return GameRecord{}, err
	}
	return GameRecord{
		ID:        row.ID,
		Seed:      uint64(row.Seed),
		Players:   splitPlayers(row.Players),
		Actions:   actions,
		CreatedAt: time.UnixMilli(row.CreatedAt),
		UpdatedAt: time.UnixMilli(row.UpdatedAt),
	}, nil
}

func (s *SQLiteStore) ListGames(ctx context.Context) ([]GameSummary, error) {
	var rows []gameRow
	if err := s.conn.SelectContext(ctx, &rows, `
		SELECT g.id, g.seed, g.players, g.created_at, g.updated_at,
		       (SELECT COUNT(*) FROM actions a WHERE a.game_id = g.id) AS action_count
		FROM games g ORDER BY g.created_at, g.id`); err != nil {
		return nil, err
	}
	out := make([]GameSummary, len(rows))
	for i, r := range rows {
		out[i] = GameSummary{
			ID:          r.ID,
			Players:     splitPlayers(r.Players),
			ActionCount: r.Actions,
			CreatedAt:   time.UnixMilli(r.CreatedAt),
			UpdatedAt:   time.UnixMilli(r.UpdatedAt),
		}
	}
	return out, nil
}

func splitPlayers(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
