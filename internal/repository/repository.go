// Package repository persists game records and their action logs.
package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a game does not exist.
var ErrNotFound = errors.New("game not found")

// ErrSequence is returned when an action is appended out of order.
var ErrSequence = errors.New("action out of sequence")

// GameRecord is everything needed to rebuild a game: the seed that dealt
// the decks, the seating and the encoded actions in order.
type GameRecord struct {
	ID        string
	Seed      uint64
	Players   []string
	Actions   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GameSummary describes a game without its action log.
type GameSummary struct {
	ID          string    `json:"id"`
	Players     []string  `json:"players"`
	ActionCount int       `json:"action_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is implemented by the Postgres and SQLite stores.
type Store interface {
	CreateGame(ctx context.Context, rec GameRecord) error
	// AppendAction stores the action at position seq of the game's log.
	// seq must equal the current length of the log.
	AppendAction(ctx context.Context, gameID string, seq int, action string) error
	LoadGame(ctx context.Context, id string) (GameRecord, error)
	ListGames(ctx context.Context) ([]GameSummary, error)
	Close() error
}
