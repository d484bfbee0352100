// Package game runs games for the servers: it owns each game's current
// snapshot and action log, persists accepted actions and replays logs.
package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chacun/chacun-server-go/internal/catalog"
	"github.com/chacun/chacun-server-go/internal/game/codec"
	"github.com/chacun/chacun-server-go/internal/game/events"
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/scoring"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
	"github.com/chacun/chacun-server-go/internal/repository"
	"github.com/chacun/chacun-server-go/internal/text"
)

var (
	// ErrGameNotFound is returned for unknown game ids.
	ErrGameNotFound = errors.New("game not found")
	// ErrNotYourTurn is returned when an intent names a player other than the current one.
	ErrNotYourTurn = errors.New("not the current player")
	// ErrTooManyPlayers is returned when a game would seat more than the configured maximum.
	ErrTooManyPlayers = errors.New("too many players")
)

// Options configures a Manager. Zero values pick the embedded tile set,
// English text, no persistence and no replay files.
type Options struct {
	Tiles      []*tile.Tile
	Store      repository.Store
	Bus        *events.EventBus
	Recorder   *ReplayRecorder
	MaxPlayers int
	// TextMaker builds the text maker of a new game.
	TextMaker func(players []player.Color) scoring.TextMaker
}

// Manager holds the authoritative snapshot of every live game. Writes to a
// game are serialised; readers see the last accepted snapshot.
type Manager struct {
	mu     sync.RWMutex
	games  map[string]*session
	opts   Options
	logger *zap.Logger
}

type session struct {
	mu        sync.Mutex
	id        string
	seed      uint64
	players   []player.Color
	current   *state.GameState
	actions   []string
	createdAt time.Time
}

func (s *session) view() View {
	return NewView(s.id, s.seed, len(s.actions), s.current)
}

// NewManager creates a manager. It fails only if the embedded tile set
// cannot be loaded.
func NewManager(logger *zap.Logger, opts Options) (*Manager, error) {
	if opts.Tiles == nil {
		tiles, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		opts.Tiles = tiles
	}
	if opts.MaxPlayers == 0 {
		opts.MaxPlayers = len(player.All)
	}
	if opts.TextMaker == nil {
		opts.TextMaker = func(players []player.Color) scoring.TextMaker {
			return text.NewEnglish(text.ColorNames(players))
		}
	}
	if opts.Recorder == nil {
		opts.Recorder = NewReplayRecorder(logger, "")
	}
	return &Manager{
		games:  make(map[string]*session),
		opts:   opts,
		logger: logger,
	}, nil
}

// Bus returns the event bus, or nil.
func (m *Manager) Bus() *events.EventBus { return m.opts.Bus }

// Decks deals the manager's tile set for seed.
func (m *Manager) Decks(seed uint64) tile.Decks {
	return catalog.Decks(m.opts.Tiles, seed)
}

func (m *Manager) start(seed uint64, players []player.Color) (*state.GameState, error) {
	s, err := state.Initial(players, m.Decks(seed), m.opts.TextMaker(players))
	if err != nil {
		return nil, err
	}
	return s.WithStartingTilePlaced()
}

// CreateGame seats players in the given order, deals the decks for seed
// and places the start tile.
func (m *Manager) CreateGame(ctx context.Context, players []player.Color, seed uint64) (View, error) {
	if len(players) > m.opts.MaxPlayers {
		return View{}, fmt.Errorf("%d players, at most %d: %w", len(players), m.opts.MaxPlayers, ErrTooManyPlayers)
	}
	id := uuid.NewString()
	s, err := m.start(seed, players)
	if err != nil {
		return View{}, err
	}

	sess := &session{id: id, seed: seed, players: append([]player.Color(nil), players...), current: s, createdAt: time.Now()}
	if m.opts.Store != nil {
		if err := m.opts.Store.CreateGame(ctx, repository.GameRecord{
			ID:        id,
			Seed:      seed,
			Players:   colorNames(players),
			CreatedAt: sess.createdAt,
		}); err != nil {
			return View{}, fmt.Errorf("persist game: %w", err)
		}
	}

	m.mu.Lock()
	m.games[id] = sess
	m.mu.Unlock()

	m.opts.Recorder.StartRecording(id, seed, players, s)
	m.emit(event(events.EventGameCreated, id, player.NoColor, "", 0, nil))
	if m.logger != nil {
		m.logger.Info("game created",
			zap.String("game_id", id),
			zap.Uint64("seed", seed),
			zap.Strings("players", colorNames(players)),
		)
	}
	return sess.view(), nil
}

// Restore rebuilds a game from its record by replaying its action log. A
// log that does not replay is an integrity fault and the game is not kept.
func (m *Manager) Restore(ctx context.Context, rec repository.GameRecord) (View, error) {
	players := make([]player.Color, len(rec.Players))
	for i, name := range rec.Players {
		c, err := player.ParseColor(name)
		if err != nil {
			return View{}, fmt.Errorf("%w: %w", ErrReplayIntegrity, err)
		}
		players[i] = c
	}

	replay := NewReplay(rec.ID, rec.Seed, players)
	replay.Actions = append([]string(nil), rec.Actions...)
	states, err := replay.Run(m.Decks(rec.Seed), m.opts.TextMaker(players))
	if err != nil {
		if m.logger != nil {
			m.logger.Error("replay integrity fault",
				zap.String("game_id", rec.ID),
				zap.Int("replayed", len(states)-1),
				zap.Error(err),
			)
		}
		return View{}, err
	}

	sess := &session{
		id:        rec.ID,
		seed:      rec.Seed,
		players:   players,
		current:   states[len(states)-1],
		actions:   replay.Actions,
		createdAt: rec.CreatedAt,
	}
	m.mu.Lock()
	m.games[rec.ID] = sess
	m.mu.Unlock()

	m.opts.Recorder.StartRecording(rec.ID, rec.Seed, players, states[0])
	for i, a := range replay.Actions {
		m.opts.Recorder.RecordAction(rec.ID, a, states[i+1])
	}
	if m.logger != nil {
		m.logger.Info("game restored",
			zap.String("game_id", rec.ID),
			zap.Int("actions", len(rec.Actions)),
		)
	}
	return sess.view(), nil
}

// session returns the live game, restoring it from the store if needed.
func (m *Manager) session(ctx context.Context, id string) (*session, error) {
	m.mu.RLock()
	sess, ok := m.games[id]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}
	if m.opts.Store == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrGameNotFound)
	}

	rec, err := m.opts.Store.LoadGame(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrGameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if _, err := m.Restore(ctx, rec); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.games[id], nil
}

// apply runs step on the current snapshot of a game and commits the
// result. as names the acting player; player.NoColor skips the check.
// Events are published after the game's lock is released so listeners may
// read the game.
func (m *Manager) apply(ctx context.Context, id string, as player.Color, step func(*state.GameState) (codec.StateAction, error)) (View, error) {
	sess, err := m.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	v, evs, err := m.commit(ctx, sess, as, step)
	m.emit(evs...)
	return v, err
}

func (m *Manager) commit(ctx context.Context, sess *session, as player.Color, step func(*state.GameState) (codec.StateAction, error)) (View, []events.Event, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	cur := sess.current
	actor := cur.CurrentPlayer()
	if as != player.NoColor && as != actor {
		err := fmt.Errorf("%s acting for %s: %w", as, actor, ErrNotYourTurn)
		return View{}, []events.Event{m.rejected(sess.id, as, err)}, err
	}

	sa, err := step(cur)
	if err != nil {
		return View{}, []events.Event{m.rejected(sess.id, actor, err)}, err
	}

	seq := len(sess.actions)
	if m.opts.Store != nil {
		if err := m.opts.Store.AppendAction(ctx, sess.id, seq, sa.Action); err != nil {
			if m.logger != nil {
				m.logger.Error("failed to persist action",
					zap.String("game_id", sess.id),
					zap.Int("seq", seq),
					zap.Error(err),
				)
			}
			return View{}, nil, fmt.Errorf("persist action: %w", err)
		}
	}
	sess.actions = append(sess.actions, sa.Action)
	sess.current = sa.State

	m.opts.Recorder.RecordAction(sess.id, sa.Action, sa.State)
	evs := []events.Event{event(events.EventActionApplied, sess.id, actor, sa.Action, seq, nil)}
	if m.logger != nil {
		m.logger.Debug("action applied",
			zap.String("game_id", sess.id),
			zap.String("player", actor.String()),
			zap.String("action", sa.Action),
			zap.String("next", sa.State.NextAction().String()),
		)
	}

	if sa.State.NextAction() == state.EndGame {
		m.finish(sess)
		evs = append(evs, event(events.EventGameEnded, sess.id, player.NoColor, "", len(sess.actions), nil))
	}
	return sess.view(), evs, nil
}

func (m *Manager) finish(sess *session) {
	if err := m.opts.Recorder.SaveReplay(sess.id); err != nil && m.logger != nil {
		m.logger.Warn("failed to save replay", zap.String("game_id", sess.id), zap.Error(err))
	}
	if m.logger != nil {
		points := sess.current.Messages().Points()
		fields := []zap.Field{zap.String("game_id", sess.id)}
		for _, c := range sess.players {
			fields = append(fields, zap.Int(c.String(), points[c]))
		}
		m.logger.Info("game ended", fields...)
	}
}

func (m *Manager) rejected(id string, c player.Color, err error) events.Event {
	if m.logger != nil {
		m.logger.Warn("action rejected",
			zap.String("game_id", id),
			zap.String("player", c.String()),
			zap.Error(err),
		)
	}
	return event(events.EventActionRejected, id, c, "", -1, err)
}

func event(t events.EventType, id string, c player.Color, action string, seq int, err error) events.Event {
	e := events.NewEvent(t, id)
	if c != player.NoColor {
		e.Player = c.String()
	}
	e.Action = action
	e.Seq = seq
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

func (m *Manager) emit(evs ...events.Event) {
	for _, e := range evs {
		m.opts.Bus.Publish(e)
	}
}

// ApplyAction applies an encoded action. Malformed or illegal actions
// wrap codec.ErrMalformedAction and leave the game unchanged.
func (m *Manager) ApplyAction(ctx context.Context, id, action string) (View, error) {
	return m.apply(ctx, id, player.NoColor, func(s *state.GameState) (codec.StateAction, error) {
		return codec.DecodeAndApply(s, action)
	})
}

// PlaceTile places the tile to place at pos with rotation rot on behalf of as.
func (m *Manager) PlaceTile(ctx context.Context, id string, as player.Color, pos geom.Pos, rot geom.Rotation) (View, error) {
	return m.apply(ctx, id, as, func(s *state.GameState) (codec.StateAction, error) {
		if s.NextAction() != state.PlaceTile {
			return codec.StateAction{}, fmt.Errorf("place tile during %s: %w", s.NextAction(), state.ErrWrongAction)
		}
		return codec.WithPlacedTile(s, tile.NewPlacedTile(s.TileToPlace(), s.CurrentPlayer(), rot, pos))
	})
}

// Occupy places o on the last placed tile, or declines when o is nil.
func (m *Manager) Occupy(ctx context.Context, id string, as player.Color, o *tile.Occupant) (View, error) {
	return m.apply(ctx, id, as, func(s *state.GameState) (codec.StateAction, error) {
		return codec.WithNewOccupant(s, o)
	})
}

// RetakePawn takes back one of the current player's pawns after a shaman
// was placed, or declines when o is nil.
func (m *Manager) RetakePawn(ctx context.Context, id string, as player.Color, o *tile.Occupant) (View, error) {
	return m.apply(ctx, id, as, func(s *state.GameState) (codec.StateAction, error) {
		return codec.WithOccupantRemoved(s, o)
	})
}

// Snapshot returns the current snapshot of a game.
func (m *Manager) Snapshot(ctx context.Context, id string) (*state.GameState, error) {
	sess, err := m.session(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.current, nil
}

// View presents the current snapshot of a game.
func (m *Manager) View(ctx context.Context, id string) (View, error) {
	sess, err := m.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// Actions returns a copy of a game's action log.
func (m *Manager) Actions(ctx context.Context, id string) ([]string, error) {
	sess, err := m.session(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]string(nil), sess.actions...), nil
}

// List returns the stored games, or the live ones without a store.
func (m *Manager) List(ctx context.Context) ([]repository.GameSummary, error) {
	if m.opts.Store != nil {
		return m.opts.Store.ListGames(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]repository.GameSummary, 0, len(m.games))
	for _, sess := range m.games {
		sess.mu.Lock()
		out = append(out, repository.GameSummary{
			ID:          sess.id,
			Players:     colorNames(sess.players),
			ActionCount: len(sess.actions),
			CreatedAt:   sess.createdAt,
		})
		sess.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func colorNames(cs []player.Color) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
