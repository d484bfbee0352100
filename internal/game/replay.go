package game

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chacun/chacun-server-go/internal/game/codec"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/scoring"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// ErrReplayIntegrity is returned when a recorded action cannot be applied
// or a replayed game does not reach its recorded checksum.
var ErrReplayIntegrity = errors.New("replay integrity fault")

const replayVersion = 1

// Replay is a recorded game: the seed, seating and action log that fully
// determine it, plus the snapshots produced by running it.
type Replay struct {
	GameID        string
	Seed          uint64
	Players       []player.Color
	Actions       []string
	FinalChecksum Checksum // zero if never recorded

	mu           sync.RWMutex
	states       []*state.GameState
	currentIndex int
}

// NewReplay creates an empty replay.
func NewReplay(gameID string, seed uint64, players []player.Color) *Replay {
	return &Replay{
		GameID:  gameID,
		Seed:    seed,
		Players: append([]player.Color(nil), players...),
	}
}

// Run replays the game from the start tile on the given decks, keeping one
// snapshot per step: the state after the start tile, then one per action.
// On a fault the snapshots up to the faulty action are kept.
func (r *Replay) Run(decks tile.Decks, tm scoring.TextMaker) ([]*state.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := state.Initial(r.Players, decks, tm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReplayIntegrity, err)
	}
	if s, err = s.WithStartingTilePlaced(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReplayIntegrity, err)
	}

	states := []*state.GameState{s}
	for i, a := range r.Actions {
		sa, err := codec.DecodeAndApply(s, a)
		if err != nil {
			r.states, r.currentIndex = states, 0
			return states, fmt.Errorf("action %d %q: %w: %w", i, a, ErrReplayIntegrity, err)
		}
		s = sa.State
		states = append(states, s)
	}
	r.states, r.currentIndex = states, 0

	if r.FinalChecksum.Hash != "" {
		ok, err := VerifyChecksum(s, r.FinalChecksum)
		if err != nil {
			return states, fmt.Errorf("%w: %w", ErrReplayIntegrity, err)
		}
		if !ok {
			return states, fmt.Errorf("final checksum mismatch: %w", ErrReplayIntegrity)
		}
	}
	return states, nil
}

// Record appends an accepted action and the snapshot it produced.
func (r *Replay) Record(action string, s *state.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Actions = append(r.Actions, action)
	r.states = append(r.states, s)
}

// Start resets the replay to the beginning
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentIndex = 0
}

// Next returns the current snapshot and advances, or nil at the end.
func (r *Replay) Next() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentIndex < len(r.states) {
		s := r.states[r.currentIndex]
		r.currentIndex++
		return s
	}
	return nil
}

// Previous steps back and returns that snapshot, or nil at the beginning.
func (r *Replay) Previous() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentIndex > 0 {
		r.currentIndex--
		return r.states[r.currentIndex]
	}
	return nil
}

// Skip moves by count snapshots, clamped to the recorded range.
func (r *Replay) Skip(count int) *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.currentIndex + count
	if newIndex >= len(r.states) {
		newIndex = len(r.states) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}

	r.currentIndex = newIndex
	if r.currentIndex < len(r.states) {
		return r.states[r.currentIndex]
	}
	return nil
}

// Position returns the navigation index.
func (r *Replay) Position() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentIndex
}

// Size returns the number of snapshots held.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.states)
}

// StateAt returns the snapshot at index, or nil.
func (r *Replay) StateAt(index int) *state.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.states) {
		return r.states[index]
	}
	return nil
}

// Last returns the latest snapshot, or nil.
func (r *Replay) Last() *state.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.states) == 0 {
		return nil
	}
	return r.states[len(r.states)-1]
}

func replayPath(directory, gameID string) string {
	return filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))
}

// SaveToFile writes the replay inputs to <directory>/<game id>.replay as
// gzipped gob. Snapshots are not written; Run rebuilds them.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(replayPath(directory, r.GameID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:        r.GameID,
		Timestamp:     time.Now(),
		Version:       replayVersion,
		Seed:          r.Seed,
		Players:       r.Players,
		ActionCount:   len(r.Actions),
		FinalChecksum: r.FinalChecksum,
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, a := range r.Actions {
		if err := encoder.Encode(a); err != nil {
			return fmt.Errorf("failed to encode action %d: %w", i, err)
		}
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return file.Close()
}

// LoadReplayFromFile reads a replay written by SaveToFile. The returned
// replay holds no snapshots until Run is called.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID, metadata.Seed, metadata.Players)
	replay.FinalChecksum = metadata.FinalChecksum
	for i := 0; i < metadata.ActionCount; i++ {
		var a string
		if err := decoder.Decode(&a); err != nil {
			return nil, fmt.Errorf("failed to decode action %d: %w", i, err)
		}
		replay.Actions = append(replay.Actions, a)
	}
	return replay, nil
}

// replayMetadata heads a saved replay file.
type replayMetadata struct {
	GameID        string
	Timestamp     time.Time
	Version       int
	Seed          uint64
	Players       []player.Color
	ActionCount   int
	FinalChecksum Checksum
}

// ReplayRecorder keeps a replay per game while it is played.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // gameID -> Replay
	enabled map[string]bool
	saveDir string // empty disables saving
}

// NewReplayRecorder creates a new replay recorder
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a game from its first snapshot.
func (rr *ReplayRecorder) StartRecording(gameID string, seed uint64, players []player.Color, first *state.GameState) {
	replay := NewReplay(gameID, seed, players)
	if first != nil {
		replay.states = []*state.GameState{first}
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.replays[gameID] = replay
	rr.enabled[gameID] = true

	if rr.logger != nil {
		rr.logger.Info("started replay recording",
			zap.String("game_id", gameID),
		)
	}
}

// StopRecording stops recording a game
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[gameID] = false

	if rr.logger != nil {
		rr.logger.Info("stopped replay recording",
			zap.String("game_id", gameID),
		)
	}
}

// RecordAction records an accepted action if recording is enabled.
func (rr *ReplayRecorder) RecordAction(gameID, action string, s *state.GameState) {
	rr.mu.RLock()
	enabled := rr.enabled[gameID]
	replay := rr.replays[gameID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}

	replay.Record(action, s)

	if rr.logger != nil {
		rr.logger.Debug("recorded replay action",
			zap.String("game_id", gameID),
			zap.String("action", action),
			zap.Int("state_count", replay.Size()),
		)
	}
}

// GetReplay returns the replay for a game
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[gameID]
	return replay, exists
}

// SaveReplay stamps the replay with the checksum of its last snapshot,
// writes it to disk and forgets it.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if rr.saveDir == "" {
		return nil
	}
	if last := replay.Last(); last != nil {
		sum, err := ComputeChecksum(last)
		if err != nil {
			return err
		}
		replay.mu.Lock()
		replay.FinalChecksum = sum
		replay.mu.Unlock()
	}
	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("game_id", gameID),
			zap.Int("action_count", len(replay.Actions)),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// LoadReplay loads a replay from disk
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}

	if rr.logger != nil {
		rr.logger.Info("loaded replay from disk",
			zap.String("game_id", gameID),
			zap.Int("action_count", len(replay.Actions)),
		)
	}
	return replay, nil
}

// ClearReplay removes a replay from memory without saving
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)

	if rr.logger != nil {
		rr.logger.Debug("cleared replay from memory",
			zap.String("game_id", gameID),
		)
	}
}

// IsRecording returns whether recording is enabled for a game
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[gameID]
}
