package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chacun/chacun-server-go/internal/game/codec"
	"github.com/chacun/chacun-server-go/internal/game/gametest"
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
	"github.com/chacun/chacun-server-go/internal/text"
)

func meadowDecks() tile.Decks {
	return gametest.Decks(meadowTiles()[1:]...)
}

// playMeadowGame plays the three-action meadow game and returns its actions
// and final snapshot.
func playMeadowGame(t *testing.T) ([]string, *state.GameState) {
	t.Helper()
	s, err := state.Initial(redBlue, meadowDecks(), text.NewEnglish(text.ColorNames(redBlue)))
	require.NoError(t, err)
	s, err = s.WithStartingTilePlaced()
	require.NoError(t, err)

	var actions []string
	sa, err := codec.WithPlacedTile(s, tile.NewPlacedTile(s.TileToPlace(), s.CurrentPlayer(), geom.None, geom.Pos{X: 0, Y: -1}))
	require.NoError(t, err)
	actions = append(actions, sa.Action)

	zone := sa.State.Board().LastPlacedTile().ID() * 10
	sa, err = codec.WithNewOccupant(sa.State, &tile.Occupant{Kind: tile.Pawn, ZoneID: zone})
	require.NoError(t, err)
	actions = append(actions, sa.Action)

	s = sa.State
	sa, err = codec.WithPlacedTile(s, tile.NewPlacedTile(s.TileToPlace(), s.CurrentPlayer(), geom.HalfTurn, geom.Pos{X: 0, Y: -2}))
	require.NoError(t, err)
	actions = append(actions, sa.Action)
	require.Equal(t, state.EndGame, sa.State.NextAction())
	return actions, sa.State
}

func TestReplayRunReproducesGame(t *testing.T) {
	actions, final := playMeadowGame(t)

	replay := NewReplay("g1", 0, redBlue)
	replay.Actions = actions
	states, err := replay.Run(meadowDecks(), nil)
	require.NoError(t, err)
	require.Len(t, states, len(actions)+1)

	want, err := ComputeChecksum(final)
	require.NoError(t, err)
	got, err := ComputeChecksum(states[len(states)-1])
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, state.PlaceTile, states[0].NextAction())
}

func TestReplayRunVerifiesFinalChecksum(t *testing.T) {
	actions, final := playMeadowGame(t)
	sum, err := ComputeChecksum(final)
	require.NoError(t, err)

	replay := NewReplay("g1", 0, redBlue)
	replay.Actions = actions
	replay.FinalChecksum = sum
	_, err = replay.Run(meadowDecks(), nil)
	require.NoError(t, err)

	replay.FinalChecksum.Hash = "00"
	_, err = replay.Run(meadowDecks(), nil)
	assert.ErrorIs(t, err, ErrReplayIntegrity)
}

func TestReplayRunStopsAtFaultyAction(t *testing.T) {
	actions, _ := playMeadowGame(t)

	replay := NewReplay("g1", 0, redBlue)
	replay.Actions = []string{actions[0], "K"}
	states, err := replay.Run(meadowDecks(), nil)
	assert.ErrorIs(t, err, ErrReplayIntegrity)
	assert.ErrorIs(t, err, codec.ErrMalformedAction)
	assert.Len(t, states, 2)
	assert.Equal(t, 2, replay.Size())
}

func TestReplayNavigation(t *testing.T) {
	actions, _ := playMeadowGame(t)
	replay := NewReplay("g1", 0, redBlue)
	replay.Actions = actions
	states, err := replay.Run(meadowDecks(), nil)
	require.NoError(t, err)
	require.Equal(t, 4, replay.Size())

	assert.Same(t, states[0], replay.Next())
	assert.Same(t, states[1], replay.Next())
	assert.Equal(t, 2, replay.Position())

	assert.Same(t, states[1], replay.Previous())
	assert.Same(t, states[0], replay.Previous())
	assert.Nil(t, replay.Previous())

	assert.Same(t, states[3], replay.Skip(10))
	assert.Same(t, states[0], replay.Skip(-10))

	replay.Skip(2)
	replay.Start()
	assert.Equal(t, 0, replay.Position())

	assert.Same(t, states[2], replay.StateAt(2))
	assert.Nil(t, replay.StateAt(4))
	assert.Same(t, states[3], replay.Last())

	for replay.Position() < replay.Size() {
		require.NotNil(t, replay.Next())
	}
	assert.Nil(t, replay.Next())
}

func TestReplaySaveAndLoad(t *testing.T) {
	actions, final := playMeadowGame(t)
	sum, err := ComputeChecksum(final)
	require.NoError(t, err)

	dir := t.TempDir()
	replay := NewReplay("saved", 42, redBlue)
	replay.Actions = actions
	replay.FinalChecksum = sum
	require.NoError(t, replay.SaveToFile(dir))

	loaded, err := LoadReplayFromFile(dir, "saved")
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.GameID)
	assert.Equal(t, uint64(42), loaded.Seed)
	assert.Equal(t, redBlue, loaded.Players)
	assert.Equal(t, actions, loaded.Actions)
	assert.Equal(t, sum, loaded.FinalChecksum)
	assert.Equal(t, 0, loaded.Size())

	_, err = loaded.Run(meadowDecks(), nil)
	assert.NoError(t, err)

	_, err = LoadReplayFromFile(dir, "missing")
	assert.Error(t, err)
}

func TestReplayRecorder(t *testing.T) {
	dir := t.TempDir()
	rr := NewReplayRecorder(zaptest.NewLogger(t), dir)

	s, err := state.Initial(redBlue, meadowDecks(), nil)
	require.NoError(t, err)
	s, err = s.WithStartingTilePlaced()
	require.NoError(t, err)

	rr.StartRecording("rec", 5, redBlue, s)
	assert.True(t, rr.IsRecording("rec"))

	sa, err := codec.WithPlacedTile(s, tile.NewPlacedTile(s.TileToPlace(), s.CurrentPlayer(), geom.None, geom.Pos{X: 0, Y: -1}))
	require.NoError(t, err)
	rr.RecordAction("rec", sa.Action, sa.State)

	replay, ok := rr.GetReplay("rec")
	require.True(t, ok)
	assert.Equal(t, 2, replay.Size())
	assert.Equal(t, []string{sa.Action}, replay.Actions)

	rr.StopRecording("rec")
	rr.RecordAction("rec", "A", sa.State)
	assert.Len(t, replay.Actions, 1)

	require.NoError(t, rr.SaveReplay("rec"))
	_, ok = rr.GetReplay("rec")
	assert.False(t, ok)
	assert.Error(t, rr.SaveReplay("rec"))

	loaded, err := rr.LoadReplay("rec")
	require.NoError(t, err)
	want, err := ComputeChecksum(sa.State)
	require.NoError(t, err)
	assert.Equal(t, want, loaded.FinalChecksum)

	_, err = loaded.Run(meadowDecks(), nil)
	assert.NoError(t, err)
}

func TestReplayRecorderWithoutDirectory(t *testing.T) {
	rr := NewReplayRecorder(nil, "")
	rr.StartRecording("g", 1, redBlue, nil)
	assert.NoError(t, rr.SaveReplay("g"))

	rr.StartRecording("h", 1, redBlue, nil)
	rr.ClearReplay("h")
	assert.False(t, rr.IsRecording("h"))
}
