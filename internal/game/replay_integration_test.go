package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
	"github.com/chacun/chacun-server-go/internal/repository"
)

// playToEnd plays a game with the default tile set, always taking the first
// legal placement, the first potential occupant and never retaking a pawn.
func playToEnd(t *testing.T, m *Manager, v View) View {
	t.Helper()
	ctx := context.Background()
	for turn := 0; v.NextAction != state.EndGame.String(); turn++ {
		require.Less(t, turn, 500, "game did not end")
		as, err := player.ParseColor(v.CurrentPlayer)
		require.NoError(t, err)

		switch v.NextAction {
		case state.PlaceTile.String():
			require.NotEmpty(t, v.Placements)
			p := v.Placements[0]
			rot, err := geom.ParseRotation(p.Rotation)
			require.NoError(t, err)
			v, err = m.PlaceTile(ctx, v.ID, as, geom.Pos{X: p.X, Y: p.Y}, rot)
			require.NoError(t, err)
		case state.OccupyTile.String():
			var o *tile.Occupant
			if len(v.PotentialOccupants) > 0 {
				po := v.PotentialOccupants[0]
				kind, err := tile.ParseOccupantKind(po.Kind)
				require.NoError(t, err)
				o = &tile.Occupant{Kind: kind, ZoneID: po.ZoneID}
			}
			v, err = m.Occupy(ctx, v.ID, as, o)
			require.NoError(t, err)
		case state.RetakePawn.String():
			v, err = m.RetakePawn(ctx, v.ID, as, nil)
			require.NoError(t, err)
		default:
			t.Fatalf("unexpected next action %s", v.NextAction)
		}
	}
	return v
}

func TestFullGameReplaysToSameChecksum(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)
	m, err := NewManager(logger, Options{Recorder: NewReplayRecorder(logger, dir)})
	require.NoError(t, err)

	players := []player.Color{player.Red, player.Blue, player.Green}
	v, err := m.CreateGame(context.Background(), players, 2024)
	require.NoError(t, err)

	final := playToEnd(t, m, v)
	assert.Empty(t, final.CurrentPlayer)
	assert.Nil(t, final.TileToPlace)
	require.NotEmpty(t, final.Messages)
	assert.Equal(t, "WINNERS", final.Messages[len(final.Messages)-1].Kind)
	assert.Greater(t, final.ActionCount, 10)

	actions, err := m.Actions(context.Background(), v.ID)
	require.NoError(t, err)

	replay := NewReplay(v.ID, 2024, players)
	replay.Actions = actions
	states, err := replay.Run(m.Decks(2024), nil)
	require.NoError(t, err)
	sum, err := ComputeChecksum(states[len(states)-1])
	require.NoError(t, err)
	assert.Equal(t, final.Checksum, sum.Hash)

	saved, err := LoadReplayFromFile(dir, v.ID)
	require.NoError(t, err)
	assert.Equal(t, actions, saved.Actions)
	assert.Equal(t, final.Checksum, saved.FinalChecksum.Hash)
	_, err = saved.Run(m.Decks(2024), nil)
	assert.NoError(t, err)
}

func TestFullGameRestoresFromStore(t *testing.T) {
	store, err := repository.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	m1, err := NewManager(zaptest.NewLogger(t), Options{Store: store})
	require.NoError(t, err)
	v, err := m1.CreateGame(ctx, []player.Color{player.Yellow, player.Purple}, 99)
	require.NoError(t, err)
	final := playToEnd(t, m1, v)

	m2, err := NewManager(zaptest.NewLogger(t), Options{Store: store})
	require.NoError(t, err)
	restored, err := m2.View(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, final.Checksum, restored.Checksum)
	assert.Equal(t, final.Points, restored.Points)
	assert.Equal(t, final.ActionCount, restored.ActionCount)

	_, err = m2.RetakePawn(ctx, v.ID, player.NoColor, nil)
	assert.ErrorIs(t, err, state.ErrWrongAction)
}

func TestSameSeedSameDeal(t *testing.T) {
	m, err := NewManager(nil, Options{})
	require.NoError(t, err)
	ctx := context.Background()

	a, err := m.CreateGame(ctx, redBlue, 5)
	require.NoError(t, err)
	b, err := m.CreateGame(ctx, redBlue, 5)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Checksum, b.Checksum)
	assert.Equal(t, *a.TileToPlace, *b.TileToPlace)
}
