package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chacun/chacun-server-go/internal/game/codec"
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
	"github.com/chacun/chacun-server-go/internal/text"
)

func startedMeadowGame(t *testing.T) *state.GameState {
	t.Helper()
	s, err := state.Initial(redBlue, meadowDecks(), nil)
	require.NoError(t, err)
	s, err = s.WithStartingTilePlaced()
	require.NoError(t, err)
	return s
}

func TestChecksumIsDeterministic(t *testing.T) {
	a, err := ComputeChecksum(startedMeadowGame(t))
	require.NoError(t, err)
	b, err := ComputeChecksum(startedMeadowGame(t))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, ChecksumVersion, a.Version)
	assert.Len(t, a.Hash, 64)
	assert.True(t, strings.HasPrefix(a.String(), "v1:"))
}

func TestChecksumChangesWithEveryAction(t *testing.T) {
	s := startedMeadowGame(t)
	before, err := ComputeChecksum(s)
	require.NoError(t, err)

	sa, err := codec.WithPlacedTile(s, tile.NewPlacedTile(s.TileToPlace(), s.CurrentPlayer(), geom.None, geom.Pos{X: 0, Y: -1}))
	require.NoError(t, err)
	placed, err := ComputeChecksum(sa.State)
	require.NoError(t, err)
	assert.NotEqual(t, before.Hash, placed.Hash)

	sa, err = codec.WithNewOccupant(sa.State, nil)
	require.NoError(t, err)
	declined, err := ComputeChecksum(sa.State)
	require.NoError(t, err)
	assert.NotEqual(t, placed.Hash, declined.Hash)
}

func TestChecksumIgnoresMessageText(t *testing.T) {
	_, withText := playMeadowGame(t)

	replay := NewReplay("g", 0, redBlue)
	replay.Actions, _ = playMeadowGame(t)
	states, err := replay.Run(meadowDecks(), nil)
	require.NoError(t, err)

	a, err := ComputeChecksum(withText)
	require.NoError(t, err)
	b, err := ComputeChecksum(states[len(states)-1])
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestVerifyChecksum(t *testing.T) {
	s := startedMeadowGame(t)
	sum, err := ComputeChecksum(s)
	require.NoError(t, err)

	ok, err := VerifyChecksum(s, sum)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyChecksum(s, Checksum{Hash: "00", Version: ChecksumVersion})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyChecksum(s, Checksum{Hash: sum.Hash, Version: 99})
	assert.Error(t, err)
}

func TestCanonicalText(t *testing.T) {
	s, err := state.Initial(redBlue, meadowDecks(), text.NewEnglish(text.ColorNames(redBlue)))
	require.NoError(t, err)
	s, err = s.WithStartingTilePlaced()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(CanonicalText(s)), "\n")
	assert.Equal(t, "PLAYERS:RED,BLUE", lines[0])
	assert.Equal(t, "NEXT:PLACE_TILE", lines[1])
	assert.Equal(t, "TO_PLACE:1", lines[2])
	assert.Contains(t, lines, "DECK:START:")
	assert.Contains(t, lines, "DECK:NORMAL:2")
	assert.Contains(t, lines, "DECK:MENHIR:")
	assert.Contains(t, lines, "CANCELLED:")

	var tiles int
	for _, l := range lines {
		if strings.HasPrefix(l, "TILE:") {
			tiles++
			assert.True(t, strings.HasPrefix(l, "TILE:56|"), l)
		}
		assert.False(t, strings.HasPrefix(l, "MESSAGE:"), l)
	}
	assert.Equal(t, 1, tiles)
}
