package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chacun/chacun-server-go/internal/game/board"
	"github.com/chacun/chacun-server-go/internal/game/gametest"
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/scoring"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

var redBlue = []player.Color{player.Red, player.Blue}

func started(t *testing.T, tiles ...*tile.Tile) *state.GameState {
	t.Helper()
	s, err := state.Initial(redBlue, gametest.Decks(tiles...), nil)
	require.NoError(t, err)
	s, err = s.WithStartingTilePlaced()
	require.NoError(t, err)
	return s
}

func placeAt(t *testing.T, s *state.GameState, rot geom.Rotation, x, y int) *state.GameState {
	t.Helper()
	require.Equal(t, state.PlaceTile, s.NextAction())
	ns, err := s.WithPlacedTile(tile.NewPlacedTile(s.TileToPlace(), s.CurrentPlayer(), rot, geom.Pos{X: x, Y: y}))
	require.NoError(t, err)
	return ns
}

func occupy(t *testing.T, s *state.GameState, kind tile.OccupantKind, zoneID int) *state.GameState {
	t.Helper()
	ns, err := s.WithNewOccupant(&tile.Occupant{Kind: kind, ZoneID: zoneID})
	require.NoError(t, err)
	return ns
}

func decline(t *testing.T, s *state.GameState) *state.GameState {
	t.Helper()
	ns, err := s.WithNewOccupant(nil)
	require.NoError(t, err)
	return ns
}

func lastMessage(t *testing.T, s *state.GameState) scoring.Message {
	t.Helper()
	msgs := s.Messages().Messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func TestInitialRequiresTwoDistinctPlayers(t *testing.T) {
	_, err := state.Initial([]player.Color{player.Red}, gametest.Decks(), nil)
	assert.ErrorIs(t, err, state.ErrInvalidPlayers)
	_, err = state.Initial([]player.Color{player.Red, player.Red}, gametest.Decks(), nil)
	assert.ErrorIs(t, err, state.ErrInvalidPlayers)

	s, err := state.Initial(redBlue, gametest.Decks(), nil)
	require.NoError(t, err)
	assert.Equal(t, state.StartGame, s.NextAction())
	assert.Equal(t, player.NoColor, s.CurrentPlayer())
	assert.Nil(t, s.TileToPlace())
}

func TestStartingTilePlaced(t *testing.T) {
	s, err := state.Initial(redBlue, gametest.Decks(gametest.ForestCap(1, tile.PlainForest), gametest.ForestCap(2, tile.PlainForest)), nil)
	require.NoError(t, err)
	_, err = s.WithPlacedTile(tile.NewPlacedTile(gametest.ForestCap(1, tile.PlainForest), player.Red, geom.None, geom.Origin))
	assert.ErrorIs(t, err, state.ErrWrongAction)

	s, err = s.WithStartingTilePlaced()
	require.NoError(t, err)
	assert.Equal(t, state.PlaceTile, s.NextAction())
	assert.Equal(t, player.Red, s.CurrentPlayer())
	assert.Equal(t, 1, s.TileToPlace().ID)
	assert.Equal(t, 1, s.Decks().Size(tile.KindNormal))
	assert.Equal(t, 0, s.Decks().Size(tile.KindStart))
	assert.Equal(t, 56, s.Board().TileAt(geom.Origin).ID())
	assert.Equal(t, 5, s.FreeOccupantsCount(player.Red, tile.Pawn))
	assert.Equal(t, 3, s.FreeOccupantsCount(player.Blue, tile.Hut))

	_, err = s.WithStartingTilePlaced()
	assert.ErrorIs(t, err, state.ErrWrongAction)
}

func TestRejectedTransitionsLeaveStateUnchanged(t *testing.T) {
	s := started(t, gametest.ForestCap(1, tile.PlainForest), gametest.ForestCap(2, tile.PlainForest))

	_, err := s.WithPlacedTile(tile.NewPlacedTile(s.TileToPlace(), player.Red, geom.Right, geom.Pos{X: 1}))
	assert.ErrorIs(t, err, board.ErrCannotAddTile)
	_, err = s.WithPlacedTile(tile.NewPlacedTile(s.TileToPlace(), player.Blue, geom.None, geom.Pos{X: 1}))
	assert.ErrorIs(t, err, state.ErrWrongTile)
	_, err = s.WithPlacedTile(tile.NewPlacedTile(gametest.ForestCap(2, tile.PlainForest), player.Red, geom.None, geom.Pos{X: 1}))
	assert.ErrorIs(t, err, state.ErrWrongTile)
	_, err = s.WithNewOccupant(nil)
	assert.ErrorIs(t, err, state.ErrWrongAction)

	assert.Equal(t, state.PlaceTile, s.NextAction())
	assert.Equal(t, 1, s.Board().TileCount())

	s = placeAt(t, s, geom.None, 1, 0)
	_, err = s.WithNewOccupant(&tile.Occupant{Kind: tile.Hut, ZoneID: 10})
	assert.ErrorIs(t, err, state.ErrIllegalOccupant)
	_, err = s.WithNewOccupant(&tile.Occupant{Kind: tile.Pawn, ZoneID: 561})
	assert.ErrorIs(t, err, state.ErrIllegalOccupant)
	assert.Empty(t, s.Board().Occupants())
}

func TestDeclineOnlyAdvancesTurn(t *testing.T) {
	s := started(t, gametest.ForestCap(1, tile.PlainForest), gametest.ForestCap(2, tile.PlainForest))
	s = placeAt(t, s, geom.None, 1, 0)
	require.Equal(t, state.OccupyTile, s.NextAction())

	next := decline(t, s)
	assert.Same(t, s.Board().TileAt(geom.Pos{X: 1}), next.Board().TileAt(geom.Pos{X: 1}))
	assert.Equal(t, s.Board().Occupants(), next.Board().Occupants())
	assert.Equal(t, player.Blue, next.CurrentPlayer())
	assert.Equal(t, 2, next.TileToPlace().ID)
}

func TestClosedForestScoresAndReturnsPawns(t *testing.T) {
	s := started(t,
		gametest.ForestCap(1, tile.ForestWithMushrooms),
		gametest.ForestCap(2, tile.PlainForest),
		gametest.AllMeadow(5, tile.NoPower),
	)
	s = placeAt(t, s, geom.None, 1, 0)
	assert.Equal(t, []tile.Occupant{{Kind: tile.Pawn, ZoneID: 10}, {Kind: tile.Pawn, ZoneID: 11}}, s.LastTilePotentialOccupants())
	s = occupy(t, s, tile.Pawn, 10)
	assert.Equal(t, 4, s.FreeOccupantsCount(player.Red, tile.Pawn))

	s = placeAt(t, s, geom.Right, 0, 1)
	assert.Equal(t, []tile.Occupant{{Kind: tile.Pawn, ZoneID: 21}}, s.LastTilePotentialOccupants())
	s = decline(t, s)

	msg := lastMessage(t, s)
	assert.Equal(t, scoring.ScoredForest, msg.Kind)
	assert.Equal(t, 9, msg.Points)
	assert.Equal(t, []player.Color{player.Red}, msg.Scorers)
	assert.Empty(t, s.Board().Occupants())
	assert.Equal(t, 5, s.FreeOccupantsCount(player.Red, tile.Pawn))
	assert.Equal(t, player.Red, s.CurrentPlayer())
	assert.Equal(t, 5, s.TileToPlace().ID)
}

func TestExhaustedDeckEndsGameWithSingleWinnerMessage(t *testing.T) {
	s := started(t, gametest.AllMeadow(5, tile.NoPower))
	s = placeAt(t, s, geom.None, 0, -1)
	require.Equal(t, state.OccupyTile, s.NextAction())
	s = decline(t, s)

	assert.Equal(t, state.EndGame, s.NextAction())
	assert.Equal(t, player.NoColor, s.CurrentPlayer())
	assert.Nil(t, s.TileToPlace())
	msgs := s.Messages().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, scoring.Winners, msgs[0].Kind)
	assert.Equal(t, []player.Color{player.Red, player.Blue}, msgs[0].Scorers)
	assert.Equal(t, 0, msgs[0].Points)
}

func TestMenhirForestGrantsBonusTurn(t *testing.T) {
	s := started(t,
		gametest.ForestCap(1, tile.ForestWithMenhir),
		gametest.ForestCap(2, tile.PlainForest),
		gametest.AllMeadow(5, tile.NoPower),
		gametest.Menhir(80),
	)
	s = decline(t, placeAt(t, s, geom.None, 1, 0))
	require.Equal(t, player.Blue, s.CurrentPlayer())

	s = decline(t, placeAt(t, s, geom.Right, 0, 1))
	msg := lastMessage(t, s)
	assert.Equal(t, scoring.ClosedForestWithMenhir, msg.Kind)
	assert.Equal(t, 0, msg.Points)
	assert.Equal(t, player.Blue, s.CurrentPlayer())
	assert.Equal(t, 80, s.TileToPlace().ID)
	assert.Equal(t, 0, s.Decks().Size(tile.KindMenhir))

	s = decline(t, placeAt(t, s, geom.None, 0, -1))
	assert.Equal(t, player.Red, s.CurrentPlayer())
	assert.Equal(t, 5, s.TileToPlace().ID)
}

func TestMenhirBonusSkippedWithoutMenhirTiles(t *testing.T) {
	s := started(t,
		gametest.ForestCap(1, tile.ForestWithMenhir),
		gametest.ForestCap(2, tile.PlainForest),
		gametest.AllMeadow(5, tile.NoPower),
	)
	s = decline(t, placeAt(t, s, geom.None, 1, 0))
	s = decline(t, placeAt(t, s, geom.Right, 0, 1))
	assert.Equal(t, 0, s.Messages().Len())
	assert.Equal(t, player.Red, s.CurrentPlayer())
}

func TestShamanRetakesPawn(t *testing.T) {
	s := started(t,
		gametest.ForestCap(1, tile.PlainForest),
		gametest.ForestCap(2, tile.PlainForest),
		gametest.AllMeadow(5, tile.Shaman),
	)
	s = occupy(t, placeAt(t, s, geom.None, 1, 0), tile.Pawn, 10)
	s = decline(t, placeAt(t, s, geom.None, 0, -1))

	s = placeAt(t, s, geom.None, 1, -1)
	require.Equal(t, state.RetakePawn, s.NextAction())
	require.Equal(t, player.Red, s.CurrentPlayer())

	_, err := s.WithOccupantRemoved(&tile.Occupant{Kind: tile.Hut, ZoneID: 10})
	assert.ErrorIs(t, err, state.ErrIllegalOccupant)

	s, err = s.WithOccupantRemoved(&tile.Occupant{Kind: tile.Pawn, ZoneID: 10})
	require.NoError(t, err)
	assert.Equal(t, state.OccupyTile, s.NextAction())
	assert.Empty(t, s.Board().Occupants())
	s = occupy(t, s, tile.Pawn, 50)
	assert.Equal(t, state.EndGame, s.NextAction())
}

func TestShamanWithoutPawnsGoesToOccupy(t *testing.T) {
	s := started(t, gametest.AllMeadow(5, tile.Shaman), gametest.AllMeadow(6, tile.NoPower))
	s = placeAt(t, s, geom.None, 0, -1)
	assert.Equal(t, state.OccupyTile, s.NextAction())
}

func TestRetakeRejectsOtherPlayersPawn(t *testing.T) {
	s := started(t,
		gametest.ForestCap(1, tile.PlainForest),
		gametest.ForestCap(2, tile.PlainForest),
		gametest.AllMeadow(5, tile.Shaman),
	)
	s = occupy(t, placeAt(t, s, geom.None, 1, 0), tile.Pawn, 10)
	s = occupy(t, placeAt(t, s, geom.None, 0, -1), tile.Pawn, 21)

	s = placeAt(t, s, geom.None, 1, -1)
	require.Equal(t, state.RetakePawn, s.NextAction())
	_, err := s.WithOccupantRemoved(&tile.Occupant{Kind: tile.Pawn, ZoneID: 21})
	assert.ErrorIs(t, err, state.ErrIllegalOccupant)

	// The shaman's meadow is held by blue, so declining leaves nothing to occupy.
	s, err = s.WithOccupantRemoved(nil)
	require.NoError(t, err)
	assert.Equal(t, state.EndGame, s.NextAction())
	assert.Len(t, s.Board().Occupants(), 2)
}

func TestLogboatScoresLakes(t *testing.T) {
	s := started(t, gametest.RiverSource(3, 0, 0, tile.Logboat), gametest.AllMeadow(5, tile.NoPower))
	s = placeAt(t, s, geom.Right, -1, 0)
	msg := lastMessage(t, s)
	assert.Equal(t, scoring.ScoredLogboat, msg.Kind)
	assert.Equal(t, 4, msg.Points)
	assert.Equal(t, []player.Color{player.Red}, msg.Scorers)
	assert.Contains(t, s.LastTilePotentialOccupants(), tile.Occupant{Kind: tile.Hut, ZoneID: 38})
}

func TestHuntingTrapCancelsAdjacentMeadow(t *testing.T) {
	deerAndTiger := gametest.AllMeadow(8, tile.NoPower, tile.Deer, tile.Deer, tile.Tiger)
	s := started(t, deerAndTiger, gametest.AllMeadow(7, tile.HuntingTrap), gametest.AllMeadow(5, tile.NoPower))
	s = decline(t, placeAt(t, s, geom.None, 0, -1))
	s = placeAt(t, s, geom.None, 0, -2)

	msg := lastMessage(t, s)
	assert.Equal(t, scoring.ScoredHuntingTrap, msg.Kind)
	assert.Equal(t, 1, msg.Points)
	assert.Equal(t, []player.Color{player.Blue}, msg.Scorers)
	assert.Equal(t, map[tile.AnimalKind]int{tile.Deer: 1, tile.Tiger: 1}, msg.Animals)

	meadow := deerAndTiger.N.(tile.MeadowSide).Meadow
	assert.ElementsMatch(t, meadow.Animals, s.Board().CancelledAnimals())
	assert.Equal(t, []tile.Animal{meadow.Animals[0]}, state.EatenDeer(meadow.Animals))
}

func TestHuntingTrapWithWildFireKeepsDeer(t *testing.T) {
	s := started(t,
		gametest.AllMeadow(11, tile.WildFire),
		gametest.AllMeadow(7, tile.HuntingTrap, tile.Deer, tile.Tiger),
	)
	s = decline(t, placeAt(t, s, geom.None, 0, -1))
	s = placeAt(t, s, geom.None, 0, -2)

	msgs := s.Messages().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, scoring.ScoredHuntingTrap, msgs[0].Kind)
	assert.Equal(t, 1, msgs[0].Points)
	assert.Equal(t, []player.Color{player.Blue}, msgs[0].Scorers)
	assert.Equal(t, map[tile.AnimalKind]int{tile.Deer: 1, tile.Tiger: 1}, msgs[0].Animals)
	assert.Equal(t, map[player.Color]int{player.Blue: 1}, s.Messages().Points())
	assert.Len(t, s.Board().CancelledAnimals(), 2)
}

func TestFinalScoringPredation(t *testing.T) {
	s := started(t, gametest.AllMeadow(8, tile.NoPower, tile.Deer, tile.Deer, tile.Tiger))
	s = occupy(t, placeAt(t, s, geom.None, 0, -1), tile.Pawn, 80)
	require.Equal(t, state.EndGame, s.NextAction())

	assert.Equal(t, []tile.Animal{{ID: 8000, Kind: tile.Deer}}, s.Board().CancelledAnimals())
	msgs := s.Messages().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, scoring.ScoredMeadow, msgs[0].Kind)
	assert.Equal(t, 3, msgs[0].Points)
	assert.Equal(t, scoring.Winners, msgs[1].Kind)
	assert.Equal(t, []player.Color{player.Red}, msgs[1].Scorers)
	assert.Equal(t, 3, msgs[1].Points)
}

func TestFinalScoringWildFireSuppressesPredation(t *testing.T) {
	s := started(t,
		gametest.AllMeadow(8, tile.NoPower, tile.Deer, tile.Deer, tile.Tiger),
		gametest.AllMeadow(11, tile.WildFire),
	)
	s = occupy(t, placeAt(t, s, geom.None, 0, -1), tile.Pawn, 80)
	s = placeAt(t, s, geom.None, 0, -2)
	require.Equal(t, state.EndGame, s.NextAction())

	assert.Empty(t, s.Board().CancelledAnimals())
	assert.Equal(t, map[player.Color]int{player.Red: 4}, s.Messages().Points())
}

func TestFinalScoringPitTrap(t *testing.T) {
	s := started(t,
		gametest.AllMeadow(8, tile.NoPower, tile.Deer, tile.Deer, tile.Tiger),
		gametest.AllMeadow(10, tile.PitTrap),
	)
	s = occupy(t, placeAt(t, s, geom.None, 0, -1), tile.Pawn, 80)
	s = placeAt(t, s, geom.None, 0, -2)
	require.Equal(t, state.EndGame, s.NextAction())

	msgs := s.Messages().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, scoring.ScoredPitTrap, msgs[0].Kind)
	assert.Equal(t, 1, msgs[0].Points)
	assert.Equal(t, []int{8, 10}, msgs[0].TileIDs)
	assert.Equal(t, scoring.ScoredMeadow, msgs[1].Kind)
	assert.Equal(t, 3, msgs[1].Points)
	assert.Equal(t, 4, msgs[2].Points)
}

func TestFinalScoringHuntingTrapWithTiger(t *testing.T) {
	s := started(t,
		gametest.AllMeadow(7, tile.HuntingTrap),
		gametest.AllMeadow(8, tile.NoPower, tile.Deer, tile.Deer, tile.Tiger),
	)
	s = placeAt(t, s, geom.None, 0, -1)
	assert.Equal(t, scoring.ScoredHuntingTrap, lastMessage(t, s).Kind)
	s = occupy(t, s, tile.Pawn, 70)
	s = placeAt(t, s, geom.None, 0, -2)
	require.Equal(t, state.EndGame, s.NextAction())

	assert.Len(t, s.Board().CancelledAnimals(), 4)
	msgs := s.Messages().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, 2, msgs[0].Points)
	assert.Equal(t, map[player.Color]int{player.Red: 2}, s.Messages().Points())
}

func TestFinalScoringRaftAndFish(t *testing.T) {
	s := started(t, gametest.RiverSource(3, 1, 1, tile.Raft))
	s = placeAt(t, s, geom.Right, -1, 0)
	s = occupy(t, s, tile.Hut, 38)
	require.Equal(t, state.EndGame, s.NextAction())

	msgs := s.Messages().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, scoring.ScoredRaft, msgs[0].Kind)
	assert.Equal(t, 2, msgs[0].Points)
	assert.Equal(t, scoring.ScoredRiverSystem, msgs[1].Kind)
	assert.Equal(t, 4, msgs[1].Points)
	assert.Equal(t, 6, msgs[2].Points)
	assert.Equal(t, []player.Color{player.Red}, msgs[2].Scorers)
}

func TestUnplaceableTilesAreSkipped(t *testing.T) {
	allForest := &tile.Tile{ID: 9, Kind: tile.KindNormal}
	f := tile.ForestSide{Forest: gametest.Forest(90, tile.PlainForest)}
	allForest.N, allForest.E, allForest.S, allForest.W = f, f, f, f

	s := started(t,
		gametest.ForestCap(1, tile.PlainForest),
		gametest.ForestCap(2, tile.PlainForest),
		allForest,
		gametest.AllMeadow(5, tile.NoPower),
	)
	s = decline(t, placeAt(t, s, geom.None, 1, 0))
	s = decline(t, placeAt(t, s, geom.Right, 0, 1))
	assert.Equal(t, 5, s.TileToPlace().ID)
	assert.Equal(t, 0, s.Decks().Size(tile.KindNormal))
}
