package scoring_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chacun/chacun-server-go/internal/game/area"
	"github.com/chacun/chacun-server-go/internal/game/gametest"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/scoring"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// echoText renders every event as its name and arguments.
type echoText struct{}

func (echoText) PlayerName(c player.Color) string { return c.String() }
func (echoText) Points(p int) string              { return fmt.Sprint(p) }
func (echoText) PlayerClosedForestWithMenhir(c player.Color) string {
	return fmt.Sprint("menhir ", c)
}
func (echoText) PlayersScoredForest(s []player.Color, p, m, n int) string {
	return fmt.Sprint("forest ", s, p, m, n)
}
func (echoText) PlayersScoredRiver(s []player.Color, p, f, n int) string {
	return fmt.Sprint("river ", s, p, f, n)
}
func (echoText) PlayerScoredHuntingTrap(c player.Color, p int, a map[tile.AnimalKind]int) string {
	return fmt.Sprint("trap ", c, p)
}
func (echoText) PlayerScoredLogboat(c player.Color, p, l int) string {
	return fmt.Sprint("logboat ", c, p, l)
}
func (echoText) PlayersScoredMeadow(s []player.Color, p int, a map[tile.AnimalKind]int) string {
	return fmt.Sprint("meadow ", s, p)
}
func (echoText) PlayersScoredRiverSystem(s []player.Color, p, f int) string {
	return fmt.Sprint("system ", s, p, f)
}
func (echoText) PlayersScoredPitTrap(s []player.Color, p int, a map[tile.AnimalKind]int) string {
	return fmt.Sprint("pit ", s, p)
}
func (echoText) PlayersScoredRaft(s []player.Color, p, l int) string {
	return fmt.Sprint("raft ", s, p, l)
}
func (echoText) PlayersWon(w []player.Color, p int) string { return fmt.Sprint("won ", w, p) }
func (echoText) ClickToOccupy() string                     { return "occupy" }
func (echoText) ClickToUnoccupy() string                   { return "unoccupy" }

func TestPointFormulas(t *testing.T) {
	assert.Equal(t, 9, scoring.ForClosedForest(3, 1))
	assert.Equal(t, 7, scoring.ForClosedRiver(2, 5))
	assert.Equal(t, 9, scoring.ForMeadow(2, 1, 1))
	assert.Equal(t, 4, scoring.ForRiverSystem(4))
	assert.Equal(t, 4, scoring.ForLogboat(2))
	assert.Equal(t, 3, scoring.ForRaft(3))

	assert.Panics(t, func() { scoring.ForClosedForest(1, 0) })
	assert.Panics(t, func() { scoring.ForClosedRiver(2, -1) })
	assert.Panics(t, func() { scoring.ForMeadow(0, -1, 0) })
	assert.Panics(t, func() { scoring.ForLogboat(0) })
	assert.Panics(t, func() { scoring.ForRaft(0) })
}

func forestArea(occupants []player.Color, open int) *area.Area[tile.Forest] {
	return area.New([]tile.Forest{
		gametest.Forest(10, tile.ForestWithMushrooms),
		gametest.Forest(20, tile.ForestWithMenhir),
		gametest.Forest(561, tile.PlainForest),
	}, occupants, open)
}

func TestScoredForest(t *testing.T) {
	b := scoring.NewMessageBoard(echoText{})

	assert.Equal(t, 0, b.WithScoredForest(forestArea(nil, 0)).Len())
	assert.Equal(t, 0, b.WithScoredForest(forestArea([]player.Color{player.Red}, 1)).Len())

	scored := b.WithScoredForest(forestArea([]player.Color{player.Blue, player.Red, player.Blue}, 0))
	require.Equal(t, 1, scored.Len())
	m := scored.Messages()[0]
	assert.Equal(t, scoring.ScoredForest, m.Kind)
	assert.Equal(t, 9, m.Points)
	assert.Equal(t, []player.Color{player.Blue}, m.Scorers)
	assert.Equal(t, []int{1, 2, 56}, m.TileIDs)
	assert.Equal(t, "forest [BLUE] 9 1 3", m.Text)
	assert.Equal(t, 0, b.Len())
}

func TestMenhirMessageHasNoPoints(t *testing.T) {
	b := scoring.NewMessageBoard(nil).WithClosedForestWithMenhir(player.Green, forestArea(nil, 0))
	require.Equal(t, 1, b.Len())
	assert.Equal(t, 0, b.Messages()[0].Points)
	assert.Equal(t, "", b.Messages()[0].Text)
	assert.Equal(t, map[player.Color]int{player.Green: 0}, b.Points())

	plain := area.New([]tile.Forest{gametest.Forest(10, tile.PlainForest)}, nil, 0)
	assert.Equal(t, 0, scoring.NewMessageBoard(nil).WithClosedForestWithMenhir(player.Green, plain).Len())
}

func TestScoredMeadowUsesGivenAnimals(t *testing.T) {
	m := gametest.Meadow(80, tile.NoPower, tile.Mammoth, tile.Deer, tile.Tiger)
	meadow := area.New([]tile.Meadow{m}, []player.Color{player.Yellow}, 2)
	b := scoring.NewMessageBoard(echoText{})

	scored := b.WithScoredMeadow(meadow, m.Animals[:2])
	require.Equal(t, 1, scored.Len())
	assert.Equal(t, 4, scored.Messages()[0].Points)
	assert.Equal(t, map[tile.AnimalKind]int{tile.Mammoth: 1, tile.Deer: 1}, scored.Messages()[0].Animals)

	assert.Equal(t, 0, b.WithScoredMeadow(meadow, m.Animals[2:]).Len())
	unoccupied := area.New([]tile.Meadow{m}, nil, 2)
	assert.Equal(t, 0, b.WithScoredMeadow(unoccupied, m.Animals).Len())
	assert.Equal(t, 0, b.WithScoredPitTrap(unoccupied, m.Animals).Len())
	assert.Equal(t, 1, b.WithScoredPitTrap(meadow, m.Animals).Len())
}

func TestHuntingTrapIgnoresOccupancy(t *testing.T) {
	m := gametest.Meadow(80, tile.HuntingTrap, tile.Deer, tile.Aurochs)
	adjacent := area.New([]tile.Meadow{m}, nil, 0)
	b := scoring.NewMessageBoard(echoText{}).WithScoredHuntingTrap(player.Purple, adjacent, m.Animals)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, 3, b.Messages()[0].Points)
	assert.Equal(t, []player.Color{player.Purple}, b.Messages()[0].Scorers)
	assert.Equal(t, 0, scoring.NewMessageBoard(nil).WithScoredHuntingTrap(player.Purple, adjacent, nil).Len())
}

func TestWaterMessages(t *testing.T) {
	lake := gametest.Lake(38, 2, tile.Raft)
	zones := []tile.Water{gametest.River(30, 1, lake), *lake, gametest.River(40, 0, nil)}
	occupied := area.New(zones, []player.Color{player.Red, player.Blue}, 1)
	empty := area.New(zones, nil, 1)
	b := scoring.NewMessageBoard(echoText{})

	assert.Equal(t, 0, b.WithScoredRiverSystem(empty).Len())
	assert.Equal(t, 0, b.WithScoredRaft(empty).Len())

	logboat := b.WithScoredLogboat(player.Green, empty)
	require.Equal(t, 1, logboat.Len())
	assert.Equal(t, 2, logboat.Messages()[0].Points)

	b = b.WithScoredRiverSystem(occupied).WithScoredRaft(occupied)
	require.Equal(t, 2, b.Len())
	assert.Equal(t, 3, b.Messages()[0].Points)
	assert.Equal(t, 1, b.Messages()[1].Points)
	assert.Equal(t, map[player.Color]int{player.Red: 4, player.Blue: 4}, b.Points())

	rivers := area.New([]tile.River{gametest.River(30, 1, lake), gametest.River(40, 0, nil)}, []player.Color{player.Red}, 0)
	scored := scoring.NewMessageBoard(nil).WithScoredRiver(rivers)
	require.Equal(t, 1, scored.Len())
	assert.Equal(t, 5, scored.Messages()[0].Points)
}

func TestWinnersNotCounted(t *testing.T) {
	b := scoring.NewMessageBoard(echoText{}).
		WithScoredForest(forestArea([]player.Color{player.Red}, 0)).
		WithWinners([]player.Color{player.Red}, 9)
	require.Equal(t, 2, b.Len())
	won := b.Messages()[1]
	assert.Equal(t, scoring.Winners, won.Kind)
	assert.Equal(t, 9, won.Points)
	assert.Equal(t, "won [RED] 9", won.Text)
	assert.Equal(t, map[player.Color]int{player.Red: 9}, b.Points())
}

func TestPointsNeverDecrease(t *testing.T) {
	m := gametest.Meadow(80, tile.NoPower, tile.Mammoth)
	meadow := area.New([]tile.Meadow{m}, []player.Color{player.Red, player.Blue}, 0)
	b := scoring.NewMessageBoard(nil)
	prev := b.Points()
	for i := 0; i < 5; i++ {
		b = b.WithScoredMeadow(meadow, m.Animals)
		cur := b.Points()
		for _, c := range []player.Color{player.Red, player.Blue} {
			assert.GreaterOrEqual(t, cur[c], prev[c])
		}
		for _, msg := range b.Messages() {
			assert.GreaterOrEqual(t, msg.Points, 0)
		}
		prev = cur
	}
	assert.Equal(t, 15, prev[player.Red])
}
