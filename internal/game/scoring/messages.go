package scoring

import (
	"fmt"
	"sort"

	"github.com/chacun/chacun-server-go/internal/game/area"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// MessageKind identifies what a message reports.
type MessageKind int

const (
	ScoredForest MessageKind = iota
	ClosedForestWithMenhir
	ScoredRiver
	ScoredHuntingTrap
	ScoredLogboat
	ScoredMeadow
	ScoredRiverSystem
	ScoredPitTrap
	ScoredRaft
	Winners
)

var messageKindNames = map[MessageKind]string{
	ScoredForest:           "SCORED_FOREST",
	ClosedForestWithMenhir: "CLOSED_FOREST_WITH_MENHIR",
	ScoredRiver:            "SCORED_RIVER",
	ScoredHuntingTrap:      "SCORED_HUNTING_TRAP",
	ScoredLogboat:          "SCORED_LOGBOAT",
	ScoredMeadow:           "SCORED_MEADOW",
	ScoredRiverSystem:      "SCORED_RIVER_SYSTEM",
	ScoredPitTrap:          "SCORED_PIT_TRAP",
	ScoredRaft:             "SCORED_RAFT",
	Winners:                "WINNERS",
}

func (k MessageKind) String() string {
	if name, ok := messageKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MESSAGE_%d", int(k))
}

// TextMaker turns scoring events into player-facing text. The rules never
// read the text it produces.
type TextMaker interface {
	PlayerName(c player.Color) string
	Points(points int) string
	PlayerClosedForestWithMenhir(c player.Color) string
	PlayersScoredForest(scorers []player.Color, points, mushroomGroupCount, tileCount int) string
	PlayersScoredRiver(scorers []player.Color, points, fishCount, tileCount int) string
	PlayerScoredHuntingTrap(scorer player.Color, points int, animals map[tile.AnimalKind]int) string
	PlayerScoredLogboat(scorer player.Color, points, lakeCount int) string
	PlayersScoredMeadow(scorers []player.Color, points int, animals map[tile.AnimalKind]int) string
	PlayersScoredRiverSystem(scorers []player.Color, points, fishCount int) string
	PlayersScoredPitTrap(scorers []player.Color, points int, animals map[tile.AnimalKind]int) string
	PlayersScoredRaft(scorers []player.Color, points, lakeCount int) string
	PlayersWon(winners []player.Color, points int) string
	ClickToOccupy() string
	ClickToUnoccupy() string
}

// Message is one ledger entry. Points is never negative.
type Message struct {
	Kind           MessageKind
	Text           string
	Points         int
	Scorers        []player.Color
	TileIDs        []int
	Animals        map[tile.AnimalKind]int
	FishCount      int
	LakeCount      int
	MushroomGroups int
	TileCount      int
}

// MessageBoard is the append-only scoring ledger. Its methods return a new
// board and leave the receiver unchanged.
type MessageBoard struct {
	text     TextMaker
	messages []Message
}

// NewMessageBoard returns an empty ledger writing text with tm.
func NewMessageBoard(tm TextMaker) MessageBoard {
	return MessageBoard{text: tm}
}

// TextMaker returns the text maker used by the board.
func (b MessageBoard) TextMaker() TextMaker { return b.text }

// Messages returns the messages in order.
func (b MessageBoard) Messages() []Message { return append([]Message(nil), b.messages...) }

// Len returns the number of messages.
func (b MessageBoard) Len() int { return len(b.messages) }

// Points returns each scorer's total. Winner announcements are not counted.
func (b MessageBoard) Points() map[player.Color]int {
	totals := make(map[player.Color]int)
	for _, m := range b.messages {
		if m.Kind == Winners {
			continue
		}
		for _, c := range m.Scorers {
			totals[c] += m.Points
		}
	}
	return totals
}

func (b MessageBoard) with(m Message) MessageBoard {
	if m.Points < 0 {
		panic("scoring: negative points")
	}
	sort.Slice(m.Scorers, func(i, j int) bool { return m.Scorers[i] < m.Scorers[j] })
	return MessageBoard{text: b.text, messages: append(b.messages[:len(b.messages):len(b.messages)], m)}
}

func (b MessageBoard) say(f func(TextMaker) string) string {
	if b.text == nil {
		return ""
	}
	return f(b.text)
}

// CountAnimals groups animals by kind.
func CountAnimals(animals []tile.Animal) map[tile.AnimalKind]int {
	counts := make(map[tile.AnimalKind]int)
	for _, a := range animals {
		counts[a.Kind]++
	}
	return counts
}

func meadowPoints(counts map[tile.AnimalKind]int) int {
	return ForMeadow(counts[tile.Mammoth], counts[tile.Aurochs], counts[tile.Deer])
}

// WithScoredForest records the points of a closed, occupied forest.
func (b MessageBoard) WithScoredForest(forest *area.Area[tile.Forest]) MessageBoard {
	tileCount := forest.TileCount()
	if !forest.IsClosed() || !forest.IsOccupied() || tileCount < 2 {
		return b
	}
	mushrooms := area.MushroomGroupCount(forest)
	points := ForClosedForest(tileCount, mushrooms)
	scorers := forest.MajorityOccupants()
	return b.with(Message{
		Kind:           ScoredForest,
		Text:           b.say(func(t TextMaker) string { return t.PlayersScoredForest(scorers, points, mushrooms, tileCount) }),
		Points:         points,
		Scorers:        scorers,
		TileIDs:        forest.TileIDs(),
		MushroomGroups: mushrooms,
		TileCount:      tileCount,
	})
}

// WithClosedForestWithMenhir records that c closed a forest with a menhir
// and earns another turn. Forests without menhir leave the board unchanged.
func (b MessageBoard) WithClosedForestWithMenhir(c player.Color, forest *area.Area[tile.Forest]) MessageBoard {
	if !area.HasMenhir(forest) {
		return b
	}
	return b.with(Message{
		Kind:    ClosedForestWithMenhir,
		Text:    b.say(func(t TextMaker) string { return t.PlayerClosedForestWithMenhir(c) }),
		Scorers: []player.Color{c},
		TileIDs: forest.TileIDs(),
	})
}

// WithScoredRiver records the points of a closed, occupied river.
func (b MessageBoard) WithScoredRiver(river *area.Area[tile.River]) MessageBoard {
	tileCount := river.TileCount()
	if !river.IsClosed() || !river.IsOccupied() || tileCount < 2 {
		return b
	}
	fish := area.RiverFishCount(river)
	points := ForClosedRiver(tileCount, fish)
	scorers := river.MajorityOccupants()
	return b.with(Message{
		Kind:      ScoredRiver,
		Text:      b.say(func(t TextMaker) string { return t.PlayersScoredRiver(scorers, points, fish, tileCount) }),
		Points:    points,
		Scorers:   scorers,
		TileIDs:   river.TileIDs(),
		FishCount: fish,
		TileCount: tileCount,
	})
}

// WithScoredHuntingTrap records the points the trap's placer earns for the
// given animals of the adjacent meadow.
func (b MessageBoard) WithScoredHuntingTrap(scorer player.Color, adjacent *area.Area[tile.Meadow], animals []tile.Animal) MessageBoard {
	counts := CountAnimals(animals)
	points := meadowPoints(counts)
	if points == 0 {
		return b
	}
	return b.with(Message{
		Kind:    ScoredHuntingTrap,
		Text:    b.say(func(t TextMaker) string { return t.PlayerScoredHuntingTrap(scorer, points, counts) }),
		Points:  points,
		Scorers: []player.Color{scorer},
		TileIDs: adjacent.TileIDs(),
		Animals: counts,
	})
}

// WithScoredLogboat records the logboat bonus of the placer for the lakes
// of the river system.
func (b MessageBoard) WithScoredLogboat(scorer player.Color, water *area.Area[tile.Water]) MessageBoard {
	lakes := area.LakeCount(water)
	if lakes == 0 {
		return b
	}
	points := ForLogboat(lakes)
	return b.with(Message{
		Kind:      ScoredLogboat,
		Text:      b.say(func(t TextMaker) string { return t.PlayerScoredLogboat(scorer, points, lakes) }),
		Points:    points,
		Scorers:   []player.Color{scorer},
		TileIDs:   water.TileIDs(),
		LakeCount: lakes,
	})
}

// WithScoredMeadow records the points of an occupied meadow for the given
// uncancelled animals.
func (b MessageBoard) WithScoredMeadow(meadow *area.Area[tile.Meadow], animals []tile.Animal) MessageBoard {
	if !meadow.IsOccupied() {
		return b
	}
	counts := CountAnimals(animals)
	points := meadowPoints(counts)
	if points == 0 {
		return b
	}
	scorers := meadow.MajorityOccupants()
	return b.with(Message{
		Kind:    ScoredMeadow,
		Text:    b.say(func(t TextMaker) string { return t.PlayersScoredMeadow(scorers, points, counts) }),
		Points:  points,
		Scorers: scorers,
		TileIDs: meadow.TileIDs(),
		Animals: counts,
	})
}

// WithScoredRiverSystem records the fish points of an occupied river system.
func (b MessageBoard) WithScoredRiverSystem(water *area.Area[tile.Water]) MessageBoard {
	fish := area.WaterFishCount(water)
	if fish == 0 || !water.IsOccupied() {
		return b
	}
	points := ForRiverSystem(fish)
	scorers := water.MajorityOccupants()
	return b.with(Message{
		Kind:      ScoredRiverSystem,
		Text:      b.say(func(t TextMaker) string { return t.PlayersScoredRiverSystem(scorers, points, fish) }),
		Points:    points,
		Scorers:   scorers,
		TileIDs:   water.TileIDs(),
		FishCount: fish,
	})
}

// WithScoredPitTrap records the points of a pit trap for the given animals
// of its adjacent meadow, credited to the meadow's majority occupants.
func (b MessageBoard) WithScoredPitTrap(adjacent *area.Area[tile.Meadow], animals []tile.Animal) MessageBoard {
	if !adjacent.IsOccupied() {
		return b
	}
	counts := CountAnimals(animals)
	points := meadowPoints(counts)
	if points == 0 {
		return b
	}
	scorers := adjacent.MajorityOccupants()
	return b.with(Message{
		Kind:    ScoredPitTrap,
		Text:    b.say(func(t TextMaker) string { return t.PlayersScoredPitTrap(scorers, points, counts) }),
		Points:  points,
		Scorers: scorers,
		TileIDs: adjacent.TileIDs(),
		Animals: counts,
	})
}

// WithScoredRaft records the raft bonus of an occupied river system.
func (b MessageBoard) WithScoredRaft(water *area.Area[tile.Water]) MessageBoard {
	lakes := area.LakeCount(water)
	if !water.IsOccupied() || lakes == 0 {
		return b
	}
	points := ForRaft(lakes)
	scorers := water.MajorityOccupants()
	return b.with(Message{
		Kind:      ScoredRaft,
		Text:      b.say(func(t TextMaker) string { return t.PlayersScoredRaft(scorers, points, lakes) }),
		Points:    points,
		Scorers:   scorers,
		TileIDs:   water.TileIDs(),
		LakeCount: lakes,
	})
}

// WithWinners announces the winners and their total. The announcement is
// not counted by Points.
func (b MessageBoard) WithWinners(winners []player.Color, points int) MessageBoard {
	w := append([]player.Color(nil), winners...)
	return b.with(Message{
		Kind:    Winners,
		Text:    b.say(func(t TextMaker) string { return t.PlayersWon(w, points) }),
		Points:  points,
		Scorers: w,
		TileIDs: []int{},
	})
}
