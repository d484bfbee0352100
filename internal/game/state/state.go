// Package state implements the turn sequence of a game as a chain of
// immutable snapshots.
package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chacun/chacun-server-go/internal/game/area"
	"github.com/chacun/chacun-server-go/internal/game/board"
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/scoring"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

var (
	// ErrWrongAction is returned when a transition does not match the expected action.
	ErrWrongAction = errors.New("unexpected action")
	// ErrWrongTile is returned when the placed tile is not the tile to place
	// or is not placed by the current player.
	ErrWrongTile = errors.New("wrong tile or placer")
	// ErrIllegalOccupant is returned when an occupant may not be placed or removed.
	ErrIllegalOccupant = errors.New("illegal occupant")
	// ErrInvalidPlayers is returned for fewer than two players or repeated colors.
	ErrInvalidPlayers = errors.New("invalid players")
)

// GameState is one snapshot of a game. Transitions return a new snapshot
// and never modify the receiver, so snapshots may be shared freely.
type GameState struct {
	players     []player.Color
	decks       tile.Decks
	tileToPlace *tile.Tile
	board       *board.Board
	next        Action
	messages    scoring.MessageBoard
}

// Initial returns the state before the start tile is placed.
func Initial(players []player.Color, decks tile.Decks, tm scoring.TextMaker) (*GameState, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("%d players: %w", len(players), ErrInvalidPlayers)
	}
	seen := make(map[player.Color]bool)
	for _, c := range players {
		if !c.Valid() || seen[c] {
			return nil, fmt.Errorf("color %s: %w", c, ErrInvalidPlayers)
		}
		seen[c] = true
	}
	return &GameState{
		players:  append([]player.Color(nil), players...),
		decks:    decks,
		board:    board.Empty(),
		next:     StartGame,
		messages: scoring.NewMessageBoard(tm),
	}, nil
}

func (s *GameState) clone() *GameState {
	cp := *s
	return &cp
}

// Players returns the players, current player first.
func (s *GameState) Players() []player.Color { return append([]player.Color(nil), s.players...) }

// Decks returns the remaining tiles.
func (s *GameState) Decks() tile.Decks { return s.decks }

// TileToPlace returns the tile the current player must place, or nil
// unless the next action is PlaceTile.
func (s *GameState) TileToPlace() *tile.Tile { return s.tileToPlace }

// Board returns the board.
func (s *GameState) Board() *board.Board { return s.board }

// NextAction returns the expected action.
func (s *GameState) NextAction() Action { return s.next }

// Messages returns the scoring ledger.
func (s *GameState) Messages() scoring.MessageBoard { return s.messages }

// CurrentPlayer returns the player to act, or NoColor before the start
// tile is placed and once the game is over.
func (s *GameState) CurrentPlayer() player.Color {
	if s.next == StartGame || s.next == EndGame {
		return player.NoColor
	}
	return s.players[0]
}

// FreeOccupantsCount returns how many occupants of the kind the player
// still holds in reserve.
func (s *GameState) FreeOccupantsCount(c player.Color, kind tile.OccupantKind) int {
	return kind.Capacity() - s.board.OccupantCount(c, kind)
}

// LastTilePotentialOccupants returns the occupants the current player may
// put on the last placed tile: those whose area is free and for which the
// player still has a token.
func (s *GameState) LastTilePotentialOccupants() []tile.Occupant {
	last := s.board.LastPlacedTile()
	if last == nil {
		return nil
	}
	current := s.CurrentPlayer()
	var out []tile.Occupant
	for _, o := range last.PotentialOccupants() {
		if s.FreeOccupantsCount(current, o.Kind) == 0 {
			continue
		}
		z, err := last.ZoneWithID(o.ZoneID)
		if err != nil {
			continue
		}
		occupied, err := s.areaOccupied(o.Kind, z)
		if err != nil || occupied {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (s *GameState) areaOccupied(kind tile.OccupantKind, z tile.Zone) (bool, error) {
	if kind == tile.Hut {
		w, ok := z.(tile.Water)
		if !ok {
			return false, fmt.Errorf("hut on zone %d: %w", z.ID(), ErrIllegalOccupant)
		}
		a, err := s.board.WaterArea(w)
		if err != nil {
			return false, err
		}
		return a.IsOccupied(), nil
	}
	switch z := z.(type) {
	case tile.Forest:
		a, err := s.board.ForestArea(z)
		if err != nil {
			return false, err
		}
		return a.IsOccupied(), nil
	case tile.Meadow:
		a, err := s.board.MeadowArea(z)
		if err != nil {
			return false, err
		}
		return a.IsOccupied(), nil
	case tile.River:
		a, err := s.board.RiverArea(z)
		if err != nil {
			return false, err
		}
		return a.IsOccupied(), nil
	}
	return false, fmt.Errorf("pawn on zone %d: %w", z.ID(), ErrIllegalOccupant)
}

func (s *GameState) expect(a Action) error {
	if s.next != a {
		return fmt.Errorf("%s while expecting %s: %w", a, s.next, ErrWrongAction)
	}
	return nil
}

// WithStartingTilePlaced places the start tile at the origin and draws the
// first normal tile.
func (s *GameState) WithStartingTilePlaced() (*GameState, error) {
	if err := s.expect(StartGame); err != nil {
		return nil, err
	}
	start := s.decks.Top(tile.KindStart)
	if start == nil {
		return nil, fmt.Errorf("no start tile: %w", ErrWrongTile)
	}
	b, err := s.board.WithNewTile(tile.NewPlacedTile(start, player.NoColor, geom.None, geom.Origin))
	if err != nil {
		return nil, err
	}
	ns := s.clone()
	ns.board = b
	ns.decks = s.decks.WithTopDrawn(tile.KindStart)
	ns.tileToPlace = ns.decks.Top(tile.KindNormal)
	ns.decks = ns.decks.WithTopDrawn(tile.KindNormal)
	if ns.tileToPlace == nil {
		return ns.withFinalPointsCounted()
	}
	ns.next = PlaceTile
	return ns, nil
}

// WithPlacedTile places the tile to place, resolves its special power and
// moves on to retaking a pawn, occupying or the next turn.
func (s *GameState) WithPlacedTile(t *tile.PlacedTile) (*GameState, error) {
	if err := s.expect(PlaceTile); err != nil {
		return nil, err
	}
	if t.Occupant != nil {
		return nil, fmt.Errorf("tile %d placed with an occupant: %w", t.ID(), ErrWrongTile)
	}
	current := s.CurrentPlayer()
	if t.Tile.ID != s.tileToPlace.ID || t.Placer != current {
		return nil, fmt.Errorf("tile %d by %s: %w", t.ID(), t.Placer, ErrWrongTile)
	}
	b, err := s.board.WithNewTile(t)
	if err != nil {
		return nil, err
	}
	msgs := s.messages

	switch z := t.SpecialPowerZone().(type) {
	case tile.Meadow:
		switch z.Power {
		case tile.Shaman:
			if b.OccupantCount(current, tile.Pawn) > 0 {
				ns := s.clone()
				ns.board, ns.tileToPlace, ns.next = b, nil, RetakePawn
				return ns, nil
			}
		case tile.HuntingTrap:
			adjacent, err := b.AdjacentMeadow(t.Pos, z)
			if err != nil {
				return nil, err
			}
			meadow, err := b.MeadowArea(z)
			if err != nil {
				return nil, err
			}
			animals := b.UncancelledAnimals(adjacent)
			var eaten []tile.Animal
			if _, fire := meadow.ZoneWithSpecialPower(tile.WildFire); !fire {
				eaten = EatenDeer(animals)
			}
			msgs = msgs.WithScoredHuntingTrap(current, adjacent, without(animals, eaten))
			b = b.WithMoreCancelledAnimals(animals)
		}
	case tile.Lake:
		if z.Power == tile.Logboat {
			water, err := b.WaterArea(z)
			if err != nil {
				return nil, err
			}
			msgs = msgs.WithScoredLogboat(current, water)
		}
	}

	ns := s.clone()
	ns.board, ns.tileToPlace, ns.messages = b, nil, msgs
	return ns.occupyOrFinish()
}

func (s *GameState) occupyOrFinish() (*GameState, error) {
	ns := s.clone()
	ns.next = OccupyTile
	if len(ns.LastTilePotentialOccupants()) == 0 {
		return ns.withTurnFinished()
	}
	return ns, nil
}

// WithOccupantRemoved takes back one of the current player's pawns, or
// declines to when o is nil, then moves on to occupying.
func (s *GameState) WithOccupantRemoved(o *tile.Occupant) (*GameState, error) {
	if err := s.expect(RetakePawn); err != nil {
		return nil, err
	}
	if o == nil {
		return s.occupyOrFinish()
	}
	if o.Kind != tile.Pawn {
		return nil, fmt.Errorf("retake %s: %w", o, ErrIllegalOccupant)
	}
	owner, err := s.board.TileWithID(tile.TileIDOf(o.ZoneID))
	if err != nil {
		return nil, err
	}
	if owner.Placer != s.CurrentPlayer() {
		return nil, fmt.Errorf("retake %s owned by %s: %w", o, owner.Placer, ErrIllegalOccupant)
	}
	b, err := s.board.WithoutOccupant(*o)
	if err != nil {
		return nil, err
	}
	ns := s.clone()
	ns.board = b
	return ns.occupyOrFinish()
}

// WithNewOccupant puts an occupant on the last placed tile, or declines to
// when o is nil, and ends the turn.
func (s *GameState) WithNewOccupant(o *tile.Occupant) (*GameState, error) {
	if err := s.expect(OccupyTile); err != nil {
		return nil, err
	}
	if o == nil {
		return s.withTurnFinished()
	}
	if !containsOccupant(s.LastTilePotentialOccupants(), *o) {
		return nil, fmt.Errorf("occupy %s: %w", o, ErrIllegalOccupant)
	}
	b, err := s.board.WithOccupant(*o)
	if err != nil {
		return nil, err
	}
	ns := s.clone()
	ns.board = b
	return ns.withTurnFinished()
}

func containsOccupant(os []tile.Occupant, o tile.Occupant) bool {
	for _, x := range os {
		if x == o {
			return true
		}
	}
	return false
}

func (s *GameState) withTurnFinished() (*GameState, error) {
	forests := s.board.ForestsClosedByLastTile()
	rivers := s.board.RiversClosedByLastTile()
	b, err := s.board.WithoutGatherersOrFishersIn(forests, rivers)
	if err != nil {
		return nil, err
	}
	msgs := s.messages
	for _, f := range forests {
		msgs = msgs.WithScoredForest(f)
	}
	for _, r := range rivers {
		msgs = msgs.WithScoredRiver(r)
	}

	ns := s.clone()
	ns.board = b

	if s.board.LastPlacedTile().Kind() == tile.KindNormal && ns.decks.Size(tile.KindMenhir) > 0 {
		for _, f := range forests {
			if !area.HasMenhir(f) {
				continue
			}
			decks := ns.decks.WithTopDrawnUntil(tile.KindMenhir, b.CouldPlaceTile)
			ns.decks = decks
			if top := decks.Top(tile.KindMenhir); top != nil {
				ns.messages = msgs.WithClosedForestWithMenhir(s.CurrentPlayer(), f)
				ns.decks = decks.WithTopDrawn(tile.KindMenhir)
				ns.tileToPlace = top
				ns.next = PlaceTile
				return ns, nil
			}
			break
		}
	}

	ns.messages = msgs
	ns.players = append(append([]player.Color(nil), s.players[1:]...), s.players[0])
	ns.decks = ns.decks.WithTopDrawnUntil(tile.KindNormal, b.CouldPlaceTile)
	top := ns.decks.Top(tile.KindNormal)
	if top == nil {
		return ns.withFinalPointsCounted()
	}
	ns.decks = ns.decks.WithTopDrawn(tile.KindNormal)
	ns.tileToPlace = top
	ns.next = PlaceTile
	return ns, nil
}

// EatenDeer returns the deer cancelled by the tigers among animals: as many
// deer as there are tigers, by ascending animal id.
func EatenDeer(animals []tile.Animal) []tile.Animal {
	tigers := 0
	var deer []tile.Animal
	for _, a := range animals {
		switch a.Kind {
		case tile.Tiger:
			tigers++
		case tile.Deer:
			deer = append(deer, a)
		}
	}
	sort.Slice(deer, func(i, j int) bool { return deer[i].ID < deer[j].ID })
	if tigers < len(deer) {
		deer = deer[:tigers]
	}
	return deer
}

func without(animals, removed []tile.Animal) []tile.Animal {
	drop := make(map[int]bool, len(removed))
	for _, a := range removed {
		drop[a.ID] = true
	}
	var out []tile.Animal
	for _, a := range animals {
		if !drop[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func (s *GameState) withFinalPointsCounted() (*GameState, error) {
	b := s.board
	msgs := s.messages

	for _, m := range b.MeadowAreas() {
		_, fire := m.ZoneWithSpecialPower(tile.WildFire)
		if !fire {
			animals := b.UncancelledAnimals(m)
			cancelled := EatenDeer(animals)
			if _, trap := m.ZoneWithSpecialPower(tile.HuntingTrap); trap && hasTiger(animals) {
				cancelled = animals
			}
			b = b.WithMoreCancelledAnimals(cancelled)
		}
		if pit, ok := m.ZoneWithSpecialPower(tile.PitTrap); ok {
			pitTile, err := b.TileWithID(pit.TileID())
			if err != nil {
				return nil, err
			}
			adjacent, err := b.AdjacentMeadow(pitTile.Pos, pit)
			if err != nil {
				return nil, err
			}
			msgs = msgs.WithScoredPitTrap(adjacent, b.UncancelledAnimals(adjacent))
		}
		msgs = msgs.WithScoredMeadow(m, b.UncancelledAnimals(m))
	}

	for _, w := range b.WaterAreas() {
		if _, raft := w.ZoneWithSpecialPower(tile.Raft); raft {
			msgs = msgs.WithScoredRaft(w)
		}
		msgs = msgs.WithScoredRiverSystem(w)
	}

	totals := msgs.Points()
	best := 0
	for _, c := range s.players {
		if totals[c] > best {
			best = totals[c]
		}
	}
	var winners []player.Color
	for _, c := range s.players {
		if totals[c] == best {
			winners = append(winners, c)
		}
	}
	msgs = msgs.WithWinners(winners, best)

	ns := s.clone()
	ns.board, ns.messages = b, msgs
	ns.tileToPlace = nil
	ns.next = EndGame
	return ns, nil
}

func hasTiger(animals []tile.Animal) bool {
	for _, a := range animals {
		if a.Kind == tile.Tiger {
			return true
		}
	}
	return false
}
