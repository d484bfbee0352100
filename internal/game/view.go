package game

import (
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// View is the JSON presentation of a game's current snapshot.
type View struct {
	ID                 string                    `json:"id"`
	Seed               uint64                    `json:"seed"`
	Players            []string                  `json:"players"`
	CurrentPlayer      string                    `json:"current_player,omitempty"`
	NextAction         string                    `json:"next_action"`
	Prompt             string                    `json:"prompt,omitempty"`
	TileToPlace        *int                      `json:"tile_to_place,omitempty"`
	Placements         []PlacementView           `json:"placements,omitempty"`
	PotentialOccupants []OccupantView            `json:"potential_occupants,omitempty"`
	Tiles              []PlacedTileView          `json:"tiles"`
	Occupants          []OccupantView            `json:"occupants"`
	FreeOccupants      map[string]map[string]int `json:"free_occupants"`
	Points             map[string]int            `json:"points"`
	Messages           []MessageView             `json:"messages"`
	DeckSizes          map[string]int            `json:"deck_sizes"`
	ActionCount        int                       `json:"action_count"`
	Checksum           string                    `json:"checksum"`
}

// PlacementView is a legal position and rotation for the tile to place.
type PlacementView struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Rotation string `json:"rotation"`
}

type PlacedTileView struct {
	ID       int           `json:"id"`
	X        int           `json:"x"`
	Y        int           `json:"y"`
	Rotation string        `json:"rotation"`
	Placer   string        `json:"placer,omitempty"`
	Occupant *OccupantView `json:"occupant,omitempty"`
}

type OccupantView struct {
	Kind   string `json:"kind"`
	ZoneID int    `json:"zone_id"`
	Owner  string `json:"owner,omitempty"`
}

type MessageView struct {
	Kind    string   `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Points  int      `json:"points"`
	Scorers []string `json:"scorers,omitempty"`
	TileIDs []int    `json:"tile_ids,omitempty"`
}

// NewView presents s. id, seed and actionCount come from the game record.
func NewView(id string, seed uint64, actionCount int, s *state.GameState) View {
	v := View{
		ID:            id,
		Seed:          seed,
		NextAction:    s.NextAction().String(),
		FreeOccupants: make(map[string]map[string]int),
		Points:        make(map[string]int),
		DeckSizes:     make(map[string]int),
		ActionCount:   actionCount,
	}
	if c := s.CurrentPlayer(); c != player.NoColor {
		v.CurrentPlayer = c.String()
	}

	totals := s.Messages().Points()
	for _, c := range s.Players() {
		v.Players = append(v.Players, c.String())
		v.Points[c.String()] = totals[c]
		v.FreeOccupants[c.String()] = map[string]int{
			tile.Pawn.String(): s.FreeOccupantsCount(c, tile.Pawn),
			tile.Hut.String():  s.FreeOccupantsCount(c, tile.Hut),
		}
	}

	tm := s.Messages().TextMaker()
	switch s.NextAction() {
	case state.PlaceTile:
		t := s.TileToPlace()
		id := t.ID
		v.TileToPlace = &id
		v.Placements = placements(s)
	case state.OccupyTile:
		for _, o := range s.LastTilePotentialOccupants() {
			v.PotentialOccupants = append(v.PotentialOccupants, occupantView(o, s.CurrentPlayer()))
		}
		if tm != nil {
			v.Prompt = tm.ClickToOccupy()
		}
	case state.RetakePawn:
		if tm != nil {
			v.Prompt = tm.ClickToUnoccupy()
		}
	}

	b := s.Board()
	for _, p := range b.PlacedTiles() {
		pv := PlacedTileView{ID: p.ID(), X: p.Pos.X, Y: p.Pos.Y, Rotation: p.Rotation.String()}
		if p.Placer != player.NoColor {
			pv.Placer = p.Placer.String()
		}
		if p.Occupant != nil {
			ov := occupantView(*p.Occupant, p.Placer)
			pv.Occupant = &ov
			v.Occupants = append(v.Occupants, ov)
		}
		v.Tiles = append(v.Tiles, pv)
	}

	for _, m := range s.Messages().Messages() {
		mv := MessageView{Kind: m.Kind.String(), Text: m.Text, Points: m.Points, TileIDs: m.TileIDs}
		for _, c := range m.Scorers {
			mv.Scorers = append(mv.Scorers, c.String())
		}
		v.Messages = append(v.Messages, mv)
	}

	d := s.Decks()
	for _, k := range []tile.Kind{tile.KindNormal, tile.KindMenhir} {
		v.DeckSizes[k.String()] = d.Size(k)
	}

	if sum, err := ComputeChecksum(s); err == nil {
		v.Checksum = sum.Hash
	}
	return v
}

func occupantView(o tile.Occupant, owner player.Color) OccupantView {
	ov := OccupantView{Kind: o.Kind.String(), ZoneID: o.ZoneID}
	if owner != player.NoColor {
		ov.Owner = owner.String()
	}
	return ov
}

// placements lists every legal position and rotation of the tile to place.
func placements(s *state.GameState) []PlacementView {
	t := s.TileToPlace()
	b := s.Board()
	var out []PlacementView
	for _, pos := range b.InsertionPositions() {
		for _, rot := range geom.Rotations {
			if b.CanAddTile(tile.NewPlacedTile(t, s.CurrentPlayer(), rot, pos)) {
				out = append(out, PlacementView{X: pos.X, Y: pos.Y, Rotation: rot.String()})
			}
		}
	}
	return out
}
