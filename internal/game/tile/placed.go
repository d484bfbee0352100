package tile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/player"
)

var (
	// ErrZoneNotOnTile is returned when a zone id does not belong to a placed tile.
	ErrZoneNotOnTile = errors.New("zone not on tile")
	// ErrTileOccupied is returned when a placed tile already carries an occupant.
	ErrTileOccupied = errors.New("tile already occupied")
)

// PlacedTile is a tile laid on the board. The start tile has no placer.
type PlacedTile struct {
	Tile     *Tile
	Placer   player.Color
	Rotation geom.Rotation
	Pos      geom.Pos
	Occupant *Occupant
}

// NewPlacedTile returns an unoccupied placed tile.
func NewPlacedTile(t *Tile, placer player.Color, rot geom.Rotation, pos geom.Pos) *PlacedTile {
	return &PlacedTile{Tile: t, Placer: placer, Rotation: rot, Pos: pos}
}

// ID returns the underlying tile id.
func (p *PlacedTile) ID() int { return p.Tile.ID }

// Kind returns the underlying tile kind.
func (p *PlacedTile) Kind() Kind { return p.Tile.Kind }

// Side returns the side facing d once the tile's rotation is applied.
func (p *PlacedTile) Side(d geom.Direction) Side {
	return p.Tile.Side(d.Rotated(p.Rotation.Negated()))
}

// ZoneWithID returns the tile's zone with the given global id.
func (p *PlacedTile) ZoneWithID(id int) (Zone, error) {
	for _, z := range p.Tile.Zones() {
		if z.ID() == id {
			return z, nil
		}
	}
	return nil, fmt.Errorf("zone %d on tile %d: %w", id, p.Tile.ID, ErrZoneNotOnTile)
}

// SpecialPowerZone returns the zone carrying a special power, or nil.
// A tile carries at most one such zone.
func (p *PlacedTile) SpecialPowerZone() Zone {
	for _, z := range p.Tile.Zones() {
		if z.SpecialPower() != NoPower {
			return z
		}
	}
	return nil
}

// ForestZones returns the tile's forests sorted by id.
func (p *PlacedTile) ForestZones() []Forest {
	var out []Forest
	for _, z := range p.Tile.Zones() {
		if f, ok := z.(Forest); ok {
			out = append(out, f)
		}
	}
	return out
}

// MeadowZones returns the tile's meadows sorted by id.
func (p *PlacedTile) MeadowZones() []Meadow {
	var out []Meadow
	for _, z := range p.Tile.Zones() {
		if m, ok := z.(Meadow); ok {
			out = append(out, m)
		}
	}
	return out
}

// RiverZones returns the tile's rivers sorted by id.
func (p *PlacedTile) RiverZones() []River {
	var out []River
	for _, z := range p.Tile.Zones() {
		if r, ok := z.(River); ok {
			out = append(out, r)
		}
	}
	return out
}

// PotentialOccupants lists every occupant the placer could put on the tile:
// a pawn on each side zone and a hut on each river's lake, or on the river
// itself when it has no lake. The start tile has none.
// The result is sorted by kind then zone id.
func (p *PlacedTile) PotentialOccupants() []Occupant {
	if p.Placer == player.NoColor {
		return nil
	}
	seen := make(map[Occupant]bool)
	var out []Occupant
	add := func(o Occupant) {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	for _, z := range p.Tile.SideZones() {
		add(Occupant{Kind: Pawn, ZoneID: z.ID()})
		if r, ok := z.(River); ok {
			if r.HasLake() {
				add(Occupant{Kind: Hut, ZoneID: r.Lake.ID()})
			} else {
				add(Occupant{Kind: Hut, ZoneID: r.ID()})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ZoneID < out[j].ZoneID
	})
	return out
}

// WithOccupant returns a copy carrying the occupant.
func (p *PlacedTile) WithOccupant(o Occupant) (*PlacedTile, error) {
	if p.Occupant != nil {
		return nil, fmt.Errorf("tile %d: %w", p.Tile.ID, ErrTileOccupied)
	}
	if _, err := p.ZoneWithID(o.ZoneID); err != nil {
		return nil, err
	}
	cp := *p
	cp.Occupant = &o
	return &cp, nil
}

// WithNoOccupant returns a copy without occupant.
func (p *PlacedTile) WithNoOccupant() *PlacedTile {
	cp := *p
	cp.Occupant = nil
	return &cp
}

// IDOfZoneOccupiedBy returns the zone id holding an occupant of the given
// kind, or -1.
func (p *PlacedTile) IDOfZoneOccupiedBy(kind OccupantKind) int {
	if p.Occupant != nil && p.Occupant.Kind == kind {
		return p.Occupant.ZoneID
	}
	return -1
}
