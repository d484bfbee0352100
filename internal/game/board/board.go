// Package board holds the grid of placed tiles and the areas they form.
package board

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chacun/chacun-server-go/internal/game/area"
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

const (
	// Reach is the largest absolute coordinate a tile may have.
	Reach = 12
	// Length is the number of cells per row and column.
	Length = 2*Reach + 1
	// Size is the number of cells.
	Size = Length * Length
)

var (
	// ErrCannotAddTile is returned when a tile does not fit where it is placed.
	ErrCannotAddTile = errors.New("tile cannot be added")
	// ErrNoSuchTile is returned when no placed tile has the requested id.
	ErrNoSuchTile = errors.New("no such tile on board")
	// ErrOccupant is returned when an occupant cannot be set or cleared.
	ErrOccupant = errors.New("invalid occupant change")
)

// Board is an immutable snapshot of the grid. Every change returns a new
// Board sharing unchanged parts with its parent.
type Board struct {
	tiles      []*tile.PlacedTile
	order      []int
	partitions area.Partitions
	cancelled  map[int]tile.Animal
}

// Empty returns a board with no tile.
func Empty() *Board {
	return &Board{
		tiles:     make([]*tile.PlacedTile, Size),
		cancelled: map[int]tile.Animal{},
	}
}

// InBounds reports whether pos lies on the grid.
func InBounds(pos geom.Pos) bool {
	return abs(pos.X) <= Reach && abs(pos.Y) <= Reach
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func index(pos geom.Pos) int {
	return (pos.Y+Reach)*Length + (pos.X + Reach)
}

func (b *Board) clone() *Board {
	cp := *b
	return &cp
}

// TileAt returns the tile at pos, or nil.
func (b *Board) TileAt(pos geom.Pos) *tile.PlacedTile {
	if !InBounds(pos) {
		return nil
	}
	return b.tiles[index(pos)]
}

// TileWithID returns the placed tile with the given id.
func (b *Board) TileWithID(id int) (*tile.PlacedTile, error) {
	for _, i := range b.order {
		if b.tiles[i].ID() == id {
			return b.tiles[i], nil
		}
	}
	return nil, fmt.Errorf("tile %d: %w", id, ErrNoSuchTile)
}

// LastPlacedTile returns the most recently placed tile, or nil.
func (b *Board) LastPlacedTile() *tile.PlacedTile {
	if len(b.order) == 0 {
		return nil
	}
	return b.tiles[b.order[len(b.order)-1]]
}

// PlacedTiles returns the tiles in placement order.
func (b *Board) PlacedTiles() []*tile.PlacedTile {
	out := make([]*tile.PlacedTile, len(b.order))
	for i, idx := range b.order {
		out[i] = b.tiles[idx]
	}
	return out
}

// TileCount returns the number of placed tiles.
func (b *Board) TileCount() int { return len(b.order) }

// Partitions returns the current areas.
func (b *Board) Partitions() area.Partitions { return b.partitions }

// CancelledAnimals returns the cancelled animals sorted by id.
func (b *Board) CancelledAnimals() []tile.Animal {
	out := make([]tile.Animal, 0, len(b.cancelled))
	for _, a := range b.cancelled {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsCancelled reports whether the animal has been cancelled.
func (b *Board) IsCancelled(a tile.Animal) bool {
	_, ok := b.cancelled[a.ID]
	return ok
}

// UncancelledAnimals returns the animals of a meadow area still in play.
func (b *Board) UncancelledAnimals(a *area.Area[tile.Meadow]) []tile.Animal {
	return area.Animals(a, b.cancelled)
}

// Occupants returns every occupant on the board sorted by zone id.
func (b *Board) Occupants() []tile.Occupant {
	var out []tile.Occupant
	for _, i := range b.order {
		if o := b.tiles[i].Occupant; o != nil {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out
}

// OccupantCount returns how many occupants of the kind the player has on the board.
func (b *Board) OccupantCount(c player.Color, kind tile.OccupantKind) int {
	n := 0
	for _, i := range b.order {
		t := b.tiles[i]
		if t.Placer == c && t.Occupant != nil && t.Occupant.Kind == kind {
			n++
		}
	}
	return n
}

// ForestArea returns the area holding the forest zone.
func (b *Board) ForestArea(f tile.Forest) (*area.Area[tile.Forest], error) {
	return b.partitions.Forests.AreaContaining(f.ID())
}

// MeadowArea returns the area holding the meadow zone.
func (b *Board) MeadowArea(m tile.Meadow) (*area.Area[tile.Meadow], error) {
	return b.partitions.Meadows.AreaContaining(m.ID())
}

// RiverArea returns the area holding the river zone.
func (b *Board) RiverArea(r tile.River) (*area.Area[tile.River], error) {
	return b.partitions.Rivers.AreaContaining(r.ID())
}

// WaterArea returns the river system holding the river or lake.
func (b *Board) WaterArea(w tile.Water) (*area.Area[tile.Water], error) {
	return b.partitions.Waters.AreaContaining(w.ID())
}

// MeadowAreas returns every meadow area ordered by smallest zone id.
func (b *Board) MeadowAreas() []*area.Area[tile.Meadow] { return b.partitions.Meadows.Areas() }

// WaterAreas returns every river system ordered by smallest zone id.
func (b *Board) WaterAreas() []*area.Area[tile.Water] { return b.partitions.Waters.Areas() }

// AdjacentMeadow returns the part of the meadow's area lying on the 3x3
// block of tiles centred on pos. It keeps the area's occupants and has no
// open connection.
func (b *Board) AdjacentMeadow(pos geom.Pos, m tile.Meadow) (*area.Area[tile.Meadow], error) {
	full, err := b.MeadowArea(m)
	if err != nil {
		return nil, err
	}
	var zones []tile.Meadow
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			t := b.TileAt(pos.Translated(dx, dy))
			if t == nil {
				continue
			}
			for _, z := range t.MeadowZones() {
				if full.ContainsZone(z.ID()) {
					zones = append(zones, z)
				}
			}
		}
	}
	return area.New(zones, full.Occupants(), 0), nil
}

// InsertionPositions returns the empty cells next to a placed tile, sorted
// by x then y.
func (b *Board) InsertionPositions() []geom.Pos {
	seen := make(map[geom.Pos]bool)
	var out []geom.Pos
	for _, i := range b.order {
		for _, d := range geom.Directions {
			n := b.tiles[i].Pos.Neighbor(d)
			if InBounds(n) && b.TileAt(n) == nil && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (b *Board) isInsertionPosition(pos geom.Pos) bool {
	if !InBounds(pos) || b.TileAt(pos) != nil {
		return false
	}
	for _, d := range geom.Directions {
		if b.TileAt(pos.Neighbor(d)) != nil {
			return true
		}
	}
	return false
}

// CanAddTile reports whether the tile may be placed: its cell must be an
// insertion position, or the board empty, and each neighbor must face it
// with a side of the same kind.
func (b *Board) CanAddTile(t *tile.PlacedTile) bool {
	if len(b.order) == 0 {
		return InBounds(t.Pos)
	}
	if !b.isInsertionPosition(t.Pos) {
		return false
	}
	for _, d := range geom.Directions {
		n := b.TileAt(t.Pos.Neighbor(d))
		if n != nil && !tile.SameKind(t.Side(d), n.Side(d.Opposite())) {
			return false
		}
	}
	return true
}

// CouldPlaceTile reports whether the tile fits somewhere in some rotation.
func (b *Board) CouldPlaceTile(t *tile.Tile) bool {
	for _, pos := range b.InsertionPositions() {
		for _, rot := range geom.Rotations {
			if b.CanAddTile(tile.NewPlacedTile(t, player.NoColor, rot, pos)) {
				return true
			}
		}
	}
	return false
}

// WithNewTile returns a board with the tile placed and its sides connected
// to its neighbors.
func (b *Board) WithNewTile(t *tile.PlacedTile) (*Board, error) {
	if t.Occupant != nil {
		return nil, fmt.Errorf("tile %d carries an occupant: %w", t.ID(), ErrCannotAddTile)
	}
	if !b.CanAddTile(t) {
		return nil, fmt.Errorf("tile %d at %s rotated %s: %w", t.ID(), t.Pos, t.Rotation, ErrCannotAddTile)
	}
	if _, err := b.TileWithID(t.ID()); err == nil {
		return nil, fmt.Errorf("tile %d already placed: %w", t.ID(), ErrCannotAddTile)
	}

	pb := area.NewPartitionsBuilder(b.partitions)
	if err := pb.AddTile(t.Tile); err != nil {
		return nil, err
	}
	for _, d := range geom.Directions {
		n := b.TileAt(t.Pos.Neighbor(d))
		if n == nil {
			continue
		}
		if err := pb.ConnectSides(t.Side(d), n.Side(d.Opposite())); err != nil {
			return nil, fmt.Errorf("connect tile %d to %d: %w", t.ID(), n.ID(), err)
		}
	}

	nb := b.clone()
	nb.tiles = append([]*tile.PlacedTile(nil), b.tiles...)
	nb.tiles[index(t.Pos)] = t
	nb.order = append(append([]int(nil), b.order...), index(t.Pos))
	nb.partitions = pb.Build()
	return nb, nil
}

func (b *Board) occupiedTile(o tile.Occupant) (*tile.PlacedTile, tile.Zone, error) {
	t, err := b.TileWithID(tile.TileIDOf(o.ZoneID))
	if err != nil {
		return nil, nil, err
	}
	z, err := t.ZoneWithID(o.ZoneID)
	if err != nil {
		return nil, nil, err
	}
	return t, z, nil
}

func (b *Board) withTile(t *tile.PlacedTile, p area.Partitions) *Board {
	nb := b.clone()
	nb.tiles = append([]*tile.PlacedTile(nil), b.tiles...)
	nb.tiles[index(t.Pos)] = t
	nb.partitions = p
	return nb
}

// WithOccupant returns a board with the occupant set on its tile and added
// to the matching area. The occupant belongs to the tile's placer.
func (b *Board) WithOccupant(o tile.Occupant) (*Board, error) {
	t, z, err := b.occupiedTile(o)
	if err != nil {
		return nil, err
	}
	if t.Placer == player.NoColor {
		return nil, fmt.Errorf("tile %d has no placer: %w", t.ID(), ErrOccupant)
	}
	occupied, err := t.WithOccupant(o)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOccupant, err)
	}
	pb := area.NewPartitionsBuilder(b.partitions)
	if err := pb.AddInitialOccupant(t.Placer, o.Kind, z); err != nil {
		return nil, err
	}
	return b.withTile(occupied, pb.Build()), nil
}

// WithoutOccupant returns a board with the pawn removed from its tile and area.
func (b *Board) WithoutOccupant(o tile.Occupant) (*Board, error) {
	t, z, err := b.occupiedTile(o)
	if err != nil {
		return nil, err
	}
	if t.Occupant == nil || *t.Occupant != o {
		return nil, fmt.Errorf("%s not on tile %d: %w", o, t.ID(), ErrOccupant)
	}
	pb := area.NewPartitionsBuilder(b.partitions)
	if err := pb.RemovePawn(t.Placer, z); err != nil {
		return nil, err
	}
	return b.withTile(t.WithNoOccupant(), pb.Build()), nil
}

// WithoutGatherersOrFishersIn removes every pawn from the given forest and
// river areas. Huts stay.
func (b *Board) WithoutGatherersOrFishersIn(forests []*area.Area[tile.Forest], rivers []*area.Area[tile.River]) (*Board, error) {
	pb := area.NewPartitionsBuilder(b.partitions)
	cleared := make(map[int]bool)
	for _, f := range forests {
		if err := pb.ClearGatherers(f); err != nil {
			return nil, err
		}
		for _, z := range f.Zones() {
			cleared[z.ID()] = true
		}
	}
	for _, r := range rivers {
		if err := pb.ClearFishers(r); err != nil {
			return nil, err
		}
		for _, z := range r.Zones() {
			cleared[z.ID()] = true
		}
	}

	nb := b.clone()
	nb.tiles = append([]*tile.PlacedTile(nil), b.tiles...)
	for _, i := range b.order {
		t := b.tiles[i]
		if o := t.Occupant; o != nil && o.Kind == tile.Pawn && cleared[o.ZoneID] {
			nb.tiles[i] = t.WithNoOccupant()
		}
	}
	nb.partitions = pb.Build()
	return nb, nil
}

// WithMoreCancelledAnimals returns a board whose cancelled animals also
// include the given ones.
func (b *Board) WithMoreCancelledAnimals(animals []tile.Animal) *Board {
	nb := b.clone()
	nb.cancelled = make(map[int]tile.Animal, len(b.cancelled)+len(animals))
	for id, a := range b.cancelled {
		nb.cancelled[id] = a
	}
	for _, a := range animals {
		nb.cancelled[a.ID] = a
	}
	return nb
}

// ForestsClosedByLastTile returns the closed areas holding a forest of the last placed tile.
func (b *Board) ForestsClosedByLastTile() []*area.Area[tile.Forest] {
	last := b.LastPlacedTile()
	if last == nil {
		return nil
	}
	var out []*area.Area[tile.Forest]
	for _, f := range last.ForestZones() {
		if a, err := b.ForestArea(f); err == nil && a.IsClosed() && !containsArea(out, a) {
			out = append(out, a)
		}
	}
	return out
}

// RiversClosedByLastTile returns the closed areas holding a river of the last placed tile.
func (b *Board) RiversClosedByLastTile() []*area.Area[tile.River] {
	last := b.LastPlacedTile()
	if last == nil {
		return nil
	}
	var out []*area.Area[tile.River]
	for _, r := range last.RiverZones() {
		if a, err := b.RiverArea(r); err == nil && a.IsClosed() && !containsArea(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func containsArea[Z tile.Zone](areas []*area.Area[Z], a *area.Area[Z]) bool {
	for _, x := range areas {
		if x == a {
			return true
		}
	}
	return false
}
