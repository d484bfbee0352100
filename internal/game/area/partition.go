package area

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// ErrNegativeConnections is returned when a union would consume more open
// connections than an area has.
var ErrNegativeConnections = errors.New("union leaves negative open connections")

// Partition is a set of disjoint areas covering every known zone of one kind.
// Partitions are immutable; use a Builder to derive a new one.
type Partition[Z tile.Zone] struct {
	areas  []*Area[Z]
	byZone map[int]*Area[Z]
}

// NewPartition returns a partition of the given areas.
func NewPartition[Z tile.Zone](areas ...*Area[Z]) Partition[Z] {
	byZone := make(map[int]*Area[Z])
	for _, a := range areas {
		for _, z := range a.zones {
			byZone[z.ID()] = a
		}
	}
	return partitionOf(byZone)
}

func partitionOf[Z tile.Zone](byZone map[int]*Area[Z]) Partition[Z] {
	seen := make(map[*Area[Z]]bool)
	areas := make([]*Area[Z], 0, len(byZone))
	for _, a := range byZone {
		if !seen[a] {
			seen[a] = true
			areas = append(areas, a)
		}
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].FirstZoneID() < areas[j].FirstZoneID() })
	return Partition[Z]{areas: areas, byZone: byZone}
}

// Areas returns the areas ordered by their smallest zone id.
func (p Partition[Z]) Areas() []*Area[Z] { return append([]*Area[Z](nil), p.areas...) }

// Len returns the number of areas.
func (p Partition[Z]) Len() int { return len(p.areas) }

// AreaContaining returns the area holding the zone with the given id.
func (p Partition[Z]) AreaContaining(zoneID int) (*Area[Z], error) {
	a, ok := p.byZone[zoneID]
	if !ok {
		return nil, fmt.Errorf("zone %d: %w", zoneID, ErrZoneNotFound)
	}
	return a, nil
}

// Builder derives a new partition from an existing one.
type Builder[Z tile.Zone] struct {
	byZone map[int]*Area[Z]
}

// NewBuilder returns a builder seeded with the areas of p.
func NewBuilder[Z tile.Zone](p Partition[Z]) *Builder[Z] {
	byZone := make(map[int]*Area[Z], len(p.byZone)+10)
	for id, a := range p.byZone {
		byZone[id] = a
	}
	return &Builder[Z]{byZone: byZone}
}

func (b *Builder[Z]) area(zoneID int) (*Area[Z], error) {
	a, ok := b.byZone[zoneID]
	if !ok {
		return nil, fmt.Errorf("zone %d: %w", zoneID, ErrZoneNotFound)
	}
	return a, nil
}

func (b *Builder[Z]) replace(old, updated *Area[Z]) {
	for _, z := range old.zones {
		b.byZone[z.ID()] = updated
	}
}

// AddSingleton adds a new unoccupied area made of the zone alone.
func (b *Builder[Z]) AddSingleton(z Z, openConnections int) {
	b.byZone[z.ID()] = New([]Z{z}, nil, openConnections)
}

// AddInitialOccupant puts the first occupant in the area holding the zone.
func (b *Builder[Z]) AddInitialOccupant(zoneID int, c player.Color) error {
	a, err := b.area(zoneID)
	if err != nil {
		return err
	}
	if a.IsOccupied() {
		return fmt.Errorf("zone %d: %w", zoneID, ErrAlreadyOccupied)
	}
	b.replace(a, a.withOccupants([]player.Color{c}))
	return nil
}

// RemoveOccupant removes one occupant of the given color from the area holding the zone.
func (b *Builder[Z]) RemoveOccupant(zoneID int, c player.Color) error {
	a, err := b.area(zoneID)
	if err != nil {
		return err
	}
	updated, ok := a.withoutOccupant(c)
	if !ok {
		return fmt.Errorf("%s in zone %d: %w", c, zoneID, ErrNotOccupant)
	}
	b.replace(a, updated)
	return nil
}

// RemoveAllOccupantsOf clears the occupants of an area of the partition.
func (b *Builder[Z]) RemoveAllOccupantsOf(a *Area[Z]) error {
	cur, err := b.area(a.FirstZoneID())
	if err != nil {
		return err
	}
	b.replace(cur, cur.withOccupants(nil))
	return nil
}

// Union connects the areas holding the two zones. Connecting an area to
// itself consumes two of its open connections; merging two areas sums
// their open connections minus two.
func (b *Builder[Z]) Union(zoneID1, zoneID2 int) error {
	a1, err := b.area(zoneID1)
	if err != nil {
		return err
	}
	a2, err := b.area(zoneID2)
	if err != nil {
		return err
	}
	total := a1.openConnections
	if a1 != a2 {
		total += a2.openConnections
	}
	if total < 2 {
		return fmt.Errorf("zones %d and %d: %w", zoneID1, zoneID2, ErrNegativeConnections)
	}
	merged := a1.connectedTo(a2)
	b.replace(a1, merged)
	if a1 != a2 {
		b.replace(a2, merged)
	}
	return nil
}

// Build returns the resulting partition. The builder may keep being used.
func (b *Builder[Z]) Build() Partition[Z] {
	byZone := make(map[int]*Area[Z], len(b.byZone))
	for id, a := range b.byZone {
		byZone[id] = a
	}
	return partitionOf(byZone)
}
