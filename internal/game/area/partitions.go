package area

import (
	"fmt"

	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// Partitions groups one partition per zone kind. Waters holds rivers and
// lakes together and is used for fish counts and huts.
type Partitions struct {
	Forests Partition[tile.Forest]
	Meadows Partition[tile.Meadow]
	Rivers  Partition[tile.River]
	Waters  Partition[tile.Water]
}

// PartitionsBuilder derives new Partitions.
type PartitionsBuilder struct {
	forests *Builder[tile.Forest]
	meadows *Builder[tile.Meadow]
	rivers  *Builder[tile.River]
	waters  *Builder[tile.Water]
}

// NewPartitionsBuilder returns a builder seeded with p.
func NewPartitionsBuilder(p Partitions) *PartitionsBuilder {
	return &PartitionsBuilder{
		forests: NewBuilder(p.Forests),
		meadows: NewBuilder(p.Meadows),
		rivers:  NewBuilder(p.Rivers),
		waters:  NewBuilder(p.Waters),
	}
}

// AddTile adds every zone of the tile as a singleton area. Open connections
// count side occurrences; a river ending in a lake counts its lake end too,
// which the river partition then drops, and is joined to its lake in the
// water partition.
func (b *PartitionsBuilder) AddTile(t *tile.Tile) error {
	var open [10]int
	for _, side := range t.Sides() {
		for _, z := range side.Zones() {
			open[z.LocalID()]++
			if r, ok := z.(tile.River); ok && r.HasLake() {
				open[r.Lake.LocalID()]++
				open[r.LocalID()]++
			}
		}
	}

	for _, z := range t.Zones() {
		n := open[z.LocalID()]
		switch z := z.(type) {
		case tile.Forest:
			b.forests.AddSingleton(z, n)
		case tile.Meadow:
			b.meadows.AddSingleton(z, n)
		case tile.River:
			if z.HasLake() {
				b.rivers.AddSingleton(z, n-1)
			} else {
				b.rivers.AddSingleton(z, n)
			}
			b.waters.AddSingleton(z, n)
		case tile.Lake:
			b.waters.AddSingleton(z, n)
		}
	}

	for _, z := range t.Zones() {
		if r, ok := z.(tile.River); ok && r.HasLake() {
			if err := b.waters.Union(r.ID(), r.Lake.ID()); err != nil {
				return fmt.Errorf("tile %d: %w", t.ID, err)
			}
		}
	}
	return nil
}

// ConnectSides joins two facing sides. River sides face each other
// reversed, so each flank meadow joins the opposite flank of the other side.
func (b *PartitionsBuilder) ConnectSides(s1, s2 tile.Side) error {
	switch a := s1.(type) {
	case tile.ForestSide:
		if o, ok := s2.(tile.ForestSide); ok {
			return b.forests.Union(a.Forest.ID(), o.Forest.ID())
		}
	case tile.MeadowSide:
		if o, ok := s2.(tile.MeadowSide); ok {
			return b.meadows.Union(a.Meadow.ID(), o.Meadow.ID())
		}
	case tile.RiverSide:
		if o, ok := s2.(tile.RiverSide); ok {
			if err := b.rivers.Union(a.River.ID(), o.River.ID()); err != nil {
				return err
			}
			if err := b.waters.Union(a.River.ID(), o.River.ID()); err != nil {
				return err
			}
			if err := b.meadows.Union(a.Meadow1.ID(), o.Meadow2.ID()); err != nil {
				return err
			}
			return b.meadows.Union(a.Meadow2.ID(), o.Meadow1.ID())
		}
	}
	return ErrSideMismatch
}

// AddInitialOccupant places an occupant of the given kind in the zone's area.
// Pawns go on forests, meadows and rivers; huts go on rivers and lakes.
func (b *PartitionsBuilder) AddInitialOccupant(c player.Color, kind tile.OccupantKind, z tile.Zone) error {
	switch kind {
	case tile.Pawn:
		switch z := z.(type) {
		case tile.Forest:
			return b.forests.AddInitialOccupant(z.ID(), c)
		case tile.Meadow:
			return b.meadows.AddInitialOccupant(z.ID(), c)
		case tile.River:
			return b.rivers.AddInitialOccupant(z.ID(), c)
		}
	case tile.Hut:
		if w, ok := z.(tile.Water); ok {
			return b.waters.AddInitialOccupant(w.ID(), c)
		}
	}
	return fmt.Errorf("%s on zone %d: %w", kind, z.ID(), ErrInvalidOccupant)
}

// RemovePawn removes one pawn of the given color from the zone's area.
func (b *PartitionsBuilder) RemovePawn(c player.Color, z tile.Zone) error {
	switch z := z.(type) {
	case tile.Forest:
		return b.forests.RemoveOccupant(z.ID(), c)
	case tile.Meadow:
		return b.meadows.RemoveOccupant(z.ID(), c)
	case tile.River:
		return b.rivers.RemoveOccupant(z.ID(), c)
	}
	return fmt.Errorf("pawn on zone %d: %w", z.ID(), ErrInvalidOccupant)
}

// ClearGatherers removes every pawn from a forest area.
func (b *PartitionsBuilder) ClearGatherers(forest *Area[tile.Forest]) error {
	return b.forests.RemoveAllOccupantsOf(forest)
}

// ClearFishers removes every pawn from a river area.
func (b *PartitionsBuilder) ClearFishers(river *Area[tile.River]) error {
	return b.rivers.RemoveAllOccupantsOf(river)
}

// Build returns the resulting partitions.
func (b *PartitionsBuilder) Build() Partitions {
	return Partitions{
		Forests: b.forests.Build(),
		Meadows: b.meadows.Build(),
		Rivers:  b.rivers.Build(),
		Waters:  b.waters.Build(),
	}
}
