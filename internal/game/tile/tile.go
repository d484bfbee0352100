package tile

import (
	"fmt"
	"sort"

	"github.com/chacun/chacun-server-go/internal/game/geom"
)

// Kind distinguishes start, normal and menhir tiles.
type Kind int

const (
	KindStart Kind = iota
	KindNormal
	KindMenhir
)

var kindNames = map[Kind]string{
	KindStart:  "START",
	KindNormal: "NORMAL",
	KindMenhir: "MENHIR",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// ParseKind parses a tile kind name as produced by String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindNormal, fmt.Errorf("unknown tile kind %q", s)
}

// SideKind is the terrain of a tile side. Adjacent sides must share it.
type SideKind int

const (
	ForestSideKind SideKind = iota
	MeadowSideKind
	RiverSideKind
)

// Side is one of ForestSide, MeadowSide or RiverSide.
type Side interface {
	Zones() []Zone
	Kind() SideKind
	isSide()
}

// ForestSide is a side entirely covered by a forest.
type ForestSide struct {
	Forest Forest
}

// Zones returns the forest.
func (s ForestSide) Zones() []Zone { return []Zone{s.Forest} }

// Kind returns ForestSideKind.
func (ForestSide) Kind() SideKind { return ForestSideKind }
func (ForestSide) isSide()        {}

// MeadowSide is a side entirely covered by a meadow.
type MeadowSide struct {
	Meadow Meadow
}

// Zones returns the meadow.
func (s MeadowSide) Zones() []Zone { return []Zone{s.Meadow} }

// Kind returns MeadowSideKind.
func (MeadowSide) Kind() SideKind { return MeadowSideKind }
func (MeadowSide) isSide()        {}

// RiverSide is a river flanked by two meadows, listed clockwise.
type RiverSide struct {
	Meadow1 Meadow
	River   River
	Meadow2 Meadow
}

// Zones returns the first meadow, the river and the second meadow.
func (s RiverSide) Zones() []Zone { return []Zone{s.Meadow1, s.River, s.Meadow2} }

// Kind returns RiverSideKind.
func (RiverSide) Kind() SideKind { return RiverSideKind }
func (RiverSide) isSide()        {}

// SameKind reports whether two sides may touch.
func SameKind(a, b Side) bool {
	return a.Kind() == b.Kind()
}

// Tile is an unplaced tile. Tiles are shared by pointer and never mutated.
type Tile struct {
	ID   int
	Kind Kind
	N    Side
	E    Side
	S    Side
	W    Side
}

// Sides returns the sides in N, E, S, W order.
func (t *Tile) Sides() [geom.DirectionCount]Side {
	return [geom.DirectionCount]Side{t.N, t.E, t.S, t.W}
}

// Side returns the intrinsic side facing d, ignoring any rotation.
func (t *Tile) Side(d geom.Direction) Side {
	return t.Sides()[d]
}

// SideZones returns the distinct zones touching a side, sorted by id.
func (t *Tile) SideZones() []Zone {
	seen := make(map[int]bool)
	zones := make([]Zone, 0, 8)
	for _, side := range t.Sides() {
		for _, z := range side.Zones() {
			if !seen[z.ID()] {
				seen[z.ID()] = true
				zones = append(zones, z)
			}
		}
	}
	sortZones(zones)
	return zones
}

// Zones returns every zone of the tile, including lakes reached by rivers, sorted by id.
func (t *Tile) Zones() []Zone {
	zones := t.SideZones()
	seen := make(map[int]bool, len(zones))
	for _, z := range zones {
		seen[z.ID()] = true
	}
	for _, z := range zones {
		if r, ok := z.(River); ok && r.HasLake() && !seen[r.Lake.ID()] {
			seen[r.Lake.ID()] = true
			zones = append(zones, *r.Lake)
		}
	}
	sortZones(zones)
	return zones
}

func sortZones(zones []Zone) {
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID() < zones[j].ID() })
}
