// Package area tracks how zones of the same kind connect into areas as
// tiles are laid, and who occupies them.
package area

import (
	"errors"
	"sort"

	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

var (
	// ErrZoneNotFound is returned when a zone is not part of any area of a partition.
	ErrZoneNotFound = errors.New("zone not in partition")
	// ErrAlreadyOccupied is returned when an initial occupant targets an occupied area.
	ErrAlreadyOccupied = errors.New("area already occupied")
	// ErrNotOccupant is returned when removing a color that does not occupy the area.
	ErrNotOccupant = errors.New("color does not occupy area")
	// ErrSideMismatch is returned when connecting sides of different kinds.
	ErrSideMismatch = errors.New("sides of different kinds")
	// ErrInvalidOccupant is returned when an occupant kind cannot occupy a zone.
	ErrInvalidOccupant = errors.New("occupant kind cannot occupy zone")
)

// Area is a connected group of zones of one kind. Areas are immutable.
type Area[Z tile.Zone] struct {
	zones           []Z
	occupants       []player.Color
	openConnections int
}

// New builds an area. Zones are sorted by id and occupants by color.
func New[Z tile.Zone](zones []Z, occupants []player.Color, openConnections int) *Area[Z] {
	if openConnections < 0 {
		panic("area: negative open connections")
	}
	zs := append([]Z(nil), zones...)
	sort.Slice(zs, func(i, j int) bool { return zs[i].ID() < zs[j].ID() })
	occ := append([]player.Color(nil), occupants...)
	sort.Slice(occ, func(i, j int) bool { return occ[i] < occ[j] })
	return &Area[Z]{zones: zs, occupants: occ, openConnections: openConnections}
}

// Zones returns the area's zones sorted by id.
func (a *Area[Z]) Zones() []Z { return append([]Z(nil), a.zones...) }

// Occupants returns the occupying colors, sorted, with repetitions.
func (a *Area[Z]) Occupants() []player.Color { return append([]player.Color(nil), a.occupants...) }

// OpenConnections returns the number of zone edges not yet matched.
func (a *Area[Z]) OpenConnections() int { return a.openConnections }

// IsClosed reports whether the area has no open connection left.
func (a *Area[Z]) IsClosed() bool { return a.openConnections == 0 }

// IsOccupied reports whether at least one occupant is in the area.
func (a *Area[Z]) IsOccupied() bool { return len(a.occupants) > 0 }

// ContainsZone reports whether the zone with the given id belongs to the area.
func (a *Area[Z]) ContainsZone(zoneID int) bool {
	i := sort.Search(len(a.zones), func(i int) bool { return a.zones[i].ID() >= zoneID })
	return i < len(a.zones) && a.zones[i].ID() == zoneID
}

// FirstZoneID returns the smallest zone id, used to order areas.
func (a *Area[Z]) FirstZoneID() int {
	if len(a.zones) == 0 {
		return -1
	}
	return a.zones[0].ID()
}

// MajorityOccupants returns the colors holding the most occupants. Ties
// return every tied color; an unoccupied area returns none.
func (a *Area[Z]) MajorityOccupants() []player.Color {
	counts := make(map[player.Color]int)
	best := 0
	for _, c := range a.occupants {
		counts[c]++
		if counts[c] > best {
			best = counts[c]
		}
	}
	var out []player.Color
	for _, c := range player.All {
		if best > 0 && counts[c] == best {
			out = append(out, c)
		}
	}
	return out
}

// TileIDs returns the distinct ids of tiles holding the area's zones, ascending.
func (a *Area[Z]) TileIDs() []int {
	var ids []int
	for _, z := range a.zones {
		id := z.TileID()
		if len(ids) == 0 || ids[len(ids)-1] != id {
			ids = append(ids, id)
		}
	}
	return ids
}

// TileCount returns the number of distinct tiles the area spans.
func (a *Area[Z]) TileCount() int { return len(a.TileIDs()) }

// ZoneWithSpecialPower returns a zone carrying the power, if any.
func (a *Area[Z]) ZoneWithSpecialPower(p tile.SpecialPower) (Z, bool) {
	for _, z := range a.zones {
		if z.SpecialPower() == p {
			return z, true
		}
	}
	var zero Z
	return zero, false
}

func (a *Area[Z]) connectedTo(o *Area[Z]) *Area[Z] {
	if a == o {
		return &Area[Z]{zones: a.zones, occupants: a.occupants, openConnections: a.openConnections - 2}
	}
	zones := append(append([]Z(nil), a.zones...), o.zones...)
	occ := append(append([]player.Color(nil), a.occupants...), o.occupants...)
	return New(zones, occ, a.openConnections+o.openConnections-2)
}

func (a *Area[Z]) withOccupants(occ []player.Color) *Area[Z] {
	return &Area[Z]{zones: a.zones, occupants: occ, openConnections: a.openConnections}
}

func (a *Area[Z]) withoutOccupant(c player.Color) (*Area[Z], bool) {
	for i, o := range a.occupants {
		if o == c {
			occ := append(append([]player.Color(nil), a.occupants[:i]...), a.occupants[i+1:]...)
			return a.withOccupants(occ), true
		}
	}
	return a, false
}

// HasMenhir reports whether a forest area contains a menhir.
func HasMenhir(a *Area[tile.Forest]) bool {
	for _, f := range a.zones {
		if f.Kind == tile.ForestWithMenhir {
			return true
		}
	}
	return false
}

// MushroomGroupCount returns how many forest zones of the area hold mushrooms.
func MushroomGroupCount(a *Area[tile.Forest]) int {
	n := 0
	for _, f := range a.zones {
		if f.Kind == tile.ForestWithMushrooms {
			n++
		}
	}
	return n
}

// Animals returns the meadow area's animals that are not cancelled, in zone order.
func Animals(a *Area[tile.Meadow], cancelled map[int]tile.Animal) []tile.Animal {
	var out []tile.Animal
	for _, m := range a.zones {
		for _, an := range m.Animals {
			if _, ok := cancelled[an.ID]; !ok {
				out = append(out, an)
			}
		}
	}
	return out
}

// RiverFishCount returns the fish in the rivers and in the lakes they end
// in, each lake counted once.
func RiverFishCount(a *Area[tile.River]) int {
	n := 0
	lakes := make(map[int]bool)
	for _, r := range a.zones {
		n += r.Fish
		if r.HasLake() && !lakes[r.Lake.ID()] {
			lakes[r.Lake.ID()] = true
			n += r.Lake.Fish
		}
	}
	return n
}

// WaterFishCount returns the fish of every river and lake of a water area.
func WaterFishCount(a *Area[tile.Water]) int {
	n := 0
	for _, w := range a.zones {
		n += w.FishCount()
	}
	return n
}

// LakeCount returns the number of lakes in a water area.
func LakeCount(a *Area[tile.Water]) int {
	n := 0
	for _, w := range a.zones {
		if _, ok := w.(tile.Lake); ok {
			n++
		}
	}
	return n
}
