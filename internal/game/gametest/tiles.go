// Package gametest provides tile fixtures shared by the rules tests.
package gametest

import (
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// Forest returns a forest zone.
func Forest(id int, kind tile.ForestKind) tile.Forest {
	return tile.Forest{ZoneID: tile.ZoneID(id), Kind: kind}
}

// Meadow returns a meadow zone whose animals get ids zoneID*100+i.
func Meadow(id int, power tile.SpecialPower, kinds ...tile.AnimalKind) tile.Meadow {
	m := tile.Meadow{ZoneID: tile.ZoneID(id), Power: power}
	for i, k := range kinds {
		m.Animals = append(m.Animals, tile.Animal{ID: id*100 + i, Kind: k})
	}
	return m
}

// River returns a river zone, optionally ending in lake.
func River(id, fish int, lake *tile.Lake) tile.River {
	return tile.River{ZoneID: tile.ZoneID(id), Fish: fish, Lake: lake}
}

// Lake returns a lake zone.
func Lake(id, fish int, power tile.SpecialPower) *tile.Lake {
	return &tile.Lake{ZoneID: tile.ZoneID(id), Fish: fish, Power: power}
}

// AllMeadow returns a normal tile whose four sides are the same meadow.
func AllMeadow(id int, power tile.SpecialPower, kinds ...tile.AnimalKind) *tile.Tile {
	m := tile.MeadowSide{Meadow: Meadow(id*10, power, kinds...)}
	return &tile.Tile{ID: id, Kind: tile.KindNormal, N: m, E: m, S: m, W: m}
}

// ForestCap returns a normal tile with a forest on its west side only and
// one meadow around the three other sides.
func ForestCap(id int, kind tile.ForestKind, kinds ...tile.AnimalKind) *tile.Tile {
	f := tile.ForestSide{Forest: Forest(id*10, kind)}
	m := tile.MeadowSide{Meadow: Meadow(id*10+1, tile.NoPower, kinds...)}
	return &tile.Tile{ID: id, Kind: tile.KindNormal, N: m, E: m, S: m, W: f}
}

// RiverSource returns a normal tile whose river leaves through the north
// side and ends in a lake; meadow id*10+1 lies west of the river and
// id*10+2 east of it.
func RiverSource(id, riverFish, lakeFish int, lakePower tile.SpecialPower) *tile.Tile {
	lake := Lake(id*10+8, lakeFish, lakePower)
	west := Meadow(id*10+1, tile.NoPower)
	east := Meadow(id*10+2, tile.NoPower)
	return &tile.Tile{
		ID:   id,
		Kind: tile.KindNormal,
		N:    tile.RiverSide{Meadow1: west, River: River(id*10, riverFish, lake), Meadow2: east},
		E:    tile.MeadowSide{Meadow: east},
		S:    tile.MeadowSide{Meadow: east},
		W:    tile.MeadowSide{Meadow: west},
	}
}

// Start returns the start tile 56: meadow 560 (one aurochs) north, forest
// 561 east and south, and to the west a river 563 with one fish flowing
// from lake 568, between meadows 562 (south) and 560 (north).
func Start() *tile.Tile {
	north := Meadow(560, tile.NoPower, tile.Aurochs)
	forest := tile.ForestSide{Forest: Forest(561, tile.PlainForest)}
	return &tile.Tile{
		ID:   56,
		Kind: tile.KindStart,
		N:    tile.MeadowSide{Meadow: north},
		E:    forest,
		S:    forest,
		W: tile.RiverSide{
			Meadow1: Meadow(562, tile.NoPower),
			River:   River(563, 1, Lake(568, 1, tile.NoPower)),
			Meadow2: north,
		},
	}
}

// Menhir returns a menhir tile made of a single meadow.
func Menhir(id int) *tile.Tile {
	t := AllMeadow(id, tile.NoPower)
	t.Kind = tile.KindMenhir
	return t
}

// Decks returns decks made of the start tile and the given tiles, sorted
// into piles by kind in the given order.
func Decks(tiles ...*tile.Tile) tile.Decks {
	d := tile.Decks{Start: []*tile.Tile{Start()}}
	for _, t := range tiles {
		switch t.Kind {
		case tile.KindMenhir:
			d.Menhir = append(d.Menhir, t)
		case tile.KindStart:
			d.Start = []*tile.Tile{t}
		default:
			d.Normal = append(d.Normal, t)
		}
	}
	return d
}
