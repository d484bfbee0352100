// Package tile defines tiles, their zones and sides, placed tiles, occupants and decks.
package tile

import "fmt"

// SpecialPower is a bonus rule carried by a zone.
type SpecialPower int

const (
	NoPower SpecialPower = iota
	Shaman
	Logboat
	HuntingTrap
	PitTrap
	WildFire
	Raft
)

var specialPowerNames = map[SpecialPower]string{
	NoPower:     "NONE",
	Shaman:      "SHAMAN",
	Logboat:     "LOGBOAT",
	HuntingTrap: "HUNTING_TRAP",
	PitTrap:     "PIT_TRAP",
	WildFire:    "WILD_FIRE",
	Raft:        "RAFT",
}

func (p SpecialPower) String() string {
	if name, ok := specialPowerNames[p]; ok {
		return name
	}
	return fmt.Sprintf("POWER_%d", int(p))
}

// ParseSpecialPower parses a power name as produced by String.
func ParseSpecialPower(s string) (SpecialPower, error) {
	if s == "" {
		return NoPower, nil
	}
	for p, name := range specialPowerNames {
		if name == s {
			return p, nil
		}
	}
	return NoPower, fmt.Errorf("unknown special power %q", s)
}

// ZoneID is a global zone identifier: tileID*10 + localID.
type ZoneID int

// ID returns the global zone identifier.
func (z ZoneID) ID() int { return int(z) }

// TileID returns the identifier of the tile owning the zone.
func (z ZoneID) TileID() int { return TileIDOf(int(z)) }

// LocalID returns the zone's identifier within its tile, 0 to 9.
func (z ZoneID) LocalID() int { return LocalIDOf(int(z)) }

// TileIDOf returns the tile identifier of a zone identifier.
func TileIDOf(zoneID int) int { return zoneID / 10 }

// LocalIDOf returns the local identifier of a zone identifier.
func LocalIDOf(zoneID int) int { return zoneID % 10 }

// Zone is one of Forest, Meadow, River or Lake.
type Zone interface {
	ID() int
	TileID() int
	LocalID() int
	SpecialPower() SpecialPower
	isZone()
}

// Water is a zone that holds fish: River or Lake.
type Water interface {
	Zone
	FishCount() int
}

// ForestKind distinguishes plain forests from those with a menhir or mushrooms.
type ForestKind int

const (
	PlainForest ForestKind = iota
	ForestWithMenhir
	ForestWithMushrooms
)

var forestKindNames = map[ForestKind]string{
	PlainForest:         "PLAIN",
	ForestWithMenhir:    "WITH_MENHIR",
	ForestWithMushrooms: "WITH_MUSHROOMS",
}

func (k ForestKind) String() string {
	if name, ok := forestKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FOREST_%d", int(k))
}

// ParseForestKind parses a forest kind name as produced by String.
func ParseForestKind(s string) (ForestKind, error) {
	if s == "" {
		return PlainForest, nil
	}
	for k, name := range forestKindNames {
		if name == s {
			return k, nil
		}
	}
	return PlainForest, fmt.Errorf("unknown forest kind %q", s)
}

// Forest is a forest zone.
type Forest struct {
	ZoneID
	Kind ForestKind
}

// SpecialPower always returns NoPower for forests.
func (Forest) SpecialPower() SpecialPower { return NoPower }
func (Forest) isZone()                    {}

// Meadow is a meadow zone with its animals.
type Meadow struct {
	ZoneID
	Animals []Animal
	Power   SpecialPower
}

// SpecialPower returns the meadow's power.
func (m Meadow) SpecialPower() SpecialPower { return m.Power }
func (Meadow) isZone()                      {}

// River is a river zone, optionally flowing into a lake.
type River struct {
	ZoneID
	Fish int
	Lake *Lake
}

// SpecialPower always returns NoPower for rivers.
func (River) SpecialPower() SpecialPower { return NoPower }

// FishCount returns the number of fish in the river itself.
func (r River) FishCount() int { return r.Fish }

// HasLake reports whether the river ends in a lake.
func (r River) HasLake() bool { return r.Lake != nil }
func (River) isZone()         {}

// Lake is a lake zone.
type Lake struct {
	ZoneID
	Fish  int
	Power SpecialPower
}

// SpecialPower returns the lake's power.
func (l Lake) SpecialPower() SpecialPower { return l.Power }

// FishCount returns the number of fish in the lake.
func (l Lake) FishCount() int { return l.Fish }
func (Lake) isZone()          {}

// AnimalKind is the species of an animal token.
type AnimalKind int

const (
	Mammoth AnimalKind = iota
	Aurochs
	Deer
	Tiger
)

var animalKindNames = map[AnimalKind]string{
	Mammoth: "MAMMOTH",
	Aurochs: "AUROCHS",
	Deer:    "DEER",
	Tiger:   "TIGER",
}

func (k AnimalKind) String() string {
	if name, ok := animalKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ANIMAL_%d", int(k))
}

// ParseAnimalKind parses an animal kind name as produced by String.
func ParseAnimalKind(s string) (AnimalKind, error) {
	for k, name := range animalKindNames {
		if name == s {
			return k, nil
		}
	}
	return Mammoth, fmt.Errorf("unknown animal kind %q", s)
}

// Animal is an animal token. Its id is zoneID*100 + index within the zone.
type Animal struct {
	ID   int
	Kind AnimalKind
}

// ZoneID returns the identifier of the meadow holding the animal.
func (a Animal) ZoneID() int { return a.ID / 100 }

// TileID returns the identifier of the tile holding the animal.
func (a Animal) TileID() int { return TileIDOf(a.ZoneID()) }
