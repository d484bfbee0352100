package tile

import (
	"fmt"
	"strings"
)

// OccupantKind is the kind of token a player places.
type OccupantKind int

const (
	Pawn OccupantKind = iota
	Hut
)

var occupantKindNames = map[OccupantKind]string{
	Pawn: "PAWN",
	Hut:  "HUT",
}

func (k OccupantKind) String() string {
	if name, ok := occupantKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OCCUPANT_%d", int(k))
}

// ParseOccupantKind parses an occupant kind name, case-insensitively.
func ParseOccupantKind(s string) (OccupantKind, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for k, name := range occupantKindNames {
		if name == upper {
			return k, nil
		}
	}
	return Pawn, fmt.Errorf("unknown occupant kind %q", s)
}

// Capacity returns how many tokens of the kind each player owns.
func (k OccupantKind) Capacity() int {
	switch k {
	case Pawn:
		return 5
	case Hut:
		return 3
	default:
		return 0
	}
}

// Occupant is a token placed on a zone.
type Occupant struct {
	Kind   OccupantKind
	ZoneID int
}

func (o Occupant) String() string {
	return fmt.Sprintf("%s@%d", o.Kind, o.ZoneID)
}
