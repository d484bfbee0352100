// Package geom holds the board's position and orientation algebra.
package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a tile position relative to the board origin. Y grows southwards.
type Pos struct {
	X int
	Y int
}

// Origin is the position of the start tile.
var Origin = Pos{}

// Translated returns the position shifted by (dx, dy).
func (p Pos) Translated(dx, dy int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// Neighbor returns the position one step away in the given direction.
func (p Pos) Neighbor(d Direction) Pos {
	switch d {
	case N:
		return p.Translated(0, -1)
	case E:
		return p.Translated(1, 0)
	case S:
		return p.Translated(0, 1)
	default:
		return p.Translated(-1, 0)
	}
}

// Less orders positions by x, then by y.
func (p Pos) Less(o Pos) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the four cardinal directions, in clockwise order.
type Direction int

const (
	N Direction = iota
	E
	S
	W
)

// DirectionCount is the number of directions.
const DirectionCount = 4

// Directions lists every direction in clockwise order starting north.
var Directions = [DirectionCount]Direction{N, E, S, W}

var directionNames = map[Direction]string{
	N: "N",
	E: "E",
	S: "S",
	W: "W",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DIRECTION_%d", int(d))
}

// Rotated returns the direction turned clockwise by the rotation.
func (d Direction) Rotated(r Rotation) Direction {
	return Direction((int(d) + r.QuarterTurnsCW()) % DirectionCount)
}

// Opposite returns the direction facing the other way.
func (d Direction) Opposite() Direction {
	return d.Rotated(HalfTurn)
}

// Rotation is a clockwise quarter-turn count. Rotations form a cyclic group of order 4.
type Rotation int

const (
	None Rotation = iota
	Right
	HalfTurn
	Left
)

// RotationCount is the number of rotations.
const RotationCount = 4

// Rotations lists every rotation by ordinal.
var Rotations = [RotationCount]Rotation{None, Right, HalfTurn, Left}

var rotationNames = map[Rotation]string{
	None:     "NONE",
	Right:    "RIGHT",
	HalfTurn: "HALF_TURN",
	Left:     "LEFT",
}

func (r Rotation) String() string {
	if name, ok := rotationNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ROTATION_%d", int(r))
}

// ParseRotation parses a rotation name as produced by String, or a
// clockwise angle in degrees ("90").
func ParseRotation(s string) (Rotation, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range rotationNames {
		if name == upper || strconv.Itoa(r.DegreesCW()) == upper {
			return r, nil
		}
	}
	return None, fmt.Errorf("unknown rotation %q", s)
}

// Add composes two rotations.
func (r Rotation) Add(o Rotation) Rotation {
	return Rotation((int(r) + int(o)) % RotationCount)
}

// Negated returns the inverse rotation.
func (r Rotation) Negated() Rotation {
	return Rotation((RotationCount - int(r)) % RotationCount)
}

// QuarterTurnsCW returns the number of clockwise quarter turns.
func (r Rotation) QuarterTurnsCW() int {
	return int(r)
}

// DegreesCW returns the clockwise angle in degrees.
func (r Rotation) DegreesCW() int {
	return int(r) * 90
}
