// Package player defines the colours that identify players.
package player

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownColor is returned when a name matches no player colour.
var ErrUnknownColor = errors.New("unknown player color")

// Color identifies a player. The zero value means "no player", as on the start tile.
type Color int

const (
	NoColor Color = iota
	Red
	Blue
	Green
	Yellow
	Purple
)

// All lists every player colour in seating order.
var All = []Color{Red, Blue, Green, Yellow, Purple}

var colorNames = map[Color]string{
	NoColor: "NONE",
	Red:     "RED",
	Blue:    "BLUE",
	Green:   "GREEN",
	Yellow:  "YELLOW",
	Purple:  "PURPLE",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("COLOR_%d", int(c))
}

// Valid reports whether c names an actual player.
func (c Color) Valid() bool {
	return c >= Red && c <= Purple
}

// ParseColor parses a colour name, case-insensitively.
func ParseColor(s string) (Color, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for c, name := range colorNames {
		if c != NoColor && name == upper {
			return c, nil
		}
	}
	return NoColor, fmt.Errorf("%q: %w", s, ErrUnknownColor)
}

// FirstN returns the first n colours, used to seat n players.
func FirstN(n int) ([]Color, error) {
	if n < 2 || n > len(All) {
		return nil, fmt.Errorf("player count must be between 2 and %d, got %d", len(All), n)
	}
	colors := make([]Color, n)
	copy(colors, All[:n])
	return colors, nil
}
