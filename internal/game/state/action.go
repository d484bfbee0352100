package state

import "fmt"

// Action is what the game expects next.
type Action int

const (
	StartGame Action = iota
	PlaceTile
	RetakePawn
	OccupyTile
	EndGame
)

var actionNames = map[Action]string{
	StartGame:  "START_GAME",
	PlaceTile:  "PLACE_TILE",
	RetakePawn: "RETAKE_PAWN",
	OccupyTile: "OCCUPY_TILE",
	EndGame:    "END_GAME",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(a))
}

// ParseAction parses an action name as produced by String.
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return StartGame, fmt.Errorf("unknown action %q", s)
}
