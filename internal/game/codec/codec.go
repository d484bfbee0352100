// Package codec turns accepted transitions into short action strings and
// applies action strings back onto a state.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chacun/chacun-server-go/internal/game/base32"
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// Decline is the code for declining to occupy or to retake a pawn.
const Decline = 0b11111

// ErrMalformedAction is returned for action strings that cannot be applied.
var ErrMalformedAction = errors.New("malformed action")

// StateAction pairs the state reached by a transition with its action string.
type StateAction struct {
	State  *state.GameState
	Action string
}

func malformed(action string, format string, args ...any) error {
	return fmt.Errorf("%q: %s: %w", action, fmt.Sprintf(format, args...), ErrMalformedAction)
}

func positionIndex(s *state.GameState, pos geom.Pos) int {
	for i, p := range s.Board().InsertionPositions() {
		if p == pos {
			return i
		}
	}
	return -1
}

// WithPlacedTile applies the placement and encodes it as the rank of the
// position among the sorted insertion positions and the rotation.
func WithPlacedTile(s *state.GameState, t *tile.PlacedTile) (StateAction, error) {
	idx := positionIndex(s, t.Pos)
	if idx < 0 {
		return StateAction{}, fmt.Errorf("position %s is not an insertion position: %w", t.Pos, ErrMalformedAction)
	}
	if idx >= 1<<8 {
		return StateAction{}, fmt.Errorf("position rank %d does not fit: %w", idx, ErrMalformedAction)
	}
	ns, err := s.WithPlacedTile(t)
	if err != nil {
		return StateAction{}, err
	}
	return StateAction{State: ns, Action: base32.EncodeBits10(idx<<2 | int(t.Rotation))}, nil
}

// OccupantCode returns the symbol value of an occupant of the last placed
// tile, or Decline for nil. Local zone ids never exceed 9, so no occupant
// shares the decline code.
func OccupantCode(o *tile.Occupant) int {
	if o == nil {
		return Decline
	}
	return int(o.Kind)<<4 | tile.LocalIDOf(o.ZoneID)
}

// WithNewOccupant applies the occupation and encodes it.
func WithNewOccupant(s *state.GameState, o *tile.Occupant) (StateAction, error) {
	ns, err := s.WithNewOccupant(o)
	if err != nil {
		return StateAction{}, err
	}
	return StateAction{State: ns, Action: base32.EncodeBits5(OccupantCode(o))}, nil
}

// WithOccupantRemoved applies the retake and encodes it as the rank of the
// pawn among the board's occupants sorted by zone id.
func WithOccupantRemoved(s *state.GameState, o *tile.Occupant) (StateAction, error) {
	code := Decline
	if o != nil {
		code = -1
		for i, x := range s.Board().Occupants() {
			if x == *o {
				code = i
				break
			}
		}
		if code < 0 || code >= Decline {
			return StateAction{}, fmt.Errorf("occupant %s cannot be encoded: %w", o, ErrMalformedAction)
		}
	}
	ns, err := s.WithOccupantRemoved(o)
	if err != nil {
		return StateAction{}, err
	}
	return StateAction{State: ns, Action: base32.EncodeBits5(code)}, nil
}

// DecodeAndApply applies an action string to s. On any error s is left as
// it was and no state is returned. The returned action is in canonical
// upper case.
func DecodeAndApply(s *state.GameState, action string) (StateAction, error) {
	if !base32.IsValid(action) {
		return StateAction{}, malformed(action, "not in alphabet")
	}
	canonical := strings.ToUpper(action)
	v, err := base32.Decode(canonical)
	if err != nil {
		return StateAction{}, malformed(action, "%v", err)
	}

	var next *state.GameState
	switch s.NextAction() {
	case state.PlaceTile:
		next, err = decodePlacement(s, canonical, v)
	case state.OccupyTile:
		next, err = decodeOccupant(s, canonical, v)
	case state.RetakePawn:
		next, err = decodeRetake(s, canonical, v)
	default:
		return StateAction{}, malformed(action, "no action expected in %s", s.NextAction())
	}
	if err != nil {
		return StateAction{}, err
	}
	return StateAction{State: next, Action: canonical}, nil
}

func decodePlacement(s *state.GameState, action string, v int) (*state.GameState, error) {
	if len(action) != 2 {
		return nil, malformed(action, "placement needs 2 symbols")
	}
	positions := s.Board().InsertionPositions()
	idx := v >> 2
	if idx >= len(positions) {
		return nil, malformed(action, "position rank %d out of %d", idx, len(positions))
	}
	t := tile.NewPlacedTile(s.TileToPlace(), s.CurrentPlayer(), geom.Rotation(v&0b11), positions[idx])
	ns, err := s.WithPlacedTile(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}
	return ns, nil
}

func decodeOccupant(s *state.GameState, action string, v int) (*state.GameState, error) {
	if len(action) != 1 {
		return nil, malformed(action, "occupant needs 1 symbol")
	}
	var o *tile.Occupant
	if v != Decline {
		kind := tile.OccupantKind(v >> 4)
		local := v & 0b1111
		if local > 9 {
			return nil, malformed(action, "local zone id %d", local)
		}
		candidate := tile.Occupant{Kind: kind, ZoneID: s.Board().LastPlacedTile().ID()*10 + local}
		found := false
		for _, p := range s.LastTilePotentialOccupants() {
			if p == candidate {
				found = true
				break
			}
		}
		if !found {
			return nil, malformed(action, "%s is not a potential occupant", candidate)
		}
		o = &candidate
	}
	ns, err := s.WithNewOccupant(o)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}
	return ns, nil
}

func decodeRetake(s *state.GameState, action string, v int) (*state.GameState, error) {
	if len(action) != 1 {
		return nil, malformed(action, "retake needs 1 symbol")
	}
	var o *tile.Occupant
	if v != Decline {
		occupants := s.Board().Occupants()
		if v >= len(occupants) {
			return nil, malformed(action, "occupant rank %d out of %d", v, len(occupants))
		}
		o = &occupants[v]
	}
	ns, err := s.WithOccupantRemoved(o)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}
	return ns, nil
}
