package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chacun/chacun-server-go/internal/game"
	"github.com/chacun/chacun-server-go/internal/game/area"
	"github.com/chacun/chacun-server-go/internal/game/board"
	"github.com/chacun/chacun-server-go/internal/game/codec"
	"github.com/chacun/chacun-server-go/internal/game/geom"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// Intent kinds.
const (
	IntentAction = "action"
	IntentPlace  = "place"
	IntentOccupy = "occupy"
	IntentRetake = "retake"
)

// ErrBadIntent is returned for intents that do not name a valid move.
var ErrBadIntent = errors.New("bad intent")

// Intent is a move sent by a client over any transport. An occupy or retake
// intent without a kind declines; a placement without a rotation is
// unrotated.
type Intent struct {
	Type     string `json:"type"`
	Player   string `json:"player,omitempty"`
	Action   string `json:"action,omitempty"`
	X        int    `json:"x,omitempty"`
	Y        int    `json:"y,omitempty"`
	Rotation string `json:"rotation,omitempty"`
	Kind     string `json:"kind,omitempty"`
	ZoneID   int    `json:"zone_id,omitempty"`
}

func (in Intent) actor() (player.Color, error) {
	if in.Player == "" {
		return player.NoColor, nil
	}
	c, err := player.ParseColor(in.Player)
	if err != nil {
		return player.NoColor, fmt.Errorf("%w: %w", ErrBadIntent, err)
	}
	return c, nil
}

func (in Intent) occupant() (*tile.Occupant, error) {
	if in.Kind == "" {
		return nil, nil
	}
	kind, err := tile.ParseOccupantKind(in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadIntent, err)
	}
	return &tile.Occupant{Kind: kind, ZoneID: in.ZoneID}, nil
}

// Apply runs the intent against a game.
func (in Intent) Apply(ctx context.Context, mgr *game.Manager, gameID string) (game.View, error) {
	as, err := in.actor()
	if err != nil {
		return game.View{}, err
	}

	switch strings.ToLower(in.Type) {
	case IntentAction:
		if in.Action == "" {
			return game.View{}, fmt.Errorf("empty action: %w", ErrBadIntent)
		}
		return mgr.ApplyAction(ctx, gameID, in.Action)
	case IntentPlace:
		rot := geom.None
		if in.Rotation != "" {
			if rot, err = geom.ParseRotation(in.Rotation); err != nil {
				return game.View{}, fmt.Errorf("%w: %w", ErrBadIntent, err)
			}
		}
		return mgr.PlaceTile(ctx, gameID, as, geom.Pos{X: in.X, Y: in.Y}, rot)
	case IntentOccupy:
		o, err := in.occupant()
		if err != nil {
			return game.View{}, err
		}
		return mgr.Occupy(ctx, gameID, as, o)
	case IntentRetake:
		o, err := in.occupant()
		if err != nil {
			return game.View{}, err
		}
		return mgr.RetakePawn(ctx, gameID, as, o)
	default:
		return game.View{}, fmt.Errorf("unknown intent type %q: %w", in.Type, ErrBadIntent)
	}
}

// errorKind classifies errors for the transports.
type errorKind int

const (
	kindInternal errorKind = iota
	kindNotFound
	kindForbidden
	kindInvalid
	kindRejected
)

func classify(err error) errorKind {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return kindNotFound
	case errors.Is(err, game.ErrNotYourTurn):
		return kindForbidden
	case errors.Is(err, ErrBadIntent),
		errors.Is(err, game.ErrTooManyPlayers),
		errors.Is(err, state.ErrInvalidPlayers),
		errors.Is(err, player.ErrUnknownColor):
		return kindInvalid
	case errors.Is(err, codec.ErrMalformedAction),
		errors.Is(err, state.ErrWrongAction),
		errors.Is(err, state.ErrWrongTile),
		errors.Is(err, state.ErrIllegalOccupant),
		errors.Is(err, board.ErrCannotAddTile),
		errors.Is(err, board.ErrNoSuchTile),
		errors.Is(err, board.ErrOccupant),
		errors.Is(err, tile.ErrZoneNotOnTile),
		errors.Is(err, tile.ErrTileOccupied),
		errors.Is(err, area.ErrAlreadyOccupied),
		errors.Is(err, area.ErrInvalidOccupant):
		return kindRejected
	default:
		return kindInternal
	}
}
