package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chacun/chacun-server-go/internal/game"
)

// gameServer implements GameServiceServer on top of the game manager.
type gameServer struct {
	mgr *game.Manager
}

// NewGameServer creates the gRPC game service.
func NewGameServer(mgr *game.Manager) GameServiceServer {
	return &gameServer{mgr: mgr}
}

func (s *gameServer) CreateGame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var cr CreateGameRequest
	for _, v := range req.GetFields()["players"].GetListValue().GetValues() {
		cr.Players = append(cr.Players, v.GetStringValue())
	}
	if v, ok := req.GetFields()["seed"]; ok {
		seed, err := seedValue(v)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		cr.Seed = &seed
	}

	colors, err := cr.colors()
	if err != nil {
		return nil, grpcError(err)
	}
	v, err := s.mgr.CreateGame(ctx, colors, cr.seed())
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(v)
}

func (s *gameServer) GetGame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, err := s.mgr.View(ctx, req.GetFields()["id"].GetStringValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(v)
}

func (s *gameServer) GetActions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actions, err := s.mgr.Actions(ctx, req.GetFields()["id"].GetStringValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(map[string][]string{"actions": actions})
}

func (s *gameServer) ApplyIntent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := protojson.Marshal(req.GetFields()["intent"].GetStructValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var in Intent
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "intent: %v", err)
	}
	v, err := in.Apply(ctx, s.mgr, req.GetFields()["game_id"].GetStringValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(v)
}

func (s *gameServer) ListGames(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	games, err := s.mgr.List(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(map[string]any{"games": games})
}

// seedValue accepts a seed as a whole number or, beyond float precision,
// as a decimal string.
func seedValue(v *structpb.Value) (uint64, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f < 0 || f != math.Trunc(f) || f >= 1<<53 {
			return 0, fmt.Errorf("seed %v is not a whole number below 2^53", f)
		}
		return uint64(f), nil
	case *structpb.Value_StringValue:
		return strconv.ParseUint(k.StringValue, 10, 64)
	default:
		return 0, fmt.Errorf("seed must be a number or a string")
	}
}

// toStruct converts a JSON-encodable value to a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func grpcError(err error) error {
	switch classify(err) {
	case kindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case kindForbidden:
		return status.Error(codes.PermissionDenied, err.Error())
	case kindInvalid:
		return status.Error(codes.InvalidArgument, err.Error())
	case kindRejected:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
