package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chacun/chacun-server-go/internal/config"
	"github.com/chacun/chacun-server-go/internal/game"
)

// GameServiceName is the full name of the gRPC game service. Requests and
// responses are google.protobuf.Struct values shaped like the JSON API.
const GameServiceName = "chacun.v1.GameService"

// GameServiceServer is the server API of the game service.
type GameServiceServer interface {
	// CreateGame takes {"players": [...], "seed": n} and returns the view.
	CreateGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetGame takes {"id": ...} and returns the view.
	GetGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetActions takes {"id": ...} and returns {"actions": [...]}.
	GetActions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ApplyIntent takes {"game_id": ..., "intent": {...}} and returns the view.
	ApplyIntent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListGames returns {"games": [...]}.
	ListGames(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(GameServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodHandler {
	fullMethod := "/" + GameServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GameServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GameServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GameServiceDesc describes the game service for grpc.Server.
var GameServiceDesc = grpc.ServiceDesc{
	ServiceName: GameServiceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateGame", Handler: unaryHandler("CreateGame", GameServiceServer.CreateGame)},
		{MethodName: "GetGame", Handler: unaryHandler("GetGame", GameServiceServer.GetGame)},
		{MethodName: "GetActions", Handler: unaryHandler("GetActions", GameServiceServer.GetActions)},
		{MethodName: "ApplyIntent", Handler: unaryHandler("ApplyIntent", GameServiceServer.ApplyIntent)},
		{MethodName: "ListGames", Handler: unaryHandler("ListGames", GameServiceServer.ListGames)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chacun/v1/game.proto",
}

// RegisterGameServiceServer registers srv with s.
func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&GameServiceDesc, srv)
}

// GameServiceClient calls the game service.
type GameServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewGameServiceClient(cc grpc.ClientConnInterface) *GameServiceClient {
	return &GameServiceClient{cc: cc}
}

func (c *GameServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+GameServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GameServiceClient) CreateGame(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateGame", in, opts)
}

func (c *GameServiceClient) GetGame(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetGame", in, opts)
}

func (c *GameServiceClient) GetActions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetActions", in, opts)
}

func (c *GameServiceClient) ApplyIntent(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ApplyIntent", in, opts)
}

func (c *GameServiceClient) ListGames(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListGames", in, opts)
}

// NewGRPCServer builds a gRPC server serving the game service.
func NewGRPCServer(mgr *game.Manager, cfg config.GRPCConfig, logger *zap.Logger) *grpc.Server {
	s := grpc.NewServer(
		grpc.UnaryInterceptor(ChainUnaryInterceptors(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.MaxConcurrentStreams)),
	)
	RegisterGameServiceServer(s, NewGameServer(mgr))
	return s
}
