package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chacun/chacun-server-go/internal/config"
)

func newGRPCClient(t *testing.T) *GameServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(newTestManager(t), config.GRPCConfig{MaxConcurrentStreams: 10}, zaptest.NewLogger(t))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewGameServiceClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestGRPCGameService(t *testing.T) {
	client := newGRPCClient(t)
	ctx := context.Background()

	created, err := client.CreateGame(ctx, mustStruct(t, map[string]any{
		"players": []any{"RED", "BLUE"},
		"seed":    "18446744073709551615",
	}))
	require.NoError(t, err)
	id := created.GetFields()["id"].GetStringValue()
	require.NotEmpty(t, id)
	assert.Equal(t, "RED", created.GetFields()["current_player"].GetStringValue())
	assert.Greater(t, created.GetFields()["seed"].GetNumberValue(), 1e19)

	placed, err := client.ApplyIntent(ctx, mustStruct(t, map[string]any{
		"game_id": id,
		"intent":  map[string]any{"type": "place", "player": "RED", "x": 0, "y": -1, "rotation": "NONE"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "OCCUPY_TILE", placed.GetFields()["next_action"].GetStringValue())

	got, err := client.GetGame(ctx, mustStruct(t, map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, placed.GetFields()["checksum"].GetStringValue(), got.GetFields()["checksum"].GetStringValue())

	actions, err := client.GetActions(ctx, mustStruct(t, map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Len(t, actions.GetFields()["actions"].GetListValue().GetValues(), 1)

	list, err := client.ListGames(ctx, &structpb.Struct{})
	require.NoError(t, err)
	games := list.GetFields()["games"].GetListValue().GetValues()
	require.Len(t, games, 1)
	assert.Equal(t, id, games[0].GetStructValue().GetFields()["id"].GetStringValue())
}

func TestGRPCErrorCodes(t *testing.T) {
	client := newGRPCClient(t)
	ctx := context.Background()

	_, err := client.GetGame(ctx, mustStruct(t, map[string]any{"id": "missing"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.CreateGame(ctx, mustStruct(t, map[string]any{"players": []any{"RED"}, "seed": 1}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.CreateGame(ctx, mustStruct(t, map[string]any{"players": []any{"RED", "BLUE"}, "seed": -1}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	created, err := client.CreateGame(ctx, mustStruct(t, map[string]any{"players": []any{"RED", "BLUE"}, "seed": 2}))
	require.NoError(t, err)
	id := created.GetFields()["id"].GetStringValue()

	_, err = client.ApplyIntent(ctx, mustStruct(t, map[string]any{
		"game_id": id,
		"intent":  map[string]any{"type": "place", "player": "BLUE", "y": -1},
	}))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = client.ApplyIntent(ctx, mustStruct(t, map[string]any{
		"game_id": id,
		"intent":  map[string]any{"type": "occupy"},
	}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestChainUnaryInterceptorsOrder(t *testing.T) {
	var calls []string
	mark := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			calls = append(calls, name)
			return handler(ctx, req)
		}
	}
	chain := ChainUnaryInterceptors(mark("a"), mark("b"))
	resp, err := chain(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/x"}, func(ctx context.Context, req any) (any, error) {
		calls = append(calls, "handler")
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
	assert.Equal(t, []string{"a", "b", "handler"}, calls)
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zaptest.NewLogger(t))
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x"}, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}
