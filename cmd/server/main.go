package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chacun/chacun-server-go/internal/catalog"
	"github.com/chacun/chacun-server-go/internal/config"
	"github.com/chacun/chacun-server-go/internal/game"
	"github.com/chacun/chacun-server-go/internal/game/events"
	"github.com/chacun/chacun-server-go/internal/repository"
	"github.com/chacun/chacun-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting ChaCuN server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Game store
	store, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open game store", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	} else {
		logger.Warn("no game store configured; games are lost on restart")
	}

	// Tile catalog
	tiles, err := catalog.LoadFile(cfg.Game.Catalog)
	if err != nil {
		logger.Fatal("failed to load tile catalog", zap.Error(err), zap.String("path", cfg.Game.Catalog))
	}
	logger.Info("tile catalog loaded", zap.Int("tiles", len(tiles)))

	opts := game.Options{
		Tiles:      tiles,
		Store:      store,
		Bus:        events.NewEventBus(),
		Recorder:   game.NewReplayRecorder(logger, cfg.Game.ReplayDir),
		MaxPlayers: cfg.Game.MaxPlayers,
	}
	gameMgr, err := game.NewManager(logger, opts)
	if err != nil {
		logger.Fatal("failed to create game manager", zap.Error(err))
	}
	logger.Info("game manager initialized",
		zap.Int("max_players", cfg.Game.MaxPlayers),
		zap.String("replay_dir", cfg.Game.ReplayDir),
	)

	hub := server.NewHub(gameMgr, logger)
	go hub.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTP.Address,
		Handler:           server.NewRouter(gameMgr, hub, cfg.Server.WebSocket.Path, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := server.NewGRPCServer(gameMgr, cfg.Server.GRPC, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	// Start gRPC server
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	// Start HTTP and WebSocket server
	go func() {
		logger.Info("starting HTTP server",
			zap.String("address", cfg.Server.HTTP.Address),
			zap.String("websocket_path", cfg.Server.WebSocket.Path),
		)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	logger.Info("ChaCuN server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
