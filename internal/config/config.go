// Package config loads server configuration from a YAML file and
// CHACUN_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

type WebSocketConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig selects the zap level (debug, info, warn, error) and
// format (json or console).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects the game store. Driver is postgres, sqlite or none.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
	Path   string `mapstructure:"path"`
}

// GameConfig configures games. An empty Catalog uses the embedded tile set.
type GameConfig struct {
	Catalog    string `mapstructure:"catalog"`
	ReplayDir  string `mapstructure:"replay_dir"`
	MaxPlayers int    `mapstructure:"max_players"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.address", ":8080")
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.driver", "none")
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", "chacun.db")
	v.SetDefault("game.catalog", "")
	v.SetDefault("game.replay_dir", "replays")
	v.SetDefault("game.max_players", 5)
}

// Load reads the configuration. A missing file is not an error; defaults
// and environment variables then apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CHACUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "none", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return errors.New("database.url is required for postgres")
	}
	if c.Game.MaxPlayers < 2 || c.Game.MaxPlayers > 5 {
		return fmt.Errorf("game.max_players must be between 2 and 5, got %d", c.Game.MaxPlayers)
	}
	if c.Server.GRPC.MaxConcurrentStreams <= 0 {
		return fmt.Errorf("server.grpc.max_concurrent_streams must be positive")
	}
	return nil
}
