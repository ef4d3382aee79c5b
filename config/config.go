// Package config loads chunkflow settings from defaults, an optional file, .env and the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/logging"
	"github.com/lixenwraith/chunkflow/navigation"
	"github.com/lixenwraith/chunkflow/obstacle"
	"github.com/lixenwraith/chunkflow/parameter"
	"github.com/lixenwraith/chunkflow/server"
)

// EnvPrefix prefixes every environment override, e.g. CHUNKFLOW_TERRAIN_CHUNK_SIZE
const EnvPrefix = "CHUNKFLOW"

type TerrainConfig struct {
	ChunksX   int     `mapstructure:"chunks_x"`
	ChunksY   int     `mapstructure:"chunks_y"`
	ChunkSize int     `mapstructure:"chunk_size"`
	CellSize  float64 `mapstructure:"cell_size"`
}

type NavigationConfig struct {
	Workers      int           `mapstructure:"workers"`
	CacheMaxCost int64         `mapstructure:"cache_max_cost"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	BlockSealed  bool          `mapstructure:"block_sealed"`
	AgentSpeed   float64       `mapstructure:"agent_speed"`
	Tick         time.Duration `mapstructure:"tick"`
}

type ObstacleConfig struct {
	Mode     string  `mapstructure:"mode"`
	Density  float64 `mapstructure:"density"`
	Braiding float64 `mapstructure:"braiding"`
	Seed     int64   `mapstructure:"seed"`
	Sealed   []int   `mapstructure:"sealed"`
}

// Config is the full process configuration
type Config struct {
	Terrain    TerrainConfig    `mapstructure:"terrain"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Obstacles  ObstacleConfig   `mapstructure:"obstacles"`
	Server     server.Config    `mapstructure:"server"`
	Log        logging.Config   `mapstructure:"log"`
}

// Default returns a 4x4 grid of 16-cell chunks with an open layout
func Default() Config {
	nav := navigation.DefaultOptions()
	return Config{
		Terrain: TerrainConfig{
			ChunksX:   4,
			ChunksY:   4,
			ChunkSize: 16,
			CellSize:  1,
		},
		Navigation: NavigationConfig{
			Workers:      nav.Workers,
			CacheMaxCost: nav.CacheMaxCost,
			BlockSealed:  nav.BlockSealedChunks,
			AgentSpeed:   parameter.AgentSpeed,
			Tick:         parameter.SimulationTick,
		},
		Obstacles: ObstacleConfig{
			Mode:     string(obstacle.ModeOpen),
			Density:  0.2,
			Braiding: 0.3,
		},
		Server: server.DefaultConfig(),
		Log:    logging.DefaultConfig(),
	}
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("terrain.chunks_x", c.Terrain.ChunksX)
	v.SetDefault("terrain.chunks_y", c.Terrain.ChunksY)
	v.SetDefault("terrain.chunk_size", c.Terrain.ChunkSize)
	v.SetDefault("terrain.cell_size", c.Terrain.CellSize)

	v.SetDefault("navigation.workers", c.Navigation.Workers)
	v.SetDefault("navigation.cache_max_cost", c.Navigation.CacheMaxCost)
	v.SetDefault("navigation.cache_ttl", c.Navigation.CacheTTL)
	v.SetDefault("navigation.block_sealed", c.Navigation.BlockSealed)
	v.SetDefault("navigation.agent_speed", c.Navigation.AgentSpeed)
	v.SetDefault("navigation.tick", c.Navigation.Tick)

	v.SetDefault("obstacles.mode", c.Obstacles.Mode)
	v.SetDefault("obstacles.density", c.Obstacles.Density)
	v.SetDefault("obstacles.braiding", c.Obstacles.Braiding)
	v.SetDefault("obstacles.seed", c.Obstacles.Seed)
	v.SetDefault("obstacles.sealed", c.Obstacles.Sealed)

	v.SetDefault("server.addr", c.Server.Addr)
	v.SetDefault("server.allow_origins", c.Server.AllowOrigins)
	v.SetDefault("server.mode", c.Server.Mode)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)

	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.max_age_days", c.Log.MaxAgeDays)
	v.SetDefault("log.compress", c.Log.Compress)
}

// Load reads envFile (if present) into the environment, then layers defaults, the config file at path
// (if non-empty) and CHUNKFLOW_* variables
func Load(path, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks dimensions, enums and ranges
func (c Config) Validate() error {
	if _, err := c.TerrainSpec(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Navigation.Workers <= 0 {
		return fmt.Errorf("config: navigation workers %d must be positive", c.Navigation.Workers)
	}
	if c.Navigation.CacheMaxCost <= 0 {
		return fmt.Errorf("config: cache max cost %d must be positive", c.Navigation.CacheMaxCost)
	}
	if c.Navigation.AgentSpeed <= 0 || c.Navigation.Tick <= 0 {
		return errors.New("config: agent speed and tick must be positive")
	}
	if _, err := c.ObstacleSpec(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: unknown server mode %q", c.Server.Mode)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// TerrainSpec builds the centered terrain
func (c Config) TerrainSpec() (grid.Terrain, error) {
	return grid.NewTerrain(c.Terrain.ChunksX, c.Terrain.ChunksY, c.Terrain.ChunkSize, c.Terrain.CellSize)
}

// NavigatorOptions maps navigation settings onto navigator options
func (c Config) NavigatorOptions() navigation.Options {
	opts := navigation.DefaultOptions()
	opts.Workers = c.Navigation.Workers
	opts.CacheMaxCost = c.Navigation.CacheMaxCost
	opts.CacheTTL = c.Navigation.CacheTTL
	opts.BlockSealedChunks = c.Navigation.BlockSealed
	return opts
}

// ObstacleSpec maps obstacle settings onto generator config
func (c Config) ObstacleSpec() (obstacle.Config, error) {
	mode, err := obstacle.ParseMode(c.Obstacles.Mode)
	if err != nil {
		return obstacle.Config{}, err
	}
	if c.Obstacles.Density < 0 || c.Obstacles.Density > 1 {
		return obstacle.Config{}, fmt.Errorf("obstacle density %.2f outside [0,1]", c.Obstacles.Density)
	}
	if c.Obstacles.Braiding < 0 || c.Obstacles.Braiding > 1 {
		return obstacle.Config{}, fmt.Errorf("obstacle braiding %.2f outside [0,1]", c.Obstacles.Braiding)
	}
	return obstacle.Config{
		Mode:     mode,
		Density:  c.Obstacles.Density,
		Braiding: c.Obstacles.Braiding,
		Seed:     c.Obstacles.Seed,
		Sealed:   c.Obstacles.Sealed,
	}, nil
}
