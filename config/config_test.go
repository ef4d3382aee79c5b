package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/chunkflow/obstacle"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Expected valid defaults, got %v\n%s", err, spew.Sdump(c))
	}
	ter, err := c.TerrainSpec()
	if err != nil || ter.NumChunks() != 16 || ter.ChunkSize != 16 {
		t.Errorf("unexpected terrain %+v, %v", ter, err)
	}
	if opts := c.NavigatorOptions(); opts.Workers != c.Navigation.Workers || !opts.BlockSealedChunks {
		t.Errorf("unexpected navigator options %+v", opts)
	}
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Terrain.ChunksX != 4 || c.Server.Addr != ":8080" || c.Navigation.Tick != 100*time.Millisecond {
		t.Errorf("unexpected config\n%s", spew.Sdump(c))
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunkflow.yaml")
	yaml := `terrain:
  chunks_x: 8
  chunk_size: 32
obstacles:
  mode: maze
  braiding: 0.5
navigation:
  tick: 50ms
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHUNKFLOW_TERRAIN_CHUNK_SIZE", "24")
	t.Setenv("CHUNKFLOW_LOG_LEVEL", "debug")

	c, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Terrain.ChunksX != 8 {
		t.Errorf("Expected chunks_x 8 from file, got %d", c.Terrain.ChunksX)
	}
	if c.Terrain.ChunkSize != 24 {
		t.Errorf("Expected env to override chunk size to 24, got %d", c.Terrain.ChunkSize)
	}
	if c.Terrain.ChunksY != 4 {
		t.Errorf("Expected default chunks_y 4, got %d", c.Terrain.ChunksY)
	}
	if c.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", c.Log.Level)
	}
	if c.Navigation.Tick != 50*time.Millisecond {
		t.Errorf("Expected tick 50ms, got %v", c.Navigation.Tick)
	}
	spec, err := c.ObstacleSpec()
	if err != nil || spec.Mode != obstacle.ModeMaze || spec.Braiding != 0.5 {
		t.Errorf("unexpected obstacle spec %+v, %v", spec, err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "CHUNKFLOW_SERVER_ADDR"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s already set", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte(key+"=127.0.0.1:9090\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	c, err := Load("", envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != "127.0.0.1:9090" {
		t.Errorf("Expected addr from .env, got %q", c.Server.Addr)
	}

	// A missing .env is not an error
	if _, err := Load("", filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Expected missing .env to be ignored, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"zero chunk size": func(c *Config) { c.Terrain.ChunkSize = 0 },
		"no workers":      func(c *Config) { c.Navigation.Workers = 0 },
		"bad mode":        func(c *Config) { c.Obstacles.Mode = "lava" },
		"bad density":     func(c *Config) { c.Obstacles.Density = 2 },
		"bad gin mode":    func(c *Config) { c.Server.Mode = "turbo" },
		"bad log level":   func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		c := Default()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("Expected error for missing config file")
	}
}
