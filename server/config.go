package server

import "time"

// Config holds HTTP surface configuration
type Config struct {
	// Address to bind
	Addr string `mapstructure:"addr"`

	// AllowOrigins for CORS; empty allows any origin
	AllowOrigins []string `mapstructure:"allow_origins"`

	// Mode is the gin mode: debug | release | test
	Mode string `mapstructure:"mode"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultConfig returns the daemon defaults
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Mode:            "release",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Websocket stream tuning
const (
	streamWriteWait  = 5 * time.Second
	streamBufferSize = 8
)
