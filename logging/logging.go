// Package logging builds the process logger: logrus with an optional rotating file sink
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json

	// File enables the rotating sink; empty logs to stderr
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig logs info and above as text to stderr
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "text",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
}

// Validate checks level and format names
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Format)
	}
	if c.File != "" && c.MaxSizeMB <= 0 {
		return fmt.Errorf("log: max size %d MB must be positive", c.MaxSizeMB)
	}
	return nil
}

// Sink is a configured logger and the file behind it, if any
type Sink struct {
	Logger *logrus.Logger
	file   *lumberjack.Logger
}

// Setup builds a logger from cfg
func Setup(cfg Config) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := logrus.ParseLevel(cfg.Level)

	logger := logrus.New()
	logger.SetLevel(level)
	if strings.ToLower(cfg.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: cfg.File != ""})
	}

	s := &Sink{Logger: logger}
	if cfg.File == "" {
		logger.SetOutput(os.Stderr)
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("log: create directory: %w", err)
	}
	s.file = &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	logger.SetOutput(s.file)
	return s, nil
}

// Rotate closes the current file and starts a new one; no-op for stderr
func (s *Sink) Rotate() error {
	if s.file == nil {
		return nil
	}
	return s.file.Rotate()
}

// Close flushes and closes the file sink; the logger falls back to discarding
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	s.Logger.SetOutput(io.Discard)
	return s.file.Close()
}

// Discard returns a logger that drops everything, for tools and tests
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
