package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup_StderrByDefault(t *testing.T) {
	sink, err := Setup(DefaultConfig())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer sink.Close()

	if sink.Logger.Out != os.Stderr {
		t.Errorf("Expected stderr output, got %v", sink.Logger.Out)
	}
	if sink.Logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info level, got %v", sink.Logger.GetLevel())
	}
	if err := sink.Rotate(); err != nil {
		t.Errorf("Expected no-op rotate, got %v", err)
	}
}

func TestSetup_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	if _, err := Setup(cfg); err == nil {
		t.Error("Expected error for unknown level")
	}

	cfg = DefaultConfig()
	cfg.Format = "xml"
	if _, err := Setup(cfg); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestSetup_FileSink(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.File = filepath.Join(dir, "logs", "chunkflow.log")
	cfg.Format = "json"

	sink, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer sink.Close()

	if sink.Logger.Out == os.Stdout || sink.Logger.Out == os.Stderr {
		t.Error("File sink should not write to stdout or stderr")
	}

	sink.Logger.WithField("chunk", 3).Info("Test log message")

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"chunk":3`) {
		t.Errorf("Expected JSON field in log file, got %q", data)
	}
}

func TestSetup_Rotation(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.File = filepath.Join(dir, "chunkflow.log")
	cfg.MaxSizeMB = 1

	sink, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer sink.Close()

	// Write just over 1MB in entries well below the size limit
	payload := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		sink.Logger.Info(payload)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}
	rotatedFound := false
	for _, entry := range entries {
		if entry.Name() != "chunkflow.log" && filepath.Ext(entry.Name()) == ".log" {
			rotatedFound = true
			break
		}
	}
	if !rotatedFound {
		t.Error("Expected to find rotated log file")
	}

	info, err := os.Stat(cfg.File)
	if err != nil {
		t.Fatalf("Failed to stat log file: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Errorf("Expected current log file under 1MB, got %d", info.Size())
	}
}
