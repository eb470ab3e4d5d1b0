package config

import (
	"testing"
	"time"

	"github.com/replayd/replayd/internal/bytesize"
)

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected default host '127.0.0.1', got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Expected default read timeout 30s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected default shutdown timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestApplyDefaults_Storage(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected default storage type 'memory', got %q", cfg.Storage.Type)
	}
	if cfg.Storage.Path != "./recordings" {
		t.Errorf("Expected default storage path './recordings', got %q", cfg.Storage.Path)
	}
}

func TestApplyDefaults_Proxy(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Proxy.DefaultMode != "record" {
		t.Errorf("Expected default mode 'record', got %q", cfg.Proxy.DefaultMode)
	}
	if !cfg.Proxy.ForwardHost() {
		t.Error("Expected forward_host_header to default to true")
	}
	if cfg.Proxy.MaxBodySize != 10*bytesize.MiB {
		t.Errorf("Expected default max body size 10MiB, got %v", cfg.Proxy.MaxBodySize)
	}
}

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Metrics.Enabled {
		t.Error("Expected metrics to be disabled by default")
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/replayd.log",
		},
	}
	cfg.Server.Port = 9000
	cfg.Storage.Type = "badger"
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Explicit log level overwritten: %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "/var/log/replayd.log" {
		t.Errorf("Explicit log output overwritten: %q", cfg.Logging.Output)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Explicit port overwritten: %d", cfg.Server.Port)
	}
	if cfg.Storage.Type != "badger" {
		t.Errorf("Explicit storage type overwritten: %q", cfg.Storage.Type)
	}
}
