package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Create temporary config file
	content := `
server:
  port: 9090
  host: "127.0.0.1"

database:
  host: "testdb"
  port: 5432
  user: "testuser"
  password: "testpass"
  dbname: "testdb"

youtube:
  apiKey: "test-key"
  dailyQuota: 500
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Load config
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}

	if cfg.Database.Host != "testdb" {
		t.Errorf("Expected database host testdb, got %s", cfg.Database.Host)
	}

	if cfg.YouTube.DailyQuota != 500 {
		t.Errorf("Expected daily quota 500, got %d", cfg.YouTube.DailyQuota)
	}

	// Defaults should fill in everything not set in the file
	if cfg.YouTube.MaxPages != 10 {
		t.Errorf("Expected default max pages 10, got %d", cfg.YouTube.MaxPages)
	}

	if cfg.YouTube.RequestDelay != 200*time.Millisecond {
		t.Errorf("Expected default request delay 200ms, got %v", cfg.YouTube.RequestDelay)
	}

	if cfg.AI.Cooldown != time.Hour {
		t.Errorf("Expected default cooldown 1h, got %v", cfg.AI.Cooldown)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}
