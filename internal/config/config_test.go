package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := NewConfig("test-instance-abc", "/var/lib/feedback")
	original.Server.ListenAddr = "127.0.0.1:9000"
	original.Server.RequestTimeout = Duration{3 * time.Second}
	original.Database = DatabaseConfig{Type: "sqlite", DataDir: "/var/lib/feedback/db", AutoMigrate: false}
	original.Inbox.MaxExpiresInHours = 48
	original.Metrics = MetricsConfig{Enabled: false, Path: "/internal/metrics"}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.InstanceID != original.InstanceID {
		t.Errorf("InstanceID = %q, want %q", got.InstanceID, original.InstanceID)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Server.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("Server.ListenAddr = %q, want %q", got.Server.ListenAddr, "127.0.0.1:9000")
	}
	if got.Server.RequestTimeout.Duration != 3*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 3s", got.Server.RequestTimeout)
	}
	if got.Database.Type != "sqlite" || got.Database.DataDir != "/var/lib/feedback/db" {
		t.Errorf("Database = %+v, want sqlite at /var/lib/feedback/db", got.Database)
	}
	if got.Database.AutoMigrate {
		t.Error("Database.AutoMigrate = true, want false")
	}
	if got.Inbox.MaxExpiresInHours != 48 {
		t.Errorf("Inbox.MaxExpiresInHours = %d, want 48", got.Inbox.MaxExpiresInHours)
	}
	if got.Metrics.Enabled || got.Metrics.Path != "/internal/metrics" {
		t.Errorf("Metrics = %+v, want disabled at /internal/metrics", got.Metrics)
	}
}

func TestManager_Read_Defaults(t *testing.T) {
	m := &Manager{}
	got, err := m.Read(strings.NewReader("instance_id = \"x\"\n[database]\ntype = \"memory\"\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q, want default :8080", got.Server.ListenAddr)
	}
	if got.Inbox.DefaultExpiresInHours != 24 {
		t.Errorf("Inbox.DefaultExpiresInHours = %d, want 24", got.Inbox.DefaultExpiresInHours)
	}
	if got.Inbox.SignatureSeparator != "#" {
		t.Errorf("Inbox.SignatureSeparator = %q, want #", got.Inbox.SignatureSeparator)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestManager_Read_InvalidDuration(t *testing.T) {
	m := &Manager{}
	_, err := m.Read(strings.NewReader("[server]\nread_timeout = \"soon\"\n"))
	if err == nil {
		t.Fatal("Read() expected error for invalid duration")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("instance-1", "/data/feedback")

	if cfg.InstanceID != "instance-1" {
		t.Errorf("InstanceID = %q, want %q", cfg.InstanceID, "instance-1")
	}
	if cfg.LogDir != "/data/feedback/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/feedback/log")
	}
	if cfg.Database.DataDir != "/data/feedback/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/feedback/db")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "memory database needs no data dir", mutate: func(c *Config) { c.Database = DatabaseConfig{Type: "memory"} }},
		{name: "unknown database type", mutate: func(c *Config) { c.Database.Type = "postgres" }, wantErr: true},
		{name: "sqlite without data dir", mutate: func(c *Config) { c.Database.DataDir = "" }, wantErr: true},
		{name: "empty listen addr", mutate: func(c *Config) { c.Server.ListenAddr = "" }, wantErr: true},
		{name: "zero default expiry", mutate: func(c *Config) { c.Inbox.DefaultExpiresInHours = 0 }, wantErr: true},
		{name: "negative max expiry", mutate: func(c *Config) { c.Inbox.MaxExpiresInHours = -1 }, wantErr: true},
		{name: "unlimited max expiry", mutate: func(c *Config) { c.Inbox.MaxExpiresInHours = 0 }},
		{name: "default above max", mutate: func(c *Config) { c.Inbox.MaxExpiresInHours = 12 }, wantErr: true},
		{name: "zero body limit", mutate: func(c *Config) { c.Server.MaxBodyBytes = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("h", "/data")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FEEDBACK_LISTEN_ADDR", ":9999")
	t.Setenv("FEEDBACK_DATABASE_TYPE", "memory")
	t.Setenv("FEEDBACK_AUTO_MIGRATE", "false")
	t.Setenv("FEEDBACK_METRICS", "false")

	cfg := NewConfig("h", "/data")
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("Server.ListenAddr = %q, want :9999", cfg.Server.ListenAddr)
	}
	if cfg.Database.Type != "memory" {
		t.Errorf("Database.Type = %q, want memory", cfg.Database.Type)
	}
	if cfg.Database.AutoMigrate {
		t.Error("Database.AutoMigrate = true, want false")
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Database.DataDir != "/data/db" {
		t.Errorf("Database.DataDir = %q, want unchanged /data/db", cfg.Database.DataDir)
	}
}

func TestApplyEnv_InvalidBool(t *testing.T) {
	t.Setenv("FEEDBACK_AUTO_MIGRATE", "sometimes")

	if err := ApplyEnv(NewConfig("h", "/data")); err == nil {
		t.Fatal("ApplyEnv() expected error for invalid bool")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "feedback.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "feedback.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "feedback.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.InstanceID != "read-test" {
			t.Errorf("InstanceID = %q, want %q", got.InstanceID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/feedback.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
