package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the main configuration for the feedback server.
type Config struct {
	InstanceID string         `toml:"instance_id"`
	BaseDir    string         `toml:"base_dir"`
	LogDir     string         `toml:"log_dir"`
	Server     ServerConfig   `toml:"server"`
	Database   DatabaseConfig `toml:"database"`
	Inbox      InboxConfig    `toml:"inbox"`
	Metrics    MetricsConfig  `toml:"metrics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	RequestTimeout  Duration `toml:"request_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64    `toml:"max_body_bytes"`
}

// DatabaseConfig represents configuration for the inbox database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
	// AutoMigrate applies pending migrations on startup instead of refusing to start.
	AutoMigrate bool `toml:"auto_migrate"`
}

// InboxConfig holds the inbox policy.
type InboxConfig struct {
	DefaultExpiresInHours int    `toml:"default_expires_in_hours"`
	MaxExpiresInHours     int    `toml:"max_expires_in_hours"`
	SignatureSeparator    string `toml:"signature_separator"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Duration is a time.Duration that reads and writes as a string like "15s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// NewConfig creates a new Config with the provided values and defaults for everything else.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID: instanceID,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{10 * time.Second},
			RequestTimeout:  Duration{5 * time.Second},
			ShutdownTimeout: Duration{15 * time.Second},
			MaxBodyBytes:    64 << 10,
		},
		Database: DatabaseConfig{
			Type:        "sqlite",
			DataDir:     filepath.Join(baseDir, "db"),
			AutoMigrate: true,
		},
		Inbox: InboxConfig{
			DefaultExpiresInHours: 24,
			MaxExpiresInHours:     30 * 24,
			SignatureSeparator:    "#",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must be set")
	}
	switch c.Database.Type {
	case "memory":
	case "sqlite":
		if c.Database.DataDir == "" {
			return fmt.Errorf("database.data_dir required for sqlite database")
		}
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}
	if c.Inbox.DefaultExpiresInHours <= 0 {
		return fmt.Errorf("inbox.default_expires_in_hours must be positive, got %d", c.Inbox.DefaultExpiresInHours)
	}
	if c.Inbox.MaxExpiresInHours < 0 {
		return fmt.Errorf("inbox.max_expires_in_hours must not be negative, got %d", c.Inbox.MaxExpiresInHours)
	}
	if c.Inbox.MaxExpiresInHours > 0 && c.Inbox.DefaultExpiresInHours > c.Inbox.MaxExpiresInHours {
		return fmt.Errorf("inbox.default_expires_in_hours (%d) exceeds max_expires_in_hours (%d)",
			c.Inbox.DefaultExpiresInHours, c.Inbox.MaxExpiresInHours)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

// envOverrides lists the settings that can be overridden from the
// environment, e.g. FEEDBACK_LISTEN_ADDR=:9090.
type envOverrides struct {
	ListenAddr   string `split_words:"true"`
	DatabaseType string `split_words:"true"`
	DataDir      string `split_words:"true"`
	LogDir       string `split_words:"true"`
	AutoMigrate  *bool  `split_words:"true"`
	Metrics      *bool
}

// ApplyEnv overrides cfg fields from FEEDBACK_* environment variables.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("feedback", &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if env.ListenAddr != "" {
		cfg.Server.ListenAddr = env.ListenAddr
	}
	if env.DatabaseType != "" {
		cfg.Database.Type = env.DatabaseType
	}
	if env.DataDir != "" {
		cfg.Database.DataDir = env.DataDir
	}
	if env.LogDir != "" {
		cfg.LogDir = env.LogDir
	}
	if env.AutoMigrate != nil {
		cfg.Database.AutoMigrate = *env.AutoMigrate
	}
	if env.Metrics != nil {
		cfg.Metrics.Enabled = *env.Metrics
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
// Keys missing from the input keep the values of NewConfig("", "").
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := NewConfig("", "")
	cfg.LogDir = ""
	cfg.Database.DataDir = ""
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
