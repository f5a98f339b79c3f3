package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"feedback-go/internal/config"
)

// LoadDotEnv loads variables from path (".env" when empty) into the
// environment. A missing file is not an error; variables already set win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - FEEDBACK_CONFIG_PATH: config file location (default: ~/.config/feedback.toml)
//   - FEEDBACK_HOME: base directory for feedback data (default: ~/.local/share/feedback)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"data_dir":    filepath.Join(baseDir, "db"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("FEEDBACK_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "feedback.toml"), nil
}

// getBaseDir returns the base directory for feedback data, checking FEEDBACK_HOME first,
// then falling back to the XDG default ~/.local/share/feedback.
func getBaseDir() (string, error) {
	if path := os.Getenv("FEEDBACK_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "feedback"), nil
}

// LoadConfig reads the config file at path and applies FEEDBACK_* overrides.
// When the file does not exist the defaults of config.NewConfig are used
// with baseDir, so the server can run from the environment alone.
func LoadConfig(path, baseDir string) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg = config.NewConfig("", baseDir)
	} else {
		cfg, err = config.ReadFromFile(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
