// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Repository struct {
		// Octal strings, e.g. "0644".
		FileMode string `json:"file_mode"`
		DirMode  string `json:"dir_mode"`
		Author   string `json:"author"`
	} `json:"repository"`

	Journal struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"`
	} `json:"journal"`

	LogLevel string `json:"log_level"` // debug, info, warn, error
}

func Default() *Config {
	cfg := &Config{}
	cfg.Repository.FileMode = "0644"
	cfg.Repository.DirMode = "0755"
	cfg.Journal.Enabled = true
	cfg.LogLevel = "info"
	return cfg
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Modes parses the configured octal mode strings.
func (c *Config) Modes() (fileMode, dirMode os.FileMode, err error) {
	f, err := parseMode(c.Repository.FileMode, 0644)
	if err != nil {
		return 0, 0, fmt.Errorf("file_mode: %w", err)
	}
	d, err := parseMode(c.Repository.DirMode, 0755)
	if err != nil {
		return 0, 0, fmt.Errorf("dir_mode: %w", err)
	}
	return f, d, nil
}

func parseMode(s string, fallback os.FileMode) (os.FileMode, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(n), nil
}
