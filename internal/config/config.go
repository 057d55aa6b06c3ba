// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete deepscan store configuration.
type Config struct {
	// DataDir is the directory holding the store database.
	// Default: ~/.deepscan
	DataDir string `toml:"data_dir"`

	// DatabaseFile is the database filename inside DataDir.
	DatabaseFile string `toml:"database_file"`

	// DefaultModel is the model assigned to new chats when none is given.
	DefaultModel string `toml:"default_model"`

	// Export configures snapshot files.
	Export ExportConfig `toml:"export"`

	// Knowledge configures the knowledge document store.
	Knowledge KnowledgeConfig `toml:"knowledge"`
}

// ExportConfig configures where export payload files are written.
type ExportConfig struct {
	// OutputDir is the directory for export files.
	// Default: current working directory.
	OutputDir string `toml:"output_dir"`
}

// KnowledgeConfig configures the knowledge inbox watcher.
type KnowledgeConfig struct {
	// InboxDir, when set, is watched for dropped files to auto-import.
	InboxDir string `toml:"inbox_dir"`

	// WatchDebounceMs is the settle time before a changed file is imported.
	WatchDebounceMs int `toml:"watch_debounce_ms"`
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".deepscan")
	}
	return &Config{
		DataDir:      dataDir,
		DatabaseFile: "deepscan.db",
		DefaultModel: "deepseek-v3",
		Knowledge: KnowledgeConfig{
			WatchDebounceMs: 500,
		},
	}
}

// Load reads ~/.deepscan/config.toml over the defaults. A missing file is
// not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	if path := configPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, err
			}
		}
	}

	// Environment override wins over file and defaults.
	if dir := os.Getenv("DEEPSCAN_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	return cfg, nil
}

// DatabasePath returns the full path of the store database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".deepscan", "config.toml")
}
