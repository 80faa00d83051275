// Package config bootstraps cabinet from ~/.config/cabinet/config.json and
// CABINET_* environment variables. The resulting struct is built once at
// process start and handed to the store, writer, and query constructors.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	DataDir    string `json:"data_dir"`    // settings.json and the sqlite db live here
	LogDir     string `json:"log_dir"`     // log root, defaults to <DataDir>/log
	Editor     string `json:"editor"`      // for `cabinet edit`
	Backend    string `json:"backend"`     // json or sqlite
	Collection string `json:"collection"` // sqlite document collection
	Hostname   string `json:"-"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(Dir())
	v.SetEnvPrefix("CABINET")
	v.AutomaticEnv()

	v.SetDefault("data_dir", filepath.Join(home, ".cabinet"))
	v.SetDefault("log_dir", "")
	v.SetDefault("editor", "vim")
	v.SetDefault("backend", BackendJSON)
	v.SetDefault("collection", "cabinet")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		DataDir:    expandPath(v.GetString("data_dir"), home),
		LogDir:     expandPath(v.GetString("log_dir"), home),
		Editor:     v.GetString("editor"),
		Backend:    v.GetString("backend"),
		Collection: v.GetString("collection"),
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.DataDir, "log")
	}
	if cfg.Backend != BackendJSON && cfg.Backend != BackendSQLite {
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if host, err := os.Hostname(); err == nil {
		cfg.Hostname = host
	}
	return cfg, nil
}

// Dir is where the bootstrap config file lives.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/cabinet"
	}
	return filepath.Join(home, ".config", "cabinet")
}

// Save writes the config back, for the interactive wizard.
func (c *Config) Save() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SQLitePath is the document-database file under the data directory.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "cabinet.db")
}

func expandPath(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}
