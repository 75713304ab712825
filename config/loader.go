package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the global application configuration
var Config AppConfig

// DefaultPaths are searched in order by LoadAppConfig.
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// LoadAppConfig loads and validates the application configuration from the
// first of DefaultPaths that exists.
func LoadAppConfig() error {
	var data []byte
	var err error
	for _, p := range DefaultPaths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	return load(data)
}

// LoadAppConfigFrom loads and validates the configuration file at path.
func LoadAppConfigFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return load(data)
}

func load(data []byte) error {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg.Reader); err != nil {
		return err
	}
	if err := v.Struct(cfg.Writer); err != nil {
		return err
	}
	if err := v.Struct(cfg.SQLite); err != nil {
		return err
	}
	// feeds are optional; if present validate each
	for _, f := range cfg.Feeds {
		if err := v.Struct(f); err != nil {
			return err
		}
	}
	Config = cfg
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if enc, err := cfg.Writer.Encode.WithDefaults(); err == nil {
		cfg.Writer.Encode = enc
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "gtfs.db"
	}
}

// SelectFeed chooses a feed by name; fallback to first; if none, use top-level GTFS.
func SelectFeed(name string) GTFSConfig {
	if name != "" {
		for _, f := range Config.Feeds {
			if f.Name == name {
				return f.GTFS
			}
		}
	}
	if len(Config.Feeds) > 0 {
		return Config.Feeds[0].GTFS
	}
	return Config.GTFS
}
