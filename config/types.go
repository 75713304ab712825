package config

import "github.com/theoremus-urban-solutions/gtfs-io/gtfs"

// GTFSConfig points at a static feed: an http(s) URL, a zip file or a directory
type GTFSConfig struct {
	Source string `yaml:"source" validate:"required"`
}

// SQLiteConfig contains the export database settings
type SQLiteConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// Feed represents a single named GTFS feed
type Feed struct {
	Name string     `yaml:"name" validate:"required"`
	GTFS GTFSConfig `yaml:"gtfs" validate:"required"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Reader gtfs.ReaderOptions `yaml:"reader"`
	Writer gtfs.WriterOptions `yaml:"writer"`
	SQLite SQLiteConfig       `yaml:"sqlite"`
	GTFS   GTFSConfig         `yaml:"gtfs"`
	Feeds  []Feed             `yaml:"feeds" validate:"dive"`
}
