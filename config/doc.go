// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// It holds the reader, writer and SQLite settings and a list of named feeds
// that can be selected by name.
package config
