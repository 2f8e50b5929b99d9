// Package config loads gridstyle configuration from file, environment
// variables, and CLI flags. It is decoupled from command wiring so the HTTP
// service and tests can load project configuration the same way the CLI does.
package config

import (
	"path/filepath"
)

// Default configuration values.
const (
	DefaultProfile      = "default"
	DefaultInstanceID   = "grid"
	DefaultStoreBackend = "file"
	DefaultProfilesDir  = ".gridstyle/profiles"
	DefaultSQLitePath   = ".gridstyle/gridstyle.db"
	DefaultHTTPAddr     = ":8080"
	DefaultOutput       = "table"
	DefaultColor        = "auto"
)

// StoreConfig selects and configures the rule store backend.
type StoreConfig struct {
	// Backend is one of "file", "sqlite", "postgres".
	Backend string `koanf:"backend"`
	// Path is the profiles directory (file) or database file (sqlite).
	Path string `koanf:"path"`
	// DSN is the connection string for postgres. ${VAR} references are
	// expanded from the environment at load time.
	DSN string `koanf:"dsn"`
}

// Config holds the full gridstyle configuration.
type Config struct {
	// ProjectRoot is the resolved project directory. Set by the loader,
	// not read from the config file.
	ProjectRoot string `koanf:"-"`

	// Profile is the rule profile the commands operate on.
	Profile string `koanf:"profile"`
	// InstanceID namespaces generated class names per grid instance.
	InstanceID string `koanf:"instance_id"`
	// FeedPath points at the CSV or JSON data feed for preview/watch.
	FeedPath string `koanf:"feed"`
	// TemplatesDir holds user rule templates in addition to the embedded set.
	TemplatesDir string `koanf:"templates_dir"`
	// HTTPAddr is the listen address for gridstyle serve.
	HTTPAddr string `koanf:"http_addr"`
	// Output selects the CLI render format: table, json, csv.
	Output string `koanf:"output"`
	// Color controls terminal styling: auto, always, never.
	Color string `koanf:"color"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`

	Store StoreConfig `koanf:"store"`
}

// ApplyDefaults fills unset fields and resolves relative store paths
// against the project root.
func (c *Config) ApplyDefaults() {
	if c.Profile == "" {
		c.Profile = DefaultProfile
	}
	if c.InstanceID == "" {
		c.InstanceID = DefaultInstanceID
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Store.Path == "" {
		switch c.Store.Backend {
		case "sqlite":
			c.Store.Path = DefaultSQLitePath
		default:
			c.Store.Path = DefaultProfilesDir
		}
	}

	if c.Store.Path != ":memory:" {
		c.Store.Path = resolvePathRelativeTo(c.Store.Path, c.ProjectRoot)
	}
	c.FeedPath = resolvePathRelativeTo(c.FeedPath, c.ProjectRoot)
	c.TemplatesDir = resolvePathRelativeTo(c.TemplatesDir, c.ProjectRoot)
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
