// Package config loads the optional canvaz configuration file.
//
// The file is YAML (canvaz.yaml, canvaz.yml) or TOML (canvaz.toml):
//
//	version: v1.0.0
//	log:
//	  level: info
//	  format: text
//	color: true
//	max_call_depth: 1024
//	host:
//	  frames: 120
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Version is the configuration format version written by this release.
const Version = "v1.0.0"

// Names lists the files Find looks for, in order.
var Names = []string{"canvaz.yaml", "canvaz.yml", "canvaz.toml"}

// Config is the decoded configuration file.
type Config struct {
	Version      string `yaml:"version" toml:"version"`
	Log          Log    `yaml:"log" toml:"log"`
	Color        bool   `yaml:"color" toml:"color"`
	MaxCallDepth int    `yaml:"max_call_depth" toml:"max_call_depth"`
	Host         Host   `yaml:"host" toml:"host"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

// Log configures the slog handler built by Logger.
type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text | json
}

// Host configures the headless host.
type Host struct {
	Frames int `yaml:"frames" toml:"frames"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version: Version,
		Log:     Log{Level: "error", Format: "text"},
		Color:   true,
		Host:    Host{Frames: 60},
	}
}

// Load reads and validates the file at path. Fields the file leaves out keep
// their default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := Default()
	cfg.Path = path
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = decodeTOML(f, cfg)
	default:
		err = decodeYAML(f, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Find loads the first of Names present in dir. A directory without a
// configuration file yields Default.
func Find(dir string) (*Config, error) {
	for _, name := range Names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
		return Load(path)
	}
	return Default(), nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(r io.Reader, cfg *Config) error {
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown field %q", undecoded[0].String())
	}
	return nil
}

// Validate checks the version and the enumerated fields.
func (c *Config) Validate() error {
	if !semver.IsValid(c.Version) {
		return fmt.Errorf("invalid version %q", c.Version)
	}
	if major := semver.Major(c.Version); major != semver.Major(Version) {
		return fmt.Errorf("unsupported version %s, want %s.x.x", c.Version, semver.Major(Version))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.MaxCallDepth < 0 {
		return fmt.Errorf("max_call_depth must not be negative, got %d", c.MaxCallDepth)
	}
	if c.Host.Frames < 0 {
		return fmt.Errorf("host.frames must not be negative, got %d", c.Host.Frames)
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "", "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Logger builds the logger described by the configuration, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
