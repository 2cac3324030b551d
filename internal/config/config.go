// Package config loads the project configuration of thriftrewrite.
//
// Configuration lives in .thriftrewrite.yaml (or .yml) or .thriftrewrite.toml
// and is discovered by searching upward from the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// FileNames lists the configuration file names in lookup order.
var FileNames = []string{".thriftrewrite.yaml", ".thriftrewrite.yml", ".thriftrewrite.toml"}

// ErrUnknownFormat is returned for a configuration file with an unsupported
// extension.
var ErrUnknownFormat = errors.New("unknown configuration format")

// Config is the resolved configuration.
type Config struct {
	// Options holds rewrite engine options keyed as in rewrite.OptionsFromMap.
	Options map[string]any `yaml:"options" toml:"options"`
	// CommentRanges makes removed and moved members carry their comments.
	CommentRanges bool   `yaml:"comment_ranges" toml:"comment_ranges"`
	LogLevel      string `yaml:"log_level" toml:"log_level"`
	Color         string `yaml:"color" toml:"color"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-" toml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Options:  map[string]any{},
		LogLevel: "warn",
		Color:    ColorAuto,
	}
}

// Parse decodes data in the format named by ext (".yaml", ".yml" or ".toml")
// over the defaults.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if cfg.Options == nil {
		cfg.Options = map[string]any{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Find returns the nearest configuration file at or above dir, or "" when
// there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	for {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Resolve loads explicit when it is set, otherwise the nearest file above
// dir, otherwise the defaults.
func Resolve(explicit, dir string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the enumerated settings and the engine options.
func (c *Config) Validate() error {
	if c.Color != "" && !slices.Contains([]string{ColorAuto, ColorAlways, ColorNever}, c.Color) {
		return fmt.Errorf("color: want auto, always or never, got %q", c.Color)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	if _, err := rewrite.OptionsFromMap(c.Options); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	return nil
}

// RewriteOptions returns the engine options.
func (c *Config) RewriteOptions() (rewrite.Options, error) {
	return rewrite.OptionsFromMap(c.Options)
}

// SessionOptions returns the session options derived from c.
func (c *Config) SessionOptions() ([]rewrite.SessionOption, error) {
	opts, err := c.RewriteOptions()
	if err != nil {
		return nil, err
	}
	return []rewrite.SessionOption{
		rewrite.WithOptions(opts),
		rewrite.WithCommentRanges(c.CommentRanges),
	}, nil
}
