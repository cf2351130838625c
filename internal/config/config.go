// Package config loads the formdef TOML configuration.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/options"
	"github.com/goliatone/go-formdef/pkg/schema"
)

var (
	// ErrConfigFileNotFound is returned when an explicitly requested file
	// does not exist.
	ErrConfigFileNotFound = errors.New("config: file not found")
	// ErrConfigVersionMismatch is returned for files written for another
	// config layout.
	ErrConfigVersionMismatch = errors.New("config: version mismatch")
	// ErrUnknownWidgetKind is returned when widgets names an unknown variant.
	ErrUnknownWidgetKind = errors.New("config: unknown widget variant")
	// ErrInvalidLogLevel is returned for unrecognised log levels.
	ErrInvalidLogLevel = errors.New("config: invalid log level")
)

// CurrentVersion is the config layout understood by this build.
const CurrentVersion = 1

// Config is the CLI configuration.
type Config struct {
	Version  int               `koanf:"version"`
	LogLevel string            `koanf:"log_level"`
	Format   string            `koanf:"format"`
	Widgets  map[string]string `koanf:"widgets"`
	Loader   Loader            `koanf:"loader"`
	Labels   Labels            `koanf:"labels"`
	Fill     Fill              `koanf:"fill"`
	Options  Options           `koanf:"options"`
}

// Loader configures schema document loading.
type Loader struct {
	AllowHTTP      bool `koanf:"allow_http"`
	TimeoutSeconds int  `koanf:"timeout_seconds"`
}

// Labels configures title handling.
type Labels struct {
	Sanitize bool `koanf:"sanitize"`
	Derive   bool `koanf:"derive"`
}

// Fill configures the interactive session.
type Fill struct {
	ItemTypeKey string `koanf:"item_type_key"`
}

// Options configures providers for async choice fields.
type Options struct {
	// BaseURL resolves relative x-endpoint URLs.
	BaseURL string `koanf:"base_url"`
	// Static maps a field key or endpoint URL to a fixed option list.
	Static map[string][]string `koanf:"static"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Version:  CurrentVersion,
		LogLevel: "info",
		Format:   string(schema.FormatAuto),
		Widgets:  map[string]string{},
		Loader: Loader{
			AllowHTTP:      false,
			TimeoutSeconds: 10,
		},
		Labels: Labels{
			Sanitize: true,
			Derive:   true,
		},
		Options: Options{
			Static: map[string][]string{},
		},
	}
}

// SearchPaths lists the files consulted when no path is given, in order.
func SearchPaths() []string {
	paths := []string{".formdef.toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "formdef", "config.toml"))
	}
	return paths
}

// Load reads path, or the first existing SearchPaths entry when path is
// empty. Missing implicit files yield Default. The returned string is the
// file actually read, empty when none was.
func Load(path string) (*Config, string, error) {
	candidates := SearchPaths()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		candidates = []string{path}
	}

	cfg := Default()
	k := koanf.New(".")
	var used string
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := k.Load(file.Provider(candidate), toml.Parser()); err != nil {
			return nil, "", fmt.Errorf("config: load %s: %w", candidate, err)
		}
		used = candidate
		break
	}
	if used == "" {
		return cfg, "", nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, "", fmt.Errorf("config: unmarshal %s: %w", used, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("%s: %w", used, err)
	}
	return cfg, used, nil
}

// Validate checks values that cannot be expressed through the TOML types.
func (c *Config) Validate() error {
	if c.Version != 0 && c.Version != CurrentVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrConfigVersionMismatch, c.Version, CurrentVersion)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := schema.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for kind := range c.Widgets {
		if !fields.Kind(kind).Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownWidgetKind, kind)
		}
	}
	if c.Options.BaseURL != "" {
		if u, err := url.Parse(c.Options.BaseURL); err != nil || !u.IsAbs() {
			return fmt.Errorf("config: options.base_url must be an absolute URL, got %q", c.Options.BaseURL)
		}
	}
	if c.Loader.TimeoutSeconds < 0 {
		return errors.New("config: loader.timeout_seconds must not be negative")
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return level, nil
}

// Timeout returns the loader timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Loader.TimeoutSeconds) * time.Second
}

// WidgetOverrides converts Widgets into converter options input.
func (c *Config) WidgetOverrides() map[fields.Kind]string {
	out := make(map[fields.Kind]string, len(c.Widgets))
	for kind, widget := range c.Widgets {
		out[fields.Kind(kind)] = widget
	}
	return out
}

// ConverterOptions maps the configuration onto fields.Converter options.
func (c *Config) ConverterOptions() []fields.Option {
	options := []fields.Option{
		fields.WithSanitize(c.Labels.Sanitize),
		fields.WithWidgets(c.WidgetOverrides()),
	}
	if !c.Labels.Derive {
		options = append(options, fields.WithLabeler(nil))
	}
	return options
}

// OptionRegistry builds the async option providers described by Options.
func (c *Config) OptionRegistry(logger *zap.Logger) (*options.Registry, error) {
	registry := options.NewRegistry(
		options.WithBaseURL(c.Options.BaseURL),
		options.WithHTTPClient(&http.Client{Timeout: c.Timeout()}),
		options.WithLogger(logger),
	)
	names := make([]string, 0, len(c.Options.Static))
	for name := range c.Options.Static {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := c.Options.Static[name]
		items := make([]any, 0, len(values))
		for _, value := range values {
			items = append(items, value)
		}
		if err := registry.Register(name, options.Static(items, options.WithEmptySearchMode(options.EmptySearchTop))); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return registry, nil
}
