package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultBaseURL       = "https://qa-api-task-production.up.railway.app"
	defaultTimeout       = 30 * time.Second
	defaultSkew          = 300 * time.Second
	defaultCheckInterval = 60 * time.Second
)

// Loader layers configuration sources: defaults, YAML file, environment.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithConfigFile sets an optional YAML file. An empty path is ignored.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithEnvPrefix replaces the USERADMIN_ prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithOverrides applies values on top of every other source, e.g. from CLI flags.
// Keys are nested maps in the same shape as the YAML file.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: envPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaults() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name":        "User Admin",
			"env":         "",
			"data_folder": "./data",
		},
		"api": map[string]any{
			"base_url": defaultBaseURL,
			"timeout":  defaultTimeout,
		},
		"session": map[string]any{
			"skew":           defaultSkew,
			"check_interval": defaultCheckInterval,
		},
		"log": map[string]any{
			"level":  "info",
			"pretty": true,
		},
	}
}

// Load populates target. Later sources override earlier ones.
func (l *Loader) Load(target *Values) error {
	if err := l.k.Load(mapProvider(defaults()), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	// USERADMIN_API_BASE_URL -> api.base_url
	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		return strings.Replace(s, "_", ".", 1)
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if len(l.overrides) > 0 {
		if err := l.k.Load(mapProvider(l.overrides), nil); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return validate(target)
}

func validate(v *Values) error {
	if v.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if v.Session.CheckInterval <= 0 {
		return fmt.Errorf("session.check_interval must be positive, got %s", v.Session.CheckInterval)
	}
	if v.Session.Skew < 0 {
		return fmt.Errorf("session.skew must not be negative, got %s", v.Session.Skew)
	}
	return nil
}

var errReadBytesNotSupported = errors.New("config: ReadBytes not supported by map provider")

// mapProvider feeds an in-memory map to koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
