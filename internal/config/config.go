package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	LogConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetDataFolder() string
}

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
}

type SessionConfig interface {
	GetExpirySkew() time.Duration
	GetCheckInterval() time.Duration
}

type LogConfig interface {
	GetLogLevel() string
	GetLogPretty() bool
}

// Values is the koanf-mapped shape of the configuration tree.
type Values struct {
	App     AppValues     `koanf:"app"`
	API     APIValues     `koanf:"api"`
	Session SessionValues `koanf:"session"`
	Log     LogValues     `koanf:"log"`
}

type mainConfig struct {
	EnvVars
	API
	Session
	Log
}

// New returns the configuration built from defaults and USERADMIN_ environment variables.
func New() (Config, error) {
	return Load()
}

// Load reads defaults, then the optional YAML file, then the environment.
func Load(opts ...Option) (Config, error) {
	var v Values
	if err := NewLoader(opts...).Load(&v); err != nil {
		return nil, err
	}
	return FromValues(v), nil
}

// FromValues wraps already-populated values, mostly for tests.
func FromValues(v Values) Config {
	return mainConfig{
		EnvVars: EnvVars{v: v.App},
		API:     API{v: v.API},
		Session: Session{v: v.Session},
		Log:     Log{v: v.Log},
	}
}
