package config

import "time"

type SessionValues struct {
	Skew          time.Duration `koanf:"skew"`
	CheckInterval time.Duration `koanf:"check_interval"`
}

type Session struct {
	v SessionValues
}

var _ SessionConfig = Session{}

// GetExpirySkew is how long before the real exp a token is already treated as expired.
func (s Session) GetExpirySkew() time.Duration {
	return s.v.Skew
}

func (s Session) GetCheckInterval() time.Duration {
	return s.v.CheckInterval
}

type LogValues struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

type Log struct {
	v LogValues
}

var _ LogConfig = Log{}

func (l Log) GetLogLevel() string {
	return l.v.Level
}

func (l Log) GetLogPretty() bool {
	return l.v.Pretty
}
