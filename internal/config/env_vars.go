package config

import "os"

const (
	envPrefix = "USERADMIN_"
	envVar    = "ENV"
)

type AppValues struct {
	Name       string `koanf:"name"`
	Env        string `koanf:"env"`
	DataFolder string `koanf:"data_folder"`
}

type EnvVars struct {
	v AppValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.v.Name
}

// GetEnv prefers USERADMIN_APP_ENV and falls back to the plain ENV variable.
func (e EnvVars) GetEnv() string {
	if e.v.Env != "" {
		return e.v.Env
	}
	return GetEnv(envVar, "DEV")
}

// GetDataFolder is where the persistent session store lives.
func (e EnvVars) GetDataFolder() string {
	return e.v.DataFolder
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
