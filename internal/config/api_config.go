package config

import "time"

type APIValues struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type API struct {
	v APIValues
}

var _ APIConfig = API{}

// GetBaseURL returns the backend root every request path is appended to
func (a API) GetBaseURL() string {
	return a.v.BaseURL
}

func (a API) GetRequestTimeout() time.Duration {
	return a.v.Timeout
}
