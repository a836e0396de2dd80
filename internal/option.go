package internal

import "github.com/aidanlowrie/MCP-Servers/internal/settings"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	settings settings.Store
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSettingsStore overrides the settings store, mainly for tests.
func WithSettingsStore(s settings.Store) Option {
	return func(a *application) {
		a.settings = s
	}
}
