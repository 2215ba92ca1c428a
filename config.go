// Package butterfly provides public APIs for the Butterfly Security CLI.
//
// This package exposes minimal entry points for programs that want to reuse
// the CLI's stored credentials, while keeping implementation details in internal packages.
package butterfly

import (
	"context"

	"github.com/butterflysecurity/butterfly-cli/internal/api"
	"github.com/butterflysecurity/butterfly-cli/internal/config"
)

// Config is the configuration store for Butterfly CLI.
type Config = config.Store

// Client is the Butterfly API client.
type Client = api.Client

// LoadConfig loads the configuration the same way the CLI does.
// Sources are resolved in the following priority order:
//   - Environment variables (BUTTERFLY_*)
//   - ~/.config/butterfly/config.yaml (user config)
//   - Defaults (lowest)
func LoadConfig(ctx context.Context) (*Config, error) {
	return config.Load(ctx)
}

// NewClient creates an API client from the stored API key and URL.
// It returns an error without contacting the server when no API key is stored.
func NewClient(cfg *Config) (*Client, error) {
	return api.NewClientFromConfig(cfg)
}
