// Package relay wires the delivery relay: configuration, logging, storage, the
// signed provider client, webhook reconciliation and the HTTP server.
package relay

import (
	"context"

	"github.com/goliatone/go-delivery-relay/core"
)

type Config = core.Config

type ProviderConfig = core.ProviderConfig

type DatabaseConfig = core.DatabaseConfig

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// LoadConfig layers defaults, the optional YAML file at filePath and the
// environment.
func LoadConfig(ctx context.Context, filePath string) (Config, error) {
	return core.NewConfigLoader(filePath).Load(ctx)
}
