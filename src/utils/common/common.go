package common

import (
	"context"

	"github.com/kalemarkets/settler/src/utils/config"
)

type contextKey int

const configKey contextKey = iota

// SetConfig puts the global configuration into the context
func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

// GetConfig gets the global configuration from the context
func GetConfig(ctx context.Context) *config.Config {
	return ctx.Value(configKey).(*config.Config)
}
