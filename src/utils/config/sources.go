package config

import (
	"time"

	"github.com/spf13/viper"
)

type Sources struct {
	// HTTP endpoints observations are fetched from
	Endpoints []string

	RequestTimeout time.Duration

	// Fetched observations are cached for this long
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

func setSourcesDefaults() {
	viper.SetDefault("Sources.Endpoints", "")
	viper.SetDefault("Sources.RequestTimeout", "10s")
	viper.SetDefault("Sources.CacheTTL", "30s")
	viper.SetDefault("Sources.CacheCleanup", "1m")
}
