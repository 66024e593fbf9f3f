package config

import "github.com/spf13/viper"

type Enterprise struct {
	// Hourly request allowance used when a client has none configured
	DefaultRateLimit uint32

	// Maximum number of assets accepted in one batch read
	BatchMaxAssets int

	// Maximum price age (seconds) enforced on batch reads
	BatchMaxAge uint64
}

func setEnterpriseDefaults() {
	viper.SetDefault("Enterprise.DefaultRateLimit", "1000")
	viper.SetDefault("Enterprise.BatchMaxAssets", "50")
	viper.SetDefault("Enterprise.BatchMaxAge", "300")
}
