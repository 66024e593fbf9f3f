package config

import "github.com/spf13/viper"

type Factory struct {
	// Anti-spam fee charged on market creation
	MinMarketFee int64

	// Default creator fee in basis points
	CreatorFeeRate uint32

	// Allowed market duration bounds, seconds
	MinMarketDuration uint64
	MaxMarketDuration uint64

	// Instance storage lifetime extension, applied on initialization
	InstanceTTLThreshold uint64
	InstanceTTLAmount    uint64
}

func setFactoryDefaults() {
	viper.SetDefault("Factory.MinMarketFee", "10000000")
	viper.SetDefault("Factory.CreatorFeeRate", "100")
	viper.SetDefault("Factory.MinMarketDuration", "3600")
	viper.SetDefault("Factory.MaxMarketDuration", "2592000")
	viper.SetDefault("Factory.InstanceTTLThreshold", "103680")
	viper.SetDefault("Factory.InstanceTTLAmount", "120960")
}
