package config

import "github.com/spf13/viper"

type Market struct {
	// Confidence the oracle feed must carry for resolution
	ResolutionConfidence uint32

	// Instance storage lifetime extension, applied on initialization
	InstanceTTLThreshold uint64
	InstanceTTLAmount    uint64
}

func setMarketDefaults() {
	viper.SetDefault("Market.ResolutionConfidence", "80")
	viper.SetDefault("Market.InstanceTTLThreshold", "103680")
	viper.SetDefault("Market.InstanceTTLAmount", "120960")
}
