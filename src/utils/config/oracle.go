package config

import "github.com/spf13/viper"

type Oracle struct {
	// Submissions below this confidence score are rejected
	MinConfidence uint32

	// Price feeds older than this (seconds of ledger time) are unusable
	MaxPriceAge uint64

	// Instance storage lifetime extension, applied on initialization
	InstanceTTLThreshold uint64
	InstanceTTLAmount    uint64
}

func setOracleDefaults() {
	viper.SetDefault("Oracle.MinConfidence", "80")
	viper.SetDefault("Oracle.MaxPriceAge", "3600")
	viper.SetDefault("Oracle.InstanceTTLThreshold", "103680")
	viper.SetDefault("Oracle.InstanceTTLAmount", "120960")
}
