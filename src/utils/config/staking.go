package config

import "github.com/spf13/viper"

type Staking struct {
	// Tokens accrued by the global reward pool per second of ledger time
	RewardRatePerSecond int64

	// Smallest stake accepted
	MinStakeAmount int64

	// Instance storage lifetime extension, applied on initialization and
	// refreshed on every stake
	InstanceTTLThreshold uint64
	InstanceTTLAmount    uint64
}

func setStakingDefaults() {
	viper.SetDefault("Staking.RewardRatePerSecond", "1")
	viper.SetDefault("Staking.MinStakeAmount", "10000000")
	viper.SetDefault("Staking.InstanceTTLThreshold", "103680")
	viper.SetDefault("Staking.InstanceTTLAmount", "120960")
}
