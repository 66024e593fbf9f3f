package config

import "github.com/spf13/viper"

type Ledger struct {
	// Address holding admin rights over every contract
	AdminAddress string

	// Addresses the singleton contracts are deployed under. The enterprise
	// gateway shares the oracle's address and keyspace.
	OracleAddress   string
	StakingAddress  string
	FactoryAddress  string
	EventBusAddress string

	// Tokens minted to the admin when a development ledger is bootstrapped
	DevMintAmount int64
}

func setLedgerDefaults() {
	viper.SetDefault("Ledger.AdminAddress", "ADMIN")
	viper.SetDefault("Ledger.OracleAddress", "ORACLE")
	viper.SetDefault("Ledger.StakingAddress", "STAKING")
	viper.SetDefault("Ledger.FactoryAddress", "FACTORY")
	viper.SetDefault("Ledger.EventBusAddress", "EVENT_BUS")
	viper.SetDefault("Ledger.DevMintAmount", "1000000000")
}
