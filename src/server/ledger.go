package server

import (
	"context"

	"github.com/kalemarkets/settler/src/contracts/enterprise"
	"github.com/kalemarkets/settler/src/contracts/eventbus"
	"github.com/kalemarkets/settler/src/contracts/factory"
	"github.com/kalemarkets/settler/src/contracts/market"
	"github.com/kalemarkets/settler/src/contracts/staking"
	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/logger"
	"github.com/kalemarkets/settler/src/utils/model"
	"github.com/kalemarkets/settler/src/utils/monitoring"
	"github.com/kalemarkets/settler/src/utils/sources"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Ledger assembles the host runtime and the singleton contracts on top of
// the configured store. Events committed by any contract flow into Events.
type Ledger struct {
	config  *config.Config
	store   host.Store
	monitor monitoring.Monitor

	DB     *gorm.DB
	Auth   *host.SessionAuthorizer
	Events chan types.ContractEvent

	Enterprise *enterprise.Contract
	Staking    *staking.Contract
	Factory    *factory.Contract
	Bus        *eventbus.Contract
	Markets    *market.Deployer

	Log *logrus.Entry
}

func NewLedger(ctx context.Context, config *config.Config) (self *Ledger, err error) {
	self = new(Ledger)
	self.config = config
	self.monitor = monitoring.NewNilMonitor()
	self.Log = logger.NewSublogger("ledger")
	self.Events = make(chan types.ContractEvent, config.EventBus.ArchiveBatchSize*2)

	if config.Database.InMemory {
		self.store = host.NewMemoryStore()
	} else {
		self.DB, err = model.NewConnection(ctx, config, "settler")
		if err != nil {
			return
		}
		self.store = model.NewLedgerStore(ctx, self.DB)
	}

	self.Auth = host.NewSessionAuthorizer()

	sink := host.FuncSink(func(event types.ContractEvent) {
		self.monitor.GetReport().Contracts.State.EventsEmitted.Inc()
		select {
		case self.Events <- event:
		default:
			self.Log.WithField("type", event.Type.String()).
				Warn("Event stream full, event dropped")
		}
	})
	env := host.NewEnv(self.store, host.SystemClock{}, self.Auth, sink)

	var provider sources.Provider = sources.StaticProvider{}
	if len(config.Sources.Endpoints) > 0 {
		provider = sources.NewHTTPProvider(config)
	}

	self.Enterprise = enterprise.NewContract(
		config,
		env.ForContract(types.Address(config.Ledger.OracleAddress)),
		provider,
		sources.VolumeWeightedMedian{},
	)
	self.Staking = staking.NewContract(config, env.ForContract(types.Address(config.Ledger.StakingAddress)))
	self.Markets = market.NewDeployer(config, env, self.Enterprise.Contract)
	self.Factory = factory.NewContract(config, env.ForContract(types.Address(config.Ledger.FactoryAddress)), self.Markets)
	self.Bus = eventbus.NewContract(config, env.ForContract(types.Address(config.Ledger.EventBusAddress)))

	return
}

func (self *Ledger) WithMonitor(monitor monitoring.Monitor) *Ledger {
	self.monitor = monitor
	return self
}

// Initialized reports whether the underlying store already carries a
// bootstrapped ledger.
func (self *Ledger) Initialized() bool {
	_, _, err := self.Enterprise.GetConfig()
	return err == nil
}

// Bootstrap initializes every singleton contract and registers the emitting
// ones on the event bus. On a development ledger the admin also gets a token
// balance to work with. Not idempotent, check Initialized first.
func (self *Ledger) Bootstrap() (err error) {
	admin := types.Address(self.config.Ledger.AdminAddress)

	// Initialization runs admin-gated entry points before any request
	// principal exists
	self.Auth.SetPrincipal(admin)
	defer self.Auth.Clear()

	err = self.Enterprise.Initialize(admin, self.config.Oracle.MinConfidence, self.config.Oracle.MaxPriceAge)
	if err != nil {
		return
	}

	err = self.Staking.Initialize(admin, self.config.Staking.RewardRatePerSecond, self.config.Staking.MinStakeAmount)
	if err != nil {
		return
	}

	err = self.Factory.Initialize(
		admin,
		types.Address(self.config.Ledger.OracleAddress),
		self.config.Factory.CreatorFeeRate,
		self.config.Factory.MinMarketFee,
	)
	if err != nil {
		return
	}

	err = self.Bus.Initialize(admin)
	if err != nil {
		return
	}
	err = self.Bus.RegisterContract(admin, types.Address(self.config.Ledger.OracleAddress), eventbus.TagOracle)
	if err != nil {
		return
	}
	err = self.Bus.RegisterContract(admin, types.Address(self.config.Ledger.StakingAddress), eventbus.TagStaking)
	if err != nil {
		return
	}
	err = self.Bus.RegisterContract(admin, types.Address(self.config.Ledger.FactoryAddress), eventbus.TagMarketFactory)
	if err != nil {
		return
	}

	if self.config.IsDevelopment && self.config.Ledger.DevMintAmount > 0 {
		err = host.NewTokenLedger(self.store).Mint(admin, self.config.Ledger.DevMintAmount)
		if err != nil {
			return
		}
		self.Log.WithField("amount", self.config.Ledger.DevMintAmount).
			Info("Minted development balance for the admin")
	}

	self.Log.Info("Ledger bootstrapped")
	return
}

// RestoreMarkets reattaches handles for markets deployed in earlier runs, so
// the gateway can reach them after a restart.
func (self *Ledger) RestoreMarkets() (err error) {
	catalogue, err := self.Factory.GetMarkets()
	if err != nil {
		return
	}
	for _, addr := range catalogue {
		self.Markets.Attach(addr)
	}
	if len(catalogue) > 0 {
		self.Log.WithField("markets", len(catalogue)).Info("Restored deployed markets")
	}
	return
}
