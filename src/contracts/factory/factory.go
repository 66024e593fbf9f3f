package factory

import (
	"github.com/kalemarkets/settler/src/contracts/market"
	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/logger"

	"github.com/sirupsen/logrus"
)

const (
	keyConfig      = "config"
	keyMarketCount = "market_count"
	keyCatalogue   = "markets"
)

const maxCreatorFeeBps = 1000

// Deployer is the external primitive that instantiates a market contract
// and returns its address.
type Deployer interface {
	Deploy(params market.Params) (types.Address, error)
}

// FactoryConfig is the instance-tier singleton behind admin-gated setters.
type FactoryConfig struct {
	Admin             types.Address `json:"admin"`
	OracleAddress     types.Address `json:"oracle_address"`
	CreatorFeeRate    uint32        `json:"creator_fee_rate"`
	MinMarketFee      int64         `json:"min_market_fee"`
	MinMarketDuration uint64        `json:"min_market_duration"`
	MaxMarketDuration uint64        `json:"max_market_duration"`
}

// Contract validates and instantiates prediction markets and tracks the
// catalogue of everything it deployed.
type Contract struct {
	Config   *config.Factory
	Env      *host.Env
	Deployer Deployer
	Log      *logrus.Entry
}

func NewContract(cfg *config.Config, env *host.Env, deployer Deployer) *Contract {
	return &Contract{
		Config:   &cfg.Factory,
		Env:      env,
		Deployer: deployer,
		Log:      logger.NewSublogger("factory"),
	}
}

func (self *Contract) Initialize(admin, oracleAddress types.Address, creatorFeeRate uint32, minMarketFee int64) error {
	return self.Env.Transact(func(env *host.Env) error {
		ok, err := env.HasInstance(keyConfig)
		if err != nil {
			return err
		}
		if ok {
			return types.ErrNotAuthorized
		}

		err = env.SetInstance(keyConfig, FactoryConfig{
			Admin:             admin,
			OracleAddress:     oracleAddress,
			CreatorFeeRate:    creatorFeeRate,
			MinMarketFee:      minMarketFee,
			MinMarketDuration: self.Config.MinMarketDuration,
			MaxMarketDuration: self.Config.MaxMarketDuration,
		})
		if err != nil {
			return err
		}
		err = env.SetInstance(keyMarketCount, uint32(0))
		if err != nil {
			return err
		}
		err = env.SetInstance(keyCatalogue, []types.Address{})
		if err != nil {
			return err
		}

		err = env.ExtendInstanceTTL(self.Config.InstanceTTLThreshold, self.Config.InstanceTTLAmount)
		if err != nil {
			return err
		}

		self.Log.WithField("admin", admin).Info("Market factory initialized")
		return nil
	})
}

// CreateMarket validates the parameters, charges the flat anti-spam fee and
// deploys a new market instance. The fee is refunded if deployment fails,
// so a failed call leaves no net effect.
func (self *Contract) CreateMarket(
	creator types.Address,
	eventDescription string,
	oracleAsset string,
	targetPrice int64,
	condition uint32,
	resolveTime uint64,
	minBetAmount int64,
	maxBetAmount int64,
	creatorFeeRate uint32,
) (addr types.Address, err error) {
	var cfg FactoryConfig
	var marketID uint32

	// Validations and the anti-spam fee commit together
	err = self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(creator)
		if err != nil {
			return err
		}

		cfg, err = self.factoryConfig(env)
		if err != nil {
			return err
		}

		now := env.Now()
		if resolveTime <= now {
			return types.ErrInvalidTimestamp
		}
		duration := resolveTime - now
		if duration < cfg.MinMarketDuration || duration > cfg.MaxMarketDuration {
			return types.ErrInvalidTimestamp
		}
		if condition > 1 {
			return types.ErrInvalidOutcome
		}
		if creatorFeeRate > maxCreatorFeeBps {
			return types.ErrInvalidAmount
		}
		if minBetAmount <= 0 || maxBetAmount <= minBetAmount {
			return types.ErrInvalidAmount
		}

		var count uint32
		_, err = env.GetInstance(keyMarketCount, &count)
		if err != nil {
			return err
		}
		marketID = count + 1

		return env.Transfer(creator, env.ContractAddress(), cfg.MinMarketFee)
	})
	if err != nil {
		return
	}

	addr, err = self.Deployer.Deploy(market.Params{
		ID:             marketID,
		Creator:        creator,
		EventName:      eventDescription,
		OracleAsset:    oracleAsset,
		OracleAddress:  cfg.OracleAddress,
		TargetPrice:    targetPrice,
		Condition:      types.Condition(condition),
		ResolveTime:    resolveTime,
		MinBetAmount:   minBetAmount,
		MaxBetAmount:   maxBetAmount,
		CreatorFeeRate: creatorFeeRate,
	})
	if err != nil {
		self.Log.WithError(err).Error("Market deployment failed, refunding fee")
		refundErr := self.Env.Transact(func(env *host.Env) error {
			return env.Transfer(env.ContractAddress(), creator, cfg.MinMarketFee)
		})
		if refundErr != nil {
			self.Log.WithError(refundErr).Error("Fee refund failed")
		}
		return "", err
	}

	err = self.Env.Transact(func(env *host.Env) error {
		err := env.SetInstance(keyMarketCount, marketID)
		if err != nil {
			return err
		}

		var catalogue []types.Address
		_, err = env.GetInstance(keyCatalogue, &catalogue)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyCatalogue, append(catalogue, addr))
		if err != nil {
			return err
		}

		env.Emit(types.MarketCreatedPayload{
			MarketID:    marketID,
			Creator:     creator,
			ContractID:  addr,
			Description: eventDescription,
			AssetSymbol: oracleAsset,
			TargetPrice: targetPrice,
			ResolveTime: resolveTime,
		})
		env.Emit(types.FeeCollectedPayload{
			Collector: env.ContractAddress(),
			Amount:    cfg.MinMarketFee,
			FeeType:   "market_creation",
		})
		return nil
	})
	if err != nil {
		return "", err
	}

	self.Log.WithField("market", addr).
		WithField("creator", creator).
		Info("Market created")
	return
}

func (self *Contract) GetMarkets() (catalogue []types.Address, err error) {
	_, err = self.Env.GetInstance(keyCatalogue, &catalogue)
	return
}

func (self *Contract) GetMarketCount() (count uint32, err error) {
	_, err = self.Env.GetInstance(keyMarketCount, &count)
	return
}

func (self *Contract) GetConfig() (FactoryConfig, error) {
	return self.factoryConfig(self.Env)
}

// UpdateConfig replaces the fee parameters, admin only.
func (self *Contract) UpdateConfig(admin types.Address, creatorFeeRate uint32, minMarketFee int64) error {
	return self.Env.Transact(func(env *host.Env) error {
		cfg, err := self.requireAdmin(env, admin)
		if err != nil {
			return err
		}
		if creatorFeeRate > maxCreatorFeeBps {
			return types.ErrInvalidAmount
		}

		cfg.CreatorFeeRate = creatorFeeRate
		cfg.MinMarketFee = minMarketFee
		return env.SetInstance(keyConfig, cfg)
	})
}

// WithdrawFees sweeps the accumulated creation fees to the recipient.
func (self *Contract) WithdrawFees(admin, recipient types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		_, err := self.requireAdmin(env, admin)
		if err != nil {
			return err
		}

		balance, err := env.Balance(env.ContractAddress())
		if err != nil {
			return err
		}
		if balance == 0 {
			return nil
		}

		err = env.Transfer(env.ContractAddress(), recipient, balance)
		if err != nil {
			return err
		}

		env.Emit(types.FeeCollectedPayload{
			Collector: recipient,
			Amount:    balance,
			FeeType:   "fee_withdrawal",
		})
		return nil
	})
}

func (self *Contract) requireAdmin(env *host.Env, admin types.Address) (cfg FactoryConfig, err error) {
	err = env.RequireAuth(admin)
	if err != nil {
		return
	}

	cfg, err = self.factoryConfig(env)
	if err != nil {
		return
	}
	if cfg.Admin != admin {
		err = types.ErrNotAuthorized
	}
	return
}

func (self *Contract) factoryConfig(env *host.Env) (cfg FactoryConfig, err error) {
	ok, err := env.GetInstance(keyConfig, &cfg)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrNotAuthorized
	}
	return
}
