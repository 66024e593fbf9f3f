package staking

import (
	"math/big"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/logger"

	"github.com/sirupsen/logrus"
)

const (
	keyConfig      = "config"
	keyTotalStaked = "total_staked"
	keyRewardPool  = "reward_pool"
	keyStakerIndex = "stakers"
	keyStakePrefix = "stake/"

	secondsPerYear = 365 * 24 * 60 * 60
)

type contractConfig struct {
	Admin               types.Address `json:"admin"`
	RewardRatePerSecond int64         `json:"reward_rate_per_second"`
	MinStakeAmount      int64         `json:"min_stake_amount"`
}

// Contract tracks each staker's principal and a continuously accruing reward
// entitlement proportional to their share of the global staked pool.
type Contract struct {
	Config *config.Staking
	Env    *host.Env
	Log    *logrus.Entry
}

func NewContract(cfg *config.Config, env *host.Env) *Contract {
	return &Contract{
		Config: &cfg.Staking,
		Env:    env,
		Log:    logger.NewSublogger("staking"),
	}
}

func (self *Contract) Initialize(admin types.Address, rewardRatePerSecond, minStakeAmount int64) error {
	return self.Env.Transact(func(env *host.Env) error {
		ok, err := env.HasInstance(keyConfig)
		if err != nil {
			return err
		}
		if ok {
			return types.ErrNotAuthorized
		}

		err = env.SetInstance(keyConfig, contractConfig{
			Admin:               admin,
			RewardRatePerSecond: rewardRatePerSecond,
			MinStakeAmount:      minStakeAmount,
		})
		if err != nil {
			return err
		}
		err = env.SetInstance(keyTotalStaked, int64(0))
		if err != nil {
			return err
		}
		err = env.SetInstance(keyRewardPool, int64(0))
		if err != nil {
			return err
		}
		err = env.SetInstance(keyStakerIndex, []types.Address{})
		if err != nil {
			return err
		}

		err = env.ExtendInstanceTTL(self.Config.InstanceTTLThreshold, self.Config.InstanceTTLAmount)
		if err != nil {
			return err
		}

		self.Log.WithField("admin", admin).Info("Staking ledger initialized")
		return nil
	})
}

// Stake moves tokens staker to contract, banks any pending rewards and
// grows the principal. The transfer failing aborts with no state mutated.
func (self *Contract) Stake(staker types.Address, amount int64) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(staker)
		if err != nil {
			return err
		}

		cfg, err := self.config(env)
		if err != nil {
			return err
		}
		if amount < cfg.MinStakeAmount {
			return types.ErrInvalidAmount
		}

		err = env.Transfer(staker, env.ContractAddress(), amount)
		if err != nil {
			return err
		}

		now := env.Now()
		stake, found, err := self.stakeInfo(env, staker)
		if err != nil {
			return err
		}
		if !found {
			stake = types.StakeInfo{
				Staker:         staker,
				StakeTime:      now,
				LastRewardTime: now,
			}
			var index []types.Address
			_, err = env.GetInstance(keyStakerIndex, &index)
			if err != nil {
				return err
			}
			err = env.SetInstance(keyStakerIndex, append(index, staker))
			if err != nil {
				return err
			}
		}

		totalStaked, err := self.totalStaked(env)
		if err != nil {
			return err
		}

		stake.AccumulatedRewards += self.pendingRewards(env, &stake, cfg, totalStaked)
		stake.Amount += amount
		stake.LastRewardTime = now

		totalStaked += amount
		err = env.SetPersistent(keyStakePrefix+string(staker), stake)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyTotalStaked, totalStaked)
		if err != nil {
			return err
		}

		err = env.ExtendInstanceTTL(self.Config.InstanceTTLThreshold, self.Config.InstanceTTLAmount)
		if err != nil {
			return err
		}

		apy, err := self.apy(env, cfg, totalStaked)
		if err != nil {
			return err
		}
		env.Emit(types.TokensStakedPayload{
			Staker:      staker,
			Amount:      amount,
			TotalStaked: totalStaked,
			APY:         apy,
		})
		return nil
	})
}

// Unstake returns principal to the staker. A record drained to zero
// principal and zero banked rewards is deleted along with its index entry.
func (self *Contract) Unstake(staker types.Address, amount int64) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(staker)
		if err != nil {
			return err
		}

		stake, found, err := self.stakeInfo(env, staker)
		if err != nil {
			return err
		}
		if !found {
			return types.ErrStakeNotFound
		}
		if amount > stake.Amount {
			return types.ErrInsufficientStake
		}

		cfg, err := self.config(env)
		if err != nil {
			return err
		}
		totalStaked, err := self.totalStaked(env)
		if err != nil {
			return err
		}

		stake.AccumulatedRewards += self.pendingRewards(env, &stake, cfg, totalStaked)
		stake.Amount -= amount
		stake.LastRewardTime = env.Now()
		totalStaked -= amount

		err = env.Transfer(env.ContractAddress(), staker, amount)
		if err != nil {
			return err
		}

		if stake.Amount == 0 && stake.AccumulatedRewards == 0 {
			err = env.RemovePersistent(keyStakePrefix + string(staker))
			if err != nil {
				return err
			}
			var index []types.Address
			_, err = env.GetInstance(keyStakerIndex, &index)
			if err != nil {
				return err
			}
			kept := make([]types.Address, 0, len(index))
			for _, addr := range index {
				if addr != staker {
					kept = append(kept, addr)
				}
			}
			err = env.SetInstance(keyStakerIndex, kept)
			if err != nil {
				return err
			}
		} else {
			err = env.SetPersistent(keyStakePrefix+string(staker), stake)
			if err != nil {
				return err
			}
		}

		err = env.SetInstance(keyTotalStaked, totalStaked)
		if err != nil {
			return err
		}

		env.Emit(types.TokensUnstakedPayload{
			Staker:          staker,
			Amount:          amount,
			RemainingStaked: stake.Amount,
		})
		return nil
	})
}

// ClaimRewards pays out banked plus pending rewards, capped at what the
// contract holds beyond the staked principal. The unpaid remainder stays
// banked. Returns the amount actually paid, zero is not a failure.
func (self *Contract) ClaimRewards(staker types.Address) (paid int64, err error) {
	err = self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(staker)
		if err != nil {
			return err
		}

		stake, found, err := self.stakeInfo(env, staker)
		if err != nil {
			return err
		}
		if !found {
			return types.ErrStakeNotFound
		}

		cfg, err := self.config(env)
		if err != nil {
			return err
		}
		totalStaked, err := self.totalStaked(env)
		if err != nil {
			return err
		}

		totalRewards := stake.AccumulatedRewards + self.pendingRewards(env, &stake, cfg, totalStaked)
		stake.LastRewardTime = env.Now()

		if totalRewards == 0 {
			stake.AccumulatedRewards = 0
			return env.SetPersistent(keyStakePrefix+string(staker), stake)
		}

		// Never pay rewards out of staked principal
		contractBalance, err := env.Balance(env.ContractAddress())
		if err != nil {
			return err
		}
		available := contractBalance - totalStaked
		if available < 0 {
			available = 0
		}

		paid = totalRewards
		if paid > available {
			paid = available
		}
		if paid > 0 {
			err = env.Transfer(env.ContractAddress(), staker, paid)
			if err != nil {
				return err
			}
		}

		stake.AccumulatedRewards = totalRewards - paid
		err = env.SetPersistent(keyStakePrefix+string(staker), stake)
		if err != nil {
			return err
		}

		env.Emit(types.RewardsClaimedPayload{
			Staker: staker,
			Amount: paid,
			Unpaid: stake.AccumulatedRewards,
		})
		return nil
	})
	if err != nil {
		paid = 0
	}
	return
}

// AddRewards tops up the reward pool, admin only.
func (self *Contract) AddRewards(admin types.Address, amount int64) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(admin)
		if err != nil {
			return err
		}

		cfg, err := self.config(env)
		if err != nil {
			return err
		}
		if admin != cfg.Admin {
			return types.ErrNotAuthorized
		}
		if amount <= 0 {
			return types.ErrInvalidAmount
		}

		err = env.Transfer(admin, env.ContractAddress(), amount)
		if err != nil {
			return err
		}

		var pool int64
		_, err = env.GetInstance(keyRewardPool, &pool)
		if err != nil {
			return err
		}
		return env.SetInstance(keyRewardPool, pool+amount)
	})
}

// GetStakeInfo folds pending rewards into the returned record.
func (self *Contract) GetStakeInfo(staker types.Address) (stake types.StakeInfo, err error) {
	stake, found, err := self.stakeInfo(self.Env, staker)
	if err != nil {
		return
	}
	if !found {
		err = types.ErrStakeNotFound
		return
	}

	cfg, err := self.config(self.Env)
	if err != nil {
		return
	}
	totalStaked, err := self.totalStaked(self.Env)
	if err != nil {
		return
	}
	stake.AccumulatedRewards += self.pendingRewards(self.Env, &stake, cfg, totalStaked)
	return
}

func (self *Contract) GetTotalStaked() (int64, error) {
	return self.totalStaked(self.Env)
}

func (self *Contract) GetRewardPool() (pool int64, err error) {
	_, err = self.Env.GetInstance(keyRewardPool, &pool)
	return
}

func (self *Contract) GetStakers() (stakers []types.Address, err error) {
	_, err = self.Env.GetInstance(keyStakerIndex, &stakers)
	return
}

// GetCurrentAPY returns the annualized reward rate in basis points of the
// staked pool, zero when nothing is staked.
func (self *Contract) GetCurrentAPY() (uint32, error) {
	cfg, err := self.config(self.Env)
	if err != nil {
		return 0, err
	}
	totalStaked, err := self.totalStaked(self.Env)
	if err != nil {
		return 0, err
	}
	return self.apy(self.Env, cfg, totalStaked)
}

func (self *Contract) apy(env *host.Env, cfg *contractConfig, totalStaked int64) (uint32, error) {
	if totalStaked == 0 {
		return 0, nil
	}

	annual := new(big.Int).Mul(big.NewInt(cfg.RewardRatePerSecond), big.NewInt(secondsPerYear))
	annual.Mul(annual, big.NewInt(10000))
	annual.Quo(annual, big.NewInt(totalStaked))
	if !annual.IsUint64() || annual.Uint64() > uint64(^uint32(0)) {
		return ^uint32(0), nil
	}
	return uint32(annual.Uint64()), nil
}

// pendingRewards integrates the staker's pool share since their last reward
// checkpoint: floor(rate * dt * amount / total_staked).
func (self *Contract) pendingRewards(env *host.Env, stake *types.StakeInfo, cfg *contractConfig, totalStaked int64) int64 {
	now := env.Now()
	if now <= stake.LastRewardTime || totalStaked == 0 || stake.Amount == 0 {
		return 0
	}

	dt := now - stake.LastRewardTime
	period := new(big.Int).Mul(big.NewInt(cfg.RewardRatePerSecond), new(big.Int).SetUint64(dt))
	period.Mul(period, big.NewInt(stake.Amount))
	period.Quo(period, big.NewInt(totalStaked))
	if !period.IsInt64() {
		return 0
	}
	return period.Int64()
}

func (self *Contract) config(env *host.Env) (*contractConfig, error) {
	var cfg contractConfig
	ok, err := env.GetInstance(keyConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.ErrNotAuthorized
	}
	return &cfg, nil
}

func (self *Contract) totalStaked(env *host.Env) (total int64, err error) {
	_, err = env.GetInstance(keyTotalStaked, &total)
	return
}

func (self *Contract) stakeInfo(env *host.Env, staker types.Address) (stake types.StakeInfo, found bool, err error) {
	found, err = env.GetPersistent(keyStakePrefix+string(staker), &stake)
	return
}
