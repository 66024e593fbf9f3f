package market

import (
	"math/big"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/logger"

	"github.com/sirupsen/logrus"
)

const (
	keyMarket     = "market"
	keyFinalPrice = "final_price"
	keyOutcome    = "outcome"

	keyBetForPrefix     = "betfor/"
	keyBetAgainstPrefix = "betagainst/"
	keyClaimedPrefix    = "claimed/"
)

// Resolver is the oracle view consulted at resolution time.
type Resolver interface {
	GetPrice(assetName string) (types.PriceFeed, error)
	ValidateResolution(assetName string, targetPrice int64, condition types.Condition, requiredConfidence uint32) types.CallResult[bool]
}

// Contract is one two-sided pari-mutuel market: betting while active,
// oracle-gated resolution against the target price, proportional payout with
// a no-double-claim guarantee.
type Contract struct {
	Config *config.Market
	Env    *host.Env
	Oracle Resolver
	Log    *logrus.Entry
}

func NewContract(cfg *config.Config, env *host.Env, oracle Resolver) *Contract {
	return &Contract{
		Config: &cfg.Market,
		Env:    env,
		Oracle: oracle,
		Log:    logger.NewSublogger("market"),
	}
}

// Params carries everything the factory validated about a new market.
type Params struct {
	ID             uint32          `json:"id"`
	Creator        types.Address   `json:"creator"`
	EventName      string          `json:"event_name"`
	OracleAsset    string          `json:"oracle_asset"`
	OracleAddress  types.Address   `json:"oracle_address"`
	TargetPrice    int64           `json:"target_price"`
	Condition      types.Condition `json:"condition"`
	ResolveTime    uint64          `json:"resolve_time"`
	MinBetAmount   int64           `json:"min_bet_amount"`
	MaxBetAmount   int64           `json:"max_bet_amount"`
	CreatorFeeRate uint32          `json:"creator_fee_rate"`
}

func (self *Contract) Initialize(params Params) error {
	return self.Env.Transact(func(env *host.Env) error {
		ok, err := env.HasInstance(keyMarket)
		if err != nil {
			return err
		}
		if ok {
			return types.ErrNotAuthorized
		}

		record := types.Market{
			ID:             params.ID,
			Creator:        params.Creator,
			EventName:      params.EventName,
			OutcomeAName:   "YES",
			OutcomeBName:   "NO",
			EndTime:        params.ResolveTime,
			ResolutionTime: params.ResolveTime,
			Status:         types.MarketStatusActive,
			OracleAddress:  params.OracleAddress,
			OracleAsset:    params.OracleAsset,
			TargetPrice:    params.TargetPrice,
			Condition:      params.Condition,
			MinBetAmount:   params.MinBetAmount,
			MaxBetAmount:   params.MaxBetAmount,
			CreatorFeeRate: params.CreatorFeeRate,
		}
		err = env.SetInstance(keyMarket, record)
		if err != nil {
			return err
		}

		err = env.ExtendInstanceTTL(self.Config.InstanceTTLThreshold, self.Config.InstanceTTLAmount)
		if err != nil {
			return err
		}

		self.Log.WithField("event", params.EventName).
			WithField("creator", params.Creator).
			Info("Market initialized")
		return nil
	})
}

// Bet stakes amount on one side. Side true is YES, false is NO.
func (self *Contract) Bet(bettor types.Address, side bool, amount int64) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(bettor)
		if err != nil {
			return err
		}

		record, err := self.market(env)
		if err != nil {
			return err
		}
		if record.IsResolved() || env.Now() >= record.EndTime {
			return types.ErrMarketClosed
		}
		if amount < record.MinBetAmount || amount > record.MaxBetAmount {
			return types.ErrInvalidAmount
		}

		err = env.Transfer(bettor, env.ContractAddress(), amount)
		if err != nil {
			return err
		}

		prefix := keyBetAgainstPrefix
		if side {
			prefix = keyBetForPrefix
		}
		var current int64
		_, err = env.GetPersistent(prefix+string(bettor), &current)
		if err != nil {
			return err
		}
		err = env.SetPersistent(prefix+string(bettor), current+amount)
		if err != nil {
			return err
		}

		if side {
			record.TotalPoolA += amount
		} else {
			record.TotalPoolB += amount
		}
		err = env.SetInstance(keyMarket, record)
		if err != nil {
			return err
		}

		env.Emit(types.BetPlacedPayload{
			Bettor:       bettor,
			Side:         side,
			Amount:       amount,
			TotalFor:     record.TotalPoolA,
			TotalAgainst: record.TotalPoolB,
		})
		return nil
	})
}

// Resolve queries the oracle and settles the market against its target
// price and condition. Terminal, a market resolves exactly once.
func (self *Contract) Resolve(resolver types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(resolver)
		if err != nil {
			return err
		}

		record, err := self.market(env)
		if err != nil {
			return err
		}
		if record.IsResolved() {
			return types.ErrMarketAlreadyResolved
		}
		if env.Now() < record.ResolutionTime {
			return types.ErrInvalidTimestamp
		}

		feed, err := self.Oracle.GetPrice(record.OracleAsset)
		if err != nil {
			return err
		}

		result := self.Oracle.ValidateResolution(
			record.OracleAsset,
			record.TargetPrice,
			record.Condition,
			self.Config.ResolutionConfidence,
		)
		if !result.Success {
			return types.ErrOracleError
		}
		outcome := result.Data

		err = env.SetInstance(keyOutcome, outcome)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyFinalPrice, feed.Price)
		if err != nil {
			return err
		}

		record.Status = types.MarketStatusResolved
		err = env.SetInstance(keyMarket, record)
		if err != nil {
			return err
		}

		env.Emit(types.MarketResolvedPayload{
			Outcome:    outcome,
			FinalPrice: feed.Price,
			Confidence: feed.Confidence,
			TotalPool:  record.TotalPool(),
		})
		self.Log.WithField("outcome", outcome).
			WithField("final_price", feed.Price).
			Info("Market resolved")
		return nil
	})
}

// ClaimWinnings pays the winner's pari-mutuel share. A claim from the losing
// side returns zero without failing and stays claimable, a paid claim is
// guarded against repetition.
func (self *Contract) ClaimWinnings(winner types.Address) (payout int64, err error) {
	err = self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(winner)
		if err != nil {
			return err
		}

		record, err := self.market(env)
		if err != nil {
			return err
		}
		if !record.IsResolved() {
			return types.ErrMarketClosed
		}

		var claimed bool
		_, err = env.GetPersistent(keyClaimedPrefix+string(winner), &claimed)
		if err != nil {
			return err
		}
		if claimed {
			return types.ErrAlreadyClaimed
		}

		var outcome bool
		_, err = env.GetInstance(keyOutcome, &outcome)
		if err != nil {
			return err
		}

		prefix := keyBetAgainstPrefix
		winningPool, losingPool := record.TotalPoolB, record.TotalPoolA
		if outcome {
			prefix = keyBetForPrefix
			winningPool, losingPool = record.TotalPoolA, record.TotalPoolB
		}

		var userBet int64
		_, err = env.GetPersistent(prefix+string(winner), &userBet)
		if err != nil {
			return err
		}
		if userBet == 0 {
			// Not on the winning side, nothing to pay
			return nil
		}

		payout = calculateWinnings(userBet, winningPool, losingPool)
		err = env.Transfer(env.ContractAddress(), winner, payout)
		if err != nil {
			return err
		}

		err = env.SetPersistent(keyClaimedPrefix+string(winner), true)
		if err != nil {
			return err
		}

		env.Emit(types.WinningsClaimedPayload{
			Winner: winner,
			Amount: payout,
		})
		return nil
	})
	if err != nil {
		payout = 0
	}
	return
}

func (self *Contract) GetMarketInfo() (types.Market, error) {
	return self.market(self.Env)
}

// GetUserBets returns the user's cumulative stake on each side.
func (self *Contract) GetUserBets(user types.Address) (forAmount, againstAmount int64, err error) {
	_, err = self.Env.GetPersistent(keyBetForPrefix+string(user), &forAmount)
	if err != nil {
		return
	}
	_, err = self.Env.GetPersistent(keyBetAgainstPrefix+string(user), &againstAmount)
	return
}

func (self *Contract) GetTotals() (totalFor, totalAgainst int64, err error) {
	record, err := self.market(self.Env)
	if err != nil {
		return
	}
	return record.TotalPoolA, record.TotalPoolB, nil
}

func (self *Contract) IsResolved() (bool, error) {
	record, err := self.market(self.Env)
	if err != nil {
		return false, err
	}
	return record.IsResolved(), nil
}

func (self *Contract) GetOutcome() (outcome bool, err error) {
	_, err = self.Env.GetInstance(keyOutcome, &outcome)
	return
}

func (self *Contract) GetFinalPrice() (price int64, err error) {
	_, err = self.Env.GetInstance(keyFinalPrice, &price)
	return
}

// HasClaimed reports whether the address already collected a payout.
func (self *Contract) HasClaimed(user types.Address) (claimed bool, err error) {
	_, err = self.Env.GetPersistent(keyClaimedPrefix+string(user), &claimed)
	return
}

func (self *Contract) market(env *host.Env) (record types.Market, err error) {
	ok, err := env.GetInstance(keyMarket, &record)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrMarketNotFound
	}
	return
}

// calculateWinnings is the pari-mutuel split: the winner's stake back plus
// their proportional share of the losing pool, floored by integer division.
// The intermediate product runs in big integers, stakes near the int64 range
// must not overflow.
func calculateWinnings(userBet, winningPool, losingPool int64) int64 {
	if losingPool == 0 {
		return userBet
	}

	share := new(big.Int).Mul(big.NewInt(userBet), big.NewInt(losingPool))
	share.Quo(share, big.NewInt(winningPool))
	return userBet + share.Int64()
}
