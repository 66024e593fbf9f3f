package market

import (
	"testing"

	"github.com/kalemarkets/settler/src/contracts/oracle"
	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"

	"github.com/stretchr/testify/suite"
)

const (
	admin    = types.Address("ADMIN")
	node     = types.Address("NODE_1")
	yes      = types.Address("YES_BETTOR")
	no       = types.Address("NO_BETTOR")
	contract = types.Address("MARKET_1")
)

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

type MarketTestSuite struct {
	suite.Suite

	clock  *host.ManualClock
	token  *host.TokenLedger
	oracle *oracle.Contract
	market *Contract
}

func (self *MarketTestSuite) SetupTest() {
	self.clock = host.NewManualClock(1_700_000_000)
	store := host.NewMemoryStore()
	self.token = host.NewTokenLedger(store)

	base := host.NewEnv(store, self.clock, host.AllowAll{}, host.NullSink{})
	self.oracle = oracle.NewContract(config.Default(), base.ForContract("ORACLE"))
	self.NoError(self.oracle.Initialize(admin, 80, 3600))
	self.NoError(self.oracle.AddNode(admin, node))

	self.market = NewContract(config.Default(), base.ForContract(contract), self.oracle)
	self.NoError(self.market.Initialize(Params{
		ID:            1,
		Creator:       admin,
		EventName:     "BTC above 100 by resolve time",
		OracleAsset:   "BTC",
		OracleAddress: "ORACLE",
		TargetPrice:   100,
		Condition:     types.ConditionAbove,
		ResolveTime:   self.clock.Now() + 1_000,
		MinBetAmount:  10,
		MaxBetAmount:  1_000,
	}))

	self.NoError(self.token.Mint(yes, 1_000))
	self.NoError(self.token.Mint(no, 1_000))
}

func (self *MarketTestSuite) balance(addr types.Address) int64 {
	balance, err := self.token.Balance(addr)
	self.NoError(err)
	return balance
}

// resolve pushes the clock past resolution time, feeds the oracle and
// settles the market.
func (self *MarketTestSuite) resolve(price int64) {
	self.clock.Advance(1_000)
	self.NoError(self.oracle.SubmitPrice(node, "BTC", price, 95, "test"))
	self.NoError(self.market.Resolve(admin))
}

func (self *MarketTestSuite) TestInitializeTwiceFails() {
	err := self.market.Initialize(Params{ID: 2})
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *MarketTestSuite) TestBetMovesTokensAndGrowsPools() {
	self.NoError(self.market.Bet(yes, true, 100))
	self.NoError(self.market.Bet(no, false, 50))

	self.EqualValues(900, self.balance(yes))
	self.EqualValues(950, self.balance(no))
	self.EqualValues(150, self.balance(contract))

	totalFor, totalAgainst, err := self.market.GetTotals()
	self.NoError(err)
	self.EqualValues(100, totalFor)
	self.EqualValues(50, totalAgainst)
}

func (self *MarketTestSuite) TestBetsAccumulatePerSide() {
	self.NoError(self.market.Bet(yes, true, 100))
	self.NoError(self.market.Bet(yes, true, 30))
	self.NoError(self.market.Bet(yes, false, 20))

	forAmount, againstAmount, err := self.market.GetUserBets(yes)
	self.NoError(err)
	self.EqualValues(130, forAmount)
	self.EqualValues(20, againstAmount)
}

func (self *MarketTestSuite) TestBetOutsideBoundsFails() {
	self.ErrorIs(self.market.Bet(yes, true, 9), types.ErrInvalidAmount)
	self.ErrorIs(self.market.Bet(yes, true, 1_001), types.ErrInvalidAmount)
}

func (self *MarketTestSuite) TestBetAfterEndTimeFails() {
	self.clock.Advance(1_000)
	self.ErrorIs(self.market.Bet(yes, true, 100), types.ErrMarketClosed)
}

func (self *MarketTestSuite) TestBetWithoutBalanceLeavesNoState() {
	err := self.market.Bet(yes, true, 1_000)
	self.NoError(err)
	err = self.market.Bet(yes, true, 1_000)
	self.ErrorIs(err, types.ErrInsufficientBalance)

	totalFor, _, err := self.market.GetTotals()
	self.NoError(err)
	self.EqualValues(1_000, totalFor)
}

func (self *MarketTestSuite) TestResolveBeforeResolutionTimeFails() {
	self.NoError(self.oracle.SubmitPrice(node, "BTC", 150, 95, "test"))
	self.ErrorIs(self.market.Resolve(admin), types.ErrInvalidTimestamp)
}

func (self *MarketTestSuite) TestResolveWithoutFeedLeavesMarketActive() {
	self.clock.Advance(1_000)
	self.ErrorIs(self.market.Resolve(admin), types.ErrOracleError)

	resolved, err := self.market.IsResolved()
	self.NoError(err)
	self.False(resolved)
}

func (self *MarketTestSuite) TestResolveBelowRequiredConfidenceFails() {
	// Drop the oracle submission gate so a weak observation gets stored,
	// resolution still demands its own confidence floor
	self.NoError(self.oracle.UpdateConfig(admin, 10, 3600))
	self.clock.Advance(1_000)
	self.NoError(self.oracle.SubmitPrice(node, "BTC", 150, 50, "test"))

	self.ErrorIs(self.market.Resolve(admin), types.ErrOracleError)
}

func (self *MarketTestSuite) TestResolveTwiceFails() {
	self.resolve(150)
	self.ErrorIs(self.market.Resolve(admin), types.ErrMarketAlreadyResolved)
}

func (self *MarketTestSuite) TestResolveSettlesAgainstTarget() {
	self.resolve(150)

	outcome, err := self.market.GetOutcome()
	self.NoError(err)
	self.True(outcome)

	price, err := self.market.GetFinalPrice()
	self.NoError(err)
	self.EqualValues(150, price)
}

func (self *MarketTestSuite) TestResolveBelowTargetSettlesNo() {
	self.resolve(90)

	outcome, err := self.market.GetOutcome()
	self.NoError(err)
	self.False(outcome)
}

func (self *MarketTestSuite) TestPariMutuelScenario() {
	// 100 on YES, 50 on NO, the market resolves YES: the winner collects
	// 100 + floor(100*50/100) = 150, the loser collects nothing
	self.NoError(self.market.Bet(yes, true, 100))
	self.NoError(self.market.Bet(no, false, 50))
	self.resolve(150)

	payout, err := self.market.ClaimWinnings(yes)
	self.NoError(err)
	self.EqualValues(150, payout)
	self.EqualValues(1_050, self.balance(yes))

	payout, err = self.market.ClaimWinnings(no)
	self.NoError(err)
	self.Zero(payout)
	self.EqualValues(950, self.balance(no))
}

func (self *MarketTestSuite) TestClaimBeforeResolutionFails() {
	self.NoError(self.market.Bet(yes, true, 100))
	_, err := self.market.ClaimWinnings(yes)
	self.ErrorIs(err, types.ErrMarketClosed)
}

func (self *MarketTestSuite) TestNoDoublePayout() {
	self.NoError(self.market.Bet(yes, true, 100))
	self.NoError(self.market.Bet(no, false, 50))
	self.resolve(150)

	payout, err := self.market.ClaimWinnings(yes)
	self.NoError(err)
	self.EqualValues(150, payout)

	_, err = self.market.ClaimWinnings(yes)
	self.ErrorIs(err, types.ErrAlreadyClaimed)
	self.EqualValues(1_050, self.balance(yes))
}

func (self *MarketTestSuite) TestLosingClaimStaysUnclaimed() {
	self.NoError(self.market.Bet(yes, true, 100))
	self.NoError(self.market.Bet(no, false, 50))
	self.resolve(150)

	// A zero payout does not burn the claim flag
	payout, err := self.market.ClaimWinnings(no)
	self.NoError(err)
	self.Zero(payout)

	claimed, err := self.market.HasClaimed(no)
	self.NoError(err)
	self.False(claimed)
}

func (self *MarketTestSuite) TestSoleWinnerGetsStakeBack() {
	// Empty losing pool, the winner recovers exactly their stake
	self.NoError(self.market.Bet(yes, true, 100))
	self.resolve(150)

	payout, err := self.market.ClaimWinnings(yes)
	self.NoError(err)
	self.EqualValues(100, payout)
}

func (self *MarketTestSuite) TestPoolConservation() {
	bettors := []types.Address{yes, no, "CAROL", "DAVE"}
	stakes := []int64{100, 50, 70, 30}
	sides := []bool{true, false, true, false}
	for i, bettor := range bettors {
		self.NoError(self.token.Mint(bettor, 1_000))
		self.NoError(self.market.Bet(bettor, sides[i], stakes[i]))
	}
	self.resolve(150)

	var paid int64
	for _, bettor := range bettors {
		payout, err := self.market.ClaimWinnings(bettor)
		self.NoError(err)
		paid += payout
	}

	// Payouts never exceed the combined pool, dust stays in the contract
	self.LessOrEqual(paid, int64(250))
	self.EqualValues(250-paid, self.balance(contract))
}

func (self *MarketTestSuite) TestCalculateWinnings() {
	self.EqualValues(150, calculateWinnings(100, 100, 50))
	self.EqualValues(100, calculateWinnings(100, 100, 0))
	// Floor division: 33 + floor(33*100/170) = 52
	self.EqualValues(52, calculateWinnings(33, 170, 100))
	// Large stakes must not overflow the intermediate product
	self.EqualValues(2_000_000_000_000, calculateWinnings(1_000_000_000_000, 1_000_000_000_000, 1_000_000_000_000))
}

func (self *MarketTestSuite) TestDeployerRegistersMarkets() {
	base := host.NewEnv(host.NewMemoryStore(), self.clock, host.AllowAll{}, host.NullSink{})
	deployer := NewDeployer(config.Default(), base, self.oracle)

	addr, err := deployer.Deploy(Params{
		ID:           7,
		Creator:      admin,
		EventName:    "XLM above 1",
		OracleAsset:  "XLM",
		TargetPrice:  1,
		ResolveTime:  self.clock.Now() + 500,
		MinBetAmount: 1,
		MaxBetAmount: 100,
	})
	self.NoError(err)
	self.NotEmpty(addr)

	deployed, ok := deployer.Get(addr)
	self.True(ok)

	info, err := deployed.GetMarketInfo()
	self.NoError(err)
	self.EqualValues(7, info.ID)
	self.Equal([]types.Address{addr}, deployer.Addresses())

	_, ok = deployer.Get("MARKET_MISSING")
	self.False(ok)
}
