package staking

import (
	"testing"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"

	"github.com/stretchr/testify/suite"
)

const (
	admin    = types.Address("ADMIN")
	alice    = types.Address("ALICE")
	bob      = types.Address("BOB")
	contract = types.Address("STAKING")
)

func TestStakingSuite(t *testing.T) {
	suite.Run(t, new(StakingTestSuite))
}

type StakingTestSuite struct {
	suite.Suite

	clock  *host.ManualClock
	token  *host.TokenLedger
	ledger *Contract
}

func (self *StakingTestSuite) SetupTest() {
	self.clock = host.NewManualClock(1_700_000_000)
	store := host.NewMemoryStore()
	self.token = host.NewTokenLedger(store)
	env := host.NewEnv(store, self.clock, host.AllowAll{}, host.NullSink{}).
		ForContract(contract)
	self.ledger = NewContract(config.Default(), env)

	self.NoError(self.ledger.Initialize(admin, 1, 10))
	self.NoError(self.token.Mint(alice, 1_000))
	self.NoError(self.token.Mint(bob, 1_000))
	self.NoError(self.token.Mint(admin, 10_000))
}

func (self *StakingTestSuite) balance(addr types.Address) int64 {
	balance, err := self.token.Balance(addr)
	self.NoError(err)
	return balance
}

func (self *StakingTestSuite) TestInitializeTwiceFails() {
	self.ErrorIs(self.ledger.Initialize(admin, 1, 10), types.ErrNotAuthorized)
}

func (self *StakingTestSuite) TestStakeBelowMinimumFails() {
	self.ErrorIs(self.ledger.Stake(alice, 9), types.ErrInvalidAmount)
}

func (self *StakingTestSuite) TestStakeMovesTokens() {
	self.NoError(self.ledger.Stake(alice, 100))

	self.EqualValues(900, self.balance(alice))
	self.EqualValues(100, self.balance(contract))

	total, err := self.ledger.GetTotalStaked()
	self.NoError(err)
	self.EqualValues(100, total)

	stakers, err := self.ledger.GetStakers()
	self.NoError(err)
	self.Equal([]types.Address{alice}, stakers)
}

func (self *StakingTestSuite) TestStakeWithoutBalanceLeavesNoState() {
	err := self.ledger.Stake(alice, 2_000)
	self.ErrorIs(err, types.ErrInsufficientBalance)

	total, err := self.ledger.GetTotalStaked()
	self.NoError(err)
	self.Zero(total)

	_, err = self.ledger.GetStakeInfo(alice)
	self.ErrorIs(err, types.ErrStakeNotFound)
}

func (self *StakingTestSuite) TestPendingRewardsScenario() {
	// Sole staker of 100 at rate 1/s earns the whole pool: 100 after 100s
	self.NoError(self.ledger.Stake(alice, 100))
	self.clock.Advance(100)

	stake, err := self.ledger.GetStakeInfo(alice)
	self.NoError(err)
	self.EqualValues(100, stake.AccumulatedRewards)
}

func (self *StakingTestSuite) TestRewardsSplitByShare() {
	self.NoError(self.ledger.Stake(alice, 300))
	self.NoError(self.ledger.Stake(bob, 100))
	self.clock.Advance(400)

	aliceStake, err := self.ledger.GetStakeInfo(alice)
	self.NoError(err)
	bobStake, err := self.ledger.GetStakeInfo(bob)
	self.NoError(err)

	self.EqualValues(300, aliceStake.AccumulatedRewards)
	self.EqualValues(100, bobStake.AccumulatedRewards)
}

func (self *StakingTestSuite) TestUnstakeConservation() {
	self.NoError(self.ledger.Stake(alice, 200))
	self.NoError(self.ledger.Stake(bob, 100))

	self.NoError(self.ledger.Unstake(alice, 50))

	total, err := self.ledger.GetTotalStaked()
	self.NoError(err)

	aliceStake, err := self.ledger.GetStakeInfo(alice)
	self.NoError(err)
	bobStake, err := self.ledger.GetStakeInfo(bob)
	self.NoError(err)
	self.EqualValues(total, aliceStake.Amount+bobStake.Amount)
	self.EqualValues(250, total)
	self.EqualValues(850, self.balance(alice))
}

func (self *StakingTestSuite) TestUnstakeMoreThanStakedFails() {
	self.NoError(self.ledger.Stake(alice, 100))
	self.ErrorIs(self.ledger.Unstake(alice, 101), types.ErrInsufficientStake)
}

func (self *StakingTestSuite) TestUnstakeWithoutStakeFails() {
	self.ErrorIs(self.ledger.Unstake(alice, 1), types.ErrStakeNotFound)
}

func (self *StakingTestSuite) TestDrainedRecordIsDeleted() {
	self.NoError(self.ledger.Stake(alice, 100))
	// No time passes, so no rewards accrue
	self.NoError(self.ledger.Unstake(alice, 100))

	_, err := self.ledger.GetStakeInfo(alice)
	self.ErrorIs(err, types.ErrStakeNotFound)

	stakers, err := self.ledger.GetStakers()
	self.NoError(err)
	self.Empty(stakers)
}

func (self *StakingTestSuite) TestRecordWithBankedRewardsSurvivesFullUnstake() {
	self.NoError(self.ledger.Stake(alice, 100))
	self.clock.Advance(10)
	self.NoError(self.ledger.Unstake(alice, 100))

	stake, err := self.ledger.GetStakeInfo(alice)
	self.NoError(err)
	self.Zero(stake.Amount)
	self.EqualValues(10, stake.AccumulatedRewards)
}

func (self *StakingTestSuite) TestClaimCappedByRewardFunding() {
	self.NoError(self.ledger.Stake(alice, 100))
	self.clock.Advance(50)

	// Nothing beyond principal is in the contract, nothing can be paid
	paid, err := self.ledger.ClaimRewards(alice)
	self.NoError(err)
	self.Zero(paid)

	stake, err := self.ledger.GetStakeInfo(alice)
	self.NoError(err)
	self.EqualValues(50, stake.AccumulatedRewards)
	self.EqualValues(100, self.balance(contract))

	// Admin funds 30, the next claim pays out exactly that and banks the rest
	self.NoError(self.ledger.AddRewards(admin, 30))
	paid, err = self.ledger.ClaimRewards(alice)
	self.NoError(err)
	self.EqualValues(30, paid)

	stake, err = self.ledger.GetStakeInfo(alice)
	self.NoError(err)
	self.EqualValues(20, stake.AccumulatedRewards)
	self.EqualValues(100, self.balance(contract))
}

func (self *StakingTestSuite) TestClaimFullyFunded() {
	self.NoError(self.ledger.AddRewards(admin, 1_000))
	self.NoError(self.ledger.Stake(alice, 100))
	self.clock.Advance(100)

	paid, err := self.ledger.ClaimRewards(alice)
	self.NoError(err)
	self.EqualValues(100, paid)

	stake, err := self.ledger.GetStakeInfo(alice)
	self.NoError(err)
	self.Zero(stake.AccumulatedRewards)

	// Principal is untouched
	total, err := self.ledger.GetTotalStaked()
	self.NoError(err)
	self.EqualValues(100, total)
	self.EqualValues(total, self.balance(contract)-900)
}

func (self *StakingTestSuite) TestAddRewardsNonAdminFails() {
	self.ErrorIs(self.ledger.AddRewards(alice, 10), types.ErrNotAuthorized)
}

func (self *StakingTestSuite) TestAPY() {
	apy, err := self.ledger.GetCurrentAPY()
	self.NoError(err)
	self.Zero(apy)

	self.NoError(self.ledger.Stake(alice, 1_000))
	apy, err = self.ledger.GetCurrentAPY()
	self.NoError(err)
	// 1/s * 31_536_000 s/y * 10000 bps / 1000 staked
	self.EqualValues(315_360_000, apy)
}

func (self *StakingTestSuite) TestInterleavedSequenceKeepsInvariants() {
	self.NoError(self.ledger.AddRewards(admin, 10_000))

	self.NoError(self.ledger.Stake(alice, 100))
	self.clock.Advance(10)
	self.NoError(self.ledger.Stake(bob, 300))
	self.clock.Advance(10)
	self.NoError(self.ledger.Unstake(alice, 50))
	self.clock.Advance(10)

	_, err := self.ledger.ClaimRewards(bob)
	self.NoError(err)
	_, err = self.ledger.ClaimRewards(alice)
	self.NoError(err)

	total, err := self.ledger.GetTotalStaked()
	self.NoError(err)

	var sum int64
	stakers, err := self.ledger.GetStakers()
	self.NoError(err)
	for _, staker := range stakers {
		stake, err := self.ledger.GetStakeInfo(staker)
		self.NoError(err)
		self.GreaterOrEqual(stake.AccumulatedRewards, int64(0))
		sum += stake.Amount
	}
	self.EqualValues(total, sum)

	// Claims never dip into principal
	balance := self.balance(contract)
	self.GreaterOrEqual(balance, total)
}
