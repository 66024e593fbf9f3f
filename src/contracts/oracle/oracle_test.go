package oracle

import (
	"testing"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"

	"github.com/stretchr/testify/suite"
)

const (
	admin = types.Address("ADMIN")
	node  = types.Address("NODE_1")
)

func TestOracleSuite(t *testing.T) {
	suite.Run(t, new(OracleTestSuite))
}

type OracleTestSuite struct {
	suite.Suite

	clock    *host.ManualClock
	sink     *host.CollectorSink
	contract *Contract
}

func (self *OracleTestSuite) SetupTest() {
	self.clock = host.NewManualClock(1_700_000_000)
	self.sink = new(host.CollectorSink)
	env := host.NewEnv(host.NewMemoryStore(), self.clock, host.AllowAll{}, self.sink).
		ForContract("ORACLE")
	self.contract = NewContract(config.Default(), env)

	self.NoError(self.contract.Initialize(admin, 80, 3600))
	self.NoError(self.contract.AddNode(admin, node))
}

func (self *OracleTestSuite) TestInitializeTwiceFails() {
	self.ErrorIs(self.contract.Initialize(admin, 80, 3600), types.ErrNotAuthorized)
}

func (self *OracleTestSuite) TestAddDuplicateNodeFails() {
	self.ErrorIs(self.contract.AddNode(admin, node), types.ErrNotAuthorized)
}

func (self *OracleTestSuite) TestAddNodeNonAdminFails() {
	self.ErrorIs(self.contract.AddNode("MALLORY", "NODE_2"), types.ErrNotAuthorized)
}

func (self *OracleTestSuite) TestRemoveMissingNodeFails() {
	self.ErrorIs(self.contract.RemoveNode(admin, "NODE_MISSING"), types.ErrNotAuthorized)
}

func (self *OracleTestSuite) TestRemovedNodeCannotSubmit() {
	self.NoError(self.contract.RemoveNode(admin, node))
	err := self.contract.SubmitPrice(node, "BTC", 45_000_00000000000000, 90, "test")
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *OracleTestSuite) TestSubmitAndGetPrice() {
	// Scenario: min_confidence=80, node submits BTC at confidence 90
	err := self.contract.SubmitPrice(node, "BTC", 45_000_00000000000000, 90, "coingecko")
	self.NoError(err)

	feed, err := self.contract.GetPrice("BTC")
	self.NoError(err)
	self.Equal("BTC", feed.AssetName)
	self.EqualValues(45_000_00000000000000, feed.Price)
	self.EqualValues(90, feed.Confidence)
	self.Equal(self.clock.Now(), feed.Timestamp)

	// Confidence 90 is neither reward nor penalty, reputation stays capped
	stored, err := self.contract.GetNode(node)
	self.NoError(err)
	self.EqualValues(100, stored.ReputationScore)
}

func (self *OracleTestSuite) TestSubmitBelowMinConfidenceFails() {
	err := self.contract.SubmitPrice(node, "BTC", 1, 79, "test")
	self.ErrorIs(err, types.ErrOracleError)

	_, err = self.contract.GetPrice("BTC")
	self.ErrorIs(err, types.ErrOracleError)
}

func (self *OracleTestSuite) TestStalePriceFails() {
	self.NoError(self.contract.SubmitPrice(node, "BTC", 100, 90, "test"))

	self.clock.Advance(3600)
	_, err := self.contract.GetPrice("BTC")
	self.NoError(err)

	self.clock.Advance(1)
	_, err = self.contract.GetPrice("BTC")
	self.ErrorIs(err, types.ErrOracleError)
	self.False(self.contract.IsPriceAvailable("BTC"))
}

func (self *OracleTestSuite) TestReputationBounds() {
	// Lower the acceptance gate so penalized submissions get through
	self.NoError(self.contract.UpdateConfig(admin, 10, 3600))

	for i := 0; i < 150; i++ {
		self.NoError(self.contract.SubmitPrice(node, "BTC", 100, 50, "test"))
	}
	stored, err := self.contract.GetNode(node)
	self.NoError(err)
	self.EqualValues(0, stored.ReputationScore)

	for i := 0; i < 150; i++ {
		self.NoError(self.contract.SubmitPrice(node, "BTC", 100, 95, "test"))
	}
	stored, err = self.contract.GetNode(node)
	self.NoError(err)
	self.EqualValues(100, stored.ReputationScore)
}

func (self *OracleTestSuite) TestSubmitEventOutcome() {
	err := self.contract.SubmitEventOutcome(node, "election-2026", types.OutcomeA, 92, "ap")
	self.NoError(err)

	data, err := self.contract.GetEventData("election-2026")
	self.NoError(err)
	self.Equal(types.OutcomeA, data.Outcome)
	self.EqualValues(92, data.Confidence)

	_, err = self.contract.GetEventData("missing")
	self.ErrorIs(err, types.ErrOracleError)
}

func (self *OracleTestSuite) TestSubscribeIdempotent() {
	self.NoError(self.contract.Subscribe("ALICE", "BTC"))
	self.NoError(self.contract.Subscribe("ALICE", "BTC"))
	self.NoError(self.contract.Subscribe("BOB", "BTC"))

	subs, err := self.contract.GetSubscribers("BTC")
	self.NoError(err)
	self.Equal([]types.Address{"ALICE", "BOB"}, subs)

	self.NoError(self.contract.Unsubscribe("ALICE", "BTC"))
	self.NoError(self.contract.Unsubscribe("ALICE", "BTC"))

	subs, err = self.contract.GetSubscribers("BTC")
	self.NoError(err)
	self.Equal([]types.Address{"BOB"}, subs)
}

func (self *OracleTestSuite) TestSubscribeWithThreshold() {
	result := self.contract.SubscribeWithThreshold("ALICE", "BTC", 50_000, types.ConditionAbove)
	self.False(result.Success)

	self.NoError(self.contract.SubmitPrice(node, "BTC", 45_000, 90, "test"))

	result = self.contract.SubscribeWithThreshold("ALICE", "BTC", 50_000, types.ConditionAbove)
	self.True(result.Success)
	self.Equal(types.Address("ALICE"), result.Data.Subscriber)
	self.True(result.Data.IsActive)

	subs, err := self.contract.GetSubscribers("BTC")
	self.NoError(err)
	self.Contains(subs, types.Address("ALICE"))
}

func (self *OracleTestSuite) TestBatchSubmitPartialSuccess() {
	result := self.contract.BatchSubmitPrices(node,
		[]string{"BTC", "ETH", "XLM"},
		[]int64{45_000, 2_500, 1},
		[]uint32{90, 50, 85},
		"batch")
	self.True(result.Success)
	self.Equal([]string{"BTC", "XLM"}, result.Data)

	_, err := self.contract.GetPrice("BTC")
	self.NoError(err)
	_, err = self.contract.GetPrice("ETH")
	self.ErrorIs(err, types.ErrOracleError)
}

func (self *OracleTestSuite) TestBatchSubmitLengthMismatch() {
	result := self.contract.BatchSubmitPrices(node, []string{"BTC"}, []int64{1, 2}, []uint32{90}, "batch")
	self.False(result.Success)
}

func (self *OracleTestSuite) TestPriceWithFallback() {
	result := self.contract.PriceWithFallback("BTC", 42)
	self.True(result.Success)
	self.EqualValues(42, result.Data)
	self.NotEmpty(result.Error)

	self.NoError(self.contract.SubmitPrice(node, "BTC", 45_000, 90, "test"))
	result = self.contract.PriceWithFallback("BTC", 42)
	self.True(result.Success)
	self.EqualValues(45_000, result.Data)
	self.Empty(result.Error)

	self.clock.Advance(4000)
	result = self.contract.PriceWithFallback("BTC", 42)
	self.True(result.Success)
	self.EqualValues(42, result.Data)
}

func (self *OracleTestSuite) TestValidateResolution() {
	self.NoError(self.contract.SubmitPrice(node, "BTC", 45_000, 90, "test"))

	result := self.contract.ValidateResolution("BTC", 40_000, types.ConditionAbove, 80)
	self.True(result.Success)
	self.True(result.Data)

	result = self.contract.ValidateResolution("BTC", 40_000, types.ConditionBelow, 80)
	self.True(result.Success)
	self.False(result.Data)

	result = self.contract.ValidateResolution("BTC", 40_000, types.ConditionAbove, 95)
	self.False(result.Success)
}

func (self *OracleTestSuite) TestFailedSubmitLeavesNoState() {
	authed := host.NewStaticAuthorizer(admin)
	env := host.NewEnv(host.NewMemoryStore(), self.clock, authed, host.NullSink{}).
		ForContract("ORACLE")
	contract := NewContract(config.Default(), env)
	self.NoError(contract.Initialize(admin, 80, 3600))

	err := contract.AddNode(admin, node)
	self.NoError(err)

	// Node is registered but cannot authorize as itself
	err = contract.SubmitPrice(node, "BTC", 100, 90, "test")
	self.ErrorIs(err, types.ErrNotAuthorized)
	self.False(contract.IsPriceAvailable("BTC"))
}

func (self *OracleTestSuite) TestEventsEmitted() {
	self.sink.Reset()
	self.NoError(self.contract.SubmitPrice(node, "BTC", 45_000, 90, "test"))

	events := self.sink.Events()
	self.Len(events, 1)
	self.Equal(types.EventPriceUpdated, events[0].Type)
	payload := events[0].Payload.(types.PriceUpdatedPayload)
	self.Equal("BTC", payload.AssetName)
}
