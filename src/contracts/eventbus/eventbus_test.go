package eventbus

import (
	"testing"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"

	"github.com/stretchr/testify/suite"
)

const (
	admin   = types.Address("ADMIN")
	staking = types.Address("STAKING")
	factory = types.Address("FACTORY")
)

func TestEventBusSuite(t *testing.T) {
	suite.Run(t, new(EventBusTestSuite))
}

type EventBusTestSuite struct {
	suite.Suite

	clock *host.ManualClock
	sink  *host.CollectorSink
	bus   *Contract
}

func (self *EventBusTestSuite) SetupTest() {
	self.clock = host.NewManualClock(1_700_000_000)
	self.sink = new(host.CollectorSink)
	env := host.NewEnv(host.NewMemoryStore(), self.clock, host.AllowAll{}, self.sink).
		ForContract("BUS")
	self.bus = NewContract(config.Default(), env)

	self.NoError(self.bus.Initialize(admin))
	self.NoError(self.bus.RegisterContract(admin, staking, TagStaking))
	self.NoError(self.bus.RegisterContract(admin, factory, TagMarketFactory))
}

func (self *EventBusTestSuite) stakedEvent(amount int64) types.ContractEvent {
	return types.NewEvent(staking, self.clock.Now(), types.TokensStakedPayload{
		Staker:      "ALICE",
		Amount:      amount,
		TotalStaked: amount,
	})
}

func (self *EventBusTestSuite) TestInitializeTwiceFails() {
	self.ErrorIs(self.bus.Initialize(admin), types.ErrNotAuthorized)
}

func (self *EventBusTestSuite) TestRegistrySlots() {
	self.NoError(self.bus.RegisterContract(admin, "ORACLE", TagOracle))
	self.NoError(self.bus.RegisterContract(admin, "MARKET", TagPredictionMarket))

	registry, err := self.bus.GetContractRegistry()
	self.NoError(err)
	self.Equal(staking, registry.Staking)
	self.EqualValues("ORACLE", registry.Oracle)
	self.Equal(factory, registry.MarketFactory)
	self.EqualValues("MARKET", registry.PredictionMarket)
}

func (self *EventBusTestSuite) TestRegisterUnknownTagFails() {
	err := self.bus.RegisterContract(admin, "X", "governance")
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *EventBusTestSuite) TestRegisterNonAdminFails() {
	err := self.bus.RegisterContract("MALLORY", "X", TagOracle)
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *EventBusTestSuite) TestEmitFromUnregisteredContractFails() {
	event := types.NewEvent("ROGUE", self.clock.Now(), types.FeeCollectedPayload{Amount: 1})
	self.ErrorIs(self.bus.EmitEvent("ROGUE", event), types.ErrNotAuthorized)

	stats, err := self.bus.GetEventStats()
	self.NoError(err)
	self.Zero(stats.TotalEmitted)
}

func (self *EventBusTestSuite) TestEmitStoresAndRepublishes() {
	self.NoError(self.bus.EmitEvent(staking, self.stakedEvent(100)))

	events, err := self.bus.QueryEvents(types.EventFilter{})
	self.NoError(err)
	self.Len(events, 1)
	self.Equal(types.EventTokensStaked, events[0].Type)

	// Republished on the host log and the output stream
	self.Len(self.sink.Events(), 1)
	select {
	case streamed := <-self.bus.Output():
		self.Equal(types.EventTokensStaked, streamed.Type)
	default:
		self.Fail("expected event on the output channel")
	}
}

func (self *EventBusTestSuite) TestRingEvictsOldestFirst() {
	self.bus.Config.MaxEventHistory = 3

	for i := int64(1); i <= 5; i++ {
		self.NoError(self.bus.EmitEvent(staking, self.stakedEvent(i)))
	}

	events, err := self.bus.QueryEvents(types.EventFilter{})
	self.NoError(err)
	self.Len(events, 3)
	self.EqualValues(3, events[0].Payload.(types.TokensStakedPayload).Amount)
	self.EqualValues(5, events[2].Payload.(types.TokensStakedPayload).Amount)

	stats, err := self.bus.GetEventStats()
	self.NoError(err)
	self.EqualValues(5, stats.TotalEmitted)
	self.EqualValues(3, stats.Stored)
	self.EqualValues(2, stats.Evicted)
}

func (self *EventBusTestSuite) TestQueryFiltersAreConjunctive() {
	self.NoError(self.bus.EmitEvent(staking, self.stakedEvent(100)))
	self.clock.Advance(10)
	self.NoError(self.bus.EmitEvent(factory, types.NewEvent(factory, self.clock.Now(), types.FeeCollectedPayload{
		Collector: factory,
		Amount:    7,
		FeeType:   "market_creation",
	})))

	// Single dimension: type
	events, err := self.bus.QueryEvents(types.EventFilter{
		EventTypes: []types.EventType{types.EventFeeCollected},
	})
	self.NoError(err)
	self.Len(events, 1)

	// Single dimension: contract
	events, err = self.bus.QueryEvents(types.EventFilter{
		ContractAddresses: []types.Address{staking},
	})
	self.NoError(err)
	self.Len(events, 1)
	self.Equal(types.EventTokensStaked, events[0].Type)

	// Timestamp window excludes the earlier event
	from := self.clock.Now()
	events, err = self.bus.QueryEvents(types.EventFilter{FromTimestamp: &from})
	self.NoError(err)
	self.Len(events, 1)
	self.Equal(types.EventFeeCollected, events[0].Type)

	// Conjunction with a non-matching dimension yields nothing
	events, err = self.bus.QueryEvents(types.EventFilter{
		EventTypes:        []types.EventType{types.EventFeeCollected},
		ContractAddresses: []types.Address{staking},
	})
	self.NoError(err)
	self.Empty(events)
}

func (self *EventBusTestSuite) TestCrossContractCallEvent() {
	self.NoError(self.bus.EmitCrossContractCall(factory, "MARKET_1", "initialize", true))

	events, err := self.bus.QueryEvents(types.EventFilter{
		EventTypes: []types.EventType{types.EventCrossContractCall},
	})
	self.NoError(err)
	self.Len(events, 1)

	payload := events[0].Payload.(types.CrossContractCallPayload)
	self.Equal(factory, payload.FromContract)
	self.EqualValues("MARKET_1", payload.ToContract)
	self.Equal("initialize", payload.FunctionName)
	self.True(payload.Success)
}

func (self *EventBusTestSuite) TestSubscriptionLifecycle() {
	err := self.bus.SubscribeToEvents("OBSERVER", []string{"BetPlaced"}, nil)
	self.NoError(err)

	sub, err := self.bus.GetSubscription("OBSERVER")
	self.NoError(err)
	self.True(sub.IsActive)
	self.Equal([]string{"BetPlaced"}, sub.EventTypes)

	self.NoError(self.bus.UnsubscribeFromEvents("OBSERVER"))
	_, err = self.bus.GetSubscription("OBSERVER")
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *EventBusTestSuite) TestSubscribeUnknownEventTypeFails() {
	err := self.bus.SubscribeToEvents("OBSERVER", []string{"NoSuchEvent"}, nil)
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *EventBusTestSuite) TestStatsCountByType() {
	self.NoError(self.bus.EmitEvent(staking, self.stakedEvent(1)))
	self.NoError(self.bus.EmitEvent(staking, self.stakedEvent(2)))

	stats, err := self.bus.GetEventStats()
	self.NoError(err)
	self.EqualValues(2, stats.ByType["TokensStaked"])
}
