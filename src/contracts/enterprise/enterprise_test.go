package enterprise

import (
	"testing"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/sources"

	"github.com/stretchr/testify/suite"
)

const (
	admin  = types.Address("ADMIN")
	node   = types.Address("NODE_1")
	client = types.Address("ACME_CORP")
)

func TestEnterpriseSuite(t *testing.T) {
	suite.Run(t, new(EnterpriseTestSuite))
}

type EnterpriseTestSuite struct {
	suite.Suite

	clock    *host.ManualClock
	contract *Contract
}

func (self *EnterpriseTestSuite) SetupTest() {
	// Start exactly on an hour boundary so bucket math is predictable
	self.clock = host.NewManualClock(1_700_000_000 - 1_700_000_000%3600)
	env := host.NewEnv(host.NewMemoryStore(), self.clock, host.AllowAll{}, host.NullSink{}).
		ForContract("ENTERPRISE")

	provider := sources.StaticProvider{
		"BTC": {
			{Name: "coinbase", Price: 65000, Weight: 30, Latency: 45, Volume: 1_000_000, Spread: 5},
			{Name: "binance", Price: 65001, Weight: 40, Latency: 52, Volume: 2_000_000, Spread: 3},
		},
	}
	self.contract = NewContract(config.Default(), env, provider, sources.VolumeWeightedMedian{})

	self.NoError(self.contract.Initialize(admin, 80, 3600))
	self.NoError(self.contract.AddNode(admin, node))
	self.NoError(self.contract.RegisterClient(admin, client, "acme", 2, 2))
}

func (self *EnterpriseTestSuite) submitPrice(asset string, price int64, confidence uint32) {
	self.NoError(self.contract.SubmitPrice(node, asset, price, confidence, "test"))
}

func (self *EnterpriseTestSuite) TestRegisterDuplicateClientFails() {
	err := self.contract.RegisterClient(admin, client, "acme", 2, 10)
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *EnterpriseTestSuite) TestRegisterClientNonAdminFails() {
	err := self.contract.RegisterClient("MALLORY", "OTHER", "x", 1, 10)
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *EnterpriseTestSuite) TestUnknownClientCannotRead() {
	self.submitPrice("BTC", 65000, 90)
	_, err := self.contract.GetEnterprisePrice("STRANGER", "BTC", 80, 3600)
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *EnterpriseTestSuite) TestDeactivatedClientCannotRead() {
	self.submitPrice("BTC", 65000, 90)
	self.NoError(self.contract.DeactivateClient(admin, client))

	_, err := self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.ErrorIs(err, types.ErrNotAuthorized)
}

func (self *EnterpriseTestSuite) TestEnterprisePriceWithSourceBreakdown() {
	self.submitPrice("BTC", 65000, 90)

	feed, err := self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.NoError(err)
	self.EqualValues(65000, feed.Price)
	self.EqualValues(90, feed.Confidence)
	self.Len(feed.Sources, 2)
	self.Equal("coinbase", feed.Sources[0].Name)

	stored, err := self.contract.GetClient(client)
	self.NoError(err)
	self.Equal(self.clock.Now(), stored.LastActivity)
}

func (self *EnterpriseTestSuite) TestStricterThresholdsApply() {
	self.submitPrice("BTC", 65000, 85)

	// Base gate passes at 80 but the caller demands 90
	_, err := self.contract.GetEnterprisePrice(client, "BTC", 90, 3600)
	self.ErrorIs(err, types.ErrOracleError)

	// Fresh for the oracle but stale under the caller's 60s window
	self.clock.Advance(120)
	_, err = self.contract.GetEnterprisePrice(client, "BTC", 80, 60)
	self.ErrorIs(err, types.ErrOracleError)
}

func (self *EnterpriseTestSuite) TestZeroThresholdsMeanNoStricterGate() {
	self.submitPrice("BTC", 65000, 90)
	self.clock.Advance(120)

	// Zero min confidence and zero max age fall back to the oracle's own
	// gates, an aged feed still serves
	feed, err := self.contract.GetEnterprisePrice(client, "BTC", 0, 0)
	self.NoError(err)
	self.EqualValues(65000, feed.Price)
}

func (self *EnterpriseTestSuite) TestRateLimitScenario() {
	// rate_limit=2: two reads pass, the third in the same bucket fails,
	// metrics count all three
	self.submitPrice("BTC", 65000, 90)

	_, err := self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.NoError(err)
	_, err = self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.NoError(err)
	_, err = self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.ErrorIs(err, types.ErrOracleError)

	metrics, err := self.contract.GetEnterpriseMetrics()
	self.NoError(err)
	self.EqualValues(3, metrics.TotalRequests)
	self.EqualValues(2, metrics.SuccessfulRequests)
	self.EqualValues(1, metrics.FailedRequests)
	self.EqualValues(66, metrics.UptimePercentage)
}

func (self *EnterpriseTestSuite) TestRateLimitResetsNextHour() {
	self.submitPrice("BTC", 65000, 90)

	for i := 0; i < 2; i++ {
		_, err := self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
		self.NoError(err)
	}
	_, err := self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.Error(err)

	self.clock.Advance(3600)
	self.submitPrice("BTC", 65000, 90)
	_, err = self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.NoError(err)

	bucket, err := self.contract.GetRateLimit(client)
	self.NoError(err)
	self.EqualValues(1, bucket.RequestsThisHour)
}

func (self *EnterpriseTestSuite) TestRateLimitsAreKeyedPerClient() {
	self.submitPrice("BTC", 65000, 90)
	self.NoError(self.contract.RegisterClient(admin, "OTHER_CORP", "other", 1, 2))

	for i := 0; i < 2; i++ {
		_, err := self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
		self.NoError(err)
	}
	_, err := self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.Error(err)

	// The other client's bucket is untouched
	_, err = self.contract.GetEnterprisePrice("OTHER_CORP", "BTC", 80, 3600)
	self.NoError(err)
}

func (self *EnterpriseTestSuite) TestBatchChargesPerAsset() {
	self.submitPrice("BTC", 65000, 90)
	self.submitPrice("ETH", 3000, 90)

	// Batch of two consumes the whole allowance of two
	feeds, err := self.contract.GetBatchPrices(client, []string{"BTC", "ETH"}, 80)
	self.NoError(err)
	self.Len(feeds, 2)

	_, err = self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.ErrorIs(err, types.ErrOracleError)
}

func (self *EnterpriseTestSuite) TestBatchTooLargeForBucketFailsWholesale() {
	self.submitPrice("BTC", 65000, 90)
	self.submitPrice("ETH", 3000, 90)
	self.submitPrice("XLM", 12, 90)

	feeds, err := self.contract.GetBatchPrices(client, []string{"BTC", "ETH", "XLM"}, 80)
	self.ErrorIs(err, types.ErrOracleError)
	self.Nil(feeds)

	// Nothing was charged, a single read still fits
	_, err = self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.NoError(err)
}

func (self *EnterpriseTestSuite) TestBatchMissingAssetFailsWholesale() {
	self.submitPrice("BTC", 65000, 90)

	feeds, err := self.contract.GetBatchPrices(client, []string{"BTC", "MISSING"}, 80)
	self.Error(err)
	self.Nil(feeds)
}

func (self *EnterpriseTestSuite) TestUpdatePriceEnterpriseStoresMetadata() {
	metadata := types.PriceMetadata{
		Volume24h:  2_500_000_000,
		Spread:     5,
		Volatility: 15,
		MarketCap:  1_200_000_000_000,
	}
	self.NoError(self.contract.UpdatePriceEnterprise(node, "BTC", 65000, 90, "test", metadata))
	self.NoError(self.contract.UpdatePriceEnterprise(node, "BTC", 65010, 90, "test", metadata))

	feed, err := self.contract.GetEnterprisePrice(client, "BTC", 80, 3600)
	self.NoError(err)
	self.EqualValues(2_500_000_000, feed.Metadata.Volume24h)
	self.EqualValues(2, feed.Metadata.UpdateCount)
	self.Equal(self.clock.Now(), feed.Metadata.LastUpdate)
}

func (self *EnterpriseTestSuite) TestOracleHealth() {
	self.NoError(self.contract.AddNode(admin, "NODE_2"))

	total, active, avgReputation, _, err := self.contract.GetOracleHealth()
	self.NoError(err)
	self.EqualValues(2, total)
	self.EqualValues(2, active)
	self.EqualValues(100, avgReputation)
}

func (self *EnterpriseTestSuite) TestSubscribeEnterpriseRequiresClient() {
	self.ErrorIs(self.contract.SubscribeEnterprise("STRANGER", "BTC"), types.ErrNotAuthorized)

	self.NoError(self.contract.SubscribeEnterprise(client, "BTC"))
	subs, err := self.contract.GetSubscribers("BTC")
	self.NoError(err)
	self.Equal([]types.Address{client}, subs)
}
