package enterprise

import (
	"context"

	"github.com/kalemarkets/settler/src/contracts/oracle"
	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/logger"
	"github.com/kalemarkets/settler/src/utils/sources"

	"github.com/sirupsen/logrus"
)

const (
	keyClientIndex     = "clients"
	keyMetrics         = "metrics"
	keyClientPrefix    = "client/"
	keyRateLimitPrefix = "ratelimit/"
	keyMetaPrefix      = "meta/"
)

// Contract layers client tiers, per-client hourly rate limits and request
// metrics on top of the base oracle. It shares the oracle's keyspace, so the
// node set and price feeds are the same records.
type Contract struct {
	*oracle.Contract

	Config     *config.Enterprise
	Provider   sources.Provider
	Aggregator sources.Aggregator
	Log        *logrus.Entry
}

func NewContract(cfg *config.Config, env *host.Env, provider sources.Provider, aggregator sources.Aggregator) *Contract {
	return &Contract{
		Contract:   oracle.NewContract(cfg, env),
		Config:     &cfg.Enterprise,
		Provider:   provider,
		Aggregator: aggregator,
		Log:        logger.NewSublogger("enterprise"),
	}
}

// Initialize sets up the base oracle and zeroes the metrics singleton.
func (self *Contract) Initialize(admin types.Address, minConfidence uint32, maxPriceAge uint64) error {
	err := self.Contract.Initialize(admin, minConfidence, maxPriceAge)
	if err != nil {
		return err
	}

	return self.Env.Transact(func(env *host.Env) error {
		err := env.SetInstance(keyClientIndex, []types.Address{})
		if err != nil {
			return err
		}
		return env.SetInstance(keyMetrics, types.EnterpriseMetrics{
			UptimePercentage: 100,
			DataQualityScore: 100,
			LastUpdated:      env.Now(),
		})
	})
}

// RegisterClient creates a gateway client record, admin only.
func (self *Contract) RegisterClient(admin, clientAddress types.Address, institutionID string, tier, rateLimit uint32) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := self.RequireAdmin(env, admin)
		if err != nil {
			return err
		}

		ok, err := env.HasPersistent(keyClientPrefix + string(clientAddress))
		if err != nil {
			return err
		}
		if ok {
			// Client already exists
			return types.ErrNotAuthorized
		}

		if rateLimit == 0 {
			rateLimit = self.Config.DefaultRateLimit
		}
		now := env.Now()
		client := types.EnterpriseClient{
			Address:       clientAddress,
			InstitutionID: institutionID,
			Tier:          tier,
			IsActive:      true,
			RateLimit:     rateLimit,
			CreatedAt:     now,
			LastActivity:  now,
		}
		err = env.SetPersistent(keyClientPrefix+string(clientAddress), client)
		if err != nil {
			return err
		}

		var index []types.Address
		_, err = env.GetInstance(keyClientIndex, &index)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyClientIndex, append(index, clientAddress))
		if err != nil {
			return err
		}

		self.Log.WithField("client", clientAddress).Info("Enterprise client registered")
		return nil
	})
}

// DeactivateClient turns a client off without deleting its record.
func (self *Contract) DeactivateClient(admin, clientAddress types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := self.RequireAdmin(env, admin)
		if err != nil {
			return err
		}

		var client types.EnterpriseClient
		ok, err := env.GetPersistent(keyClientPrefix+string(clientAddress), &client)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotAuthorized
		}

		client.IsActive = false
		return env.SetPersistent(keyClientPrefix+string(clientAddress), client)
	})
}

// GetEnterprisePrice is the gated enriched read. The caller may pass
// thresholds stricter than the oracle's own gates. Rate-limit and gating
// failures are recorded in the metrics even though the read itself aborts.
func (self *Contract) GetEnterprisePrice(clientAddress types.Address, assetName string, minConfidence uint32, maxAge uint64) (feed types.EnterprisePriceFeed, err error) {
	client, err := self.activeClient(clientAddress)
	if err != nil {
		return
	}

	err = self.chargeRateLimit(client, 1)
	if err != nil {
		self.recordRequest(false)
		return
	}

	feed, err = self.enterpriseFeed(assetName, minConfidence, maxAge)
	if err != nil {
		self.recordRequest(false)
		return
	}

	err = self.touchClient(clientAddress)
	if err != nil {
		return
	}
	self.recordRequest(true)
	return
}

// GetBatchPrices reads several assets in one call. The hourly bucket is
// charged once per asset up front: if it cannot cover the whole batch the
// call fails wholesale and no feeds are returned.
func (self *Contract) GetBatchPrices(clientAddress types.Address, assets []string, minConfidence uint32) (feeds []types.EnterprisePriceFeed, err error) {
	client, err := self.activeClient(clientAddress)
	if err != nil {
		return
	}

	if len(assets) == 0 || len(assets) > self.Config.BatchMaxAssets {
		err = types.ErrInvalidAmount
		return
	}

	err = self.chargeRateLimit(client, uint32(len(assets)))
	if err != nil {
		self.recordRequest(false)
		return
	}

	feeds = make([]types.EnterprisePriceFeed, 0, len(assets))
	for _, asset := range assets {
		var feed types.EnterprisePriceFeed
		feed, err = self.enterpriseFeed(asset, minConfidence, self.Config.BatchMaxAge)
		if err != nil {
			self.recordRequest(false)
			feeds = nil
			return
		}
		feeds = append(feeds, feed)
	}

	err = self.touchClient(clientAddress)
	if err != nil {
		return
	}
	self.recordRequest(true)
	return
}

// UpdatePriceEnterprise submits a price along with its metadata sidecar.
func (self *Contract) UpdatePriceEnterprise(nodeAddress types.Address, assetName string, price int64, confidence uint32, source string, metadata types.PriceMetadata) error {
	err := self.SubmitPrice(nodeAddress, assetName, price, confidence, source)
	if err != nil {
		return err
	}

	return self.Env.Transact(func(env *host.Env) error {
		var stored types.PriceMetadata
		_, err := env.GetPersistent(keyMetaPrefix+assetName, &stored)
		if err != nil {
			return err
		}

		metadata.LastUpdate = env.Now()
		metadata.UpdateCount = stored.UpdateCount + 1
		return env.SetPersistent(keyMetaPrefix+assetName, metadata)
	})
}

func (self *Contract) GetEnterpriseMetrics() (metrics types.EnterpriseMetrics, err error) {
	ok, err := self.Env.GetInstance(keyMetrics, &metrics)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrOracleError
	}
	return
}

// GetOracleHealth aggregates the node set: total, active, average reputation
// and average reported latency.
func (self *Contract) GetOracleHealth() (total, active, avgReputation, avgLatency uint32, err error) {
	nodes, err := self.GetNodes()
	if err != nil {
		return
	}

	total = uint32(len(nodes))
	var reputationSum, latencySum uint32
	for _, node := range nodes {
		if !node.IsActive {
			continue
		}
		active++
		reputationSum += node.ReputationScore
		latencySum += node.LatencyAvg
	}
	if active > 0 {
		avgReputation = reputationSum / active
		avgLatency = latencySum / active
	}
	return
}

// SubscribeEnterprise is the client-gated variant of Subscribe.
func (self *Contract) SubscribeEnterprise(clientAddress types.Address, assetName string) error {
	_, err := self.activeClient(clientAddress)
	if err != nil {
		return err
	}
	return self.Subscribe(clientAddress, assetName)
}

func (self *Contract) GetClient(clientAddress types.Address) (client types.EnterpriseClient, err error) {
	ok, err := self.Env.GetPersistent(keyClientPrefix+string(clientAddress), &client)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrNotAuthorized
	}
	return
}

func (self *Contract) GetClients() (clients []types.EnterpriseClient, err error) {
	var index []types.Address
	_, err = self.Env.GetInstance(keyClientIndex, &index)
	if err != nil {
		return
	}

	clients = make([]types.EnterpriseClient, 0, len(index))
	for _, addr := range index {
		var client types.EnterpriseClient
		ok, err := self.Env.GetPersistent(keyClientPrefix+string(addr), &client)
		if err != nil {
			return nil, err
		}
		if ok {
			clients = append(clients, client)
		}
	}
	return
}

// GetRateLimit returns the client's current hourly bucket.
func (self *Contract) GetRateLimit(clientAddress types.Address) (limit types.RateLimit, err error) {
	ok, err := self.Env.GetPersistent(keyRateLimitPrefix+string(clientAddress), &limit)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrOracleError
	}
	return
}

func (self *Contract) activeClient(clientAddress types.Address) (*types.EnterpriseClient, error) {
	err := self.Env.RequireAuth(clientAddress)
	if err != nil {
		return nil, err
	}

	var client types.EnterpriseClient
	ok, err := self.Env.GetPersistent(keyClientPrefix+string(clientAddress), &client)
	if err != nil {
		return nil, err
	}
	if !ok || !client.IsActive {
		return nil, types.ErrNotAuthorized
	}
	return &client, nil
}

// chargeRateLimit takes n requests out of the client's hourly bucket. The
// bucket resets when the hour boundary of the ledger time moves.
func (self *Contract) chargeRateLimit(client *types.EnterpriseClient, n uint32) error {
	return self.Env.Transact(func(env *host.Env) error {
		now := env.Now()
		hourStart := now - now%3600

		var bucket types.RateLimit
		ok, err := env.GetPersistent(keyRateLimitPrefix+string(client.Address), &bucket)
		if err != nil {
			return err
		}
		if !ok || bucket.HourStart != hourStart {
			bucket = types.RateLimit{
				ClientAddress: client.Address,
				HourStart:     hourStart,
			}
		}
		bucket.Limit = client.RateLimit
		if bucket.Limit == 0 {
			bucket.Limit = self.Config.DefaultRateLimit
		}

		if bucket.RequestsThisHour+n > bucket.Limit {
			// Rate limit exceeded
			return types.ErrOracleError
		}
		bucket.RequestsThisHour += n
		return env.SetPersistent(keyRateLimitPrefix+string(client.Address), bucket)
	})
}

// enterpriseFeed builds the enriched response: the gated base feed plus the
// live source breakdown, the metadata sidecar and the network latency.
func (self *Contract) enterpriseFeed(assetName string, minConfidence uint32, maxAge uint64) (feed types.EnterprisePriceFeed, err error) {
	base, err := self.GetPrice(assetName)
	if err != nil {
		return
	}

	if base.Confidence < minConfidence {
		// Below the caller's stricter gate
		err = types.ErrOracleError
		return
	}
	// Zero means no stricter gate, the base feed's own staleness check
	// already ran in GetPrice
	if maxAge > 0 && self.Env.Now()-base.Timestamp > maxAge {
		// Stale under the caller's stricter gate
		err = types.ErrOracleError
		return
	}

	_, _, _, avgLatency, err := self.GetOracleHealth()
	if err != nil {
		return
	}

	metadata := types.PriceMetadata{LastUpdate: base.Timestamp}
	_, err = self.Env.GetPersistent(keyMetaPrefix+assetName, &metadata)
	if err != nil {
		return
	}

	feed = types.EnterprisePriceFeed{
		AssetName:  assetName,
		Price:      base.Price,
		Timestamp:  base.Timestamp,
		Confidence: base.Confidence,
		Sources:    self.sourceBreakdown(assetName, &base),
		Metadata:   metadata,
		Latency:    avgLatency,
	}
	return
}

// sourceBreakdown aggregates live observations through the pluggable
// strategy. When no provider is wired or every source fails, the on-ledger
// feed itself is the single source.
func (self *Contract) sourceBreakdown(assetName string, base *types.PriceFeed) []types.PriceSource {
	fallback := []types.PriceSource{{
		Name:   base.Source,
		Price:  base.Price,
		Weight: 100,
	}}

	if self.Provider == nil || self.Aggregator == nil {
		return fallback
	}

	observations, err := self.Provider.Observations(context.Background(), assetName)
	if err != nil {
		self.Log.WithError(err).WithField("asset", assetName).Debug("No live source observations")
		return fallback
	}

	_, _, err = self.Aggregator.Aggregate(observations)
	if err != nil {
		return fallback
	}

	breakdown := make([]types.PriceSource, 0, len(observations))
	weight := uint32(100 / len(observations))
	for _, observation := range observations {
		breakdown = append(breakdown, types.PriceSource{
			Name:    observation.Name,
			Price:   observation.Price,
			Weight:  weight,
			Latency: observation.Latency,
			Volume:  observation.Volume,
			Spread:  observation.Spread,
		})
	}
	return breakdown
}

func (self *Contract) touchClient(clientAddress types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		var client types.EnterpriseClient
		ok, err := env.GetPersistent(keyClientPrefix+string(clientAddress), &client)
		if err != nil || !ok {
			return err
		}
		client.LastActivity = env.Now()
		return env.SetPersistent(keyClientPrefix+string(clientAddress), client)
	})
}

// recordRequest updates the metrics singleton. It commits on its own so the
// count survives the failure that triggered it.
func (self *Contract) recordRequest(success bool) {
	err := self.Env.Transact(func(env *host.Env) error {
		var metrics types.EnterpriseMetrics
		_, err := env.GetInstance(keyMetrics, &metrics)
		if err != nil {
			return err
		}

		metrics.TotalRequests++
		if success {
			metrics.SuccessfulRequests++
		} else {
			metrics.FailedRequests++
		}
		metrics.UptimePercentage = metrics.SuccessfulRequests * 100 / metrics.TotalRequests
		metrics.LastUpdated = env.Now()
		return env.SetInstance(keyMetrics, metrics)
	})
	if err != nil {
		self.Log.WithError(err).Error("Failed to update request metrics")
	}
}
