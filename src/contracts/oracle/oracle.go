package oracle

import (
	"fmt"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/logger"

	"github.com/sirupsen/logrus"
)

// Storage layout. Nodes are keyed records with a small address index so a
// single-node update never rewrites the whole set.
const (
	keyAdmin        = "admin"
	keyConfig       = "config"
	keyNodeIndex    = "nodes"
	keyNodePrefix   = "node/"
	keyFeedPrefix   = "feed/"
	keyEventPrefix  = "event/"
	keySubsPrefix   = "subs/"
	keyThreshPrefix = "threshsub/"
)

type contractConfig struct {
	MinConfidence uint32 `json:"min_confidence"`
	MaxPriceAge   uint64 `json:"max_price_age"`
}

// Contract maintains the trusted node set, their reputation and the latest
// observation per asset, gating reads on confidence and staleness.
type Contract struct {
	Config *config.Oracle
	Env    *host.Env
	Log    *logrus.Entry
}

func NewContract(cfg *config.Config, env *host.Env) *Contract {
	return &Contract{
		Config: &cfg.Oracle,
		Env:    env,
		Log:    logger.NewSublogger("oracle"),
	}
}

// Initialize sets the admin and the gating thresholds. Callable once.
func (self *Contract) Initialize(admin types.Address, minConfidence uint32, maxPriceAge uint64) error {
	return self.Env.Transact(func(env *host.Env) error {
		ok, err := env.HasInstance(keyAdmin)
		if err != nil {
			return err
		}
		if ok {
			return types.ErrNotAuthorized
		}

		err = env.SetInstance(keyAdmin, admin)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyConfig, contractConfig{
			MinConfidence: minConfidence,
			MaxPriceAge:   maxPriceAge,
		})
		if err != nil {
			return err
		}
		err = env.SetInstance(keyNodeIndex, []types.Address{})
		if err != nil {
			return err
		}

		err = env.ExtendInstanceTTL(self.Config.InstanceTTLThreshold, self.Config.InstanceTTLAmount)
		if err != nil {
			return err
		}

		self.Log.WithField("admin", admin).Info("Oracle initialized")
		return nil
	})
}

// AddNode registers a trusted reporting node. New nodes start active at
// reputation 100.
func (self *Contract) AddNode(admin, nodeAddress types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := self.requireAdmin(env, admin)
		if err != nil {
			return err
		}

		ok, err := env.HasPersistent(keyNodePrefix + string(nodeAddress))
		if err != nil {
			return err
		}
		if ok {
			// Node already exists
			return types.ErrNotAuthorized
		}

		node := types.OracleNode{
			Address:         nodeAddress,
			IsActive:        true,
			ReputationScore: 100,
			LastUpdate:      env.Now(),
		}
		err = env.SetPersistent(keyNodePrefix+string(nodeAddress), node)
		if err != nil {
			return err
		}

		index, err := self.nodeIndex(env)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyNodeIndex, append(index, nodeAddress))
		if err != nil {
			return err
		}

		env.Emit(types.OracleNodeAddedPayload{
			NodeAddress:     nodeAddress,
			ReputationScore: node.ReputationScore,
		})
		self.Log.WithField("node", nodeAddress).Info("Oracle node added")
		return nil
	})
}

func (self *Contract) RemoveNode(admin, nodeAddress types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := self.requireAdmin(env, admin)
		if err != nil {
			return err
		}

		ok, err := env.HasPersistent(keyNodePrefix + string(nodeAddress))
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotAuthorized
		}

		err = env.RemovePersistent(keyNodePrefix + string(nodeAddress))
		if err != nil {
			return err
		}

		index, err := self.nodeIndex(env)
		if err != nil {
			return err
		}
		kept := make([]types.Address, 0, len(index))
		for _, addr := range index {
			if addr != nodeAddress {
				kept = append(kept, addr)
			}
		}
		err = env.SetInstance(keyNodeIndex, kept)
		if err != nil {
			return err
		}

		env.Emit(types.OracleNodeRemovedPayload{
			NodeAddress: nodeAddress,
			Reason:      "removed by admin",
		})
		self.Log.WithField("node", nodeAddress).Info("Oracle node removed")
		return nil
	})
}

// SubmitPrice overwrites the asset's feed and adjusts the node's reputation
// by the quality of the submission.
func (self *Contract) SubmitPrice(nodeAddress types.Address, assetName string, price int64, confidence uint32, source string) error {
	return self.Env.Transact(func(env *host.Env) error {
		node, err := self.activeNode(env, nodeAddress)
		if err != nil {
			return err
		}

		cfg, err := self.config(env)
		if err != nil {
			return err
		}
		if confidence < cfg.MinConfidence {
			return types.ErrOracleError
		}

		now := env.Now()
		feed := types.PriceFeed{
			AssetName:  assetName,
			Price:      price,
			Timestamp:  now,
			Confidence: confidence,
			Source:     source,
		}
		err = env.SetPersistent(keyFeedPrefix+assetName, feed)
		if err != nil {
			return err
		}

		self.adjustReputation(node, confidence)
		node.LastUpdate = now
		err = env.SetPersistent(keyNodePrefix+string(nodeAddress), node)
		if err != nil {
			return err
		}

		env.Emit(types.PriceUpdatedPayload{
			AssetName:  assetName,
			Price:      price,
			Confidence: confidence,
			Source:     source,
			Timestamp:  now,
		})
		return nil
	})
}

// SubmitEventOutcome stores an oracle-reported outcome keyed by event id,
// with the same authorization and confidence gates as price submission.
func (self *Contract) SubmitEventOutcome(nodeAddress types.Address, eventID string, outcome types.MarketOutcome, confidence uint32, dataSource string) error {
	return self.Env.Transact(func(env *host.Env) error {
		node, err := self.activeNode(env, nodeAddress)
		if err != nil {
			return err
		}

		cfg, err := self.config(env)
		if err != nil {
			return err
		}
		if confidence < cfg.MinConfidence {
			return types.ErrOracleError
		}

		now := env.Now()
		err = env.SetPersistent(keyEventPrefix+eventID, types.EventData{
			EventID:    eventID,
			Outcome:    outcome,
			Timestamp:  now,
			Confidence: confidence,
			DataSource: dataSource,
		})
		if err != nil {
			return err
		}

		node.LastUpdate = now
		return env.SetPersistent(keyNodePrefix+string(nodeAddress), node)
	})
}

// GetPrice returns the stored feed, failing on a missing or stale record.
func (self *Contract) GetPrice(assetName string) (feed types.PriceFeed, err error) {
	ok, err := self.Env.GetPersistent(keyFeedPrefix+assetName, &feed)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrOracleError
		return
	}

	cfg, err := self.config(self.Env)
	if err != nil {
		return
	}
	if self.Env.Now()-feed.Timestamp > cfg.MaxPriceAge {
		// Price too old
		err = types.ErrOracleError
	}
	return
}

func (self *Contract) GetEventData(eventID string) (data types.EventData, err error) {
	ok, err := self.Env.GetPersistent(keyEventPrefix+eventID, &data)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrOracleError
	}
	return
}

// IsPriceAvailable reports whether a fresh feed exists, never failing.
func (self *Contract) IsPriceAvailable(assetName string) bool {
	var feed types.PriceFeed
	ok, err := self.Env.GetPersistent(keyFeedPrefix+assetName, &feed)
	if err != nil || !ok {
		return false
	}
	cfg, err := self.config(self.Env)
	if err != nil {
		return false
	}
	return self.Env.Now()-feed.Timestamp <= cfg.MaxPriceAge
}

// Subscribe is idempotent set membership per asset.
func (self *Contract) Subscribe(subscriber types.Address, assetName string) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(subscriber)
		if err != nil {
			return err
		}

		subs, err := self.subscribers(env, assetName)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if sub == subscriber {
				return nil
			}
		}
		return env.SetPersistent(keySubsPrefix+assetName, append(subs, subscriber))
	})
}

func (self *Contract) Unsubscribe(subscriber types.Address, assetName string) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(subscriber)
		if err != nil {
			return err
		}

		subs, err := self.subscribers(env, assetName)
		if err != nil {
			return err
		}

		kept := make([]types.Address, 0, len(subs))
		found := false
		for _, sub := range subs {
			if sub == subscriber {
				found = true
				continue
			}
			kept = append(kept, sub)
		}
		if !found {
			return nil
		}
		return env.SetPersistent(keySubsPrefix+assetName, kept)
	})
}

// SubscribeWithThreshold registers a threshold notification. Returns a
// non-fatal result so callers can branch without aborting.
func (self *Contract) SubscribeWithThreshold(subscriber types.Address, assetName string, threshold int64, condition types.Condition) types.CallResult[types.OracleSubscription] {
	if !self.IsPriceAvailable(assetName) {
		return types.Failed[types.OracleSubscription]("price not available for asset")
	}

	subscription := types.OracleSubscription{
		Subscriber: subscriber,
		AssetName:  assetName,
		Threshold:  threshold,
		Condition:  condition,
		CreatedAt:  self.Env.Now(),
		IsActive:   true,
	}

	err := self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(subscriber)
		if err != nil {
			return err
		}
		return env.SetPersistent(keyThreshPrefix+assetName+"/"+string(subscriber), subscription)
	})
	if err != nil {
		return types.Failed[types.OracleSubscription](err.Error())
	}

	err = self.Subscribe(subscriber, assetName)
	if err != nil {
		return types.Failed[types.OracleSubscription](err.Error())
	}

	return types.Ok(subscription)
}

// BatchSubmitPrices applies the single-submit side effects per tuple passing
// the confidence gate and returns the assets actually updated. Partial
// success, not atomic across tuples.
func (self *Contract) BatchSubmitPrices(nodeAddress types.Address, assets []string, prices []int64, confidences []uint32, source string) types.CallResult[[]string] {
	if len(assets) != len(prices) || len(assets) != len(confidences) {
		return types.Failed[[]string]("mismatched array lengths")
	}

	_, err := self.activeNode(self.Env, nodeAddress)
	if err != nil {
		return types.Failed[[]string]("unauthorized oracle node")
	}

	cfg, err := self.config(self.Env)
	if err != nil {
		return types.Failed[[]string](err.Error())
	}

	updated := make([]string, 0, len(assets))
	for i, asset := range assets {
		if confidences[i] < cfg.MinConfidence {
			continue
		}
		err = self.SubmitPrice(nodeAddress, asset, prices[i], confidences[i], source)
		if err != nil {
			return types.Failed[[]string](err.Error())
		}
		updated = append(updated, asset)
	}
	return types.Ok(updated)
}

// PriceWithFallback never fails. A missing or stale feed yields the
// caller-supplied fallback tagged as degraded.
func (self *Contract) PriceWithFallback(assetName string, fallbackPrice int64) types.CallResult[int64] {
	var feed types.PriceFeed
	ok, err := self.Env.GetPersistent(keyFeedPrefix+assetName, &feed)
	if err != nil || !ok {
		return types.Degraded(fallbackPrice, "no price data, using fallback")
	}

	cfg, err := self.config(self.Env)
	if err != nil {
		return types.Degraded(fallbackPrice, "no price data, using fallback")
	}
	if self.Env.Now()-feed.Timestamp > cfg.MaxPriceAge {
		return types.Degraded(fallbackPrice, "price too old, using fallback")
	}
	return types.Ok(feed.Price)
}

// ValidateResolution is the pure query markets use at resolution time. It
// combines the staleness-gated read with the threshold/direction check.
func (self *Contract) ValidateResolution(assetName string, targetPrice int64, condition types.Condition, requiredConfidence uint32) types.CallResult[bool] {
	feed, err := self.GetPrice(assetName)
	if err != nil {
		return types.Failed[bool](err.Error())
	}

	if feed.Confidence < requiredConfidence {
		return types.Failed[bool]("insufficient confidence for resolution")
	}

	var outcome bool
	switch condition {
	case types.ConditionAbove:
		outcome = feed.Price > targetPrice
	case types.ConditionBelow:
		outcome = feed.Price < targetPrice
	}
	return types.Ok(outcome)
}

// UpdateConfig replaces the gating thresholds, admin only.
func (self *Contract) UpdateConfig(admin types.Address, minConfidence uint32, maxPriceAge uint64) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := self.requireAdmin(env, admin)
		if err != nil {
			return err
		}

		old, err := self.config(env)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyConfig, contractConfig{
			MinConfidence: minConfidence,
			MaxPriceAge:   maxPriceAge,
		})
		if err != nil {
			return err
		}

		env.Emit(types.ConfigurationUpdatedPayload{
			ContractAddress: env.ContractAddress(),
			Parameter:       "min_confidence,max_price_age",
			OldValue:        fmt.Sprintf("%d,%d", old.MinConfidence, old.MaxPriceAge),
			NewValue:        fmt.Sprintf("%d,%d", minConfidence, maxPriceAge),
		})
		return nil
	})
}

func (self *Contract) GetNodes() (nodes []types.OracleNode, err error) {
	index, err := self.nodeIndex(self.Env)
	if err != nil {
		return
	}
	nodes = make([]types.OracleNode, 0, len(index))
	for _, addr := range index {
		var node types.OracleNode
		ok, err := self.Env.GetPersistent(keyNodePrefix+string(addr), &node)
		if err != nil {
			return nil, err
		}
		if ok {
			nodes = append(nodes, node)
		}
	}
	return
}

func (self *Contract) GetNode(addr types.Address) (node types.OracleNode, err error) {
	ok, err := self.Env.GetPersistent(keyNodePrefix+string(addr), &node)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrNotAuthorized
	}
	return
}

func (self *Contract) GetSubscribers(assetName string) ([]types.Address, error) {
	return self.subscribers(self.Env, assetName)
}

func (self *Contract) GetConfig() (minConfidence uint32, maxPriceAge uint64, err error) {
	cfg, err := self.config(self.Env)
	if err != nil {
		return
	}
	return cfg.MinConfidence, cfg.MaxPriceAge, nil
}

// Reputation moves by one point per accepted submission, saturating at the
// [0,100] bounds. 95 and above earns the point, below 80 loses one.
func (self *Contract) adjustReputation(node *types.OracleNode, confidence uint32) {
	switch {
	case confidence >= 95:
		if node.ReputationScore < 100 {
			node.ReputationScore++
		}
	case confidence < 80:
		if node.ReputationScore > 0 {
			node.ReputationScore--
		}
	}
}

// RequireAdmin authenticates the caller and checks it against the stored
// admin. Exposed for the enterprise layer built on top of this contract.
func (self *Contract) RequireAdmin(env *host.Env, admin types.Address) error {
	return self.requireAdmin(env, admin)
}

func (self *Contract) requireAdmin(env *host.Env, admin types.Address) error {
	err := env.RequireAuth(admin)
	if err != nil {
		return err
	}

	var stored types.Address
	ok, err := env.GetInstance(keyAdmin, &stored)
	if err != nil {
		return err
	}
	if !ok || stored != admin {
		return types.ErrNotAuthorized
	}
	return nil
}

func (self *Contract) activeNode(env *host.Env, addr types.Address) (*types.OracleNode, error) {
	err := env.RequireAuth(addr)
	if err != nil {
		return nil, err
	}

	var node types.OracleNode
	ok, err := env.GetPersistent(keyNodePrefix+string(addr), &node)
	if err != nil {
		return nil, err
	}
	if !ok || !node.IsActive {
		return nil, types.ErrNotAuthorized
	}
	return &node, nil
}

func (self *Contract) config(env *host.Env) (cfg contractConfig, err error) {
	ok, err := env.GetInstance(keyConfig, &cfg)
	if err != nil {
		return
	}
	if !ok {
		cfg = contractConfig{
			MinConfidence: self.Config.MinConfidence,
			MaxPriceAge:   self.Config.MaxPriceAge,
		}
	}
	return
}

func (self *Contract) nodeIndex(env *host.Env) (index []types.Address, err error) {
	_, err = env.GetInstance(keyNodeIndex, &index)
	return
}

func (self *Contract) subscribers(env *host.Env, assetName string) (subs []types.Address, err error) {
	_, err = env.GetPersistent(keySubsPrefix+assetName, &subs)
	return
}
