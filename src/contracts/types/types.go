package types

// Address identifies an account or a contract instance on the ledger.
type Address string

// MarketStatus enumerates the market lifecycle states.
type MarketStatus uint32

const (
	MarketStatusActive MarketStatus = iota
	MarketStatusClosed
	MarketStatusResolved
	MarketStatusCancelled
)

// Condition is the direction of a price-threshold comparison.
type Condition uint32

const (
	ConditionAbove Condition = 0
	ConditionBelow Condition = 1
)

// MarketOutcome enumerates event-data outcomes reported by oracle nodes.
type MarketOutcome uint32

const (
	OutcomeA MarketOutcome = iota
	OutcomeB
	OutcomeDraw
	OutcomeInvalid
)

// Market is the full state record of one prediction market instance.
type Market struct {
	ID             uint32       `json:"id"`
	Creator        Address      `json:"creator"`
	EventName      string       `json:"event_name"`
	OutcomeAName   string       `json:"outcome_a_name"`
	OutcomeBName   string       `json:"outcome_b_name"`
	EndTime        uint64       `json:"end_time"`
	ResolutionTime uint64       `json:"resolution_time"`
	Status         MarketStatus `json:"status"`
	TotalPoolA     int64        `json:"total_pool_a"`
	TotalPoolB     int64        `json:"total_pool_b"`
	OracleAddress  Address      `json:"oracle_address"`
	OracleAsset    string       `json:"oracle_asset"`
	TargetPrice    int64        `json:"target_price"`
	Condition      Condition    `json:"condition"`
	MinBetAmount   int64        `json:"min_bet_amount"`
	MaxBetAmount   int64        `json:"max_bet_amount"`
	CreatorFeeRate uint32       `json:"creator_fee_rate"`
}

func (self *Market) IsActive() bool {
	return self.Status == MarketStatusActive
}

func (self *Market) IsResolved() bool {
	return self.Status == MarketStatusResolved
}

func (self *Market) TotalPool() int64 {
	return self.TotalPoolA + self.TotalPoolB
}

func (self *Market) CanResolve(now uint64) bool {
	return now >= self.ResolutionTime && self.IsActive()
}

// CalculateOutcome derives the boolean market outcome from the final oracle
// price and the market's target price and condition.
func (self *Market) CalculateOutcome(finalPrice int64) bool {
	switch self.Condition {
	case ConditionAbove:
		return finalPrice > self.TargetPrice
	case ConditionBelow:
		return finalPrice < self.TargetPrice
	default:
		return false
	}
}

// PriceFeed is the single current observation stored per asset.
// New submissions overwrite in place, no history is retained.
type PriceFeed struct {
	AssetName  string `json:"asset_name"`
	Price      int64  `json:"price"`
	Timestamp  uint64 `json:"timestamp"`
	Confidence uint32 `json:"confidence"`
	Source     string `json:"source"`
}

// EventData is an oracle-reported outcome for a named off-chain event.
type EventData struct {
	EventID    string        `json:"event_id"`
	Outcome    MarketOutcome `json:"outcome"`
	Timestamp  uint64        `json:"timestamp"`
	Confidence uint32        `json:"confidence"`
	DataSource string        `json:"data_source"`
}

// OracleNode is one member of the trusted reporting set.
// ReputationScore stays within [0,100], saturating at both bounds.
type OracleNode struct {
	Address         Address `json:"address"`
	IsActive        bool    `json:"is_active"`
	ReputationScore uint32  `json:"reputation_score"`
	LastUpdate      uint64  `json:"last_update"`
	Tier            uint32  `json:"tier"`
	Uptime          uint32  `json:"uptime"`
	LatencyAvg      uint32  `json:"latency_avg"`
}

// StakeInfo tracks one staker's principal and banked rewards.
type StakeInfo struct {
	Staker             Address `json:"staker"`
	Amount             int64   `json:"amount"`
	StakeTime          uint64  `json:"stake_time"`
	LastRewardTime     uint64  `json:"last_reward_time"`
	AccumulatedRewards int64   `json:"accumulated_rewards"`
}

// EnterpriseClient is a gateway client record. Tier 1 is professional,
// 2 enterprise, 3 institutional.
type EnterpriseClient struct {
	Address       Address `json:"address"`
	InstitutionID string  `json:"institution_id"`
	Tier          uint32  `json:"tier"`
	IsActive      bool    `json:"is_active"`
	RateLimit     uint32  `json:"rate_limit"`
	CreatedAt     uint64  `json:"created_at"`
	LastActivity  uint64  `json:"last_activity"`
}

// RateLimit is the per-client hourly request bucket.
type RateLimit struct {
	ClientAddress    Address `json:"client_address"`
	RequestsThisHour uint32  `json:"requests_this_hour"`
	HourStart        uint64  `json:"hour_start"`
	Limit            uint32  `json:"limit"`
}

// EnterpriseMetrics is the gateway-wide monotonically accumulating counter set.
type EnterpriseMetrics struct {
	TotalRequests      uint64 `json:"total_requests"`
	SuccessfulRequests uint64 `json:"successful_requests"`
	FailedRequests     uint64 `json:"failed_requests"`
	AverageLatency     uint32 `json:"average_latency"`
	UptimePercentage   uint64 `json:"uptime_percentage"`
	DataQualityScore   uint32 `json:"data_quality_score"`
	LastUpdated        uint64 `json:"last_updated"`
}

// PriceSource is one constituent observation of an aggregated feed.
type PriceSource struct {
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	Weight  uint32 `json:"weight"`
	Latency uint32 `json:"latency"`
	Volume  int64  `json:"volume,omitempty"`
	Spread  int64  `json:"spread,omitempty"`
}

// PriceMetadata is the enriched sidecar record of an enterprise feed.
type PriceMetadata struct {
	Volume24h   int64  `json:"volume_24h"`
	Spread      int64  `json:"spread"`
	Volatility  uint32 `json:"volatility"`
	MarketCap   int64  `json:"market_cap,omitempty"`
	LastUpdate  uint64 `json:"last_update"`
	UpdateCount uint32 `json:"update_count"`
}

// EnterprisePriceFeed is the enriched response returned to gateway clients.
type EnterprisePriceFeed struct {
	AssetName  string        `json:"asset_name"`
	Price      int64         `json:"price"`
	Timestamp  uint64        `json:"timestamp"`
	Confidence uint32        `json:"confidence"`
	Sources    []PriceSource `json:"sources"`
	Metadata   PriceMetadata `json:"metadata"`
	Latency    uint32        `json:"latency"`
}

// OracleSubscription is a threshold-notification registration.
type OracleSubscription struct {
	Subscriber Address   `json:"subscriber"`
	AssetName  string    `json:"asset_name"`
	Threshold  int64     `json:"threshold"`
	Condition  Condition `json:"condition"`
	CreatedAt  uint64    `json:"created_at"`
	IsActive   bool      `json:"is_active"`
}

// CallResult is the non-fatal result object returned by read-mostly
// operations that should not abort the caller's transaction.
type CallResult[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

func Ok[T any](data T) CallResult[T] {
	return CallResult[T]{Success: true, Data: data}
}

func Degraded[T any](data T, msg string) CallResult[T] {
	return CallResult[T]{Success: true, Data: data, Error: msg}
}

func Failed[T any](msg string) CallResult[T] {
	return CallResult[T]{Success: false, Error: msg}
}

// ContractRegistry holds the four addressable contracts of one deployment.
type ContractRegistry struct {
	Staking          Address `json:"staking"`
	Oracle           Address `json:"oracle"`
	MarketFactory    Address `json:"market_factory"`
	PredictionMarket Address `json:"prediction_market"`
}

// Contains reports whether addr is one of the registered contracts.
func (self *ContractRegistry) Contains(addr Address) bool {
	return addr == self.Staking ||
		addr == self.Oracle ||
		addr == self.MarketFactory ||
		addr == self.PredictionMarket
}

// EventSubscription registers an off-chain observer for bus events.
type EventSubscription struct {
	Subscriber        Address   `json:"subscriber"`
	EventTypes        []string  `json:"event_types"`
	ContractAddresses []Address `json:"contract_addresses"`
	CreatedAt         uint64    `json:"created_at"`
	IsActive          bool      `json:"is_active"`
}
