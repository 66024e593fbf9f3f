package request

// Oracle

type SubmitPrice struct {
	AssetName  string `json:"asset_name" binding:"required"`
	Price      int64  `json:"price" binding:"required"`
	Confidence uint32 `json:"confidence" binding:"required"`
	Source     string `json:"source"`
}

type BatchSubmitPrices struct {
	AssetNames  []string `json:"asset_names" binding:"required"`
	Prices      []int64  `json:"prices" binding:"required"`
	Confidences []uint32 `json:"confidences" binding:"required"`
	Source      string   `json:"source"`
}

type SubmitEventOutcome struct {
	EventID    string `json:"event_id" binding:"required"`
	Outcome    uint32 `json:"outcome"`
	Confidence uint32 `json:"confidence" binding:"required"`
}

type AddNode struct {
	Address string `json:"address" binding:"required"`
}

type Subscribe struct {
	AssetName string `json:"asset_name" binding:"required"`
	Threshold int64  `json:"threshold"`
	Condition uint32 `json:"condition"`
}

type UpdateOracleConfig struct {
	MinConfidence uint32 `json:"min_confidence" binding:"required"`
	MaxPriceAge   uint64 `json:"max_price_age" binding:"required"`
}

// Enterprise

type RegisterClient struct {
	Address   string `json:"address" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Tier      uint32 `json:"tier"`
	RateLimit uint32 `json:"rate_limit"`
}

type EnterprisePrice struct {
	MinConfidence uint32 `json:"min_confidence"`
	MaxAge        uint64 `json:"max_age"`
}

type BatchPrices struct {
	AssetNames []string `json:"asset_names" binding:"required"`
}

// Staking

type Stake struct {
	Amount int64 `json:"amount" binding:"required"`
}

type Unstake struct {
	Amount int64 `json:"amount" binding:"required"`
}

type AddRewards struct {
	Amount int64 `json:"amount" binding:"required"`
}

// Markets

type CreateMarket struct {
	EventDescription string `json:"event_description" binding:"required"`
	OracleAsset      string `json:"oracle_asset" binding:"required"`
	TargetPrice      int64  `json:"target_price" binding:"required"`
	Condition        uint32 `json:"condition"`
	ResolveTime      uint64 `json:"resolve_time" binding:"required"`
	MinBetAmount     int64  `json:"min_bet_amount" binding:"required"`
	MaxBetAmount     int64  `json:"max_bet_amount" binding:"required"`
	CreatorFeeRate   uint32 `json:"creator_fee_rate"`
}

type PlaceBet struct {
	Side   bool  `json:"side"`
	Amount int64 `json:"amount" binding:"required"`
}

// Events

type QueryEvents struct {
	EventTypes        []string `json:"event_types"`
	ContractAddresses []string `json:"contract_addresses"`
	FromTimestamp     *uint64  `json:"from_timestamp"`
	ToTimestamp       *uint64  `json:"to_timestamp"`
}

type SubscribeEvents struct {
	EventTypes        []string `json:"event_types"`
	ContractAddresses []string `json:"contract_addresses"`
}
