package types

import (
	"encoding/json"
	"fmt"
)

// EventType is the closed taxonomy of contract events.
type EventType uint32

const (
	EventMarketCreated EventType = iota
	EventMarketResolved
	EventBetPlaced
	EventWinningsClaimed
	EventTokensStaked
	EventTokensUnstaked
	EventRewardsClaimed
	EventPriceUpdated
	EventOracleNodeAdded
	EventOracleNodeRemoved
	EventCrossContractCall
	EventContractValidationFailed
	EventFeeCollected
	EventConfigurationUpdated

	eventTypeCount
)

var eventTypeNames = [eventTypeCount]string{
	EventMarketCreated:            "MarketCreated",
	EventMarketResolved:           "MarketResolved",
	EventBetPlaced:                "BetPlaced",
	EventWinningsClaimed:          "WinningsClaimed",
	EventTokensStaked:             "TokensStaked",
	EventTokensUnstaked:           "TokensUnstaked",
	EventRewardsClaimed:           "RewardsClaimed",
	EventPriceUpdated:             "PriceUpdated",
	EventOracleNodeAdded:          "OracleNodeAdded",
	EventOracleNodeRemoved:        "OracleNodeRemoved",
	EventCrossContractCall:        "CrossContractCall",
	EventContractValidationFailed: "ContractValidationFailed",
	EventFeeCollected:             "FeeCollected",
	EventConfigurationUpdated:     "ConfigurationUpdated",
}

// String returns the canonical name used for indexing and filtering.
// The mapping is total over the taxonomy.
func (self EventType) String() string {
	if self >= eventTypeCount {
		return fmt.Sprintf("EventType(%d)", uint32(self))
	}
	return eventTypeNames[self]
}

// ParseEventType resolves a canonical name back to its tag.
func ParseEventType(name string) (EventType, bool) {
	for i, n := range eventTypeNames {
		if n == name {
			return EventType(i), true
		}
	}
	return 0, false
}

// EventPayload is implemented by the closed set of per-variant payloads.
type EventPayload interface {
	EventType() EventType
}

type MarketCreatedPayload struct {
	MarketID    uint32  `json:"market_id"`
	Creator     Address `json:"creator"`
	ContractID  Address `json:"contract_id"`
	Description string  `json:"description"`
	AssetSymbol string  `json:"asset_symbol"`
	TargetPrice int64   `json:"target_price"`
	ResolveTime uint64  `json:"resolve_time"`
}

type MarketResolvedPayload struct {
	Outcome    bool   `json:"outcome"`
	FinalPrice int64  `json:"final_price"`
	Confidence uint32 `json:"confidence"`
	TotalPool  int64  `json:"total_pool"`
}

type BetPlacedPayload struct {
	Bettor       Address `json:"bettor"`
	Side         bool    `json:"side"`
	Amount       int64   `json:"amount"`
	TotalFor     int64   `json:"total_for"`
	TotalAgainst int64   `json:"total_against"`
}

type WinningsClaimedPayload struct {
	Winner Address `json:"winner"`
	Amount int64   `json:"amount"`
}

type TokensStakedPayload struct {
	Staker      Address `json:"staker"`
	Amount      int64   `json:"amount"`
	TotalStaked int64   `json:"total_staked"`
	APY         uint32  `json:"apy"`
}

type TokensUnstakedPayload struct {
	Staker          Address `json:"staker"`
	Amount          int64   `json:"amount"`
	RemainingStaked int64   `json:"remaining_staked"`
}

type RewardsClaimedPayload struct {
	Staker Address `json:"staker"`
	Amount int64   `json:"amount"`
	Unpaid int64   `json:"unpaid"`
}

type PriceUpdatedPayload struct {
	AssetName  string `json:"asset_name"`
	Price      int64  `json:"price"`
	Confidence uint32 `json:"confidence"`
	Source     string `json:"source"`
	Timestamp  uint64 `json:"timestamp"`
}

type OracleNodeAddedPayload struct {
	NodeAddress     Address `json:"node_address"`
	ReputationScore uint32  `json:"reputation_score"`
}

type OracleNodeRemovedPayload struct {
	NodeAddress Address `json:"node_address"`
	Reason      string  `json:"reason"`
}

type CrossContractCallPayload struct {
	FromContract Address `json:"from_contract"`
	ToContract   Address `json:"to_contract"`
	FunctionName string  `json:"function_name"`
	Success      bool    `json:"success"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

type ContractValidationFailedPayload struct {
	ContractAddress Address `json:"contract_address"`
	ValidationType  string  `json:"validation_type"`
	Reason          string  `json:"reason"`
}

type FeeCollectedPayload struct {
	Collector Address `json:"collector"`
	Amount    int64   `json:"amount"`
	FeeType   string  `json:"fee_type"`
}

type ConfigurationUpdatedPayload struct {
	ContractAddress Address `json:"contract_address"`
	Parameter       string  `json:"parameter"`
	OldValue        string  `json:"old_value"`
	NewValue        string  `json:"new_value"`
}

func (MarketCreatedPayload) EventType() EventType    { return EventMarketCreated }
func (MarketResolvedPayload) EventType() EventType   { return EventMarketResolved }
func (BetPlacedPayload) EventType() EventType        { return EventBetPlaced }
func (WinningsClaimedPayload) EventType() EventType  { return EventWinningsClaimed }
func (TokensStakedPayload) EventType() EventType     { return EventTokensStaked }
func (TokensUnstakedPayload) EventType() EventType   { return EventTokensUnstaked }
func (RewardsClaimedPayload) EventType() EventType   { return EventRewardsClaimed }
func (PriceUpdatedPayload) EventType() EventType     { return EventPriceUpdated }
func (OracleNodeAddedPayload) EventType() EventType  { return EventOracleNodeAdded }
func (OracleNodeRemovedPayload) EventType() EventType {
	return EventOracleNodeRemoved
}
func (CrossContractCallPayload) EventType() EventType {
	return EventCrossContractCall
}
func (ContractValidationFailedPayload) EventType() EventType {
	return EventContractValidationFailed
}
func (FeeCollectedPayload) EventType() EventType { return EventFeeCollected }
func (ConfigurationUpdatedPayload) EventType() EventType {
	return EventConfigurationUpdated
}

// ContractEvent is one published event: a static tag, the emitting contract,
// the ledger time of emission and the variant payload.
type ContractEvent struct {
	Type      EventType    `json:"type"`
	Contract  Address      `json:"contract"`
	Timestamp uint64       `json:"timestamp"`
	Payload   EventPayload `json:"payload"`
}

func NewEvent(contract Address, timestamp uint64, payload EventPayload) ContractEvent {
	return ContractEvent{
		Type:      payload.EventType(),
		Contract:  contract,
		Timestamp: timestamp,
		Payload:   payload,
	}
}

type eventEnvelope struct {
	Type      EventType       `json:"type"`
	Name      string          `json:"name"`
	Contract  Address         `json:"contract"`
	Timestamp uint64          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func (self ContractEvent) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(self.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventEnvelope{
		Type:      self.Type,
		Name:      self.Type.String(),
		Contract:  self.Contract,
		Timestamp: self.Timestamp,
		Payload:   payload,
	})
}

func (self *ContractEvent) UnmarshalJSON(data []byte) error {
	var envelope eventEnvelope
	err := json.Unmarshal(data, &envelope)
	if err != nil {
		return err
	}

	payload, err := newPayload(envelope.Type)
	if err != nil {
		return err
	}
	err = json.Unmarshal(envelope.Payload, payload)
	if err != nil {
		return err
	}

	self.Type = envelope.Type
	self.Contract = envelope.Contract
	self.Timestamp = envelope.Timestamp
	self.Payload = payloadValue(payload)
	return nil
}

// MarshalBinary lets events go straight into the redis publisher.
func (self ContractEvent) MarshalBinary() ([]byte, error) {
	return self.MarshalJSON()
}

func newPayload(t EventType) (EventPayload, error) {
	switch t {
	case EventMarketCreated:
		return &MarketCreatedPayload{}, nil
	case EventMarketResolved:
		return &MarketResolvedPayload{}, nil
	case EventBetPlaced:
		return &BetPlacedPayload{}, nil
	case EventWinningsClaimed:
		return &WinningsClaimedPayload{}, nil
	case EventTokensStaked:
		return &TokensStakedPayload{}, nil
	case EventTokensUnstaked:
		return &TokensUnstakedPayload{}, nil
	case EventRewardsClaimed:
		return &RewardsClaimedPayload{}, nil
	case EventPriceUpdated:
		return &PriceUpdatedPayload{}, nil
	case EventOracleNodeAdded:
		return &OracleNodeAddedPayload{}, nil
	case EventOracleNodeRemoved:
		return &OracleNodeRemovedPayload{}, nil
	case EventCrossContractCall:
		return &CrossContractCallPayload{}, nil
	case EventContractValidationFailed:
		return &ContractValidationFailedPayload{}, nil
	case EventFeeCollected:
		return &FeeCollectedPayload{}, nil
	case EventConfigurationUpdated:
		return &ConfigurationUpdatedPayload{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %d", uint32(t))
	}
}

// payloadValue strips the pointer created for unmarshalling so that events
// compare by value regardless of how they were produced.
func payloadValue(p EventPayload) EventPayload {
	switch v := p.(type) {
	case *MarketCreatedPayload:
		return *v
	case *MarketResolvedPayload:
		return *v
	case *BetPlacedPayload:
		return *v
	case *WinningsClaimedPayload:
		return *v
	case *TokensStakedPayload:
		return *v
	case *TokensUnstakedPayload:
		return *v
	case *RewardsClaimedPayload:
		return *v
	case *PriceUpdatedPayload:
		return *v
	case *OracleNodeAddedPayload:
		return *v
	case *OracleNodeRemovedPayload:
		return *v
	case *CrossContractCallPayload:
		return *v
	case *ContractValidationFailedPayload:
		return *v
	case *FeeCollectedPayload:
		return *v
	case *ConfigurationUpdatedPayload:
		return *v
	default:
		return p
	}
}

// EventFilter selects events by conjunction of its present dimensions.
// Absent dimensions are wildcards.
type EventFilter struct {
	EventTypes        []EventType `json:"event_types,omitempty"`
	ContractAddresses []Address   `json:"contract_addresses,omitempty"`
	FromTimestamp     *uint64     `json:"from_timestamp,omitempty"`
	ToTimestamp       *uint64     `json:"to_timestamp,omitempty"`
}

// Matches reports whether the event passes every present filter dimension.
func (self *EventFilter) Matches(event *ContractEvent) bool {
	if len(self.EventTypes) > 0 {
		found := false
		for _, t := range self.EventTypes {
			if t == event.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(self.ContractAddresses) > 0 {
		found := false
		for _, a := range self.ContractAddresses {
			if a == event.Contract {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if self.FromTimestamp != nil && event.Timestamp < *self.FromTimestamp {
		return false
	}
	if self.ToTimestamp != nil && event.Timestamp > *self.ToTimestamp {
		return false
	}

	return true
}
