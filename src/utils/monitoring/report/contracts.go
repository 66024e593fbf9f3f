package report

import (
	"go.uber.org/atomic"
)

type ContractsErrors struct {
	BetRejected         atomic.Uint64 `json:"bet_rejected"`
	ResolutionFailure   atomic.Uint64 `json:"resolution_failure"`
	ClaimRejected       atomic.Uint64 `json:"claim_rejected"`
	SubmissionRejected  atomic.Uint64 `json:"submission_rejected"`
	StakeRejected       atomic.Uint64 `json:"stake_rejected"`
	EventEmitRejected   atomic.Uint64 `json:"event_emit_rejected"`
	CreateMarketFailure atomic.Uint64 `json:"create_market_failure"`
}

type ContractsState struct {
	MarketsCreated   atomic.Uint64 `json:"markets_created"`
	MarketsResolved  atomic.Uint64 `json:"markets_resolved"`
	BetsPlaced       atomic.Uint64 `json:"bets_placed"`
	WinningsClaimed  atomic.Uint64 `json:"winnings_claimed"`
	PriceSubmissions atomic.Uint64 `json:"price_submissions"`
	TokensStaked     atomic.Int64  `json:"tokens_staked"`
	EventsEmitted    atomic.Uint64 `json:"events_emitted"`

	AverageBetsPerMinute atomic.Float64 `json:"average_bets_per_minute"`
}

type ContractsReport struct {
	State  ContractsState  `json:"state"`
	Errors ContractsErrors `json:"errors"`
}
