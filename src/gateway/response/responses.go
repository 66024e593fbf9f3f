package response

// Error is the uniform failure envelope.
type Error struct {
	Error string `json:"error"`
}

type CreateMarket struct {
	Address string `json:"address"`
}

type Claim struct {
	Payout int64 `json:"payout"`
}

type UserBets struct {
	For     int64 `json:"for"`
	Against int64 `json:"against"`
}

type Totals struct {
	TotalFor     int64 `json:"total_for"`
	TotalAgainst int64 `json:"total_against"`
}

type APY struct {
	BasisPoints uint32 `json:"basis_points"`
}

type ClaimRewards struct {
	Paid int64 `json:"paid"`
}

type Health struct {
	Status string `json:"status"`
	Report any    `json:"report"`
}
