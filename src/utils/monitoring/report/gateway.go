package report

import (
	"go.uber.org/atomic"
)

type GatewayErrors struct {
	Unauthorized atomic.Uint64 `json:"unauthorized"`
	BadRequest   atomic.Uint64 `json:"bad_request"`
	ContractCall atomic.Uint64 `json:"contract_call"`
}

type GatewayState struct {
	RequestsServed   atomic.Uint64 `json:"requests_served"`
	WebsocketClients atomic.Int64  `json:"websocket_clients"`

	AverageRequestsPerMinute atomic.Float64 `json:"average_requests_per_minute"`
	AverageRequestLatencyMs  atomic.Float64 `json:"average_request_latency_ms"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
