package sources

import (
	"context"
	"errors"
)

// Observation is one price sample from an external source.
type Observation struct {
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	Weight  uint32 `json:"weight"`
	Latency uint32 `json:"latency"`
	Volume  int64  `json:"volume"`
	Spread  int64  `json:"spread"`
}

// Provider fetches current observations for an asset.
type Provider interface {
	Observations(ctx context.Context, assetName string) ([]Observation, error)
}

// Aggregator folds a set of observations into one price and a confidence
// score. Strategies are swappable, the weighting algorithm is not part of
// the contract semantics.
type Aggregator interface {
	Aggregate(observations []Observation) (price int64, confidence uint32, err error)
}

var ErrNoObservations = errors.New("no observations to aggregate")

// StaticProvider returns a fixed observation set per asset. Used in tests
// and as the dev-mode stand-in for live sources.
type StaticProvider map[string][]Observation

func (self StaticProvider) Observations(_ context.Context, assetName string) ([]Observation, error) {
	observations, ok := self[assetName]
	if !ok {
		return nil, ErrNoObservations
	}
	return observations, nil
}
