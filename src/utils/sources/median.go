package sources

import (
	"golang.org/x/exp/slices"
)

// VolumeWeightedMedian picks the price at the midpoint of cumulative volume.
// Confidence starts at 100 and decays with the relative spread of the
// observation set, floored at 50 for any non-empty set.
type VolumeWeightedMedian struct{}

func (self VolumeWeightedMedian) Aggregate(observations []Observation) (price int64, confidence uint32, err error) {
	if len(observations) == 0 {
		err = ErrNoObservations
		return
	}

	sorted := make([]Observation, len(observations))
	copy(sorted, observations)
	slices.SortStableFunc(sorted, func(a, b Observation) int {
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		default:
			return 0
		}
	})

	var totalVolume int64
	for _, observation := range sorted {
		volume := observation.Volume
		if volume <= 0 {
			// Sources without volume data still count with unit weight
			volume = 1
		}
		totalVolume += volume
	}

	var cumulative int64
	price = sorted[len(sorted)-1].Price
	for _, observation := range sorted {
		volume := observation.Volume
		if volume <= 0 {
			volume = 1
		}
		cumulative += volume
		if cumulative*2 >= totalVolume {
			price = observation.Price
			break
		}
	}

	confidence = self.confidence(sorted)
	return
}

func (self VolumeWeightedMedian) confidence(sorted []Observation) uint32 {
	low := sorted[0].Price
	high := sorted[len(sorted)-1].Price
	if low <= 0 {
		return 50
	}

	// Spread between extremes, in percent of the low price
	spreadPct := (high - low) * 100 / low
	if spreadPct > 50 {
		spreadPct = 50
	}
	return uint32(100 - spreadPct)
}
