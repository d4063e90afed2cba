package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"purehill-revenue/models"
)

// RankSimulator projects the tracked hotel's rank for a hypothetical change to its minimum price
type RankSimulator struct {
	deltaRange decimal.Decimal
	step       decimal.Decimal
}

// NewRankSimulator creates a simulator accepting deltas within ±deltaRange
func NewRankSimulator(deltaRange, step float64) *RankSimulator {
	return &RankSimulator{
		deltaRange: decimal.NewFromFloat(deltaRange),
		step:       decimal.NewFromFloat(step),
	}
}

// Step is the suggested slider increment for presentation
func (s *RankSimulator) Step() decimal.Decimal { return s.step }

// Range is the largest accepted absolute delta
func (s *RankSimulator) Range() decimal.Decimal { return s.deltaRange }

// Simulate ranks trackedMin+delta among competitor minima, cheapest first.
// A tie shares the better rank: only strictly cheaper competitors push the simulated price down.
func (s *RankSimulator) Simulate(trackedMin decimal.Decimal, competitors []decimal.Decimal, delta decimal.Decimal) (*models.RankSimulation, error) {
	if delta.Abs().GreaterThan(s.deltaRange) {
		return nil, fmt.Errorf("%w: %s not within ±%s", ErrDeltaOutOfRange, delta, s.deltaRange)
	}
	if len(competitors) == 0 {
		return nil, fmt.Errorf("%w: no competitor prices to rank against", ErrInsufficientData)
	}

	simulated := trackedMin.Add(delta)
	cheaper := 0
	for _, c := range competitors {
		if c.LessThan(simulated) {
			cheaper++
		}
	}

	rank := cheaper + 1
	total := len(competitors) + 1
	return &models.RankSimulation{
		Delta:          delta,
		TrackedMin:     trackedMin,
		SimulatedPrice: simulated,
		Rank:           rank,
		Total:          total,
		Score:          float64(total-rank+1) / float64(total) * 100,
	}, nil
}
