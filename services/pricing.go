package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"purehill-revenue/models"
)

// DemandPricer suggests a rate from expected occupancy. The result is advisory only.
type DemandPricer struct {
	base       decimal.Decimal
	surgeAbove int
	multiplier decimal.Decimal
}

// NewDemandPricer creates a pricer raising base by multiplier once occupancy exceeds surgeAbove percent
func NewDemandPricer(base float64, surgeAbove int, multiplier float64) *DemandPricer {
	return &DemandPricer{
		base:       decimal.NewFromFloat(base),
		surgeAbove: surgeAbove,
		multiplier: decimal.NewFromFloat(multiplier),
	}
}

// Suggest returns the advisory price for an occupancy percentage. Fractional won are dropped.
func (p *DemandPricer) Suggest(occupancyPct int) (*models.PriceSuggestion, error) {
	if occupancyPct < 0 || occupancyPct > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOccupancy, occupancyPct)
	}
	s := &models.PriceSuggestion{
		OccupancyPct:   occupancyPct,
		BasePrice:      p.base,
		SuggestedPrice: p.base,
	}
	if occupancyPct > p.surgeAbove {
		s.HighDemand = true
		s.SuggestedPrice = p.base.Mul(p.multiplier).Truncate(0)
	}
	return s, nil
}
