package services

import (
	"math"

	"purehill-revenue/models"
)

// Market position bands, by penetration index with inclusive lower bounds
const (
	BandAggressive = "aggressive/low"
	BandBalanced   = "balanced"
	BandPremium    = "premium"
)

// MarketBand classifies a penetration index
func MarketBand(index float64) string {
	switch {
	case index < 75:
		return BandAggressive
	case index < 95:
		return BandBalanced
	default:
		return BandPremium
	}
}

// ComputeMarketIndex compares the tracked hotel's prices with every other hotel in ix.
// Values that cannot be computed are left nil rather than reported as zero, NaN or infinity.
func ComputeMarketIndex(ix *Index, trackedKey string) models.MarketIndex {
	tracked := ix.Only(trackedKey).Prices()
	competitors := ix.Except(trackedKey).Prices()

	mi := models.MarketIndex{
		TrackedCount:    len(tracked),
		CompetitorCount: len(competitors),
	}

	trackedAvg, hasTracked := computeMean(tracked)
	competitorAvg, hasCompetitors := computeMean(competitors)
	if hasTracked {
		mi.TrackedAvg = ptr(trackedAvg)
	}
	if hasCompetitors {
		mi.CompetitorAvg = ptr(competitorAvg)
	}

	if hasTracked && hasCompetitors && competitorAvg != 0 {
		index := trackedAvg / competitorAvg * 100
		mi.PenetrationIndex = ptr(index)
		mi.Band = MarketBand(index)
	}

	if std, ok := computeStddev(tracked, trackedAvg); ok {
		mi.PriceStd = ptr(std)
		if trackedAvg != 0 {
			mi.StabilityScore = ptr(math.Max(0, 100-(std/trackedAvg*100)))
		}
	}

	if hasTracked && hasCompetitors {
		mi.PremiumGap = ptr(trackedAvg - minOf(competitors))
	}
	return mi
}

// computeMean returns the arithmetic mean and whether any values were given
func computeMean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// computeStddev calculates sample standard deviation (n-1 denominator).
// Fewer than two samples is not computable.
func computeStddev(values []float64, mean float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1)), true
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func ptr(v float64) *float64 { return &v }
