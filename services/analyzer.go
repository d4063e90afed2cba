package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"purehill-revenue/config"
	"purehill-revenue/models"
	"purehill-revenue/utils"
)

// Analyzer derives every report from a single snapshot so one render never mixes refresh cycles
type Analyzer struct {
	trackedKey   string
	trackedLabel string
	topN         int
	parity       *ParityDetector
	dumping      DumpingRule
	rank         *RankSimulator
	pricer       *DemandPricer
	logger       *utils.Logger
}

// NewAnalyzer creates an Analyzer from validated configuration
func NewAnalyzer(cfg *config.Config, logger *utils.Logger) *Analyzer {
	return &Analyzer{
		trackedKey:   cfg.TrackedHotel,
		trackedLabel: cfg.TrackedHotelLabel,
		topN:         cfg.ParityTopN,
		parity:       NewParityDetector(cfg.ParityThreshold),
		dumping: DumpingRule{
			RecentDays:   cfg.DumpingRecentDays,
			BaselineDays: cfg.DumpingBaselineDays,
			Ratio:        cfg.DumpingRatio,
		},
		rank:   NewRankSimulator(cfg.RankDeltaRange, cfg.RankDeltaStep),
		pricer: NewDemandPricer(cfg.DemandBasePrice, cfg.DemandSurgeOccupancy, cfg.DemandSurgeMultiplier),
		logger: logger,
	}
}

// TopN is the number of parity violations surfaced to presentation
func (a *Analyzer) TopN() int { return a.topN }

// RankSimulator exposes the configured simulator
func (a *Analyzer) RankSimulator() *RankSimulator { return a.rank }

// Analyze builds the full report for snap restricted to f
func (a *Analyzer) Analyze(snap *models.Snapshot, f models.Filter) *models.RateReport {
	ix := NewIndex(snap).Filter(f)

	report := &models.RateReport{
		TrackedHotel:   a.trackedLabel,
		MinPrices:      ix.MinByHotelDate(nil, nil),
		Parity:         a.parity.Detect(ix, a.trackedKey),
		LeadTime:       AnalyzeLeadTime(ix, a.trackedKey, a.dumping),
		Market:         ComputeMarketIndex(ix, a.trackedKey),
		CompetitorMins: ix.Except(a.trackedKey).HotelMinima(),
	}
	if snap != nil {
		report.SnapshotID = snap.ID
		report.BuiltAt = snap.BuiltAt
		report.Stats = snap.Stats
	}
	if mins := ix.Only(a.trackedKey).HotelMinima(); len(mins) > 0 {
		m := mins[0].MinPrice
		report.TrackedMin = &m
	}

	a.logger.Debug("Analyzed snapshot %s: %d observations, %d parity violations, %d dumping hotels",
		report.SnapshotID, ix.Len(), len(report.Parity.Violations), len(report.LeadTime.Flagged))
	return report
}

// Simulate projects the tracked hotel's rank for delta against the competitor minima of snap under f
func (a *Analyzer) Simulate(snap *models.Snapshot, f models.Filter, delta decimal.Decimal) (*models.RankSimulation, error) {
	ix := NewIndex(snap).Filter(f)

	tracked := ix.Only(a.trackedKey).HotelMinima()
	if len(tracked) == 0 {
		return nil, fmt.Errorf("%w: no observations for tracked hotel %q", ErrInsufficientData, a.trackedLabel)
	}

	competitors := ix.Except(a.trackedKey).HotelMinima()
	prices := make([]decimal.Decimal, len(competitors))
	for i, c := range competitors {
		prices[i] = c.MinPrice
	}
	return a.rank.Simulate(tracked[0].MinPrice, prices, delta)
}

// Suggest returns the demand-driven price suggestion
func (a *Analyzer) Suggest(occupancyPct int) (*models.PriceSuggestion, error) {
	return a.pricer.Suggest(occupancyPct)
}
