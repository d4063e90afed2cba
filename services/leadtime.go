package services

import (
	"sort"

	"purehill-revenue/models"
)

// DumpingRule flags a hotel whose short-lead-time average falls below Ratio of its long-lead-time baseline
type DumpingRule struct {
	RecentDays   int     // lead time <= RecentDays counts as recent
	BaselineDays int     // lead time > BaselineDays counts as baseline
	Ratio        float64 // recent < baseline * Ratio flags the hotel
}

// AnalyzeLeadTime builds the pickup curve for every hotel and runs dumping detection on competitors
func AnalyzeLeadTime(ix *Index, trackedKey string, rule DumpingRule) models.LeadTimeReport {
	report := models.LeadTimeReport{
		Curve:   []models.LeadTimePoint{},
		Signals: []models.DumpingSignal{},
		Flagged: []string{},
	}

	for k, p := range ix.GroupMin(DimHotel | DimLeadTime) {
		report.Curve = append(report.Curve, models.LeadTimePoint{
			HotelName: ix.HotelLabel(k.Hotel),
			LeadTime:  k.LeadTime,
			MinPrice:  p,
		})
	}
	sort.Slice(report.Curve, func(i, j int) bool {
		if report.Curve[i].HotelName != report.Curve[j].HotelName {
			return report.Curve[i].HotelName < report.Curve[j].HotelName
		}
		return report.Curve[i].LeadTime > report.Curve[j].LeadTime
	})

	recent := make(map[string][]float64)
	baseline := make(map[string][]float64)
	for _, o := range ix.Except(trackedKey).Observations() {
		switch {
		case o.LeadTime <= rule.RecentDays:
			recent[o.HotelKey] = append(recent[o.HotelKey], o.Price.InexactFloat64())
		case o.LeadTime > rule.BaselineDays:
			baseline[o.HotelKey] = append(baseline[o.HotelKey], o.Price.InexactFloat64())
		}
	}

	for hotel, prices := range recent {
		recentAvg, _ := computeMean(prices)
		baselineAvg, ok := computeMean(baseline[hotel])
		if !ok || baselineAvg == 0 {
			continue
		}
		signal := models.DumpingSignal{
			HotelName:   ix.HotelLabel(hotel),
			RecentAvg:   recentAvg,
			BaselineAvg: baselineAvg,
			Ratio:       recentAvg / baselineAvg,
			Flagged:     recentAvg < baselineAvg*rule.Ratio,
		}
		report.Signals = append(report.Signals, signal)
		if signal.Flagged {
			report.Flagged = append(report.Flagged, signal.HotelName)
		}
	}
	sort.Slice(report.Signals, func(i, j int) bool {
		return report.Signals[i].HotelName < report.Signals[j].HotelName
	})
	sort.Strings(report.Flagged)
	return report
}
