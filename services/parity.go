package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"purehill-revenue/models"
)

// ParityDetector finds channels selling the tracked hotel below the highest quote for the same stay date and room
type ParityDetector struct {
	threshold decimal.Decimal
}

// NewParityDetector creates a detector flagging gaps of at least threshold currency units
func NewParityDetector(threshold float64) *ParityDetector {
	return &ParityDetector{threshold: decimal.NewFromFloat(threshold)}
}

// Detect computes the full violation set for the tracked hotel, ordered by descending gap.
// The group maximum over every observation stands in for the hotel's list rate, and every row
// at least threshold below it is a violation, duplicate scrapes of one channel included.
func (d *ParityDetector) Detect(ix *Index, trackedKey string) models.ParityReport {
	tracked := ix.Only(trackedKey)
	if tracked.Len() == 0 {
		return models.ParityReport{Violations: []models.ParityViolation{}, NoReferenceData: true}
	}

	type slot struct {
		stay time.Time
		room string
	}
	slotOf := func(o models.RateObservation) slot {
		return slot{stay: models.DateOnly(o.StayDate), room: o.RoomKey}
	}

	size := make(map[slot]int)
	reference := make(map[slot]decimal.Decimal)
	for _, o := range tracked.Observations() {
		s := slotOf(o)
		size[s]++
		if cur, ok := reference[s]; !ok || o.Price.GreaterThan(cur) {
			reference[s] = o.Price
		}
	}

	violations := []models.ParityViolation{}
	for _, o := range tracked.Observations() {
		s := slotOf(o)
		if size[s] < 2 {
			continue
		}
		ref := reference[s]
		gap := ref.Sub(o.Price)
		if !gap.IsPositive() || gap.LessThan(d.threshold) {
			continue
		}
		violations = append(violations, models.ParityViolation{
			StayDate:       s.stay,
			RoomType:       tracked.RoomLabel(s.room),
			Channel:        tracked.ChannelLabel(o.ChannelKey),
			ObservedPrice:  o.Price,
			ReferencePrice: ref,
			Gap:            gap,
		})
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if c := a.Gap.Cmp(b.Gap); c != 0 {
			return c > 0
		}
		if !a.StayDate.Equal(b.StayDate) {
			return a.StayDate.Before(b.StayDate)
		}
		if a.RoomType != b.RoomType {
			return a.RoomType < b.RoomType
		}
		return a.Channel < b.Channel
	})
	return models.ParityReport{Violations: violations}
}
