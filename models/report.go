package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Filter narrows an observation set. Empty slices match everything.
type Filter struct {
	Hotels       []string
	Dates        []time.Time
	Channels     []string
	RoomKeywords []string // substring match against the room label
}

// MinPriceCell is the cheapest observation found for one (hotel, stay date)
type MinPriceCell struct {
	HotelName string          `json:"hotel_name"`
	StayDate  time.Time       `json:"stay_date"`
	Price     decimal.Decimal `json:"price"`
	Channel   string          `json:"channel"`
	RoomType  string          `json:"room_type"`
}

// ParityViolation is a channel selling the tracked hotel below the group's reference price
type ParityViolation struct {
	StayDate       time.Time       `json:"stay_date"`
	RoomType       string          `json:"room_type"`
	Channel        string          `json:"channel"`
	ObservedPrice  decimal.Decimal `json:"observed_price"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	Gap            decimal.Decimal `json:"gap"`
}

// ParityReport holds every violation ordered by descending gap
type ParityReport struct {
	Violations      []ParityViolation `json:"violations"`
	NoReferenceData bool              `json:"no_reference_data"`
}

// Top returns at most n violations from the head of the ordered list; n <= 0 returns all of them
func (r *ParityReport) Top(n int) []ParityViolation {
	if n <= 0 || n >= len(r.Violations) {
		return r.Violations
	}
	return r.Violations[:n]
}

// LeadTimePoint is the minimum price a hotel showed at a given lead time
type LeadTimePoint struct {
	HotelName string          `json:"hotel_name"`
	LeadTime  int             `json:"lead_time_days"`
	MinPrice  decimal.Decimal `json:"min_price"`
}

// DumpingSignal describes one competitor's short-lead-time discounting
type DumpingSignal struct {
	HotelName   string  `json:"hotel_name"`
	RecentAvg   float64 `json:"recent_avg"`
	BaselineAvg float64 `json:"baseline_avg"`
	Ratio       float64 `json:"ratio"`
	Flagged     bool    `json:"flagged"`
}

// LeadTimeReport pairs the pickup curve with dumping detection
type LeadTimeReport struct {
	Curve   []LeadTimePoint `json:"curve"`
	Signals []DumpingSignal `json:"signals"`
	Flagged []string        `json:"flagged"`
}

// MarketIndex compares the tracked hotel against the competitive set. Nil fields are not computable.
type MarketIndex struct {
	TrackedCount     int      `json:"tracked_count"`
	CompetitorCount  int      `json:"competitor_count"`
	TrackedAvg       *float64 `json:"tracked_avg"`
	CompetitorAvg    *float64 `json:"competitor_avg"`
	PenetrationIndex *float64 `json:"penetration_index"`
	PriceStd         *float64 `json:"price_std"`
	StabilityScore   *float64 `json:"stability_score"`
	PremiumGap       *float64 `json:"premium_gap"`
	Band             string   `json:"band,omitempty"`
}

// CompetitorMin is a competitor's lowest price across its channels and rooms
type CompetitorMin struct {
	HotelName string          `json:"hotel_name"`
	MinPrice  decimal.Decimal `json:"min_price"`
}

// RankSimulation is the projected position of an adjusted tracked price
type RankSimulation struct {
	Delta          decimal.Decimal `json:"delta"`
	TrackedMin     decimal.Decimal `json:"tracked_min"`
	SimulatedPrice decimal.Decimal `json:"simulated_price"`
	Rank           int             `json:"rank"`
	Total          int             `json:"total"`
	Score          float64         `json:"score"`
}

// PriceSuggestion is the demand-driven advisory price
type PriceSuggestion struct {
	OccupancyPct   int             `json:"occupancy_pct"`
	BasePrice      decimal.Decimal `json:"base_price"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	HighDemand     bool            `json:"high_demand"`
}

// RateReport is everything derived from one snapshot for one filter
type RateReport struct {
	SnapshotID     string           `json:"snapshot_id"`
	BuiltAt        time.Time        `json:"built_at"`
	TrackedHotel   string           `json:"tracked_hotel"`
	Stats          NormalizeStats   `json:"stats"`
	MinPrices      []MinPriceCell   `json:"min_prices"`
	Parity         ParityReport     `json:"parity"`
	LeadTime       LeadTimeReport   `json:"lead_time"`
	Market         MarketIndex      `json:"market"`
	TrackedMin     *decimal.Decimal `json:"tracked_min"`
	CompetitorMins []CompetitorMin  `json:"competitor_mins"`
}
