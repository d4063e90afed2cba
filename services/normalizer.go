package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"purehill-revenue/config"
	"purehill-revenue/models"
	"purehill-revenue/storage"
	"purehill-revenue/utils"
)

// price text after whitespace removal, e.g. "285,000원", "₩285,000", "285000KRW"
var priceRegex = regexp.MustCompile(`(?i)^(?:₩|￦|krw)?(-?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?)(?:원|krw|won|₩|￦)?$`)

var stayDateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"20060102",
}

var collectedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006.01.02 15:04:05",
	"2006-01-02",
}

// Normalizer turns raw rate rows into typed observations
type Normalizer struct {
	ceiling    decimal.Decimal
	sanityDays int
	logger     *utils.Logger
	now        func() time.Time
}

// NewNormalizer creates a Normalizer using the configured price ceiling and lead-time sanity bound
func NewNormalizer(cfg *config.Config, logger *utils.Logger) *Normalizer {
	return &Normalizer{
		ceiling:    decimal.NewFromFloat(cfg.PriceCeiling),
		sanityDays: cfg.LeadTimeSanity,
		logger:     logger,
		now:        time.Now,
	}
}

// Build fetches one batch from src and normalizes it into a new snapshot.
// A failed fetch yields an empty snapshot and ErrSourceUnavailable; nothing is fabricated.
func (n *Normalizer) Build(ctx context.Context, src storage.RawSource) (*models.Snapshot, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		n.logger.Error("Rate source fetch failed: %v", err)
		return &models.Snapshot{
			BuiltAt: n.now(),
			Stats:   models.NormalizeStats{Dropped: map[models.DropReason]int{}},
		}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	obs, stats := n.Normalize(raw)
	return &models.Snapshot{
		ID:           uuid.NewString(),
		BuiltAt:      n.now(),
		Observations: obs,
		Stats:        stats,
	}, nil
}

// Normalize converts raw rows to observations. Rows failing coercion are dropped and counted, never zero-filled.
func (n *Normalizer) Normalize(raw []*models.RawRate) ([]models.RateObservation, models.NormalizeStats) {
	stats := models.NormalizeStats{
		Total:   len(raw),
		Dropped: make(map[models.DropReason]int),
	}
	out := make([]models.RateObservation, 0, len(raw))

	for i, r := range raw {
		if r == nil {
			stats.Dropped[models.DropMissingHotel]++
			continue
		}
		obs, reason := n.normalizeRow(r)
		if reason != "" {
			stats.Dropped[reason]++
			n.logger.Debug("Dropping row %d (%s): hotel=%q price=%q stay=%q", i, reason, r.HotelName, r.Price, r.StayDate)
			continue
		}
		out = append(out, obs)
	}

	stats.Kept = len(out)
	n.logger.Info("Normalized %d observations from %d raw records (%d dropped)", stats.Kept, stats.Total, stats.DroppedCount())
	return out, stats
}

func (n *Normalizer) normalizeRow(r *models.RawRate) (models.RateObservation, models.DropReason) {
	hotel := models.CollapseSpace(r.HotelName)
	if hotel == "" {
		return models.RateObservation{}, models.DropMissingHotel
	}

	price, ok := ParsePrice(r.Price)
	if !ok {
		return models.RateObservation{}, models.DropBadPrice
	}
	if price.IsNegative() {
		return models.RateObservation{}, models.DropNegativePrice
	}
	if price.GreaterThanOrEqual(n.ceiling) {
		return models.RateObservation{}, models.DropPriceCeiling
	}

	stay, ok := ParseStayDate(r.StayDate)
	if !ok {
		return models.RateObservation{}, models.DropBadStayDate
	}
	collected, ok := ParseCollectedAt(r.CollectedAt)
	if !ok {
		return models.RateObservation{}, models.DropBadCollectedAt
	}

	lead := models.LeadDays(stay, collected)
	if lead < -n.sanityDays {
		return models.RateObservation{}, models.DropStaleStayDate
	}

	room := models.CollapseSpace(r.RoomType)
	channel := models.CollapseSpace(r.Channel)
	return models.RateObservation{
		HotelName:   hotel,
		HotelKey:    models.CanonicalKey(hotel),
		StayDate:    stay,
		RoomType:    room,
		RoomKey:     models.CanonicalKey(room),
		Channel:     channel,
		ChannelKey:  models.CanonicalKey(channel),
		Price:       price,
		CollectedAt: collected,
		LeadTime:    lead,
	}, ""
}

// ParsePrice strips whitespace, thousands separators and a currency token, then parses the amount
func ParsePrice(raw string) (decimal.Decimal, bool) {
	cleaned := models.CanonicalKey(raw)
	if cleaned == "" {
		return decimal.Zero, false
	}
	matches := priceRegex.FindStringSubmatch(cleaned)
	if len(matches) < 2 {
		return decimal.Zero, false
	}
	val, err := decimal.NewFromString(strings.ReplaceAll(matches[1], ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return val, true
}

// ParseStayDate parses a check-in date in any of the accepted layouts
func ParseStayDate(raw string) (time.Time, bool) {
	cleaned := strings.TrimSuffix(models.CanonicalKey(raw), ".")
	for _, layout := range stayDateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCollectedAt parses a capture timestamp; zone-less values are read as UTC
func ParseCollectedAt(raw string) (time.Time, bool) {
	cleaned := models.CollapseSpace(raw)
	if cleaned == "" {
		return time.Time{}, false
	}
	for _, layout := range collectedAtLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
