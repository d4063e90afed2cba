package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// RawRate is one row exactly as the collector or storage layer produced it
type RawRate struct {
	HotelName   string
	StayDate    string // e.g. "2026-03-14"
	RoomType    string
	Channel     string
	Price       string // e.g. "285,000원"
	CollectedAt string // e.g. "2026-03-01 09:30:00"
}

// RateObservation is a cleaned, typed observation. Values are never mutated after normalization.
type RateObservation struct {
	HotelName   string // whitespace collapsed, for display
	HotelKey    string // all whitespace removed, for identity
	StayDate    time.Time
	RoomType    string
	RoomKey     string
	Channel     string
	ChannelKey  string
	Price       decimal.Decimal
	CollectedAt time.Time
	LeadTime    int // days from collection date to stay date
}

// DropReason classifies why a raw row did not make it into a snapshot
type DropReason string

const (
	DropMissingHotel   DropReason = "missing_hotel"
	DropBadPrice       DropReason = "bad_price"
	DropNegativePrice  DropReason = "negative_price"
	DropBadStayDate    DropReason = "bad_stay_date"
	DropBadCollectedAt DropReason = "bad_collected_at"
	DropPriceCeiling   DropReason = "price_ceiling"
	DropStaleStayDate  DropReason = "stale_stay_date"
)

// NormalizeStats keeps the diagnostics of one normalization pass
type NormalizeStats struct {
	Total   int                `json:"total"`
	Kept    int                `json:"kept"`
	Dropped map[DropReason]int `json:"dropped"`
}

// DroppedCount returns the number of rows excluded for any reason
func (s NormalizeStats) DroppedCount() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Snapshot is the immutable observation set of one refresh cycle
type Snapshot struct {
	ID           string
	BuiltAt      time.Time
	Observations []RateObservation
	Stats        NormalizeStats
}

// CanonicalKey removes every whitespace rune so that incidental spacing never breaks identity matches
func CanonicalKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CollapseSpace trims and collapses internal whitespace runs into a single space
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LeadDays returns stay - date(collected) in whole days
func LeadDays(stay, collected time.Time) int {
	return int(DateOnly(stay).Sub(DateOnly(collected)).Hours() / 24)
}
