package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"purehill-revenue/models"
)

// Dimension selects which observation fields form a grouping key
type Dimension uint8

const (
	DimHotel Dimension = 1 << iota
	DimStayDate
	DimRoomType
	DimChannel
	DimLeadTime
)

// GroupKey identifies one group. Fields outside the requested dimensions stay zero.
// Hotel, RoomType and Channel hold canonical keys; use the Index label helpers for display.
type GroupKey struct {
	Hotel    string
	StayDate time.Time
	RoomType string
	Channel  string
	LeadTime int
}

// Index is a read-only query view over one snapshot's observations
type Index struct {
	obs      []models.RateObservation
	hotels   map[string]string
	rooms    map[string]string
	channels map[string]string
}

// NewIndex indexes every observation of snap
func NewIndex(snap *models.Snapshot) *Index {
	if snap == nil {
		return newIndex(nil)
	}
	return newIndex(snap.Observations)
}

func newIndex(obs []models.RateObservation) *Index {
	ix := &Index{
		obs:      obs,
		hotels:   make(map[string]string),
		rooms:    make(map[string]string),
		channels: make(map[string]string),
	}
	for _, o := range obs {
		keepLabel(ix.hotels, o.HotelKey, o.HotelName)
		keepLabel(ix.rooms, o.RoomKey, o.RoomType)
		keepLabel(ix.channels, o.ChannelKey, o.Channel)
	}
	return ix
}

// keepLabel remembers the lexicographically smallest display label per key so output is stable
func keepLabel(m map[string]string, key, label string) {
	if cur, ok := m[key]; !ok || label < cur {
		m[key] = label
	}
}

// Observations returns the indexed observations. Callers must not modify them.
func (ix *Index) Observations() []models.RateObservation { return ix.obs }

// Len returns the number of indexed observations
func (ix *Index) Len() int { return len(ix.obs) }

// HotelLabel returns the display name for a canonical hotel key
func (ix *Index) HotelLabel(key string) string { return ix.hotels[key] }

// RoomLabel returns the display label for a canonical room key
func (ix *Index) RoomLabel(key string) string { return ix.rooms[key] }

// ChannelLabel returns the display name for a canonical channel key
func (ix *Index) ChannelLabel(key string) string { return ix.channels[key] }

// Filter returns a new Index over the observations matching f.
// Room types match by keyword containment since labels differ across channels for the same inventory.
func (ix *Index) Filter(f models.Filter) *Index {
	hotels := keySet(f.Hotels)
	channels := keySet(f.Channels)
	dates := make(map[time.Time]struct{}, len(f.Dates))
	for _, d := range f.Dates {
		dates[models.DateOnly(d)] = struct{}{}
	}
	var keywords []string
	for _, kw := range f.RoomKeywords {
		if k := strings.ToLower(models.CanonicalKey(kw)); k != "" {
			keywords = append(keywords, k)
		}
	}

	out := make([]models.RateObservation, 0, len(ix.obs))
	for _, o := range ix.obs {
		if len(hotels) > 0 {
			if _, ok := hotels[o.HotelKey]; !ok {
				continue
			}
		}
		if len(channels) > 0 {
			if _, ok := channels[o.ChannelKey]; !ok {
				continue
			}
		}
		if len(dates) > 0 {
			if _, ok := dates[models.DateOnly(o.StayDate)]; !ok {
				continue
			}
		}
		if len(keywords) > 0 && !containsAny(strings.ToLower(o.RoomKey), keywords) {
			continue
		}
		out = append(out, o)
	}
	return newIndex(out)
}

// Only returns the observations of a single hotel
func (ix *Index) Only(hotelKey string) *Index {
	return ix.where(func(o models.RateObservation) bool { return o.HotelKey == hotelKey })
}

// Except returns the observations of every hotel but one
func (ix *Index) Except(hotelKey string) *Index {
	return ix.where(func(o models.RateObservation) bool { return o.HotelKey != hotelKey })
}

func (ix *Index) where(keep func(models.RateObservation) bool) *Index {
	out := make([]models.RateObservation, 0, len(ix.obs))
	for _, o := range ix.obs {
		if keep(o) {
			out = append(out, o)
		}
	}
	return newIndex(out)
}

// GroupMin reduces the observations to the minimum price per key over the requested dimensions
func (ix *Index) GroupMin(dims Dimension) map[GroupKey]decimal.Decimal {
	out := make(map[GroupKey]decimal.Decimal)
	for _, o := range ix.obs {
		k := groupKey(o, dims)
		if cur, ok := out[k]; !ok || o.Price.LessThan(cur) {
			out[k] = o.Price
		}
	}
	return out
}

// MinByHotelDate returns the cheapest observation per (hotel, stay date) within the given hotels and dates.
// Exact price ties resolve to the lowest channel, then the lowest room label.
func (ix *Index) MinByHotelDate(hotels []string, dates []time.Time) []models.MinPriceCell {
	sub := ix.Filter(models.Filter{Hotels: hotels, Dates: dates})

	best := make(map[GroupKey]models.RateObservation)
	for _, o := range sub.obs {
		k := groupKey(o, DimHotel|DimStayDate)
		cur, ok := best[k]
		if !ok || cheaper(o, cur) {
			best[k] = o
		}
	}

	cells := make([]models.MinPriceCell, 0, len(best))
	for k, o := range best {
		cells = append(cells, models.MinPriceCell{
			HotelName: sub.HotelLabel(k.Hotel),
			StayDate:  k.StayDate,
			Price:     o.Price,
			Channel:   o.Channel,
			RoomType:  o.RoomType,
		})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].HotelName != cells[j].HotelName {
			return cells[i].HotelName < cells[j].HotelName
		}
		return cells[i].StayDate.Before(cells[j].StayDate)
	})
	return cells
}

// HotelMinima returns each hotel's lowest price, cheapest first
func (ix *Index) HotelMinima() []models.CompetitorMin {
	mins := ix.GroupMin(DimHotel)
	out := make([]models.CompetitorMin, 0, len(mins))
	for k, p := range mins {
		out = append(out, models.CompetitorMin{HotelName: ix.HotelLabel(k.Hotel), MinPrice: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].MinPrice.Cmp(out[j].MinPrice); c != 0 {
			return c < 0
		}
		return out[i].HotelName < out[j].HotelName
	})
	return out
}

// Prices returns the observation prices as floats for statistics
func (ix *Index) Prices() []float64 {
	out := make([]float64, len(ix.obs))
	for i, o := range ix.obs {
		out[i] = o.Price.InexactFloat64()
	}
	return out
}

func cheaper(a, b models.RateObservation) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c < 0
	}
	if a.ChannelKey != b.ChannelKey {
		return a.ChannelKey < b.ChannelKey
	}
	return a.RoomKey < b.RoomKey
}

func groupKey(o models.RateObservation, dims Dimension) GroupKey {
	var k GroupKey
	if dims&DimHotel != 0 {
		k.Hotel = o.HotelKey
	}
	if dims&DimStayDate != 0 {
		k.StayDate = models.DateOnly(o.StayDate)
	}
	if dims&DimRoomType != 0 {
		k.RoomType = o.RoomKey
	}
	if dims&DimChannel != 0 {
		k.Channel = o.ChannelKey
	}
	if dims&DimLeadTime != 0 {
		k.LeadTime = o.LeadTime
	}
	return k
}

func keySet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if k := models.CanonicalKey(v); k != "" {
			out[k] = struct{}{}
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
