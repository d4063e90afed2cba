package services

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"purehill-revenue/config"
	"purehill-revenue/models"
	"purehill-revenue/utils"
)

const trackedName = "Purehill Hotel"

func testLogger() *utils.Logger {
	return utils.NewLoggerWithOutput(io.Discard, "error")
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.SetTrackedHotel(trackedName)
	return cfg
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// observation builds a normalized observation the way the normalizer would
func observation(t *testing.T, hotel, stay, room, channel string, price int64, lead int) models.RateObservation {
	t.Helper()
	stayDate := day(t, stay)
	hotel = models.CollapseSpace(hotel)
	return models.RateObservation{
		HotelName:   hotel,
		HotelKey:    models.CanonicalKey(hotel),
		StayDate:    stayDate,
		RoomType:    room,
		RoomKey:     models.CanonicalKey(room),
		Channel:     channel,
		ChannelKey:  models.CanonicalKey(channel),
		Price:       decimal.NewFromInt(price),
		CollectedAt: stayDate.AddDate(0, 0, -lead),
		LeadTime:    lead,
	}
}

func indexOf(obs ...models.RateObservation) *Index {
	return NewIndex(&models.Snapshot{ID: "test", Observations: obs})
}

func requireDecimal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got)
}

// sampleRows is a small mixed batch: three channels for the tracked hotel on one date,
// one short-lead tracked quote, two competitors and two unusable rows.
func sampleRows() []*models.RawRate {
	const at = "2026-03-01 09:00:00"
	return []*models.RawRate{
		{HotelName: "Purehill Hotel", StayDate: "2026-03-10", RoomType: "Deluxe Double", Channel: "Agoda", Price: "300,000원", CollectedAt: at},
		{HotelName: "Purehill Hotel", StayDate: "2026-03-10", RoomType: "Deluxe Double", Channel: "Booking", Price: "280,000원", CollectedAt: at},
		{HotelName: "Purehill Hotel", StayDate: "2026-03-10", RoomType: "Deluxe Double", Channel: "Expedia", Price: "295,000원", CollectedAt: at},
		{HotelName: "Purehill  Hotel ", StayDate: "2026-03-02", RoomType: "Deluxe Double", Channel: "Agoda", Price: "250,000원", CollectedAt: at},
		{HotelName: "Seaside Inn", StayDate: "2026-03-10", RoomType: "Standard", Channel: "Agoda", Price: "260,000원", CollectedAt: at},
		{HotelName: "Seaside Inn", StayDate: "2026-03-02", RoomType: "Standard", Channel: "Agoda", Price: "200,000원", CollectedAt: at},
		{HotelName: "Harbor View", StayDate: "2026-03-10", RoomType: "Deluxe", Channel: "Booking", Price: "270,000원", CollectedAt: at},
		{HotelName: "Harbor View", StayDate: "2026-03-02", RoomType: "Deluxe", Channel: "Booking", Price: "250,000원", CollectedAt: at},
		{HotelName: "Harbor View", StayDate: "2026-03-03", RoomType: "Deluxe", Channel: "Booking", Price: "call", CollectedAt: at},
		{HotelName: "", StayDate: "2026-03-03", RoomType: "Deluxe", Channel: "Booking", Price: "100,000", CollectedAt: at},
	}
}
