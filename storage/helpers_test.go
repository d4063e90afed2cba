package storage

import (
	"context"
	"io"

	"purehill-revenue/models"
	"purehill-revenue/utils"
)

func testLogger() *utils.Logger {
	return utils.NewLoggerWithOutput(io.Discard, "error")
}

func sampleRates() []*models.RawRate {
	return []*models.RawRate{
		{HotelName: "Purehill Hotel", StayDate: "2026-03-10", RoomType: "Deluxe Double", Channel: "Agoda", Price: "300,000원", CollectedAt: "2026-03-01 09:00:00"},
		{HotelName: "Seaside, Inn", StayDate: "2026-03-10", RoomType: "Standard \"Twin\"", Channel: "Booking", Price: "200,000원", CollectedAt: "2026-03-01 08:00:00"},
		{HotelName: "Harbor View", StayDate: "2026.03.11", RoomType: "", Channel: "Expedia", Price: "call", CollectedAt: "2026-03-01 09:00:00"},
	}
}

type staticSource struct {
	rates []*models.RawRate
	err   error
}

func (s *staticSource) Fetch(ctx context.Context) ([]*models.RawRate, error) {
	return s.rates, s.err
}
