package storage

import (
	"context"
	"errors"

	"purehill-revenue/models"
)

// ErrNotFound is returned when nothing has been stored under the requested key
var ErrNotFound = errors.New("not found")

// RawSource yields one complete batch of raw rate rows per call
type RawSource interface {
	Fetch(ctx context.Context) ([]*models.RawRate, error)
}

// RawArchive stores raw rate rows for later fetching
type RawArchive interface {
	RawSource
	BatchInsert(ctx context.Context, rates []*models.RawRate) error
	Close() error
}

// ReportPublisher makes a rendered report available to other consumers
type ReportPublisher interface {
	Publish(ctx context.Context, report *models.RateReport) error
	Close() error
}

// rawColumns is the record shape shared by every source, in storage order
var rawColumns = []string{"hotel_name", "stay_date", "room_type", "channel", "price", "collected_at"}

func rawValues(r *models.RawRate) []string {
	return []string{r.HotelName, r.StayDate, r.RoomType, r.Channel, r.Price, r.CollectedAt}
}
