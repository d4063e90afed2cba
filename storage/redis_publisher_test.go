package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purehill-revenue/models"
)

func TestRedisPublisher_PublishAndLatest(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	pub, err := NewRedisPublisher(ctx, "redis://"+mr.Addr(), 2*time.Minute, testLogger())
	require.NoError(t, err)
	defer pub.Close()

	_, err = pub.Latest(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()
	ps := sub.Subscribe(ctx, ReportChannel)
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	trackedMin := decimal.NewFromInt(250000)
	report := &models.RateReport{
		SnapshotID:   "snap-1",
		TrackedHotel: "Purehill Hotel",
		Stats:        models.NormalizeStats{Total: 3, Kept: 2, Dropped: map[models.DropReason]int{models.DropBadPrice: 1}},
		Parity: models.ParityReport{Violations: []models.ParityViolation{
			{Channel: "Booking", Gap: decimal.NewFromInt(20000)},
		}},
		TrackedMin: &trackedMin,
	}
	require.NoError(t, pub.Publish(ctx, report))

	msg, err := ps.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", msg.Payload)

	assert.Equal(t, 2*time.Minute, mr.TTL(LatestReportKey))

	got, err := pub.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", got.SnapshotID)
	assert.Equal(t, 1, got.Stats.Dropped[models.DropBadPrice])
	require.Len(t, got.Parity.Violations, 1)
	assert.True(t, got.Parity.Violations[0].Gap.Equal(decimal.NewFromInt(20000)))
	require.NotNil(t, got.TrackedMin)
	assert.True(t, got.TrackedMin.Equal(trackedMin))

	mr.FastForward(3 * time.Minute)
	_, err = pub.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisPublisher_BadURL(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), "not a url", time.Minute, testLogger())
	assert.Error(t, err)
}
