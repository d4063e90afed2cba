package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purehill-revenue/models"
)

type stubSource struct {
	rows  []*models.RawRate
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) ([]*models.RawRate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"285,000원", 285000, true},
		{"₩ 285,000", 285000, true},
		{"285000KRW", 285000, true},
		{" 1 200 000 ", 1200000, true},
		{"-5,000", -5000, true},
		{"0", 0, true},
		{"", 0, false},
		{"call", 0, false},
		{"원", 0, false},
		{"12a00", 0, false},
		{"1,00", 0, false},
		{",5", 0, false},
		{"1,2345", 0, false},
		{"1,234,567원", 1234567, true},
		{"12,345.00", 12345, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				requireDecimal(t, tt.want, got)
			}
		})
	}
}

func TestParseStayDate(t *testing.T) {
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2026-03-14", "2026.03.14", "2026.03.14.", "2026/03/14", "20260314", " 2026-03-14 "} {
		got, ok := ParseStayDate(raw)
		require.True(t, ok, raw)
		assert.True(t, want.Equal(got), raw)
	}

	_, ok := ParseStayDate("14 March")
	assert.False(t, ok)
	_, ok = ParseStayDate("2026-02-30")
	assert.False(t, ok)
}

func TestParseCollectedAt(t *testing.T) {
	got, ok := ParseCollectedAt("2026-03-01 09:30:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), got)

	got, ok = ParseCollectedAt("2026-03-01T09:30:00+09:00")
	require.True(t, ok)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, 9, got.Hour())

	_, ok = ParseCollectedAt("yesterday")
	assert.False(t, ok)
}

func TestNormalizer_DropReasons(t *testing.T) {
	n := NewNormalizer(testConfig(), testLogger())
	const at = "2026-03-01 09:00:00"

	raw := []*models.RawRate{
		{HotelName: "A", StayDate: "2026-03-10", Price: "100,000", CollectedAt: at},
		{HotelName: "  ", StayDate: "2026-03-10", Price: "100,000", CollectedAt: at},
		nil,
		{HotelName: "A", StayDate: "2026-03-10", Price: "N/A", CollectedAt: at},
		{HotelName: "A", StayDate: "2026-03-10", Price: "-1", CollectedAt: at},
		{HotelName: "A", StayDate: "2026-03-10", Price: "1,500,000", CollectedAt: at},
		{HotelName: "A", StayDate: "next week", Price: "100,000", CollectedAt: at},
		{HotelName: "A", StayDate: "2026-03-10", Price: "100,000", CollectedAt: "soon"},
		{HotelName: "A", StayDate: "2026-02-27", Price: "100,000", CollectedAt: at},
		{HotelName: "A", StayDate: "2026-02-28", Price: "100,000", CollectedAt: at},
	}

	obs, stats := n.Normalize(raw)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 2, stats.Kept)
	assert.Len(t, obs, 2)
	assert.Equal(t, 8, stats.DroppedCount())
	assert.Equal(t, 2, stats.Dropped[models.DropMissingHotel])
	assert.Equal(t, 1, stats.Dropped[models.DropBadPrice])
	assert.Equal(t, 1, stats.Dropped[models.DropNegativePrice])
	assert.Equal(t, 1, stats.Dropped[models.DropPriceCeiling])
	assert.Equal(t, 1, stats.Dropped[models.DropBadStayDate])
	assert.Equal(t, 1, stats.Dropped[models.DropBadCollectedAt])
	assert.Equal(t, 1, stats.Dropped[models.DropStaleStayDate])

	assert.Equal(t, 9, obs[0].LeadTime)
	assert.Equal(t, -1, obs[1].LeadTime)
}

func TestNormalizer_Identity(t *testing.T) {
	n := NewNormalizer(testConfig(), testLogger())
	obs, _ := n.Normalize([]*models.RawRate{
		{HotelName: " Purehill   Hotel ", StayDate: "2026-03-10", RoomType: "Deluxe  Double", Channel: " Agoda", Price: "1", CollectedAt: "2026-03-01"},
	})
	require.Len(t, obs, 1)
	o := obs[0]
	assert.Equal(t, "Purehill Hotel", o.HotelName)
	assert.Equal(t, "PurehillHotel", o.HotelKey)
	assert.Equal(t, "Deluxe Double", o.RoomType)
	assert.Equal(t, "DeluxeDouble", o.RoomKey)
	assert.Equal(t, "Agoda", o.ChannelKey)
}

func TestNormalizer_Build(t *testing.T) {
	n := NewNormalizer(testConfig(), testLogger())

	snap, err := n.Build(context.Background(), &stubSource{rows: sampleRows()})
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 10, snap.Stats.Total)
	assert.Len(t, snap.Observations, 8)

	snap, err = n.Build(context.Background(), &stubSource{err: errors.New("disk gone")})
	require.ErrorIs(t, err, ErrSourceUnavailable)
	require.NotNil(t, snap)
	assert.Empty(t, snap.ID)
	assert.Empty(t, snap.Observations)
}
