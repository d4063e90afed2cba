package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purehill-revenue/models"
)

// gaugeValue reads a single-series metric from the recorder's registry
func gaugeValue(t *testing.T, r *Recorder, name string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		m := f.GetMetric()[0]
		if g := m.GetGauge(); g != nil {
			return g.GetValue()
		}
		return m.GetCounter().GetValue()
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestRecorder_ObserveRefresh(t *testing.T) {
	r := NewRecorder("")
	builtAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	r.ObserveRefresh(&models.Snapshot{
		BuiltAt:      builtAt,
		Observations: make([]models.RateObservation, 4),
		Stats:        models.NormalizeStats{Dropped: map[models.DropReason]int{models.DropBadPrice: 2}},
	}, nil)

	assert.Equal(t, 4.0, gaugeValue(t, r, "rate_intel_snapshot_observations"))
	assert.Equal(t, float64(builtAt.Unix()), gaugeValue(t, r, "rate_intel_snapshot_last_success_timestamp_seconds"))
	assert.Equal(t, 2.0, gaugeValue(t, r, "rate_intel_normalizer_rows_dropped_total"))

	r.ObserveRefresh(nil, errors.New("down"))
	assert.Equal(t, 4.0, gaugeValue(t, r, "rate_intel_snapshot_observations"))
}

func TestRecorder_ObserveReport(t *testing.T) {
	r := NewRecorder("hotel")
	r.ObserveReport(&models.RateReport{
		Parity:   models.ParityReport{Violations: make([]models.ParityViolation, 3)},
		LeadTime: models.LeadTimeReport{Flagged: []string{"Seaside Inn"}},
	})

	assert.Equal(t, 3.0, gaugeValue(t, r, "hotel_report_parity_violations"))
	assert.Equal(t, 1.0, gaugeValue(t, r, "hotel_report_dumping_hotels_flagged"))
}
