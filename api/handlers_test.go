package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purehill-revenue/config"
	"purehill-revenue/metrics"
	"purehill-revenue/models"
	"purehill-revenue/services"
	"purehill-revenue/utils"
)

type stubSource struct {
	rows []*models.RawRate
	err  error
}

func (s *stubSource) Fetch(ctx context.Context) ([]*models.RawRate, error) {
	return s.rows, s.err
}

func testRows() []*models.RawRate {
	const at = "2026-03-01 09:00:00"
	return []*models.RawRate{
		{HotelName: "Purehill Hotel", StayDate: "2026-03-10", RoomType: "Deluxe", Channel: "Agoda", Price: "300,000원", CollectedAt: at},
		{HotelName: "Purehill Hotel", StayDate: "2026-03-10", RoomType: "Deluxe", Channel: "Booking", Price: "280,000원", CollectedAt: at},
		{HotelName: "Purehill Hotel", StayDate: "2026-03-10", RoomType: "Deluxe", Channel: "Expedia", Price: "295,000원", CollectedAt: at},
		{HotelName: "Seaside Inn", StayDate: "2026-03-10", RoomType: "Standard", Channel: "Agoda", Price: "310,000원", CollectedAt: at},
		{HotelName: "Harbor View", StayDate: "2026-03-11", RoomType: "Deluxe", Channel: "Booking", Price: "320,000원", CollectedAt: at},
		{HotelName: "Harbor View", StayDate: "2026-03-11", RoomType: "Deluxe", Channel: "Booking", Price: "free", CollectedAt: at},
	}
}

func newTestRouter(t *testing.T, src *stubSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.SetTrackedHotel("Purehill Hotel")
	logger := utils.NewLoggerWithOutput(io.Discard, "error")

	cache := services.NewSnapshotCache(src, services.NewNormalizer(cfg, logger), time.Minute, logger)
	recorder := metrics.NewRecorder("")
	cache.OnRefresh(recorder.ObserveRefresh)

	return NewRouter(NewRateHandler(cache, services.NewAnalyzer(cfg, logger), logger), recorder)
}

func do(t *testing.T, router http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))

	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestReportEndpoints(t *testing.T) {
	router := newTestRouter(t, &stubSource{rows: testRows()})

	w, body := do(t, router, http.MethodGet, "/v1/snapshot")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, body["observations"])
	snapshotID := body["snapshot_id"]

	w, body = do(t, router, http.MethodGet, "/v1/report")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snapshotID, body["snapshot_id"])
	assert.Equal(t, "Purehill Hotel", body["tracked_hotel"])

	w, body = do(t, router, http.MethodGet, "/v1/parity")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["total"])
	violations := body["violations"].([]any)
	first := violations[0].(map[string]any)
	assert.Equal(t, "Booking", first["channel"])
	assert.Equal(t, "20000", first["gap"])

	w, body = do(t, router, http.MethodGet, "/v1/min-prices?hotels=Harbor%20View")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["min_prices"], 1)

	w, body = do(t, router, http.MethodGet, "/v1/market-index")
	require.Equal(t, http.StatusOK, w.Code)
	market := body["market"].(map[string]any)
	assert.EqualValues(t, 3, market["tracked_count"])

	w, _ = do(t, router, http.MethodGet, "/v1/lead-time?channels=Agoda&rooms=deluxe")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFilterValidation(t *testing.T) {
	router := newTestRouter(t, &stubSource{rows: testRows()})

	w, body := do(t, router, http.MethodGet, "/v1/report?dates=2026-03-10,tomorrow")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "tomorrow")

	w, body = do(t, router, http.MethodGet, "/v1/parity?dates=2026-03-11")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["total"])
	assert.Equal(t, true, body["no_reference_data"])
}

func TestRankEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSource{rows: testRows()})

	w, body := do(t, router, http.MethodGet, "/v1/rank?delta=-5000")
	require.Equal(t, http.StatusOK, w.Code)
	sim := body["simulation"].(map[string]any)
	assert.EqualValues(t, 1, sim["rank"])
	assert.EqualValues(t, 3, sim["total"])
	assert.Equal(t, "5000", body["delta_step"])

	w, _ = do(t, router, http.MethodGet, "/v1/rank?delta=1000000")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodGet, "/v1/rank?delta=cheap")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, router, http.MethodGet, "/v1/rank?hotels=Seaside%20Inn")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["simulation"])
	assert.Contains(t, body["reason"], "insufficient data")
}

func TestSuggestionEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSource{rows: testRows()})

	w, body := do(t, router, http.MethodGet, "/v1/suggestion?occupancy=85")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "180000", body["suggested_price"])
	assert.Equal(t, true, body["high_demand"])

	w, _ = do(t, router, http.MethodGet, "/v1/suggestion?occupancy=150")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodGet, "/v1/suggestion")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSourceUnavailable(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	router := newTestRouter(t, src)

	w, body := do(t, router, http.MethodGet, "/v1/report")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, body["error"], "rate source unavailable")

	w, _ = do(t, router, http.MethodPost, "/v1/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	src.err = nil
	src.rows = testRows()
	w, body = do(t, router, http.MethodPost, "/v1/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, body["observations"])

	src.err = errors.New("gone again")
	w, body = do(t, router, http.MethodPost, "/v1/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, body["serving_snapshot_id"])

	// the last good snapshot keeps serving reads
	w, _ = do(t, router, http.MethodGet, "/v1/report")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Snapshot-Stale"))
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, &stubSource{rows: testRows()})

	w, body := do(t, router, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	do(t, router, http.MethodGet, "/v1/snapshot")

	w, _ = do(t, router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rate_intel_snapshot_refresh_total{result="success"} 1`)
	assert.Contains(t, w.Body.String(), `rate_intel_normalizer_rows_dropped_total{reason="bad_price"} 1`)
}
