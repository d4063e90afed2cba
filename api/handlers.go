package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"purehill-revenue/models"
	"purehill-revenue/services"
	"purehill-revenue/utils"
)

// RateHandler serves reports derived from the cached snapshot
type RateHandler struct {
	cache    *services.SnapshotCache
	analyzer *services.Analyzer
	logger   *utils.Logger
}

func NewRateHandler(cache *services.SnapshotCache, analyzer *services.Analyzer, logger *utils.Logger) *RateHandler {
	return &RateHandler{cache: cache, analyzer: analyzer, logger: logger}
}

// snapshot returns the snapshot for this request. A stale snapshot is served when the source is down;
// only a missing snapshot aborts the request.
func (h *RateHandler) snapshot(c *gin.Context) (*models.Snapshot, bool) {
	snap, err := h.cache.GetSnapshot(c.Request.Context())
	if err != nil {
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return nil, false
		}
		c.Header("X-Snapshot-Stale", "true")
	}
	return snap, true
}

// report builds the report for the request filter from one snapshot
func (h *RateHandler) report(c *gin.Context) (*models.RateReport, bool) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return nil, false
	}
	return h.analyzer.Analyze(snap, f), true
}

func (h *RateHandler) GetSnapshot(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id":  snap.ID,
		"built_at":     snap.BuiltAt,
		"observations": len(snap.Observations),
		"stats":        snap.Stats,
	})
}

func (h *RateHandler) GetReport(c *gin.Context) {
	if r, ok := h.report(c); ok {
		c.JSON(http.StatusOK, r)
	}
}

func (h *RateHandler) GetMinPrices(c *gin.Context) {
	if r, ok := h.report(c); ok {
		c.JSON(http.StatusOK, gin.H{"snapshot_id": r.SnapshotID, "min_prices": r.MinPrices})
	}
}

func (h *RateHandler) GetParity(c *gin.Context) {
	r, ok := h.report(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id":       r.SnapshotID,
		"no_reference_data": r.Parity.NoReferenceData,
		"total":             len(r.Parity.Violations),
		"top":               r.Parity.Top(h.analyzer.TopN()),
		"violations":        r.Parity.Violations,
	})
}

func (h *RateHandler) GetLeadTime(c *gin.Context) {
	if r, ok := h.report(c); ok {
		c.JSON(http.StatusOK, gin.H{"snapshot_id": r.SnapshotID, "lead_time": r.LeadTime})
	}
}

func (h *RateHandler) GetMarketIndex(c *gin.Context) {
	if r, ok := h.report(c); ok {
		c.JSON(http.StatusOK, gin.H{"snapshot_id": r.SnapshotID, "market": r.Market})
	}
}

func (h *RateHandler) GetRank(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delta := decimal.Zero
	if raw := c.Query("delta"); raw != "" {
		if delta, err = decimal.NewFromString(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delta must be a number"})
			return
		}
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}

	sim, err := h.analyzer.Simulate(snap, f, delta)
	switch {
	case errors.Is(err, services.ErrDeltaOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInsufficientData):
		c.JSON(http.StatusOK, gin.H{"snapshot_id": snap.ID, "simulation": nil, "reason": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		rs := h.analyzer.RankSimulator()
		c.JSON(http.StatusOK, gin.H{
			"snapshot_id": snap.ID,
			"simulation":  sim,
			"delta_range": rs.Range(),
			"delta_step":  rs.Step(),
		})
	}
}

func (h *RateHandler) GetSuggestion(c *gin.Context) {
	occ, err := strconv.Atoi(c.Query("occupancy"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occupancy must be an integer percentage"})
		return
	}
	s, err := h.analyzer.Suggest(occ)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *RateHandler) PostRefresh(c *gin.Context) {
	snap, err := h.cache.Refresh(c.Request.Context())
	if err != nil {
		h.logger.Warn("Manual refresh failed: %v", err)
		status := http.StatusServiceUnavailable
		body := gin.H{"error": err.Error()}
		if snap != nil {
			body["serving_snapshot_id"] = snap.ID
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot_id": snap.ID, "observations": len(snap.Observations)})
}

// parseFilter reads comma-separated hotels, dates, channels and rooms query parameters
func parseFilter(c *gin.Context) (models.Filter, error) {
	f := models.Filter{
		Hotels:       splitList(c.Query("hotels")),
		Channels:     splitList(c.Query("channels")),
		RoomKeywords: splitList(c.Query("rooms")),
	}
	for _, d := range splitList(c.Query("dates")) {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return models.Filter{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", d)
		}
		f.Dates = append(f.Dates, t)
	}
	return f, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
