package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"purehill-revenue/metrics"
)

// NewRouter wires the report handlers under /v1
func NewRouter(h *RateHandler, recorder *metrics.Recorder) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if recorder != nil {
		router.GET("/metrics", gin.WrapH(recorder.Handler()))
	}

	v1 := router.Group("/v1")
	v1.GET("/snapshot", h.GetSnapshot)
	v1.GET("/report", h.GetReport)
	v1.GET("/min-prices", h.GetMinPrices)
	v1.GET("/parity", h.GetParity)
	v1.GET("/lead-time", h.GetLeadTime)
	v1.GET("/market-index", h.GetMarketIndex)
	v1.GET("/rank", h.GetRank)
	v1.GET("/suggestion", h.GetSuggestion)
	v1.POST("/refresh", h.PostRefresh)

	return router
}
