package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/threatscope/threatscope/internal/analytics"
)

// AnalyticsHandler serves windowed lookup analytics.
type AnalyticsHandler struct {
	aggregator *analytics.Aggregator
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(aggregator *analytics.Aggregator) *AnalyticsHandler {
	return &AnalyticsHandler{aggregator: aggregator}
}

// Get returns the analytics report for the requested user and time range.
// The userId parameter must match the authenticated user.
func (h *AnalyticsHandler) Get(c *gin.Context) {
	authedID := getUserID(c)
	if authedID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rawUserID := c.Query("userId")
	if rawUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId"})
		return
	}
	userID, errParse := strconv.ParseUint(rawUserID, 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}
	if userID != authedID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	timeRange := analytics.ParseTimeRange(c.Query("timeRange"))
	report, errAgg := h.aggregator.Aggregate(c.Request.Context(), userID, timeRange)
	if errAgg != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics query failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}
