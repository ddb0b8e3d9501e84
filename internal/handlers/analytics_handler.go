package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"affiliate-platform/internal/auth"
	"affiliate-platform/internal/services"
)

type AnalyticsHandler struct {
	reportService *services.ReportService
}

func NewAnalyticsHandler(db *gorm.DB) *AnalyticsHandler {
	return &AnalyticsHandler{
		reportService: services.NewReportService(db),
	}
}

// parseRange maps the ?range= query to a start time. Defaults to 30 days.
func parseRange(c *gin.Context) time.Time {
	days := 30
	switch c.DefaultQuery("range", "30d") {
	case "7d":
		days = 7
	case "30d":
		days = 30
	case "90d":
		days = 90
	}
	return time.Now().AddDate(0, 0, -days)
}

// GetAnalytics returns the affiliate's daily clicks/conversions/revenue
// series over the requested range.
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	points, err := h.reportService.DailySeries(userID, parseRange(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    points,
	})
}

// GetLeaderboard ranks affiliates by revenue over the range.
func (h *AnalyticsHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.reportService.Leaderboard(parseRange(c), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// GetFunnel returns the affiliate's clicks-to-revenue funnel.
func (h *AnalyticsHandler) GetFunnel(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	funnel, err := h.reportService.FunnelReport(userID, parseRange(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    funnel,
	})
}
