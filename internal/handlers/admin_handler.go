package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/auth"
	"affiliate-platform/internal/models"
	"affiliate-platform/internal/notify"
	"affiliate-platform/internal/services"
)

type AdminHandler struct {
	db                *gorm.DB
	userService       *services.UserService
	commissionService *services.CommissionService
	payoutService     *services.PayoutService
	reportService     *services.ReportService
}

func NewAdminHandler(db *gorm.DB, commissionService *services.CommissionService, notifier notify.Sender) *AdminHandler {
	return &AdminHandler{
		db:                db,
		userService:       services.NewUserService(db),
		commissionService: commissionService,
		payoutService:     services.NewPayoutService(db, services.NewBalanceService(db), notifier),
		reportService:     services.NewReportService(db),
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// GetAffiliates lists every affiliate account.
func (h *AdminHandler) GetAffiliates(c *gin.Context) {
	users, err := h.userService.ListAffiliates()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"count":   len(users),
	})
}

// UpdateUserStatus approves, suspends or deactivates an affiliate.
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	actor, ok := auth.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userID, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.SetStatus(userID, req.Status, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// UpdateCommissionRate sets an affiliate's base commission percentage.
func (h *AdminHandler) UpdateCommissionRate(c *gin.Context) {
	actor, ok := auth.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userID, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		CommissionRate string `json:"commission_rate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rate, err := decimal.NewFromString(req.CommissionRate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid commission_rate"})
		return
	}

	user, err := h.userService.SetCommissionRate(userID, rate, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// GetCommissions lists ledger entries: the caller's own, or every entry for
// admins. Registered on both the affiliate and admin route groups.
func (h *AdminHandler) GetCommissions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	role, _ := auth.GetRole(c)

	commissions, err := h.commissionService.ListCommissions(userID, role == models.RoleAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    commissions,
		"count":   len(commissions),
	})
}

// ApproveCommission releases a pending commission into the balance.
func (h *AdminHandler) ApproveCommission(c *gin.Context) {
	h.transitionCommission(c, h.commissionService.ApproveCommission)
}

// RejectCommission declines a pending commission.
func (h *AdminHandler) RejectCommission(c *gin.Context) {
	h.transitionCommission(c, h.commissionService.RejectCommission)
}

func (h *AdminHandler) transitionCommission(c *gin.Context, fn func(uint, *models.User) (*models.Commission, error)) {
	actor, ok := auth.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	commissionID, ok := pathID(c)
	if !ok {
		return
	}

	commission, err := fn(commissionID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    commission,
	})
}

// UpdatePayoutStatus completes or rejects a pending payout.
func (h *AdminHandler) UpdatePayoutStatus(c *gin.Context) {
	actor, ok := auth.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	payoutID, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payout, err := h.payoutService.SetPayoutStatus(payoutID, req.Status, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payout,
	})
}

// GetFraudReport surfaces suspicious traffic for review.
func (h *AdminHandler) GetFraudReport(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	report, err := h.reportService.BuildFraudReport(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// GetAuditLogs lists recent audit entries.
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.reportService.AuditTrail(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

// GetPlatformStats returns the platform-wide dashboard totals.
func (h *AdminHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.reportService.BuildPlatformStats()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
