package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/auth"
	"affiliate-platform/internal/models"
	"affiliate-platform/internal/notify"
	"affiliate-platform/internal/services"
)

type PayoutHandler struct {
	db             *gorm.DB
	userService    *services.UserService
	balanceService *services.BalanceService
	payoutService  *services.PayoutService
}

func NewPayoutHandler(db *gorm.DB, notifier notify.Sender) *PayoutHandler {
	balanceService := services.NewBalanceService(db)
	return &PayoutHandler{
		db:             db,
		userService:    services.NewUserService(db),
		balanceService: balanceService,
		payoutService:  services.NewPayoutService(db, balanceService, notifier),
	}
}

// GetPayouts lists the affiliate's payouts alongside the current derived
// balance; admins see all payouts.
func (h *PayoutHandler) GetPayouts(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	role, _ := auth.GetRole(c)

	payouts, err := h.payoutService.ListPayouts(userID, role == models.RoleAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	available, err := h.balanceService.AvailableBalance(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"data":              payouts,
		"count":             len(payouts),
		"available_balance": available,
	})
}

// GetBalance returns the affiliate's derived withdrawable balance.
func (h *PayoutHandler) GetBalance(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	available, err := h.balanceService.AvailableBalance(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"available_balance": available,
	})
}

// RequestPayout creates a withdrawal request against the derived balance.
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount string `json:"amount" binding:"required"`
		Method string `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	affiliate, err := h.userService.GetUser(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if affiliate.Status != models.UserStatusActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account must be approved before requesting payouts"})
		return
	}

	payout, err := h.payoutService.RequestPayout(affiliate, amount, req.Method)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    payout,
	})
}
