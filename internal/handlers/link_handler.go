package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/auth"
	"affiliate-platform/internal/models"
	"affiliate-platform/internal/services"
)

type LinkHandler struct {
	db          *gorm.DB
	linkService *services.LinkService
	baseURL     string
}

func NewLinkHandler(db *gorm.DB, baseURL string) *LinkHandler {
	return &LinkHandler{
		db:          db,
		linkService: services.NewLinkService(db),
		baseURL:     baseURL,
	}
}

// CreateLink creates a tracked link for the authenticated affiliate.
func (h *LinkHandler) CreateLink(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Name           string `json:"name" binding:"required"`
		Slug           string `json:"slug"`
		URL            string `json:"url" binding:"required"`
		CommissionRate string `json:"commission_rate"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rate *decimal.Decimal
	if req.CommissionRate != "" {
		parsed, err := decimal.NewFromString(req.CommissionRate)
		if err != nil || parsed.IsNegative() || parsed.GreaterThan(decimal.NewFromInt(100)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid commission_rate"})
			return
		}
		rate = &parsed
	}

	link, err := h.linkService.CreateLink(userID, req.Name, req.Slug, req.URL, rate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"data":         link,
		"tracking_url": h.baseURL + "/r/" + link.Slug,
	})
}

// GetLinks lists the affiliate's links; admins see every link.
func (h *LinkHandler) GetLinks(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	role, _ := auth.GetRole(c)

	links, err := h.linkService.ListLinks(userID, role == models.RoleAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    links,
		"count":   len(links),
	})
}

// UpdateLinkStatus activates or deactivates a link. Affiliates may only
// touch their own links.
func (h *LinkHandler) UpdateLinkStatus(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	linkID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, _ := auth.GetRole(c)
	if role != models.RoleAdmin {
		var link models.Link
		if err := h.db.First(&link, uint(linkID)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		if link.AffiliateID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not your link"})
			return
		}
	}

	link, err := h.linkService.UpdateLinkStatus(uint(linkID), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    link,
	})
}
