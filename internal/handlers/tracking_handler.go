package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/fraud"
	"affiliate-platform/internal/services"
)

var mobilePattern = regexp.MustCompile(`(?i)(mobile|iphone|ipad|android|windows phone)`)

func deviceType(userAgent string) string {
	if mobilePattern.MatchString(userAgent) {
		return "mobile"
	}
	return "desktop"
}

type TrackingHandler struct {
	db                *gorm.DB
	linkService       *services.LinkService
	trackingService   *services.TrackingService
	commissionService *services.CommissionService
	limiter           fraud.RateLimiter
	cookieSecret      string
}

func NewTrackingHandler(db *gorm.DB, commissionService *services.CommissionService, limiter fraud.RateLimiter, cookieSecret string) *TrackingHandler {
	return &TrackingHandler{
		db:                db,
		linkService:       services.NewLinkService(db),
		trackingService:   services.NewTrackingService(db),
		commissionService: commissionService,
		limiter:           limiter,
		cookieSecret:      cookieSecret,
	}
}

// Redirect resolves a slug, records the click and forwards the visitor.
// The fraud verdict never changes the response: bots and rate-limited
// visitors get the same 302 as everyone else.
func (h *TrackingHandler) Redirect(c *gin.Context) {
	link, err := h.linkService.FindActiveLinkBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found or inactive"})
			return
		}
		respondServiceError(c, err)
		return
	}

	ip := c.ClientIP()
	userAgent := c.Request.UserAgent()

	isBot := fraud.ClassifyBot(userAgent)
	withinLimit, err := h.limiter.Allow(c.Request.Context(), ip)
	if err != nil {
		// A broken limiter must not take down redirects.
		log.Printf("Rate limiter error: %v", err)
		withinLimit = true
	}

	meta := services.ClickMeta{
		IP:         ip,
		UserAgent:  userAgent,
		Referrer:   c.Request.Referer(),
		DeviceType: deviceType(userAgent),
		IsBot:      isBot,
		FraudScore: fraud.Score(isBot, withinLimit),
	}

	sink := &cookieSink{c: c, secret: h.cookieSecret}
	if _, _, err := h.trackingService.RecordClick(link, meta, sink); err != nil {
		// The visitor still gets where they were going.
		log.Printf("Click tracking error for %s: %v", link.Slug, err)
	}

	c.Redirect(http.StatusFound, link.URL)
}

// TrackConversion is the public pixel endpoint. Attribution falls back to
// the signed cookie when the caller omits it, and a missing idempotency key
// gets a generated one so a lone retry-free pixel still creates exactly one
// commission per call.
func (h *TrackingHandler) TrackConversion(c *gin.Context) {
	var req struct {
		AffiliateID uint   `json:"affiliate_id"`
		LinkID      *uint  `json:"link_id"`
		Amount      string `json:"amount" binding:"required"`
		UniqueID    string `json:"unique_id"`
		Description string `json:"description"`
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

	affiliateID := req.AffiliateID
	linkID := req.LinkID
	if affiliateID == 0 {
		attr, ok := readAttribution(c, h.cookieSecret)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing attribution"})
			return
		}
		affiliateID = attr.AffiliateID
		if linkID == nil && attr.LinkID != 0 {
			id := attr.LinkID
			linkID = &id
		}
	}

	uniqueID := req.UniqueID
	if uniqueID == "" {
		uniqueID = "pixel_" + uuid.NewString()
	}

	result, err := h.commissionService.ProcessCommission(services.CommissionInput{
		AffiliateID: affiliateID,
		LinkID:      linkID,
		SaleAmount:  amount,
		Description: req.Description,
		UniqueID:    uniqueID,
		Source:      "Conversion Pixel",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  result.Status,
		"data":    result.Commission,
	})
}
