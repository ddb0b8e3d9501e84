package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"affiliate-platform/internal/models"
	"affiliate-platform/internal/services"
)

type WebhookHandler struct {
	commissionService *services.CommissionService
	reversalService   *services.ReversalService
	secret            string
}

func NewWebhookHandler(commissionService *services.CommissionService, reversalService *services.ReversalService, secret string) *WebhookHandler {
	return &WebhookHandler{
		commissionService: commissionService,
		reversalService:   reversalService,
		secret:            secret,
	}
}

// paymentEvent is the provider-neutral webhook envelope. Amounts arrive in
// minor units (cents).
type paymentEvent struct {
	Type string `json:"type"`
	Data struct {
		SessionID      string `json:"session_id"`
		ChargeID       string `json:"charge_id"`
		AffiliateID    uint   `json:"affiliate_id"`
		LinkID         *uint  `json:"link_id"`
		AmountTotal    int64  `json:"amount_total"`
		AmountRefunded int64  `json:"amount_refunded"`
		Description    string `json:"description"`
	} `json:"data"`
}

func minorToMajor(v int64) decimal.Decimal {
	return decimal.NewFromInt(v).Div(decimal.NewFromInt(100))
}

// HandlePaymentEvent ingests payment-provider webhooks. Every delivery is
// safe to replay: completed checkouts dedupe on the session id, refunds and
// disputes on the reversal status guard. Unknown event types and unmatched
// charges are acknowledged so the provider stops retrying.
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	if h.secret != "" {
		mac := hmac.New(sha256.New, []byte(h.secret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(expected), []byte(c.GetHeader("X-Webhook-Signature"))) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	switch event.Type {
	case "checkout.completed", "checkout.session.completed":
		result, err := h.commissionService.ProcessCommission(services.CommissionInput{
			AffiliateID: event.Data.AffiliateID,
			LinkID:      event.Data.LinkID,
			SaleAmount:  minorToMajor(event.Data.AmountTotal),
			Description: event.Data.Description,
			UniqueID:    event.Data.SessionID,
			ChargeID:    event.Data.ChargeID,
			Source:      "Stripe Sale",
		})
		if err != nil {
			// A checkout with no matching affiliate is not our sale; ack it.
			if errors.Is(err, services.ErrAffiliateNotFound) {
				c.JSON(http.StatusOK, gin.H{"status": "ignored"})
				return
			}
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": result.Status})

	case "charge.refunded":
		h.reverse(c, event, models.ReverseReasonRefund)

	case "charge.dispute_created", "charge.dispute.created":
		h.reverse(c, event, models.ReverseReasonDispute)

	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func (h *WebhookHandler) reverse(c *gin.Context, event paymentEvent, reason string) {
	refund := minorToMajor(event.Data.AmountRefunded)
	if refund.LessThanOrEqual(decimal.Zero) {
		// Disputes may not carry a refunded figure; treat as full.
		refund = minorToMajor(event.Data.AmountTotal)
	}

	result, err := h.reversalService.ReverseCommission(
		event.Data.ChargeID, refund, minorToMajor(event.Data.AmountTotal), reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         result.Outcome,
		"reverse_amount": result.ReverseAmount,
	})
}
