package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/models"
)

// Outcomes of ReverseCommission. Missing commissions and repeats are normal
// webhook noise, not errors.
const (
	ReversalApplied         = "reversed"
	ReversalNotFound        = "commission_not_found"
	ReversalAlreadyReversed = "already_reversed"
)

// ReversalResult reports what ReverseCommission did.
type ReversalResult struct {
	Outcome       string             `json:"outcome"`
	Commission    *models.Commission `json:"commission,omitempty"`
	ReverseAmount decimal.Decimal    `json:"reverse_amount"`
}

type ReversalService struct {
	db *gorm.DB
}

func NewReversalService(db *gorm.DB) *ReversalService {
	return &ReversalService{
		db: db,
	}
}

// ReverseCommission backs out a commission after a refund or dispute. The
// reversal is proportional: a partial refund reverses the matching share of
// the commission and keeps the conversion counted; only a full refund
// removes the conversion. The status flip is guarded on the previous status
// so concurrent duplicate refund webhooks cannot double-decrement, and the
// flip plus aggregate decrements commit as one transaction.
//
// The decrement posts to today's analytics bucket even when the sale was on
// an earlier day, matching the established reporting behavior.
func (s *ReversalService) ReverseCommission(chargeID string, refundAmount, chargeAmount decimal.Decimal, reason string) (*ReversalResult, error) {
	if chargeID == "" {
		return &ReversalResult{Outcome: ReversalNotFound}, nil
	}

	commission, err := s.findByCharge(chargeID)
	if err != nil {
		return nil, err
	}
	if commission == nil {
		// Refunds can precede or outlive commission tracking.
		log.Printf("Reversal: no commission for charge %s", chargeID)
		return &ReversalResult{Outcome: ReversalNotFound}, nil
	}

	if commission.Status == models.CommissionStatusReversed {
		return &ReversalResult{Outcome: ReversalAlreadyReversed, Commission: commission}, nil
	}

	// Proportion of the original charge that was refunded. The gross charge
	// amount comes from the event; fall back to the recorded sale amount
	// when the event omits it.
	base := chargeAmount
	if base.LessThanOrEqual(decimal.Zero) {
		base = commission.SaleAmount
	}
	if base.LessThanOrEqual(decimal.Zero) || refundAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	proportion := refundAmount.Div(base)
	reverseAmount := commission.Amount.Mul(proportion).Round(2)
	fullRefund := proportion.GreaterThanOrEqual(decimal.NewFromInt(1))

	alreadyReversed := false
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Commission{}).
			Where("id = ? AND status <> ?", commission.ID, models.CommissionStatusReversed).
			Updates(map[string]interface{}{
				"status":         models.CommissionStatusReversed,
				"reversed_at":    now,
				"reverse_reason": reason,
				"reverse_amount": reverseAmount,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to reverse commission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			alreadyReversed = true
			return nil
		}

		var conversionDelta int64
		if fullRefund {
			conversionDelta = 1
		}

		var linkID uint
		if commission.LinkID != nil {
			linkID = *commission.LinkID
			if err := tx.Model(&models.Link{}).Where("id = ?", linkID).
				Updates(map[string]interface{}{
					"conversions": gorm.Expr("conversions - ?", conversionDelta),
					"revenue":     gorm.Expr("revenue - ?", refundAmount),
				}).Error; err != nil {
				return fmt.Errorf("failed to back out link stats: %w", err)
			}
		}

		if err := incrementAnalytics(tx, bucketDate(now), linkID, commission.AffiliateID,
			0, -conversionDelta, refundAmount.Neg()); err != nil {
			return fmt.Errorf("failed to back out analytics: %w", err)
		}

		return recordAudit(tx, nil, "REVERSE_COMMISSION", "Commission", &commission.ID, models.JSONB{
			"charge_id":      chargeID,
			"refund_amount":  refundAmount.String(),
			"reverse_amount": reverseAmount.String(),
			"proportion":     proportion.String(),
			"reason":         reason,
		}, "")
	})
	if err != nil {
		return nil, err
	}

	if alreadyReversed {
		reloaded, err := s.findByCharge(chargeID)
		if err != nil {
			return nil, err
		}
		return &ReversalResult{Outcome: ReversalAlreadyReversed, Commission: reloaded}, nil
	}

	commission.Status = models.CommissionStatusReversed
	commission.ReversedAt = &now
	commission.ReverseReason = reason
	commission.ReverseAmount = reverseAmount

	log.Printf("Commission %d reversed: charge=%s amount=%s reason=%s",
		commission.ID, chargeID, reverseAmount.StringFixed(2), reason)
	return &ReversalResult{Outcome: ReversalApplied, Commission: commission, ReverseAmount: reverseAmount}, nil
}

// findByCharge locates the commission for a charge, first by the stored
// charge id, then by a charge reference embedded in the idempotency key.
func (s *ReversalService) findByCharge(chargeID string) (*models.Commission, error) {
	var commission models.Commission
	err := s.db.Where("stripe_charge_id = ?", chargeID).First(&commission).Error
	if err == nil {
		return &commission, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.Where("stripe_session_id LIKE ?", "%"+chargeID+"%").First(&commission).Error
	if err == nil {
		return &commission, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}
