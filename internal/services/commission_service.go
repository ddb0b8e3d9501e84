package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/models"
	"affiliate-platform/internal/notify"
)

// DefaultCommissionRate is the global fallback percentage when neither the
// link nor the affiliate carries a rate.
var DefaultCommissionRate = decimal.NewFromInt(10)

// Outcomes of ProcessCommission.
const (
	CommissionCreated          = "created"
	CommissionSkippedDuplicate = "skipped_duplicate"
)

// errDuplicateCommission aborts the ledger transaction when the idempotency
// key is already taken; it never leaves ProcessCommission.
var errDuplicateCommission = errors.New("duplicate commission key")

// CommissionInput describes one attributed sale event.
type CommissionInput struct {
	AffiliateID uint
	LinkID      *uint
	SaleAmount  decimal.Decimal
	Description string
	UniqueID    string // external idempotency key, e.g. a payment session id
	ChargeID    string // charge reference for refund correlation
	Source      string // notification label, e.g. "Stripe Sale"
}

// CommissionResult reports what ProcessCommission did.
type CommissionResult struct {
	Status     string             `json:"status"`
	Commission *models.Commission `json:"commission"`
}

type CommissionService struct {
	db       *gorm.DB
	notifier notify.Sender
}

func NewCommissionService(db *gorm.DB, notifier notify.Sender) *CommissionService {
	return &CommissionService{
		db:       db,
		notifier: notifier,
	}
}

// ResolveRate picks the applicable commission percentage. Precedence: link
// override, then affiliate rate, then the global default.
func ResolveRate(link *models.Link, affiliate *models.User) decimal.Decimal {
	if link != nil && link.CommissionRate != nil {
		return *link.CommissionRate
	}
	if affiliate.CommissionRate != nil {
		return *affiliate.CommissionRate
	}
	return DefaultCommissionRate
}

// ProcessCommission records at most one commission per idempotency key.
// Duplicate suppression rides on the unique index over the key: the row is
// inserted and a uniqueness violation is treated as the duplicate-skip path,
// so two concurrent deliveries of the same webhook cannot both land. The
// commission insert and its aggregate effects share one transaction; the
// notification fires after commit and is best-effort.
func (s *CommissionService) ProcessCommission(input CommissionInput) (*CommissionResult, error) {
	if input.SaleAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var affiliate models.User
	if err := s.db.First(&affiliate, input.AffiliateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}

	// Link context is optional; a missing or unknown link id degrades to a
	// general referral.
	var link *models.Link
	if input.LinkID != nil {
		var l models.Link
		if err := s.db.First(&l, *input.LinkID).Error; err == nil {
			link = &l
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	rate := ResolveRate(link, &affiliate)
	amount := input.SaleAmount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Commission for sale (rate %s%%)", rate.String())
	}

	commission := models.Commission{
		AffiliateID:    affiliate.ID,
		Amount:         amount,
		SaleAmount:     input.SaleAmount,
		RateUsed:       rate,
		Description:    description,
		Status:         models.CommissionStatusPending,
		StripeChargeID: input.ChargeID,
	}
	if link != nil {
		commission.LinkID = &link.ID
	}
	if input.UniqueID != "" {
		uniqueID := input.UniqueID
		commission.StripeSessionID = &uniqueID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&commission).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Roll back and take the duplicate-skip path outside.
				return errDuplicateCommission
			}
			return fmt.Errorf("failed to create commission: %w", err)
		}

		var linkID uint
		if link != nil {
			linkID = link.ID
			if err := tx.Model(&models.Link{}).Where("id = ?", link.ID).
				Updates(map[string]interface{}{
					"conversions": gorm.Expr("conversions + ?", 1),
					"revenue":     gorm.Expr("revenue + ?", input.SaleAmount),
				}).Error; err != nil {
				return fmt.Errorf("failed to update link stats: %w", err)
			}
		}

		return incrementAnalytics(tx, bucketDate(time.Now()), linkID, affiliate.ID, 0, 1, input.SaleAmount)
	})
	if err != nil && !errors.Is(err, errDuplicateCommission) {
		return nil, err
	}

	if errors.Is(err, errDuplicateCommission) {
		var existing models.Commission
		if err := s.db.Where("stripe_session_id = ?", input.UniqueID).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to load duplicate commission: %w", err)
		}
		return &CommissionResult{Status: CommissionSkippedDuplicate, Commission: &existing}, nil
	}

	source := input.Source
	if source == "" {
		source = "Sale"
	}
	if s.notifier != nil {
		if err := s.notifier.CommissionEarned(&affiliate, amount, source); err != nil {
			log.Printf("Email error: %v", err)
		}
	}

	log.Printf("Commission created: affiliate=%d amount=%s rate=%s%%", affiliate.ID, amount.StringFixed(2), rate.String())
	return &CommissionResult{Status: CommissionCreated, Commission: &commission}, nil
}

// ApproveCommission moves a pending commission to approved, making it count
// toward the affiliate's withdrawable balance. Idempotent: approving an
// already-approved commission is a no-op; any other status is an illegal
// transition. Admin only.
func (s *CommissionService) ApproveCommission(commissionID uint, actor *models.User) (*models.Commission, error) {
	return s.transitionCommission(commissionID, models.CommissionStatusApproved, actor)
}

// RejectCommission moves a pending commission to rejected. Admin only.
func (s *CommissionService) RejectCommission(commissionID uint, actor *models.User) (*models.Commission, error) {
	return s.transitionCommission(commissionID, models.CommissionStatusRejected, actor)
}

func (s *CommissionService) transitionCommission(commissionID uint, target string, actor *models.User) (*models.Commission, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	var commission models.Commission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Commission{}).
			Where("id = ? AND status = ?", commissionID, models.CommissionStatusPending).
			Update("status", target)
		if res.Error != nil {
			return res.Error
		}

		if err := tx.First(&commission, commissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommissionNotFound
			}
			return err
		}

		if res.RowsAffected == 0 {
			if commission.Status == target {
				return nil // already there, idempotent
			}
			return ErrInvalidTransition
		}

		return recordAudit(tx, &actor.ID, "UPDATE_COMMISSION", "Commission", &commissionID, models.JSONB{
			"status": target,
		}, "")
	})
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// ListCommissions returns an affiliate's ledger entries, newest first, or
// every entry for admins.
func (s *CommissionService) ListCommissions(affiliateID uint, isAdmin bool) ([]models.Commission, error) {
	var commissions []models.Commission
	query := s.db.Order("created_at DESC")
	if !isAdmin {
		query = query.Where("affiliate_id = ?", affiliateID)
	}
	if err := query.Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}
