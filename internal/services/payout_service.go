package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/models"
	"affiliate-platform/internal/notify"
)

type PayoutService struct {
	db       *gorm.DB
	balance  *BalanceService
	notifier notify.Sender
}

func NewPayoutService(db *gorm.DB, balance *BalanceService, notifier notify.Sender) *PayoutService {
	return &PayoutService{
		db:       db,
		balance:  balance,
		notifier: notifier,
	}
}

// RequestPayout creates a withdrawal request for an affiliate. The balance
// is re-derived server-side at request time; whatever the caller displayed
// may be stale by the time the request lands.
func (s *PayoutService) RequestPayout(affiliate *models.User, amount decimal.Decimal, method string) (*models.Payout, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	available, err := s.balance.AvailableBalance(affiliate.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance: %w", err)
	}
	if amount.GreaterThan(available) {
		return nil, ErrInsufficientBalance
	}

	if method == "" {
		method = "Bank Transfer"
	}

	payout := models.Payout{
		AffiliateID: affiliate.ID,
		Amount:      amount,
		Method:      method,
		Status:      models.PayoutStatusPending,
	}

	if err := s.db.Create(&payout).Error; err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.PayoutRequested(affiliate, amount); err != nil {
			log.Printf("Email error: %v", err)
		}
	}

	log.Printf("Payout requested: affiliate=%d amount=%s", affiliate.ID, amount.StringFixed(2))
	return &payout, nil
}

// SetPayoutStatus is the admin transition of the payout state machine: only
// pending/processing may move, and only to completed or rejected. No balance
// is adjusted here; a rejected payout simply stops counting against the
// derived sum on the next read.
func (s *PayoutService) SetPayoutStatus(payoutID uint, newStatus string, actor *models.User) (*models.Payout, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if !models.IsTerminalPayoutStatus(newStatus) {
		return nil, ErrInvalidTransition
	}

	var payout models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payout{}).
			Where("id = ? AND status IN ?", payoutID,
				[]string{models.PayoutStatusPending, models.PayoutStatusProcessing}).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}

		if err := tx.First(&payout, payoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPayoutNotFound
			}
			return err
		}

		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		return recordAudit(tx, &actor.ID, "UPDATE_PAYOUT", "Payout", &payoutID, models.JSONB{
			"status": newStatus,
		}, "")
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		var affiliate models.User
		if err := s.db.First(&affiliate, payout.AffiliateID).Error; err == nil {
			if err := s.notifier.PayoutStatusChanged(&affiliate, payout.Amount, newStatus); err != nil {
				log.Printf("Email error: %v", err)
			}
		}
	}

	log.Printf("Payout %d set to %s by admin %d", payoutID, newStatus, actor.ID)
	return &payout, nil
}

// ListPayouts returns an affiliate's payouts, or all payouts for admins,
// newest first.
func (s *PayoutService) ListPayouts(affiliateID uint, isAdmin bool) ([]models.Payout, error) {
	var payouts []models.Payout
	query := s.db.Order("date DESC")
	if !isAdmin {
		query = query.Where("affiliate_id = ?", affiliateID)
	}
	if err := query.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}
