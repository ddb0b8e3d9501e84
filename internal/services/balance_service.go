package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/models"
)

type BalanceService struct {
	db *gorm.DB
}

func NewBalanceService(db *gorm.DB) *BalanceService {
	return &BalanceService{
		db: db,
	}
}

// AvailableBalance derives the withdrawable balance: approved commissions
// minus every payout that was not rejected. There is deliberately no stored
// balance column to drift; this aggregation is the authoritative figure and
// is recomputed on every read. Pending commissions do not count.
func (s *BalanceService) AvailableBalance(affiliateID uint) (decimal.Decimal, error) {
	var earned decimal.Decimal
	row := s.db.Model(&models.Commission{}).
		Where("affiliate_id = ? AND status = ?", affiliateID, models.CommissionStatusApproved).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&earned); err != nil {
		return decimal.Zero, err
	}

	var withdrawn decimal.Decimal
	row = s.db.Model(&models.Payout{}).
		Where("affiliate_id = ? AND status <> ?", affiliateID, models.PayoutStatusRejected).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&withdrawn); err != nil {
		return decimal.Zero, err
	}

	return earned.Sub(withdrawn), nil
}
