package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout statuses. Pending and processing are both treated as the initial
// state; completed and rejected are terminal.
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusRejected   = "rejected"
)

// Payout is a withdrawal request. Amount and method are immutable after
// creation; only the status transitions, and only by admin action.
type Payout struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	AffiliateID uint            `gorm:"not null;index" json:"affiliate_id"`
	Affiliate   *User           `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Method      string          `gorm:"size:50;not null" json:"method"`
	Status      string          `gorm:"size:20;default:pending;index" json:"status"`
	Date        time.Time       `gorm:"autoCreateTime" json:"date"`
}

// TableName specifies the table name for Payout model
func (Payout) TableName() string {
	return "payouts"
}

// IsTerminalPayoutStatus reports whether a payout status permits no further
// transitions.
func IsTerminalPayoutStatus(status string) bool {
	return status == PayoutStatusCompleted || status == PayoutStatusRejected
}
