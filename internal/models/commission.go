package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission statuses
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
	CommissionStatusRejected = "rejected"
	CommissionStatusPaid     = "paid"
	CommissionStatusReversed = "reversed"
)

// Reversal reasons
const (
	ReverseReasonRefund  = "refund"
	ReverseReasonDispute = "dispute"
)

// Commission is the earnings ledger entry, one row per attributed sale.
// StripeSessionID is the external idempotency key: the unique index on it is
// what guarantees at-most-one row per sale event under concurrent webhook
// deliveries.
type Commission struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	AffiliateID     uint            `gorm:"not null;index" json:"affiliate_id"`
	Affiliate       *User           `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	LinkID          *uint           `gorm:"index" json:"link_id,omitempty"`
	Link            *Link           `gorm:"foreignKey:LinkID" json:"link,omitempty"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	SaleAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"sale_amount"`
	RateUsed        decimal.Decimal `gorm:"type:decimal(5,2)" json:"rate_used"`
	Currency        string          `gorm:"size:3;default:USD" json:"currency"`
	Description     string          `gorm:"type:text" json:"description"`
	Status          string          `gorm:"size:20;default:pending;index" json:"status"`
	StripeSessionID *string         `gorm:"uniqueIndex;size:255" json:"stripe_session_id,omitempty"`
	StripeChargeID  string          `gorm:"index;size:255" json:"stripe_charge_id,omitempty"`
	ReversedAt      *time.Time      `json:"reversed_at,omitempty"`
	ReverseReason   string          `gorm:"size:20" json:"reverse_reason,omitempty"`
	ReverseAmount   decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"reverse_amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for Commission model
func (Commission) TableName() string {
	return "commissions"
}
