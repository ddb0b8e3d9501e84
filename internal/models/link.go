package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Link statuses
const (
	LinkStatusActive   = "active"
	LinkStatusInactive = "inactive"
)

// Link is a tracked affiliate link. The lifetime counters are denormalized
// summaries of the non-bot subset of ClickEvent/Commission history.
type Link struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	AffiliateID    uint             `gorm:"not null;index" json:"affiliate_id"`
	Affiliate      *User            `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	Name           string           `gorm:"size:255;not null" json:"name"`
	Slug           string           `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	URL            string           `gorm:"size:2000;not null" json:"url"`
	Clicks         int64            `gorm:"default:0" json:"clicks"`
	Conversions    int64            `gorm:"default:0" json:"conversions"`
	Revenue        decimal.Decimal  `gorm:"type:decimal(18,2);default:0" json:"revenue"`
	CommissionRate *decimal.Decimal `gorm:"type:decimal(5,2)" json:"commission_rate,omitempty"`
	Status         string           `gorm:"size:20;default:active;index" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

// TableName specifies the table name for Link model
func (Link) TableName() string {
	return "links"
}
