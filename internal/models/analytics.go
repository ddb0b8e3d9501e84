package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Analytics is the daily rollup, one row per (date, link, affiliate).
// LinkID 0 is the platform-wide bucket used for conversions that carry no
// link context; a nullable column would defeat the composite unique index
// because SQL treats NULLs as distinct.
type Analytics struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Date        time.Time       `gorm:"not null;uniqueIndex:idx_analytics_bucket,priority:1" json:"date"`
	LinkID      uint            `gorm:"not null;default:0;uniqueIndex:idx_analytics_bucket,priority:2" json:"link_id"`
	AffiliateID uint            `gorm:"not null;index;uniqueIndex:idx_analytics_bucket,priority:3" json:"affiliate_id"`
	Clicks      int64           `gorm:"default:0" json:"clicks"`
	Conversions int64           `gorm:"default:0" json:"conversions"`
	Revenue     decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"revenue"`
	Currency    string          `gorm:"size:3;default:USD" json:"currency"`
}

// TableName specifies the table name for Analytics model
func (Analytics) TableName() string {
	return "analytics"
}
