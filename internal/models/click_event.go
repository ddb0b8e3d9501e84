package models

import "time"

// ClickEvent is one immutable row per inbound redirect hit. It is always
// written, even for traffic classified as bot, and is the sole source of
// truth for raw traffic.
type ClickEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LinkID      uint      `gorm:"not null;index" json:"link_id"`
	Link        *Link     `gorm:"foreignKey:LinkID" json:"link,omitempty"`
	AffiliateID uint      `gorm:"not null;index" json:"affiliate_id"`
	Affiliate   *User     `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	IP          string    `gorm:"size:45" json:"ip"`
	UserAgent   string    `gorm:"size:500" json:"user_agent"`
	Referrer    string    `gorm:"size:500" json:"referrer"`
	DeviceType  string    `gorm:"size:10" json:"device_type"`
	IsBot       bool      `gorm:"default:false;index" json:"is_bot"`
	FraudScore  int       `gorm:"default:0" json:"fraud_score"`
	Timestamp   time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName specifies the table name for ClickEvent model
func (ClickEvent) TableName() string {
	return "click_events"
}
