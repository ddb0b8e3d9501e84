package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"affiliate-platform/internal/models"
)

// bucketDate truncates a timestamp to its UTC day, the rollup bucket key.
func bucketDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// incrementAnalytics applies atomic deltas to the (date, link, affiliate)
// rollup row, inserting it on first touch. Increment-on-upsert keyed by the
// composite unique index keeps concurrent clicks and conversions for the
// same bucket from losing updates; deltas may be negative for reversals.
func incrementAnalytics(db *gorm.DB, date time.Time, linkID, affiliateID uint, clicks, conversions int64, revenue decimal.Decimal) error {
	row := models.Analytics{
		Date:        date,
		LinkID:      linkID,
		AffiliateID: affiliateID,
		Clicks:      clicks,
		Conversions: conversions,
		Revenue:     revenue,
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "link_id"}, {Name: "affiliate_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"clicks":      gorm.Expr("clicks + ?", clicks),
			"conversions": gorm.Expr("conversions + ?", conversions),
			"revenue":     gorm.Expr("revenue + ?", revenue),
		}),
	}).Create(&row).Error
}

// recordAudit appends an audit trail entry. Runs inside the caller's
// transaction when one is open.
func recordAudit(db *gorm.DB, actorID *uint, action, targetType string, targetID *uint, details models.JSONB, ip string) error {
	entry := models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		IPAddress:  ip,
	}
	return db.Create(&entry).Error
}
