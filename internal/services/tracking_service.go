package services

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/models"
)

// AttributionSink establishes the durable visitor-to-affiliate attribution,
// opaque to the tracking core. The HTTP layer implements it as a signed
// cookie pair with a 30-day TTL.
type AttributionSink interface {
	Establish(affiliateID, linkID uint) error
}

// ClickMeta carries the request metadata and the fraud verdict for one
// redirect hit.
type ClickMeta struct {
	IP         string
	UserAgent  string
	Referrer   string
	DeviceType string
	IsBot      bool
	FraudScore int
}

type TrackingService struct {
	db *gorm.DB
}

func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{
		db: db,
	}
}

// RecordClick persists the click fact and, for non-bot traffic, bumps the
// link and daily counters and establishes attribution. The raw click event
// is written unconditionally: bot clicks are logged for fraud visibility but
// leave aggregates and attribution untouched. Note the rate-limit penalty
// alone does not suppress counting; only the bot flag does.
func (s *TrackingService) RecordClick(link *models.Link, meta ClickMeta, sink AttributionSink) (*models.ClickEvent, bool, error) {
	event := models.ClickEvent{
		LinkID:      link.ID,
		AffiliateID: link.AffiliateID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Referrer:    meta.Referrer,
		DeviceType:  meta.DeviceType,
		IsBot:       meta.IsBot,
		FraudScore:  meta.FraudScore,
	}

	if err := s.db.Create(&event).Error; err != nil {
		return nil, false, fmt.Errorf("failed to log click: %w", err)
	}

	if meta.IsBot {
		return &event, false, nil
	}

	if err := s.db.Model(&models.Link{}).Where("id = ?", link.ID).
		Update("clicks", gorm.Expr("clicks + ?", 1)).Error; err != nil {
		return &event, false, fmt.Errorf("failed to update link clicks: %w", err)
	}

	if err := incrementAnalytics(s.db, bucketDate(event.Timestamp), link.ID, link.AffiliateID, 1, 0, decimal.Zero); err != nil {
		return &event, false, fmt.Errorf("failed to update analytics: %w", err)
	}

	attributed := false
	if sink != nil {
		if err := sink.Establish(link.AffiliateID, link.ID); err != nil {
			// Attribution is best-effort; the click stays counted.
			log.Printf("Attribution error for link %d: %v", link.ID, err)
		} else {
			attributed = true
		}
	}

	return &event, attributed, nil
}
