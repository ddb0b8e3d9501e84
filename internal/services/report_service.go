package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/models"
)

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{
		db: db,
	}
}

// DailyPoint is one day of rollup data for an affiliate.
type DailyPoint struct {
	Date        time.Time       `json:"date"`
	Clicks      int64           `json:"clicks"`
	Conversions int64           `json:"conversions"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// DailySeries returns per-day totals for an affiliate since the given date,
// summed across links.
func (s *ReportService) DailySeries(affiliateID uint, since time.Time) ([]DailyPoint, error) {
	var points []DailyPoint
	err := s.db.Model(&models.Analytics{}).
		Select("date, SUM(clicks) AS clicks, SUM(conversions) AS conversions, SUM(revenue) AS revenue").
		Where("affiliate_id = ? AND date >= ?", affiliateID, bucketDate(since)).
		Group("date").
		Order("date").
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}

// LeaderboardEntry is one affiliate's aggregate standing.
type LeaderboardEntry struct {
	AffiliateID      uint            `json:"affiliate_id"`
	Name             string          `json:"name" gorm:"-"`
	TotalClicks      int64           `json:"total_clicks"`
	TotalConversions int64           `json:"total_conversions"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
}

// Leaderboard ranks affiliates by revenue over the range.
func (s *ReportService) Leaderboard(since time.Time, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var entries []LeaderboardEntry
	err := s.db.Model(&models.Analytics{}).
		Select("affiliate_id, SUM(clicks) AS total_clicks, SUM(conversions) AS total_conversions, SUM(revenue) AS total_revenue").
		Where("date >= ?", bucketDate(since)).
		Group("affiliate_id").
		Order("total_revenue DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}

	// Fill in names in one pass.
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.AffiliateID)
	}
	if len(ids) > 0 {
		var users []models.User
		if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, err
		}
		names := make(map[uint]string, len(users))
		for _, u := range users {
			names[u.ID] = u.Name
		}
		for i := range entries {
			entries[i].Name = names[entries[i].AffiliateID]
		}
	}

	return entries, nil
}

// Funnel summarizes an affiliate's clicks-to-revenue funnel over the range.
type Funnel struct {
	Clicks         int64           `json:"clicks"`
	Conversions    int64           `json:"conversions"`
	Revenue        decimal.Decimal `json:"revenue"`
	ConversionRate float64         `json:"conversion_rate"`
}

// FunnelReport computes the click → conversion → revenue funnel for an
// affiliate since the given date.
func (s *ReportService) FunnelReport(affiliateID uint, since time.Time) (*Funnel, error) {
	var funnel Funnel
	err := s.db.Model(&models.Analytics{}).
		Select("COALESCE(SUM(clicks), 0) AS clicks, COALESCE(SUM(conversions), 0) AS conversions, COALESCE(SUM(revenue), 0) AS revenue").
		Where("affiliate_id = ? AND date >= ?", affiliateID, bucketDate(since)).
		Scan(&funnel).Error
	if err != nil {
		return nil, err
	}

	if funnel.Clicks > 0 {
		funnel.ConversionRate = float64(funnel.Conversions) / float64(funnel.Clicks)
	}
	return &funnel, nil
}

// FraudOffender aggregates suspicious traffic per affiliate.
type FraudOffender struct {
	AffiliateID      uint      `json:"affiliate_id"`
	Name             string    `json:"name" gorm:"-"`
	SuspiciousClicks int64     `json:"suspicious_clicks"`
	AvgFraudScore    float64   `json:"avg_fraud_score"`
	LastActivity     time.Time `json:"last_activity"`
}

// FraudReport bundles recent suspicious clicks with the top offenders.
type FraudReport struct {
	RecentClicks []models.ClickEvent `json:"recent_clicks"`
	TopOffenders []FraudOffender     `json:"top_offenders"`
}

// BuildFraudReport surfaces bot-flagged and scored traffic for admin review.
func (s *ReportService) BuildFraudReport(limit int) (*FraudReport, error) {
	if limit <= 0 {
		limit = 50
	}

	report := FraudReport{}
	err := s.db.Where("is_bot = ? OR fraud_score > 0", true).
		Order("timestamp DESC").
		Limit(limit).
		Find(&report.RecentClicks).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.ClickEvent{}).
		Select("affiliate_id, COUNT(*) AS suspicious_clicks, AVG(fraud_score) AS avg_fraud_score, MAX(timestamp) AS last_activity").
		Where("is_bot = ? OR fraud_score > 0", true).
		Group("affiliate_id").
		Order("suspicious_clicks DESC").
		Limit(10).
		Scan(&report.TopOffenders).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(report.TopOffenders))
	for _, o := range report.TopOffenders {
		ids = append(ids, o.AffiliateID)
	}
	if len(ids) > 0 {
		var users []models.User
		if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, err
		}
		names := make(map[uint]string, len(users))
		for _, u := range users {
			names[u.ID] = u.Name
		}
		for i := range report.TopOffenders {
			report.TopOffenders[i].Name = names[report.TopOffenders[i].AffiliateID]
		}
	}

	return &report, nil
}

// AuditTrail lists recent audit entries, newest first.
func (s *ReportService) AuditTrail(limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.AuditLog
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// PlatformStats is the admin dashboard headline view.
type PlatformStats struct {
	TotalAffiliates  int64           `json:"total_affiliates"`
	TotalLinks       int64           `json:"total_links"`
	TotalClicks      int64           `json:"total_clicks"`
	TotalConversions int64           `json:"total_conversions"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	PendingPayouts   int64           `json:"pending_payouts"`
}

// BuildPlatformStats computes platform-wide totals.
func (s *ReportService) BuildPlatformStats() (*PlatformStats, error) {
	var stats PlatformStats

	if err := s.db.Model(&models.User{}).
		Where("role = ?", models.RoleAffiliate).Count(&stats.TotalAffiliates).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Link{}).Count(&stats.TotalLinks).Error; err != nil {
		return nil, err
	}

	row := s.db.Model(&models.Analytics{}).
		Select("COALESCE(SUM(clicks), 0), COALESCE(SUM(conversions), 0), COALESCE(SUM(revenue), 0)").Row()
	if err := row.Scan(&stats.TotalClicks, &stats.TotalConversions, &stats.TotalRevenue); err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Payout{}).
		Where("status IN ?", []string{models.PayoutStatusPending, models.PayoutStatusProcessing}).
		Count(&stats.PendingPayouts).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
