package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"affiliate-platform/internal/models"
)

func TestReverseCommissionPartial(t *testing.T) {
	db := setupTestDB(t, "reversal_partial")
	commissions := NewCommissionService(db, nil)
	reversals := NewReversalService(db)

	affiliate := createAffiliate(t, db, "partial@example.com", ratePtr(10))
	link := createLink(t, db, affiliate.ID, "partial-link", nil)

	result, err := commissions.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		LinkID:      &link.ID,
		SaleAmount:  decimal.NewFromInt(100),
		UniqueID:    "sess_partial",
		ChargeID:    "ch_partial",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}

	// Refund half of a 100 charge: half of the 10.00 commission reverses,
	// the conversion stays counted.
	rev, err := reversals.ReverseCommission("ch_partial",
		decimal.NewFromInt(50), decimal.NewFromInt(100), "refund")
	if err != nil {
		t.Fatalf("ReverseCommission failed: %v", err)
	}
	if rev.Outcome != ReversalApplied {
		t.Fatalf("expected reversed, got %s", rev.Outcome)
	}
	if !rev.ReverseAmount.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected reverse amount 5, got %s", rev.ReverseAmount)
	}

	var reloaded models.Commission
	if err := db.First(&reloaded, result.Commission.ID).Error; err != nil {
		t.Fatalf("failed to reload commission: %v", err)
	}
	if reloaded.Status != models.CommissionStatusReversed {
		t.Errorf("expected reversed status, got %s", reloaded.Status)
	}
	if reloaded.ReversedAt == nil {
		t.Error("expected reversed_at to be set")
	}

	var reloadedLink models.Link
	if err := db.First(&reloadedLink, link.ID).Error; err != nil {
		t.Fatalf("failed to reload link: %v", err)
	}
	if reloadedLink.Conversions != 1 {
		t.Errorf("partial refund should keep the conversion, got %d", reloadedLink.Conversions)
	}
	if !reloadedLink.Revenue.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected link revenue 50 after refund, got %s", reloadedLink.Revenue)
	}
}

func TestReverseCommissionFull(t *testing.T) {
	db := setupTestDB(t, "reversal_full")
	commissions := NewCommissionService(db, nil)
	reversals := NewReversalService(db)

	affiliate := createAffiliate(t, db, "full@example.com", ratePtr(10))
	link := createLink(t, db, affiliate.ID, "full-link", nil)

	if _, err := commissions.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		LinkID:      &link.ID,
		SaleAmount:  decimal.NewFromInt(100),
		UniqueID:    "sess_full",
		ChargeID:    "ch_full",
	}); err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}

	rev, err := reversals.ReverseCommission("ch_full",
		decimal.NewFromInt(100), decimal.NewFromInt(100), "dispute")
	if err != nil {
		t.Fatalf("ReverseCommission failed: %v", err)
	}
	if rev.Outcome != ReversalApplied {
		t.Fatalf("expected reversed, got %s", rev.Outcome)
	}
	if !rev.ReverseAmount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected reverse amount 10, got %s", rev.ReverseAmount)
	}

	var reloadedLink models.Link
	if err := db.First(&reloadedLink, link.ID).Error; err != nil {
		t.Fatalf("failed to reload link: %v", err)
	}
	if reloadedLink.Conversions != 0 {
		t.Errorf("full refund should remove the conversion, got %d", reloadedLink.Conversions)
	}
	if !reloadedLink.Revenue.Equal(decimal.Zero) {
		t.Errorf("expected link revenue 0 after full refund, got %s", reloadedLink.Revenue)
	}
}

func TestReverseCommissionIdempotent(t *testing.T) {
	db := setupTestDB(t, "reversal_idempotent")
	commissions := NewCommissionService(db, nil)
	reversals := NewReversalService(db)

	affiliate := createAffiliate(t, db, "repeat@example.com", ratePtr(10))
	link := createLink(t, db, affiliate.ID, "repeat-link", nil)

	if _, err := commissions.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		LinkID:      &link.ID,
		SaleAmount:  decimal.NewFromInt(100),
		UniqueID:    "sess_repeat",
		ChargeID:    "ch_repeat",
	}); err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}

	if _, err := reversals.ReverseCommission("ch_repeat",
		decimal.NewFromInt(100), decimal.NewFromInt(100), "refund"); err != nil {
		t.Fatalf("first reversal failed: %v", err)
	}

	// Replayed refund webhook: no second decrement.
	rev, err := reversals.ReverseCommission("ch_repeat",
		decimal.NewFromInt(100), decimal.NewFromInt(100), "refund")
	if err != nil {
		t.Fatalf("second reversal failed: %v", err)
	}
	if rev.Outcome != ReversalAlreadyReversed {
		t.Fatalf("expected already_reversed, got %s", rev.Outcome)
	}

	var reloadedLink models.Link
	if err := db.First(&reloadedLink, link.ID).Error; err != nil {
		t.Fatalf("failed to reload link: %v", err)
	}
	if reloadedLink.Conversions != 0 {
		t.Errorf("expected conversions decremented exactly once, got %d", reloadedLink.Conversions)
	}
	if !reloadedLink.Revenue.Equal(decimal.Zero) {
		t.Errorf("expected revenue decremented exactly once, got %s", reloadedLink.Revenue)
	}
}

func TestReverseCommissionUnknownCharge(t *testing.T) {
	db := setupTestDB(t, "reversal_unknown")
	reversals := NewReversalService(db)

	rev, err := reversals.ReverseCommission("ch_missing",
		decimal.NewFromInt(10), decimal.NewFromInt(10), "refund")
	if err != nil {
		t.Fatalf("ReverseCommission failed: %v", err)
	}
	if rev.Outcome != ReversalNotFound {
		t.Errorf("expected commission_not_found, got %s", rev.Outcome)
	}
}

func TestReverseCommissionBySessionFallback(t *testing.T) {
	db := setupTestDB(t, "reversal_fallback")
	commissions := NewCommissionService(db, nil)
	reversals := NewReversalService(db)

	affiliate := createAffiliate(t, db, "fallback@example.com", ratePtr(10))

	// No charge id recorded; the reversal matches the charge reference
	// embedded in the idempotency key.
	if _, err := commissions.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		SaleAmount:  decimal.NewFromInt(80),
		UniqueID:    "sess_ch_embed_1",
	}); err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}

	rev, err := reversals.ReverseCommission("ch_embed_1",
		decimal.NewFromInt(80), decimal.NewFromInt(80), "refund")
	if err != nil {
		t.Fatalf("ReverseCommission failed: %v", err)
	}
	if rev.Outcome != ReversalApplied {
		t.Errorf("expected reversed via session fallback, got %s", rev.Outcome)
	}
}

func TestReverseCommissionDecrementsTodayBucket(t *testing.T) {
	db := setupTestDB(t, "reversal_today")
	commissions := NewCommissionService(db, nil)
	reversals := NewReversalService(db)

	affiliate := createAffiliate(t, db, "today@example.com", ratePtr(10))

	if _, err := commissions.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		SaleAmount:  decimal.NewFromInt(100),
		UniqueID:    "sess_today",
		ChargeID:    "ch_today",
	}); err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}

	// Age the sale's rollup to yesterday so the two postings separate.
	yesterday := bucketDate(time.Now().AddDate(0, 0, -1))
	if err := db.Model(&models.Analytics{}).
		Where("affiliate_id = ?", affiliate.ID).
		Update("date", yesterday).Error; err != nil {
		t.Fatalf("failed to age rollup: %v", err)
	}

	if _, err := reversals.ReverseCommission("ch_today",
		decimal.NewFromInt(100), decimal.NewFromInt(100), "refund"); err != nil {
		t.Fatalf("ReverseCommission failed: %v", err)
	}

	// The decrement lands in today's bucket, not the sale's original day.
	var todayBucket models.Analytics
	err := db.Where("affiliate_id = ? AND date = ?", affiliate.ID, bucketDate(time.Now())).
		First(&todayBucket).Error
	if err != nil {
		t.Fatalf("expected a rollup row for today: %v", err)
	}
	if todayBucket.Conversions != -1 {
		t.Errorf("expected today's conversions -1, got %d", todayBucket.Conversions)
	}
	if !todayBucket.Revenue.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("expected today's revenue -100, got %s", todayBucket.Revenue)
	}

	var saleBucket models.Analytics
	if err := db.Where("affiliate_id = ? AND date = ?", affiliate.ID, yesterday).
		First(&saleBucket).Error; err != nil {
		t.Fatalf("failed to load sale-day rollup: %v", err)
	}
	if saleBucket.Conversions != 1 {
		t.Errorf("sale-day bucket should be untouched, got conversions %d", saleBucket.Conversions)
	}
}
