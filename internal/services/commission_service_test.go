package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"affiliate-platform/internal/models"
)

func TestProcessCommissionIdempotency(t *testing.T) {
	db := setupTestDB(t, "commission_idempotency")
	service := NewCommissionService(db, nil)

	affiliate := createAffiliate(t, db, "idem@example.com", ratePtr(10))

	input := CommissionInput{
		AffiliateID: affiliate.ID,
		SaleAmount:  decimal.NewFromInt(100),
		UniqueID:    "sess_1",
	}

	first, err := service.ProcessCommission(input)
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	if first.Status != CommissionCreated {
		t.Fatalf("expected created, got %s", first.Status)
	}
	if !first.Commission.Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected amount 10, got %s", first.Commission.Amount)
	}
	if !first.Commission.RateUsed.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected rate 10, got %s", first.Commission.RateUsed)
	}

	// Same idempotency key: no new row, no aggregate change, existing
	// commission returned.
	second, err := service.ProcessCommission(input)
	if err != nil {
		t.Fatalf("duplicate ProcessCommission failed: %v", err)
	}
	if second.Status != CommissionSkippedDuplicate {
		t.Fatalf("expected skipped_duplicate, got %s", second.Status)
	}
	if second.Commission.ID != first.Commission.ID {
		t.Errorf("expected existing commission %d, got %d", first.Commission.ID, second.Commission.ID)
	}

	var count int64
	db.Model(&models.Commission{}).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one commission, got %d", count)
	}

	var rollup models.Analytics
	if err := db.Where("affiliate_id = ?", affiliate.ID).First(&rollup).Error; err != nil {
		t.Fatalf("failed to load analytics: %v", err)
	}
	if rollup.Conversions != 1 {
		t.Errorf("expected conversions counted once, got %d", rollup.Conversions)
	}
	if !rollup.Revenue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected revenue 100, got %s", rollup.Revenue)
	}
}

func TestProcessCommissionRatePrecedence(t *testing.T) {
	db := setupTestDB(t, "commission_rates")
	service := NewCommissionService(db, nil)

	// Link override beats affiliate rate.
	affiliate := createAffiliate(t, db, "override@example.com", ratePtr(10))
	link := createLink(t, db, affiliate.ID, "override-link", ratePtr(20))

	result, err := service.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		LinkID:      &link.ID,
		SaleAmount:  decimal.NewFromInt(50),
		UniqueID:    "sess_override",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	if !result.Commission.Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("link override: expected amount 10, got %s", result.Commission.Amount)
	}
	if !result.Commission.RateUsed.Equal(decimal.NewFromInt(20)) {
		t.Errorf("link override: expected rate 20, got %s", result.Commission.RateUsed)
	}

	// Affiliate rate when the link carries no override.
	affiliate2 := createAffiliate(t, db, "affrate@example.com", ratePtr(15))
	link2 := createLink(t, db, affiliate2.ID, "plain-link", nil)

	result, err = service.ProcessCommission(CommissionInput{
		AffiliateID: affiliate2.ID,
		LinkID:      &link2.ID,
		SaleAmount:  decimal.NewFromInt(200),
		UniqueID:    "sess_affrate",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	if !result.Commission.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("affiliate rate: expected amount 30, got %s", result.Commission.Amount)
	}
	if !result.Commission.RateUsed.Equal(decimal.NewFromInt(15)) {
		t.Errorf("affiliate rate: expected rate 15, got %s", result.Commission.RateUsed)
	}

	// Global default when neither is set.
	affiliate3 := createAffiliate(t, db, "default@example.com", nil)

	result, err = service.ProcessCommission(CommissionInput{
		AffiliateID: affiliate3.ID,
		SaleAmount:  decimal.NewFromInt(40),
		UniqueID:    "sess_default",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	if !result.Commission.Amount.Equal(decimal.NewFromInt(4)) {
		t.Errorf("default rate: expected amount 4, got %s", result.Commission.Amount)
	}
	if !result.Commission.RateUsed.Equal(decimal.NewFromInt(10)) {
		t.Errorf("default rate: expected rate 10, got %s", result.Commission.RateUsed)
	}
}

func TestProcessCommissionRounding(t *testing.T) {
	db := setupTestDB(t, "commission_rounding")
	service := NewCommissionService(db, nil)

	affiliate := createAffiliate(t, db, "round@example.com", ratePtr(15))

	result, err := service.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		SaleAmount:  decimal.RequireFromString("33.33"),
		UniqueID:    "sess_round",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	// 33.33 * 0.15 = 4.9995 -> 5.00
	if !result.Commission.Amount.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("expected amount 5.00, got %s", result.Commission.Amount)
	}
}

func TestProcessCommissionValidation(t *testing.T) {
	db := setupTestDB(t, "commission_validation")
	service := NewCommissionService(db, nil)

	_, err := service.ProcessCommission(CommissionInput{
		AffiliateID: 999,
		SaleAmount:  decimal.NewFromInt(100),
	})
	if err != ErrAffiliateNotFound {
		t.Errorf("expected ErrAffiliateNotFound, got %v", err)
	}

	affiliate := createAffiliate(t, db, "valid@example.com", nil)
	_, err = service.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		SaleAmount:  decimal.Zero,
	})
	if err != ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	// An unknown link degrades to a no-link commission rather than failing.
	badLink := uint(12345)
	result, err := service.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		LinkID:      &badLink,
		SaleAmount:  decimal.NewFromInt(10),
		UniqueID:    "sess_nolink",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	if result.Commission.LinkID != nil {
		t.Error("expected commission without link context")
	}
}

func TestApproveCommission(t *testing.T) {
	db := setupTestDB(t, "commission_approve")
	service := NewCommissionService(db, nil)

	affiliate := createAffiliate(t, db, "approve@example.com", nil)
	admin := createAdmin(t, db, "admin-approve@example.com")

	result, err := service.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		SaleAmount:  decimal.NewFromInt(100),
		UniqueID:    "sess_approve",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	id := result.Commission.ID

	if _, err := service.ApproveCommission(id, affiliate); err != ErrUnauthorized {
		t.Errorf("non-admin approval: expected ErrUnauthorized, got %v", err)
	}

	approved, err := service.ApproveCommission(id, admin)
	if err != nil {
		t.Fatalf("ApproveCommission failed: %v", err)
	}
	if approved.Status != models.CommissionStatusApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}

	// Approving again is a no-op.
	if _, err := service.ApproveCommission(id, admin); err != nil {
		t.Errorf("repeat approval should be idempotent, got %v", err)
	}

	// A reversed commission cannot be approved.
	db.Model(&models.Commission{}).Where("id = ?", id).
		Update("status", models.CommissionStatusReversed)
	if _, err := service.ApproveCommission(id, admin); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}
