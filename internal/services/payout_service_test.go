package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"affiliate-platform/internal/models"
)

func TestAvailableBalance(t *testing.T) {
	db := setupTestDB(t, "balance")
	commissions := NewCommissionService(db, nil)
	balance := NewBalanceService(db)
	payouts := NewPayoutService(db, balance, nil)

	affiliate := createAffiliate(t, db, "balance@example.com", ratePtr(10))
	admin := createAdmin(t, db, "admin-balance@example.com")

	// Two sales of 100 at 10%, one left pending.
	for _, id := range []string{"sess_b1", "sess_b2", "sess_b3"} {
		if _, err := commissions.ProcessCommission(CommissionInput{
			AffiliateID: affiliate.ID,
			SaleAmount:  decimal.NewFromInt(100),
			UniqueID:    id,
		}); err != nil {
			t.Fatalf("ProcessCommission failed: %v", err)
		}
	}
	list, _ := commissions.ListCommissions(affiliate.ID, false)
	for _, c := range list[:2] {
		if _, err := commissions.ApproveCommission(c.ID, admin); err != nil {
			t.Fatalf("ApproveCommission failed: %v", err)
		}
	}

	// Pending commissions do not count: 2 x 10 approved = 20.
	available, err := balance.AvailableBalance(affiliate.ID)
	if err != nil {
		t.Fatalf("AvailableBalance failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected balance 20, got %s", available)
	}

	// A pending payout reduces the balance immediately.
	payout, err := payouts.RequestPayout(affiliate, decimal.NewFromInt(15), "")
	if err != nil {
		t.Fatalf("RequestPayout failed: %v", err)
	}
	if payout.Method != "Bank Transfer" {
		t.Errorf("expected default method, got %s", payout.Method)
	}

	available, err = balance.AvailableBalance(affiliate.ID)
	if err != nil {
		t.Fatalf("AvailableBalance failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected balance 5 after payout request, got %s", available)
	}

	// A rejected payout returns the funds on the next read.
	if _, err := payouts.SetPayoutStatus(payout.ID, models.PayoutStatusRejected, admin); err != nil {
		t.Fatalf("SetPayoutStatus failed: %v", err)
	}
	available, err = balance.AvailableBalance(affiliate.ID)
	if err != nil {
		t.Fatalf("AvailableBalance failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected balance restored to 20, got %s", available)
	}
}

func TestRequestPayoutOverdraw(t *testing.T) {
	db := setupTestDB(t, "payout_overdraw")
	commissions := NewCommissionService(db, nil)
	balance := NewBalanceService(db)
	payouts := NewPayoutService(db, balance, nil)

	affiliate := createAffiliate(t, db, "overdraw@example.com", ratePtr(10))
	admin := createAdmin(t, db, "admin-overdraw@example.com")

	result, err := commissions.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		SaleAmount:  decimal.NewFromInt(100),
		UniqueID:    "sess_overdraw",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	if _, err := commissions.ApproveCommission(result.Commission.ID, admin); err != nil {
		t.Fatalf("ApproveCommission failed: %v", err)
	}

	// Balance is exactly 10.00: a cent over is refused, the exact amount
	// succeeds.
	_, err = payouts.RequestPayout(affiliate, decimal.RequireFromString("10.01"), "")
	if err != ErrInsufficientBalance {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if _, err := payouts.RequestPayout(affiliate, decimal.NewFromInt(10), ""); err != nil {
		t.Errorf("exact-balance payout should succeed, got %v", err)
	}

	if _, err := payouts.RequestPayout(affiliate, decimal.Zero, ""); err != ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount for zero, got %v", err)
	}
}

func TestSetPayoutStatusTransitions(t *testing.T) {
	db := setupTestDB(t, "payout_transitions")
	commissions := NewCommissionService(db, nil)
	balance := NewBalanceService(db)
	payouts := NewPayoutService(db, balance, nil)

	affiliate := createAffiliate(t, db, "transitions@example.com", ratePtr(10))
	admin := createAdmin(t, db, "admin-transitions@example.com")

	result, err := commissions.ProcessCommission(CommissionInput{
		AffiliateID: affiliate.ID,
		SaleAmount:  decimal.NewFromInt(500),
		UniqueID:    "sess_transitions",
	})
	if err != nil {
		t.Fatalf("ProcessCommission failed: %v", err)
	}
	if _, err := commissions.ApproveCommission(result.Commission.ID, admin); err != nil {
		t.Fatalf("ApproveCommission failed: %v", err)
	}

	payout, err := payouts.RequestPayout(affiliate, decimal.NewFromInt(50), "PayPal")
	if err != nil {
		t.Fatalf("RequestPayout failed: %v", err)
	}

	// Only admins drive the state machine.
	if _, err := payouts.SetPayoutStatus(payout.ID, models.PayoutStatusCompleted, affiliate); err != ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	// Only terminal targets are legal.
	if _, err := payouts.SetPayoutStatus(payout.ID, models.PayoutStatusPending, admin); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition for pending target, got %v", err)
	}

	updated, err := payouts.SetPayoutStatus(payout.ID, models.PayoutStatusCompleted, admin)
	if err != nil {
		t.Fatalf("SetPayoutStatus failed: %v", err)
	}
	if updated.Status != models.PayoutStatusCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}

	// Terminal payouts are frozen.
	if _, err := payouts.SetPayoutStatus(payout.ID, models.PayoutStatusRejected, admin); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition on terminal payout, got %v", err)
	}

	if _, err := payouts.SetPayoutStatus(9999, models.PayoutStatusCompleted, admin); err != ErrPayoutNotFound {
		t.Errorf("expected ErrPayoutNotFound, got %v", err)
	}
}
