package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"learnhub/internal/models"
)

func TestBountyApprovalAwardsXP(t *testing.T) {
	db := setupTestDB(t)
	xpService := NewXPService(db, testDailyCap)
	service := NewBountyService(db, xpService)
	ctx := context.Background()

	bounty, err := service.CreateBounty(ctx, "Build a dApp", "ship it", 200, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("CreateBounty failed: %v", err)
	}

	submission, err := service.Submit(ctx, "wallet_a", bounty.ID, "https://github.com/example/dapp")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if submission.Status != models.SubmissionStatusPending {
		t.Errorf("expected PENDING, got %s", submission.Status)
	}

	result, err := service.ReviewSubmission(ctx, "admin_wallet", submission.ID, true)
	if err != nil {
		t.Fatalf("ReviewSubmission failed: %v", err)
	}
	if result.Granted != 200 {
		t.Errorf("expected 200 XP, got %d", result.Granted)
	}

	var reviewed models.BountySubmission
	db.Where("id = ?", submission.ID).First(&reviewed)
	if reviewed.Status != models.SubmissionStatusApproved {
		t.Errorf("expected APPROVED, got %s", reviewed.Status)
	}
	if reviewed.ReviewedBy != "admin_wallet" || reviewed.ReviewedAt == nil {
		t.Error("review metadata not recorded")
	}

	// A second review attempt must not pay again
	if _, err := service.ReviewSubmission(ctx, "admin_wallet", submission.ID, true); err == nil {
		t.Error("expected error re-reviewing an approved submission")
	}

	var account models.Account
	db.Where("wallet_address = ?", "wallet_a").First(&account)
	if account.TotalXP != 200 {
		t.Errorf("expected total 200, got %d", account.TotalXP)
	}
}

func TestBountyRejectionPaysNothing(t *testing.T) {
	db := setupTestDB(t)
	xpService := NewXPService(db, testDailyCap)
	service := NewBountyService(db, xpService)
	ctx := context.Background()

	bounty, err := service.CreateBounty(ctx, "Write docs", "", 150, decimal.Zero)
	if err != nil {
		t.Fatalf("CreateBounty failed: %v", err)
	}

	submission, err := service.Submit(ctx, "wallet_a", bounty.ID, "https://example.com/docs")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	result, err := service.ReviewSubmission(ctx, "admin_wallet", submission.ID, false)
	if err != nil {
		t.Fatalf("ReviewSubmission failed: %v", err)
	}
	if result != nil {
		t.Errorf("rejection should not produce an award, got %+v", result)
	}

	var accounts int64
	db.Model(&models.Account{}).Count(&accounts)
	if accounts != 0 {
		t.Error("rejection created an account")
	}
}

func TestReviewVerdictCannotBeOverwritten(t *testing.T) {
	db := setupTestDB(t)
	xpService := NewXPService(db, testDailyCap)
	service := NewBountyService(db, xpService)
	ctx := context.Background()

	bounty, err := service.CreateBounty(ctx, "Audit contract", "", 120, decimal.Zero)
	if err != nil {
		t.Fatalf("CreateBounty failed: %v", err)
	}
	submission, err := service.Submit(ctx, "wallet_a", bounty.ID, "https://example.com/audit")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := service.ReviewSubmission(ctx, "admin_one", submission.ID, true); err != nil {
		t.Fatalf("ReviewSubmission failed: %v", err)
	}

	// An opposite verdict after the fact must not flip the stored one
	if _, err := service.ReviewSubmission(ctx, "admin_two", submission.ID, false); err == nil {
		t.Error("expected error rejecting an approved submission")
	}

	var reviewed models.BountySubmission
	db.Where("id = ?", submission.ID).First(&reviewed)
	if reviewed.Status != models.SubmissionStatusApproved {
		t.Errorf("verdict overwritten: expected APPROVED, got %s", reviewed.Status)
	}
	if reviewed.ReviewedBy != "admin_one" {
		t.Errorf("reviewer overwritten: expected admin_one, got %s", reviewed.ReviewedBy)
	}
}

func TestConcurrentReviewsSingleVerdict(t *testing.T) {
	db := setupTestDB(t)
	xpService := NewXPService(db, testDailyCap)
	service := NewBountyService(db, xpService)
	ctx := context.Background()

	bounty, err := service.CreateBounty(ctx, "Race me", "", 100, decimal.Zero)
	if err != nil {
		t.Fatalf("CreateBounty failed: %v", err)
	}
	submission, err := service.Submit(ctx, "wallet_a", bounty.ID, "https://example.com")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Approve and reject race; the status-guarded update lets exactly
	// one verdict land.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, approve := range []bool{true, false} {
		wg.Add(1)
		go func(i int, approve bool) {
			defer wg.Done()
			_, errs[i] = service.ReviewSubmission(ctx, "admin_wallet", submission.ID, approve)
		}(i, approve)
	}
	wg.Wait()

	if (errs[0] == nil) == (errs[1] == nil) {
		t.Fatalf("expected exactly one review to win: approve err=%v reject err=%v", errs[0], errs[1])
	}

	var reviewed models.BountySubmission
	db.Where("id = ?", submission.ID).First(&reviewed)
	want := models.SubmissionStatusRejected
	if errs[0] == nil {
		want = models.SubmissionStatusApproved
	}
	if reviewed.Status != want {
		t.Errorf("stored verdict %s does not match the winning review (%s)", reviewed.Status, want)
	}
}

func TestSubmitToClosedBounty(t *testing.T) {
	db := setupTestDB(t)
	service := NewBountyService(db, NewXPService(db, testDailyCap))
	ctx := context.Background()

	bounty, err := service.CreateBounty(ctx, "Old bounty", "", 100, decimal.Zero)
	if err != nil {
		t.Fatalf("CreateBounty failed: %v", err)
	}
	if err := service.CloseBounty(ctx, bounty.ID); err != nil {
		t.Fatalf("CloseBounty failed: %v", err)
	}

	if _, err := service.Submit(ctx, "wallet_a", bounty.ID, "https://example.com"); err == nil {
		t.Error("expected error submitting to a closed bounty")
	}

	// Closing twice is an error
	if err := service.CloseBounty(ctx, bounty.ID); err == nil {
		t.Error("expected error closing an already closed bounty")
	}

	open, err := service.ListBounties(ctx, models.BountyStatusOpen)
	if err != nil {
		t.Fatalf("ListBounties failed: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("closed bounty still listed as open")
	}
}
