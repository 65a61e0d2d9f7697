package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"learnhub/internal/models"
	"learnhub/internal/worker"
)

const testDailyCap = 300

func setupTestDB(t *testing.T) *gorm.DB {
	// :memory: is unique per connection; cache=shared keeps one database
	// across the pooled connections gorm opens.
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Account{},
		&models.XPAward{},
		&models.XPActivity{},
		&models.Course{},
		&models.CourseCompletion{},
		&models.Bounty{},
		&models.BountySubmission{},
		&models.Post{},
		&models.Reaction{},
		&models.AdminUser{},
		&models.AdminLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	cleanTables(db)
	return db
}

func cleanTables(db *gorm.DB) {
	for _, table := range []string{
		"admin_logs", "admin_users", "reactions", "posts",
		"bounty_submissions", "bounties", "course_completions", "courses",
		"xp_activities", "xp_awards", "accounts",
	} {
		db.Exec("DELETE FROM " + table)
	}
}

func newTestPool(t *testing.T, db *gorm.DB) *worker.Pool {
	t.Helper()
	pool := worker.NewPool(1, 16, db)
	pool.Start()
	return pool
}

func drainTestPool(t *testing.T, pool *worker.Pool) {
	t.Helper()
	if err := pool.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("pool shutdown: %v", err)
	}
}

func TestAwardCreatesAccountAndGrantsXP(t *testing.T) {
	db := setupTestDB(t)
	service := NewXPService(db, testDailyCap)

	result, err := service.Award(context.Background(), AwardInput{
		WalletAddress: "wallet_a",
		SourceType:    models.XPSourceCourse,
		SourceRef:     "course-1",
		Amount:        100,
		Reason:        "completed course",
	})
	if err != nil {
		t.Fatalf("Award failed: %v", err)
	}

	if result.Granted != 100 {
		t.Errorf("expected granted 100, got %d", result.Granted)
	}
	if result.NewTotalXP != 100 {
		t.Errorf("expected total 100, got %d", result.NewTotalXP)
	}
	if result.Level != 1 {
		t.Errorf("expected level 1, got %d", result.Level)
	}
	if result.AlreadyAwarded {
		t.Error("first award reported as already awarded")
	}

	var account models.Account
	if err := db.Where("wallet_address = ?", "wallet_a").First(&account).Error; err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if account.TotalXP != 100 {
		t.Errorf("persisted total: expected 100, got %d", account.TotalXP)
	}
}

func TestAwardIdempotency(t *testing.T) {
	db := setupTestDB(t)
	service := NewXPService(db, testDailyCap)
	ctx := context.Background()

	in := AwardInput{
		WalletAddress: "wallet_a",
		SourceType:    models.XPSourceCourse,
		SourceRef:     "course-1",
		Amount:        100,
	}

	first, err := service.Award(ctx, in)
	if err != nil {
		t.Fatalf("first Award failed: %v", err)
	}

	second, err := service.Award(ctx, in)
	if err != nil {
		t.Fatalf("repeat Award failed: %v", err)
	}
	if !second.AlreadyAwarded {
		t.Error("repeat award not flagged as already awarded")
	}
	if second.Granted != first.Granted {
		t.Errorf("repeat should report original grant %d, got %d", first.Granted, second.Granted)
	}

	var account models.Account
	db.Where("wallet_address = ?", "wallet_a").First(&account)
	if account.TotalXP != 100 {
		t.Errorf("total changed on repeat: expected 100, got %d", account.TotalXP)
	}

	var awards int64
	db.Model(&models.XPAward{}).Count(&awards)
	if awards != 1 {
		t.Errorf("expected 1 award row, got %d", awards)
	}
}

func TestDailyCapTruncation(t *testing.T) {
	db := setupTestDB(t)
	service := NewXPService(db, testDailyCap)
	ctx := context.Background()

	award := func(ref string, amount int) *AwardResult {
		t.Helper()
		result, err := service.Award(ctx, AwardInput{
			WalletAddress: "wallet_a",
			SourceType:    models.XPSourceBounty,
			SourceRef:     ref,
			Amount:        amount,
		})
		if err != nil {
			t.Fatalf("Award(%s) failed: %v", ref, err)
		}
		return result
	}

	if r := award("b1", 280); r.Granted != 280 {
		t.Errorf("expected 280 granted, got %d", r.Granted)
	}

	// 50 requested with 20 of headroom left
	if r := award("b2", 50); r.Granted != 20 {
		t.Errorf("expected truncation to 20, got %d", r.Granted)
	}

	// Cap reached: still a success, with zero granted
	r := award("b3", 10)
	if r.Granted != 0 {
		t.Errorf("expected 0 granted at cap, got %d", r.Granted)
	}
	if r.AlreadyAwarded {
		t.Error("zero grant flagged as already awarded")
	}

	earned, err := service.EarnedToday(ctx, "wallet_a")
	if err != nil {
		t.Fatalf("EarnedToday failed: %v", err)
	}
	if earned != testDailyCap {
		t.Errorf("expected earned today %d, got %d", testDailyCap, earned)
	}

	// Zero-grant attempts still count as consumed references
	if r := award("b3", 10); !r.AlreadyAwarded {
		t.Error("repeat of zero grant not flagged as already awarded")
	}
}

func TestAwardValidation(t *testing.T) {
	db := setupTestDB(t)
	service := NewXPService(db, testDailyCap)
	ctx := context.Background()

	cases := []struct {
		name string
		in   AwardInput
		want error
	}{
		{"missing wallet", AwardInput{SourceType: models.XPSourceCourse, SourceRef: "r", Amount: 10}, ErrInvalidWallet},
		{"zero amount", AwardInput{WalletAddress: "w", SourceType: models.XPSourceCourse, SourceRef: "r"}, ErrInvalidAmount},
		{"negative amount", AwardInput{WalletAddress: "w", SourceType: models.XPSourceCourse, SourceRef: "r", Amount: -5}, ErrInvalidAmount},
		{"bad source", AwardInput{WalletAddress: "w", SourceType: "NOPE", SourceRef: "r", Amount: 10}, ErrInvalidSource},
		{"missing ref", AwardInput{WalletAddress: "w", SourceType: models.XPSourceCourse, Amount: 10}, ErrInvalidSourceRef},
	}

	for _, tc := range cases {
		if _, err := service.Award(ctx, tc.in); err != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	var accounts int64
	db.Model(&models.Account{}).Count(&accounts)
	if accounts != 0 {
		t.Errorf("invalid awards created %d accounts", accounts)
	}
}

func TestAwardLevelUp(t *testing.T) {
	db := setupTestDB(t)
	service := NewXPService(db, testDailyCap)

	db.Create(&models.Account{WalletAddress: "wallet_a", TotalXP: 950, Level: 1})

	result, err := service.Award(context.Background(), AwardInput{
		WalletAddress: "wallet_a",
		SourceType:    models.XPSourceCourse,
		SourceRef:     "course-1",
		Amount:        100,
	})
	if err != nil {
		t.Fatalf("Award failed: %v", err)
	}

	if !result.LeveledUp {
		t.Error("crossing 1000 XP did not report a level up")
	}
	if result.Level != 2 {
		t.Errorf("expected level 2, got %d", result.Level)
	}
	if result.NewTotalXP != 1050 {
		t.Errorf("expected total 1050, got %d", result.NewTotalXP)
	}
}

func TestConcurrentDuplicateAwards(t *testing.T) {
	db := setupTestDB(t)
	service := NewXPService(db, testDailyCap)
	ctx := context.Background()

	const attempts = 10
	results := make([]*AwardResult, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.Award(ctx, AwardInput{
				WalletAddress: "wallet_a",
				SourceType:    models.XPSourceBounty,
				SourceRef:     "bounty-1",
				Amount:        150,
			})
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			t.Fatalf("attempt %d failed: %v", i, errs[i])
		}
		if !results[i].AlreadyAwarded {
			fresh++
		}
	}
	if fresh != 1 {
		t.Errorf("expected exactly 1 fresh award, got %d", fresh)
	}

	var account models.Account
	db.Where("wallet_address = ?", "wallet_a").First(&account)
	if account.TotalXP != 150 {
		t.Errorf("expected total 150 after concurrent duplicates, got %d", account.TotalXP)
	}
}

func TestConcurrentAwardsRespectDailyCap(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Two service instances over one database model two replicas: no
	// process-local state may be what keeps the cap intact.
	first := NewXPService(db, testDailyCap)
	second := NewXPService(db, testDailyCap)

	if _, err := first.Award(ctx, AwardInput{
		WalletAddress: "wallet_a",
		SourceType:    models.XPSourceCourse,
		SourceRef:     "course-1",
		Amount:        280,
	}); err != nil {
		t.Fatalf("setup award failed: %v", err)
	}

	instances := []*XPService{first, second}
	results := make([]*AwardResult, len(instances))
	errs := make([]error, len(instances))

	var wg sync.WaitGroup
	for i, svc := range instances {
		wg.Add(1)
		go func(i int, svc *XPService) {
			defer wg.Done()
			results[i], errs[i] = svc.Award(ctx, AwardInput{
				WalletAddress: "wallet_a",
				SourceType:    models.XPSourceBounty,
				SourceRef:     fmt.Sprintf("bounty-%d", i),
				Amount:        50,
			})
		}(i, svc)
	}
	wg.Wait()

	granted := 0
	for i := range instances {
		if errs[i] != nil {
			t.Fatalf("award %d failed: %v", i, errs[i])
		}
		granted += results[i].Granted
	}
	if granted != 20 {
		t.Errorf("expected 20 XP granted across both instances, got %d", granted)
	}

	earned, err := first.EarnedToday(ctx, "wallet_a")
	if err != nil {
		t.Fatalf("EarnedToday failed: %v", err)
	}
	if earned != testDailyCap {
		t.Errorf("expected earned-today at the cap (%d), got %d", testDailyCap, earned)
	}

	var account models.Account
	db.Where("wallet_address = ?", "wallet_a").First(&account)
	if account.TotalXP != testDailyCap {
		t.Errorf("expected total %d, got %d", testDailyCap, account.TotalXP)
	}
}

func TestDailyClaimOncePerDay(t *testing.T) {
	db := setupTestDB(t)
	service := NewXPService(db, testDailyCap)
	ctx := context.Background()

	first, err := service.DailyClaim(ctx, "wallet_a", 10)
	if err != nil {
		t.Fatalf("DailyClaim failed: %v", err)
	}
	if first.Granted != 10 || first.AlreadyAwarded {
		t.Errorf("unexpected first claim: %+v", first)
	}

	second, err := service.DailyClaim(ctx, "wallet_a", 10)
	if err != nil {
		t.Fatalf("second DailyClaim failed: %v", err)
	}
	if !second.AlreadyAwarded {
		t.Error("second claim on the same day not flagged")
	}

	var account models.Account
	db.Where("wallet_address = ?", "wallet_a").First(&account)
	if account.TotalXP != 10 {
		t.Errorf("expected total 10, got %d", account.TotalXP)
	}
}

func TestRecentActivitiesOrdering(t *testing.T) {
	db := setupTestDB(t)
	pool := newTestPool(t, db)
	service := NewXPService(db, testDailyCap).WithActivityPool(pool)
	ctx := context.Background()

	for _, ref := range []string{"c1", "c2", "c3"} {
		if _, err := service.Award(ctx, AwardInput{
			WalletAddress: "wallet_a",
			SourceType:    models.XPSourceCourse,
			SourceRef:     ref,
			Amount:        10,
		}); err != nil {
			t.Fatalf("Award(%s) failed: %v", ref, err)
		}
	}

	drainTestPool(t, pool)

	activities, err := service.RecentActivities(ctx, "wallet_a", 2)
	if err != nil {
		t.Fatalf("RecentActivities failed: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(activities))
	}
	for _, a := range activities {
		if a.WalletAddress != "wallet_a" {
			t.Errorf("unexpected wallet in activity: %s", a.WalletAddress)
		}
	}
}
