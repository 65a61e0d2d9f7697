package services

import (
	"context"
	"testing"
	"time"

	"learnhub/internal/models"
)

func TestCompetitionRankingWithTies(t *testing.T) {
	db := setupTestDB(t)
	service := NewLeaderboardService(db)

	// Totals [500, 500, 300, 100] must rank [1, 1, 3, 4]
	for _, a := range []models.Account{
		{WalletAddress: "wallet_a", TotalXP: 500, Level: 1},
		{WalletAddress: "wallet_b", TotalXP: 500, Level: 1},
		{WalletAddress: "wallet_c", TotalXP: 300, Level: 1},
		{WalletAddress: "wallet_d", TotalXP: 100, Level: 1},
	} {
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	page, err := service.Rank(context.Background(), LeaderboardScope{}, 0, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	if page.Total != 4 {
		t.Errorf("expected total 4, got %d", page.Total)
	}
	wantRanks := []int{1, 1, 3, 4}
	if len(page.Data) != len(wantRanks) {
		t.Fatalf("expected %d entries, got %d", len(wantRanks), len(page.Data))
	}
	for i, want := range wantRanks {
		if page.Data[i].Rank != want {
			t.Errorf("entry %d: expected rank %d, got %d", i, want, page.Data[i].Rank)
		}
	}
}

func TestRankingPaginationAcrossTieBoundary(t *testing.T) {
	db := setupTestDB(t)
	service := NewLeaderboardService(db)

	for _, a := range []models.Account{
		{WalletAddress: "wallet_a", TotalXP: 500, Level: 1},
		{WalletAddress: "wallet_b", TotalXP: 500, Level: 1},
		{WalletAddress: "wallet_c", TotalXP: 300, Level: 1},
		{WalletAddress: "wallet_d", TotalXP: 100, Level: 1},
	} {
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	// A page starting inside the tie must still report the shared rank
	page, err := service.Rank(context.Background(), LeaderboardScope{}, 1, 2)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page.Data))
	}
	if page.Data[0].Rank != 1 {
		t.Errorf("second tied entry: expected rank 1, got %d", page.Data[0].Rank)
	}
	if page.Data[1].Rank != 3 {
		t.Errorf("entry after tie: expected rank 3, got %d", page.Data[1].Rank)
	}
}

func TestLeaderboardSquadFilter(t *testing.T) {
	db := setupTestDB(t)
	service := NewLeaderboardService(db)

	for _, a := range []models.Account{
		{WalletAddress: "wallet_a", TotalXP: 900, Level: 1, Squad: "ALPHA"},
		{WalletAddress: "wallet_b", TotalXP: 700, Level: 1, Squad: "BRAVO"},
		{WalletAddress: "wallet_c", TotalXP: 500, Level: 1, Squad: "ALPHA"},
	} {
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	page, err := service.Rank(context.Background(), LeaderboardScope{Squad: "ALPHA"}, 0, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	if page.Total != 2 {
		t.Errorf("expected 2 squad members, got %d", page.Total)
	}
	// Ranks are relative to the filtered set, so wallet_c is 2nd even
	// though wallet_b outranks it globally
	if len(page.Data) != 2 || page.Data[1].WalletAddress != "wallet_c" || page.Data[1].Rank != 2 {
		t.Errorf("unexpected squad page: %+v", page.Data)
	}
}

func TestLeaderboardTimeframeFilter(t *testing.T) {
	db := setupTestDB(t)
	service := NewLeaderboardService(db)

	for _, a := range []models.Account{
		{WalletAddress: "wallet_a", TotalXP: 900, Level: 1},
		{WalletAddress: "wallet_b", TotalXP: 700, Level: 1},
	} {
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	// Push wallet_a out of the weekly window. UpdateColumn skips the
	// automatic updated_at refresh.
	stale := time.Now().UTC().AddDate(0, 0, -10)
	if err := db.Model(&models.Account{}).
		Where("wallet_address = ?", "wallet_a").
		UpdateColumn("updated_at", stale).Error; err != nil {
		t.Fatalf("failed to age account: %v", err)
	}

	page, err := service.Rank(context.Background(), LeaderboardScope{Timeframe: TimeframeWeekly}, 0, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	if page.Total != 1 {
		t.Fatalf("expected 1 active account, got %d", page.Total)
	}
	if page.Data[0].WalletAddress != "wallet_b" || page.Data[0].Rank != 1 {
		t.Errorf("unexpected weekly page: %+v", page.Data)
	}

	// Monthly still includes the stale account
	page, err = service.Rank(context.Background(), LeaderboardScope{Timeframe: TimeframeMonthly}, 0, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("expected 2 accounts in monthly window, got %d", page.Total)
	}
}

func TestRankOfWithNeighbors(t *testing.T) {
	db := setupTestDB(t)
	service := NewLeaderboardService(db)

	for _, a := range []models.Account{
		{WalletAddress: "wallet_a", TotalXP: 500, Level: 1},
		{WalletAddress: "wallet_b", TotalXP: 400, Level: 1},
		{WalletAddress: "wallet_c", TotalXP: 300, Level: 1},
		{WalletAddress: "wallet_d", TotalXP: 200, Level: 1},
		{WalletAddress: "wallet_e", TotalXP: 100, Level: 1},
	} {
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	detail, err := service.RankOf(context.Background(), "wallet_c", LeaderboardScope{}, 1)
	if err != nil {
		t.Fatalf("RankOf failed: %v", err)
	}

	if detail.Entry.Rank != 3 {
		t.Errorf("expected rank 3, got %d", detail.Entry.Rank)
	}
	if len(detail.Neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(detail.Neighbors))
	}
	if detail.Neighbors[0].WalletAddress != "wallet_b" || detail.Neighbors[1].WalletAddress != "wallet_d" {
		t.Errorf("unexpected neighbors: %+v", detail.Neighbors)
	}
}

func TestRankOfTiedWallets(t *testing.T) {
	db := setupTestDB(t)
	service := NewLeaderboardService(db)

	for _, a := range []models.Account{
		{WalletAddress: "wallet_a", TotalXP: 500, Level: 1},
		{WalletAddress: "wallet_b", TotalXP: 500, Level: 1},
		{WalletAddress: "wallet_c", TotalXP: 300, Level: 1},
	} {
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	for _, wallet := range []string{"wallet_a", "wallet_b"} {
		detail, err := service.RankOf(context.Background(), wallet, LeaderboardScope{}, 2)
		if err != nil {
			t.Fatalf("RankOf(%s) failed: %v", wallet, err)
		}
		if detail.Entry.Rank != 1 {
			t.Errorf("%s: tied wallets must share rank 1, got %d", wallet, detail.Entry.Rank)
		}
	}
}

func TestRankOfOutsideScope(t *testing.T) {
	db := setupTestDB(t)
	service := NewLeaderboardService(db)

	if err := db.Create(&models.Account{WalletAddress: "wallet_a", TotalXP: 500, Level: 1, Squad: "ALPHA"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := service.RankOf(context.Background(), "wallet_a", LeaderboardScope{Squad: "BRAVO"}, 5); err == nil {
		t.Error("expected error for wallet outside the squad scope")
	}

	if _, err := service.RankOf(context.Background(), "wallet_unknown", LeaderboardScope{}, 5); err == nil {
		t.Error("expected error for unknown wallet")
	}
}
