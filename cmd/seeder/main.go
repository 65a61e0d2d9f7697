package main

import (
	"context"
	"crypto/rand"
	"log"
	mrand "math/rand"
	"time"

	"github.com/mr-tron/base58"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/clause"

	"learnhub/internal/config"
	"learnhub/internal/database"
	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/utils"
	"learnhub/internal/xp"
)

const (
	totalAccounts = 500
	batchSize     = 100
	maxXP         = 25000
)

var squads = []string{"ALPHA", "BRAVO", "CIPHER", "DELTA", ""}

func main() {
	log.Println("🌱 Starting LearnHub seeder...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cache := repository.NewLeaderboardCache(redisClient)

	ctx := context.Background()
	if err := cache.Ping(ctx); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Connected to Redis")

	log.Printf("🌱 Generating %d accounts...", totalAccounts)
	accounts := generateAccounts(totalAccounts)

	log.Println("📦 Inserting accounts into PostgreSQL...")
	start := time.Now()
	err = database.GetDB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoNothing: true,
	}).CreateInBatches(&accounts, batchSize).Error
	if err != nil {
		log.Fatalf("Failed to seed accounts: %v", err)
	}
	log.Printf("   ✓ Inserted %d accounts in %v", len(accounts), time.Since(start))

	log.Println("⚡ Populating Redis leaderboard...")
	start = time.Now()
	if err := cache.Rebuild(ctx, accounts); err != nil {
		log.Fatalf("Failed to seed Redis: %v", err)
	}
	log.Printf("   ✓ Populated Redis in %v", time.Since(start))

	total, err := cache.TotalAccounts(ctx)
	if err != nil {
		log.Fatalf("Failed to verify Redis: %v", err)
	}

	log.Println("✅ Seeding completed successfully!")
	log.Printf("   - PostgreSQL: %d accounts", len(accounts))
	log.Printf("   - Redis: %d accounts", total)

	log.Println("\n📊 Top 10:")
	top, err := cache.TopEntries(ctx, 0, 10)
	if err != nil {
		log.Fatalf("Failed to read top entries: %v", err)
	}
	for _, entry := range top {
		log.Printf("   %d. %s (%s) - %d XP, level %d",
			entry.Rank, entry.DisplayName, entry.WalletAddress, entry.TotalXP, entry.Level)
	}

	cache.Close()
	log.Println("\n🎉 Seeder finished!")
}

// generateAccounts creates demo accounts with random XP totals
func generateAccounts(count int) []models.Account {
	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	accounts := make([]models.Account, count)

	for i := 0; i < count; i++ {
		displayName, err := utils.GenerateDisplayName()
		if err != nil {
			log.Fatalf("Failed to generate display name: %v", err)
		}

		totalXP := rng.Intn(maxXP + 1)
		accounts[i] = models.Account{
			WalletAddress: randomWallet(),
			DisplayName:   displayName,
			TotalXP:       totalXP,
			Level:         xp.Level(totalXP),
			Squad:         squads[rng.Intn(len(squads))],
		}
	}

	return accounts
}

// randomWallet returns a base58 string shaped like a Solana public key
func randomWallet() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate wallet: %v", err)
	}
	return base58.Encode(buf)
}
