package database

import (
	"fmt"
	"log"

	"learnhub/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	// Engine models first: everything else references accounts by wallet
	engineModels := []interface{}{
		&models.Account{},
		&models.XPAward{},
		&models.XPActivity{},
	}

	for _, model := range engineModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	// Platform models
	platformModels := []interface{}{
		&models.Course{},
		&models.CourseCompletion{},
		&models.Bounty{},
		&models.BountySubmission{},
		&models.Post{},
		&models.Reaction{},
	}

	for _, model := range platformModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	// Admin models
	adminModels := []interface{}{
		&models.AdminUser{},
		&models.AdminLog{},
	}

	for _, model := range adminModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
