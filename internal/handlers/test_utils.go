package handlers

import (
	"os"
	"testing"

	"gorm.io/gorm"

	"reply-scout/internal/database"
	"reply-scout/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Set test environment variables
	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_PORT", "5432")
	os.Setenv("DB_USER", "postgres")
	os.Setenv("DB_PASSWORD", "")
	os.Setenv("DB_NAME", "reply_scout_test")
	os.Setenv("DB_SSLMODE", "disable")

	config := database.LoadConfig()

	err := database.Connect(config)
	if err != nil {
		t.Skipf("Skipping test - PostgreSQL test database not available: %v", err)
	}

	db := database.DB

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	// Clean up any existing test data
	db.Exec("DELETE FROM pending_replies")
	db.Exec("DELETE FROM processed_posts")
	db.Exec("DELETE FROM rate_limits")
	db.Exec("DELETE FROM daily_counts")

	return db
}
