package repository

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/amanihq/wellbeing-backend/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing. The
// connection pool is capped at one so concurrent transactions serialize
// the way a single-writer store does.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is off)
	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(
		&models.User{},
		&models.Therapist{},
		&models.TherapistAssignment{},
		&models.Achievement{},
		&models.RewardHubHistory{},
		&models.DailyCheckIn{},
		&models.TherapySession{},
		&models.PhoneEvent{},
		&models.OnsiteEvent{},
		&models.GroupEvent{},
		&models.CBTEvent{},
	)
	if err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return &DB{db}
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *DB, phone string) *models.User {
	t.Helper()

	user := &models.User{
		PhoneNumber: phone,
		Alias:       "user-" + phone,
		Verified:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// createTestTherapist creates a test therapist in the database.
func createTestTherapist(t *testing.T, db *DB, name string) *models.Therapist {
	t.Helper()

	therapist := &models.Therapist{
		FullName:      name,
		CalendarEmail: fmt.Sprintf("%s@clinic.example.com", name),
		Specialty:     "cbt",
		Active:        true,
	}
	if err := db.Create(therapist).Error; err != nil {
		t.Fatalf("Failed to create test therapist: %v", err)
	}
	return therapist
}
