package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amanihq/wellbeing-backend/internal/models"
)

func TestCheckInRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckInRepository(db)
	user := createTestUser(t, db, "254722000001")

	checkIn := &models.DailyCheckIn{
		UserID:   user.ID,
		Mood:     "calm",
		Feelings: "slept well",
	}
	if err := repo.Create(context.Background(), checkIn); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if checkIn.CheckInDate != time.Now().Format("2006-01-02") {
		t.Errorf("Expected check-in stamped with today's date, got %q", checkIn.CheckInDate)
	}
}

func TestCheckInRepository_SecondCheckInSameDayConflicts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckInRepository(db)
	user := createTestUser(t, db, "254722000002")
	ctx := context.Background()

	if err := repo.Create(ctx, &models.DailyCheckIn{UserID: user.ID, Mood: "ok"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	err := repo.Create(ctx, &models.DailyCheckIn{UserID: user.ID, Mood: "better"})
	if !errors.Is(err, ErrCheckInExists) {
		t.Fatalf("Expected ErrCheckInExists for same-day repeat, got %v", err)
	}
}

func TestCheckInRepository_DeleteReleasesDay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckInRepository(db)
	user := createTestUser(t, db, "254722000006")
	ctx := context.Background()

	checkIn := &models.DailyCheckIn{UserID: user.ID, Mood: "ok"}
	if err := repo.Create(ctx, checkIn); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := repo.Delete(ctx, checkIn.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	// The day is open again after the rollback.
	if err := repo.Create(ctx, &models.DailyCheckIn{UserID: user.ID, Mood: "ok"}); err != nil {
		t.Fatalf("Create() after delete failed: %v", err)
	}
}

func TestCheckInRepository_DifferentDaysAllowed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckInRepository(db)
	user := createTestUser(t, db, "254722000003")
	ctx := context.Background()

	yesterday := &models.DailyCheckIn{
		UserID:      user.ID,
		CheckInDate: time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
		Mood:        "tired",
	}
	if err := repo.Create(ctx, yesterday); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := repo.Create(ctx, &models.DailyCheckIn{UserID: user.ID, Mood: "rested"}); err != nil {
		t.Fatalf("Create() for a new day failed: %v", err)
	}

	checkIns, err := repo.ListByUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(checkIns) != 2 {
		t.Fatalf("Expected 2 check-ins, got %d", len(checkIns))
	}
	if checkIns[0].Mood != "rested" {
		t.Errorf("Expected newest first, got %q", checkIns[0].Mood)
	}
}

func TestCheckInRepository_DifferentUsersSameDay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckInRepository(db)
	alice := createTestUser(t, db, "254722000004")
	bob := createTestUser(t, db, "254722000005")
	ctx := context.Background()

	if err := repo.Create(ctx, &models.DailyCheckIn{UserID: alice.ID, Mood: "ok"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := repo.Create(ctx, &models.DailyCheckIn{UserID: bob.ID, Mood: "ok"}); err != nil {
		t.Fatalf("Create() for second user failed: %v", err)
	}
}
