package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/amanihq/wellbeing-backend/internal/models"
)

// ErrCheckInExists is returned when a user already checked in on the
// given calendar day.
var ErrCheckInExists = errors.New("check-in already recorded for this day")

// CheckInRepository handles daily check-in database operations.
type CheckInRepository struct {
	db *DB
}

// NewCheckInRepository creates a new check-in repository.
func NewCheckInRepository(db *DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// Create inserts a check-in for its calendar day. The unique index on
// (user_id, check_in_date) makes the at-most-one-per-day invariant hold
// even under concurrent requests; a duplicate maps to ErrCheckInExists.
func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.DailyCheckIn) error {
	if checkIn.CheckInDate == "" {
		checkIn.CheckInDate = time.Now().Format("2006-01-02")
	}
	err := r.db.WithContext(ctx).Create(checkIn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrCheckInExists
		}
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

// Delete removes a check-in. Used to release the day again when the
// reward that should accompany the check-in could not be recorded.
func (r *CheckInRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.DailyCheckIn{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete check-in %d: %w", id, err)
	}
	return nil
}

// GetByUserAndDate retrieves a user's check-in for a calendar day.
func (r *CheckInRepository) GetByUserAndDate(ctx context.Context, userID uint, date string) (*models.DailyCheckIn, error) {
	var checkIn models.DailyCheckIn
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND check_in_date = ?", userID, date).
		First(&checkIn).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in for user %d on %s: %w", userID, date, err)
	}
	return &checkIn, nil
}

// ListByUser retrieves a user's check-ins, newest first.
func (r *CheckInRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.DailyCheckIn, error) {
	var checkIns []models.DailyCheckIn
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("check_in_date DESC").
		Limit(limit).
		Find(&checkIns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins for user %d: %w", userID, err)
	}
	return checkIns, nil
}

// isUniqueViolation matches unique-constraint errors across the postgres
// and sqlite drivers, which gorm does not always translate.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
