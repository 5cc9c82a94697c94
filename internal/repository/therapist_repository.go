package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amanihq/wellbeing-backend/internal/models"
)

// TherapistRepository handles therapist and assignment database operations.
type TherapistRepository struct {
	db *DB
}

// NewTherapistRepository creates a new therapist repository.
func NewTherapistRepository(db *DB) *TherapistRepository {
	return &TherapistRepository{db: db}
}

// GetByID retrieves a therapist by ID.
func (r *TherapistRepository) GetByID(ctx context.Context, id uint) (*models.Therapist, error) {
	var therapist models.Therapist
	if err := r.db.WithContext(ctx).First(&therapist, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get therapist %d: %w", id, err)
	}
	return &therapist, nil
}

// ListActive retrieves all active therapists.
func (r *TherapistRepository) ListActive(ctx context.Context) ([]models.Therapist, error) {
	var therapists []models.Therapist
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&therapists).Error; err != nil {
		return nil, fmt.Errorf("failed to list active therapists: %w", err)
	}
	return therapists, nil
}

// GetAssignment retrieves the user's current therapist assignment.
// Returns (nil, nil) when the user has none.
func (r *TherapistRepository) GetAssignment(ctx context.Context, userID uint) (*models.TherapistAssignment, error) {
	var assignment models.TherapistAssignment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND released_at IS NULL", userID).
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment for user %d: %w", userID, err)
	}
	return &assignment, nil
}

// Assign records the user's sticky therapist assignment. A user who
// already has one keeps it; the call is then a no-op returning the
// existing assignment.
func (r *TherapistRepository) Assign(ctx context.Context, userID, therapistID uint) (*models.TherapistAssignment, error) {
	existing, err := r.GetAssignment(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	assignment := &models.TherapistAssignment{
		UserID:      userID,
		TherapistID: therapistID,
		AssignedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to assign therapist %d to user %d: %w", therapistID, userID, err)
	}
	return assignment, nil
}
