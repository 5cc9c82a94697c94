package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amanihq/wellbeing-backend/internal/models"
)

// SessionRepository handles therapy session and modality detail database
// operations.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindActive looks up the user's open recommendation for a modality,
// matching the modality detail row's selector (therapist, topic or
// course). For onsite the selector is ignored: a fallback booking may
// have landed on a different therapist than the one requested, and the
// user still holds at most one open onsite session. Phone and onsite
// recommendations additionally have to be for today or the future; a
// stale one no longer blocks a new booking.
// Returns (nil, nil) when no active session exists.
func (r *SessionRepository) FindActive(ctx context.Context, userID uint, sessionType string, selector uint) (*models.TherapySession, error) {
	query := r.db.WithContext(ctx).
		Model(&models.TherapySession{}).
		Where("therapy_sessions.user_id = ? AND therapy_sessions.type = ? AND therapy_sessions.complete_datetime IS NULL", userID, sessionType)

	switch sessionType {
	case models.SessionTypePhone:
		query = query.
			Joins("JOIN phone_events ON phone_events.session_id = therapy_sessions.id").
			Where("phone_events.therapist_id = ?", selector).
			Where("therapy_sessions.recommend_datetime >= ?", startOfToday())
	case models.SessionTypeOnsite:
		query = query.
			Where("therapy_sessions.recommend_datetime >= ?", startOfToday())
	case models.SessionTypeGroup:
		query = query.
			Joins("JOIN group_events ON group_events.session_id = therapy_sessions.id").
			Where("group_events.topic_id = ?", selector)
	case models.SessionTypeCBT:
		query = query.
			Joins("JOIN cbt_events ON cbt_events.session_id = therapy_sessions.id").
			Where("cbt_events.course_id = ?", selector)
	default:
		return nil, fmt.Errorf("unknown session type %q", sessionType)
	}

	var session models.TherapySession
	err := query.First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	return &session, nil
}

// CreateWithDetail inserts the parent session and its modality detail row
// in one transaction. The detail row must share the session's ID; on any
// failure both inserts roll back so neither an orphaned parent nor an
// orphaned detail row survives.
func (r *SessionRepository) CreateWithDetail(ctx context.Context, session *models.TherapySession, detail interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("failed to create therapy session: %w", err)
		}
		if err := tx.Create(detail).Error; err != nil {
			return fmt.Errorf("failed to create %s detail: %w", session.Type, err)
		}
		return nil
	})
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.TherapySession, error) {
	var session models.TherapySession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return &session, nil
}

// ListByUser retrieves a user's sessions, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uint) ([]models.TherapySession, error) {
	var sessions []models.TherapySession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recommend_datetime DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for user %d: %w", userID, err)
	}
	return sessions, nil
}

// SetEnrolled stamps the session's enrollment time. Only an open,
// not-yet-enrolled session can be enrolled.
func (r *SessionRepository) SetEnrolled(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.TherapySession{}).
		Where("id = ? AND complete_datetime IS NULL AND enroll_datetime IS NULL", id).
		Update("enroll_datetime", at)
	if result.Error != nil {
		return fmt.Errorf("failed to enroll session %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s cannot be enrolled: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// SetCompleted stamps the session's completion time, which frees the
// modality slot for a new recommendation.
func (r *SessionRepository) SetCompleted(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.TherapySession{}).
		Where("id = ? AND complete_datetime IS NULL", id).
		Update("complete_datetime", at)
	if result.Error != nil {
		return fmt.Errorf("failed to complete session %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s cannot be completed: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
