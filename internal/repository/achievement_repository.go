package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amanihq/wellbeing-backend/internal/models"
)

// AchievementRepository handles achievement and reward-hub history
// database operations.
type AchievementRepository struct {
	db *DB
}

// NewAchievementRepository creates a new achievement repository.
func NewAchievementRepository(db *DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Mutate loads (or creates) the user's achievement row inside one
// transaction, applies fn to it and commits the updated row together with
// the history snapshot fn returns. Any error rolls the whole mutation
// back: a row with updated gems but a stale level is never observable.
//
// On PostgreSQL the row is locked with SELECT ... FOR UPDATE so two
// concurrent mutations for the same user serialize instead of losing an
// update. SQLite (used in tests) has no FOR UPDATE; its single-writer
// transaction lock serializes writers instead.
func (r *AchievementRepository) Mutate(ctx context.Context, userID uint, fn func(a *models.Achievement) (*models.RewardHubHistory, error)) (*models.Achievement, error) {
	var out models.Achievement

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("user_id = ?", userID)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var achievement models.Achievement
		err := query.First(&achievement).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			achievement = models.Achievement{UserID: userID}
			if err := tx.Create(&achievement).Error; err != nil {
				return fmt.Errorf("failed to create achievement: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to load achievement: %w", err)
		}

		history, err := fn(&achievement)
		if err != nil {
			return err
		}

		if err := tx.Save(&achievement).Error; err != nil {
			return fmt.Errorf("failed to save achievement: %w", err)
		}
		if history != nil {
			if err := tx.Create(history).Error; err != nil {
				return fmt.Errorf("failed to append reward history: %w", err)
			}
		}

		out = achievement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByUser retrieves a user's achievement.
func (r *AchievementRepository) GetByUser(ctx context.Context, userID uint) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&achievement).Error; err != nil {
		return nil, fmt.Errorf("failed to get achievement for user %d: %w", userID, err)
	}
	return &achievement, nil
}

// ListHistory retrieves the most recent reward-hub snapshots for a user.
func (r *AchievementRepository) ListHistory(ctx context.Context, userID uint, limit int) ([]models.RewardHubHistory, error) {
	var history []models.RewardHubHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reward history for user %d: %w", userID, err)
	}
	return history, nil
}
