package rewards

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amanihq/wellbeing-backend/internal/metrics"
	"github.com/amanihq/wellbeing-backend/internal/models"
	"github.com/amanihq/wellbeing-backend/internal/repository"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

// AchievementStore is the persistence boundary for the coordinator. Mutate
// must run its callback inside one atomic transaction: the achievement row
// is loaded (created with zero values if absent), handed to the callback,
// and the updated row plus the returned history snapshot are committed
// together or not at all.
type AchievementStore interface {
	Mutate(ctx context.Context, userID uint, fn func(a *models.Achievement) (*models.RewardHubHistory, error)) (*models.Achievement, error)
	GetByUser(ctx context.Context, userID uint) (*models.Achievement, error)
	ListHistory(ctx context.Context, userID uint, limit int) ([]models.RewardHubHistory, error)
}

// PushNotifier sends best-effort user notifications.
type PushNotifier interface {
	SendLevelUp(ctx context.Context, userID uint, levelName string) error
}

// Service coordinates the ledger and level table against persisted state.
type Service struct {
	store    AchievementStore
	ledger   *Ledger
	levels   *LevelTable
	notifier PushNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a new reward hub coordinator.
func NewService(store *repository.AchievementRepository, ledger *Ledger, levels *LevelTable, notifier PushNotifier, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		levels:   levels,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// NewServiceWithInterfaces creates a new coordinator with interface dependencies (useful for testing).
func NewServiceWithInterfaces(store AchievementStore, ledger *Ledger, levels *LevelTable, notifier PushNotifier, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		levels:   levels,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// RecordActivity applies one activity event worth gemDelta gems to the
// user's achievement: streak continuation or reset, gem accumulation and
// any level unlocks, committed atomically together with one history row.
func (s *Service) RecordActivity(ctx context.Context, userID uint, gemDelta int) (*models.Achievement, error) {
	if gemDelta < 0 {
		return nil, fmt.Errorf("gem delta must not be negative, got %d", gemDelta)
	}

	now := s.now()
	prevLevel := -1
	streakReset := false

	updated, err := s.store.Mutate(ctx, userID, func(a *models.Achievement) (*models.RewardHubHistory, error) {
		prevLevel = a.Level

		result := s.ledger.Apply(StreakState{
			Streak:    a.Streak,
			Gems:      a.Gems,
			UpdatedAt: a.StreakUpdatedAt,
		}, gemDelta, now)

		streakReset = a.Streak > 1 && result.Streak == 1

		a.Streak = result.Streak
		a.Gems = result.Gems
		a.Level = s.levels.UnlockAll(result.Gems, a.Level)
		t := now
		a.StreakUpdatedAt = &t

		nextThreshold, _ := s.levels.NextThreshold(a.Level)
		return &models.RewardHubHistory{
			UserID:        userID,
			Level:         a.Level,
			LevelName:     s.levels.Name(a.Level),
			Streak:        a.Streak,
			GemsHave:      a.Gems,
			GemsNextLevel: nextThreshold,
		}, nil
	})
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to record reward activity")
		return nil, fmt.Errorf("failed to record activity for user %d: %w", userID, err)
	}

	metrics.GemsAwardedTotal.Add(float64(gemDelta))
	if streakReset {
		metrics.StreakResetsTotal.Inc()
	}

	if updated.Level > prevLevel && prevLevel >= 0 {
		for lvl := prevLevel + 1; lvl <= updated.Level; lvl++ {
			metrics.LevelUnlocksTotal.WithLabelValues(strconv.Itoa(lvl)).Inc()
		}
		s.notifyLevelUp(ctx, userID, updated.Level)
	}

	s.log.Info().
		Uint("user_id", userID).
		Int("gems", updated.Gems).
		Int("level", updated.Level).
		Int("streak", updated.Streak).
		Msg("Recorded reward activity")

	return updated, nil
}

// notifyLevelUp is a best-effort side effect; failures are logged and
// swallowed so they never fail the committed mutation.
func (s *Service) notifyLevelUp(ctx context.Context, userID uint, level int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendLevelUp(ctx, userID, s.levels.Name(level)); err != nil {
		s.log.Warn().
			Err(err).
			Uint("user_id", userID).
			Int("level", level).
			Msg("Failed to send level-up notification")
	}
}

// GetAchievement returns the user's current achievement.
func (s *Service) GetAchievement(ctx context.Context, userID uint) (*models.Achievement, error) {
	a, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement for user %d: %w", userID, err)
	}
	return a, nil
}

// GetHistory returns the most recent reward hub snapshots for a user.
func (s *Service) GetHistory(ctx context.Context, userID uint, limit int) ([]models.RewardHubHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	history, err := s.store.ListHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reward history for user %d: %w", userID, err)
	}
	return history, nil
}

// LevelName exposes the configured display name for a level.
func (s *Service) LevelName(level int) string {
	return s.levels.Name(level)
}
