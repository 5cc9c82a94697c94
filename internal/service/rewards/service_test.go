package rewards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amanihq/wellbeing-backend/internal/models"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

// mockStore applies Mutate against an in-memory map, mimicking the
// transactional contract: on callback error nothing is kept.
type mockStore struct {
	achievements  map[uint]*models.Achievement
	history       []models.RewardHubHistory
	mutateErr     error
	lastListLimit int
}

func newMockStore() *mockStore {
	return &mockStore{achievements: make(map[uint]*models.Achievement)}
}

func (m *mockStore) Mutate(_ context.Context, userID uint, fn func(a *models.Achievement) (*models.RewardHubHistory, error)) (*models.Achievement, error) {
	if m.mutateErr != nil {
		return nil, m.mutateErr
	}
	var work models.Achievement
	if existing, ok := m.achievements[userID]; ok {
		work = *existing
	} else {
		work = models.Achievement{UserID: userID}
	}
	hist, err := fn(&work)
	if err != nil {
		return nil, err
	}
	m.achievements[userID] = &work
	if hist != nil {
		m.history = append(m.history, *hist)
	}
	out := work
	return &out, nil
}

func (m *mockStore) GetByUser(_ context.Context, userID uint) (*models.Achievement, error) {
	a, ok := m.achievements[userID]
	if !ok {
		return nil, errors.New("achievement not found")
	}
	out := *a
	return &out, nil
}

func (m *mockStore) ListHistory(_ context.Context, userID uint, limit int) ([]models.RewardHubHistory, error) {
	m.lastListLimit = limit
	var out []models.RewardHubHistory
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		if m.history[i].UserID == userID {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}

type mockNotifier struct {
	levelUps []string
	err      error
}

func (m *mockNotifier) SendLevelUp(_ context.Context, _ uint, levelName string) error {
	m.levelUps = append(m.levelUps, levelName)
	return m.err
}

func newTestService(t *testing.T, store AchievementStore, notifier PushNotifier) *Service {
	t.Helper()
	table, err := NewLevelTable(DefaultLevels())
	if err != nil {
		t.Fatalf("NewLevelTable() failed: %v", err)
	}
	return NewServiceWithInterfaces(store, NewLedger(24*time.Hour), table, notifier, logger.New("error", "json", "stdout"))
}

func TestService_RecordActivityCreatesFirstRecord(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store, nil)

	updated, err := svc.RecordActivity(context.Background(), 7, 5)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	if updated.Streak != 1 {
		t.Errorf("Expected streak 1 on first activity, got %d", updated.Streak)
	}
	if updated.Gems != 5 {
		t.Errorf("Expected 5 gems, got %d", updated.Gems)
	}
	if updated.Level != 0 {
		t.Errorf("Expected level 0, got %d", updated.Level)
	}
	if updated.StreakUpdatedAt == nil {
		t.Error("Expected StreakUpdatedAt to be set")
	}
}

func TestService_RecordActivityWritesConsistentHistory(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	if _, err := svc.RecordActivity(ctx, 7, 5); err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}
	updated, err := svc.RecordActivity(ctx, 7, 30)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	history, err := svc.GetHistory(ctx, 7, 10)
	if err != nil {
		t.Fatalf("GetHistory() failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected one history row per mutation, got %d", len(history))
	}

	latest := history[0]
	if latest.GemsHave != updated.Gems {
		t.Errorf("History gems %d does not match achievement gems %d", latest.GemsHave, updated.Gems)
	}
	if latest.Level != updated.Level {
		t.Errorf("History level %d does not match achievement level %d", latest.Level, updated.Level)
	}
	if latest.Streak != updated.Streak {
		t.Errorf("History streak %d does not match achievement streak %d", latest.Streak, updated.Streak)
	}
	if latest.LevelName != svc.LevelName(updated.Level) {
		t.Errorf("History level name %q does not match %q", latest.LevelName, svc.LevelName(updated.Level))
	}
}

func TestService_RecordActivityMultiLevelUnlock(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	svc := newTestService(t, store, notifier)

	// 80 gems in one delta crosses the 25 and 75 thresholds.
	updated, err := svc.RecordActivity(context.Background(), 7, 80)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	if updated.Level != 2 {
		t.Errorf("Expected level 2 after crossing two thresholds, got %d", updated.Level)
	}
	if len(notifier.levelUps) != 1 {
		t.Fatalf("Expected one level-up notification, got %d", len(notifier.levelUps))
	}
	if notifier.levelUps[0] != svc.LevelName(2) {
		t.Errorf("Expected notification for %q, got %q", svc.LevelName(2), notifier.levelUps[0])
	}
}

func TestService_RecordActivityStreakContinuation(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	if _, err := svc.RecordActivity(ctx, 7, 5); err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	// Pretend the first check-in happened 23h ago.
	past := time.Now().Add(-23 * time.Hour)
	store.achievements[7].StreakUpdatedAt = &past

	updated, err := svc.RecordActivity(ctx, 7, 5)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}
	if updated.Streak != 2 {
		t.Errorf("Expected streak 2, got %d", updated.Streak)
	}

	// And a third one after a missed day.
	stale := time.Now().Add(-48 * time.Hour)
	store.achievements[7].StreakUpdatedAt = &stale

	updated, err = svc.RecordActivity(ctx, 7, 5)
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}
	if updated.Streak != 1 {
		t.Errorf("Expected streak reset to 1, got %d", updated.Streak)
	}
}

func TestService_GetHistoryClampsLimit(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	cases := []struct {
		requested int
		want      int
	}{
		{requested: 0, want: 50},
		{requested: -3, want: 50},
		{requested: 10, want: 10},
		{requested: 100, want: 100},
		{requested: 101, want: 100},
		{requested: 5000, want: 100},
	}
	for _, tc := range cases {
		if _, err := svc.GetHistory(ctx, 7, tc.requested); err != nil {
			t.Fatalf("GetHistory(%d) failed: %v", tc.requested, err)
		}
		if store.lastListLimit != tc.want {
			t.Errorf("GetHistory(%d): expected store limit %d, got %d", tc.requested, tc.want, store.lastListLimit)
		}
	}
}

func TestService_RecordActivityRejectsNegativeDelta(t *testing.T) {
	store := newMockStore()
	svc := newTestService(t, store, nil)

	if _, err := svc.RecordActivity(context.Background(), 7, -1); err == nil {
		t.Fatal("Expected error for negative gem delta, got nil")
	}
	if len(store.history) != 0 {
		t.Error("Expected no history written for rejected delta")
	}
}

func TestService_RecordActivityPropagatesStoreError(t *testing.T) {
	store := newMockStore()
	store.mutateErr = errors.New("connection reset")
	svc := newTestService(t, store, nil)

	if _, err := svc.RecordActivity(context.Background(), 7, 5); err == nil {
		t.Fatal("Expected store error to propagate, got nil")
	}
}

func TestService_NotifierFailureDoesNotFailActivity(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{err: errors.New("push relay down")}
	svc := newTestService(t, store, notifier)

	updated, err := svc.RecordActivity(context.Background(), 7, 30)
	if err != nil {
		t.Fatalf("RecordActivity() must not fail on notifier error: %v", err)
	}
	if updated.Level != 1 {
		t.Errorf("Expected level 1, got %d", updated.Level)
	}
}
