package rewards

import (
	"testing"
	"time"
)

func TestLedger_ContinuesStreakWithinWindow(t *testing.T) {
	ledger := NewLedger(24 * time.Hour)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	last := now.Add(-(23*time.Hour + 59*time.Minute))

	result := ledger.Apply(StreakState{Streak: 3, Gems: 40, UpdatedAt: &last}, 5, now)

	if result.Streak != 4 {
		t.Errorf("Expected streak 4, got %d", result.Streak)
	}
	if result.Gems != 45 {
		t.Errorf("Expected gems 45, got %d", result.Gems)
	}
}

func TestLedger_ResetsStreakAfterWindow(t *testing.T) {
	ledger := NewLedger(24 * time.Hour)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	last := now.Add(-25 * time.Hour)

	result := ledger.Apply(StreakState{Streak: 9, Gems: 100, UpdatedAt: &last}, 5, now)

	if result.Streak != 1 {
		t.Errorf("Expected streak reset to 1, got %d", result.Streak)
	}
	if result.Gems != 105 {
		t.Errorf("Expected gems 105, got %d", result.Gems)
	}
}

func TestLedger_ExactWindowBoundaryResets(t *testing.T) {
	ledger := NewLedger(24 * time.Hour)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	last := now.Add(-24 * time.Hour)

	result := ledger.Apply(StreakState{Streak: 5, UpdatedAt: &last}, 0, now)

	if result.Streak != 1 {
		t.Errorf("Expected exactly-24h gap to reset streak, got %d", result.Streak)
	}
}

func TestLedger_FirstActivityStartsStreak(t *testing.T) {
	ledger := NewLedger(24 * time.Hour)

	result := ledger.Apply(StreakState{}, 5, time.Now())

	if result.Streak != 1 {
		t.Errorf("Expected first activity to start streak at 1, got %d", result.Streak)
	}
	if result.Gems != 5 {
		t.Errorf("Expected gems 5, got %d", result.Gems)
	}
}

func TestLedger_NegativePriorValuesTreatedAsZero(t *testing.T) {
	ledger := NewLedger(24 * time.Hour)
	now := time.Now()
	last := now.Add(-time.Hour)

	result := ledger.Apply(StreakState{Streak: -3, Gems: -10, UpdatedAt: &last}, 5, now)

	if result.Streak != 1 {
		t.Errorf("Expected streak 1 from clamped prior, got %d", result.Streak)
	}
	if result.Gems != 5 {
		t.Errorf("Expected gems 5 from clamped prior, got %d", result.Gems)
	}
}

func TestLedger_GemsMonotonicallyNonDecreasing(t *testing.T) {
	ledger := NewLedger(24 * time.Hour)
	now := time.Now()

	gems := 0
	for _, delta := range []int{0, 5, 5, 20, 0, 100} {
		result := ledger.Apply(StreakState{Gems: gems}, delta, now)
		if result.Gems < gems {
			t.Fatalf("Gems decreased from %d to %d", gems, result.Gems)
		}
		if result.Gems != gems+delta {
			t.Fatalf("Expected gems %d, got %d", gems+delta, result.Gems)
		}
		gems = result.Gems
	}
}
