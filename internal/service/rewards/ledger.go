// Package rewards implements the reward-hub progression engine: streak and
// gem accounting plus level unlocks driven by daily check-ins.
package rewards

import (
	"time"
)

// StreakState is the prior streak snapshot the ledger computes from.
type StreakState struct {
	Streak    int
	Gems      int
	UpdatedAt *time.Time
}

// LedgerResult is the next streak/gem pair produced by Apply.
type LedgerResult struct {
	Streak int
	Gems   int
}

// Ledger computes streak continuation and gem accumulation. It is a pure
// function of its inputs; persistence belongs to the coordinator.
type Ledger struct {
	window time.Duration
}

// NewLedger creates a ledger with the given continuation window
// (how recent the last streak mutation must be to count as consecutive).
func NewLedger(window time.Duration) *Ledger {
	return &Ledger{window: window}
}

// Apply computes the next streak and gem totals. A prior mutation within
// the window continues the streak; anything older, or no prior mutation at
// all, starts it over at 1. Negative prior values are treated as zero.
func (l *Ledger) Apply(prev StreakState, gemDelta int, now time.Time) LedgerResult {
	streak := prev.Streak
	if streak < 0 {
		streak = 0
	}
	gems := prev.Gems
	if gems < 0 {
		gems = 0
	}

	if prev.UpdatedAt != nil && now.Sub(*prev.UpdatedAt) < l.window {
		streak++
	} else {
		streak = 1
	}

	return LedgerResult{
		Streak: streak,
		Gems:   gems + gemDelta,
	}
}
