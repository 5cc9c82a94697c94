package rewards

import (
	"fmt"

	"github.com/amanihq/wellbeing-backend/internal/config"
)

// LevelEntry is one row of the progression table.
type LevelEntry struct {
	Name          string
	NextLevelGems int // cumulative gems needed to unlock the next level; unused at the terminal level
}

// LevelTable is the ordered progression table, levels 0..len-1. The last
// entry is terminal: no gem total advances past it. The table is built
// once at startup and injected, never read from package state.
type LevelTable struct {
	entries []LevelEntry
}

// DefaultLevels returns the built-in 11-entry progression table.
func DefaultLevels() []LevelEntry {
	return []LevelEntry{
		{Name: "Seedling", NextLevelGems: 25},
		{Name: "Sprout", NextLevelGems: 75},
		{Name: "Sapling", NextLevelGems: 150},
		{Name: "Fern", NextLevelGems: 250},
		{Name: "Bamboo", NextLevelGems: 400},
		{Name: "Willow", NextLevelGems: 600},
		{Name: "Cedar", NextLevelGems: 850},
		{Name: "Oak", NextLevelGems: 1150},
		{Name: "Sequoia", NextLevelGems: 1500},
		{Name: "Baobab", NextLevelGems: 2000},
		{Name: "Ancient Grove"},
	}
}

// NewLevelTable builds a table from explicit entries. Thresholds must be
// strictly increasing; the last entry is terminal.
func NewLevelTable(entries []LevelEntry) (*LevelTable, error) {
	if len(entries) < 2 {
		return nil, fmt.Errorf("level table needs at least two entries, got %d", len(entries))
	}
	for i := 1; i < len(entries)-1; i++ {
		if entries[i].NextLevelGems <= entries[i-1].NextLevelGems {
			return nil, fmt.Errorf("level table thresholds must be strictly increasing at level %d", i)
		}
	}
	return &LevelTable{entries: entries}, nil
}

// NewLevelTableFromConfig builds a table from configuration, falling back
// to the built-in defaults when no levels are configured.
func NewLevelTableFromConfig(cfg *config.RewardsConfig) (*LevelTable, error) {
	if len(cfg.Levels) == 0 {
		return NewLevelTable(DefaultLevels())
	}
	entries := make([]LevelEntry, 0, len(cfg.Levels))
	for _, lc := range cfg.Levels {
		entries = append(entries, LevelEntry{Name: lc.Name, NextLevelGems: lc.NextLevelGems})
	}
	return NewLevelTable(entries)
}

// MaxLevel returns the terminal level index.
func (t *LevelTable) MaxLevel() int {
	return len(t.entries) - 1
}

func (t *LevelTable) clamp(level int) int {
	if level < 0 {
		return 0
	}
	if level > t.MaxLevel() {
		return t.MaxLevel()
	}
	return level
}

// Name returns the display name for a level. Out-of-range levels clamp to
// the nearest valid entry.
func (t *LevelTable) Name(level int) string {
	return t.entries[t.clamp(level)].Name
}

// NextThreshold returns the cumulative gem total that unlocks the next
// level, and false at the terminal level.
func (t *LevelTable) NextThreshold(level int) (int, bool) {
	level = t.clamp(level)
	if level == t.MaxLevel() {
		return 0, false
	}
	return t.entries[level].NextLevelGems, true
}

// Unlock returns the next level if gems meet the current threshold and the
// level is not terminal, otherwise the level unchanged. The terminal check
// runs before any table indexing.
func (t *LevelTable) Unlock(gems, level int) int {
	level = t.clamp(level)
	if level == t.MaxLevel() {
		return level
	}
	if gems >= t.entries[level].NextLevelGems {
		return level + 1
	}
	return level
}

// UnlockAll applies Unlock to a fixed point so a single large gem delta
// can cross several thresholds in one mutation.
func (t *LevelTable) UnlockAll(gems, level int) int {
	for {
		next := t.Unlock(gems, level)
		if next == level {
			return level
		}
		level = next
	}
}
