// Package models defines domain models for the wellbeing backend.
package models

import (
	"time"
)

// Achievement tracks a user's reward-hub progression: cumulative gems,
// current level and the running daily check-in streak. One row per user.
type Achievement struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User            User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Gems            int        `gorm:"not null;default:0" json:"gems"`
	Level           int        `gorm:"not null;default:0" json:"level"`
	Streak          int        `gorm:"not null;default:0" json:"streak"`
	StreakUpdatedAt *time.Time `json:"streak_updated_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Achievement model.
func (Achievement) TableName() string {
	return "achievements"
}

// RewardHubHistory is an append-only audit snapshot written on every
// achievement mutation. The engine only ever writes these rows; reporting
// reads them back.
type RewardHubHistory struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Level         int       `gorm:"not null" json:"level"`
	LevelName     string    `gorm:"size:100" json:"level_name"`
	Streak        int       `gorm:"not null" json:"streak"`
	GemsHave      int       `gorm:"not null" json:"gems_have"`
	GemsNextLevel int       `gorm:"not null" json:"gems_next_level"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for RewardHubHistory model.
func (RewardHubHistory) TableName() string {
	return "reward_hub_history"
}

// DailyCheckIn records a single calendar-day mood check-in. The unique
// index on (user_id, check_in_date) enforces at most one per day.
type DailyCheckIn struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_checkin_date" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CheckInDate string    `gorm:"size:10;not null;uniqueIndex:idx_user_checkin_date" json:"check_in_date"` // YYYY-MM-DD
	Mood        string    `gorm:"size:100" json:"mood"`
	Feelings    string    `gorm:"type:text" json:"feelings"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for DailyCheckIn model.
func (DailyCheckIn) TableName() string {
	return "daily_check_ins"
}
