package models

import (
	"time"
)

// User represents an application user account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PhoneNumber string    `gorm:"uniqueIndex;not null;size:20" json:"phone_number"`
	Alias       string    `gorm:"uniqueIndex;size:100" json:"alias"`
	Email       string    `gorm:"size:255" json:"email"`
	Verified    bool      `gorm:"default:false" json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// Therapist represents a care provider that sessions can be booked with.
type Therapist struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FullName      string    `gorm:"not null;size:255" json:"full_name"`
	CalendarEmail string    `gorm:"uniqueIndex;not null;size:255" json:"calendar_email"`
	Specialty     string    `gorm:"size:100" json:"specialty"`
	Active        bool      `gorm:"default:true" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for Therapist model.
func (Therapist) TableName() string {
	return "therapists"
}

// TherapistAssignment holds the sticky per-user therapist assignment.
// The first therapist recommended to a user stays assigned for every
// later phone or onsite booking.
type TherapistAssignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TherapistID uint       `gorm:"not null;index" json:"therapist_id"`
	Therapist   Therapist  `gorm:"foreignKey:TherapistID" json:"therapist,omitempty"`
	AssignedAt  time.Time  `gorm:"not null" json:"assigned_at"`
	ReleasedAt  *time.Time `json:"released_at"`
}

// TableName specifies the table name for TherapistAssignment model.
func (TherapistAssignment) TableName() string {
	return "therapist_assignments"
}
