package models

import (
	"time"
)

// TherapySession is the parent record for a booking, one per session
// regardless of modality. The modality detail row shares its ID.
type TherapySession struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	UserID            uint       `gorm:"not null;index" json:"user_id"`
	User              User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Type              string     `gorm:"size:50;not null;index" json:"type"` // modality event type
	RecommendDatetime time.Time  `gorm:"not null" json:"recommend_datetime"`
	EnrollDatetime    *time.Time `json:"enroll_datetime"`
	CompleteDatetime  *time.Time `json:"complete_datetime"`
	ClinicalLevel     int        `gorm:"not null;default:1" json:"clinical_level"`
	RelatedDomains    string     `gorm:"size:255" json:"related_domains"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for TherapySession model.
func (TherapySession) TableName() string {
	return "therapy_sessions"
}

// IsActive reports whether the session still counts as an open
// recommendation (not yet completed).
func (s *TherapySession) IsActive() bool {
	return s.CompleteDatetime == nil
}

// PhoneEvent holds phone-session details, 1:1 with a TherapySession.
type PhoneEvent struct {
	SessionID   string         `gorm:"primaryKey;size:36" json:"session_id"`
	Session     TherapySession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
	TherapistID uint           `gorm:"not null;index" json:"therapist_id"`
	Therapist   Therapist      `gorm:"foreignKey:TherapistID" json:"therapist,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName specifies the table name for PhoneEvent model.
func (PhoneEvent) TableName() string {
	return "phone_events"
}

// OnsiteEvent holds onsite-session details, 1:1 with a TherapySession.
type OnsiteEvent struct {
	SessionID   string         `gorm:"primaryKey;size:36" json:"session_id"`
	Session     TherapySession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
	TherapistID uint           `gorm:"not null;index" json:"therapist_id"`
	Therapist   Therapist      `gorm:"foreignKey:TherapistID" json:"therapist,omitempty"`
	WindowStart time.Time      `gorm:"not null" json:"window_start"`
	WindowEnd   time.Time      `gorm:"not null" json:"window_end"`
	Location    string         `gorm:"size:255" json:"location"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName specifies the table name for OnsiteEvent model.
func (OnsiteEvent) TableName() string {
	return "onsite_events"
}

// GroupEvent holds group-session details, 1:1 with a TherapySession.
type GroupEvent struct {
	SessionID string         `gorm:"primaryKey;size:36" json:"session_id"`
	Session   TherapySession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
	TopicID   uint           `gorm:"not null;index" json:"topic_id"`
	TopicName string         `gorm:"size:255" json:"topic_name"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName specifies the table name for GroupEvent model.
func (GroupEvent) TableName() string {
	return "group_events"
}

// CBTEvent holds digital CBT course details, 1:1 with a TherapySession.
type CBTEvent struct {
	SessionID      string         `gorm:"primaryKey;size:36" json:"session_id"`
	Session        TherapySession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
	CourseID       uint           `gorm:"not null;index" json:"course_id"`
	ModuleProgress int            `gorm:"not null;default:0" json:"module_progress"`
	ModulesTotal   int            `gorm:"not null;default:0" json:"modules_total"`
	LastActivityAt *time.Time     `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName specifies the table name for CBTEvent model.
func (CBTEvent) TableName() string {
	return "cbt_events"
}

// Session type constants.
const (
	SessionTypePhone  = "phoneEvent"
	SessionTypeOnsite = "onsiteEvent"
	SessionTypeGroup  = "groupEvent"
	SessionTypeCBT    = "cbtEvent"
)
