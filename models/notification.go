package models

import "time"

// CampNotification is an in-app notification row for a camp member.
type CampNotification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`
	CampID string `gorm:"index;not null" json:"camp_id"`
	Type   string `gorm:"type:varchar(32);not null" json:"type"`
	Title  string `json:"title"`
	Body   string `gorm:"type:text" json:"body,omitempty"`

	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// NotificationStats tracks delivery counters per enrollment, so reminder
// jobs can throttle. One row per enrollment, removed with it.
type NotificationStats struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	EnrollmentID string `gorm:"uniqueIndex;not null" json:"enrollment_id"`
	UserID       string `gorm:"index;not null" json:"user_id"`
	CampID       string `gorm:"index;not null" json:"camp_id"`

	SentCount  int64      `gorm:"default:0" json:"sent_count"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
