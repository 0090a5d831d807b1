package models

import "time"

// TaskProgress records one completed study task for an enrollment. Written
// by the task controllers (outside this service's core); deleted here as
// part of membership teardown.
type TaskProgress struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	EnrollmentID string `gorm:"index;not null" json:"enrollment_id"`
	CampID       string `gorm:"index;not null" json:"camp_id"`
	UserID       string `gorm:"index;not null" json:"user_id"`
	CohortNumber int    `gorm:"not null" json:"cohort_number"`
	DayNumber    int    `gorm:"not null" json:"day_number"`

	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`
}
