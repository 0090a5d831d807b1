package models

import (
	"time"

	"gorm.io/gorm"
)

// Camp statuses
const (
	CampStatusDraft     = "draft"
	CampStatusActive    = "active"
	CampStatusCompleted = "completed"
	CampStatusCancelled = "cancelled"
)

// Cohort statuses
const (
	CohortStatusEarlyRegistration = "early_registration"
	CohortStatusActive            = "active"
	CohortStatusCompleted         = "completed"
	CohortStatusCancelled         = "cancelled"
)

// Camp is a time-bounded group-study program composed of numbered cohorts.
type Camp struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	Name          string `gorm:"not null" json:"name"`
	Slug          string `gorm:"uniqueIndex" json:"slug"`
	Description   string `gorm:"type:text" json:"description,omitempty"`
	Status        string `gorm:"type:varchar(16);default:'draft'" json:"status"`
	CoverPhotoURL string `gorm:"type:text" json:"cover_photo_url,omitempty"`

	// CurrentCohort is the stored default cohort number, used as the last
	// fallback when cohort rows can't answer which intake is current.
	CurrentCohort int `gorm:"default:1" json:"current_cohort"`

	// MaxParticipants caps every cohort unless the cohort overrides it. 0 = unlimited.
	MaxParticipants int `gorm:"default:0" json:"max_participants"`

	StartDate *time.Time `json:"start_date,omitempty"`

	Cohorts []Cohort `gorm:"foreignKey:CampID" json:"cohorts,omitempty"`

	// Computed for responses, never stored
	EnrolledCount  int64 `gorm:"-" json:"enrolled_count,omitempty"`
	AvailableSlots int64 `gorm:"-" json:"available_slots,omitempty"`

	Timestamps
}

// Cohort is one numbered intake of a camp. Number is unique per camp.
type Cohort struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	CampID string `gorm:"uniqueIndex:idx_cohort_camp_number;not null" json:"camp_id"`
	Number int    `gorm:"uniqueIndex:idx_cohort_camp_number;not null" json:"number"`
	Status string `gorm:"type:varchar(24);default:'early_registration'" json:"status"`

	// IsOpen gates new enrollments independently of Status.
	IsOpen bool `gorm:"default:false" json:"is_open"`

	// MaxParticipants overrides the camp cap when > 0.
	MaxParticipants int `gorm:"default:0" json:"max_participants"`

	StartDate *time.Time `json:"start_date,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
