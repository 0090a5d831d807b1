package models

import "time"

const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
)

// CampReferral is a directed edge: the referrer's code was presented by the
// referred member when joining the same (camp, cohort). Created pending at
// signup, completed exactly once when the referred enrollment is durable.
type CampReferral struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	CampID       string `gorm:"index;not null" json:"camp_id"`
	CohortNumber int    `gorm:"not null" json:"cohort_number"`

	ReferrerEnrollmentID string `gorm:"index;not null" json:"referrer_enrollment_id"`
	ReferredEnrollmentID string `gorm:"index;not null" json:"referred_enrollment_id"`

	CodeUsed      string     `gorm:"not null" json:"code_used"`
	Status        string     `gorm:"type:varchar(16);default:'pending'" json:"status"`
	PointsAwarded int64      `gorm:"default:0" json:"points_awarded"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
