package models

import "time"

const (
	EnrollmentStatusEnrolled = "enrolled"
)

// Enrollment is a user's membership record in one cohort of one camp.
// No soft delete here: teardown must free the unique keys so a user can
// re-enroll the same cohort after leaving.
type Enrollment struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string `gorm:"uniqueIndex:idx_enrollment_user_cohort;not null" json:"user_id"`
	CampID       string `gorm:"uniqueIndex:idx_enrollment_user_cohort;uniqueIndex:idx_enrollment_code;not null" json:"camp_id"`
	CohortNumber int    `gorm:"uniqueIndex:idx_enrollment_user_cohort;uniqueIndex:idx_enrollment_code;not null" json:"cohort_number"`
	Status       string `gorm:"type:varchar(16);default:'enrolled'" json:"status"`

	// ReferralCode is this member's own code, unique within (camp, cohort).
	ReferralCode   string `gorm:"uniqueIndex:idx_enrollment_code;not null" json:"referral_code"`
	ReferralPoints int64  `gorm:"default:0" json:"referral_points"`

	// ReferrerEnrollmentID points at the enrollment whose code was used at
	// signup. Same (camp, cohort) as this row, never this row itself.
	ReferrerEnrollmentID *string `gorm:"index" json:"referrer_enrollment_id,omitempty"`

	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// EnrollmentSettings holds per-enrollment visibility and notification
// preferences. One row per enrollment, created with it, destroyed with it.
type EnrollmentSettings struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	EnrollmentID string `gorm:"uniqueIndex;not null" json:"enrollment_id"`

	HideIdentity        bool `gorm:"default:false" json:"hide_identity"`
	NotifyDailyReminder bool `gorm:"default:true" json:"notify_daily_reminder"`
	NotifyQAReplies     bool `gorm:"default:true" json:"notify_qa_replies"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
