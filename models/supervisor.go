package models

import "time"

// CampSupervisor grants a user oversight of a camp. CohortNumber scopes the
// grant to one cohort; nil covers every cohort of the camp. Supervisors are
// excluded from cohort capacity counts.
type CampSupervisor struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	CampID       string `gorm:"index;uniqueIndex:idx_supervisor_scope;not null" json:"camp_id"`
	UserID       string `gorm:"index;uniqueIndex:idx_supervisor_scope;not null" json:"user_id"`
	CohortNumber *int   `gorm:"uniqueIndex:idx_supervisor_scope" json:"cohort_number,omitempty"`
	Role         string `gorm:"type:varchar(24);default:'supervisor'" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Covers reports whether this record scopes over the given cohort.
// A nil CohortNumber is a wildcard over all cohorts of the camp.
func (s *CampSupervisor) Covers(cohortNumber int) bool {
	return s.CohortNumber == nil || *s.CohortNumber == cohortNumber
}
