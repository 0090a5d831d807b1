package services

import (
	"testing"

	"camp-study-system/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveCurrentCohort_OpenBeatsActive(t *testing.T) {
	db := newTestDB(t)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 2, models.CohortStatusActive, false)
	createTestCohort(t, db, camp.ID, 3, models.CohortStatusActive, false)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusCompleted, true)

	resolver := NewCohortResolver(db)
	// An explicitly open cohort wins even when a higher-numbered active one exists
	assert.Equal(t, 1, resolver.ResolveCurrentCohort(camp.ID))
}

func TestResolveCurrentCohort_HighestActive(t *testing.T) {
	db := newTestDB(t)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusCompleted, false)
	createTestCohort(t, db, camp.ID, 2, models.CohortStatusActive, false)
	createTestCohort(t, db, camp.ID, 3, models.CohortStatusActive, false)

	resolver := NewCohortResolver(db)
	assert.Equal(t, 3, resolver.ResolveCurrentCohort(camp.ID))
}

func TestResolveCurrentCohort_EarlyRegistrationFallback(t *testing.T) {
	db := newTestDB(t)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusCompleted, false)
	createTestCohort(t, db, camp.ID, 2, models.CohortStatusEarlyRegistration, false)

	resolver := NewCohortResolver(db)
	assert.Equal(t, 2, resolver.ResolveCurrentCohort(camp.ID))
}

func TestResolveCurrentCohort_HighestAnyWhenAllClosed(t *testing.T) {
	db := newTestDB(t)
	camp := createTestCamp(t, db, models.CampStatusCompleted, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusCompleted, false)
	createTestCohort(t, db, camp.ID, 2, models.CohortStatusCancelled, false)

	resolver := NewCohortResolver(db)
	assert.Equal(t, 2, resolver.ResolveCurrentCohort(camp.ID))
}

func TestResolveCurrentCohort_CampDefaultWhenNoCohortRows(t *testing.T) {
	db := newTestDB(t)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	db.Model(camp).Update("current_cohort", 4)

	resolver := NewCohortResolver(db)
	assert.Equal(t, 4, resolver.ResolveCurrentCohort(camp.ID))
}

func TestResolveCurrentCohort_UnknownCampBottomsOutAtOne(t *testing.T) {
	db := newTestDB(t)
	resolver := NewCohortResolver(db)
	assert.Equal(t, 1, resolver.ResolveCurrentCohort("no-such-camp"))
}
