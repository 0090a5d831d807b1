package services

import (
	"fmt"
	"testing"

	"camp-study-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnroll_HappyPath(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	result, err := enrollments.Enroll(camp.ID, "user-a", 0, "", true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CohortNumber)
	assert.Len(t, result.ReferralCode, referralCodeLength)
	assert.False(t, result.ReadOnly)
	assert.False(t, result.IsSupervisor)

	var settings models.EnrollmentSettings
	require.NoError(t, db.First(&settings, "enrollment_id = ?", result.EnrollmentID).Error)
	assert.True(t, settings.HideIdentity)
	assert.True(t, settings.NotifyDailyReminder)
	assert.True(t, settings.NotifyQAReplies)

	var stats models.NotificationStats
	require.NoError(t, db.First(&stats, "enrollment_id = ?", result.EnrollmentID).Error)
	assert.Equal(t, "user-a", stats.UserID)
}

func TestEnroll_AwardsFirstEnrollmentBadge(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, badges := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	_, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)

	has, err := badges.HasBadge("user-a", models.BadgeFirstEnrollment)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestEnroll_InvalidInput(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)

	_, err := enrollments.Enroll("", "user-a", 0, "", false)
	assert.Equal(t, CodeInvalidInput, ErrorCode(err))

	_, err = enrollments.Enroll("camp-x", "", 0, "", false)
	assert.Equal(t, CodeInvalidInput, ErrorCode(err))
}

func TestEnroll_UnknownCamp(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)

	_, err := enrollments.Enroll(uuid.NewString(), "user-a", 0, "", false)
	assert.Equal(t, CodeCohortUnavailable, ErrorCode(err))
}

func TestEnroll_AlreadyEnrolled(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	_, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)

	_, err = enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	assert.Equal(t, CodeAlreadyEnrolled, ErrorCode(err))
	assert.Equal(t, 409, HTTPStatus(err))
}

func TestEnroll_CapacityReached(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 2)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	for i := 0; i < 2; i++ {
		_, err := enrollments.Enroll(camp.ID, fmt.Sprintf("user-%d", i), 0, "", false)
		require.NoError(t, err)
	}

	_, err := enrollments.Enroll(camp.ID, "user-late", 0, "", false)
	assert.Equal(t, CodeCapacityReached, ErrorCode(err))
	assert.Equal(t, 403, HTTPStatus(err))
}

func TestEnroll_CohortCapOverridesCampCap(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 100)
	cohort := createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)
	require.NoError(t, db.Model(cohort).Update("max_participants", 1).Error)

	_, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)

	_, err = enrollments.Enroll(camp.ID, "user-b", 0, "", false)
	assert.Equal(t, CodeCapacityReached, ErrorCode(err))
}

func TestEnroll_SupervisorSkipsAndFreesCapacity(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 1)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	require.NoError(t, db.Create(&models.CampSupervisor{
		ID:     uuid.NewString(),
		CampID: camp.ID,
		UserID: "supervisor-1",
		// nil cohort number covers every cohort
	}).Error)

	// Member takes the only seat
	_, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)

	// Supervisor still gets in, flagged as such
	result, err := enrollments.Enroll(camp.ID, "supervisor-1", 0, "", false)
	require.NoError(t, err)
	assert.True(t, result.IsSupervisor)

	// And the supervisor's row does not consume a seat for anyone else
	taken, err := countEnrolledExcludingSupervisors(db, camp.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), taken)
}

func TestEnroll_ScopedSupervisorOnlyCoversItsCohort(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 1)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusCompleted, false)
	createTestCohort(t, db, camp.ID, 2, models.CohortStatusActive, true)

	one := 1
	require.NoError(t, db.Create(&models.CampSupervisor{
		ID:           uuid.NewString(),
		CampID:       camp.ID,
		UserID:       "supervisor-1",
		CohortNumber: &one,
	}).Error)

	_, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)

	// Cohort 2 is full and the supervisor grant is scoped to cohort 1,
	// so this user queues like anyone else.
	_, err = enrollments.Enroll(camp.ID, "supervisor-1", 0, "", false)
	assert.Equal(t, CodeCapacityReached, ErrorCode(err))
}

func TestEnroll_ExplicitCohortPreferenceHonored(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)
	createTestCohort(t, db, camp.ID, 2, models.CohortStatusEarlyRegistration, false)

	result, err := enrollments.Enroll(camp.ID, "user-a", 2, "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CohortNumber)
}

func TestEnroll_ClosedPreferenceFallsBack(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)
	createTestCohort(t, db, camp.ID, 2, models.CohortStatusCancelled, false)

	result, err := enrollments.Enroll(camp.ID, "user-a", 2, "", false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CohortNumber)
}

func TestEnroll_CompletedCampIsReadOnly(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusCompleted, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusCompleted, false)

	result, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)
	assert.True(t, result.ReadOnly)
}

func TestEnroll_WithReferralCodeAwardsPoint(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	referrer, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)

	referred, err := enrollments.Enroll(camp.ID, "user-b", 0, referrer.ReferralCode, false)
	require.NoError(t, err)

	var referral models.CampReferral
	require.NoError(t, db.First(&referral, "referred_enrollment_id = ?", referred.EnrollmentID).Error)
	assert.Equal(t, models.ReferralStatusCompleted, referral.Status)
	assert.Equal(t, int64(ReferralPointIncrement), referral.PointsAwarded)

	var referrerRow models.Enrollment
	require.NoError(t, db.First(&referrerRow, "id = ?", referrer.EnrollmentID).Error)
	assert.Equal(t, int64(1), referrerRow.ReferralPoints)
}

func TestEnroll_BadReferralCodeDoesNotBlock(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	result, err := enrollments.Enroll(camp.ID, "user-a", 0, "NOPE1234", false)
	require.NoError(t, err)

	var count int64
	db.Model(&models.CampReferral{}).Where("referred_enrollment_id = ?", result.EnrollmentID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGetReferralLink_StableAcrossCalls(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	result, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)

	code, link, err := enrollments.GetReferralLink(camp.ID, "user-a")
	require.NoError(t, err)
	assert.Equal(t, result.ReferralCode, code)
	assert.Contains(t, link, "ref="+code)

	again, _, err := enrollments.GetReferralLink(camp.ID, "user-a")
	require.NoError(t, err)
	assert.Equal(t, code, again)
}

func TestGetReferralLink_NotEnrolled(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	_, _, err := enrollments.GetReferralLink(camp.ID, "stranger")
	assert.Equal(t, CodeNotEnrolled, ErrorCode(err))
}

func TestUpdateSettings_PartialPatch(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	_, err := enrollments.Enroll(camp.ID, "user-a", 0, "", false)
	require.NoError(t, err)

	hide := true
	updated, err := enrollments.UpdateSettings(camp.ID, "user-a", SettingsUpdate{HideIdentity: &hide})
	require.NoError(t, err)
	assert.True(t, updated.HideIdentity)
	// untouched fields keep their defaults
	assert.True(t, updated.NotifyDailyReminder)
	assert.True(t, updated.NotifyQAReplies)

	off := false
	updated, err = enrollments.UpdateSettings(camp.ID, "user-a", SettingsUpdate{NotifyDailyReminder: &off})
	require.NoError(t, err)
	assert.True(t, updated.HideIdentity)
	assert.False(t, updated.NotifyDailyReminder)
}

func TestGetSettings_NotEnrolled(t *testing.T) {
	db := newTestDB(t)
	enrollments, _, _ := newEnrollmentStack(t, db)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)

	_, err := enrollments.GetSettings(camp.ID, "stranger")
	assert.Equal(t, CodeNotEnrolled, ErrorCode(err))
}
