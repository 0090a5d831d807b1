package services

import (
	"fmt"
	"testing"

	"camp-study-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReferralFixture(t *testing.T) (*ReferralService, *BadgeService, *models.Camp, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	badges := NewBadgeService(db)
	require.NoError(t, badges.EnsureBadgeCatalog())
	referrals := NewReferralService(db, badges)
	camp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, camp.ID, 1, models.CohortStatusActive, true)
	return referrals, badges, camp, db
}

func TestAttribute_CreatesPendingEdge(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	referrer := createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")
	referred := createTestEnrollment(t, db, "user-b", camp.ID, 1, "CODEBBBB")

	outcome, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, AttributeCreated, outcome)

	var edge models.CampReferral
	require.NoError(t, db.First(&edge, "referred_enrollment_id = ?", referred.ID).Error)
	assert.Equal(t, models.ReferralStatusPending, edge.Status)
	assert.Equal(t, referrer.ID, edge.ReferrerEnrollmentID)
	assert.Equal(t, "CODEAAAA", edge.CodeUsed)

	var stored models.Enrollment
	require.NoError(t, db.First(&stored, "id = ?", referred.ID).Error)
	require.NotNil(t, stored.ReferrerEnrollmentID)
	assert.Equal(t, referrer.ID, *stored.ReferrerEnrollmentID)
}

func TestAttribute_SecondCodeIsIgnored(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")
	createTestEnrollment(t, db, "user-c", camp.ID, 1, "CODECCCC")
	referred := createTestEnrollment(t, db, "user-b", camp.ID, 1, "CODEBBBB")

	outcome, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
	require.NoError(t, err)
	require.Equal(t, AttributeCreated, outcome)

	outcome, err = referrals.Attribute("CODECCCC", referred.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, AttributeAlreadyAttributed, outcome)

	var count int64
	db.Model(&models.CampReferral{}).Where("referred_enrollment_id = ?", referred.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAttribute_InvalidCode(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	referred := createTestEnrollment(t, db, "user-b", camp.ID, 1, "CODEBBBB")

	outcome, err := referrals.Attribute("GHOST000", referred.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, AttributeInvalidCode, outcome)
}

func TestAttribute_SelfReferralRejected(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	referred := createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")

	// Presenting your own code at your own signup
	outcome, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, AttributeSelfReferral, outcome)
}

func TestAttribute_CrossCampRejected(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	otherCamp := createTestCamp(t, db, models.CampStatusActive, 0)
	createTestCohort(t, db, otherCamp.ID, 1, models.CohortStatusActive, true)

	createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")
	referred := createTestEnrollment(t, db, "user-b", otherCamp.ID, 1, "CODEBBBB")

	outcome, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, AttributeCrossCamp, outcome)
}

func TestComplete_AwardsPointOnce(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	referrer := createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")
	referred := createTestEnrollment(t, db, "user-b", camp.ID, 1, "CODEBBBB")

	_, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
	require.NoError(t, err)

	outcome, err := referrals.Complete(referred.ID)
	require.NoError(t, err)
	assert.Equal(t, CompleteDone, outcome)

	var edge models.CampReferral
	require.NoError(t, db.First(&edge, "referred_enrollment_id = ?", referred.ID).Error)
	assert.Equal(t, models.ReferralStatusCompleted, edge.Status)
	assert.NotNil(t, edge.CompletedAt)
	assert.Equal(t, int64(ReferralPointIncrement), edge.PointsAwarded)

	var stored models.Enrollment
	require.NoError(t, db.First(&stored, "id = ?", referrer.ID).Error)
	assert.Equal(t, int64(1), stored.ReferralPoints)

	// Second completion is a no-op
	outcome, err = referrals.Complete(referred.ID)
	require.NoError(t, err)
	assert.Equal(t, CompleteAlready, outcome)

	require.NoError(t, db.First(&stored, "id = ?", referrer.ID).Error)
	assert.Equal(t, int64(1), stored.ReferralPoints)
}

func TestFinalizeReferral_LostRaceAwardsNothing(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	referrer := createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")
	referred := createTestEnrollment(t, db, "user-b", camp.ID, 1, "CODEBBBB")

	_, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
	require.NoError(t, err)

	// Snapshot the edge while still pending, then let a concurrent caller
	// complete it first.
	var stale models.CampReferral
	require.NoError(t, db.First(&stale, "referred_enrollment_id = ?", referred.ID).Error)

	outcome, err := referrals.Complete(referred.ID)
	require.NoError(t, err)
	require.Equal(t, CompleteDone, outcome)

	// Replaying the stale snapshot must not re-award the point
	applied, err := referrals.finalizeReferral(&stale)
	require.NoError(t, err)
	assert.False(t, applied)

	var stored models.Enrollment
	require.NoError(t, db.First(&stored, "id = ?", referrer.ID).Error)
	assert.Equal(t, int64(1), stored.ReferralPoints)
}

func TestComplete_NoPendingReferral(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	referred := createTestEnrollment(t, db, "user-b", camp.ID, 1, "CODEBBBB")

	outcome, err := referrals.Complete(referred.ID)
	require.NoError(t, err)
	assert.Equal(t, CompleteNoPending, outcome)
}

func TestComplete_BadgeAtThreshold(t *testing.T) {
	referrals, badges, camp, db := newReferralFixture(t)
	createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")

	for i := 0; i < models.ReferralChampionThreshold; i++ {
		referred := createTestEnrollment(t, db,
			fmt.Sprintf("friend-%d", i), camp.ID, 1, fmt.Sprintf("FRIEND%02d", i))

		outcome, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
		require.NoError(t, err)
		require.Equal(t, AttributeCreated, outcome)

		outcome2, err := referrals.Complete(referred.ID)
		require.NoError(t, err)
		require.Equal(t, CompleteDone, outcome2)

		has, err := badges.HasBadge("user-a", models.BadgeReferralChampion)
		require.NoError(t, err)
		assert.Equal(t, i == models.ReferralChampionThreshold-1, has,
			"badge state wrong after %d completed referrals", i+1)
	}
}

func TestCohortReferralStats_ExcludesSupervisors(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	referrer := createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")
	referred := createTestEnrollment(t, db, "user-b", camp.ID, 1, "CODEBBBB")
	createTestEnrollment(t, db, "supervisor-1", camp.ID, 1, "CODESSSS")

	require.NoError(t, db.Create(&models.CampSupervisor{
		ID:     uuid.NewString(),
		CampID: camp.ID,
		UserID: "supervisor-1",
	}).Error)

	_, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
	require.NoError(t, err)
	_, err = referrals.Complete(referred.ID)
	require.NoError(t, err)

	stats, err := referrals.CohortReferralStats(camp.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["pending"])
	assert.Equal(t, int64(1), stats["completed"])

	board := stats["leaderboard"].([]LeaderboardRow)
	userIDs := make([]string, 0, len(board))
	for _, row := range board {
		userIDs = append(userIDs, row.UserID)
	}
	assert.Contains(t, userIDs, referrer.UserID)
	assert.NotContains(t, userIDs, "supervisor-1")
}

func TestListCohortReferrals(t *testing.T) {
	referrals, _, camp, db := newReferralFixture(t)
	createTestEnrollment(t, db, "user-a", camp.ID, 1, "CODEAAAA")
	referred := createTestEnrollment(t, db, "user-b", camp.ID, 1, "CODEBBBB")

	_, err := referrals.Attribute("CODEAAAA", referred.ID, 1)
	require.NoError(t, err)

	edges, err := referrals.ListCohortReferrals(camp.ID, 1)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, referred.ID, edges[0].ReferredEnrollmentID)
}
