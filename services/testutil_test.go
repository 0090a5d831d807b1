package services

import (
	"testing"

	"camp-study-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the full schema.
// MaxOpenConns(1) keeps every GORM session on the same sqlite connection,
// otherwise each pooled connection would see its own empty :memory: DB.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Camp{},
		&models.Cohort{},
		&models.Enrollment{},
		&models.EnrollmentSettings{},
		&models.CampReferral{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.CampSupervisor{},
		&models.FriendRequest{},
		&models.TaskProgress{},
		&models.CampNotification{},
		&models.NotificationStats{},
		&models.CampUser{},
	))
	return db
}

func createTestCamp(t *testing.T, db *gorm.DB, status string, maxParticipants int) *models.Camp {
	t.Helper()
	camp := &models.Camp{
		ID:              uuid.NewString(),
		Name:            "Sahih Study Camp",
		Slug:            "sahih-study-camp-" + uuid.NewString()[:8],
		Status:          status,
		CurrentCohort:   1,
		MaxParticipants: maxParticipants,
	}
	require.NoError(t, db.Create(camp).Error)
	return camp
}

func createTestCohort(t *testing.T, db *gorm.DB, campID string, number int, status string, isOpen bool) *models.Cohort {
	t.Helper()
	cohort := &models.Cohort{
		ID:     uuid.NewString(),
		CampID: campID,
		Number: number,
		Status: status,
		IsOpen: isOpen,
	}
	require.NoError(t, db.Create(cohort).Error)
	return cohort
}

func createTestEnrollment(t *testing.T, db *gorm.DB, userID, campID string, cohortNumber int, code string) *models.Enrollment {
	t.Helper()
	enrollment := &models.Enrollment{
		ID:           uuid.NewString(),
		UserID:       userID,
		CampID:       campID,
		CohortNumber: cohortNumber,
		Status:       models.EnrollmentStatusEnrolled,
		ReferralCode: code,
	}
	require.NoError(t, db.Create(enrollment).Error)
	return enrollment
}

// newEnrollmentStack wires the service graph the way main does, minus the
// external notifier and mailer.
func newEnrollmentStack(t *testing.T, db *gorm.DB) (*EnrollmentService, *ReferralService, *BadgeService) {
	t.Helper()
	resolver := NewCohortResolver(db)
	badges := NewBadgeService(db)
	require.NoError(t, badges.EnsureBadgeCatalog())
	referrals := NewReferralService(db, badges)
	enrollments := NewEnrollmentService(db, resolver, referrals, badges, nil, nil, NewMemoryLeaderboardCache(0))
	return enrollments, referrals, badges
}
