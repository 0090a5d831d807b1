package services

import (
	"errors"
	"fmt"
	"log"
	"os"

	"camp-study-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollResult is what a successful enrollment reports back to the handler.
type EnrollResult struct {
	EnrollmentID string `json:"enrollment_id"`
	CohortNumber int    `json:"cohort_number"`
	ReferralCode string `json:"referral_code"`
	ReadOnly     bool   `json:"read_only"`
	IsSupervisor bool   `json:"is_supervisor"`
}

// EnrollmentService validates eligibility, enforces capacity, creates the
// enrollment plus its settings row, and fires the welcome side effects.
// Referral bookkeeping and welcome delivery are best-effort: their failures
// are logged and never surfaced to the enrolling user.
type EnrollmentService struct {
	DB        *gorm.DB
	Resolver  *CohortResolver
	Referrals *ReferralService
	Badges    *BadgeService
	Notifier  WelcomeNotifier
	Mailer    CampMailer
	Cache     LeaderboardCache
}

func NewEnrollmentService(db *gorm.DB, resolver *CohortResolver, referrals *ReferralService, badges *BadgeService, notifier WelcomeNotifier, mailer CampMailer, cache LeaderboardCache) *EnrollmentService {
	return &EnrollmentService{
		DB:        db,
		Resolver:  resolver,
		Referrals: referrals,
		Badges:    badges,
		Notifier:  notifier,
		Mailer:    mailer,
		Cache:     cache,
	}
}

// Enroll joins userID to campID. cohortPreference <= 0 means "whatever is
// current"; an invalid explicit preference silently falls back rather than
// erroring. presentedCode is the referrer's code, empty when none was used.
func (s *EnrollmentService) Enroll(campID, userID string, cohortPreference int, presentedCode string, hideIdentity bool) (*EnrollResult, error) {
	if campID == "" || userID == "" {
		return nil, ErrInvalidInput
	}

	var camp models.Camp
	if err := s.DB.First(&camp, "id = ?", campID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCohortUnavailable
		}
		return nil, err
	}

	target := s.Resolver.ResolveCurrentCohort(campID)

	// An explicit cohort request is honored only when that cohort exists and
	// still accepts members; anything else falls back to the resolved one.
	if cohortPreference > 0 && cohortPreference != target {
		var requested models.Cohort
		err := s.DB.Where("camp_id = ? AND number = ?", campID, cohortPreference).
			First(&requested).Error
		if err == nil && cohortAcceptsMembers(&requested) {
			target = cohortPreference
		}
	}

	var cohort models.Cohort
	if err := s.DB.Where("camp_id = ? AND number = ?", campID, target).
		First(&cohort).Error; err != nil {
		return nil, ErrCohortUnavailable
	}

	// Enrollment into a finished camp is still allowed (for catching up on
	// archived material) but suppresses the welcome side effects.
	readOnly := camp.Status == models.CampStatusCompleted || camp.Status == models.CampStatusCancelled

	isSupervisor, err := s.isSupervisor(campID, userID, target)
	if err != nil {
		return nil, err
	}

	enrollment := &models.Enrollment{}
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		// Lock the cohort row so the capacity count and the insert can't
		// interleave with a concurrent enrollment into the same cohort.
		var locked models.Cohort
		if err := lockForUpdate(tx).
			Where("camp_id = ? AND number = ?", campID, target).
			First(&locked).Error; err != nil {
			return ErrCohortUnavailable
		}

		maxSeats := locked.MaxParticipants
		if maxSeats <= 0 {
			maxSeats = camp.MaxParticipants
		}
		if maxSeats > 0 && !isSupervisor {
			taken, err := countEnrolledExcludingSupervisors(tx, campID, target)
			if err != nil {
				return err
			}
			if taken >= int64(maxSeats) {
				return ErrCapacityReached
			}
		}

		var existing models.Enrollment
		err := tx.Where("user_id = ? AND camp_id = ? AND cohort_number = ?", userID, campID, target).
			First(&existing).Error
		if err == nil {
			return ErrAlreadyEnrolled
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		code, fellBack := generateReferralCode(tx, campID, userID)
		if fellBack {
			log.Printf("[ENROLL] referral code fallback used for user %s in camp %s", userID, campID)
		}

		*enrollment = models.Enrollment{
			ID:           uuid.NewString(),
			UserID:       userID,
			CampID:       campID,
			CohortNumber: target,
			Status:       models.EnrollmentStatusEnrolled,
			ReferralCode: code,
		}
		if err := tx.Create(enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrIntegrityConflict
			}
			return err
		}

		settings := models.EnrollmentSettings{
			ID:                  uuid.NewString(),
			EnrollmentID:        enrollment.ID,
			HideIdentity:        hideIdentity,
			NotifyDailyReminder: true,
			NotifyQAReplies:     true,
		}
		if err := tx.Create(&settings).Error; err != nil {
			return err
		}

		stats := models.NotificationStats{
			ID:           uuid.NewString(),
			EnrollmentID: enrollment.ID,
			UserID:       userID,
			CampID:       campID,
		}
		return tx.Create(&stats).Error
	})
	if txErr != nil {
		var ce *CampError
		if errors.As(txErr, &ce) {
			return nil, ce
		}
		return nil, txErr
	}

	// Everything past the commit is best-effort. Referral bookkeeping must
	// not block an enrollment that is already durable.
	if presentedCode != "" {
		if outcome, err := s.Referrals.Attribute(presentedCode, enrollment.ID, target); err != nil {
			log.Printf("[ENROLL] referral attribution failed for enrollment %s: %v", enrollment.ID, err)
		} else if outcome != AttributeCreated {
			log.Printf("[ENROLL] referral code %q not attributed for enrollment %s: %s", presentedCode, enrollment.ID, outcome)
		}
	}
	if _, err := s.Referrals.Complete(enrollment.ID); err != nil {
		log.Printf("[ENROLL] referral completion failed for enrollment %s: %v", enrollment.ID, err)
	}

	if err := s.Badges.Award(userID, models.BadgeFirstEnrollment, ""); err != nil {
		log.Printf("[ENROLL] first-enrollment badge failed for user %s: %v", userID, err)
	}

	if !readOnly {
		s.fireWelcome(userID, &camp)
	}
	if s.Cache != nil {
		s.Cache.Invalidate(campID)
	}

	return &EnrollResult{
		EnrollmentID: enrollment.ID,
		CohortNumber: target,
		ReferralCode: enrollment.ReferralCode,
		ReadOnly:     readOnly,
		IsSupervisor: isSupervisor,
	}, nil
}

func (s *EnrollmentService) fireWelcome(userID string, camp *models.Camp) {
	if s.Notifier != nil {
		if err := s.Notifier.SendWelcomeNotification(userID, camp.ID, camp.Name); err != nil {
			log.Printf("[ENROLL] welcome notification failed for user %s: %v", userID, err)
		}
	}
	if s.Mailer == nil {
		return
	}
	var user models.CampUser
	if err := s.DB.Where("external_user_id = ?", userID).First(&user).Error; err != nil {
		log.Printf("[ENROLL] no profile snapshot for user %s, skipping welcome email", userID)
		return
	}
	if err := s.Mailer.SendCampWelcomeEmail(user.Email, user.Username, camp.Name, camp.ID); err != nil {
		log.Printf("[ENROLL] welcome email failed for user %s: %v", userID, err)
	}
}

// isSupervisor applies the normalized scoping rule: a supervisor record
// covers the cohort when its cohort number matches or is nil (all cohorts).
func (s *EnrollmentService) isSupervisor(campID, userID string, cohortNumber int) (bool, error) {
	var count int64
	err := s.DB.Model(&models.CampSupervisor{}).
		Where("camp_id = ? AND user_id = ?", campID, userID).
		Where("cohort_number IS NULL OR cohort_number = ?", cohortNumber).
		Count(&count).Error
	return count > 0, err
}

// GetReferralLink returns the shareable link for the user's enrollment in
// the camp's current cohort.
func (s *EnrollmentService) GetReferralLink(campID, userID string) (string, string, error) {
	cohort := s.Resolver.ResolveCurrentCohort(campID)
	var enrollment models.Enrollment
	err := s.DB.Where("user_id = ? AND camp_id = ? AND cohort_number = ?", userID, campID, cohort).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrNotEnrolled
		}
		return "", "", err
	}

	issuer := NewReferralCodeIssuer(s.DB)
	code, err := issuer.GetOrCreateCode(enrollment.ID)
	if err != nil {
		return "", "", err
	}
	base := os.Getenv("APP_BASE_URL")
	link := fmt.Sprintf("%s/camps/%s/join?ref=%s", base, campID, code)
	return code, link, nil
}

// GetSettings returns the settings row for the user's current-cohort enrollment.
func (s *EnrollmentService) GetSettings(campID, userID string) (*models.EnrollmentSettings, error) {
	enrollment, err := s.currentEnrollment(campID, userID)
	if err != nil {
		return nil, err
	}
	var settings models.EnrollmentSettings
	if err := s.DB.Where("enrollment_id = ?", enrollment.ID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// SettingsUpdate carries the fields a member may change. Pointers so a PATCH
// only touches what it sends.
type SettingsUpdate struct {
	HideIdentity        *bool `json:"hide_identity,omitempty"`
	NotifyDailyReminder *bool `json:"notify_daily_reminder,omitempty"`
	NotifyQAReplies     *bool `json:"notify_qa_replies,omitempty"`
}

func (s *EnrollmentService) UpdateSettings(campID, userID string, update SettingsUpdate) (*models.EnrollmentSettings, error) {
	enrollment, err := s.currentEnrollment(campID, userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.HideIdentity != nil {
		changes["hide_identity"] = *update.HideIdentity
	}
	if update.NotifyDailyReminder != nil {
		changes["notify_daily_reminder"] = *update.NotifyDailyReminder
	}
	if update.NotifyQAReplies != nil {
		changes["notify_qa_replies"] = *update.NotifyQAReplies
	}
	if len(changes) > 0 {
		if err := s.DB.Model(&models.EnrollmentSettings{}).
			Where("enrollment_id = ?", enrollment.ID).
			Updates(changes).Error; err != nil {
			return nil, err
		}
	}

	var settings models.EnrollmentSettings
	if err := s.DB.Where("enrollment_id = ?", enrollment.ID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *EnrollmentService) currentEnrollment(campID, userID string) (*models.Enrollment, error) {
	cohort := s.Resolver.ResolveCurrentCohort(campID)
	var enrollment models.Enrollment
	err := s.DB.Where("user_id = ? AND camp_id = ? AND cohort_number = ?", userID, campID, cohort).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	return &enrollment, nil
}

func cohortAcceptsMembers(c *models.Cohort) bool {
	return c.IsOpen ||
		c.Status == models.CohortStatusActive ||
		c.Status == models.CohortStatusEarlyRegistration
}

// countEnrolledExcludingSupervisors counts cohort members who occupy a seat.
// Supervisors never count against capacity, whichever cohort scope their
// record carries.
func countEnrolledExcludingSupervisors(tx *gorm.DB, campID string, cohortNumber int) (int64, error) {
	var count int64
	err := tx.Model(&models.Enrollment{}).
		Where("camp_id = ? AND cohort_number = ?", campID, cohortNumber).
		Where(`NOT EXISTS (
			SELECT 1 FROM camp_supervisors cs
			WHERE cs.camp_id = enrollments.camp_id
			  AND cs.user_id = enrollments.user_id
			  AND (cs.cohort_number IS NULL OR cs.cohort_number = enrollments.cohort_number)
		)`).
		Count(&count).Error
	return count, err
}

// lockForUpdate applies a row lock on dialects that support it. SQLite (the
// test database) has no FOR UPDATE; its writes are serialized anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
