package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"camp-study-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralPointIncrement is the fixed score a completed referral is worth.
const ReferralPointIncrement = 1

// AttributeOutcome classifies what Attribute did. All outcomes are
// non-fatal: an unusable code never blocks the enrollment that presented it.
type AttributeOutcome string

const (
	AttributeCreated           AttributeOutcome = "created"
	AttributeInvalidCode       AttributeOutcome = "invalid_code"
	AttributeSelfReferral      AttributeOutcome = "self_referral"
	AttributeCrossCamp         AttributeOutcome = "cross_camp"
	AttributeAlreadyAttributed AttributeOutcome = "already_attributed"
)

// CompleteOutcome classifies what Complete did.
type CompleteOutcome string

const (
	CompleteDone      CompleteOutcome = "completed"
	CompleteAlready   CompleteOutcome = "already_completed"
	CompleteNoPending CompleteOutcome = "no_pending_referral"
)

// ReferralService records referral edges at signup time, completes them once
// the referred member is durably enrolled, and hands out the referral badge.
// Both operations are idempotent by construction: existence and status
// checks precede every write.
type ReferralService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewReferralService(db *gorm.DB, badges *BadgeService) *ReferralService {
	return &ReferralService{DB: db, Badges: badges}
}

// Attribute links the enrollment owning `code` to the freshly created
// enrollment as a pending referral. The referred enrollment must already be
// persisted.
func (s *ReferralService) Attribute(code, referredEnrollmentID string, cohortNumber int) (AttributeOutcome, error) {
	var referred models.Enrollment
	if err := s.DB.First(&referred, "id = ?", referredEnrollmentID).Error; err != nil {
		return AttributeInvalidCode, fmt.Errorf("referred enrollment not found: %w", err)
	}

	var referrer models.Enrollment
	err := s.DB.Where("referral_code = ? AND cohort_number = ?", code, cohortNumber).
		First(&referrer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttributeInvalidCode, nil
		}
		return AttributeInvalidCode, err
	}

	if referrer.UserID == referred.UserID || referrer.ID == referred.ID {
		return AttributeSelfReferral, nil
	}
	if referrer.CampID != referred.CampID {
		return AttributeCrossCamp, nil
	}

	var existing int64
	if err := s.DB.Model(&models.CampReferral{}).
		Where("referred_enrollment_id = ? AND cohort_number = ?", referred.ID, cohortNumber).
		Count(&existing).Error; err != nil {
		return AttributeInvalidCode, err
	}
	if existing > 0 {
		return AttributeAlreadyAttributed, nil
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		referral := models.CampReferral{
			ID:                   uuid.NewString(),
			CampID:               referred.CampID,
			CohortNumber:         cohortNumber,
			ReferrerEnrollmentID: referrer.ID,
			ReferredEnrollmentID: referred.ID,
			CodeUsed:             code,
			Status:               models.ReferralStatusPending,
		}
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}
		return tx.Model(&models.Enrollment{}).
			Where("id = ?", referred.ID).
			Update("referrer_enrollment_id", referrer.ID).Error
	})
	if txErr != nil {
		return AttributeInvalidCode, txErr
	}
	return AttributeCreated, nil
}

// Complete transitions the most recent pending referral for this referred
// enrollment to completed, awards the point to the referrer, and checks the
// badge threshold. Repeat calls are no-ops.
func (s *ReferralService) Complete(referredEnrollmentID string) (CompleteOutcome, error) {
	var referral models.CampReferral
	err := s.DB.Where("referred_enrollment_id = ? AND status = ?", referredEnrollmentID, models.ReferralStatusPending).
		Order("created_at DESC").
		First(&referral).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return CompleteNoPending, err
		}
		var completedCount int64
		if err := s.DB.Model(&models.CampReferral{}).
			Where("referred_enrollment_id = ? AND status = ?", referredEnrollmentID, models.ReferralStatusCompleted).
			Count(&completedCount).Error; err != nil {
			return CompleteNoPending, err
		}
		if completedCount > 0 {
			return CompleteAlready, nil
		}
		return CompleteNoPending, nil
	}

	applied, err := s.finalizeReferral(&referral)
	if err != nil {
		return CompleteNoPending, err
	}
	if !applied {
		// lost a race with another completion; that caller awarded the
		// point, so this one did nothing
		return CompleteAlready, nil
	}

	if err := s.evaluateReferralBadge(referral.ReferrerEnrollmentID); err != nil {
		log.Printf("[REFERRAL] badge evaluation failed for enrollment %s: %v", referral.ReferrerEnrollmentID, err)
	}
	return CompleteDone, nil
}

// finalizeReferral transitions one pending edge to completed and awards the
// point, both inside one transaction. The status guard on the UPDATE makes
// the transition single-shot: applied is false when another completion got
// there first, and in that case nothing is written.
func (s *ReferralService) finalizeReferral(referral *models.CampReferral) (applied bool, err error) {
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.CampReferral{}).
			Where("id = ? AND status = ?", referral.ID, models.ReferralStatusPending).
			Updates(map[string]interface{}{
				"status":         models.ReferralStatusCompleted,
				"completed_at":   &now,
				"points_awarded": ReferralPointIncrement,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		applied = true
		return tx.Model(&models.Enrollment{}).
			Where("id = ?", referral.ReferrerEnrollmentID).
			Update("referral_points", gorm.Expr("referral_points + ?", ReferralPointIncrement)).Error
	})
	return applied, err
}

// evaluateReferralBadge counts the referrer's lifetime completed referrals
// across every camp and cohort and grants the badge once at the threshold.
func (s *ReferralService) evaluateReferralBadge(referrerEnrollmentID string) error {
	var referrer models.Enrollment
	if err := s.DB.First(&referrer, "id = ?", referrerEnrollmentID).Error; err != nil {
		return err
	}

	var lifetime int64
	err := s.DB.Model(&models.CampReferral{}).
		Joins("JOIN enrollments ON enrollments.id = camp_referrals.referrer_enrollment_id").
		Where("enrollments.user_id = ? AND camp_referrals.status = ?", referrer.UserID, models.ReferralStatusCompleted).
		Count(&lifetime).Error
	if err != nil {
		return err
	}
	if lifetime < models.ReferralChampionThreshold {
		return nil
	}
	return s.Badges.Award(referrer.UserID, models.BadgeReferralChampion,
		fmt.Sprintf(`{"completed_referrals": %d}`, lifetime))
}

// CohortReferralStats summarizes referral activity for one cohort:
// pending/completed totals plus a per-referrer leaderboard. Supervisors are
// excluded from the leaderboard using the same scoping rule the capacity
// check applies (a nil cohort on the supervisor record covers all cohorts).
func (s *ReferralService) CohortReferralStats(campID string, cohortNumber int) (map[string]interface{}, error) {
	var pending, completed int64
	if err := s.DB.Model(&models.CampReferral{}).
		Where("camp_id = ? AND cohort_number = ? AND status = ?", campID, cohortNumber, models.ReferralStatusPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.CampReferral{}).
		Where("camp_id = ? AND cohort_number = ? AND status = ?", campID, cohortNumber, models.ReferralStatusCompleted).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	var board []LeaderboardRow
	err := s.DB.Raw(`
		SELECT e.user_id,
		       e.referral_points,
		       COUNT(r.id) AS completed_referrals
		FROM enrollments e
		LEFT JOIN camp_referrals r
		       ON r.referrer_enrollment_id = e.id AND r.status = ?
		WHERE e.camp_id = ? AND e.cohort_number = ?
		  AND NOT EXISTS (
		      SELECT 1 FROM camp_supervisors cs
		      WHERE cs.camp_id = e.camp_id
		        AND cs.user_id = e.user_id
		        AND (cs.cohort_number IS NULL OR cs.cohort_number = e.cohort_number)
		  )
		GROUP BY e.id, e.user_id, e.referral_points
		ORDER BY e.referral_points DESC, completed_referrals DESC
		LIMIT 50
	`, models.ReferralStatusCompleted, campID, cohortNumber).Scan(&board).Error
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"camp_id":       campID,
		"cohort_number": cohortNumber,
		"pending":       pending,
		"completed":     completed,
		"leaderboard":   board,
	}, nil
}

// ListCohortReferrals returns the cohort's referral edges, newest first.
func (s *ReferralService) ListCohortReferrals(campID string, cohortNumber int) ([]models.CampReferral, error) {
	var referrals []models.CampReferral
	err := s.DB.Where("camp_id = ? AND cohort_number = ?", campID, cohortNumber).
		Order("created_at DESC").
		Find(&referrals).Error
	return referrals, err
}
