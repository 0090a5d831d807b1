package services

import (
	"errors"

	"camp-study-system/models"

	"gorm.io/gorm"
)

// MembershipService removes an enrollment and every dependent record as one
// atomic unit. Leave is self-initiated and also clears the member's
// notification history; RemoveFromCamp is the admin variant and keeps it.
type MembershipService struct {
	DB       *gorm.DB
	Resolver *CohortResolver
	Cache    LeaderboardCache
}

func NewMembershipService(db *gorm.DB, resolver *CohortResolver, cache LeaderboardCache) *MembershipService {
	return &MembershipService{DB: db, Resolver: resolver, Cache: cache}
}

func (s *MembershipService) Leave(campID, userID string) error {
	return s.teardown(campID, userID, true)
}

func (s *MembershipService) RemoveFromCamp(campID, userID string) error {
	return s.teardown(campID, userID, false)
}

func (s *MembershipService) teardown(campID, userID string, dropNotifications bool) error {
	if campID == "" || userID == "" {
		return ErrInvalidInput
	}
	cohort := s.Resolver.ResolveCurrentCohort(campID)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		err := tx.Where("user_id = ? AND camp_id = ? AND cohort_number = ?", userID, campID, cohort).
			First(&enrollment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEnrolled
			}
			return err
		}

		if err := tx.Where("enrollment_id = ?", enrollment.ID).
			Delete(&models.TaskProgress{}).Error; err != nil {
			return err
		}

		if dropNotifications {
			if err := tx.Where("user_id = ? AND camp_id = ?", userID, campID).
				Delete(&models.CampNotification{}).Error; err != nil {
				return err
			}
			if err := tx.Where("enrollment_id = ?", enrollment.ID).
				Delete(&models.NotificationStats{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("enrollment_id = ?", enrollment.ID).
			Delete(&models.EnrollmentSettings{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Enrollment{}, "id = ?", enrollment.ID).Error; err != nil {
			return err
		}

		// Pending friend requests between the departing user and anyone
		// still enrolled in the same cohort go with them.
		members := tx.Model(&models.Enrollment{}).
			Select("user_id").
			Where("camp_id = ? AND cohort_number = ?", campID, cohort)
		return tx.Where("camp_id = ? AND status = ?", campID, models.FriendRequestPending).
			Where("(from_user_id = ? AND to_user_id IN (?)) OR (to_user_id = ? AND from_user_id IN (?))",
				userID, members, userID, members).
			Delete(&models.FriendRequest{}).Error
	})
	if err != nil {
		return err
	}

	if s.Cache != nil {
		s.Cache.Invalidate(campID)
	}
	return nil
}
