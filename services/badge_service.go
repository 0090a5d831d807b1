package services

import (
	"errors"
	"log"

	"camp-study-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// EnsureBadgeCatalog seeds the static badge types. Safe to run at every
// startup; existing rows are left untouched.
func (s *BadgeService) EnsureBadgeCatalog() error {
	for _, badge := range models.BadgeCatalog {
		var existing models.BadgeType
		err := s.DB.Where("code = ?", badge.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		badge.ID = uuid.NewString()
		if err := s.DB.Create(&badge).Error; err != nil {
			return err
		}
	}
	return nil
}

// Award grants the badge with the given code once per user. Re-awarding is
// a no-op, so callers can invoke it blindly after every qualifying event.
func (s *BadgeService) Award(userID, code, metadata string) error {
	var badgeType models.BadgeType
	if err := s.DB.Where("code = ?", code).First(&badgeType).Error; err != nil {
		return err
	}

	var count int64
	if err := s.DB.Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_type_id = ?", userID, badgeType.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	userBadge := models.UserBadge{
		ID:          uuid.NewString(),
		UserID:      userID,
		BadgeTypeID: badgeType.ID,
		Metadata:    metadata,
	}
	if err := s.DB.Create(&userBadge).Error; err != nil {
		return err
	}
	log.Printf("Badge awarded: %s -> %s", badgeType.Name, userID)
	return nil
}

// HasBadge reports whether the user already holds the badge with this code.
func (s *BadgeService) HasBadge(userID, code string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.UserBadge{}).
		Joins("JOIN badge_types ON badge_types.id = user_badges.badge_type_id").
		Where("user_badges.user_id = ? AND badge_types.code = ?", userID, code).
		Count(&count).Error
	return count > 0, err
}

// ListUserBadges returns every badge the user holds, newest first.
func (s *BadgeService) ListUserBadges(userID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := s.DB.Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&badges).Error
	return badges, err
}
