package models

import "time"

// Badge type codes
const (
	BadgeReferralChampion = "REFERRAL_CHAMPION"
	BadgeFirstEnrollment  = "FIRST_ENROLLMENT"
	BadgeCampFinisher     = "CAMP_FINISHER"
)

// ReferralChampionThreshold is the lifetime completed-referral count that
// earns the referral badge.
const ReferralChampionThreshold = 3

// BadgeType: static config, seeded at startup
type BadgeType struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	IconURL     string `gorm:"type:text" json:"icon_url,omitempty"`
	Rarity      string `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	// Threshold is the count of the triggering event required for the award.
	Threshold int64     `gorm:"default:1" json:"threshold"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: awarded instance, at most one per (user, badge type)
type UserBadge struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"index;uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeTypeID string    `gorm:"index;uniqueIndex:idx_user_badge;not null" json:"badge_type_id"`
	AwardedAt   time.Time `gorm:"autoCreateTime" json:"awarded_at"`
	Metadata    string    `gorm:"type:text" json:"metadata,omitempty"`
}

// Seeded badge catalog
var BadgeCatalog = []BadgeType{
	{
		Code:        BadgeFirstEnrollment,
		Name:        "First Steps",
		Description: "Joined your first camp",
		Rarity:      "common",
		Threshold:   1,
	},
	{
		Code:        BadgeReferralChampion,
		Name:        "Referral Champion",
		Description: "Brought three friends into a camp",
		Rarity:      "rare",
		Threshold:   ReferralChampionThreshold,
	},
	{
		Code:        BadgeCampFinisher,
		Name:        "Camp Finisher",
		Description: "Completed a full camp",
		Rarity:      "epic",
		Threshold:   1,
	},
}
