package models

import "time"

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestDeclined = "declined"
)

// FriendRequest is a pending study-buddy link between two members of the
// same camp. Pending requests involving a departing member are purged by
// membership teardown.
type FriendRequest struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	CampID     string `gorm:"index;not null" json:"camp_id"`
	FromUserID string `gorm:"index;not null" json:"from_user_id"`
	ToUserID   string `gorm:"index;not null" json:"to_user_id"`
	Status     string `gorm:"type:varchar(16);default:'pending'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
