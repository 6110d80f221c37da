package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBoardInvitation NotificationType = "board_invitation"
	NotificationMemberAdded     NotificationType = "member_added"
	NotificationMemberRemoved   NotificationType = "member_removed"
	NotificationRoleChanged     NotificationType = "role_changed"
)

type Notification struct {
	ID      uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type    NotificationType `gorm:"not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `json:"message"`
	IsRead  bool             `gorm:"not null;default:false" json:"is_read"`
	BoardID *uuid.UUID       `gorm:"type:uuid" json:"board_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
