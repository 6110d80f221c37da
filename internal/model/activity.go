package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityBoardCreated      ActivityType = "board_created"
	ActivityBoardUpdated      ActivityType = "board_updated"
	ActivityBoardDeleted      ActivityType = "board_deleted"
	ActivityMemberAdded       ActivityType = "member_added"
	ActivityMemberRemoved     ActivityType = "member_removed"
	ActivityMemberRoleChanged ActivityType = "member_role_changed"
	ActivityListCreated       ActivityType = "list_created"
	ActivityListUpdated       ActivityType = "list_updated"
	ActivityListMoved         ActivityType = "list_moved"
	ActivityListDeleted       ActivityType = "list_deleted"
	ActivityCardCreated       ActivityType = "card_created"
	ActivityCardUpdated       ActivityType = "card_updated"
	ActivityCardMoved         ActivityType = "card_moved"
	ActivityCardDeleted       ActivityType = "card_deleted"
)

// ActivityLog is the per-board audit trail. Rows are written best-effort
// after a mutation is accepted; a failed insert never fails the mutation.
type ActivityLog struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"board_id"`
	ListID      *uuid.UUID   `gorm:"type:uuid" json:"list_id,omitempty"`
	CardID      *uuid.UUID   `gorm:"type:uuid" json:"card_id,omitempty"`
	UserID      *uuid.UUID   `gorm:"type:uuid" json:"user_id,omitempty"`
	Type        ActivityType `gorm:"not null" json:"type"`
	Description string       `gorm:"not null" json:"description"`
	Data        string       `json:"data,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
