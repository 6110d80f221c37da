package model

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationExpired   InvitationStatus = "expired"
	InvitationCancelled InvitationStatus = "cancelled"
)

// InvitationTTL is how long an invitation stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

// BoardInvitation is a pending offer of a role to an email address. At most
// one pending invitation may exist per (board, email). Terminal statuses are
// never mutated again.
type BoardInvitation struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"board_id"`
	Email         string           `gorm:"not null;index" json:"email"`
	InvitedUserID *uuid.UUID       `gorm:"type:uuid" json:"invited_user_id,omitempty"`
	InvitedByID   uuid.UUID        `gorm:"type:uuid;not null" json:"invited_by_id"`
	ProposedRole  Role             `gorm:"not null;default:'member'" json:"proposed_role"`
	Status        InvitationStatus `gorm:"not null;default:'pending';index" json:"status"`
	Token         string           `gorm:"uniqueIndex;not null" json:"token"`
	Message       string           `json:"message"`

	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	Board     Board `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	InvitedBy User  `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
}

// IsValid reports whether the invitation can still be redeemed.
func (i *BoardInvitation) IsValid() bool {
	return i.Status == InvitationPending && time.Now().Before(i.ExpiresAt)
}
