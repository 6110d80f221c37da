package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission tier of a board member. The permission set for
// each role lives in the access package; nothing should compare roles by
// ordinal.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// roleRank orders roles for display (most privileged first).
var roleRank = map[Role]int{
	RoleOwner:  0,
	RoleAdmin:  1,
	RoleMember: 2,
	RoleViewer: 3,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the display ordering of the role. Unknown roles sort last.
func (r Role) Rank() int {
	if rank, ok := roleRank[r]; ok {
		return rank
	}
	return len(roleRank)
}

// BoardMember links a user to a board with a role. One row per (board, user)
// pair; removal deactivates the row instead of deleting it so invitation
// history stays intact.
type BoardMember struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_board_member" json:"board_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_board_member" json:"user_id"`
	Role     Role      `gorm:"not null;default:'member'" json:"role"`
	IsActive bool      `gorm:"not null;default:true" json:"is_active"`

	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	InvitedByID *uuid.UUID `gorm:"type:uuid" json:"invited_by_id,omitempty"`
	InvitedAt   *time.Time `json:"invited_at,omitempty"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`

	Board     Board `gorm:"foreignKey:BoardID" json:"-"`
	User      User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	InvitedBy *User `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
}
