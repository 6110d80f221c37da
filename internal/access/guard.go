// Package access resolves what a user may do on a board. Every read that
// exposes board contents and every mutation goes through Resolve first.
package access

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
)

var (
	// ErrBoardNotFound maps to 404: the board id does not resolve at all.
	ErrBoardNotFound = errors.New("access: board not found")

	// ErrNoAccess maps to 403: the board exists but the user has no
	// active membership on it.
	ErrNoAccess = errors.New("access: no access to board")
)

// Permissions is the capability set a role grants. Kept as an explicit
// table rather than ordinal comparisons on the role enum, so adding or
// reordering roles cannot silently change what anyone may do.
type Permissions struct {
	EditBoard     bool
	ManageMembers bool
	CreateLists   bool
	EditCards     bool
	DeleteBoard   bool
}

var rolePermissions = map[model.Role]Permissions{
	model.RoleOwner: {
		EditBoard:     true,
		ManageMembers: true,
		CreateLists:   true,
		EditCards:     true,
		DeleteBoard:   true,
	},
	model.RoleAdmin: {
		EditBoard:     true,
		ManageMembers: true,
		CreateLists:   true,
		EditCards:     true,
	},
	model.RoleMember: {
		CreateLists: true,
		EditCards:   true,
	},
	model.RoleViewer: {},
}

// PermissionsFor returns the capability set of a role. Unknown roles get an
// empty set.
func PermissionsFor(role model.Role) Permissions {
	return rolePermissions[role]
}

// Access is the resolved outcome for one (user, board) pair.
type Access struct {
	Role        model.Role
	Permissions Permissions
}

type BoardSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
}

type MemberSource interface {
	GetActive(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardMember, error)
}

// Guard re-derives effective access per request. Role changes and
// deactivations therefore apply from the next check onward; nothing is
// cached.
type Guard struct {
	boards  BoardSource
	members MemberSource
}

func NewGuard(boards BoardSource, members MemberSource) *Guard {
	return &Guard{boards: boards, members: members}
}

// Resolve returns the user's effective role and permissions on the board.
// The board owner is always Owner regardless of membership rows.
func (g *Guard) Resolve(ctx context.Context, userID, boardID uuid.UUID) (Access, error) {
	board, err := g.boards.GetByID(ctx, boardID)
	if err != nil {
		return Access{}, err
	}
	if board == nil {
		return Access{}, ErrBoardNotFound
	}

	if board.OwnerID == userID {
		return Access{Role: model.RoleOwner, Permissions: PermissionsFor(model.RoleOwner)}, nil
	}

	member, err := g.members.GetActive(ctx, boardID, userID)
	if err != nil {
		return Access{}, err
	}
	if member == nil {
		return Access{}, ErrNoAccess
	}

	return Access{Role: member.Role, Permissions: PermissionsFor(member.Role)}, nil
}
