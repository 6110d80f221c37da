package access_test

import (
	"context"
	"testing"

	"taskboard/internal/access"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBoardSource struct {
	mock.Mock
}

func (m *MockBoardSource) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	args := m.Called(ctx, id)
	board := args.Get(0)
	if board == nil {
		return nil, args.Error(1)
	}
	return board.(*model.Board), args.Error(1)
}

type MockMemberSource struct {
	mock.Mock
}

func (m *MockMemberSource) GetActive(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardMember, error) {
	args := m.Called(ctx, boardID, userID)
	member := args.Get(0)
	if member == nil {
		return nil, args.Error(1)
	}
	return member.(*model.BoardMember), args.Error(1)
}

func TestResolve_BoardMissing(t *testing.T) {
	boards := new(MockBoardSource)
	members := new(MockMemberSource)
	guard := access.NewGuard(boards, members)

	boardID := uuid.New()
	boards.On("GetByID", mock.Anything, boardID).Return(nil, nil)

	_, err := guard.Resolve(context.Background(), uuid.New(), boardID)
	assert.ErrorIs(t, err, access.ErrBoardNotFound)
}

func TestResolve_OwnerBypassesMembership(t *testing.T) {
	boards := new(MockBoardSource)
	members := new(MockMemberSource)
	guard := access.NewGuard(boards, members)

	ownerID := uuid.New()
	boardID := uuid.New()
	boards.On("GetByID", mock.Anything, boardID).Return(&model.Board{ID: boardID, OwnerID: ownerID}, nil)

	acc, err := guard.Resolve(context.Background(), ownerID, boardID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, acc.Role)
	assert.True(t, acc.Permissions.DeleteBoard)
	members.AssertNotCalled(t, "GetActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_NonMemberIsForbidden(t *testing.T) {
	boards := new(MockBoardSource)
	members := new(MockMemberSource)
	guard := access.NewGuard(boards, members)

	boardID := uuid.New()
	userID := uuid.New()
	boards.On("GetByID", mock.Anything, boardID).Return(&model.Board{ID: boardID, OwnerID: uuid.New()}, nil)
	members.On("GetActive", mock.Anything, boardID, userID).Return(nil, nil)

	_, err := guard.Resolve(context.Background(), userID, boardID)
	assert.ErrorIs(t, err, access.ErrNoAccess)
}

func TestResolve_MemberRoles(t *testing.T) {
	cases := []struct {
		role          model.Role
		canEditCards  bool
		canManage     bool
		canDelete     bool
		canCreateList bool
	}{
		{model.RoleAdmin, true, true, false, true},
		{model.RoleMember, true, false, false, true},
		{model.RoleViewer, false, false, false, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			boards := new(MockBoardSource)
			members := new(MockMemberSource)
			guard := access.NewGuard(boards, members)

			boardID := uuid.New()
			userID := uuid.New()
			boards.On("GetByID", mock.Anything, boardID).Return(&model.Board{ID: boardID, OwnerID: uuid.New()}, nil)
			members.On("GetActive", mock.Anything, boardID, userID).
				Return(&model.BoardMember{BoardID: boardID, UserID: userID, Role: tc.role, IsActive: true}, nil)

			acc, err := guard.Resolve(context.Background(), userID, boardID)
			require.NoError(t, err)
			assert.Equal(t, tc.role, acc.Role)
			assert.Equal(t, tc.canEditCards, acc.Permissions.EditCards)
			assert.Equal(t, tc.canManage, acc.Permissions.ManageMembers)
			assert.Equal(t, tc.canDelete, acc.Permissions.DeleteBoard)
			assert.Equal(t, tc.canCreateList, acc.Permissions.CreateLists)
		})
	}
}

func TestPermissionsFor_UnknownRoleHasNoCapabilities(t *testing.T) {
	perms := access.PermissionsFor(model.Role("intern"))
	assert.Equal(t, access.Permissions{}, perms)
}
