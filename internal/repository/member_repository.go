package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// GetActive returns the user's active membership on the board, nil when the
// user has none.
func (r *MemberRepository) GetActive(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardMember, error) {
	var member model.BoardMember
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ? AND is_active = ?", boardID, userID, true).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByBoardAndUser returns the membership row regardless of active flag.
// Used when accepting an invitation to reactivate a previously removed
// member instead of violating the (board, user) unique index.
func (r *MemberRepository) GetByBoardAndUser(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardMember, error) {
	var member model.BoardMember
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) ListActive(ctx context.Context, boardID uuid.UUID) ([]model.BoardMember, error) {
	var members []model.BoardMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("InvitedBy").
		Where("board_id = ? AND is_active = ?", boardID, true).
		Order("joined_at").
		Find(&members).Error
	return members, err
}

// GetActiveByEmail looks up an active membership through the member's user
// email, for rejecting invitations to people already on the board.
func (r *MemberRepository) GetActiveByEmail(ctx context.Context, boardID uuid.UUID, email string) (*model.BoardMember, error) {
	var member model.BoardMember
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = board_members.user_id").
		Where("board_members.board_id = ? AND board_members.is_active = ? AND users.email = ?", boardID, true, email).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) Create(ctx context.Context, member *model.BoardMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *MemberRepository) Update(ctx context.Context, member *model.BoardMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}
