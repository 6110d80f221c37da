package repository

import (
	"context"
	"errors"
	"time"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *model.BoardInvitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.BoardInvitation, error) {
	var inv model.BoardInvitation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*model.BoardInvitation, error) {
	var inv model.BoardInvitation
	err := r.db.WithContext(ctx).
		Preload("Board").
		Where("token = ?", token).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepository) GetPending(ctx context.Context, boardID uuid.UUID, email string) (*model.BoardInvitation, error) {
	var inv model.BoardInvitation
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND email = ? AND status = ?", boardID, email, model.InvitationPending).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepository) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.BoardInvitation, error) {
	var invs []model.BoardInvitation
	err := r.db.WithContext(ctx).
		Preload("InvitedBy").
		Where("board_id = ?", boardID).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

func (r *InvitationRepository) Update(ctx context.Context, inv *model.BoardInvitation) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

// Accept atomically turns a pending invitation into an active membership.
// The status check runs inside the transaction, so two racing accepts of
// the same token cannot both succeed.
func (r *InvitationRepository) Accept(ctx context.Context, invitationID, userID uuid.UUID) (*model.BoardMember, error) {
	var member *model.BoardMember

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv model.BoardInvitation
		if err := tx.Where("id = ?", invitationID).First(&inv).Error; err != nil {
			return err
		}
		if inv.Status != model.InvitationPending {
			return ErrInvitationNotPending
		}

		now := time.Now().UTC()

		var existing model.BoardMember
		err := tx.Where("board_id = ? AND user_id = ?", inv.BoardID, userID).First(&existing).Error
		switch {
		case err == nil:
			// Previously removed member rejoining: reactivate the row.
			existing.IsActive = true
			existing.Role = inv.ProposedRole
			existing.InvitedByID = &inv.InvitedByID
			existing.InvitedAt = &inv.CreatedAt
			existing.AcceptedAt = &now
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			member = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			fresh := model.BoardMember{
				BoardID:     inv.BoardID,
				UserID:      userID,
				Role:        inv.ProposedRole,
				IsActive:    true,
				InvitedByID: &inv.InvitedByID,
				InvitedAt:   &inv.CreatedAt,
				AcceptedAt:  &now,
			}
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
			member = &fresh
		default:
			return err
		}

		return tx.Model(&model.BoardInvitation{}).
			Where("id = ?", inv.ID).
			Updates(map[string]any{
				"status":          model.InvitationAccepted,
				"responded_at":    now,
				"invited_user_id": userID,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}
