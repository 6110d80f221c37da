package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

// Create inserts the card and applies any sibling renumbering in the same
// transaction.
func (r *CardRepository) Create(ctx context.Context, card *model.Card, reorder []PositionUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyPositions(tx, &model.Card{}, reorder); err != nil {
			return err
		}
		return tx.Create(card).Error
	})
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

func (r *CardRepository) GetByListID(ctx context.Context, listID uuid.UUID) ([]model.Card, error) {
	var cards []model.Card
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("position, id").
		Find(&cards).Error
	return cards, err
}

func (r *CardRepository) Update(ctx context.Context, card *model.Card) error {
	return r.db.WithContext(ctx).Save(card).Error
}

// Move changes the card's list reference and position atomically, applying
// sibling renumbering in the same transaction. The target list is
// re-checked inside the transaction: a list deleted mid-move surfaces as
// ErrListNotFound instead of a dangling reference.
func (r *CardRepository) Move(ctx context.Context, cardID, targetListID uuid.UUID, newPosition int, reorder []PositionUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target model.List
		if err := tx.Where("id = ?", targetListID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListNotFound
			}
			return err
		}

		if err := applyPositions(tx, &model.Card{}, reorder); err != nil {
			return err
		}

		res := tx.Model(&model.Card{}).Where("id = ?", cardID).
			Updates(map[string]any{"list_id": targetListID, "position": newPosition})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCardNotFound
		}
		return nil
	})
}

func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Card{}, id).Error
}
