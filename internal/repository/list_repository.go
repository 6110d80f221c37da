package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create inserts the list and applies any sibling renumbering produced by
// the position allocator in the same transaction.
func (r *ListRepository) Create(ctx context.Context, list *model.List, reorder []PositionUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyPositions(tx, &model.List{}, reorder); err != nil {
			return err
		}
		return tx.Create(list).Error
	})
}

func (r *ListRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.List, error) {
	var list model.List
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

// GetByBoardID returns the board's lists in display order: position
// ascending, ties broken by id.
func (r *ListRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.List, error) {
	var lists []model.List
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position, id").
		Find(&lists).Error
	return lists, err
}

// GetByBoardIDWithCards additionally preloads each list's cards in display
// order.
func (r *ListRepository) GetByBoardIDWithCards(ctx context.Context, boardID uuid.UUID) ([]model.List, error) {
	var lists []model.List
	err := r.db.WithContext(ctx).
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position, id")
		}).
		Where("board_id = ?", boardID).
		Order("position, id").
		Find(&lists).Error
	return lists, err
}

func (r *ListRepository) Update(ctx context.Context, list *model.List) error {
	return r.db.WithContext(ctx).Save(list).Error
}

// Move writes the list's new position together with any sibling
// renumbering.
func (r *ListRepository) Move(ctx context.Context, listID uuid.UUID, newPosition int, reorder []PositionUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyPositions(tx, &model.List{}, reorder); err != nil {
			return err
		}
		res := tx.Model(&model.List{}).Where("id = ?", listID).Update("position", newPosition)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrListNotFound
		}
		return nil
	})
}

// Delete removes the list and its cards in one transaction.
func (r *ListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id).Delete(&model.Card{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.List{}).Error
	})
}

// applyPositions writes renumbered ordering keys for one entity type.
func applyPositions(tx *gorm.DB, entity any, updates []PositionUpdate) error {
	for _, u := range updates {
		if err := tx.Model(entity).Where("id = ?", u.ID).
			Update("position", u.Position).Error; err != nil {
			return err
		}
	}
	return nil
}
