package repository

import (
	"context"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SearchRepository struct {
	db *gorm.DB
}

func NewSearchRepository(db *gorm.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// accessibleBoards is the subquery of board ids the user may see: owned
// boards plus active memberships. Every search is restricted to it so no
// title leaks across boards.
func (r *SearchRepository) accessibleBoards(userID uuid.UUID) *gorm.DB {
	return r.db.Model(&model.Board{}).
		Select("boards.id").
		Joins("LEFT JOIN board_members ON board_members.board_id = boards.id AND board_members.user_id = ? AND board_members.is_active = ?", userID, true).
		Where("boards.owner_id = ? OR board_members.id IS NOT NULL", userID)
}

func (r *SearchRepository) Boards(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.accessibleBoards(userID)).
		Where("title ILIKE ? OR description ILIKE ?", "%"+query+"%", "%"+query+"%").
		Limit(limit).
		Find(&boards).Error
	return boards, err
}

func (r *SearchRepository) Lists(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.List, error) {
	var lists []model.List
	err := r.db.WithContext(ctx).
		Where("board_id IN (?)", r.accessibleBoards(userID)).
		Where("title ILIKE ?", "%"+query+"%").
		Limit(limit).
		Find(&lists).Error
	return lists, err
}

func (r *SearchRepository) Cards(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.Card, error) {
	var cards []model.Card
	err := r.db.WithContext(ctx).
		Joins("JOIN lists ON lists.id = cards.list_id").
		Where("lists.board_id IN (?)", r.accessibleBoards(userID)).
		Where("cards.title ILIKE ? OR cards.description ILIKE ?", "%"+query+"%", "%"+query+"%").
		Limit(limit).
		Find(&cards).Error
	return cards, err
}
