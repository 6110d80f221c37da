package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, tpl *model.BoardTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.BoardTemplate, error) {
	var tpl model.BoardTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]model.BoardTemplate, error) {
	var templates []model.BoardTemplate
	err := r.db.WithContext(ctx).Order("category, name").Find(&templates).Error
	return templates, err
}

func (r *TemplateRepository) Delete(ctx context.Context, id, createdByID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND created_by_id = ?", id, createdByID).
		Delete(&model.BoardTemplate{})
	return res.RowsAffected > 0, res.Error
}
