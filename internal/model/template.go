package model

import (
	"time"

	"github.com/google/uuid"
)

// BoardTemplate is a reusable board layout. Structure holds a JSON array of
// list titles in display order.
type BoardTemplate struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Structure   string    `gorm:"not null" json:"structure"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
