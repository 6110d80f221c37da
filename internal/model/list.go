package model

import (
	"time"

	"github.com/google/uuid"
)

// List is an ordered column of cards on a board. Sibling order is Position
// ascending, ties broken by ID.
type List struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID  uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	Title    string    `gorm:"not null" json:"title"`
	Position int       `gorm:"not null" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Board Board  `gorm:"foreignKey:BoardID" json:"-"`
	Cards []Card `gorm:"foreignKey:ListID" json:"cards,omitempty"`
}
