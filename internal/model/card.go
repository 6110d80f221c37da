package model

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityNone     Priority = "none"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityRank = map[Priority]int{
	PriorityNone:     0,
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

type Card struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ListID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"list_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Position    int        `gorm:"not null" json:"position"`
	Priority    Priority   `gorm:"not null;default:'none'" json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	List List `gorm:"foreignKey:ListID" json:"-"`
}
