package repository

import (
	"errors"

	"github.com/google/uuid"
)

// Common repository errors
var (
	// ErrListNotFound is returned when a list vanished mid-operation
	ErrListNotFound = errors.New("list not found")

	// ErrCardNotFound is returned when a card vanished mid-operation
	ErrCardNotFound = errors.New("card not found")

	// ErrInvitationNotPending is returned when a terminal invitation is
	// mutated
	ErrInvitationNotPending = errors.New("invitation is no longer pending")
)

// PositionUpdate renumbers one sibling as part of a positional insert or
// move. ID addresses the entity, Position its new ordering key.
type PositionUpdate struct {
	ID       uuid.UUID
	Position int
}
