// Package mutation keeps the authoritative, per-board sequence of accepted
// structural changes. Clients resynchronize against it after a disconnect,
// and the realtime relay stamps broadcasts with its sequence numbers.
package mutation

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	ListCreated Kind = "list_created"
	ListMoved   Kind = "list_moved"
	ListDeleted Kind = "list_deleted"
	CardCreated Kind = "card_created"
	CardUpdated Kind = "card_updated"
	CardMoved   Kind = "card_moved"
	CardDeleted Kind = "card_deleted"
)

// Mutation is one accepted structural change on a board. Seq is assigned by
// the log at record time and is strictly increasing per board with no gaps.
type Mutation struct {
	Seq      int64     `json:"seq"`
	Kind     Kind      `json:"kind"`
	BoardID  uuid.UUID `json:"board_id"`
	EntityID uuid.UUID `json:"entity_id"`

	// ListID is the owning (or target, for card moves) list of a card
	// mutation.
	ListID   *uuid.UUID     `json:"list_id,omitempty"`
	Position *int           `json:"position,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`

	ActorID uuid.UUID `json:"actor_id"`
	At      time.Time `json:"at"`
}
