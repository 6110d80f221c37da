// Package realtime fans accepted board mutations out to the other connected
// viewers of the same board. Delivery is best-effort to currently-connected
// sessions only; a session that misses events resynchronizes from the
// mutation log.
package realtime

import (
	"github.com/google/uuid"
)

type EventType string

// Server-to-client event names. The structural ones mirror mutation kinds;
// the rest are presence and session bookkeeping.
const (
	EventConnected  EventType = "Connected"
	EventUserJoined EventType = "UserJoined"
	EventUserLeft   EventType = "UserLeft"
	EventUserTyping EventType = "UserTyping"

	EventListCreated EventType = "ListCreated"
	EventListMoved   EventType = "ListMoved"
	EventListDeleted EventType = "ListDeleted"
	EventCardCreated EventType = "CardCreated"
	EventCardUpdated EventType = "CardUpdated"
	EventCardMoved   EventType = "CardMoved"
	EventCardDeleted EventType = "CardDeleted"

	EventResync         EventType = "Resync"
	EventResyncRequired EventType = "ResyncRequired"
	EventError          EventType = "Error"
)

// Event is one frame pushed to subscribed sessions. Seq is set for events
// backed by a recorded mutation and 0 for presence/typing traffic.
type Event struct {
	Type    EventType `json:"type"`
	BoardID uuid.UUID `json:"board_id,omitempty"`
	Seq     int64     `json:"seq,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

// PresencePayload accompanies UserJoined / UserLeft / UserTyping events.
type PresencePayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	CardID    string    `json:"card_id,omitempty"`
	IsTyping  *bool     `json:"is_typing,omitempty"`
}
