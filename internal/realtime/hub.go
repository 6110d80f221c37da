package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one live connection able to receive events. Send must not
// block: implementations queue into a bounded outbox and report false when
// the event had to be dropped.
type Session interface {
	ID() string
	UserID() uuid.UUID
	Username() string
	Send(ev Event) bool
}

// Hub is the per-board subscriber registry. It knows nothing about
// transports; the websocket gateway adapts connections into Sessions.
type Hub struct {
	mu sync.RWMutex

	// boards maps board id -> session id -> session.
	boards map[uuid.UUID]map[string]Session

	// sessions tracks which boards each session joined, for cleanup on
	// disconnect.
	sessions map[string]map[uuid.UUID]struct{}

	logger *zap.SugaredLogger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		boards:   make(map[uuid.UUID]map[string]Session),
		sessions: make(map[string]map[uuid.UUID]struct{}),
		logger:   logger.Sugar(),
	}
}

// Subscribe adds the session to the board's group and announces it to the
// rest of the group. History is not replayed; resuming callers fetch it from
// the mutation log.
func (h *Hub) Subscribe(boardID uuid.UUID, s Session) {
	h.mu.Lock()
	group, ok := h.boards[boardID]
	if !ok {
		group = make(map[string]Session)
		h.boards[boardID] = group
	}
	group[s.ID()] = s

	joined, ok := h.sessions[s.ID()]
	if !ok {
		joined = make(map[uuid.UUID]struct{})
		h.sessions[s.ID()] = joined
	}
	joined[boardID] = struct{}{}
	h.mu.Unlock()

	h.logger.Infow("Session joined board group",
		"board_id", boardID,
		"session_id", s.ID(),
		"user_id", s.UserID(),
	)

	h.Publish(boardID, s.ID(), Event{
		Type:    EventUserJoined,
		BoardID: boardID,
		Payload: PresencePayload{UserID: s.UserID(), Username: s.Username(), SessionID: s.ID()},
	})
}

// Unsubscribe removes the session from one board group and announces the
// departure to the remaining subscribers.
func (h *Hub) Unsubscribe(boardID uuid.UUID, sessionID string) {
	h.mu.Lock()
	var left Session
	if group, ok := h.boards[boardID]; ok {
		left = group[sessionID]
		delete(group, sessionID)
		if len(group) == 0 {
			delete(h.boards, boardID)
		}
	}
	if joined, ok := h.sessions[sessionID]; ok {
		delete(joined, boardID)
		if len(joined) == 0 {
			delete(h.sessions, sessionID)
		}
	}
	h.mu.Unlock()

	if left == nil {
		return
	}

	h.logger.Infow("Session left board group",
		"board_id", boardID,
		"session_id", sessionID,
	)

	h.Publish(boardID, sessionID, Event{
		Type:    EventUserLeft,
		BoardID: boardID,
		Payload: PresencePayload{UserID: left.UserID(), Username: left.Username(), SessionID: sessionID},
	})
}

// DropSession removes the session from every board group it joined. Called
// by the gateway when a connection closes, explicit leave or not.
func (h *Hub) DropSession(sessionID string) {
	h.mu.RLock()
	joined := make([]uuid.UUID, 0, len(h.sessions[sessionID]))
	for boardID := range h.sessions[sessionID] {
		joined = append(joined, boardID)
	}
	h.mu.RUnlock()

	for _, boardID := range joined {
		h.Unsubscribe(boardID, sessionID)
	}
}

// Publish delivers ev to every subscriber of the board except the origin
// session. A full outbox on one subscriber never blocks delivery to the
// others; the dropped session recovers via resync.
func (h *Hub) Publish(boardID uuid.UUID, originSessionID string, ev Event) {
	h.mu.RLock()
	group := h.boards[boardID]
	targets := make([]Session, 0, len(group))
	for id, s := range group {
		if id != originSessionID {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !s.Send(ev) {
			h.logger.Warnw("Dropped event for slow session",
				"board_id", boardID,
				"session_id", s.ID(),
				"event", ev.Type,
			)
		}
	}
}

// Subscribers reports the current size of a board's group.
func (h *Hub) Subscribers(boardID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.boards[boardID])
}
