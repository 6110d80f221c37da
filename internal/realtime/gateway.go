package realtime

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"taskboard/internal/access"
	"taskboard/internal/model"
	"taskboard/internal/mutation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	outboxSize     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Command is one client-to-server frame on the board channel.
type Command struct {
	Command  string          `json:"command"`
	BoardID  uuid.UUID       `json:"board_id"`
	Since    int64           `json:"since"`
	CardID   string          `json:"card_id"`
	IsTyping bool            `json:"is_typing"`
	Payload  json.RawMessage `json:"payload"`
}

// Resyncer serves retained mutation history to reconnecting sessions.
type Resyncer interface {
	Since(ctx context.Context, boardID uuid.UUID, seq int64) ([]mutation.Mutation, error)
	Head(ctx context.Context, boardID uuid.UUID) (int64, error)
}

type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Gateway upgrades authenticated HTTP requests to websocket sessions and
// bridges their commands into the hub. Join and Notify commands re-check
// board access on every call, so a membership revoked mid-session surfaces
// on the next interaction rather than forcing a disconnect.
type Gateway struct {
	hub    *Hub
	guard  *access.Guard
	log    Resyncer
	users  UserSource
	logger *zap.SugaredLogger
}

func NewGateway(hub *Hub, guard *access.Guard, log Resyncer, users UserSource, logger *zap.Logger) *Gateway {
	return &Gateway{
		hub:    hub,
		guard:  guard,
		log:    log,
		users:  users,
		logger: logger.Sugar(),
	}
}

func generateSessionID() string {
	bytes := make([]byte, 9)
	if _, err := rand.Read(bytes); err != nil {
		return uuid.NewString()
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

type wsSession struct {
	id     string
	userID uuid.UUID
	name   string
	conn   *websocket.Conn
	send   chan Event

	mu     sync.Mutex
	closed bool
}

func (s *wsSession) ID() string        { return s.id }
func (s *wsSession) UserID() uuid.UUID { return s.userID }
func (s *wsSession) Username() string  { return s.name }

// Send queues ev for the write pump. A publish may still hold a reference to
// the session after its connection closed, so sending on a torn-down session
// reports a drop instead of panicking on the closed outbox.
func (s *wsSession) Send(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- ev:
		return true
	default:
		return false
	}
}

func (s *wsSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// ServeWS handles GET /ws. JWT auth has already run; the middleware put the
// caller's user id on the gin context.
func (g *Gateway) ServeWS(userIDKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(userIDKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		userID, ok := raw.(uuid.UUID)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
			return
		}

		user, err := g.users.GetByID(c.Request.Context(), userID)
		if err != nil || user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			g.logger.Errorw("Failed to upgrade connection", "user_id", userID, "error", err)
			return
		}

		session := &wsSession{
			id:     generateSessionID(),
			userID: userID,
			name:   user.Name,
			conn:   conn,
			send:   make(chan Event, outboxSize),
		}

		g.logger.Infow("WebSocket connection established",
			"session_id", session.id,
			"user_id", userID,
			"client_ip", c.ClientIP(),
		)

		// The session id goes back to the client so it can tag its HTTP
		// mutations (X-Session-ID) and not receive its own echoes.
		session.Send(Event{Type: EventConnected, Payload: gin.H{"session_id": session.id}})

		go g.writePump(session)
		g.readPump(c.Request.Context(), session)
	}
}

func (g *Gateway) writePump(s *wsSession) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) readPump(ctx context.Context, s *wsSession) {
	defer func() {
		g.hub.DropSession(s.id)
		s.close()
		g.logger.Infow("WebSocket connection closed", "session_id", s.id, "user_id", s.userID)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.Send(Event{Type: EventError, Payload: gin.H{"error": "malformed command"}})
			continue
		}
		g.handleCommand(ctx, s, cmd)
	}
}

func (g *Gateway) handleCommand(ctx context.Context, s *wsSession, cmd Command) {
	switch cmd.Command {
	case "JoinBoardGroup":
		if !g.checkAccess(ctx, s, cmd.BoardID, false) {
			return
		}
		g.hub.Subscribe(cmd.BoardID, s)

	case "LeaveBoardGroup":
		g.hub.Unsubscribe(cmd.BoardID, s.id)

	case "NotifyCardMoved", "NotifyCardUpdated", "NotifyCardCreated", "NotifyCardDeleted",
		"NotifyListCreated", "NotifyListDeleted":
		if !g.checkAccess(ctx, s, cmd.BoardID, true) {
			return
		}
		g.hub.Publish(cmd.BoardID, s.id, Event{
			Type:    EventType(cmd.Command[len("Notify"):]),
			BoardID: cmd.BoardID,
			Payload: cmd.Payload,
		})

	case "SendTypingIndicator":
		if !g.checkAccess(ctx, s, cmd.BoardID, false) {
			return
		}
		typing := cmd.IsTyping
		g.hub.Publish(cmd.BoardID, s.id, Event{
			Type:    EventUserTyping,
			BoardID: cmd.BoardID,
			Payload: PresencePayload{
				UserID:    s.userID,
				Username:  s.name,
				SessionID: s.id,
				CardID:    cmd.CardID,
				IsTyping:  &typing,
			},
		})

	case "Resync":
		if !g.checkAccess(ctx, s, cmd.BoardID, false) {
			return
		}
		missed, err := g.log.Since(ctx, cmd.BoardID, cmd.Since)
		if errors.Is(err, mutation.ErrTooFarBehind) {
			s.Send(Event{Type: EventResyncRequired, BoardID: cmd.BoardID})
			return
		}
		if err != nil {
			g.logger.Errorw("Resync failed", "board_id", cmd.BoardID, "session_id", s.id, "error", err)
			s.Send(Event{Type: EventError, BoardID: cmd.BoardID, Payload: gin.H{"error": "resync failed"}})
			return
		}
		s.Send(Event{Type: EventResync, BoardID: cmd.BoardID, Payload: missed})

	default:
		s.Send(Event{Type: EventError, Payload: gin.H{"error": "unknown command: " + cmd.Command}})
	}
}

// checkAccess re-resolves board access for a command. Mutating relays
// additionally require card-edit permission.
func (g *Gateway) checkAccess(ctx context.Context, s *wsSession, boardID uuid.UUID, mutating bool) bool {
	acc, err := g.guard.Resolve(ctx, s.userID, boardID)
	if err != nil {
		s.Send(Event{Type: EventError, BoardID: boardID, Payload: gin.H{"error": "access denied"}})
		return false
	}
	if mutating && !acc.Permissions.EditCards {
		s.Send(Event{Type: EventError, BoardID: boardID, Payload: gin.H{"error": "permission denied"}})
		return false
	}
	return true
}
