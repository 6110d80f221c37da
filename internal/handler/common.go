package handler

import (
	"context"
	"errors"
	"net/http"

	"taskboard/internal/access"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/mutation"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Stores consumed by the handlers. Declared here so tests can substitute
// mocks; the server wires the concrete repositories in.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type BoardStore interface {
	Create(ctx context.Context, board *model.Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
	GetOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error)
	GetShared(ctx context.Context, userID uuid.UUID) ([]model.Board, error)
	Update(ctx context.Context, board *model.Board) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ListStore interface {
	Create(ctx context.Context, list *model.List, reorder []repository.PositionUpdate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.List, error)
	GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.List, error)
	GetByBoardIDWithCards(ctx context.Context, boardID uuid.UUID) ([]model.List, error)
	Update(ctx context.Context, list *model.List) error
	Move(ctx context.Context, listID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CardStore interface {
	Create(ctx context.Context, card *model.Card, reorder []repository.PositionUpdate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Card, error)
	GetByListID(ctx context.Context, listID uuid.UUID) ([]model.Card, error)
	Update(ctx context.Context, card *model.Card) error
	Move(ctx context.Context, cardID, targetListID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MemberStore interface {
	GetActive(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardMember, error)
	GetByBoardAndUser(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardMember, error)
	GetActiveByEmail(ctx context.Context, boardID uuid.UUID, email string) (*model.BoardMember, error)
	ListActive(ctx context.Context, boardID uuid.UUID) ([]model.BoardMember, error)
	Create(ctx context.Context, member *model.BoardMember) error
	Update(ctx context.Context, member *model.BoardMember) error
}

type InvitationStore interface {
	Create(ctx context.Context, inv *model.BoardInvitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.BoardInvitation, error)
	GetByToken(ctx context.Context, token string) (*model.BoardInvitation, error)
	GetPending(ctx context.Context, boardID uuid.UUID, email string) (*model.BoardInvitation, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.BoardInvitation, error)
	Update(ctx context.Context, inv *model.BoardInvitation) error
	Accept(ctx context.Context, invitationID, userID uuid.UUID) (*model.BoardMember, error)
}

type ActivityStore interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	ListByBoard(ctx context.Context, boardID uuid.UUID, limit int) ([]model.ActivityLog, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type TemplateStore interface {
	Create(ctx context.Context, tpl *model.BoardTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.BoardTemplate, error)
	List(ctx context.Context) ([]model.BoardTemplate, error)
	Delete(ctx context.Context, id, createdByID uuid.UUID) (bool, error)
}

type SearchStore interface {
	Boards(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.Board, error)
	Lists(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.List, error)
	Cards(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.Card, error)
}

// AccessResolver is the membership/access guard seam.
type AccessResolver interface {
	Resolve(ctx context.Context, userID, boardID uuid.UUID) (access.Access, error)
}

// currentUserID pulls the authenticated caller off the gin context. A
// missing or malformed id writes the error response and reports false.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return userID, true
}

func currentUserEmail(c *gin.Context) string {
	if email, ok := c.Get(middleware.UserEmailKey); ok {
		if s, ok := email.(string); ok {
			return s
		}
	}
	return ""
}

// originSession identifies the caller's realtime session so relay
// broadcasts skip it. Empty when the client has no live connection.
func originSession(c *gin.Context) string {
	return c.GetHeader("X-Session-ID")
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// respondAccessError maps guard failures onto the wire: 404 when the board
// itself is unknown, 403 when it exists but the caller may not see it.
func respondAccessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrBoardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
	case errors.Is(err, access.ErrNoAccess):
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this board"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check board access"})
	}
}

// Shared seams for the accept path of structural mutations.

type Recorder interface {
	Record(ctx context.Context, boardID uuid.UUID, m mutation.Mutation) (mutation.Mutation, error)
	Since(ctx context.Context, boardID uuid.UUID, seq int64) ([]mutation.Mutation, error)
	Head(ctx context.Context, boardID uuid.UUID) (int64, error)
}

type Publisher interface {
	Publish(boardID uuid.UUID, originSessionID string, ev realtime.Event)
}

type Locker interface {
	Lock(boardID uuid.UUID) func()
}
