package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskboard/internal/model"
	"taskboard/internal/mutation"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movedCall struct {
	cardID   uuid.UUID
	listID   uuid.UUID
	position int
	reorder  []repository.PositionUpdate
}

func cardRouter(h *CardHandler, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(authed(userID, "user@example.com"))
	r.POST("/lists/:id/cards", h.Create)
	r.PUT("/cards/:id/move", h.Move)
	r.DELETE("/cards/:id", h.Delete)
	return r
}

func TestMoveCardToFrontRenumbersAndBroadcasts(t *testing.T) {
	userID := uuid.New()
	boardID := uuid.New()
	listID := uuid.New()

	cardA := model.Card{ID: uuid.New(), ListID: listID, Title: "A", Position: 1}
	cardB := model.Card{ID: uuid.New(), ListID: listID, Title: "B", Position: 2}
	cardC := model.Card{ID: uuid.New(), ListID: listID, Title: "C", Position: 3}

	var moved *movedCall
	cards := &fakeCardStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.Card, error) {
			return &cardC, nil
		},
		getByListID: func(ctx context.Context, id uuid.UUID) ([]model.Card, error) {
			return []model.Card{cardA, cardB, cardC}, nil
		},
		move: func(ctx context.Context, cardID, targetListID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error {
			moved = &movedCall{cardID: cardID, listID: targetListID, position: newPosition, reorder: reorder}
			return nil
		},
	}
	lists := &fakeListStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.List, error) {
			return &model.List{ID: listID, BoardID: boardID}, nil
		},
	}

	sync, rec, relay, activity := newTestSync()
	h := NewCardHandler(cards, lists, guardFor(model.RoleMember), sync)
	router := cardRouter(h, userID)

	body, _ := json.Marshal(MoveCardRequest{ListID: listID, Index: 0})
	req := httptest.NewRequest(http.MethodPut, "/cards/"+cardC.ID.String()+"/move", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-origin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)

	// [1 2 3] with C moved to the front has no room before A, so A and B
	// renumber to full steps and C lands in the middle of the first slot.
	require.NotNil(t, moved)
	assert.Equal(t, cardC.ID, moved.cardID)
	assert.Equal(t, 512, moved.position)
	require.Len(t, moved.reorder, 2)
	assert.Equal(t, repository.PositionUpdate{ID: cardA.ID, Position: 1024}, moved.reorder[0])
	assert.Equal(t, repository.PositionUpdate{ID: cardB.ID, Position: 2048}, moved.reorder[1])

	require.Len(t, rec.recorded, 1)
	assert.Equal(t, mutation.CardMoved, rec.recorded[0].Kind)
	assert.Equal(t, int64(1), rec.recorded[0].Seq)
	assert.Equal(t, cardC.ID, rec.recorded[0].EntityID)

	require.Len(t, relay.events, 1)
	assert.Equal(t, realtime.EventCardMoved, relay.events[0].ev.Type)
	assert.Equal(t, "sess-origin", relay.events[0].origin)
	assert.Equal(t, int64(1), relay.events[0].ev.Seq)

	require.Len(t, activity.entries, 1)
	assert.Equal(t, model.ActivityCardMoved, activity.entries[0].Type)
}

func TestMoveCardToOwnIndexIsNoop(t *testing.T) {
	userID := uuid.New()
	boardID := uuid.New()
	listID := uuid.New()

	cardA := model.Card{ID: uuid.New(), ListID: listID, Position: 1}
	cardB := model.Card{ID: uuid.New(), ListID: listID, Position: 2}

	cards := &fakeCardStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.Card, error) {
			return &cardB, nil
		},
		getByListID: func(ctx context.Context, id uuid.UUID) ([]model.Card, error) {
			return []model.Card{cardA, cardB}, nil
		},
		move: func(ctx context.Context, cardID, targetListID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error {
			t.Fatal("move should not be called for a no-op")
			return nil
		},
	}
	lists := &fakeListStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.List, error) {
			return &model.List{ID: listID, BoardID: boardID}, nil
		},
	}

	sync, rec, relay, _ := newTestSync()
	h := NewCardHandler(cards, lists, guardFor(model.RoleMember), sync)
	router := cardRouter(h, userID)

	body, _ := json.Marshal(MoveCardRequest{ListID: listID, Index: 1})
	req := httptest.NewRequest(http.MethodPut, "/cards/"+cardB.ID.String()+"/move", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, rec.recorded)
	assert.Empty(t, relay.events)
}

func TestMoveCardToMissingListReturnsNotFound(t *testing.T) {
	userID := uuid.New()
	boardID := uuid.New()
	listID := uuid.New()
	card := model.Card{ID: uuid.New(), ListID: listID, Position: 1}

	cards := &fakeCardStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.Card, error) {
			return &card, nil
		},
	}
	lists := &fakeListStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.List, error) {
			if id == listID {
				return &model.List{ID: listID, BoardID: boardID}, nil
			}
			return nil, nil
		},
	}

	sync, rec, _, _ := newTestSync()
	h := NewCardHandler(cards, lists, guardFor(model.RoleMember), sync)
	router := cardRouter(h, userID)

	body, _ := json.Marshal(MoveCardRequest{ListID: uuid.New(), Index: 0})
	req := httptest.NewRequest(http.MethodPut, "/cards/"+card.ID.String()+"/move", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, rec.recorded)
}

func TestMoveCardTargetDeletedMidMoveConflicts(t *testing.T) {
	userID := uuid.New()
	boardID := uuid.New()
	sourceID := uuid.New()
	targetID := uuid.New()
	card := model.Card{ID: uuid.New(), ListID: sourceID, Position: 1}

	cards := &fakeCardStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.Card, error) {
			return &card, nil
		},
		getByListID: func(ctx context.Context, id uuid.UUID) ([]model.Card, error) {
			return nil, nil
		},
		move: func(ctx context.Context, cardID, targetListID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error {
			// The target passed the pre-lock existence check but a concurrent
			// delete won the race; the repository's in-transaction re-check
			// reports it gone.
			return repository.ErrListNotFound
		},
	}
	lists := &fakeListStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.List, error) {
			return &model.List{ID: id, BoardID: boardID}, nil
		},
	}

	sync, rec, relay, _ := newTestSync()
	h := NewCardHandler(cards, lists, guardFor(model.RoleMember), sync)
	router := cardRouter(h, userID)

	body, _ := json.Marshal(MoveCardRequest{ListID: targetID, Index: 0})
	req := httptest.NewRequest(http.MethodPut, "/cards/"+card.ID.String()+"/move", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, rec.recorded)
	assert.Empty(t, relay.events)
}

func TestViewerCannotDeleteCard(t *testing.T) {
	userID := uuid.New()
	boardID := uuid.New()
	listID := uuid.New()
	card := model.Card{ID: uuid.New(), ListID: listID, Position: 1}

	cards := &fakeCardStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.Card, error) {
			return &card, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			t.Fatal("delete should not be reached")
			return nil
		},
	}
	lists := &fakeListStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.List, error) {
			return &model.List{ID: listID, BoardID: boardID}, nil
		},
	}

	sync, rec, relay, activity := newTestSync()
	h := NewCardHandler(cards, lists, guardFor(model.RoleViewer), sync)
	router := cardRouter(h, userID)

	req := httptest.NewRequest(http.MethodDelete, "/cards/"+card.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, rec.recorded)
	assert.Empty(t, relay.events)
	assert.Empty(t, activity.entries)
}

func TestCreateCardAppendsAtEnd(t *testing.T) {
	userID := uuid.New()
	boardID := uuid.New()
	listID := uuid.New()

	existing := []model.Card{
		{ID: uuid.New(), ListID: listID, Position: 1},
		{ID: uuid.New(), ListID: listID, Position: 2},
	}

	var created *model.Card
	cards := &fakeCardStore{
		getByListID: func(ctx context.Context, id uuid.UUID) ([]model.Card, error) {
			return existing, nil
		},
		create: func(ctx context.Context, card *model.Card, reorder []repository.PositionUpdate) error {
			card.ID = uuid.New()
			created = card
			assert.Empty(t, reorder)
			return nil
		},
	}
	lists := &fakeListStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.List, error) {
			return &model.List{ID: listID, BoardID: boardID}, nil
		},
	}

	sync, rec, relay, _ := newTestSync()
	h := NewCardHandler(cards, lists, guardFor(model.RoleMember), sync)
	router := cardRouter(h, userID)

	req := httptest.NewRequest(http.MethodPost, "/lists/"+listID.String()+"/cards",
		bytes.NewReader([]byte(`{"title":"New card","priority":"high"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, created)
	assert.Equal(t, 3, created.Position)
	assert.Equal(t, model.PriorityHigh, created.Priority)

	require.Len(t, rec.recorded, 1)
	assert.Equal(t, mutation.CardCreated, rec.recorded[0].Kind)
	require.Len(t, relay.events, 1)
	assert.Equal(t, realtime.EventCardCreated, relay.events[0].ev.Type)
}

func TestSequentialMovesGetIncreasingSeqs(t *testing.T) {
	userID := uuid.New()
	boardID := uuid.New()
	listID := uuid.New()

	cardA := model.Card{ID: uuid.New(), ListID: listID, Title: "A", Position: 1}
	cardB := model.Card{ID: uuid.New(), ListID: listID, Title: "B", Position: 1024}
	cardC := model.Card{ID: uuid.New(), ListID: listID, Title: "C", Position: 2048}

	cards := &fakeCardStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.Card, error) {
			return &cardC, nil
		},
		getByListID: func(ctx context.Context, id uuid.UUID) ([]model.Card, error) {
			return []model.Card{cardA, cardB, cardC}, nil
		},
		move: func(ctx context.Context, cardID, targetListID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error {
			return nil
		},
	}
	lists := &fakeListStore{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.List, error) {
			return &model.List{ID: listID, BoardID: boardID}, nil
		},
	}

	sync, rec, _, _ := newTestSync()
	h := NewCardHandler(cards, lists, guardFor(model.RoleMember), sync)
	router := cardRouter(h, userID)

	for i := 0; i < 3; i++ {
		body, _ := json.Marshal(MoveCardRequest{ListID: listID, Index: 0})
		req := httptest.NewRequest(http.MethodPut, "/cards/"+cardC.ID.String()+"/move", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code, fmt.Sprintf("move %d", i))
	}

	require.Len(t, rec.recorded, 3)
	for i, m := range rec.recorded {
		assert.Equal(t, int64(i+1), m.Seq)
	}
}
