package handler

import (
	"errors"
	"net/http"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/mutation"
	"taskboard/internal/position"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CardHandler struct {
	cards CardStore
	lists ListStore
	guard AccessResolver
	sync  *BoardSync
}

func NewCardHandler(cards CardStore, lists ListStore, guard AccessResolver, sync *BoardSync) *CardHandler {
	return &CardHandler{cards: cards, lists: lists, guard: guard, sync: sync}
}

type CreateCardRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`

	// Index is the logical insertion point within the list; omitted means
	// append.
	Index *int `json:"index"`
}

type UpdateCardRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	ClearDue    bool       `json:"clear_due_date"`
}

type MoveCardRequest struct {
	ListID uuid.UUID `json:"list_id" binding:"required"`
	Index  int       `json:"index"`
}

// Create godoc
// @Summary Create a card in a list
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "List ID"
// @Param request body CreateCardRequest true "Card details"
// @Success 201 {object} model.Card
// @Router /lists/{id}/cards [post]
func (h *CardHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	priority := model.PriorityNone
	if req.Priority != "" {
		priority = model.Priority(req.Priority)
		if !priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
			return
		}
	}

	list, ok := h.authorizedCardList(c, userID, listID)
	if !ok {
		return
	}

	unlock := h.sync.Lock(list.BoardID)
	defer unlock()

	siblings, err := h.cards.GetByListID(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cards"})
		return
	}

	index := len(siblings)
	if req.Index != nil {
		index = *req.Index
	}

	plan, err := position.Insert(cardKeys(siblings), index)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Index out of range"})
		return
	}

	card := model.Card{
		ListID:      listID,
		Title:       req.Title,
		Description: req.Description,
		Position:    plan.Position,
		Priority:    priority,
		DueDate:     req.DueDate,
	}
	if err := h.cards.Create(c.Request.Context(), &card, cardReorder(siblings, plan.Updates)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create card"})
		return
	}

	h.sync.Accepted(c.Request.Context(), originSession(c), mutation.Mutation{
		Kind:     mutation.CardCreated,
		BoardID:  list.BoardID,
		EntityID: card.ID,
		ListID:   &listID,
		Position: &card.Position,
		Fields:   map[string]any{"title": card.Title},
		ActorID:  userID,
		At:       time.Now(),
	}, realtime.EventCardCreated, card, &model.ActivityLog{
		BoardID:     list.BoardID,
		ListID:      &listID,
		CardID:      &card.ID,
		UserID:      &userID,
		Type:        model.ActivityCardCreated,
		Description: "created card " + card.Title,
	})

	c.JSON(http.StatusCreated, card)
}

// GetByList godoc
// @Summary List cards of a list in display order
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path string true "List ID"
// @Success 200 {array} model.Card
// @Router /lists/{id}/cards [get]
func (h *CardHandler) GetByList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.lists.GetByID(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load list"})
		return
	}
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}
	if _, err := h.guard.Resolve(c.Request.Context(), userID, list.BoardID); err != nil {
		respondAccessError(c, err)
		return
	}

	cards, err := h.cards.GetByListID(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cards"})
		return
	}
	c.JSON(http.StatusOK, cards)
}

// GetByID godoc
// @Summary Fetch a single card
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Success 200 {object} model.Card
// @Router /cards/{id} [get]
func (h *CardHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	card, list, ok := h.cardWithList(c, cardID)
	if !ok {
		return
	}
	if _, err := h.guard.Resolve(c.Request.Context(), userID, list.BoardID); err != nil {
		respondAccessError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// Update godoc
// @Summary Update a card's fields
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Param request body UpdateCardRequest true "Fields to change"
// @Success 200 {object} model.Card
// @Router /cards/{id} [put]
func (h *CardHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, list, ok := h.cardWithList(c, cardID)
	if !ok {
		return
	}
	if !h.requireEditCards(c, userID, list.BoardID) {
		return
	}

	fields := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		card.Title = *req.Title
		fields["title"] = card.Title
	}
	if req.Description != nil {
		card.Description = *req.Description
		fields["description"] = card.Description
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		if !priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
			return
		}
		card.Priority = priority
		fields["priority"] = card.Priority
	}
	if req.DueDate != nil {
		card.DueDate = req.DueDate
		fields["due_date"] = card.DueDate
	} else if req.ClearDue {
		card.DueDate = nil
		fields["due_date"] = nil
	}

	if err := h.cards.Update(c.Request.Context(), card); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update card"})
		return
	}

	h.sync.Accepted(c.Request.Context(), originSession(c), mutation.Mutation{
		Kind:     mutation.CardUpdated,
		BoardID:  list.BoardID,
		EntityID: card.ID,
		ListID:   &card.ListID,
		Fields:   fields,
		ActorID:  userID,
		At:       time.Now(),
	}, realtime.EventCardUpdated, card, &model.ActivityLog{
		BoardID:     list.BoardID,
		ListID:      &card.ListID,
		CardID:      &card.ID,
		UserID:      &userID,
		Type:        model.ActivityCardUpdated,
		Description: "updated card " + card.Title,
	})

	c.JSON(http.StatusOK, card)
}

// Move godoc
// @Summary Move a card within or across lists
// @Tags cards
// @Accept json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Param request body MoveCardRequest true "Target list and index"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /cards/{id}/move [put]
func (h *CardHandler) Move(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MoveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, source, ok := h.cardWithList(c, cardID)
	if !ok {
		return
	}
	if !h.requireEditCards(c, userID, source.BoardID) {
		return
	}

	target := source
	if req.ListID != source.ID {
		t, err := h.lists.GetByID(c.Request.Context(), req.ListID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load list"})
			return
		}
		if t == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Target list not found"})
			return
		}
		if t.BoardID != source.BoardID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot move a card to another board"})
			return
		}
		target = t
	}

	unlock := h.sync.Lock(source.BoardID)
	defer unlock()

	targetCards, err := h.cards.GetByListID(c.Request.Context(), target.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cards"})
		return
	}

	var plan position.Plan
	if target.ID == source.ID {
		from := indexOfCard(targetCards, cardID)
		if from < 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		plan, err = position.Move(cardKeys(targetCards), from, req.Index)
	} else {
		plan, err = position.Insert(cardKeys(targetCards), req.Index)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Index out of range"})
		return
	}
	if plan.Unchanged {
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.cards.Move(c.Request.Context(), cardID, target.ID, plan.Position, cardReorder(targetCards, plan.Updates)); err != nil {
		switch {
		case errors.Is(err, repository.ErrListNotFound):
			// The list existed when we checked but was deleted before the
			// transaction's re-check: a concurrent-edit conflict, not a bad id.
			c.JSON(http.StatusConflict, gin.H{"error": "Target list was deleted"})
		case errors.Is(err, repository.ErrCardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move card"})
		}
		return
	}

	h.sync.Accepted(c.Request.Context(), originSession(c), mutation.Mutation{
		Kind:     mutation.CardMoved,
		BoardID:  source.BoardID,
		EntityID: cardID,
		ListID:   &target.ID,
		Position: &plan.Position,
		ActorID:  userID,
		At:       time.Now(),
	}, realtime.EventCardMoved, gin.H{
		"card_id":  cardID,
		"list_id":  target.ID,
		"index":    req.Index,
		"position": plan.Position,
	}, &model.ActivityLog{
		BoardID:     source.BoardID,
		ListID:      &target.ID,
		CardID:      &cardID,
		UserID:      &userID,
		Type:        model.ActivityCardMoved,
		Description: "moved card " + card.Title,
	})

	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete a card
// @Tags cards
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /cards/{id} [delete]
func (h *CardHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	card, list, ok := h.cardWithList(c, cardID)
	if !ok {
		return
	}
	if !h.requireEditCards(c, userID, list.BoardID) {
		return
	}

	unlock := h.sync.Lock(list.BoardID)
	defer unlock()

	if err := h.cards.Delete(c.Request.Context(), cardID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete card"})
		return
	}

	h.sync.Accepted(c.Request.Context(), originSession(c), mutation.Mutation{
		Kind:     mutation.CardDeleted,
		BoardID:  list.BoardID,
		EntityID: cardID,
		ListID:   &card.ListID,
		ActorID:  userID,
		At:       time.Now(),
	}, realtime.EventCardDeleted, gin.H{"card_id": cardID, "list_id": card.ListID}, &model.ActivityLog{
		BoardID:     list.BoardID,
		ListID:      &card.ListID,
		UserID:      &userID,
		Type:        model.ActivityCardDeleted,
		Description: "deleted card " + card.Title,
	})

	c.Status(http.StatusNoContent)
}

// cardWithList loads a card and its owning list, writing the error response
// itself when either is missing.
func (h *CardHandler) cardWithList(c *gin.Context, cardID uuid.UUID) (*model.Card, *model.List, bool) {
	card, err := h.cards.GetByID(c.Request.Context(), cardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load card"})
		return nil, nil, false
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		return nil, nil, false
	}

	list, err := h.lists.GetByID(c.Request.Context(), card.ListID)
	if err != nil || list == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load list"})
		return nil, nil, false
	}
	return card, list, true
}

func (h *CardHandler) authorizedCardList(c *gin.Context, userID, listID uuid.UUID) (*model.List, bool) {
	list, err := h.lists.GetByID(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load list"})
		return nil, false
	}
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return nil, false
	}
	if !h.requireEditCards(c, userID, list.BoardID) {
		return nil, false
	}
	return list, true
}

func (h *CardHandler) requireEditCards(c *gin.Context, userID, boardID uuid.UUID) bool {
	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return false
	}
	if !acc.Permissions.EditCards {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit cards"})
		return false
	}
	return true
}

func cardKeys(cards []model.Card) []int {
	keys := make([]int, len(cards))
	for i, card := range cards {
		keys[i] = card.Position
	}
	return keys
}

func indexOfCard(cards []model.Card, id uuid.UUID) int {
	for i, card := range cards {
		if card.ID == id {
			return i
		}
	}
	return -1
}

func cardReorder(cards []model.Card, updates []position.Update) []repository.PositionUpdate {
	reorder := make([]repository.PositionUpdate, len(updates))
	for i, u := range updates {
		reorder[i] = repository.PositionUpdate{ID: cards[u.Index].ID, Position: u.Position}
	}
	return reorder
}
