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
	"go.uber.org/zap"
)

type ListHandler struct {
	lists ListStore
	guard AccessResolver
	sync  *BoardSync
}

func NewListHandler(lists ListStore, guard AccessResolver, sync *BoardSync) *ListHandler {
	return &ListHandler{lists: lists, guard: guard, sync: sync}
}

type CreateListRequest struct {
	Title string `json:"title" binding:"required"`

	// Index is the logical insertion point; omitted means append.
	Index *int `json:"index"`
}

type UpdateListRequest struct {
	Title string `json:"title" binding:"required"`
}

type MoveListRequest struct {
	Index int `json:"index"`
}

// Create godoc
// @Summary Create a list on a board
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param request body CreateListRequest true "List details"
// @Success 201 {object} model.List
// @Router /boards/{id}/lists [post]
func (h *ListHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return
	}
	if !acc.Permissions.CreateLists {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit lists"})
		return
	}

	unlock := h.sync.Lock(boardID)
	defer unlock()

	siblings, err := h.lists.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load lists"})
		return
	}

	index := len(siblings)
	if req.Index != nil {
		index = *req.Index
	}

	plan, err := position.Insert(listKeys(siblings), index)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Index out of range"})
		return
	}

	list := model.List{
		BoardID:  boardID,
		Title:    req.Title,
		Position: plan.Position,
	}
	if err := h.lists.Create(c.Request.Context(), &list, listReorder(siblings, plan.Updates)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create list"})
		return
	}

	h.sync.Accepted(c.Request.Context(), originSession(c), mutation.Mutation{
		Kind:     mutation.ListCreated,
		BoardID:  boardID,
		EntityID: list.ID,
		Position: &list.Position,
		Fields:   map[string]any{"title": list.Title},
		ActorID:  userID,
		At:       time.Now(),
	}, realtime.EventListCreated, list, &model.ActivityLog{
		BoardID:     boardID,
		ListID:      &list.ID,
		UserID:      &userID,
		Type:        model.ActivityListCreated,
		Description: "created list " + list.Title,
	})

	c.JSON(http.StatusCreated, list)
}

// GetByBoard godoc
// @Summary List the lists of a board in display order
// @Tags lists
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Success 200 {array} model.List
// @Router /boards/{id}/lists [get]
func (h *ListHandler) GetByBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.guard.Resolve(c.Request.Context(), userID, boardID); err != nil {
		respondAccessError(c, err)
		return
	}

	lists, err := h.lists.GetByBoardIDWithCards(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load lists"})
		return
	}
	c.JSON(http.StatusOK, lists)
}

// Update godoc
// @Summary Rename a list
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "List ID"
// @Param request body UpdateListRequest true "New title"
// @Success 200 {object} model.List
// @Router /lists/{id} [put]
func (h *ListHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, ok := h.authorizedList(c, userID, listID)
	if !ok {
		return
	}

	list.Title = req.Title
	if err := h.lists.Update(c.Request.Context(), list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update list"})
		return
	}

	h.logActivity(c, &model.ActivityLog{
		BoardID:     list.BoardID,
		ListID:      &list.ID,
		UserID:      &userID,
		Type:        model.ActivityListUpdated,
		Description: "renamed a list to " + list.Title,
	})

	c.JSON(http.StatusOK, list)
}

// Move godoc
// @Summary Move a list to a new index on its board
// @Tags lists
// @Accept json
// @Security BearerAuth
// @Param id path string true "List ID"
// @Param request body MoveListRequest true "Target index"
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /lists/{id}/move [put]
func (h *ListHandler) Move(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MoveListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, ok := h.authorizedList(c, userID, listID)
	if !ok {
		return
	}

	unlock := h.sync.Lock(list.BoardID)
	defer unlock()

	siblings, err := h.lists.GetByBoardID(c.Request.Context(), list.BoardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load lists"})
		return
	}

	from := indexOfList(siblings, listID)
	if from < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	plan, err := position.Move(listKeys(siblings), from, req.Index)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Index out of range"})
		return
	}
	if plan.Unchanged {
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.lists.Move(c.Request.Context(), listID, plan.Position, listReorder(siblings, plan.Updates)); err != nil {
		if errors.Is(err, repository.ErrListNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move list"})
		return
	}

	h.sync.Accepted(c.Request.Context(), originSession(c), mutation.Mutation{
		Kind:     mutation.ListMoved,
		BoardID:  list.BoardID,
		EntityID: listID,
		Position: &plan.Position,
		ActorID:  userID,
		At:       time.Now(),
	}, realtime.EventListMoved, gin.H{"list_id": listID, "index": req.Index, "position": plan.Position}, &model.ActivityLog{
		BoardID:     list.BoardID,
		ListID:      &listID,
		UserID:      &userID,
		Type:        model.ActivityListMoved,
		Description: "moved list " + list.Title,
	})

	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete a list and its cards
// @Tags lists
// @Security BearerAuth
// @Param id path string true "List ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /lists/{id} [delete]
func (h *ListHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, ok := h.authorizedList(c, userID, listID)
	if !ok {
		return
	}

	unlock := h.sync.Lock(list.BoardID)
	defer unlock()

	if err := h.lists.Delete(c.Request.Context(), listID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete list"})
		return
	}

	h.sync.Accepted(c.Request.Context(), originSession(c), mutation.Mutation{
		Kind:     mutation.ListDeleted,
		BoardID:  list.BoardID,
		EntityID: listID,
		ActorID:  userID,
		At:       time.Now(),
	}, realtime.EventListDeleted, gin.H{"list_id": listID}, &model.ActivityLog{
		BoardID:     list.BoardID,
		UserID:      &userID,
		Type:        model.ActivityListDeleted,
		Description: "deleted list " + list.Title,
	})

	c.Status(http.StatusNoContent)
}

// authorizedList loads a list and checks the caller can edit lists on its
// board. Writes the error response itself on failure.
func (h *ListHandler) authorizedList(c *gin.Context, userID, listID uuid.UUID) (*model.List, bool) {
	list, err := h.lists.GetByID(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load list"})
		return nil, false
	}
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return nil, false
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, list.BoardID)
	if err != nil {
		respondAccessError(c, err)
		return nil, false
	}
	if !acc.Permissions.CreateLists {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit lists"})
		return nil, false
	}
	return list, true
}

func (h *ListHandler) logActivity(c *gin.Context, entry *model.ActivityLog) {
	if err := h.sync.Activity.Create(c.Request.Context(), entry); err != nil {
		h.sync.Logger.Error("failed to write activity entry", zap.Error(err))
	}
}

func listKeys(lists []model.List) []int {
	keys := make([]int, len(lists))
	for i, l := range lists {
		keys[i] = l.Position
	}
	return keys
}

func indexOfList(lists []model.List, id uuid.UUID) int {
	for i, l := range lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func listReorder(lists []model.List, updates []position.Update) []repository.PositionUpdate {
	reorder := make([]repository.PositionUpdate, len(updates))
	for i, u := range updates {
		reorder[i] = repository.PositionUpdate{ID: lists[u.Index].ID, Position: u.Position}
	}
	return reorder
}
