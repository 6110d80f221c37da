package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/mutation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BoardHandler struct {
	boards  BoardStore
	lists   ListStore
	members MemberStore
	guard   AccessResolver
	sync    *BoardSync
}

func NewBoardHandler(boards BoardStore, lists ListStore, members MemberStore, guard AccessResolver, sync *BoardSync) *BoardHandler {
	return &BoardHandler{boards: boards, lists: lists, members: members, guard: guard, sync: sync}
}

type CreateBoardRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type UpdateBoardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Create godoc
// @Summary Create a board
// @Tags boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBoardRequest true "Board details"
// @Success 201 {object} model.Board
// @Router /boards [post]
func (h *BoardHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board := model.Board{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     userID,
	}
	if err := h.boards.Create(c.Request.Context(), &board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	// The owner gets a membership row too, so member listings include them.
	now := time.Now()
	member := model.BoardMember{
		BoardID:    board.ID,
		UserID:     userID,
		Role:       model.RoleOwner,
		IsActive:   true,
		AcceptedAt: &now,
	}
	if err := h.members.Create(c.Request.Context(), &member); err != nil {
		h.sync.Logger.Error("failed to create owner membership", zap.Error(err))
	}

	h.logActivity(c, &model.ActivityLog{
		BoardID:     board.ID,
		UserID:      &userID,
		Type:        model.ActivityBoardCreated,
		Description: "created the board",
	})

	c.JSON(http.StatusCreated, board)
}

// GetAll godoc
// @Summary List boards visible to the caller
// @Tags boards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string][]model.Board
// @Router /boards [get]
func (h *BoardHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	owned, err := h.boards.GetOwned(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load boards"})
		return
	}
	shared, err := h.boards.GetShared(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load boards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"owned": owned, "shared": shared})
}

// GetByID godoc
// @Summary Fetch a board with its lists and cards
// @Tags boards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /boards/{id} [get]
func (h *BoardHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	board, err := h.boards.GetByID(c.Request.Context(), boardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load board"})
		return
	}

	lists, err := h.lists.GetByBoardIDWithCards(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load lists"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"board":       board,
		"lists":       lists,
		"role":        acc.Role,
		"permissions": acc.Permissions,
	})
}

// Update godoc
// @Summary Update board title or description
// @Tags boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param request body UpdateBoardRequest true "Fields to change"
// @Success 200 {object} model.Board
// @Router /boards/{id} [put]
func (h *BoardHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return
	}
	if !acc.Permissions.EditBoard {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit this board"})
		return
	}

	board, err := h.boards.GetByID(c.Request.Context(), boardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load board"})
		return
	}

	if req.Title != nil {
		if *req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		board.Title = *req.Title
	}
	if req.Description != nil {
		board.Description = *req.Description
	}

	if err := h.boards.Update(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}

	h.logActivity(c, &model.ActivityLog{
		BoardID:     board.ID,
		UserID:      &userID,
		Type:        model.ActivityBoardUpdated,
		Description: "updated the board",
	})

	c.JSON(http.StatusOK, board)
}

// Delete godoc
// @Summary Delete a board and everything under it
// @Tags boards
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /boards/{id} [delete]
func (h *BoardHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return
	}
	if !acc.Permissions.DeleteBoard {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the board owner can delete the board"})
		return
	}

	if err := h.boards.Delete(c.Request.Context(), boardID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Mutations godoc
// @Summary Fetch mutations a client missed while disconnected
// @Tags boards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param since query int true "Last sequence number the client has applied"
// @Success 200 {object} map[string]interface{}
// @Failure 410 {object} map[string]string
// @Router /boards/{id}/mutations [get]
func (h *BoardHandler) Mutations(c *gin.Context) {
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

	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil || since < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since parameter"})
		return
	}

	muts, err := h.sync.Log.Since(c.Request.Context(), boardID, since)
	if err != nil {
		if errors.Is(err, mutation.ErrTooFarBehind) {
			// The log no longer retains everything the client is missing;
			// it has to reload the full board snapshot instead.
			c.JSON(http.StatusGone, gin.H{"error": "Client is too far behind, reload the board"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load mutations"})
		return
	}

	head := since
	if len(muts) > 0 {
		head = muts[len(muts)-1].Seq
	}
	c.JSON(http.StatusOK, gin.H{"mutations": muts, "head": head})
}

func (h *BoardHandler) logActivity(c *gin.Context, entry *model.ActivityLog) {
	if err := h.sync.Activity.Create(c.Request.Context(), entry); err != nil {
		h.sync.Logger.Error("failed to write activity entry", zap.Error(err))
	}
}
