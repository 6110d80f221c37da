package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	templates TemplateStore
	boards    BoardStore
	lists     ListStore
	members   MemberStore
	sync      *BoardSync
}

func NewTemplateHandler(templates TemplateStore, boards BoardStore, lists ListStore, members MemberStore, sync *BoardSync) *TemplateHandler {
	return &TemplateHandler{templates: templates, boards: boards, lists: lists, members: members, sync: sync}
}

type CreateTemplateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Lists       []string `json:"lists" binding:"required,min=1"`
}

type InstantiateTemplateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// List godoc
// @Summary List available board templates
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.BoardTemplate
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load templates"})
		return
	}
	c.JSON(http.StatusOK, templates)
}

// Create godoc
// @Summary Create a board template
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTemplateRequest true "Template details"
// @Success 201 {object} model.BoardTemplate
// @Router /templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	structure, err := json.Marshal(req.Lists)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list structure"})
		return
	}

	tpl := model.BoardTemplate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Structure:   string(structure),
		CreatedByID: userID,
	}
	if err := h.templates.Create(c.Request.Context(), &tpl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template"})
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// Delete godoc
// @Summary Delete a template the caller created
// @Tags templates
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.templates.Delete(c.Request.Context(), id, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Instantiate godoc
// @Summary Create a new board from a template
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param request body InstantiateTemplateRequest true "Board details"
// @Success 201 {object} map[string]interface{}
// @Router /templates/{id}/instantiate [post]
func (h *TemplateHandler) Instantiate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req InstantiateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl, err := h.templates.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load template"})
		return
	}
	if tpl == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	var titles []string
	if err := json.Unmarshal([]byte(tpl.Structure), &titles); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Template structure is corrupt"})
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

	// Sequential creation, so positions are simply 1..n.
	lists := make([]model.List, 0, len(titles))
	for i, title := range titles {
		list := model.List{
			BoardID:  board.ID,
			Title:    title,
			Position: i + 1,
		}
		if err := h.lists.Create(c.Request.Context(), &list, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lists"})
			return
		}
		lists = append(lists, list)
	}

	if err := h.sync.Activity.Create(c.Request.Context(), &model.ActivityLog{
		BoardID:     board.ID,
		UserID:      &userID,
		Type:        model.ActivityBoardCreated,
		Description: "created the board from template " + tpl.Name,
	}); err != nil {
		h.sync.Logger.Error("failed to write activity entry", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"board": board, "lists": lists})
}
