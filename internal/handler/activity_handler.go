package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activity ActivityStore
	guard    AccessResolver
}

func NewActivityHandler(activity ActivityStore, guard AccessResolver) *ActivityHandler {
	return &ActivityHandler{activity: activity, guard: guard}
}

// ListByBoard godoc
// @Summary List recent activity on a board, newest first
// @Tags activity
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {array} model.ActivityLog
// @Router /boards/{id}/activity [get]
func (h *ActivityHandler) ListByBoard(c *gin.Context) {
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

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.activity.ListByBoard(c.Request.Context(), boardID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load activity"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
