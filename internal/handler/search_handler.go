package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	search SearchStore
}

func NewSearchHandler(search SearchStore) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search godoc
// @Summary Search boards, lists and cards visible to the caller
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Param limit query int false "Maximum results per entity type"
// @Success 200 {object} map[string]interface{}
// @Router /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	ctx := c.Request.Context()
	boards, err := h.search.Boards(ctx, userID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	lists, err := h.search.Lists(ctx, userID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	cards, err := h.search.Cards(ctx, userID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"boards": boards, "lists": lists, "cards": cards})
}
