package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MemberHandler struct {
	boards        BoardStore
	users         UserStore
	members       MemberStore
	invitations   InvitationStore
	notifications NotificationStore
	guard         AccessResolver
	sync          *BoardSync
}

func NewMemberHandler(boards BoardStore, users UserStore, members MemberStore, invitations InvitationStore, notifications NotificationStore, guard AccessResolver, sync *BoardSync) *MemberHandler {
	return &MemberHandler{
		boards:        boards,
		users:         users,
		members:       members,
		invitations:   invitations,
		notifications: notifications,
		guard:         guard,
		sync:          sync,
	}
}

type InviteRequest struct {
	Email   string     `json:"email" binding:"required,email"`
	Role    model.Role `json:"role" binding:"required"`
	Message string     `json:"message"`
}

type UpdateRoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

// ListMembers godoc
// @Summary List active members of a board
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Success 200 {array} model.BoardMember
// @Router /boards/{id}/members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
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

	members, err := h.members.ListActive(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load members"})
		return
	}

	// Most privileged first, names break ties.
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Role.Rank() != members[j].Role.Rank() {
			return members[i].Role.Rank() < members[j].Role.Rank()
		}
		return members[i].User.Name < members[j].User.Name
	})

	c.JSON(http.StatusOK, members)
}

// Invite godoc
// @Summary Invite a user to a board by email
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param request body InviteRequest true "Invitation details"
// @Success 201 {object} model.BoardInvitation
// @Failure 409 {object} map[string]string
// @Router /boards/{id}/invitations [post]
func (h *MemberHandler) Invite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() || req.Role == model.RoleOwner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return
	}
	if !acc.Permissions.ManageMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to manage members"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	board, err := h.boards.GetByID(c.Request.Context(), boardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load board"})
		return
	}

	existing, err := h.members.GetActiveByEmail(c.Request.Context(), boardID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this board"})
		return
	}

	pending, err := h.invitations.GetPending(c.Request.Context(), boardID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check invitations"})
		return
	}
	if pending != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An invitation for this email is already pending"})
		return
	}

	inv := model.BoardInvitation{
		BoardID:      boardID,
		Email:        email,
		InvitedByID:  userID,
		ProposedRole: req.Role,
		Status:       model.InvitationPending,
		Token:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		Message:      req.Message,
		ExpiresAt:    time.Now().Add(model.InvitationTTL),
	}

	// If the address belongs to a registered user, pin the invitation to
	// them and drop a notification in their inbox.
	invited, err := h.users.FindByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}
	if invited != nil {
		inv.InvitedUserID = &invited.ID
	}

	if err := h.invitations.Create(c.Request.Context(), &inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	if invited != nil {
		h.notify(c, &model.Notification{
			UserID:  invited.ID,
			Type:    model.NotificationBoardInvitation,
			Title:   "Board invitation",
			Message: fmt.Sprintf("You have been invited to join %q as %s", board.Title, inv.ProposedRole),
			BoardID: &boardID,
		})
	}

	c.JSON(http.StatusCreated, inv)
}

// ListInvitations godoc
// @Summary List invitations for a board
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Success 200 {array} model.BoardInvitation
// @Router /boards/{id}/invitations [get]
func (h *MemberHandler) ListInvitations(c *gin.Context) {
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
	if !acc.Permissions.ManageMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to manage members"})
		return
	}

	invitations, err := h.invitations.ListByBoard(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invitations"})
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// AcceptInvitation godoc
// @Summary Accept an invitation by token
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param token path string true "Invitation token"
// @Success 200 {object} model.BoardMember
// @Failure 409 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Router /invitations/{token}/accept [post]
func (h *MemberHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	inv, ok := h.invitationForCaller(c)
	if !ok {
		return
	}

	if inv.Status != model.InvitationPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation has already been responded to"})
		return
	}
	if !inv.IsValid() {
		h.expire(c, inv)
		c.JSON(http.StatusGone, gin.H{"error": "Invitation has expired"})
		return
	}

	member, err := h.invitations.Accept(c.Request.Context(), inv.ID, userID)
	if err != nil {
		// A concurrent accept can win the race between our status check
		// and the transaction.
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation has already been responded to"})
		return
	}

	h.logActivity(c, &model.ActivityLog{
		BoardID:     inv.BoardID,
		UserID:      &userID,
		Type:        model.ActivityMemberAdded,
		Description: "joined the board",
	})

	h.notify(c, &model.Notification{
		UserID:  inv.InvitedByID,
		Type:    model.NotificationMemberAdded,
		Title:   "Invitation accepted",
		Message: fmt.Sprintf("%s accepted your invitation to %q", currentUserEmail(c), inv.Board.Title),
		BoardID: &inv.BoardID,
	})

	c.JSON(http.StatusOK, member)
}

// DeclineInvitation godoc
// @Summary Decline an invitation by token
// @Tags members
// @Security BearerAuth
// @Param token path string true "Invitation token"
// @Success 204
// @Failure 409 {object} map[string]string
// @Router /invitations/{token}/decline [post]
func (h *MemberHandler) DeclineInvitation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	inv, ok := h.invitationForCaller(c)
	if !ok {
		return
	}

	if inv.Status != model.InvitationPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation has already been responded to"})
		return
	}

	now := time.Now()
	inv.Status = model.InvitationDeclined
	inv.RespondedAt = &now
	inv.InvitedUserID = &userID
	if err := h.invitations.Update(c.Request.Context(), inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invitation"})
		return
	}

	c.Status(http.StatusNoContent)
}

// CancelInvitation godoc
// @Summary Cancel a pending invitation
// @Tags members
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param invitationID path string true "Invitation ID"
// @Success 204
// @Failure 409 {object} map[string]string
// @Router /boards/{id}/invitations/{invitationID} [delete]
func (h *MemberHandler) CancelInvitation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invitationID, ok := parseIDParam(c, "invitationID")
	if !ok {
		return
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return
	}
	if !acc.Permissions.ManageMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to manage members"})
		return
	}

	inv, err := h.invitations.GetByID(c.Request.Context(), invitationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invitation"})
		return
	}
	if inv == nil || inv.BoardID != boardID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}
	if inv.Status != model.InvitationPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation is no longer pending"})
		return
	}

	now := time.Now()
	inv.Status = model.InvitationCancelled
	inv.RespondedAt = &now
	if err := h.invitations.Update(c.Request.Context(), inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel invitation"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveMember godoc
// @Summary Remove a member from a board
// @Tags members
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param userID path string true "User ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /boards/{id}/members/{userID} [delete]
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "userID")
	if !ok {
		return
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return
	}
	// Anyone may leave a board themselves; removing others needs the
	// member-management permission.
	if targetID != userID && !acc.Permissions.ManageMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to manage members"})
		return
	}

	board, err := h.boards.GetByID(c.Request.Context(), boardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load board"})
		return
	}
	if targetID == board.OwnerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot remove the board owner"})
		return
	}

	member, err := h.members.GetActive(c.Request.Context(), boardID, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load member"})
		return
	}
	if member == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	member.IsActive = false
	if err := h.members.Update(c.Request.Context(), member); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	h.logActivity(c, &model.ActivityLog{
		BoardID:     boardID,
		UserID:      &userID,
		Type:        model.ActivityMemberRemoved,
		Description: "removed a member from the board",
	})

	if targetID != userID {
		h.notify(c, &model.Notification{
			UserID:  targetID,
			Type:    model.NotificationMemberRemoved,
			Title:   "Removed from board",
			Message: fmt.Sprintf("You have been removed from %q", board.Title),
			BoardID: &boardID,
		})
	}

	c.Status(http.StatusNoContent)
}

// UpdateRole godoc
// @Summary Change a member's role
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param userID path string true "User ID"
// @Param request body UpdateRoleRequest true "New role"
// @Success 200 {object} model.BoardMember
// @Failure 400 {object} map[string]string
// @Router /boards/{id}/members/{userID} [put]
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "userID")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() || req.Role == model.RoleOwner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	acc, err := h.guard.Resolve(c.Request.Context(), userID, boardID)
	if err != nil {
		respondAccessError(c, err)
		return
	}
	if !acc.Permissions.ManageMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to manage members"})
		return
	}

	member, err := h.members.GetActive(c.Request.Context(), boardID, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load member"})
		return
	}
	if member == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}
	if member.Role == model.RoleOwner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change the owner's role"})
		return
	}

	member.Role = req.Role
	if err := h.members.Update(c.Request.Context(), member); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	h.logActivity(c, &model.ActivityLog{
		BoardID:     boardID,
		UserID:      &userID,
		Type:        model.ActivityMemberRoleChanged,
		Description: fmt.Sprintf("changed a member's role to %s", req.Role),
	})

	h.notify(c, &model.Notification{
		UserID:  targetID,
		Type:    model.NotificationRoleChanged,
		Title:   "Role changed",
		Message: fmt.Sprintf("Your role is now %s", req.Role),
		BoardID: &boardID,
	})

	c.JSON(http.StatusOK, member)
}

// invitationForCaller loads the invitation named by the token parameter and
// verifies it is addressed to the authenticated user's email.
func (h *MemberHandler) invitationForCaller(c *gin.Context) (*model.BoardInvitation, bool) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation token is required"})
		return nil, false
	}

	inv, err := h.invitations.GetByToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invitation"})
		return nil, false
	}
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return nil, false
	}
	if !strings.EqualFold(inv.Email, currentUserEmail(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This invitation was sent to a different email address"})
		return nil, false
	}
	return inv, true
}

func (h *MemberHandler) expire(c *gin.Context, inv *model.BoardInvitation) {
	inv.Status = model.InvitationExpired
	if err := h.invitations.Update(c.Request.Context(), inv); err != nil {
		h.sync.Logger.Error("failed to expire invitation", zap.Error(err))
	}
}

func (h *MemberHandler) notify(c *gin.Context, n *model.Notification) {
	if err := h.notifications.Create(c.Request.Context(), n); err != nil {
		h.sync.Logger.Error("failed to create notification", zap.Error(err))
	}
}

func (h *MemberHandler) logActivity(c *gin.Context, entry *model.ActivityLog) {
	if err := h.sync.Activity.Create(c.Request.Context(), entry); err != nil {
		h.sync.Logger.Error("failed to write activity entry", zap.Error(err))
	}
}
