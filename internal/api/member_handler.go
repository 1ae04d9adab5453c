package api

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MemberHandler exposes member management.
type MemberHandler struct {
	users service.UserManager
}

func NewMemberHandler(users service.UserManager) *MemberHandler {
	return &MemberHandler{users: users}
}

// --- DTOs ---

type CreateMemberRequest struct {
	UserID         string `json:"userId" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	Password       string `json:"password" binding:"required"`
	MembershipType string `json:"membershipType" binding:"required"`
}

type UpdateMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type RenewMembershipRequest struct {
	MembershipType string `json:"membershipType" binding:"required"`
}

type AssignTrainerRequest struct {
	TrainerID string `json:"trainerId" binding:"required"`
}

// --- Handlers ---

// CreateMember godoc
// @Summary Add a member (admin)
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param member body CreateMemberRequest true "Member details"
// @Success 201 {object} domain.Member
// @Failure 400 {object} gin.H "Validation error"
// @Failure 409 {object} gin.H "User ID already exists"
// @Router /members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req CreateMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.users.AddMember(c.Request.Context(), service.NewMemberInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ListMembers returns all members, or only ?status=active|expired ones.
func (h *MemberHandler) ListMembers(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		members []domain.Member
		err     error
	)
	switch status := c.Query("status"); status {
	case "":
		members, err = h.users.GetAllMembers(ctx)
	case "active":
		members, err = h.users.GetAllActiveMembers(ctx)
	case "expired":
		members, err = h.users.GetAllExpiredMembers(ctx)
	default:
		abortWithError(c, http.StatusBadRequest, "status must be 'active' or 'expired'")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) GetMember(c *gin.Context) {
	memberID := c.Param("memberId")
	if !requireSelfOrStaff(c, memberID) {
		return
	}
	m, err := h.users.FindMemberByID(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) UpdateMember(c *gin.Context) {
	memberID := c.Param("memberId")
	if !requireSelfOrStaff(c, memberID) {
		return
	}
	var req UpdateMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.users.UpdateMember(c.Request.Context(), memberID, service.MemberUpdate(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMember deactivates the member; the record stays readable.
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	if err := h.users.DeleteMember(c.Request.Context(), c.Param("memberId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MemberHandler) RenewMembership(c *gin.Context) {
	var req RenewMembershipRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.users.RenewMembership(c.Request.Context(), c.Param("memberId"), req.MembershipType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// AssignTrainer links the member and the trainer on both sides.
func (h *MemberHandler) AssignTrainer(c *gin.Context) {
	var req AssignTrainerRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.users.AssignTrainerToMember(c.Request.Context(), req.TrainerID, c.Param("memberId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberId": c.Param("memberId"), "trainerId": req.TrainerID})
}

func (h *MemberHandler) UnassignTrainer(c *gin.Context) {
	if err := h.users.UnassignTrainerFromMember(c.Request.Context(), c.Param("trainerId"), c.Param("memberId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
