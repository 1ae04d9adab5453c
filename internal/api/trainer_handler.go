package api

import (
	"alcyxob/gym-manager/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TrainerHandler exposes trainer management.
type TrainerHandler struct {
	users service.UserManager
}

// NewTrainerHandler creates a new TrainerHandler.
func NewTrainerHandler(users service.UserManager) *TrainerHandler {
	return &TrainerHandler{users: users}
}

// --- DTOs ---

type CreateTrainerRequest struct {
	UserID          string `json:"userId" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Password        string `json:"password" binding:"required"`
	Specialization  string `json:"specialization" binding:"required"`
	ExperienceYears int    `json:"experienceYears" binding:"min=0"`
}

type UpdateTrainerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Specialization  string `json:"specialization"`
	ExperienceYears *int   `json:"experienceYears"`
}

// --- Handlers ---

// CreateTrainer godoc
// @Summary Add a trainer (admin)
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trainer body CreateTrainerRequest true "Trainer details"
// @Success 201 {object} domain.Trainer
// @Failure 400 {object} gin.H "Validation error"
// @Failure 409 {object} gin.H "User ID already exists"
// @Router /trainers [post]
func (h *TrainerHandler) CreateTrainer(c *gin.Context) {
	var req CreateTrainerRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.users.AddTrainer(c.Request.Context(), service.NewTrainerInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListTrainers returns all trainers, or only active ones with ?status=active.
func (h *TrainerHandler) ListTrainers(c *gin.Context) {
	ctx := c.Request.Context()
	switch c.Query("status") {
	case "":
		trainers, err := h.users.GetAllTrainers(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, trainers)
	case "active":
		trainers, err := h.users.GetAllActiveTrainers(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, trainers)
	default:
		abortWithError(c, http.StatusBadRequest, "status must be 'active'")
	}
}

func (h *TrainerHandler) GetTrainer(c *gin.Context) {
	t, err := h.users.FindTrainerByID(c.Request.Context(), c.Param("trainerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TrainerHandler) UpdateTrainer(c *gin.Context) {
	var req UpdateTrainerRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.users.UpdateTrainer(c.Request.Context(), c.Param("trainerId"), service.TrainerUpdate(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTrainer deactivates the trainer.
func (h *TrainerHandler) DeleteTrainer(c *gin.Context) {
	if err := h.users.DeleteTrainer(c.Request.Context(), c.Param("trainerId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTrainerMembers godoc
// @Summary List the members assigned to a trainer
// @Tags Trainers
// @Produce json
// @Security BearerAuth
// @Param trainerId path string true "Trainer ID"
// @Success 200 {array} domain.Member
// @Failure 404 {object} gin.H "Trainer not found"
// @Router /trainers/{trainerId}/members [get]
func (h *TrainerHandler) GetTrainerMembers(c *gin.Context) {
	members, err := h.users.GetMembersByTrainer(c.Request.Context(), c.Param("trainerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
