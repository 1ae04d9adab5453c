package api

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
	users       service.UserManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, users service.UserManager) *AuthHandler {
	return &AuthHandler{authService: authService, users: users}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	UserID         string `json:"userId" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	Password       string `json:"password" binding:"required"`
	MembershipType string `json:"membershipType" binding:"required"`
}

type LoginRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the token and the concrete user; the password hash is
// never serialised.
type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register as a new member
// @Description Self-registration always creates a member account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} domain.Member "Member created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (user ID already exists)"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.authService.Register(c.Request.Context(), service.NewMemberInput{
		UserID:         req.UserID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		MembershipType: req.MembershipType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates an admin, trainer or member and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials or inactive account)"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, User: user})
}

// Me returns the authenticated user's record.
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		user domain.User
		err  error
	)
	switch p.Role {
	case domain.RoleAdmin:
		user, err = h.users.FindAdminByID(ctx, p.UserID)
	case domain.RoleTrainer:
		user, err = h.users.FindTrainerByID(ctx, p.UserID)
	default:
		user, err = h.users.FindMemberByID(ctx, p.UserID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
