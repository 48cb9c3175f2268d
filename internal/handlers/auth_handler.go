package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/middleware"
	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/services"
)

// AuthHandler handles registration, login and token refresh
type AuthHandler struct {
	userService services.UserService
	authService *middleware.AuthService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(userService services.UserService, authService *middleware.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries a bearer token and the profile it was issued for
type LoginResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      *models.UserProfile `json:"user"`
}

// RefreshTokenRequest represents the refresh token request
type RefreshTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// @Summary Register
// @Description Create an account awaiting approval by a manager
// @Tags auth
// @Accept json
// @Produce json
// @Param account body services.RegisterRequest true "Account data"
// @Success 201 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "register")
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// @Summary Login
// @Description Authenticate an approved account and return a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logrus.WithField("client_ip", c.ClientIP()).WithError(err).Info("Login rejected")
		respondError(c, err, "log in")
		return
	}

	h.issue(c, profile)
}

// @Summary Refresh Token
// @Description Exchange a valid token for a new one carrying the current role
// @Tags auth
// @Accept json
// @Produce json
// @Param token body RefreshTokenRequest true "Token to refresh"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Invalid or expired token",
			Message: err.Error(),
		})
		return
	}

	profile, err := h.userService.ResolveProfile(c.Request.Context(), claims.Identity())
	if err != nil {
		respondError(c, err, "refresh token")
		return
	}
	if profile.IsPending() {
		respondError(c, services.ErrAccountPending, "refresh token")
		return
	}

	h.issue(c, profile)
}

// @Summary Get Current User
// @Description Profile of the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	profile, ok := middleware.ProfileFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Unauthorized",
			Message: "No authenticated user",
		})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) issue(c *gin.Context, profile *models.UserProfile) {
	token, expiresAt, err := h.authService.GenerateToken(profile)
	if err != nil {
		respondError(c, err, "generate token")
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      profile,
	})
}

// UserHandler handles account administration
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// @Summary List users
// @Description All accounts split into pending and active
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.UserListing
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	listing, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, listing)
}

// @Summary Approve a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/approve [post]
func (h *UserHandler) ApproveUser(c *gin.Context) {
	profile, err := h.userService.ApproveUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "approve user")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param role body services.UpdateRoleRequest true "Role, store and linked employee"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req services.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	// only admins may grant the admin role
	if req.Role == models.RoleAdmin && middleware.RoleFromContext(c) != models.RoleAdmin {
		respondError(c, services.ErrForbidden, "update role")
		return
	}

	profile, err := h.userService.UpdateRole(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "update role")
		return
	}
	c.JSON(http.StatusOK, profile)
}
