package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitup/habitup-engine/internal/adapters/handler/http/middleware"
	"github.com/habitup/habitup-engine/internal/core/domain"
	"github.com/habitup/habitup-engine/internal/core/services"
)

// Error codes surfaced to clients. credentials-not-found is distinct so the
// login screen can offer a one-click switch to signup.
const (
	codeCredentialsNotFound = "credentials-not-found"
	codeAuthFailed          = "authentication-failed"
)

type AuthHandler struct {
	auth   *services.AuthService
	tokens *services.TokenService
}

func NewAuthHandler(auth *services.AuthService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		tokens: tokens,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type federatedRequest struct {
	Provider string `json:"provider" binding:"required"`
}

type authResponse struct {
	Token   string             `json:"token,omitempty"`
	Profile domain.UserProfile `json:"profile"`
	State   domain.AppState    `json:"state"`
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/guest", h.Guest)
		authGroup.POST("/federated", h.Federated)
		authGroup.POST("/logout", h.Logout)
	}
}

// RegisterRestoreRoute wires session restoration behind the token check.
func (h *AuthHandler) RegisterRestoreRoute(protected *gin.RouterGroup, repo domain.ProfileRepository) {
	protected.GET("/auth/session", func(c *gin.Context) {
		profileID, ok := middleware.GetProfileID(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "profile context missing"})
			return
		}

		ctrl, ok := middleware.GetController(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session context missing"})
			return
		}

		profile, err := repo.GetByID(c.Request.Context(), profileID)
		if err != nil {
			// Restoration failure falls back to a blank WELCOME session.
			ctrl.SignOut()
			c.JSON(http.StatusOK, ctrl.Snapshot())
			return
		}

		if err := ctrl.RestoreSession(profile); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, ctrl.Snapshot())
	})
}

func (h *AuthHandler) completeAuth(c *gin.Context, profile *domain.UserProfile, token string) {
	ctrl, ok := middleware.GetController(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context missing"})
		return
	}

	if err := ctrl.CompleteAuth(profile); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "authentication not available on this screen"})
		return
	}

	snap := ctrl.Snapshot()
	c.JSON(http.StatusOK, authResponse{
		Token:   token,
		Profile: snap.Profile,
		State:   snap.State,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, ok := middleware.GetController(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context missing"})
		return
	}

	// Reject before touching the store: a signup from the wrong screen must
	// not leave an account row behind its 409.
	snap := ctrl.Snapshot()
	if snap.State != domain.StateAuth {
		c.JSON(http.StatusConflict, gin.H{"error": "authentication not available on this screen"})
		return
	}

	// Onboarding answers gathered pre-signup travel with the new account.
	onboarding := snap.Profile.Onboarding

	profile, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Onboarding: onboarding,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrPasswordTooShort), errors.Is(err, domain.ErrNameEmpty):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	h.issueAndComplete(c, profile)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCredentialsNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "no account found with this email",
				"code":  codeCredentialsNotFound,
			})
		case errors.Is(err, domain.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication failed",
				"code":  codeAuthFailed,
			})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	h.issueAndComplete(c, profile)
}

// Guest enters without credentials: an unpersisted profile with the
// subscription pre-granted and no token.
func (h *AuthHandler) Guest(c *gin.Context) {
	profile := h.auth.Guest(c.Request.Context())
	h.completeAuth(c, profile, "")
}

func (h *AuthHandler) Federated(c *gin.Context) {
	var req federatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if url, ok := h.auth.RedirectURL(req.Provider); ok {
		c.JSON(http.StatusOK, gin.H{"redirect_url": url})
		return
	}

	sessionID, _ := middleware.GetSessionID(c)
	ctrl, ok := middleware.GetController(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context missing"})
		return
	}

	snap := ctrl.Snapshot()
	if snap.State != domain.StateAuth {
		c.JSON(http.StatusConflict, gin.H{"error": "authentication not available on this screen"})
		return
	}

	profile, err := h.auth.FederatedLogin(c.Request.Context(), req.Provider, sessionID, snap.Profile.Onboarding)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
			"code":  codeAuthFailed,
		})
		return
	}

	h.issueAndComplete(c, profile)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	ctrl, ok := middleware.GetController(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context missing"})
		return
	}

	ctrl.SignOut()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *AuthHandler) issueAndComplete(c *gin.Context, profile *domain.UserProfile) {
	token, err := h.tokens.GenerateToken(profile.ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	h.completeAuth(c, profile, token)
}
