package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"Gatekeeper/internal/auth"
	dom "Gatekeeper/internal/domain"
	"Gatekeeper/internal/dto"
	"Gatekeeper/internal/repo"
	"Gatekeeper/internal/service"

	"github.com/gin-gonic/gin"
)

// userService is what AuthHandler needs from the user service.
type userService interface {
	Register(ctx context.Context, username, password string) (dom.User, error)
	Login(ctx context.Context, username, password string) (dom.User, error)
}

// sessionStore is what AuthHandler needs from the session store.
type sessionStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

// AuthHandler handles register, login, logout and the current-user endpoint.
type AuthHandler struct {
	sessions sessionStore
	userSvc  userService
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(sessions sessionStore, userSvc userService) *AuthHandler {
	return &AuthHandler{sessions: sessions, userSvc: userSvc}
}

// Register godoc
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Credentials"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			status := http.StatusBadRequest
			if errors.Is(err, repo.ErrDuplicateUsername) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": verr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	// Registration does not log the user in; the client proceeds to login.
	c.JSON(http.StatusCreated, gin.H{
		"ok":    true,
		"user":  dto.UserResponse{ID: user.ID, Username: user.Username},
		"login": auth.LoginPath,
	})
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": verr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	// Destroy any session the client already holds before issuing a new one,
	// so a pre-login session ID never survives authentication (fixation).
	if old, err := c.Cookie(auth.SessionCookieName); err == nil && old != "" {
		_ = h.sessions.Delete(c.Request.Context(), old)
	}
	sessionID, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.SetCookie(auth.SessionCookieName, sessionID, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": dto.UserResponse{ID: user.ID, Username: user.Username}})
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(auth.SessionCookieName)
	if err == nil && sessionID != "" {
		_ = h.sessions.Delete(c.Request.Context(), sessionID)
	}
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	u := auth.CurrentUser(c)
	if u == nil {
		// unreachable behind RequireAuth, kept for direct use
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	c.JSON(http.StatusOK, dto.UserResponse{ID: u.ID, Username: u.Username})
}
