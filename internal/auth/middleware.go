package auth

import (
	"context"
	"errors"
	"net/http"

	dom "Gatekeeper/internal/domain"
	"Gatekeeper/internal/repo"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the opaque session ID.
const SessionCookieName = "session_id"

// LoginPath is where unauthenticated requests are pointed to.
const LoginPath = "/api/v1/auth/login"

const contextKeyUser = "current_user"

// SessionReader resolves a session ID to a user id. ok is false for a session
// that does not exist; err reports a store failure, which is not the same thing.
type SessionReader interface {
	GetUserID(ctx context.Context, id string) (int64, bool, error)
}

// UserLoader resolves a user id to a user record.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (dom.User, error)
}

// CurrentUser returns the user resolved by LoadCurrentUser, or nil if the
// request is anonymous. The value lives only for the duration of the request.
func CurrentUser(c *gin.Context) *dom.User {
	v, ok := c.Get(contextKeyUser)
	if !ok {
		return nil
	}
	u, ok := v.(*dom.User)
	if !ok {
		return nil
	}
	return u
}

// LoadCurrentUser returns a middleware that resolves the session cookie to a
// user record before any handler runs. It is registered globally, not only on
// protected routes. A missing cookie, an unknown or expired session, or a
// session whose user id no longer resolves to a record all leave the request
// anonymous without surfacing an error; the stale session entry is left in
// place rather than cleared.
func LoadCurrentUser(sessions SessionReader, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}
		userID, ok, err := sessions.GetUserID(c.Request.Context(), sessionID)
		if err != nil {
			// A session-store outage must not read as "logged out".
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.Next()
			return
		}
		u, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repo.ErrUserNotFound) {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(contextKeyUser, &u)
		c.Next()
	}
}

// RequireAuth returns a middleware that rejects anonymous requests before the
// handler runs. The handler itself is never invoked for them; authenticated
// requests pass through untouched, so it composes on any route group.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization required",
				"login": LoginPath,
			})
			return
		}
		c.Next()
	}
}
