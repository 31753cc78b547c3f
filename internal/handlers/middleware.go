package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/session"
	"github.com/skilltrack/learning-service/internal/utils"
)

// CSRFHeader carries the per-session token on mutating requests.
const CSRFHeader = "X-CSRF-Token"

const (
	ctxPrincipal = "principal"
	ctxSessionID = "session_id"
	ctxCSRFToken = "csrf_token"
)

// RequireAuth resolves the session cookie into a principal and attaches
// it to the request context. Requests without a live session get 401.
func RequireAuth(store *session.Store, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(session.CookieName)
		if err != nil || sid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Not authenticated",
			})
			return
		}

		sess, err := store.Get(c.Request.Context(), sid)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Not authenticated",
				})
				return
			}
			logger.LogError(err, "Session lookup failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
				Message: "Service temporarily unavailable",
			})
			return
		}

		// Sliding expiration; a failed refresh is not fatal.
		if err := store.Touch(c.Request.Context(), sid); err != nil {
			logger.Warn("Failed to refresh session ttl", "error", err)
		}

		c.Set(ctxPrincipal, authz.Principal{
			ID:     sess.UserID,
			Role:   sess.Role,
			TeamID: sess.TeamID,
		})
		c.Set(ctxSessionID, sid)
		c.Set(ctxCSRFToken, sess.CSRFToken)
		c.Set("user_id", sess.UserID)
		c.Next()
	}
}

// RequireCSRF rejects mutating requests whose CSRF header does not match
// the token stored in the session. Must run after RequireAuth.
func RequireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		expected, _ := c.Get(ctxCSRFToken)
		token := c.GetHeader(CSRFHeader)
		if token == "" || expected == nil || token != expected.(string) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Invalid CSRF token",
			})
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated principal set by RequireAuth. The
// zero value means the middleware did not run; authz denies it anyway.
func Principal(c *gin.Context) authz.Principal {
	if v, exists := c.Get(ctxPrincipal); exists {
		if p, ok := v.(authz.Principal); ok {
			return p
		}
	}
	return authz.Principal{}
}

// SessionID returns the current session id set by RequireAuth.
func SessionID(c *gin.Context) string {
	if v, exists := c.Get(ctxSessionID); exists {
		if sid, ok := v.(string); ok {
			return sid
		}
	}
	return ""
}

// CSRFToken returns the per-session CSRF token set by RequireAuth.
func CSRFToken(c *gin.Context) string {
	if v, exists := c.Get(ctxCSRFToken); exists {
		if token, ok := v.(string); ok {
			return token
		}
	}
	return ""
}
