package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/services"
	"github.com/skilltrack/learning-service/internal/session"
	"github.com/skilltrack/learning-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService       services.AuthService
	enrollmentService services.EnrollmentService
	sessions          *session.Store
	sessionTTL        time.Duration
	secureCookies     bool
}

func NewAuthHandler(
	authService services.AuthService,
	enrollmentService services.EnrollmentService,
	sessions *session.Store,
	sessionTTL time.Duration,
	secureCookies bool,
	logger utils.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:       NewBaseHandler(logger),
		authService:       authService,
		enrollmentService: enrollmentService,
		sessions:          sessions,
		sessionTTL:        sessionTTL,
		secureCookies:     secureCookies,
	}
}

// Login verifies credentials, opens a session, and sets the session
// cookie. The CSRF token is returned so the client can send it on
// mutating requests.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	sid, sess, err := h.sessions.Create(c.Request.Context(), user)
	if err != nil {
		h.LogError(c, err, "Failed to create session")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Service temporarily unavailable",
		})
		return
	}

	h.setSessionCookie(c, sid, int(h.sessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"csrf_token": sess.CSRFToken,
	})
}

// Logout destroys the server-side session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := SessionID(c)
	if sid != "" {
		if err := h.sessions.Destroy(c.Request.Context(), sid); err != nil {
			h.LogError(c, err, "Failed to destroy session")
		}
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out"})
}

// Csrf returns the per-session CSRF token.
func (h *AuthHandler) Csrf(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": CSRFToken(c)})
}

// Me returns the caller's profile together with their enrollments and
// course summaries.
func (h *AuthHandler) Me(c *gin.Context) {
	actor := Principal(c)

	user, err := h.authService.GetProfile(c.Request.Context(), actor.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	enrollments, err := h.enrollmentService.ListForUser(c.Request.Context(), actor, actor.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"enrollments": enrollments,
	})
}

// UpdateMe updates the caller's own name and email.
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), Principal(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword verifies the current password before setting a new one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), Principal(c), req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Password changed"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sid string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, sid, maxAge, "/", "", h.secureCookies, true)
}
