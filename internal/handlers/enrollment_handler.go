package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/services"
	"github.com/skilltrack/learning-service/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
	}
}

type assignRequest struct {
	UserID   uint `json:"user_id" binding:"required"`
	CourseID uint `json:"course_id" binding:"required"`
}

// Assign enrolls a target employee in a course. An existing enrollment
// returns 409 with the record attached, as an idempotent signal.
func (h *EnrollmentHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.enrollmentService.Assign(c.Request.Context(), Principal(c), req.UserID, req.CourseID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.respondEnrollmentResult(c, result)
}

type selfEnrollRequest struct {
	CourseID uint `json:"course_id" binding:"required"`
}

func (h *EnrollmentHandler) EnrollSelf(c *gin.Context) {
	var req selfEnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.enrollmentService.EnrollSelf(c.Request.Context(), Principal(c), req.CourseID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.respondEnrollmentResult(c, result)
}

func (h *EnrollmentHandler) respondEnrollmentResult(c *gin.Context, result *services.EnrollmentResult) {
	if result.AlreadyEnrolled {
		c.JSON(http.StatusConflict, gin.H{
			"message":    "User already enrolled in course",
			"enrollment": result.Enrollment,
		})
		return
	}
	c.JSON(http.StatusCreated, result.Enrollment)
}

type setProgressRequest struct {
	CourseID uint `json:"course_id" binding:"required"`
	Progress *int `json:"progress" binding:"required"`
}

func (h *EnrollmentHandler) SetProgress(c *gin.Context) {
	var req setProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	enrollment, err := h.enrollmentService.SetProgress(c.Request.Context(), Principal(c), req.CourseID, *req.Progress)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

type markCompletedRequest struct {
	CourseID  uint  `json:"course_id" binding:"required"`
	Completed *bool `json:"completed" binding:"required"`
}

func (h *EnrollmentHandler) MarkCompleted(c *gin.Context) {
	var req markCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	enrollment, err := h.enrollmentService.MarkCompleted(c.Request.Context(), Principal(c), req.CourseID, *req.Completed)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) ListByUser(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	enrollments, err := h.enrollmentService.ListForUser(c.Request.Context(), Principal(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollments)
}

type checkStatusRequest struct {
	CourseID uint   `json:"course_id" binding:"required"`
	UserIDs  []uint `json:"user_ids" binding:"required"`
}

// CheckStatus reports which candidate users already hold an enrollment.
// checked_count reflects the candidate set after team restriction and can
// be smaller than the input.
func (h *EnrollmentHandler) CheckStatus(c *gin.Context) {
	var req checkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.enrollmentService.CheckStatus(c.Request.Context(), Principal(c), req.CourseID, req.UserIDs)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
