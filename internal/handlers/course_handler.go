package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/services"
	"github.com/skilltrack/learning-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.List(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), Principal(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), Principal(c), id, req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// DeleteCourse cascades to the course's enrollments and reports the
// removed count.
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.courseService.Delete(c.Request.Context(), Principal(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type bulkDeleteCoursesRequest struct {
	CourseIDs []uint `json:"course_ids" binding:"required,min=1"`
}

// BulkDeleteCourses deletes each listed course independently and returns
// a per-item summary; a failed item never rolls back the others.
func (h *CourseHandler) BulkDeleteCourses(c *gin.Context) {
	var req bulkDeleteCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.courseService.BulkDelete(c.Request.Context(), Principal(c), req.CourseIDs)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
