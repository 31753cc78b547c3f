package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/services"
	"github.com/skilltrack/learning-service/internal/utils"
)

type MetricsHandler struct {
	BaseHandler
	metricsService services.MetricsService
	exportService  services.ReportExportService
}

func NewMetricsHandler(
	metricsService services.MetricsService,
	exportService services.ReportExportService,
	logger utils.Logger,
) *MetricsHandler {
	return &MetricsHandler{
		BaseHandler:    NewBaseHandler(logger),
		metricsService: metricsService,
		exportService:  exportService,
	}
}

// ===== ORGANIZATION SCOPE =====

func (h *MetricsHandler) Overview(c *gin.Context) {
	report, err := h.metricsService.Overview(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *MetricsHandler) EnrollmentsByCourse(c *gin.Context) {
	rows, err := h.metricsService.EnrollmentsByCourse(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *MetricsHandler) CompletionRateByCourse(c *gin.Context) {
	rows, err := h.metricsService.CompletionRateByCourse(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *MetricsHandler) TeamPerformance(c *gin.Context) {
	rows, err := h.metricsService.TeamPerformance(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *MetricsHandler) OverdueByCourse(c *gin.Context) {
	rows, err := h.metricsService.OverdueByCourse(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Export streams the organization metrics as an XLSX workbook.
func (h *MetricsHandler) Export(c *gin.Context) {
	data, err := h.exportService.ExportOrgMetrics(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("org-metrics-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ===== TEAM SCOPE =====

func (h *MetricsHandler) TeamOverview(c *gin.Context) {
	teamID := ParseUintIDParam(c, "teamId")
	if teamID == 0 {
		return
	}
	report, err := h.metricsService.TeamOverview(c.Request.Context(), Principal(c), teamID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *MetricsHandler) TeamEnrollmentsByCourse(c *gin.Context) {
	teamID := ParseUintIDParam(c, "teamId")
	if teamID == 0 {
		return
	}
	rows, err := h.metricsService.TeamEnrollmentsByCourse(c.Request.Context(), Principal(c), teamID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *MetricsHandler) TeamCompletionRateByCourse(c *gin.Context) {
	teamID := ParseUintIDParam(c, "teamId")
	if teamID == 0 {
		return
	}
	rows, err := h.metricsService.TeamCompletionRateByCourse(c.Request.Context(), Principal(c), teamID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *MetricsHandler) TeamOverdueByCourse(c *gin.Context) {
	teamID := ParseUintIDParam(c, "teamId")
	if teamID == 0 {
		return
	}
	rows, err := h.metricsService.TeamOverdueByCourse(c.Request.Context(), Principal(c), teamID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *MetricsHandler) TeamUserPerformance(c *gin.Context) {
	teamID := ParseUintIDParam(c, "teamId")
	if teamID == 0 {
		return
	}
	rows, err := h.metricsService.TeamUserPerformance(c.Request.Context(), Principal(c), teamID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
