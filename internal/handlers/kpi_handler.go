package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/services"
	"github.com/skilltrack/learning-service/internal/utils"
)

type KpiHandler struct {
	BaseHandler
	kpiService services.KpiService
}

func NewKpiHandler(kpiService services.KpiService, logger utils.Logger) *KpiHandler {
	return &KpiHandler{
		BaseHandler: NewBaseHandler(logger),
		kpiService:  kpiService,
	}
}

func (h *KpiHandler) OrgHistory(c *gin.Context) {
	kpis, err := h.kpiService.OrgHistory(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

func (h *KpiHandler) TeamHistory(c *gin.Context) {
	teamID := ParseUintIDParam(c, "teamId")
	if teamID == 0 {
		return
	}
	kpis, err := h.kpiService.TeamHistory(c.Request.Context(), Principal(c), teamID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}
