package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/services"
	"github.com/skilltrack/learning-service/internal/utils"
)

type TeamHandler struct {
	BaseHandler
	teamService services.TeamService
}

func NewTeamHandler(teamService services.TeamService, logger utils.Logger) *TeamHandler {
	return &TeamHandler{
		BaseHandler: NewBaseHandler(logger),
		teamService: teamService,
	}
}

func (h *TeamHandler) ListTeams(c *gin.Context) {
	teams, err := h.teamService.List(c.Request.Context(), Principal(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var req services.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	team, err := h.teamService.Create(c.Request.Context(), Principal(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.teamService.Delete(c.Request.Context(), Principal(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Team deleted"})
}
