package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseUintIDParam parses a numeric path parameter, responding 400 and
// returning 0 when it is missing or malformed.
func ParseUintIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0
	}
	return uint(id)
}
