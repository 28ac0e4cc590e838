package handler

import (
	"net/http"

	"marketplace/internal/apperr"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps a classified service error to its status code. Unclassified
// and storage failures are attached to the context for the request logger and
// reported with a generic message.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, response.Error(status, "Internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
