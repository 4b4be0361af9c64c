package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorResponse is the uniform error body for the REST surface
type errorResponse struct {
	Error string `json:"error"`
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
