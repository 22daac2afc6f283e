package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookflipfinder/models"
)

// errorBody is the envelope every failed request returns.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// respondError maps domain errors onto HTTP statuses. Anything outside
// the known taxonomy becomes an opaque 500.
func respondError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
	case models.IsNotFound(err):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case models.IsConflict(err):
		writeError(c, http.StatusConflict, "conflict", err.Error())
	default:
		slog.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		writeError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorBody{Error: errorDetail{Message: message, Code: code}})
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, "validation_error", message)
}
