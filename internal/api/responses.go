package api

import (
	"errors"
	"net/http"

	"marketplace/internal/apperr"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Abort maps a service error to an HTTP response. Unknown errors become 500
// without leaking internals.
func Abort(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch ae.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindSignatureInvalid:
		status = http.StatusUnauthorized
	case apperr.KindGateway:
		status = http.StatusBadGateway
	}

	c.JSON(status, ErrorResponse{Error: ae.Msg})
}
