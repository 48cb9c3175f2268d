package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/adapters/storage"
	"retail-cockpit-api/internal/repositories"
	"retail-cockpit-api/internal/services"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps service, repository and storage errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrInvalidInput), repositories.IsValidation(err),
		errors.Is(err, repositories.ErrInvalidID), errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrAccountPending):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound), repositories.IsNotFound(err), storage.IsNotFound(err):
		return http.StatusNotFound
	case repositories.IsDuplicate(err), repositories.IsConstraint(err):
		return http.StatusConflict
	case errors.Is(err, services.ErrDataUnavailable), repositories.IsConnection(err), repositories.IsTransaction(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

var statusTitles = map[int]string{
	http.StatusBadRequest:         "Validation failed",
	http.StatusUnauthorized:       "Unauthorized",
	http.StatusForbidden:          "Forbidden",
	http.StatusNotFound:           "Not found",
	http.StatusConflict:           "Conflict",
	http.StatusServiceUnavailable: "Data unavailable",
	http.StatusGatewayTimeout:     "Timeout",
}

// respondError writes the error response for err. Internal errors are logged
// and their details withheld.
func respondError(c *gin.Context, err error, action string) {
	status := statusFor(err)
	if status == 499 {
		c.Abort()
		return
	}

	title, ok := statusTitles[status]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.Request.URL.Path,
			"action":     action,
		}).WithError(err).Error("Request failed")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to " + action,
			Message: "An internal error occurred",
		})
		return
	}

	c.JSON(status, ErrorResponse{
		Error:   title,
		Message: err.Error(),
	})
}

// bindJSON decodes the request body, writing a 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return false
	}
	return true
}
