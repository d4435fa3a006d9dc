package api

import (
	"encoding/json"               // Decode error types
	"errors"                      // Error inspection
	"net/http"                    // HTTP status codes
	"prize_wheel/internal/domain" // Domain errors and codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusOf maps a domain error code to an HTTP status
func statusOf(code int) int {
	switch code {
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeInvalidRequest, domain.CodeInvalidAmount, domain.CodeInvalidHandle,
		domain.CodeInvalidReferral, domain.CodeInsufficientBalance:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error body; unexpected errors are logged
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	code := domain.CodeOf(err) // Client-facing code
	status := statusOf(code)   // HTTP status for the code
	body := gin.H{"error": err.Error(), "code": code}
	var ib *domain.InsufficientBalanceError
	if errors.As(err, &ib) {
		body["required"] = ib.Required // XD needed
		body["deficit"] = ib.Deficit() // XD missing
	}
	if status == http.StatusInternalServerError {
		// Do not leak internals to the client
		log.WithFields(logrus.Fields{
			"path":  c.FullPath(), // Route
			"error": err.Error(),  // Error message
		}).Error("Request failed")
		body["error"] = "Internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

// bindError maps a request body that failed to bind. An amount field holding
// anything but a whole number is an invalid amount, not a malformed request
func bindError(err error, amountField string) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == amountField {
		return &domain.ValidationError{
			Reason:  domain.ReasonInvalidAmount,
			Message: "Please enter a whole number of Robux.",
		}
	}
	return &domain.ValidationError{Message: "Invalid request"}
}

// persistWarning is shown when a change was applied but could not be saved yet
const persistWarning = "Your progress could not be saved right now and will be retried automatically."
