// Package api implements the HTTP surface of the users service: single
// record CRUD, bulk queries, and the response shapes for each pagination
// strategy.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/messagebroker/users-api/pkg/observability/logger"
	"github.com/messagebroker/users-api/pkg/users"
)

// ErrorResponse is the error body shape for all failure responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError maps an error to its HTTP response and returns immediately
// afterwards at every call site: client errors become 400s, everything else
// is a logged 500. Store errors never leak their internals to the caller.
func respondError(c *gin.Context, log logger.Logger, err error) {
	requestID, _ := c.Value("request_id").(string)

	var clientErr *users.ClientError
	if errors.As(err, &clientErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "bad_request",
			Message:   clientErr.Error(),
			RequestID: requestID,
		})
		return
	}

	log.WithContext(c.Request.Context()).Error("request failed", "error", err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     "internal_server_error",
		Message:   "an unexpected error occurred",
		RequestID: requestID,
	})
}
